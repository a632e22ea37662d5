package webpage

import (
	"encoding/json"
	"fmt"
)

// optionMatch is the result of optionScript.
type optionMatch struct {
	// Found is false when the dropdown itself is missing.
	Found bool `json:"found"`

	// Value is the matching option value, empty when nothing matches.
	Value string `json:"value"`
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// optionScript finds the option of a dropdown whose value or label equals want,
// ignoring case.
func optionScript(selector, want string) string {
	return fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  if (!el) return {found: false, value: ""};
  const want = %s.toUpperCase();
  for (const o of Array.from(el.options || [])) {
    if (o.value.toUpperCase() === want || o.text.trim().toUpperCase() === want) {
      return {found: true, value: o.value};
    }
  }
  return {found: true, value: ""};
})()`, jsString(selector), jsString(want))
}

// changeScript fires input and change events so dependent controls update.
func changeScript(selector string) string {
	return fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  if (!el) return false;
  el.dispatchEvent(new Event("input", {bubbles: true}));
  el.dispatchEvent(new Event("change", {bubbles: true}));
  return true;
})()`, jsString(selector))
}

// extractSpec is embedded into extractScript.
type extractSpec struct {
	Item   string           `json:"item"`
	Fields map[string]Field `json:"fields"`
	Extra  map[string]Field `json:"extra"`
}

// extractedItem is one result card read by extractScript.
type extractedItem struct {
	Fields map[string]string `json:"fields"`
	Extra  map[string]string `json:"extra"`
}

// extractScript reads every result card. href and src are read as
// properties so relative links come back absolute.
func extractScript(spec extractSpec) (string, error) {
	b, err := json.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("encoding extract spec: %w", err)
	}
	return fmt.Sprintf(`(() => {
  const spec = %s;
  const read = (root, f) => {
    const el = f.sel ? root.querySelector(f.sel) : root;
    if (!el) return "";
    if (f.attr === "href" || f.attr === "src") return el[f.attr] || el.getAttribute(f.attr) || "";
    if (f.attr) return el.getAttribute(f.attr) || "";
    return (el.textContent || "").replace(/\s+/g, " ").trim();
  };
  const readAll = (root, fields) => {
    const out = {};
    for (const [name, f] of Object.entries(fields || {})) out[name] = read(root, f);
    return out;
  };
  return Array.from(document.querySelectorAll(spec.item)).map(root => ({
    fields: readAll(root, spec.fields),
    extra: readAll(root, spec.extra),
  }));
})()`, b), nil
}
