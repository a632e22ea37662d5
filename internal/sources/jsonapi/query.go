package jsonapi

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// placeholder matches {name} in an endpoint template.
var placeholder = regexp.MustCompile(`\{([a-z_]+)\}`)

// expand fills the endpoint template with values.
// Path placeholders are path-escaped. A query parameter whose value is a
// single placeholder without a value is dropped.
func expand(tmpl string, values map[string]string) (string, error) {
	base, rawQuery, _ := strings.Cut(tmpl, "?")

	path := placeholder.ReplaceAllStringFunc(base, func(m string) string {
		return url.PathEscape(values[m[1:len(m)-1]])
	})

	u, err := url.Parse(path)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEndpoint, tmpl)
	}

	query := url.Values{}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, raw, _ := strings.Cut(pair, "=")
		if m := placeholder.FindStringSubmatch(raw); m != nil && m[0] == raw {
			if v := values[m[1]]; v != "" {
				query.Add(key, v)
			}
			continue
		}
		query.Add(key, placeholder.ReplaceAllStringFunc(raw, func(m string) string {
			return values[m[1:len(m)-1]]
		}))
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// referenced returns the placeholder names used by the template.
func referenced(tmpl string) map[string]bool {
	names := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		names[m[1]] = true
	}
	return names
}

// unexpressed lists criteria keys with a value the template has no placeholder for.
func unexpressed(tmpl string, values map[string]string) []string {
	refs := referenced(tmpl)
	var missing []string
	for key, v := range values {
		if v != "" && !refs[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}
