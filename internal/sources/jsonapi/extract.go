package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// decodeItems parses body and walks path to the results array.
func decodeItems(body []byte, path []string) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	node, ok := lookup(root, path)
	if !ok {
		return nil, fmt.Errorf("%w at %q", ErrItemsNotFound, strings.Join(path, "."))
	}
	list, ok := node.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an array", ErrItemsNotFound, strings.Join(path, "."))
	}

	items := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		if obj, ok := entry.(map[string]any); ok {
			items = append(items, obj)
		}
	}
	return items, nil
}

// lookup follows a dotted path through nested objects.
// Numeric segments index into arrays.
func lookup(node any, path []string) (any, bool) {
	for _, key := range path {
		switch v := node.(type) {
		case map[string]any:
			next, ok := v[key]
			if !ok {
				return nil, false
			}
			node = next
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			node = v[i]
		default:
			return nil, false
		}
	}
	return node, true
}

// text renders a scalar JSON value. Objects, arrays and null render empty.
func text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func (a *Adapter) field(item map[string]any, name string) string {
	v, ok := lookup(item, a.config.Fields[name])
	if !ok {
		return ""
	}
	return text(v)
}

// mapListing converts one result object. Items without a URL are dropped.
func (a *Adapter) mapListing(item map[string]any, base *url.URL) (domain.Listing, bool) {
	link := resolve(base, a.field(item, "url"))
	if link == "" {
		return domain.Listing{}, false
	}

	listing := domain.Listing{
		URL:          link,
		ImageURL:     resolve(base, a.field(item, "image")),
		Title:        a.field(item, "title"),
		Price:        a.field(item, "price"),
		Location:     a.field(item, "location"),
		Registration: a.field(item, "registration"),
		Mileage:      a.field(item, "mileage"),
		Year:         a.field(item, "year"),
		SourceName:   a.name,
	}

	for _, key := range a.config.ExtraFields {
		v, ok := lookup(item, splitPath(key))
		if !ok {
			continue
		}
		if s := text(v); s != "" {
			if listing.Extra == nil {
				listing.Extra = make(map[string]string)
			}
			listing.Extra[key] = s
		}
	}
	return listing, true
}

// resolve makes ref absolute against base.
func resolve(base *url.URL, ref string) string {
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
