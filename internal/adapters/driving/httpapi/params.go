package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// requestFromQuery reads a run request from query parameters:
// make, model, colour, category, price_min, price_max, mileage_min,
// mileage_max, age_min, age_max, concurrency, and repeated or
// comma-separated source.
func requestFromQuery(q url.Values) (domain.RunRequest, error) {
	req := domain.RunRequest{
		Criteria: domain.SearchCriteria{
			Make:     q.Get("make"),
			Model:    q.Get("model"),
			Colour:   q.Get("colour"),
			Category: q.Get("category"),
		},
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"price_min", &req.Criteria.Price.Min},
		{"price_max", &req.Criteria.Price.Max},
		{"mileage_min", &req.Criteria.Mileage.Min},
		{"mileage_max", &req.Criteria.Mileage.Max},
		{"age_min", &req.Criteria.Age.Min},
		{"age_max", &req.Criteria.Age.Max},
		{"concurrency", &req.Concurrency},
	}
	for _, p := range ints {
		raw := strings.TrimSpace(q.Get(p.key))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return domain.RunRequest{}, fmt.Errorf("invalid %s: %s", p.key, raw)
		}
		*p.dst = v
	}

	for _, raw := range q["source"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.Sources = append(req.Sources, name)
			}
		}
	}
	return req, nil
}
