package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/carsweep/internal/core/domain"
)

// ParseQuery turns a one-line query into a run request.
//
// The first two bare words are make and model. Ranges use comparisons
// (price<8000, mileage>20000, age<5) or the explicit keys price_min,
// price_max and so on. colour=, category=, source= and concurrency= set
// the remaining fields; source accepts a comma-separated list.
func ParseQuery(text string) (domain.RunRequest, error) {
	var req domain.RunRequest
	bare := 0

	for _, token := range strings.Fields(text) {
		key, op, value, ok := splitToken(token)
		if !ok {
			switch bare {
			case 0:
				req.Criteria.Make = token
			case 1:
				req.Criteria.Model = token
			default:
				req.Criteria.Model += " " + token
			}
			bare++
			continue
		}

		if err := apply(&req, key, op, value); err != nil {
			return domain.RunRequest{}, err
		}
	}

	if req.Criteria.Make == "" {
		return domain.RunRequest{}, ErrMissingMake
	}
	return req, nil
}

func splitToken(token string) (key string, op byte, value string, ok bool) {
	i := strings.IndexAny(token, "=<>")
	if i <= 0 || i == len(token)-1 {
		return "", 0, "", false
	}
	return strings.ToLower(token[:i]), token[i], token[i+1:], true
}

func apply(req *domain.RunRequest, key string, op byte, value string) error {
	switch key {
	case "colour", "color":
		req.Criteria.Colour = value
		return nil
	case "category":
		req.Criteria.Category = value
		return nil
	case "source", "sources":
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				req.Sources = append(req.Sources, name)
			}
		}
		return nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: %s must be a whole number", ErrInvalidQuery, key)
	}

	if key == "concurrency" {
		req.Concurrency = n
		return nil
	}

	field, bound, found := strings.Cut(key, "_")
	var r *domain.Range
	switch field {
	case "price":
		r = &req.Criteria.Price
	case "mileage":
		r = &req.Criteria.Mileage
	case "age":
		r = &req.Criteria.Age
	default:
		return fmt.Errorf("%w: unknown key %q", ErrInvalidQuery, key)
	}

	if found {
		if op != '=' {
			return fmt.Errorf("%w: use %s=N", ErrInvalidQuery, key)
		}
		switch bound {
		case "min":
			r.Min = n
		case "max":
			r.Max = n
		default:
			return fmt.Errorf("%w: unknown key %q", ErrInvalidQuery, key)
		}
		return nil
	}

	switch op {
	case '<':
		r.Max = n
	case '>':
		r.Min = n
	default:
		return fmt.Errorf("%w: use %s<N or %s>N", ErrInvalidQuery, key, key)
	}
	return nil
}

func validateQuery(text string) error {
	_, err := ParseQuery(text)
	return err
}
