package http

import (
	"net/url"

	"github.com/go-playground/validator/v10"

	"edudash/internal/rangefilter"
)

// filterParam is one "column:min:max" filter from the query string.
type filterParam struct {
	Column string  `validate:"required"`
	Min    float64 `validate:"ltefield=Max"`
	Max    float64
}

// boundsQuery is the query of GET /datasets/{name}/bounds.
type boundsQuery struct {
	Column string `validate:"required"`
}

// parseFilters reads every filter parameter of q. An empty min reads as 0 and an
// empty max as unbounded, so "教育经费合计:1e8:" has no upper limit.
func parseFilters(q url.Values, validate *validator.Validate) (rangefilter.Filters, error) {
	raw := q["filter"]
	if len(raw) == 0 {
		return nil, nil
	}

	filters := make(rangefilter.Filters, len(raw))
	for _, s := range raw {
		p, err := parseFilter(s)
		if err != nil {
			return nil, err
		}
		if err := validate.Struct(p); err != nil {
			return nil, err
		}
		filters[p.Column] = rangefilter.Range{Min: p.Min, Max: p.Max}
	}
	return filters, nil
}

func parseFilter(s string) (filterParam, error) {
	column, r, err := rangefilter.ParseSpec(s)
	if err != nil {
		return filterParam{}, err
	}
	return filterParam{Column: column, Min: r.Min, Max: r.Max}, nil
}
