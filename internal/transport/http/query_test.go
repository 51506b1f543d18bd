package http

import (
	"math"
	"net/url"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    filterParam
		wantErr bool
	}{
		{in: "一本率:20:100", want: filterParam{Column: "一本率", Min: 20, Max: 100}},
		{in: "教育经费合计:1e8:", want: filterParam{Column: "教育经费合计", Min: 1e8, Max: math.Inf(1)}},
		{in: "师生比::15", want: filterParam{Column: "师生比", Min: 0, Max: 15}},
		{in: "a:b:1:2", want: filterParam{Column: "a:b", Min: 1, Max: 2}},
		{in: "一本率", wantErr: true},
		{in: "一本率:1", wantErr: true},
		{in: "一本率:x:1", wantErr: true},
		{in: "一本率:NaN:1", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseFilter(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseFiltersValidates(t *testing.T) {
	v := validator.New()

	filters, err := parseFilters(url.Values{"filter": {"一本率:20:100", "师生比:5:"}}, v)
	require.NoError(t, err)
	assert.Len(t, filters, 2)
	assert.True(t, math.IsInf(filters["师生比"].Max, 1))

	_, err = parseFilters(url.Values{"filter": {"一本率:50:10"}}, v)
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = parseFilters(url.Values{"filter": {":1:2"}}, v)
	assert.ErrorAs(t, err, &verrs)

	filters, err = parseFilters(url.Values{}, v)
	assert.NoError(t, err)
	assert.Nil(t, filters)
}
