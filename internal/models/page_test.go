package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		raw     string
		want    SortOrder
		wantErr bool
	}{
		{"balance", SortOrder{Field: "balance", Direction: Asc}, false},
		{"balance,desc", SortOrder{Field: "balance", Direction: Desc}, false},
		{"balance,DESC", SortOrder{Field: "balance", Direction: Desc}, false},
		{" customerId , asc ", SortOrder{Field: "customerId", Direction: Asc}, false},
		{"balance,sideways", SortOrder{}, true},
		{",desc", SortOrder{}, true},
		{"a,b,c", SortOrder{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseSortOrder(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    PageSpec
		wantErr bool
	}{
		{"defaults", PageSpec{Page: 0, Size: DefaultPageSize}, false},
		{"negative page", PageSpec{Page: -1, Size: 10}, true},
		{"zero size", PageSpec{Page: 0, Size: 0}, true},
		{"oversized", PageSpec{Page: 0, Size: MaxPageSize + 1}, true},
		{"offset overflow", PageSpec{Page: math.MaxInt / 500, Size: MaxPageSize}, true},
		{"largest addressable page", PageSpec{Page: math.MaxInt / MaxPageSize, Size: MaxPageSize}, false},
		{"known sort", PageSpec{Page: 0, Size: 10, Sort: []SortOrder{{Field: "balance", Direction: Desc}}}, false},
		{"unknown sort", PageSpec{Page: 0, Size: 10, Sort: []SortOrder{{Field: "password", Direction: Asc}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewPageTotals(t *testing.T) {
	p := NewPage([]int{1, 2, 3, 4, 5}, PageSpec{Page: 2, Size: 10}, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(25), p.TotalElements)
	assert.Equal(t, 2, p.Page)

	empty := NewPage[int](nil, PageSpec{Page: 0, Size: 10}, 0)
	assert.NotNil(t, empty.Content)
	assert.Equal(t, 0, empty.TotalPages)
}
