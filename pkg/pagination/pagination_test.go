package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{name: "defaults", in: Params{}, want: Params{Page: 1, Limit: 10}},
		{name: "negative page", in: Params{Page: -3, Limit: 20}, want: Params{Page: 1, Limit: 20}},
		{name: "limit capped", in: Params{Page: 2, Limit: 500}, want: Params{Page: 2, Limit: 100}},
		{name: "passthrough", in: Params{Page: 4, Limit: 50}, want: Params{Page: 4, Limit: 50}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 30, Params{Page: 4, Limit: 10}.Offset())
	assert.Equal(t, 0, Params{}.Offset())
}

func TestNewPage(t *testing.T) {
	p := NewPage(Params{Page: 2, Limit: 10}, 25)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, int64(25), p.Total)
	assert.Equal(t, 3, p.TotalPages)

	exact := NewPage(Params{Page: 1, Limit: 10}, 30)
	assert.Equal(t, 3, exact.TotalPages)

	empty := NewPage(Params{}, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.Equal(t, int64(0), empty.Total)
}
