package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query   string
		page    int
		perPage int
		offset  int
	}{
		{"", 1, 20, 0},
		{"?page=3&per_page=50", 3, 50, 100},
		{"?page=-1", 1, 20, 0},
		{"?page=abc&per_page=xyz", 1, 20, 0},
		{"?per_page=500", 1, 20, 0},
		{"?page=2&per_page=100", 2, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/appointments"+tt.query, nil)
			p := FromRequest(req)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
			assert.Equal(t, tt.offset, p.Offset)
		})
	}
}

func TestNewResult(t *testing.T) {
	r := NewResult([]int{1, 2}, 45, New(2, 20))
	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.True(t, r.HasPrev)

	last := NewResult([]int{1}, 41, New(3, 20))
	assert.False(t, last.HasNext)

	empty := NewResult[int](nil, 0, DefaultParams())
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}
