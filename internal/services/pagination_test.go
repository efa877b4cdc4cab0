package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	cases := []struct {
		name       string
		total      int64
		requested  string
		page       int
		totalPages int
		offset     int
	}{
		{"empty result", 0, "", 1, 1, 0},
		{"empty result out of range", 0, "3", 1, 1, 0},
		{"exact multiple", 20, "2", 2, 2, 10},
		{"whitespace", 25, " 2 ", 2, 3, 10},
		{"not an integer", 25, "two", 1, 3, 0},
		{"decimal", 25, "2.0", 1, 3, 0},
		{"below range", 25, "0", 3, 3, 20},
		{"above range", 25, "4", 3, 3, 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := paginate(tc.total, 10, tc.requested)
			require.Equal(t, tc.page, p.Page)
			require.Equal(t, tc.totalPages, p.TotalPages)
			require.Equal(t, tc.offset, p.Offset())
			require.Equal(t, int(tc.total), p.Total)
		})
	}
}

func TestPaginateGuardsPageSize(t *testing.T) {
	p := paginate(3, 0, "2")
	require.Equal(t, 1, p.PerPage)
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, 2, p.Page)
	require.True(t, p.HasNext)
	require.True(t, p.HasPrevious)
}
