package mcpservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	all := []int{0, 1, 2, 3, 4}

	tests := []struct {
		name     string
		cursor   string
		pageSize int
		want     []int
		next     string
	}{
		{"everything", "", 0, []int{0, 1, 2, 3, 4}, ""},
		{"everything from offset", "2", 0, []int{2, 3, 4}, ""},
		{"first page", "", 2, []int{0, 1}, "2"},
		{"middle page", "2", 2, []int{2, 3}, "4"},
		{"last page", "4", 2, []int{4}, ""},
		{"exact fit", "3", 2, []int{3, 4}, ""},
		{"past the end", "9", 2, []int{}, ""},
		{"at the end", "5", 0, []int{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := paginate(all, tt.cursor, tt.pageSize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Items)
			assert.Equal(t, tt.next, page.Next())
		})
	}
}

func TestPaginateInvalidCursor(t *testing.T) {
	for _, c := range []string{"abc", "-1", "1.5"} {
		_, err := paginate([]int{1}, c, 0)
		assert.ErrorIs(t, err, ErrInvalidCursor, "cursor %q", c)
	}
}

func TestPaginateWalksEverything(t *testing.T) {
	all := make([]int, 23)
	for i := range all {
		all[i] = i
	}
	var seen []int
	cursor := ""
	for {
		page, err := paginate(all, cursor, 5)
		require.NoError(t, err)
		seen = append(seen, page.Items...)
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}
	assert.Equal(t, all, seen)
}
