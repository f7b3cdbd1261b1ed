package fastpager

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Page(t *testing.T) {
	tests := []struct {
		name          string
		page          *Page[int]
		lastPage      int
		hasMore       bool
		firstItem     int
		lastItem      int
		nextPageToken int
	}{
		{
			name:          "first of several pages",
			page:          &Page[int]{Items: []int{1, 2, 3}, Total: 7, PerPage: 3, CurrentPage: 1},
			lastPage:      3,
			hasMore:       true,
			firstItem:     1,
			lastItem:      3,
			nextPageToken: 2,
		},
		{
			name:          "partial last page",
			page:          &Page[int]{Items: []int{7}, Total: 7, PerPage: 3, CurrentPage: 3},
			lastPage:      3,
			hasMore:       false,
			firstItem:     7,
			lastItem:      7,
			nextPageToken: 0,
		},
		{
			name:          "exact division",
			page:          &Page[int]{Items: []int{4, 5, 6}, Total: 6, PerPage: 3, CurrentPage: 2},
			lastPage:      2,
			hasMore:       false,
			firstItem:     4,
			lastItem:      6,
			nextPageToken: 0,
		},
		{
			name:          "empty dataset",
			page:          &Page[int]{Items: []int{}, Total: 0, PerPage: 15, CurrentPage: 1},
			lastPage:      FirstPage,
			hasMore:       false,
			firstItem:     0,
			lastItem:      0,
			nextPageToken: 0,
		},
		{
			name:          "page past the end",
			page:          &Page[int]{Items: []int{}, Total: 4, PerPage: 2, CurrentPage: 9},
			lastPage:      2,
			hasMore:       false,
			firstItem:     0,
			lastItem:      0,
			nextPageToken: 0,
		},
		{
			name:          "nil page",
			page:          nil,
			lastPage:      FirstPage,
			hasMore:       false,
			firstItem:     0,
			lastItem:      0,
			nextPageToken: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.lastPage, tt.page.LastPage())
			require.Equal(t, tt.hasMore, tt.page.HasMorePages())
			require.Equal(t, tt.firstItem, tt.page.FirstItem())
			require.Equal(t, tt.lastItem, tt.page.LastItem())
			require.Equal(t, tt.nextPageToken, tt.page.NextPageToken().GetPage())
		})
	}
}

func Test_simplePageBuilder(t *testing.T) {
	builder := simplePageBuilder[int]()
	require.True(t, builder.lookahead)
	require.False(t, builder.count)

	page := builder.build([]int{1, 2, 3}, 0, 2, 4)
	require.Equal(t, []int{1, 2}, page.Items)
	require.True(t, page.HasMorePages())
	require.False(t, page.OnFirstPage())
	require.Equal(t, 7, page.FirstItem())
	require.Equal(t, 8, page.LastItem())
	require.Equal(t, 5, page.NextPageToken().GetPage())

	page = builder.build([]int{1, 2}, 0, 2, 1)
	require.Equal(t, []int{1, 2}, page.Items)
	require.False(t, page.HasMorePages())
	require.True(t, page.OnFirstPage())
	require.Nil(t, page.NextPageToken())
}

func Test_lengthAwarePageBuilder(t *testing.T) {
	builder := lengthAwarePageBuilder[int]()
	require.False(t, builder.lookahead)
	require.True(t, builder.count)

	page := builder.build([]int{1, 2}, 10, 2, 1)
	require.Equal(t, &Page[int]{Items: []int{1, 2}, Total: 10, PerPage: 2, CurrentPage: 1}, page)
}

func Test_trimResultSet(t *testing.T) {
	require.Equal(t, []int{1, 2}, trimResultSet([]int{1, 2, 3}, 2))
	require.Equal(t, []int{1, 2}, trimResultSet([]int{1, 2}, 2))
	require.Empty(t, trimResultSet([]int{}, 2))
}
