package fastpager

// Page is a paginated result aware of the total number of elements.
type Page[T any] struct {
	// Items result elements.
	Items []T
	// Total number of elements in the whole dataset.
	Total int64
	// PerPage effective page size used for the query.
	PerPage int
	// CurrentPage 1-based number of the returned page.
	CurrentPage int
}

// LastPage returns the number of the last page, at least FirstPage.
func (p *Page[T]) LastPage() int {
	if p == nil || p.PerPage <= 0 || p.Total <= 0 {
		return FirstPage
	}

	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p *Page[T]) HasMorePages() bool {
	return p != nil && p.CurrentPage < p.LastPage()
}

func (p *Page[T]) OnFirstPage() bool {
	return p == nil || p.CurrentPage <= FirstPage
}

// FirstItem returns the 1-based position of the first item within the dataset,
// or 0 for an empty page.
func (p *Page[T]) FirstItem() int {
	if p == nil {
		return 0
	}

	return firstItem(len(p.Items), p.CurrentPage, p.PerPage)
}

// LastItem returns the 1-based position of the last item within the dataset,
// or 0 for an empty page.
func (p *Page[T]) LastItem() int {
	if p == nil {
		return 0
	}

	return lastItem(len(p.Items), p.CurrentPage, p.PerPage)
}

// NextPageToken returns the token of the following page, nil on the last page.
func (p *Page[T]) NextPageToken() *PageToken {
	if !p.HasMorePages() {
		return nil
	}

	return NewPageToken(p.CurrentPage + 1)
}

// SimplePage is a paginated result that knows only whether a following page
// exists. Building it never runs a count query.
type SimplePage[T any] struct {
	// Items result elements.
	Items []T
	// PerPage effective page size used for the query.
	PerPage int
	// CurrentPage 1-based number of the returned page.
	CurrentPage int
	// HasMore is true when at least one element exists past this page.
	HasMore bool
}

func (p *SimplePage[T]) HasMorePages() bool {
	return p != nil && p.HasMore
}

func (p *SimplePage[T]) OnFirstPage() bool {
	return p == nil || p.CurrentPage <= FirstPage
}

func (p *SimplePage[T]) FirstItem() int {
	if p == nil {
		return 0
	}

	return firstItem(len(p.Items), p.CurrentPage, p.PerPage)
}

func (p *SimplePage[T]) LastItem() int {
	if p == nil {
		return 0
	}

	return lastItem(len(p.Items), p.CurrentPage, p.PerPage)
}

// NextPageToken returns the token of the following page, nil on the last page.
func (p *SimplePage[T]) NextPageToken() *PageToken {
	if !p.HasMorePages() {
		return nil
	}

	return NewPageToken(p.CurrentPage + 1)
}

func firstItem(count, page, perPage int) int {
	if count == 0 {
		return 0
	}

	return pageOffset(page, perPage) + 1
}

func lastItem(count, page, perPage int) int {
	if count == 0 {
		return 0
	}

	return pageOffset(page, perPage) + count
}

// pageBuilder packages the rows fetched for one page into a result.
type pageBuilder[T any, R any] struct {
	// lookahead fetches one row past the page to learn whether a next page exists.
	lookahead bool
	// count runs the total count query before the result is built.
	count bool
	build func(items []T, total int64, perPage, page int) R
}

func lengthAwarePageBuilder[T any]() pageBuilder[T, *Page[T]] {
	return pageBuilder[T, *Page[T]]{
		count: true,
		build: func(items []T, total int64, perPage, page int) *Page[T] {
			return &Page[T]{
				Items:       items,
				Total:       total,
				PerPage:     perPage,
				CurrentPage: page,
			}
		},
	}
}

func simplePageBuilder[T any]() pageBuilder[T, *SimplePage[T]] {
	return pageBuilder[T, *SimplePage[T]]{
		lookahead: true,
		build: func(items []T, _ int64, perPage, page int) *SimplePage[T] {
			return &SimplePage[T]{
				Items:       trimResultSet(items, perPage),
				PerPage:     perPage,
				CurrentPage: page,
				HasMore:     len(items) > perPage,
			}
		},
	}
}

// trimResultSet drops the lookahead row, if it was fetched.
func trimResultSet[T any](items []T, perPage int) []T {
	if len(items) > perPage {
		return items[:perPage]
	}

	return items
}
