package fastpager

import "math"

const (
	FirstPage      = 1
	DefaultPerPage = 15
	MaxPerPage     = 100
	// MaxPage is the deepest page whose offset fits into an int for any allowed
	// page size.
	MaxPage = math.MaxInt / MaxPerPage
)

// IsNormalizedPerPageMax clamps perPage into [1, maxPerPage]. Non-positive values
// fall back to DefaultPerPage. The second return value reports whether perPage
// was accepted as is.
func IsNormalizedPerPageMax(perPage int, maxPerPage int) (int, bool) {
	if perPage <= 0 {
		return DefaultPerPage, false
	} else if perPage > maxPerPage {
		return maxPerPage, false
	}

	return perPage, true
}

func NormalizePerPageMax(perPage int, maxPerPage int) int {
	ret, _ := IsNormalizedPerPageMax(perPage, maxPerPage)
	return ret
}

func NormalizePerPage(perPage int) int {
	return NormalizePerPageMax(perPage, MaxPerPage)
}

// normalizePage clamps page into [FirstPage, MaxPage].
func normalizePage(page int) int {
	return min(max(page, FirstPage), MaxPage)
}

// pageOffset returns the number of rows skipped before the given page.
func pageOffset(page, perPage int) int {
	return (normalizePage(page) - 1) * perPage
}
