package fastpager

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

var _encoder = base64.RawURLEncoding

// PageToken is an opaque token pointing to a page of an offset paginated dataset.
// It lets APIs expose "next page" tokens while the storage only supports
// LIMIT/OFFSET windows.
type PageToken struct {
	page int
}

func NewPageToken(page int) *PageToken {
	return &PageToken{
		page: page,
	}
}

// DecodePageToken attempts to parse a base64-encoded string into *PageToken.
func DecodePageToken(b64String string) (*PageToken, error) {
	if len(b64String) == 0 {
		return nil, nil
	}

	pageBytes, err := _encoder.DecodeString(b64String)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 encoded page token: %w", err)
	}

	page, err := strconv.Atoi(string(pageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode page token value: %w", err)
	}

	if page < FirstPage || page > MaxPage {
		return nil, fmt.Errorf("invalid page token value '%d'", page)
	}

	return &PageToken{
		page: page,
	}, nil
}

// String - implements fmt.Stringer.
func (p *PageToken) String() string {
	if p.IsEmpty() {
		return ""
	}

	return _encoder.EncodeToString([]byte(strconv.Itoa(p.page)))
}

// IsEmpty reports whether the token points nowhere. Empty tokens encode to "".
func (p *PageToken) IsEmpty() bool {
	return p == nil || p.page < FirstPage
}

// GetPage returns the page number, or 0 for an empty token.
func (p *PageToken) GetPage() int {
	if p.IsEmpty() {
		return 0
	}

	return p.page
}

var _ fmt.Stringer = (*PageToken)(nil)
