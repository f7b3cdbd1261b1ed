package fastpager

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const DefaultPageName = "page"

const tracerName = "github.com/Alp4ka/fastpager"

// PageResolver resolves the current page number by the name of the page parameter,
// e.g. from the query string of an inbound request. Non-positive results mean
// FirstPage.
type PageResolver func(pageName string) int

// QueryPageResolver resolves the page from URL query values. Missing or malformed
// values resolve to FirstPage.
//
// Usage:
//
//	pager := fastpager.NewOffsetPager().WithPageResolver(fastpager.QueryPageResolver(r.URL.Query()))
func QueryPageResolver(values url.Values) PageResolver {
	return func(pageName string) int {
		page, err := strconv.Atoi(values.Get(pageName))
		if err != nil {
			return FirstPage
		}

		return normalizePage(page)
	}
}

// PerPager is implemented by models that define their own default page size.
type PerPager interface {
	PerPage() int
}

// RawOffsetPager is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging RawOffsetPager `json:",inline"`
//	}
type RawOffsetPager struct {
	// Page - 1-based page number. Ignored when PageToken is set.
	Page int `json:"page"`
	// PerPage - maximum number of records to return in the response.
	PerPage int `json:"perPage"`
	// PageToken - base64-encoded token obtained via PageToken.String().
	PageToken string `json:"pageToken"`
}

// Decode converts RawOffsetPager into *OffsetPager, normalizing PerPage and
// validating PageToken. Returns *OffsetPager with WithSort applied.
func (p RawOffsetPager) Decode(orderBy ...OrderBy) (*OffsetPager, error) {
	return DecodeOffsetPager(p.Page, p.PerPage, p.PageToken, orderBy...)
}

// OffsetPager holds the parameters of one offset pagination call. Zero values mean
// "resolve on pagination": the page comes from the PageResolver and the page size
// from the model (PerPager) or DefaultPerPage.
type OffsetPager struct {
	page           int
	perPage        int
	pageName       string
	pageResolver   PageResolver
	columns        []string
	sort           Orderings
	columnResolver ColumnResolver
	tracer         trace.Tracer
}

func NewOffsetPager() *OffsetPager {
	return new(OffsetPager)
}

// DecodeOffsetPager builds *OffsetPager from API parameters. A non-empty page token
// takes precedence over page.
func DecodeOffsetPager(page, perPage int, rawPageToken string, orderBy ...OrderBy) (*OffsetPager, error) {
	token, err := DecodePageToken(rawPageToken)
	if err != nil {
		return nil, err
	}

	if !token.IsEmpty() {
		page = token.GetPage()
	}

	return NewOffsetPager().
		WithPage(page).
		WithPerPage(perPage).
		WithSubstitutedSort(orderBy...), nil
}

// WithPage sets the page explicitly. Non-positive values reset it, so the page is
// resolved through the PageResolver.
func (p *OffsetPager) WithPage(page int) *OffsetPager {
	if p == nil {
		p = new(OffsetPager)
	}

	p.page = max(page, 0)

	return p
}

// WithPerPage sets the page size. NormalizePerPage is applied to positive values,
// non-positive values reset it to the model default.
func (p *OffsetPager) WithPerPage(perPage int) *OffsetPager {
	if p == nil {
		p = new(OffsetPager)
	}

	if perPage <= 0 {
		p.perPage = 0
		return p
	}
	p.perPage = NormalizePerPage(perPage)

	return p
}

// WithPageName sets the name passed to the PageResolver. Defaults to DefaultPageName.
func (p *OffsetPager) WithPageName(pageName string) *OffsetPager {
	if p == nil {
		p = new(OffsetPager)
	}

	p.pageName = pageName

	return p
}

func (p *OffsetPager) WithPageResolver(resolver PageResolver) *OffsetPager {
	if p == nil {
		p = new(OffsetPager)
	}

	p.pageResolver = resolver

	return p
}

// WithColumns sets the columns of the returned rows. They apply only to queries
// without their own Select.
func (p *OffsetPager) WithColumns(columns ...string) *OffsetPager {
	if p == nil {
		p = new(OffsetPager)
	}

	p.columns = columns

	return p
}

// WithColumnResolver replaces InnerSelectColumns for the inner query.
func (p *OffsetPager) WithColumnResolver(resolver ColumnResolver) *OffsetPager {
	if p == nil {
		p = new(OffsetPager)
	}

	p.columnResolver = resolver

	return p
}

// WithTracer sets the OpenTelemetry tracer. Defaults to the global tracer provider.
func (p *OffsetPager) WithTracer(tracer trace.Tracer) *OffsetPager {
	if p == nil {
		p = new(OffsetPager)
	}

	p.tracer = tracer

	return p
}

// WithSubstitutedSort resets previous orderings and applies the provided ones.
func (p *OffsetPager) WithSubstitutedSort(orderBy ...OrderBy) *OffsetPager {
	if p == nil {
		p = new(OffsetPager)
	}

	p.sort = nil

	return p.WithSort(orderBy...)
}

// WithSort appends sort orderings without overwriting existing ones. They are
// appended to the ORDER BY the query already has.
func (p *OffsetPager) WithSort(orderBy ...OrderBy) *OffsetPager {
	if p == nil {
		p = new(OffsetPager)
	}

	for _, o := range orderBy {
		idx := slices.IndexFunc(p.sort, func(processed OrderBy) bool {
			return processed.Column == o.Column
		})

		// Remove previous occurrence (avoid duplication).
		if idx != -1 {
			p.sort = slices.Delete(p.sort, idx, idx+1)
		}

		p.sort = append(p.sort, o)
	}

	return p
}

// GetPage returns the page as it is stored in OffsetPager, 0 if it is resolved
// on pagination.
func (p *OffsetPager) GetPage() int {
	if p == nil {
		return 0
	}

	return p.page
}

// GetPerPage returns the page size as it is stored in OffsetPager, 0 if the
// model default is used.
func (p *OffsetPager) GetPerPage() int {
	if p == nil {
		return 0
	}

	return p.perPage
}

func (p *OffsetPager) GetPageName() string {
	if p == nil || p.pageName == "" {
		return DefaultPageName
	}

	return p.pageName
}

func (p *OffsetPager) GetSort() Orderings {
	if p == nil {
		return nil
	}

	return p.sort
}

// resolvePage returns the explicit page, else the resolved one, else FirstPage.
func (p *OffsetPager) resolvePage() int {
	if p.GetPage() > 0 {
		return normalizePage(p.page)
	}

	if p != nil && p.pageResolver != nil {
		return normalizePage(p.pageResolver(p.GetPageName()))
	}

	return FirstPage
}

// resolvePerPage returns the explicit page size, else the model's own, else
// DefaultPerPage.
func (p *OffsetPager) resolvePerPage(model any) int {
	if p.GetPerPage() > 0 {
		return p.perPage
	}

	if perPager, ok := model.(PerPager); ok && perPager.PerPage() > 0 {
		return NormalizePerPage(perPager.PerPage())
	}

	return DefaultPerPage
}

func (p *OffsetPager) getColumnResolver() ColumnResolver {
	if p == nil || p.columnResolver == nil {
		return InnerSelectColumns
	}

	return p.columnResolver
}

func (p *OffsetPager) getTracer() trace.Tracer {
	if p == nil || p.tracer == nil {
		return otel.Tracer(tracerName)
	}

	return p.tracer
}

func (p *OffsetPager) validate() error {
	if p == nil {
		return fmt.Errorf("offset pager is nil")
	}

	return p.sort.validate()
}
