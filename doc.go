// Package fastpager provides deferred join ("fast") offset pagination for GORM.
//
// Overview
//
// A plain LIMIT/OFFSET window makes the database read and discard every skipped
// row in full. fastpager splits the query in two:
//   - an inner query selecting only the primary key (and the aliased outputs the
//     ORDER BY refers to), windowed to the requested page;
//   - an outer query joining the inner one back by primary key and fetching the
//     full rows of that page only.
//
// Queries with GROUP BY or HAVING are paginated the usual way.
//
// Key concepts
//   - FastPaginate: returns a Page with the total number of rows.
//   - SimpleFastPaginate: returns a SimplePage without running a count query.
//   - OffsetPager: page, page size, sorting and the inner column resolver.
//   - InnerSelectColumns: computes the columns of the inner query.
//   - PageToken: opaque token pointing to a page, for APIs.
package fastpager
