package fastpager

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InnerQueryAlias is the alias of the joined key resolution subquery.
const InnerQueryAlias = "fast_paginate_inner_query"

// FastPaginate returns one page of db together with the total number of rows.
//
// Instead of
//
//	SELECT * FROM users ORDER BY name LIMIT 15 OFFSET 150
//
// the page is fetched as
//
//	SELECT users.* FROM users
//	INNER JOIN (SELECT users.id FROM users ORDER BY name LIMIT 15 OFFSET 150) AS fast_paginate_inner_query
//	  ON users.id = fast_paginate_inner_query.id
//	ORDER BY name LIMIT 15
//
// so the skipped rows are scanned in their narrowest shape. The total is counted
// on the original query.
//
// ORDER BY and WHERE columns named like the primary key must be qualified with
// the table, e.g. "users.id", the joined subquery exposes a column of that name too.
//
// Queries with GROUP BY or HAVING, and models without a single primary key, are
// paginated the usual way. db is not modified. The model is db's model, or T when
// db has none.
func FastPaginate[T any](db *gorm.DB, pager *OffsetPager) (*Page[T], error) {
	return paginate(db, pager, lengthAwarePageBuilder[T]())
}

// SimpleFastPaginate works like FastPaginate but runs no count query. The result
// only knows whether a following page exists.
func SimpleFastPaginate[T any](db *gorm.DB, pager *OffsetPager) (*SimplePage[T], error) {
	return paginate(db, pager, simplePageBuilder[T]())
}

func paginate[T any, R any](db *gorm.DB, pager *OffsetPager, builder pageBuilder[T, R]) (R, error) {
	if pager == nil {
		pager = NewOffsetPager()
	}

	err := pager.validate()
	if err != nil {
		return lo.Empty[R](), fmt.Errorf("cannot paginate: %w", err)
	}

	query := pager.sort.Apply(db.Session(&gorm.Session{}))
	if query.Statement.Model == nil {
		query = query.Model(new(T))
	}

	page := pager.resolvePage()
	perPage := pager.resolvePerPage(query.Statement.Model)

	ctx, span := pager.getTracer().Start(queryContext(query), "fastpager.paginate", trace.WithAttributes(
		attribute.Int("fastpager.page", page),
		attribute.Int("fastpager.per_page", perPage),
	))
	defer span.End()

	stmt, err := parsedStatement(query)
	if err != nil {
		return lo.Empty[R](), recordError(span, err)
	}
	rewritten := !isGrouped(stmt) && hasPrimaryKey(stmt)
	span.SetAttributes(
		attribute.String("db.table", stmt.Table),
		attribute.Bool("fastpager.rewritten", rewritten),
	)

	if !rewritten {
		items, total, err := standardPage[T](ctx, query, stmt, pager, builder, page, perPage)
		if err != nil {
			return lo.Empty[R](), recordError(span, err)
		}

		return builder.build(items, total, perPage, page), nil
	}

	items, err := fastPage[T](ctx, query, stmt, pager, builder, page, perPage)
	if err != nil {
		return lo.Empty[R](), recordError(span, err)
	}

	var total int64
	if builder.count {
		total, err = countTotal(ctx, query, pager)
		if err != nil {
			return lo.Empty[R](), recordError(span, err)
		}
	}

	return builder.build(items, total, perPage, page), nil
}

// fastPage fetches the page through the joined key resolution subquery.
func fastPage[T any, R any](
	ctx context.Context,
	query *gorm.DB,
	stmt *gorm.Statement,
	pager *OffsetPager,
	builder pageBuilder[T, R],
	page, perPage int,
) ([]T, error) {
	columns, err := pager.getColumnResolver()(query)
	if err != nil {
		return nil, err
	}

	key, err := primaryKeyName(stmt)
	if err != nil {
		return nil, err
	}

	// The lookahead row widens the key probe as well, so the outer query can see
	// whether a following page exists.
	limit := lo.Ternary(builder.lookahead, perPage+1, perPage)

	inner := selectInner(query.WithContext(ctx), stmt, columns).
		Offset(pageOffset(page, perPage)).
		Limit(limit)
	// The key probe never needs related entities, they are loaded by the outer query.
	inner.Statement.Preloads = map[string][]any{}

	joinSQL := fmt.Sprintf(
		"INNER JOIN (?) AS %s ON %s = %s",
		Wrap(stmt, InnerQueryAlias),
		Wrap(stmt, stmt.Table+"."+key),
		Wrap(stmt, InnerQueryAlias+"."+key),
	)

	ctx, span := pager.getTracer().Start(ctx, "fastpager.fetch")
	defer span.End()

	var items []T
	// The join already restricts the rows to the page, so the outer query takes
	// the first window only.
	err = pager.applyColumns(query.WithContext(ctx), stmt.Table).
		Joins(joinSQL, inner).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, recordError(span, err)
	}

	return items, nil
}

// standardPage fetches the page with a plain LIMIT/OFFSET window.
func standardPage[T any, R any](
	ctx context.Context,
	query *gorm.DB,
	stmt *gorm.Statement,
	pager *OffsetPager,
	builder pageBuilder[T, R],
	page, perPage int,
) ([]T, int64, error) {
	var (
		total int64
		err   error
	)

	if builder.count {
		total, err = countTotal(ctx, query, pager)
		if err != nil {
			return nil, 0, err
		}

		if total == 0 {
			return []T{}, 0, nil
		}
	}

	ctx, span := pager.getTracer().Start(ctx, "fastpager.fetch")
	defer span.End()

	var items []T
	err = pager.applyColumns(query.WithContext(ctx), stmt.Table).
		Offset(pageOffset(page, perPage)).
		Limit(lo.Ternary(builder.lookahead, perPage+1, perPage)).
		Find(&items).Error
	if err != nil {
		return nil, 0, recordError(span, err)
	}

	return items, total, nil
}

// countTotal counts the rows of the original query. Selects and preloads do not
// change the count and are dropped.
func countTotal(ctx context.Context, query *gorm.DB, pager *OffsetPager) (int64, error) {
	ctx, span := pager.getTracer().Start(ctx, "fastpager.count")
	defer span.End()

	countQuery := query.WithContext(ctx)
	countQuery.Statement.Selects = nil
	countQuery.Statement.Preloads = map[string][]any{}
	delete(countQuery.Statement.Clauses, "SELECT")

	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return 0, recordError(span, err)
	}

	return total, nil
}

// selectInner restricts the inner query to columns. A raw SELECT expression
// with bound variables keeps its variables when it is retained.
func selectInner(inner *gorm.DB, stmt *gorm.Statement, columns []string) *gorm.DB {
	if sql, vars, ok := selectExpression(stmt); ok && len(vars) > 0 && lo.Contains(columns, sql) {
		return inner.Select(strings.Join(columns, ", "), vars...)
	}

	return inner.Select(columns)
}

// applyColumns selects the pager columns when the query selects nothing itself.
// Bare column names are qualified with table, the joined subquery exposes the
// same names.
func (p *OffsetPager) applyColumns(db *gorm.DB, table string) *gorm.DB {
	if len(p.columns) == 0 || len(db.Statement.Selects) > 0 {
		return db
	}

	if _, _, ok := selectExpression(db.Statement); ok {
		return db
	}

	if len(p.columns) == 1 && p.columns[0] == "*" {
		return db
	}

	return db.Select(lo.Map(p.columns, func(column string, _ int) string {
		if strings.Contains(column, ".") || !lo.Every(_availableSelectSymbols, []rune(column)) {
			return column
		}

		return table + "." + column
	}))
}

// isGrouped reports whether rows of the query stop mapping one-to-one to primary
// keys.
func isGrouped(stmt *gorm.Statement) bool {
	groupBy, ok := stmt.Clauses["GROUP BY"].Expression.(clause.GroupBy)
	return ok && (len(groupBy.Columns) > 0 || len(groupBy.Having) > 0)
}

func hasPrimaryKey(stmt *gorm.Statement) bool {
	_, err := primaryKeyName(stmt)
	return err == nil
}

func queryContext(db *gorm.DB) context.Context {
	if db.Statement.Context == nil {
		return context.Background()
	}

	return db.Statement.Context
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}
