package fastpager

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoPrimaryKey is returned when the paginated model has no single primary key
// to join the inner query on.
var ErrNoPrimaryKey = errors.New("model has no single primary key")

// ColumnResolver computes the columns the inner (key resolution) query selects.
// The first returned column must be the qualified primary key.
type ColumnResolver func(db *gorm.DB) ([]string, error)

var (
	_aliasSeparator         = regexp.MustCompile(`(?i)\s+as\s+`)
	_orderDirectionSuffix   = regexp.MustCompile(`(?i)\s+(asc|desc)$`)
	_availableSelectSymbols = append([]rune("*"), _availableColumnNameSymbols...)
)

// InnerSelectColumns returns the columns the inner query has to select in order to
// keep the page window of db intact:
//
//   - the qualified primary key "<table>.<key>", always first;
//   - every selected output whose rendered SQL contains "as <wrapped order column>"
//     for one of the ORDER BY columns, i.e. aliased outputs the ordering refers to.
//
// The result has no duplicates. Plain columns are not kept even when they are
// ordered by: they are available to the inner query without being selected.
//
// The match is textual. An unrelated output whose SQL happens to contain
// "as <wrapped order column>" is kept as well.
//
// db is not modified.
func InnerSelectColumns(db *gorm.DB) ([]string, error) {
	stmt, err := parsedStatement(db)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve inner select columns: %w", err)
	}

	key, err := qualifiedPrimaryKey(stmt)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve inner select columns: %w", err)
	}

	orders := lo.Map(orderIdentifiers(stmt), func(order string, _ int) string {
		return Wrap(stmt, order)
	})

	retained := lo.FilterMap(selectedOutputs(stmt), func(output selectedOutput, _ int) (string, bool) {
		rendered := output.render(stmt)

		return output.sql, lo.SomeBy(orders, func(order string) bool {
			return strings.Contains(rendered, "as "+order)
		})
	})

	return lo.Uniq(append([]string{key}, retained...)), nil
}

// Wrap renders an identifier through the dialect quoting of stmt:
//
//	Wrap(stmt, "users.name")      // `users`.`name` on MySQL, "users"."name" on PostgreSQL
//	Wrap(stmt, "users.*")         // `users`.*
//	Wrap(stmt, "name AS n")       // `name` as `n`
//	Wrap(stmt, "SUM(x) as total") // SUM(x) as `total`
//
// Text that is not an identifier (function calls, operators) is kept verbatim.
// The result is meant for comparison, not for building SQL.
func Wrap(stmt *gorm.Statement, identifier string) string {
	identifier = strings.TrimSpace(identifier)

	separators := _aliasSeparator.FindAllStringIndex(identifier, -1)
	if len(separators) > 0 {
		last := separators[len(separators)-1]
		return wrapSegments(stmt, identifier[:last[0]]) + " as " + wrapSegments(stmt, identifier[last[1]:])
	}

	return wrapSegments(stmt, identifier)
}

func wrapSegments(stmt *gorm.Statement, value string) string {
	value = strings.TrimSpace(value)
	if value == "" || !lo.Every(_availableSelectSymbols, []rune(value)) {
		return value
	}

	segments := strings.Split(value, ".")
	for i, segment := range segments {
		if segment != "*" {
			segments[i] = stmt.Quote(segment)
		}
	}

	return strings.Join(segments, ".")
}

// parsedStatement returns a copy of db's statement with the model schema parsed.
func parsedStatement(db *gorm.DB) (*gorm.Statement, error) {
	// WithContext clones the statement, parsing below never leaks into db.
	stmt := db.WithContext(queryContext(db)).Statement
	if stmt.Schema != nil {
		return stmt, nil
	}

	model := stmt.Model
	if model == nil {
		model = stmt.Dest
	}

	if err := stmt.Parse(model); err != nil {
		return nil, err
	}

	return stmt, nil
}

func primaryKeyName(stmt *gorm.Statement) (string, error) {
	if stmt.Schema == nil || stmt.Schema.PrioritizedPrimaryField == nil {
		return "", ErrNoPrimaryKey
	}

	return stmt.Schema.PrioritizedPrimaryField.DBName, nil
}

func qualifiedPrimaryKey(stmt *gorm.Statement) (string, error) {
	key, err := primaryKeyName(stmt)
	if err != nil {
		return "", err
	}

	return stmt.Table + "." + key, nil
}

// orderIdentifiers extracts the ordered column or alias names of the ORDER BY
// clause, without directions.
func orderIdentifiers(stmt *gorm.Statement) []string {
	orderBy, ok := stmt.Clauses["ORDER BY"].Expression.(clause.OrderBy)
	if !ok {
		return nil
	}

	ret := make([]string, 0, len(orderBy.Columns))
	for _, column := range orderBy.Columns {
		if column.Column.Raw {
			ret = append(ret, splitRawOrder(column.Column.Name)...)
			continue
		}

		name := column.Column.Name
		switch column.Column.Table {
		case "":
		case clause.CurrentTable:
			name = stmt.Table + "." + name
		default:
			name = column.Column.Table + "." + name
		}

		ret = append(ret, name)
	}

	return ret
}

// splitRawOrder splits a raw ORDER BY text like "total DESC, users.id" into
// ["total", "users.id"]. Commas inside parentheses do not split.
func splitRawOrder(raw string) []string {
	ret := make([]string, 0, 1)
	for _, part := range splitTopLevel(raw, ',') {
		part = strings.TrimSpace(_orderDirectionSuffix.ReplaceAllString(strings.TrimSpace(part), ""))
		if part != "" {
			ret = append(ret, part)
		}
	}

	return ret
}

func splitTopLevel(s string, sep rune) []string {
	var (
		ret   []string
		depth int
		start int
	)

	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				ret = append(ret, s[start:i])
				start = i + 1
			}
		}
	}

	return append(ret, s[start:])
}

// selectedOutput is one output expression of the SELECT list.
type selectedOutput struct {
	sql string
	// raw outputs are compared by their literal SQL, the rest are wrapped first.
	raw bool
}

func (o selectedOutput) render(stmt *gorm.Statement) string {
	if o.raw {
		return o.sql
	}

	return Wrap(stmt, o.sql)
}

func selectedOutputs(stmt *gorm.Statement) []selectedOutput {
	if sql, _, ok := selectExpression(stmt); ok {
		return []selectedOutput{{sql: sql, raw: true}}
	}

	// Select("a, b as c") arrives as a single entry holding the whole list.
	return lo.FlatMap(stmt.Selects, func(sql string, _ int) []selectedOutput {
		return lo.FilterMap(splitTopLevel(sql, ','), func(part string, _ int) (selectedOutput, bool) {
			part = strings.TrimSpace(part)
			return selectedOutput{sql: part}, part != ""
		})
	})
}

// selectExpression returns the raw SELECT expression set by Select(query, args...).
func selectExpression(stmt *gorm.Statement) (string, []any, bool) {
	switch expr := stmt.Clauses["SELECT"].Expression.(type) {
	case clause.Expr:
		return expr.SQL, expr.Vars, true
	case clause.NamedExpr:
		return expr.SQL, expr.Vars, true
	default:
		return "", nil, false
	}
}
