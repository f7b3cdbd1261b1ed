package fastpager

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Direction defines the sort direction of the paginated dataset.
type Direction string

const (
	DirectionASC  Direction = "ASC"
	DirectionDESC Direction = "DESC"
)

func (o Direction) Valid() bool {
	return o == DirectionASC || o == DirectionDESC
}

type (
	Orderings []OrderBy
	OrderBy   struct {
		Column    string
		Direction Direction
	}

	ColumnAlias = string

	// ColumnMapping maps external column aliases to fully qualified column names.
	// Use it when bare column names could cause an "ambiguous column name" error.
	// Key is an external alias, value is an internal column name.
	ColumnMapping = map[ColumnAlias]string
)

var _availableColumnNameSymbols = append([]rune("_.'`\""), lo.AlphanumericCharset...)

func (o OrderBy) validate() error {
	if !o.Direction.Valid() {
		return fmt.Errorf("invalid ordering direction '%s'", o.Direction)
	}

	// Guard against SQL injection by restricting allowed characters in column names.
	if !lo.Every(_availableColumnNameSymbols, []rune(o.Column)) {
		return fmt.Errorf("ordering column name contains forbidden symbols '%s'", o.Column)
	}

	return nil
}

// Apply appends the orderings to a gorm query. Every ordering becomes a separate
// ORDER BY column, so the inner select column resolver sees one identifier per
// ordering.
func (o Orderings) Apply(db *gorm.DB) *gorm.DB {
	for _, ordering := range o {
		db = db.Order(ordering.toGORMOrderByColumn())
	}

	return db
}

func (o OrderBy) toGORMOrderByColumn() clause.OrderByColumn {
	return clause.OrderByColumn{
		Column: clause.Column{Name: o.Column, Raw: true},
		Desc:   o.Direction == DirectionDESC,
	}
}

// validate checks every ordering. An empty list is valid: the query keeps
// whatever ORDER BY it already carries.
func (o Orderings) validate() error {
	var err error
	for _, ordering := range o {
		err = ordering.validate()
		if err != nil {
			return err
		}
	}

	return nil
}

// ParseSort builds Orderings from strings like "created_at desc" or "name".
// The direction is case-insensitive and defaults to ASC. Aliases are resolved via
// columnMapping, an unknown alias fails with the closest known one as a hint.
func ParseSort(sort []string, columnMapping ColumnMapping) (Orderings, error) {
	ret := make(Orderings, 0, len(sort))

	for _, raw := range sort {
		fields := strings.Fields(raw)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, fmt.Errorf("invalid ordering string format '%s'", raw)
		}

		ordering := OrderBy{Direction: DirectionASC}
		if len(fields) == 2 {
			ordering.Direction = Direction(strings.ToUpper(fields[1]))
		}

		column, ok := columnMapping[fields[0]]
		if !ok || column == "" {
			return nil, fmt.Errorf("unknown column alias '%s', closest: '%s'", fields[0], closestAlias(fields[0], columnMapping))
		}
		ordering.Column = column

		if err := ordering.validate(); err != nil {
			return nil, err
		}

		ret = append(ret, ordering)
	}

	return ret, nil
}

// closestAlias returns the mapped alias with the smallest edit distance to input.
// Ties resolve to the alphabetically first alias.
func closestAlias(input ColumnAlias, columnMapping ColumnMapping) ColumnAlias {
	aliases := lo.Keys(columnMapping)
	slices.Sort(aliases)

	return lo.MinBy(aliases, func(a, b ColumnAlias) bool {
		return levenshtein([]rune(a), []rune(input)) < levenshtein([]rune(b), []rune(input))
	})
}
