package fastpager

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

func Test_Direction_Valid(t *testing.T) {
	tests := []struct {
		name  string
		in    Direction
		valid bool
	}{
		{"ASC valid", DirectionASC, true},
		{"DESC valid", DirectionDESC, true},
		{"lower case invalid", Direction("asc"), false},
		{"empty invalid", Direction(""), false},
	}
	for _, tt := range tests {
		if got := tt.in.Valid(); got != tt.valid {
			t.Errorf("%s: Valid=%v want %v", tt.name, got, tt.valid)
		}
	}
}

func Test_Orderings_validate(t *testing.T) {
	tests := []struct {
		name string
		ord  Orderings
		ok   bool
	}{
		{"empty is allowed", Orderings{}, true},
		{"invalid direction", Orderings{{Column: "id", Direction: "bad"}}, false},
		{"forbidden symbols", Orderings{{Column: "id; DROP TABLE users", Direction: DirectionASC}}, false},
		{"valid list", Orderings{{Column: "id", Direction: DirectionASC}}, true},
	}
	for _, tt := range tests {
		if err := tt.ord.validate(); (err == nil) != tt.ok {
			t.Errorf("%s: ok=%v err=%v", tt.name, tt.ok, err)
		}
	}
}

func Test_ParseSort(t *testing.T) {
	mapping := ColumnMapping{
		"id":         "t.id",
		"name":       "t.name",
		"created_at": "t.created_at",
	}

	tests := []struct {
		name        string
		in          []string
		want        Orderings
		errContains string
	}{
		{
			name: "default direction",
			in:   []string{"id"},
			want: Orderings{{Column: "t.id", Direction: DirectionASC}},
		},
		{
			name: "several orderings",
			in:   []string{"name desc", "  id   ASC "},
			want: Orderings{
				{Column: "t.name", Direction: DirectionDESC},
				{Column: "t.id", Direction: DirectionASC},
			},
		},
		{
			name:        "unknown alias",
			in:          []string{"idx asc"},
			errContains: "closest: 'id'",
		},
		{
			name:        "invalid direction",
			in:          []string{"id up"},
			errContains: "invalid ordering direction",
		},
		{
			name:        "too many fields",
			in:          []string{"id asc nulls"},
			errContains: "invalid ordering string format",
		},
		{
			name:        "blank",
			in:          []string{" "},
			errContains: "invalid ordering string format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSort(tt.in, mapping)
			if tt.errContains != "" {
				require.ErrorContains(t, err, tt.errContains)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func Test_closestAlias(t *testing.T) {
	mapping := ColumnMapping{"id": "id", "name": "name", "created_at": "created_at", "ix": "ix"}
	tests := []struct {
		name string
		in   ColumnAlias
		out  ColumnAlias
	}{
		{"closest to name", "nme", "name"},
		{"closest to created_at", "createdat", "created_at"},
		{"tie resolves alphabetically", "idx", "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := closestAlias(tt.in, mapping); got != tt.out {
				t.Errorf("%s: got %s want %s", tt.name, got, tt.out)
			}
		})
	}
}

func Test_Orderings_Apply(t *testing.T) {
	_, db, _, err := newGORMPostgresMock()
	require.NoError(t, err)

	ord := Orderings{
		{Column: "users.name", Direction: DirectionASC},
		{Column: "total", Direction: DirectionDESC},
	}

	tx := ord.Apply(db.Model(&testUser{}))

	orderBy, ok := tx.Statement.Clauses["ORDER BY"].Expression.(clause.OrderBy)
	require.True(t, ok)
	require.Equal(t, []clause.OrderByColumn{
		{Column: clause.Column{Name: "users.name", Raw: true}},
		{Column: clause.Column{Name: "total", Raw: true}, Desc: true},
	}, orderBy.Columns)
}
