package fastpager

import (
	"regexp"
	"strings"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type testUser struct {
	ID     uint
	Name   string
	Email  string
	Orders []testOrder `gorm:"foreignKey:UserID"`
}

func (testUser) TableName() string { return "users" }

type testOrder struct {
	ID     uint
	UserID uint
	Amount int
}

func (testOrder) TableName() string { return "orders" }

// testAuditEntry has no primary key.
type testAuditEntry struct {
	Message string
}

func (testAuditEntry) TableName() string { return "audit_entries" }

// testPost defines its own page size.
type testPost struct {
	ID    uint
	Title string
}

func (testPost) TableName() string { return "posts" }

func (testPost) PerPage() int { return 25 }

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

// expectSQL turns a query written with double quoted identifiers and "?"
// placeholders into an anchored pattern matching the given dialect.
func expectSQL(dialect, sql string) string {
	pattern := regexp.QuoteMeta(sql)
	pattern = strings.ReplaceAll(pattern, `\?`, `(?:\$\d+|\?)`)
	if dialect == "mysql" {
		pattern = strings.ReplaceAll(pattern, `"`, "`")
	}

	return "^" + pattern + "$"
}

// quoted renders identifiers written with double quotes for the given dialect.
func quoted(dialect, s string) string {
	if dialect == "mysql" {
		return strings.ReplaceAll(s, `"`, "`")
	}

	return s
}
