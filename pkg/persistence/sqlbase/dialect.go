package sqlbase

import "strconv"

// Dialect captures the SQL differences between the supported databases.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectSQLite:
		return "sqlite3"
	default:
		return "unknown"
	}
}

// MigrationsDir is the embedded directory holding the dialect's migrations.
func (d Dialect) MigrationsDir() string {
	return d.String()
}

// Placeholder returns the bind parameter for the i-th argument, starting at 1.
func (d Dialect) Placeholder(i int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(i)
	}

	return "?"
}

// Pagination renders the LIMIT/OFFSET clause. A zero limit means no limit.
func (d Dialect) Pagination(limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return " LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset)
	case limit > 0:
		return " LIMIT " + strconv.Itoa(limit)
	case offset > 0 && d == DialectSQLite:
		return " LIMIT -1 OFFSET " + strconv.Itoa(offset)
	case offset > 0:
		return " OFFSET " + strconv.Itoa(offset)
	default:
		return ""
	}
}
