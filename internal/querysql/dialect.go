package querysql

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/dynfilter/internal/expr"
	"github.com/roach88/dynfilter/internal/schema"
)

// SeqColumn is the stable key column every table carries. It records
// insertion order and is the final ordering tiebreaker of every query.
const SeqColumn = "_seq"

// TimeLayout is the fixed-width UTC text form of times in SQLite, so that
// text comparison matches chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// Dialect isolates the SQL differences between supported databases.
type Dialect interface {
	// Name is the dialect identifier ("sqlite" or "postgres").
	Name() string

	// Placeholder returns the marker of the n-th (1-based) parameter.
	Placeholder(n int) string

	// Param converts a canonical value to a driver argument.
	Param(v any) any

	// TextMatch renders a string predicate on col and returns the pattern
	// to bind to placeholder ph.
	TextMatch(op expr.TextOp, col, ph, value string) (sql string, pattern string)

	// OrderTerm renders one ORDER BY term.
	OrderTerm(col string, t schema.Type, desc bool) string

	// LimitOffset renders the row window clause (with a leading space),
	// or "" when limit < 0 and offset == 0.
	LimitOffset(limit, offset int) string

	// ColumnType is the DDL type of a member.
	ColumnType(t schema.Type) string

	// SeqColumnType is the DDL of the stable key column.
	SeqColumnType() string
}

var (
	// SQLite targets mattn/go-sqlite3 and modernc.org/sqlite.
	SQLite Dialect = sqliteDialect{}

	// Postgres targets pgx through database/sql.
	Postgres Dialect = postgresDialect{}
)

// DialectFor returns the dialect of a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "pgx", "postgres":
		return Postgres, nil
	default:
		return nil, fmt.Errorf("no SQL dialect for driver %q", driver)
	}
}

// Quote quotes an identifier. Both dialects use standard double quotes.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) Param(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(TimeLayout)
	case decimal.Decimal:
		return x.String()
	case uuid.UUID:
		return x.String()
	case rune:
		return int64(x)
	default:
		return v
	}
}

// GLOB is case-sensitive, unlike LIKE in SQLite. Metacharacters are
// escaped as single-character classes.
var globEscaper = strings.NewReplacer("[", "[[]", "*", "[*]", "?", "[?]")

func (sqliteDialect) TextMatch(op expr.TextOp, col, ph, value string) (string, string) {
	return fmt.Sprintf("%s GLOB %s", col, ph), pattern(op, globEscaper.Replace(value), "*")
}

func (sqliteDialect) OrderTerm(col string, t schema.Type, desc bool) string {
	term := col
	if t.Kind == schema.KindString {
		term += " COLLATE BINARY"
	}
	if desc {
		return term + " DESC"
	}
	return term + " ASC"
}

func (sqliteDialect) LimitOffset(limit, offset int) string {
	switch {
	case limit < 0 && offset == 0:
		return ""
	case offset == 0:
		return " LIMIT " + strconv.Itoa(limit)
	default:
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
}

func (sqliteDialect) ColumnType(t schema.Type) string {
	var typ string
	switch t.Kind {
	case schema.KindFloat:
		typ = "REAL"
	case schema.KindDecimal:
		typ = "NUMERIC"
	case schema.KindString, schema.KindTime, schema.KindUUID:
		typ = "TEXT"
	default:
		typ = "INTEGER"
	}
	if !t.Nullable {
		typ += " NOT NULL"
	}
	return typ
}

func (sqliteDialect) SeqColumnType() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) Param(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.String()
	case uuid.UUID:
		return x.String()
	case rune:
		return int64(x)
	default:
		return v
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (postgresDialect) TextMatch(op expr.TextOp, col, ph, value string) (string, string) {
	return fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, col, ph), pattern(op, likeEscaper.Replace(value), "%")
}

func (postgresDialect) OrderTerm(col string, t schema.Type, desc bool) string {
	term := col
	if t.Kind == schema.KindString {
		term += ` COLLATE "C"`
	}
	if desc {
		return term + " DESC NULLS LAST"
	}
	return term + " ASC NULLS FIRST"
}

func (postgresDialect) LimitOffset(limit, offset int) string {
	var b strings.Builder
	if limit >= 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}
	if offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", offset)
	}
	return b.String()
}

func (postgresDialect) ColumnType(t schema.Type) string {
	var typ string
	switch t.Kind {
	case schema.KindBool:
		typ = "BOOLEAN"
	case schema.KindInt:
		switch t.Bits {
		case 8, 16:
			typ = "SMALLINT"
		case 32:
			typ = "INTEGER"
		default:
			typ = "BIGINT"
		}
	case schema.KindUint:
		if t.Bits == 64 {
			typ = "NUMERIC(20)"
		} else {
			typ = "BIGINT"
		}
	case schema.KindFloat:
		if t.Bits == 32 {
			typ = "REAL"
		} else {
			typ = "DOUBLE PRECISION"
		}
	case schema.KindDecimal:
		typ = "NUMERIC"
	case schema.KindString:
		typ = "TEXT"
	case schema.KindChar:
		typ = "INTEGER"
	case schema.KindTime:
		typ = "TIMESTAMPTZ"
	case schema.KindUUID:
		typ = "UUID"
	default:
		typ = "BIGINT"
	}
	if !t.Nullable {
		typ += " NOT NULL"
	}
	return typ
}

func (postgresDialect) SeqColumnType() string { return "BIGSERIAL PRIMARY KEY" }

func pattern(op expr.TextOp, escaped, wildcard string) string {
	switch op {
	case expr.TextStartsWith:
		return escaped + wildcard
	case expr.TextEndsWith:
		return wildcard + escaped
	default:
		return wildcard + escaped + wildcard
	}
}
