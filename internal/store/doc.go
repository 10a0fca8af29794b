// Package store provides database-backed record sources for operation
// pipelines.
//
// Supported database/sql drivers:
//   - sqlite3: github.com/mattn/go-sqlite3 (cgo, default)
//   - sqlite:  modernc.org/sqlite (pure Go)
//   - pgx:     github.com/jackc/pgx/v5/stdlib (PostgreSQL)
//
// # Critical Patterns
//
// Stable key:
//   - Every table carries a _seq column filled in insertion order
//   - Every query ends with ORDER BY on it (see querysql), so results are
//     deterministic and equal to the memory backend over the same records
//     in insertion order
//
// Canonical values:
//   - Scanned columns are converted to the canonical values of
//     schema.Field.Value whatever the driver returns (SQLite returns
//     NUMERIC as int64 or float64, PostgreSQL returns it as text)
//   - SQLite stores times as fixed-width UTC text (querysql.TimeLayout)
//
// # SQLite Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Queries and inserts are traced with OpenTelemetry spans. Without an
// installed TracerProvider the spans are no-ops.
package store
