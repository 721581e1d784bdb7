package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store is the persistence gateway. All reads and writes go straight to
// the database; nothing is cached in front of it.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// Open connects to PostgreSQL when the DSN is a postgres:// URL and to a
// SQLite file otherwise, then creates any missing tables.
func Open(ctx context.Context, dataSourceName string) (*Store, error) {
	driver, dsn, d := resolveDriver(dataSourceName)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if d == dialectSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{db: db, dialect: d, now: utcNow}
	if err = store.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func resolveDriver(dataSourceName string) (string, string, dialect) {
	if strings.HasPrefix(dataSourceName, "postgres://") || strings.HasPrefix(dataSourceName, "postgresql://") {
		return "pgx", dataSourceName, dialectPostgres
	}
	dsn := dataSourceName
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on"
	}
	return "sqlite3", dsn, dialectSQLite
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// assignments collects the SET clause of a partial update.
type assignments struct {
	cols []string
	args []any
}

func (a *assignments) set(col string, value any) {
	a.cols = append(a.cols, col+" = ?")
	a.args = append(a.args, value)
}

func (a *assignments) setString(col string, value *string) {
	if value != nil {
		a.set(col, *value)
	}
}

func (a *assignments) empty() bool {
	return len(a.cols) == 0
}

func (s *Store) updateReturning(ctx context.Context, table string, id int64, a *assignments, columns string) *sql.Row {
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? RETURNING %s", table, strings.Join(a.cols, ", "), columns)
	args := append(append([]any{}, a.args...), id)
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *Store) deleteByID(ctx context.Context, table string, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table)), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(raw []byte) ([]string, error) {
	tags := []string{}
	if len(raw) == 0 {
		return tags, nil
	}
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func encodeMessages(messages []Message) (string, error) {
	if messages == nil {
		messages = []Message{}
	}
	b, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("failed to marshal messages: %w", err)
	}
	return string(b), nil
}

func decodeMessages(raw []byte) ([]Message, error) {
	messages := []Message{}
	if len(raw) == 0 {
		return messages, nil
	}
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	if messages == nil {
		messages = []Message{}
	}
	return messages, nil
}
