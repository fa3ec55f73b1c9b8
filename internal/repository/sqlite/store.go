// Package sqlite implements the Event Store on an embedded SQLite file.
//
// The handle is limited to one open connection and transactions begin with
// BEGIN IMMEDIATE, so writers are serialized and a registration's capacity
// check and increment cannot interleave with another writer.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/database"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

// Store owns the SQLite handle and hands out the per-entity repositories.
type Store struct {
	db *sql.DB

	events        *EventRepository
	registrations *RegistrationRepository
	reviews       *ReviewRepository
	users         *UserRepository
}

func init() {
	// SQLite's lower() folds ASCII only; name search needs the same Unicode
	// folding that PostgreSQL applies.
	msqlite.MustRegisterDeterministicScalarFunction("fold_case", 1, foldCase)
}

func foldCase(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Open opens (creating if needed) the SQLite file at path and applies the
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_txlock=immediate"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := database.MigrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{db: db}
	s.events = &EventRepository{store: s}
	s.registrations = &RegistrationRepository{store: s}
	s.reviews = &ReviewRepository{store: s}
	s.users = &UserRepository{store: s}
	return s, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Events() *EventRepository               { return s.events }
func (s *Store) Registrations() *RegistrationRepository { return s.registrations }
func (s *Store) Reviews() *ReviewRepository             { return s.reviews }
func (s *Store) Users() *UserRepository                 { return s.users }

// inTx runs fn in an immediate transaction. Only tx may be used inside fn:
// the single connection is held until commit.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func now() int64 {
	return toMillis(time.Now())
}

func sqliteCode(err error) (int, bool) {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0, false
	}
	return sqliteErr.Code(), true
}

// classify marks busy and locked database errors as transient.
func classify(err error) error {
	code, ok := sqliteCode(err)
	if !ok {
		return err
	}
	switch code & 0xff {
	case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
		return fmt.Errorf("%w: %w", model.ErrTransientConflict, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	code, ok := sqliteCode(err)
	if !ok {
		return false
	}
	switch code {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

type scanner interface {
	Scan(dest ...any) error
}

const summaryColumns = `
	e.id, e.name, e.max_participants, e.participants, e.price, e.creator_id, e.create_time,
	COALESCE(rv.rating_sum, 0), COALESCE(rv.rating_count, 0)`

const ratingJoin = `
	LEFT JOIN (
		SELECT event_id, SUM(rating) AS rating_sum, COUNT(*) AS rating_count
		FROM event_reviews
		GROUP BY event_id
	) rv ON rv.event_id = e.id`

func scanSummary(row scanner) (model.EventSummary, error) {
	var (
		e          model.Event
		createTime int64
		sum        int64
		count      int
	)
	err := row.Scan(
		&e.ID, &e.Name, &e.MaxParticipants, &e.Participants, &e.Price, &e.CreatorID, &createTime,
		&sum, &count,
	)
	if err != nil {
		return model.EventSummary{}, err
	}
	e.CreateTime = fromMillis(createTime)
	return model.NewEventSummary(e, sum, count), nil
}

func collectSummaries(rows *sql.Rows) ([]model.EventSummary, error) {
	defer rows.Close()

	events := []model.EventSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, s)
	}
	return events, rows.Err()
}
