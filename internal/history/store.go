package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/pagebuild/internal/assets"
	"github.com/ziadkadry99/pagebuild/internal/db"
)

// ErrNotFound is returned by Get for an unknown build id.
var ErrNotFound = errors.New("build not found")

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02 15:04:05.000000"

// Store records and lists builds.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts a build entry. If entry.ID is empty a UUID is generated.
// It returns the stored id.
func (s *Store) Record(ctx context.Context, entry Entry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Trigger == "" {
		entry.Trigger = TriggerManual
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}
	entry.UnresolvedCount = max(entry.UnresolvedCount, len(entry.Unresolved))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds (
			id, started_at, triggered_by, mode, status, error, output_path,
			data_files, components, styles, scripts, copied_files,
			default_template, unresolved, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.StartedAt.UTC().Format(timeLayout),
		string(entry.Trigger),
		string(entry.Mode),
		string(entry.Status),
		entry.Error,
		entry.OutputPath,
		entry.DataFiles,
		entry.Components,
		entry.Styles,
		entry.Scripts,
		entry.CopiedFiles,
		boolToInt(entry.DefaultTemplate),
		entry.UnresolvedCount,
		entry.Duration.Milliseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting build: %w", err)
	}

	for i, u := range entry.Unresolved {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO build_unresolved (build_id, position, kind, token)
			VALUES (?, ?, ?, ?)`, entry.ID, i, u.Kind, u.Token)
		if err != nil {
			return "", fmt.Errorf("inserting unresolved placeholder: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing build: %w", err)
	}
	return entry.ID, nil
}

const selectBuild = `
	SELECT id, started_at, triggered_by, mode, status, error, output_path,
		   data_files, components, styles, scripts, copied_files,
		   default_template, unresolved, duration_ms
	FROM builds`

// Get retrieves a single build with its unresolved placeholders.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectBuild+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, token FROM build_unresolved
		WHERE build_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("querying unresolved placeholders: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u Unresolved
		if err := rows.Scan(&u.Kind, &u.Token); err != nil {
			return nil, fmt.Errorf("scanning unresolved placeholder: %w", err)
		}
		e.Unresolved = append(e.Unresolved, u)
	}
	return e, rows.Err()
}

// Recent returns up to limit builds, newest first. Unresolved placeholders
// are not loaded; use Get for those.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectBuild+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying builds: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Prune deletes all but the newest keep builds and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM builds WHERE id NOT IN (
			SELECT id FROM builds ORDER BY started_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning builds: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	// Not every connection has foreign keys enabled, so cascade by hand.
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM build_unresolved WHERE build_id NOT IN (SELECT id FROM builds)`); err != nil {
		return 0, fmt.Errorf("pruning unresolved placeholders: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing prune: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e          Entry
		startedAt  string
		trigger    string
		mode       string
		status     string
		defaultTpl int
		durationMS int64
	)
	err := row.Scan(
		&e.ID, &startedAt, &trigger, &mode, &status, &e.Error, &e.OutputPath,
		&e.DataFiles, &e.Components, &e.Styles, &e.Scripts, &e.CopiedFiles,
		&defaultTpl, &e.UnresolvedCount, &durationMS,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning build: %w", err)
	}

	e.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
	}
	e.Trigger = Trigger(trigger)
	e.Mode = assets.Mode(mode)
	e.Status = Status(status)
	e.DefaultTemplate = defaultTpl != 0
	e.Duration = time.Duration(durationMS) * time.Millisecond
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
