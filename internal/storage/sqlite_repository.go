package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/recondash/recondash/internal/model"
)

// Fixed-width so lexical order in SQLite matches chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 2000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// OpenSQLite opens path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Record stores a validated dashboard audit event.
func (r *SQLiteRepository) Record(ctx context.Context, ev model.AuditEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	return r.AppendEvent(ctx, AuditEvent{
		ID:        ev.ID,
		Kind:      string(ev.Kind),
		Actor:     ev.Actor,
		Detail:    ev.Detail,
		CreatedAt: ev.CreatedAt,
	})
}

func (r *SQLiteRepository) AppendEvent(ctx context.Context, in AuditEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, kind, actor, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		in.ID, in.Kind, in.Actor, in.Detail, mustTime(in.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append audit event %s: %w", in.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetEvent(ctx context.Context, id string) (AuditEvent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, kind, actor, detail, created_at
		FROM audit_events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AuditEvent{}, ErrNotFound
		}
		return AuditEvent{}, err
	}
	return ev, nil
}

// ListEvents returns events newest first.
func (r *SQLiteRepository) ListEvents(ctx context.Context, filter AuditListFilter) ([]AuditEvent, error) {
	query := `SELECT id, kind, actor, detail, created_at FROM audit_events`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, mustTime(*filter.Since))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AuditEvent, 0)
	for rows.Next() {
		ev, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// CountEvents counts events of kind, or all events when kind is empty.
func (r *SQLiteRepository) CountEvents(ctx context.Context, kind string) (int, error) {
	query := `SELECT COUNT(*) FROM audit_events`
	args := make([]any, 0, 1)
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *SQLiteRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM audit_events WHERE created_at < ?`, mustTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	} else if offset > 0 {
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (AuditEvent, error) {
	var out AuditEvent
	var created string
	if err := s.Scan(&out.ID, &out.Kind, &out.Actor, &out.Detail, &created); err != nil {
		return AuditEvent{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return AuditEvent{}, err
	}
	out.CreatedAt = createdAt
	return out, nil
}
