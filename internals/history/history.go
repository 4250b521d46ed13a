package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

type AccountRecord struct {
	Account        string
	SignedIn       bool
	SignInMessage  string
	TasksTotal     int
	TasksCompleted int
	ActionsOK      int
	ActionsFailed  int
	Claimed        int
	Error          string
}

type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Version    string
	Accounts   []AccountRecord
}

type Store struct {
	db *sql.DB
}

// Open opens (creating when needed) the sqlite database at path and applies
// pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history store requires a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, err
		}
	}

	if err := migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: conn}, nil
}

func migrate(ctx context.Context, conn *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, conn, "migrations")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores run and its account rows in one transaction. A run without
// an ID gets a fresh UUID, which is returned.
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, version) VALUES (?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().UnixNano(), run.FinishedAt.UTC().UnixNano(), run.Version,
	); err != nil {
		return "", err
	}

	for i, a := range run.Accounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO account_results (
				run_id, position, account, signed_in, sign_in_message, tasks_total, tasks_completed,
				actions_ok, actions_failed, claimed, error
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, a.Account, boolToInt(a.SignedIn), a.SignInMessage, a.TasksTotal, a.TasksCompleted,
			a.ActionsOK, a.ActionsFailed, a.Claimed, a.Error,
		); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, version FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	runs := []Run{}
	for rows.Next() {
		var run Run
		var started, finished int64
		if err := rows.Scan(&run.ID, &started, &finished, &run.Version); err != nil {
			rows.Close()
			return nil, err
		}
		run.StartedAt = time.Unix(0, started).UTC()
		run.FinishedAt = time.Unix(0, finished).UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range runs {
		accounts, err := s.accounts(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Accounts = accounts
	}
	return runs, nil
}

func (s *Store) accounts(ctx context.Context, runID string) ([]AccountRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account, signed_in, sign_in_message, tasks_total, tasks_completed,
			actions_ok, actions_failed, claimed, error
		FROM account_results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []AccountRecord{}
	for rows.Next() {
		var a AccountRecord
		var signedIn int
		if err := rows.Scan(&a.Account, &signedIn, &a.SignInMessage, &a.TasksTotal, &a.TasksCompleted,
			&a.ActionsOK, &a.ActionsFailed, &a.Claimed, &a.Error); err != nil {
			return nil, err
		}
		a.SignedIn = signedIn != 0
		list = append(list, a)
	}
	return list, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
