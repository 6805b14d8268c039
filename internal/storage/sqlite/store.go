// Package sqlite provides a SQLite-backed battle result store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	battle "github.com/zhouzirui/ball-arena/backend/internal/model/battle"
)

const defaultRecentLimit = 20

const schema = `CREATE TABLE IF NOT EXISTS battle_results (
	id          TEXT PRIMARY KEY,
	session_id  TEXT NOT NULL,
	scope_key   TEXT NOT NULL,
	player_a    TEXT NOT NULL,
	player_b    TEXT NOT NULL,
	winner      TEXT NOT NULL DEFAULT '',
	wins_a      INTEGER NOT NULL,
	wins_b      INTEGER NOT NULL,
	rounds      TEXT NOT NULL,
	finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS battle_results_finished_at_idx ON battle_results (finished_at DESC);`

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("battle result not found")

// Store persists battle results in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store at path and creates the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RecordResult inserts one completed battle. Recording the same id twice is a no-op.
func (s *Store) RecordResult(ctx context.Context, record battle.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("record id is required")
	}
	rounds, err := json.Marshal(record.Rounds)
	if err != nil {
		return fmt.Errorf("encode rounds: %w", err)
	}
	finishedAt := record.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO battle_results (
		   id, session_id, scope_key, player_a, player_b, winner, wins_a, wins_b, rounds, finished_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.SessionID,
		record.Key,
		string(record.PlayerA),
		string(record.PlayerB),
		string(record.Winner),
		record.WinsA,
		record.WinsB,
		string(rounds),
		toMillis(finishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert battle result: %w", err)
	}
	return nil
}

// Recent returns the latest results, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]battle.Record, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, session_id, scope_key, player_a, player_b, winner, wins_a, wins_b, rounds, finished_at
		 FROM battle_results
		 ORDER BY finished_at DESC, id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query battle results: %w", err)
	}
	defer rows.Close()

	records := make([]battle.Record, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Get loads one result by id.
func (s *Store) Get(ctx context.Context, id string) (battle.Record, error) {
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, session_id, scope_key, player_a, player_b, winner, wins_a, wins_b, rounds, finished_at
		 FROM battle_results WHERE id = ?`,
		id,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return battle.Record{}, ErrNotFound
	}
	return record, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (battle.Record, error) {
	var record battle.Record
	var playerA, playerB, winner, rounds string
	var finishedAt int64
	if err := row.Scan(&record.ID, &record.SessionID, &record.Key, &playerA, &playerB, &winner,
		&record.WinsA, &record.WinsB, &rounds, &finishedAt); err != nil {
		return battle.Record{}, err
	}
	if err := json.Unmarshal([]byte(rounds), &record.Rounds); err != nil {
		return battle.Record{}, fmt.Errorf("decode rounds: %w", err)
	}
	record.PlayerA = battle.Identity(playerA)
	record.PlayerB = battle.Identity(playerB)
	record.Winner = battle.Identity(winner)
	record.FinishedAt = fromMillis(finishedAt)
	return record, nil
}
