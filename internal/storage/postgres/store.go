// Package postgres stores battle results in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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
	rounds      JSONB NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS battle_results_finished_at_idx ON battle_results (finished_at DESC);`

// Store persists battle results through a pgx connection pool.
type Store struct {
	db *pgxpool.Pool
}

// New connects to dsn, verifies the connection and ensures the schema exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping db: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: pool}, nil
}

// RecordResult inserts one completed battle. Recording the same id twice is a no-op.
func (s *Store) RecordResult(ctx context.Context, record battle.Record) error {
	rounds, err := json.Marshal(record.Rounds)
	if err != nil {
		return fmt.Errorf("encode rounds: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO battle_results
		   (id, session_id, scope_key, player_a, player_b, winner, wins_a, wins_b, rounds, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO NOTHING`,
		record.ID, record.SessionID, record.Key,
		string(record.PlayerA), string(record.PlayerB), string(record.Winner),
		record.WinsA, record.WinsB, rounds, record.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert battle result: %w", err)
	}

	return tx.Commit(ctx)
}

// Recent returns the latest results, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]battle.Record, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, scope_key, player_a, player_b, winner, wins_a, wins_b, rounds, finished_at
		 FROM battle_results
		 ORDER BY finished_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
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
	row := s.db.QueryRow(ctx,
		`SELECT id, session_id, scope_key, player_a, player_b, winner, wins_a, wins_b, rounds, finished_at
		 FROM battle_results WHERE id = $1`,
		id,
	)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return battle.Record{}, fmt.Errorf("battle result %s not found: %w", id, err)
	}
	return record, err
}

// Close releases the pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func scanRecord(row pgx.Row) (battle.Record, error) {
	var record battle.Record
	var playerA, playerB, winner string
	var rounds []byte
	if err := row.Scan(&record.ID, &record.SessionID, &record.Key, &playerA, &playerB, &winner,
		&record.WinsA, &record.WinsB, &rounds, &record.FinishedAt); err != nil {
		return battle.Record{}, err
	}
	if err := json.Unmarshal(rounds, &record.Rounds); err != nil {
		return battle.Record{}, fmt.Errorf("decode rounds: %w", err)
	}
	record.PlayerA = battle.Identity(playerA)
	record.PlayerB = battle.Identity(playerB)
	record.Winner = battle.Identity(winner)
	record.FinishedAt = record.FinishedAt.UTC()
	return record, nil
}
