// internal/database/history.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/happyfamilies/internal/game"
)

// Session archive statuses.
const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
	SessionAbandoned  = "abandoned"
)

// HistoryRepository archives session action records in Postgres.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// EnsureSchema creates the game_sessions and session_actions tables if they do not exist.
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS game_sessions (
				id         UUID PRIMARY KEY,
				code       TEXT NOT NULL,
				status     TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL DEFAULT now(),
				end_time   TIMESTAMPTZ
			)`,
			`CREATE TABLE IF NOT EXISTS session_actions (
				session_id     UUID NOT NULL REFERENCES game_sessions (id) ON DELETE CASCADE,
				action_index   INT NOT NULL,
				actor_id       TEXT NOT NULL DEFAULT '',
				action_type    TEXT NOT NULL,
				action_payload JSONB,
				recorded_at    TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (session_id, action_index)
			)`,
		}
		for _, q := range stmts {
			if _, err := tx.Exec(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create history tables: %w", err)
	}
	return nil
}

// SaveActions inserts a batch of records in a single transaction. Records already stored are
// skipped, so a batch may be replayed safely.
func (r *HistoryRepository) SaveActions(ctx context.Context, recs []game.ActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %s/%d: %w", rec.SessionID, rec.ActionIndex, err)
			}
		}
		return nil
	})
}

// MarkAbandoned closes a session that is still in progress.
func (r *HistoryRepository) MarkAbandoned(ctx context.Context, sessionID string) error {
	q := `
		UPDATE game_sessions
		SET status = $2, end_time = now()
		WHERE id = $1 AND status = $3
	`
	if _, err := r.pool.Exec(ctx, q, sessionID, SessionAbandoned, SessionInProgress); err != nil {
		return fmt.Errorf("mark session %s abandoned: %w", sessionID, err)
	}
	return nil
}

// SessionStatus returns the archived status of a session.
func (r *HistoryRepository) SessionStatus(ctx context.Context, sessionID string) (string, error) {
	var status string
	err := r.pool.QueryRow(ctx, `SELECT status FROM game_sessions WHERE id = $1`, sessionID).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("session %s status: %w", sessionID, err)
	}
	return status, nil
}

// insertActionTx upserts the session row, inserts the action and closes the session when the
// action ends it.
func insertActionTx(ctx context.Context, tx pgx.Tx, rec game.ActionRecord) error {
	upsertSessionQ := `
		INSERT INTO game_sessions (id, code, status, start_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertSessionQ, rec.SessionID, rec.SessionCode, SessionInProgress, rec.Timestamp); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO session_actions (
			session_id, action_index, actor_id, action_type, action_payload, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, action_index) DO NOTHING
	`
	if _, err := tx.Exec(ctx, actionInsertQ,
		rec.SessionID, rec.ActionIndex, rec.ActorID, rec.ActionType, payload, rec.Timestamp,
	); err != nil {
		return err
	}

	var status string
	switch rec.ActionType {
	case "game_end":
		status = SessionCompleted
	case "session_closed", "session_abandoned":
		status = SessionAbandoned
	default:
		return nil
	}
	finalizeQ := `
		UPDATE game_sessions
		SET status = $2, end_time = $3
		WHERE id = $1 AND status = $4
	`
	_, err = tx.Exec(ctx, finalizeQ, rec.SessionID, status, rec.Timestamp, SessionInProgress)
	return err
}
