package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/interview/pkg/interview"
)

// SessionRepository stores one JSONB record per session keyed by session ID.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) (*SessionRepository, error) {
	r := &SessionRepository{pool: pool}
	if err := r.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SessionRepository) ensureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS interview_sessions (
	id TEXT PRIMARY KEY,
	record JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`)
	return err
}

func (r *SessionRepository) Save(ctx context.Context, s interview.Session) error {
	record, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO interview_sessions (id, record, created_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at
`, s.ID, record, s.CreatedAt, time.Now().UTC())
	return err
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (interview.Session, error) {
	row := r.pool.QueryRow(ctx, `
SELECT record FROM interview_sessions WHERE id = $1
`, sessionID)
	var record []byte
	if err := row.Scan(&record); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return interview.Session{}, fmt.Errorf("%w: %s", interview.ErrSessionNotFound, sessionID)
		}
		return interview.Session{}, err
	}
	var s interview.Session
	if err := json.Unmarshal(record, &s); err != nil {
		return interview.Session{}, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return s, nil
}

func (r *SessionRepository) List(ctx context.Context, maxAgeHours int) ([]string, error) {
	query := `SELECT id FROM interview_sessions`
	args := []any{}
	if maxAgeHours > 0 {
		query += ` WHERE updated_at > $1`
		args = append(args, time.Now().UTC().Add(-time.Duration(maxAgeHours)*time.Hour))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM interview_sessions WHERE id = $1`, sessionID)
	return err
}
