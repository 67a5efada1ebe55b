package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	Language          string    `json:"language"`
	Name              string    `json:"name"`
	PartnerName       string    `json:"partner_name"`
	RelationshipStage string    `json:"relationship_stage"`
	Email             string    `json:"email,omitempty"`
	MemoriesOptIn     bool      `json:"memories_opt_in"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UpsertProfile creates or updates the profile for p.SessionID. When the
// profile has opted in, its memories are replaced by memories; when it has
// not, any stored memories are removed.
func (s *Store) UpsertProfile(ctx context.Context, p Profile, memories []string) (*Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := s.now().UnixNano()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (id, session_id, language, name, partner_name, relationship_stage, email, memories_opt_in, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			language = excluded.language,
			name = excluded.name,
			partner_name = excluded.partner_name,
			relationship_stage = excluded.relationship_stage,
			email = excluded.email,
			memories_opt_in = excluded.memories_opt_in,
			updated_at = excluded.updated_at`,
		uuid.NewString(), p.SessionID, p.Language, p.Name, p.PartnerName, p.RelationshipStage, p.Email, p.MemoriesOptIn, now, now)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	saved, err := scanProfile(tx.QueryRowContext(ctx, profileSelect+` WHERE session_id = ?`, p.SessionID))
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE profile_id = ?`, saved.ID); err != nil {
		return nil, fmt.Errorf("clear memories: %w", err)
	}
	if saved.MemoriesOptIn {
		for i, m := range memories {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO memories (id, profile_id, position, content, created_at) VALUES (?, ?, ?, ?, ?)`,
				uuid.NewString(), saved.ID, i, m, now); err != nil {
				return nil, fmt.Errorf("insert memory: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Store) ProfileBySession(ctx context.Context, sessionID string) (*Profile, error) {
	return scanProfile(s.db.QueryRowContext(ctx, profileSelect+` WHERE session_id = ?`, sessionID))
}

func (s *Store) Memories(ctx context.Context, profileID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT content FROM memories WHERE profile_id = ? ORDER BY position`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const profileSelect = `SELECT id, session_id, language, name, partner_name, relationship_stage, email, memories_opt_in, created_at, updated_at FROM profiles`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var p Profile
	var created, updated int64
	err := row.Scan(&p.ID, &p.SessionID, &p.Language, &p.Name, &p.PartnerName, &p.RelationshipStage, &p.Email, &p.MemoriesOptIn, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(0, created).UTC()
	p.UpdatedAt = time.Unix(0, updated).UTC()
	return &p, nil
}
