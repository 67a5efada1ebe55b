package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type WaitlistEntry struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Language  string    `json:"language"`
	SessionID string    `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AddToWaitlist stores e. It reports false when the email was already on
// the list; that is not an error.
func (s *Store) AddToWaitlist(ctx context.Context, e WaitlistEntry) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO waitlist (id, email, language, session_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(email) DO NOTHING`,
		uuid.NewString(), e.Email, e.Language, e.SessionID, s.now().UnixNano())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// WaitlistSize returns the number of addresses on the list.
func (s *Store) WaitlistSize(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM waitlist`).Scan(&n)
	return n, err
}
