package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPending      OrderStatus = "pending"
	StatusProcessing   OrderStatus = "processing"
	StatusInProduction OrderStatus = "in_production"
	StatusFailed       OrderStatus = "failed"
)

type Card struct {
	Front    string `json:"front"`
	Back     string `json:"back,omitempty"`
	Category string `json:"category,omitempty"`
}

type Order struct {
	ID            string      `json:"id"`
	ProfileID     string      `json:"profile_id"`
	Status        OrderStatus `json:"status"`
	Language      string      `json:"language"`
	Cards         []Card      `json:"cards"`
	Note          string      `json:"note,omitempty"`
	FailureReason string      `json:"failure_reason,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// CreateOrder inserts o as pending unless the profile already placed limit
// orders within window, in which case it returns ErrRateLimited. The count
// and the insert share one transaction.
func (s *Store) CreateOrder(ctx context.Context, o Order, limit int, window time.Duration) (*Order, error) {
	cards, err := json.Marshal(o.Cards)
	if err != nil {
		return nil, fmt.Errorf("encode cards: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := s.now()
	recent, err := countRecentOrders(ctx, tx, o.ProfileID, now.Add(-window))
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	if limit > 0 && recent >= limit {
		return nil, ErrRateLimited
	}

	o.ID = uuid.NewString()
	o.Status = StatusPending
	o.CreatedAt = now.UTC()
	o.UpdatedAt = o.CreatedAt
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, profile_id, status, language, cards, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.ProfileID, string(o.Status), o.Language, string(cards), o.Note, now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &o, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// countRecentOrders returns the orders the profile placed after since.
func countRecentOrders(ctx context.Context, q queryer, profileID string, since time.Time) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE profile_id = ? AND created_at > ?`,
		profileID, since.UnixNano()).Scan(&n)
	return n, err
}

func (s *Store) Order(ctx context.Context, id string) (*Order, error) {
	var o Order
	var cards string
	var created, updated int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, status, language, cards, note, failure_reason, created_at, updated_at
		FROM orders WHERE id = ?`, id).
		Scan(&o.ID, &o.ProfileID, &o.Status, &o.Language, &cards, &o.Note, &o.FailureReason, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cards), &o.Cards); err != nil {
		return nil, fmt.Errorf("decode cards for order %s: %w", id, err)
	}
	o.CreatedAt = time.Unix(0, created).UTC()
	o.UpdatedAt = time.Unix(0, updated).UTC()
	return &o, nil
}

// UpdateOrderStatus sets status and failure reason. reason is cleared for
// non-failed statuses.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status OrderStatus, reason string) error {
	if status != StatusFailed {
		reason = ""
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, failure_reason = ?, updated_at = ? WHERE id = ?`,
		string(status), reason, s.now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TransitionOrder moves the order to status only if it is currently in one
// of from. Concurrent callers racing for the same order see exactly one
// success; the others get ErrStatusConflict.
func (s *Store) TransitionOrder(ctx context.Context, id string, status OrderStatus, from ...OrderStatus) error {
	if len(from) == 0 {
		return fmt.Errorf("transition order %s: no source status", id)
	}
	args := []any{string(status), s.now().UnixNano(), id}
	marks := make([]string, len(from))
	for i, f := range from {
		marks[i] = "?"
		args = append(args, string(f))
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, failure_reason = '', updated_at = ?
		WHERE id = ? AND status IN (`+strings.Join(marks, ", ")+`)`, args...)
	if err != nil {
		return fmt.Errorf("transition order %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrStatusConflict
}
