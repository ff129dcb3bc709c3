package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Confirmation records a confirmed hands-raised gesture.
type Confirmation struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	ConfirmedAt time.Time       `json:"confirmed_at"`
	Frames      int             `json:"frames"`
	Snapshot    json.RawMessage `json:"snapshot"`
}

// ConfirmationRepository provides access to stored confirmations.
type ConfirmationRepository struct {
	db *sql.DB
}

// Confirmations returns the confirmation repository for this store.
func (s *Store) Confirmations() *ConfirmationRepository {
	return &ConfirmationRepository{db: s.db}
}

// Create inserts a confirmation. ConfirmedAt is set when zero.
func (r *ConfirmationRepository) Create(c *Confirmation) error {
	if c.ConfirmedAt.IsZero() {
		c.ConfirmedAt = time.Now()
	}
	if len(c.Snapshot) == 0 {
		c.Snapshot = json.RawMessage(`{}`)
	}

	_, err := r.db.Exec(
		`INSERT INTO confirmations (id, session_id, confirmed_at, frames, snapshot)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.SessionID, c.ConfirmedAt, c.Frames, string(c.Snapshot),
	)
	return err
}

// GetByID retrieves a confirmation by its ID.
func (r *ConfirmationRepository) GetByID(id string) (*Confirmation, error) {
	row := r.db.QueryRow(
		`SELECT id, session_id, confirmed_at, frames, snapshot
		 FROM confirmations WHERE id = ?`,
		id,
	)

	c, err := scanConfirmation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns the most recent confirmations first. A limit <= 0 returns all.
func (r *ConfirmationRepository) List(limit int) ([]*Confirmation, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(
		`SELECT id, session_id, confirmed_at, frames, snapshot
		 FROM confirmations ORDER BY confirmed_at DESC LIMIT ?`,
		limit,
	)
}

// ListBySession returns the confirmations of a session in order.
func (r *ConfirmationRepository) ListBySession(sessionID string) ([]*Confirmation, error) {
	return r.query(
		`SELECT id, session_id, confirmed_at, frames, snapshot
		 FROM confirmations WHERE session_id = ? ORDER BY confirmed_at`,
		sessionID,
	)
}

func (r *ConfirmationRepository) query(q string, args ...any) ([]*Confirmation, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var confirmations []*Confirmation
	for rows.Next() {
		c, err := scanConfirmation(rows)
		if err != nil {
			return nil, err
		}
		confirmations = append(confirmations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return confirmations, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConfirmation(s scanner) (*Confirmation, error) {
	c := &Confirmation{}
	var snapshot string
	if err := s.Scan(&c.ID, &c.SessionID, &c.ConfirmedAt, &c.Frames, &snapshot); err != nil {
		return nil, err
	}
	c.Snapshot = json.RawMessage(snapshot)
	return c, nil
}
