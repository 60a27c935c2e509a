package auth

import (
	"context"
	"database/sql"
	"time"
)

type Account struct {
	UserID       uint64
	Username     string
	PasswordHash string
	Role         string
	Email        *string
	IsDisabled   bool
}

type AccountStore interface {
	GetByUsername(ctx context.Context, username string) (*Account, error)
	Insert(ctx context.Context, username, passwordHash, role string, now time.Time) error
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) GetByUsername(ctx context.Context, username string) (*Account, error) {
	const q = `
	SELECT user_id, username, password_hash, role, email, is_disabled
	FROM users
	WHERE username = ?`
	var a Account
	err := s.db.QueryRowContext(ctx, q, username).Scan(
		&a.UserID, &a.Username, &a.PasswordHash, &a.Role, &a.Email, &a.IsDisabled,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) Insert(ctx context.Context, username, passwordHash, role string, now time.Time) error {
	const q = `
	INSERT INTO users (username, password_hash, role, is_disabled, created_at)
	VALUES (?, ?, ?, 0, ?)`
	_, err := s.db.ExecContext(ctx, q, username, passwordHash, role, now)
	return err
}
