package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	platformdb "myclassmate-backend/internal/platform/db"
)

// Roles known to the platform.
const (
	RoleAdmin    = "ADMIN"
	RoleLecturer = "LECTURER"
	RoleStudent  = "STUDENT"
)

var (
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
)

type Service struct {
	store  AccountStore
	secret []byte
}

func NewService(db *sql.DB, secret string) *Service {
	return &Service{store: NewStore(db), secret: []byte(secret)}
}

func (s *Service) Secret() []byte { return s.secret }

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	acct, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if acct == nil {
		return "", errors.New("authentication failed")
	}
	if acct.IsDisabled {
		return "", errors.New("account disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return "", errors.New("authentication failed")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  acct.Username,
		"uid":  acct.UserID,
		"role": acct.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString(s.secret)
}

func (s *Service) Register(ctx context.Context, username, password, role string) error {
	switch role {
	case RoleAdmin, RoleLecturer, RoleStudent:
	default:
		return errors.New("invalid role")
	}

	existing, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.store.Insert(ctx, username, string(hash), role, time.Now().UTC()); err != nil {
		if platformdb.IsDuplicateKey(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}
