package services

import (
	"context"
	"errors"
	"time"

	"github.com/dkovac/tripmates-api/internal/database"
	"github.com/google/uuid"
)

var ErrSignInTokenInvalid = errors.New("sign-in token is invalid or expired")

type TokenService struct {
	db *database.DB
}

func NewTokenService(db *database.DB) *TokenService {
	return &TokenService{db: db}
}

func (s *TokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	return err
}

func (s *TokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `
		SELECT user_id FROM refresh_tokens
		WHERE token_hash = $1 AND expires_at > NOW()
	`, tokenHash).Scan(&userID)
	return userID, err
}

func (s *TokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash)
	return err
}

func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}

// StoreSignInToken records a pending magic-link sign-in. Only the hash is
// persisted; the raw token travels in the email.
func (s *TokenService) StoreSignInToken(ctx context.Context, email, name, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO signin_tokens (email, name, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
	`, email, name, tokenHash, expiresAt)
	return err
}

// ConsumeSignInToken validates and burns a magic-link token in one step so a
// link can never be used twice.
func (s *TokenService) ConsumeSignInToken(ctx context.Context, tokenHash string) (email, name string, err error) {
	err = s.db.Pool.QueryRow(ctx, `
		DELETE FROM signin_tokens
		WHERE token_hash = $1 AND expires_at > NOW()
		RETURNING email, name
	`, tokenHash).Scan(&email, &name)
	if err != nil {
		return "", "", ErrSignInTokenInvalid
	}
	return email, name, nil
}

func (s *TokenService) CleanupExpired(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < NOW()`); err != nil {
		return err
	}
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM signin_tokens WHERE expires_at < NOW()`)
	return err
}
