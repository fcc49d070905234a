package services

import (
	"context"
	"fmt"

	"github.com/dkovac/tripmates-api/internal/database"
	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/dkovac/tripmates-api/internal/oauth"
	"github.com/google/uuid"
)

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

// FindOrCreate looks a user up by email, creating the account on first
// sign-in. Email is the canonical identity; the same person arriving via
// Google after a magic-link signup lands on the same row.
func (s *UserService) FindOrCreate(ctx context.Context, email, name, provider string) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, name, avatar_url, provider, created_at, updated_at
		FROM users WHERE email = $1
	`, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.CreatedAt, &user.UpdatedAt,
	)

	if err == nil {
		if name != "" && user.Name != name {
			_, _ = s.db.Pool.Exec(ctx, `
				UPDATE users SET name = $1, updated_at = NOW() WHERE id = $2
			`, name, user.ID)
			user.Name = name
		}
		return &user, nil
	}

	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, provider)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, avatar_url, provider, created_at, updated_at
	`, email, name, provider).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	user, err := s.FindOrCreate(ctx, info.Email, info.Name, info.Provider)
	if err != nil {
		return nil, err
	}
	if info.AvatarURL != "" && (user.AvatarURL == nil || *user.AvatarURL != info.AvatarURL) {
		_, _ = s.db.Pool.Exec(ctx, `
			UPDATE users SET avatar_url = $1, updated_at = NOW() WHERE id = $2
		`, info.AvatarURL, user.ID)
		user.AvatarURL = &info.AvatarURL
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, name, avatar_url, provider, created_at, updated_at
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, email, name, avatar_url, provider, created_at, updated_at
		FROM users WHERE email = $1
	`, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update changes the display name and pushes it into every trip_members
// row for the same address, so collaborator lists reflect the rename.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	var user models.User
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE users SET name = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, email, name, avatar_url, provider, created_at, updated_at
	`, name, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.Pool.Exec(ctx, `
		UPDATE trip_members SET name = $1 WHERE LOWER(email) = LOWER($2)
	`, name, user.Email); err != nil {
		return nil, fmt.Errorf("failed to propagate name change: %w", err)
	}

	return &user, nil
}
