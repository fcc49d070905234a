package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/dkovac/tripmates-api/internal/database"
	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/dkovac/tripmates-api/internal/oauth"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:    fmt.Sprintf("user%d@example.com", f.counter),
		Name:     fmt.Sprintf("Test User %d", f.counter),
		Provider: "email",
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url, provider)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, name, avatar_url, provider, created_at, updated_at
	`, user.Email, user.Name, user.AvatarURL, user.Provider).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// WithProvider sets the user's sign-in provider
func WithProvider(provider string) UserOption {
	return func(u *models.User) {
		u.Provider = provider
	}
}

// CreateTrip creates a test trip owned by the given user, seeding the
// owner's member row the same way the service does
func (f *Fixtures) CreateTrip(t *testing.T, owner *models.User, opts ...TripOption) *models.Trip {
	t.Helper()
	f.counter++

	trip := &models.Trip{
		Name:        fmt.Sprintf("Test Trip %d", f.counter),
		Destination: "Lisbon",
		OwnerEmail:  owner.Email,
		OwnerName:   owner.Name,
		Data:        json.RawMessage(`{}`),
	}

	for _, opt := range opts {
		opt(trip)
	}

	ctx := context.Background()
	tx, err := f.db.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO trips (name, destination, start_date, end_date, owner_email, owner_name, data, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $5)
		RETURNING id, name, destination, start_date, end_date, owner_email, owner_name, is_shared, data, version, last_modified, modified_by, created_at
	`, trip.Name, trip.Destination, trip.StartDate, trip.EndDate,
		trip.OwnerEmail, trip.OwnerName, trip.Data).Scan(
		&trip.ID, &trip.Name, &trip.Destination, &trip.StartDate, &trip.EndDate,
		&trip.OwnerEmail, &trip.OwnerName, &trip.IsShared, &trip.Data,
		&trip.Version, &trip.LastModified, &trip.ModifiedBy, &trip.CreatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create trip: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO trip_members (trip_id, email, name, role)
		VALUES ($1, $2, $3, $4)
	`, trip.ID, trip.OwnerEmail, trip.OwnerName, models.RoleOwner)
	if err != nil {
		t.Fatalf("failed to add owner as member: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("failed to commit transaction: %v", err)
	}

	return trip
}

// TripOption configures a test trip
type TripOption func(*models.Trip)

// WithTripName sets the trip's name
func WithTripName(name string) TripOption {
	return func(tr *models.Trip) {
		tr.Name = name
	}
}

// WithDestination sets the trip's destination
func WithDestination(destination string) TripOption {
	return func(tr *models.Trip) {
		tr.Destination = destination
	}
}

// WithTripData sets the trip's document data
func WithTripData(data json.RawMessage) TripOption {
	return func(tr *models.Trip) {
		tr.Data = data
	}
}

// AddTripMember adds a member to a trip with the given role
func (f *Fixtures) AddTripMember(t *testing.T, trip *models.Trip, email, name, role string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO trip_members (trip_id, email, name, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (trip_id, email) DO NOTHING
	`, trip.ID, email, name, role)
	if err != nil {
		t.Fatalf("failed to add trip member: %v", err)
	}
}

// CreateInvite creates a pending invite directly, bypassing the service
func (f *Fixtures) CreateInvite(t *testing.T, trip *models.Trip, inviteeEmail, role, token string, opts ...InviteOption) *models.TripInvite {
	t.Helper()

	invite := &models.TripInvite{
		TripID:       trip.ID,
		InviterEmail: trip.OwnerEmail,
		InviterName:  trip.OwnerName,
		InviteeEmail: inviteeEmail,
		Role:         role,
		Token:        token,
		Status:       models.InviteStatusPending,
		ExpiresAt:    time.Now().Add(models.InviteTTL),
	}

	for _, opt := range opts {
		opt(invite)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO trip_invites (trip_id, inviter_email, inviter_name, invitee_email, role, token, status, message, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, invite.TripID, invite.InviterEmail, invite.InviterName, invite.InviteeEmail,
		invite.Role, invite.Token, invite.Status, invite.Message, invite.ExpiresAt).Scan(
		&invite.ID, &invite.CreatedAt, &invite.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create invite: %v", err)
	}

	return invite
}

// InviteOption configures a test invite
type InviteOption func(*models.TripInvite)

// WithInviteStatus sets the invite's status
func WithInviteStatus(status string) InviteOption {
	return func(i *models.TripInvite) {
		i.Status = status
	}
}

// WithExpiresAt sets the invite's expiry
func WithExpiresAt(expiresAt time.Time) InviteOption {
	return func(i *models.TripInvite) {
		i.ExpiresAt = expiresAt
	}
}

// CreateRefreshToken creates a test refresh token
func (f *Fixtures) CreateRefreshToken(t *testing.T, userID uuid.UUID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}
}

// OAuthUserInfo creates test OAuth user info
func OAuthUserInfo(email, name, provider, id string) *oauth.UserInfo {
	return &oauth.UserInfo{
		Email:     email,
		Name:      name,
		AvatarURL: "https://example.com/avatar.png",
		ID:        id,
		Provider:  provider,
	}
}
