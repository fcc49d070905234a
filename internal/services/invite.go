package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkovac/tripmates-api/internal/database"
	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/google/uuid"
)

var (
	ErrInviteNotFound         = errors.New("invite not found")
	ErrInviteAlreadyProcessed = errors.New("invite has already been processed")
	ErrInviteExpired          = errors.New("invite has expired")
	ErrEmailMismatch          = errors.New("invite was issued to a different email address")
	ErrInviteAlreadyExists    = errors.New("a pending invite for this email already exists")
	ErrInvalidInviteRole      = errors.New("invites may only grant collaborator or viewer")
	ErrAlreadyMember          = errors.New("user is already a trip member")
)

type InviteService struct {
	db *database.DB
}

func NewInviteService(db *database.DB) *InviteService {
	return &InviteService{db: db}
}

// GenerateToken returns a 64-char hex token. Invite and sign-in links
// gate one-time rights, so tokens come from crypto/rand rather than a UUID.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create issues an invite on behalf of inviterEmail. The inviter must hold
// the can_invite capability on the trip. Email delivery happens in the
// handler and never affects the stored invite.
func (s *InviteService) Create(ctx context.Context, tripID uuid.UUID, inviterEmail, inviterName, inviteeEmail, role string, message *string) (*models.TripInvite, error) {
	if !models.ValidInviteRole(role) {
		return nil, ErrInvalidInviteRole
	}

	inviterRole, err := s.memberRole(ctx, tripID, inviterEmail)
	if err != nil {
		return nil, ErrForbidden
	}
	if !models.PermissionsForRole(inviterRole).CanInvite {
		return nil, ErrForbidden
	}

	var exists bool
	err = s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM trip_members WHERE trip_id = $1 AND email = $2)
	`, tripID, inviteeEmail).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyMember
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	var invite models.TripInvite
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO trip_invites (trip_id, inviter_email, inviter_name, invitee_email, role, token, status, message, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW() + $9::interval)
		RETURNING id, trip_id, inviter_email, inviter_name, invitee_email, role, token, status, message, created_at, expires_at, updated_at
	`, tripID, inviterEmail, inviterName, inviteeEmail, role, token,
		models.InviteStatusPending, message, models.InviteTTL.String()).Scan(
		&invite.ID, &invite.TripID, &invite.InviterEmail, &invite.InviterName,
		&invite.InviteeEmail, &invite.Role, &invite.Token, &invite.Status,
		&invite.Message, &invite.CreatedAt, &invite.ExpiresAt, &invite.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "idx_trip_invites_pending") {
			return nil, ErrInviteAlreadyExists
		}
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}
	return &invite, nil
}

// GetByToken also loads the trip's display fields for the public invite
// page.
func (s *InviteService) GetByToken(ctx context.Context, token string) (*models.TripInvite, error) {
	var invite models.TripInvite
	var trip models.Trip
	err := s.db.Pool.QueryRow(ctx, `
		SELECT i.id, i.trip_id, i.inviter_email, i.inviter_name, i.invitee_email, i.role, i.token, i.status, i.message, i.created_at, i.expires_at, i.updated_at,
		       t.id, t.name, t.destination, t.start_date, t.end_date, t.owner_email, t.owner_name
		FROM trip_invites i
		JOIN trips t ON t.id = i.trip_id
		WHERE i.token = $1
	`, token).Scan(
		&invite.ID, &invite.TripID, &invite.InviterEmail, &invite.InviterName,
		&invite.InviteeEmail, &invite.Role, &invite.Token, &invite.Status,
		&invite.Message, &invite.CreatedAt, &invite.ExpiresAt, &invite.UpdatedAt,
		&trip.ID, &trip.Name, &trip.Destination, &trip.StartDate, &trip.EndDate,
		&trip.OwnerEmail, &trip.OwnerName,
	)
	if err != nil {
		return nil, ErrInviteNotFound
	}
	invite.Trip = &trip
	return &invite, nil
}

// Accept resolves a pending invite: the invite flips to accepted, the invitee
// joins the member list with the invited role, and the trip document takes a
// version bump. The expiry check is lazy; a stale pending invite is marked
// expired here rather than by any background job.
func (s *InviteService) Accept(ctx context.Context, token, acceptingEmail, acceptingName string) (*models.Trip, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var invite models.TripInvite
	err = tx.QueryRow(ctx, `
		SELECT id, trip_id, invitee_email, role, status, expires_at
		FROM trip_invites WHERE token = $1 FOR UPDATE
	`, token).Scan(&invite.ID, &invite.TripID, &invite.InviteeEmail, &invite.Role, &invite.Status, &invite.ExpiresAt)
	if err != nil {
		return nil, ErrInviteNotFound
	}

	if invite.Status != models.InviteStatusPending {
		return nil, ErrInviteAlreadyProcessed
	}

	if invite.Expired(time.Now()) {
		_, err = tx.Exec(ctx, `
			UPDATE trip_invites SET status = $1, updated_at = NOW() WHERE id = $2
		`, models.InviteStatusExpired, invite.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to expire invite: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit expiry: %w", err)
		}
		return nil, ErrInviteExpired
	}

	if !strings.EqualFold(acceptingEmail, invite.InviteeEmail) {
		return nil, ErrEmailMismatch
	}

	_, err = tx.Exec(ctx, `
		UPDATE trip_invites SET status = $1, updated_at = NOW() WHERE id = $2
	`, models.InviteStatusAccepted, invite.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update invite: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO trip_members (trip_id, email, name, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (trip_id, email) DO NOTHING
	`, invite.TripID, invite.InviteeEmail, acceptingName, invite.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	var trip models.Trip
	err = tx.QueryRow(ctx, `
		UPDATE trips
		SET is_shared = TRUE, version = version + 1, last_modified = NOW(), modified_by = $1
		WHERE id = $2
		RETURNING id, name, destination, start_date, end_date, owner_email, owner_name, is_shared, data, version, last_modified, modified_by, created_at
	`, invite.InviteeEmail, invite.TripID).Scan(
		&trip.ID, &trip.Name, &trip.Destination, &trip.StartDate, &trip.EndDate,
		&trip.OwnerEmail, &trip.OwnerName, &trip.IsShared, &trip.Data,
		&trip.Version, &trip.LastModified, &trip.ModifiedBy, &trip.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update trip: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &trip, nil
}

// Decline resolves a pending invite without touching the trip. Anyone holding
// the token may decline; no email match is required.
func (s *InviteService) Decline(ctx context.Context, token string) error {
	invite, err := s.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if invite.Status != models.InviteStatusPending {
		return ErrInviteAlreadyProcessed
	}
	if invite.Expired(time.Now()) {
		_, _ = s.db.Pool.Exec(ctx, `
			UPDATE trip_invites SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3
		`, models.InviteStatusExpired, invite.ID, models.InviteStatusPending)
		return ErrInviteExpired
	}

	result, err := s.db.Pool.Exec(ctx, `
		UPDATE trip_invites SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, models.InviteStatusDeclined, invite.ID, models.InviteStatusPending)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrInviteAlreadyProcessed
	}
	return nil
}

func (s *InviteService) PendingForTrip(ctx context.Context, tripID uuid.UUID) ([]models.TripInvite, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, trip_id, inviter_email, inviter_name, invitee_email, role, token, status, message, created_at, expires_at, updated_at
		FROM trip_invites
		WHERE trip_id = $1 AND status = $2
		ORDER BY created_at DESC
	`, tripID, models.InviteStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.TripInvite
	for rows.Next() {
		var invite models.TripInvite
		if err := rows.Scan(
			&invite.ID, &invite.TripID, &invite.InviterEmail, &invite.InviterName,
			&invite.InviteeEmail, &invite.Role, &invite.Token, &invite.Status,
			&invite.Message, &invite.CreatedAt, &invite.ExpiresAt, &invite.UpdatedAt,
		); err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, nil
}

// Cancel retires a pending invite early. Since invite rows are kept for
// audit, cancellation reuses the expired terminal state instead of deleting.
func (s *InviteService) Cancel(ctx context.Context, inviteID, tripID uuid.UUID, actorEmail string) error {
	var ownerEmail string
	err := s.db.Pool.QueryRow(ctx, `SELECT owner_email FROM trips WHERE id = $1`, tripID).Scan(&ownerEmail)
	if err != nil {
		return ErrTripNotFound
	}
	if !strings.EqualFold(ownerEmail, actorEmail) {
		return ErrForbidden
	}

	result, err := s.db.Pool.Exec(ctx, `
		UPDATE trip_invites SET status = $1, updated_at = NOW()
		WHERE id = $2 AND trip_id = $3 AND status = $4
	`, models.InviteStatusExpired, inviteID, tripID, models.InviteStatusPending)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrInviteNotFound
	}
	return nil
}

// ExpireStale is storage hygiene only; correctness never depends on it
// because Accept and Decline check expiry themselves.
func (s *InviteService) ExpireStale(ctx context.Context) error {
	_, err := s.db.Pool.Exec(ctx, `
		UPDATE trip_invites SET status = $1, updated_at = NOW()
		WHERE status = $2 AND expires_at < NOW()
	`, models.InviteStatusExpired, models.InviteStatusPending)
	return err
}

func (s *InviteService) memberRole(ctx context.Context, tripID uuid.UUID, email string) (string, error) {
	var role string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT role FROM trip_members WHERE trip_id = $1 AND email = $2
	`, tripID, email).Scan(&role)
	if err != nil {
		return "", ErrMemberNotFound
	}
	return role, nil
}
