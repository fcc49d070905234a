package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dkovac/tripmates-api/internal/database"
	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/google/uuid"
)

var (
	ErrForbidden         = errors.New("not allowed")
	ErrMemberNotFound    = errors.New("member not found")
	ErrCannotRemoveOwner = errors.New("cannot remove the trip owner")
)

type MemberService struct {
	db *database.DB
}

func NewMemberService(db *database.DB) *MemberService {
	return &MemberService{db: db}
}

func (s *MemberService) List(ctx context.Context, tripID uuid.UUID) ([]models.TripMember, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, trip_id, email, name, role, joined_at, last_active
		FROM trip_members
		WHERE trip_id = $1
		ORDER BY joined_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.TripMember
	for rows.Next() {
		var m models.TripMember
		if err := rows.Scan(&m.ID, &m.TripID, &m.Email, &m.Name, &m.Role, &m.JoinedAt, &m.LastActive); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

func (s *MemberService) Get(ctx context.Context, tripID uuid.UUID, email string) (*models.TripMember, error) {
	var m models.TripMember
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, trip_id, email, name, role, joined_at, last_active
		FROM trip_members
		WHERE trip_id = $1 AND email = $2
	`, tripID, email).Scan(&m.ID, &m.TripID, &m.Email, &m.Name, &m.Role, &m.JoinedAt, &m.LastActive)
	if err != nil {
		return nil, ErrMemberNotFound
	}
	return &m, nil
}

func (s *MemberService) IsMember(ctx context.Context, tripID uuid.UUID, email string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM trip_members WHERE trip_id = $1 AND email = $2)
	`, tripID, email).Scan(&exists)
	return exists, err
}

func (s *MemberService) IsOwner(ctx context.Context, tripID uuid.UUID, email string) (bool, error) {
	var ownerEmail string
	err := s.db.Pool.QueryRow(ctx, `SELECT owner_email FROM trips WHERE id = $1`, tripID).Scan(&ownerEmail)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(ownerEmail, email), nil
}

// Add is an idempotent upsert keyed by (trip, email). A repeated add keeps
// the original joined_at and role.
func (s *MemberService) Add(ctx context.Context, tripID uuid.UUID, email, name, role string) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO trip_members (trip_id, email, name, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (trip_id, email) DO NOTHING
	`, tripID, email, name, role)
	return err
}

// Remove drops a member. Only the trip owner may remove, and the owner row
// itself can never be removed. Tasks already assigned to the removed member
// are deliberately left alone: orphaned assignments keep the audit history.
func (s *MemberService) Remove(ctx context.Context, tripID uuid.UUID, email, removedBy string) error {
	isOwner, err := s.IsOwner(ctx, tripID, removedBy)
	if err != nil {
		return err
	}
	if !isOwner {
		return ErrForbidden
	}

	var role string
	err = s.db.Pool.QueryRow(ctx, `
		SELECT role FROM trip_members WHERE trip_id = $1 AND email = $2
	`, tripID, email).Scan(&role)
	if err != nil {
		return ErrMemberNotFound
	}
	if role == models.RoleOwner {
		return ErrCannotRemoveOwner
	}

	_, err = s.db.Pool.Exec(ctx, `
		DELETE FROM trip_members WHERE trip_id = $1 AND email = $2
	`, tripID, email)
	return err
}

// Leave lets a member remove themselves. The owner cannot leave their own trip.
func (s *MemberService) Leave(ctx context.Context, tripID uuid.UUID, email string) error {
	var role string
	err := s.db.Pool.QueryRow(ctx, `
		SELECT role FROM trip_members WHERE trip_id = $1 AND email = $2
	`, tripID, email).Scan(&role)
	if err != nil {
		return ErrMemberNotFound
	}
	if role == models.RoleOwner {
		return ErrCannotRemoveOwner
	}

	_, err = s.db.Pool.Exec(ctx, `
		DELETE FROM trip_members WHERE trip_id = $1 AND email = $2
	`, tripID, email)
	return err
}

// TouchLastActive stamps the member's heartbeat time. Called on presence
// updates; failures are the caller's to swallow.
func (s *MemberService) TouchLastActive(ctx context.Context, tripID uuid.UUID, email string) error {
	_, err := s.db.Pool.Exec(ctx, `
		UPDATE trip_members SET last_active = NOW() WHERE trip_id = $1 AND email = $2
	`, tripID, email)
	return err
}
