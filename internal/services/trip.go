package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dkovac/tripmates-api/internal/database"
	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/google/uuid"
)

var ErrTripNotFound = errors.New("trip not found")

type TripService struct {
	db *database.DB
}

func NewTripService(db *database.DB) *TripService {
	return &TripService{db: db}
}

// TripUpdates carries a partial document write. Nil fields are left as-is;
// Extras is shallow-merged into the trip's data envelope, last write wins
// per key.
type TripUpdates struct {
	Name        *string
	Destination *string
	StartDate   *time.Time
	EndDate     *time.Time
	IsShared    *bool
	Extras      json.RawMessage
}

func (u TripUpdates) empty() bool {
	return u.Name == nil && u.Destination == nil && u.StartDate == nil &&
		u.EndDate == nil && u.IsShared == nil && u.Extras == nil
}

// Create persists a new trip and seeds its owner as the single owner-role
// member in the same transaction. Ownership is never granted again after
// this point.
func (s *TripService) Create(ctx context.Context, name, destination string, startDate, endDate *time.Time, ownerEmail, ownerName string, data json.RawMessage) (*models.Trip, error) {
	if data == nil {
		data = json.RawMessage("{}")
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var trip models.Trip
	err = tx.QueryRow(ctx, `
		INSERT INTO trips (name, destination, start_date, end_date, owner_email, owner_name, data, modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $5)
		RETURNING id, name, destination, start_date, end_date, owner_email, owner_name, is_shared, data, version, last_modified, modified_by, created_at
	`, name, destination, startDate, endDate, ownerEmail, ownerName, data).Scan(
		&trip.ID, &trip.Name, &trip.Destination, &trip.StartDate, &trip.EndDate,
		&trip.OwnerEmail, &trip.OwnerName, &trip.IsShared, &trip.Data,
		&trip.Version, &trip.LastModified, &trip.ModifiedBy, &trip.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO trip_members (trip_id, email, name, role)
		VALUES ($1, $2, $3, $4)
	`, trip.ID, ownerEmail, ownerName, models.RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner as member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &trip, nil
}

func (s *TripService) GetByID(ctx context.Context, tripID uuid.UUID) (*models.Trip, error) {
	var trip models.Trip
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, name, destination, start_date, end_date, owner_email, owner_name, is_shared, data, version, last_modified, modified_by, created_at
		FROM trips WHERE id = $1
	`, tripID).Scan(
		&trip.ID, &trip.Name, &trip.Destination, &trip.StartDate, &trip.EndDate,
		&trip.OwnerEmail, &trip.OwnerName, &trip.IsShared, &trip.Data,
		&trip.Version, &trip.LastModified, &trip.ModifiedBy, &trip.CreatedAt,
	)
	if err != nil {
		return nil, ErrTripNotFound
	}
	return &trip, nil
}

func (s *TripService) ListForUser(ctx context.Context, email string) ([]models.Trip, []string, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT t.id, t.name, t.destination, t.start_date, t.end_date, t.owner_email, t.owner_name, t.is_shared, t.data, t.version, t.last_modified, t.modified_by, t.created_at, tm.role
		FROM trips t
		JOIN trip_members tm ON t.id = tm.trip_id
		WHERE tm.email = $1
		ORDER BY t.created_at DESC
	`, email)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var trips []models.Trip
	var roles []string
	for rows.Next() {
		var t models.Trip
		var role string
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Destination, &t.StartDate, &t.EndDate,
			&t.OwnerEmail, &t.OwnerName, &t.IsShared, &t.Data,
			&t.Version, &t.LastModified, &t.ModifiedBy, &t.CreatedAt, &role,
		); err != nil {
			return nil, nil, err
		}
		trips = append(trips, t)
		roles = append(roles, role)
	}
	return trips, roles, nil
}

// Update applies a partial write and bumps the version, all in one UPDATE:
// an update either fully lands with its version bump or not at all. The
// policy is last-write-wins at document granularity; two overlapping writes
// do not merge field edits beyond the shallow data envelope.
func (s *TripService) Update(ctx context.Context, tripID uuid.UUID, updates TripUpdates, actorEmail string) (*models.Trip, error) {
	role, err := s.actorRole(ctx, tripID, actorEmail)
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, ErrForbidden
	}
	if !models.PermissionsForRole(role).CanEdit {
		return nil, ErrForbidden
	}

	// The edit check above must run even for a no-op body; an empty PATCH
	// must not become a read path around the membership rules.
	if updates.empty() {
		return s.GetByID(ctx, tripID)
	}

	extras := updates.Extras
	if extras == nil {
		extras = json.RawMessage("{}")
	}

	var trip models.Trip
	err = s.db.Pool.QueryRow(ctx, `
		UPDATE trips
		SET name = COALESCE($1, name),
		    destination = COALESCE($2, destination),
		    start_date = COALESCE($3, start_date),
		    end_date = COALESCE($4, end_date),
		    is_shared = COALESCE($5, is_shared),
		    data = data || $6,
		    version = version + 1,
		    last_modified = NOW(),
		    modified_by = $7
		WHERE id = $8
		RETURNING id, name, destination, start_date, end_date, owner_email, owner_name, is_shared, data, version, last_modified, modified_by, created_at
	`, updates.Name, updates.Destination, updates.StartDate, updates.EndDate,
		updates.IsShared, extras, actorEmail, tripID).Scan(
		&trip.ID, &trip.Name, &trip.Destination, &trip.StartDate, &trip.EndDate,
		&trip.OwnerEmail, &trip.OwnerName, &trip.IsShared, &trip.Data,
		&trip.Version, &trip.LastModified, &trip.ModifiedBy, &trip.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update trip: %w", err)
	}
	return &trip, nil
}

// Delete removes a trip and everything hanging off it. Owner only; the
// foreign keys cascade members, invites, tasks and comments.
func (s *TripService) Delete(ctx context.Context, tripID uuid.UUID, actorEmail string) error {
	role, err := s.actorRole(ctx, tripID, actorEmail)
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			return ErrTripNotFound
		}
		return ErrForbidden
	}
	if !models.PermissionsForRole(role).CanDelete {
		return ErrForbidden
	}

	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, tripID)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}

// actorRole resolves the acting user's role on a trip. The owner always
// qualifies even if its member row is somehow missing.
func (s *TripService) actorRole(ctx context.Context, tripID uuid.UUID, email string) (string, error) {
	var ownerEmail string
	err := s.db.Pool.QueryRow(ctx, `SELECT owner_email FROM trips WHERE id = $1`, tripID).Scan(&ownerEmail)
	if err != nil {
		return "", ErrTripNotFound
	}
	if strings.EqualFold(ownerEmail, email) {
		return models.RoleOwner, nil
	}

	var role string
	err = s.db.Pool.QueryRow(ctx, `
		SELECT role FROM trip_members WHERE trip_id = $1 AND email = $2
	`, tripID, email).Scan(&role)
	if err != nil {
		return "", ErrMemberNotFound
	}
	return role, nil
}
