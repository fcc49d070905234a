package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Trip is the shared document all collaborators converge on. Known fields are
// modeled explicitly; everything else the wizard attaches (lodging notes,
// activity drafts, budgets) rides in the Data envelope. Version increases
// monotonically on every accepted write.
type Trip struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Destination  string          `json:"destination"`
	StartDate    *time.Time      `json:"start_date,omitempty"`
	EndDate      *time.Time      `json:"end_date,omitempty"`
	OwnerEmail   string          `json:"owner_email"`
	OwnerName    string          `json:"owner_name"`
	IsShared     bool            `json:"is_shared"`
	Data         json.RawMessage `json:"data"`
	Version      int             `json:"version"`
	LastModified time.Time       `json:"last_modified"`
	ModifiedBy   string          `json:"modified_by"`
	CreatedAt    time.Time       `json:"created_at"`
}

type TripMember struct {
	ID         uuid.UUID `json:"id"`
	TripID     uuid.UUID `json:"trip_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	JoinedAt   time.Time `json:"joined_at"`
	LastActive time.Time `json:"last_active"`
}

// Permissions derives the member's capability set from its role.
func (m *TripMember) Permissions() Permissions {
	return PermissionsForRole(m.Role)
}
