package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
	InviteStatusExpired  = "expired"
)

// InviteTTL is how long an invite stays acceptable after it is sent.
const InviteTTL = 7 * 24 * time.Hour

// TripInvite records one invitation to one email address. Rows are never
// hard-deleted; resolved invites stay behind as an audit trail, and status
// only ever moves pending -> accepted | declined | expired.
type TripInvite struct {
	ID           uuid.UUID `json:"id"`
	TripID       uuid.UUID `json:"trip_id"`
	InviterEmail string    `json:"inviter_email"`
	InviterName  string    `json:"inviter_name"`
	InviteeEmail string    `json:"invitee_email"`
	Role         string    `json:"role"`
	Token        string    `json:"-"`
	Status       string    `json:"status"`
	Message      *string   `json:"message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Trip *Trip `json:"trip,omitempty"`
}

func (i *TripInvite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
