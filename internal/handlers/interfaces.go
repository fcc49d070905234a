package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkovac/tripmates-api/internal/hub"
	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/dkovac/tripmates-api/internal/oauth"
	"github.com/dkovac/tripmates-api/internal/services"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreate(ctx context.Context, email, name, provider string) (*models.User, error)
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error)
}

// TripServiceInterface defines the methods used by handlers from TripService
type TripServiceInterface interface {
	Create(ctx context.Context, name, destination string, startDate, endDate *time.Time, ownerEmail, ownerName string, data json.RawMessage) (*models.Trip, error)
	GetByID(ctx context.Context, tripID uuid.UUID) (*models.Trip, error)
	ListForUser(ctx context.Context, email string) ([]models.Trip, []string, error)
	Update(ctx context.Context, tripID uuid.UUID, updates services.TripUpdates, actorEmail string) (*models.Trip, error)
	Delete(ctx context.Context, tripID uuid.UUID, actorEmail string) error
}

// MemberServiceInterface defines the methods used by handlers from MemberService
type MemberServiceInterface interface {
	List(ctx context.Context, tripID uuid.UUID) ([]models.TripMember, error)
	Get(ctx context.Context, tripID uuid.UUID, email string) (*models.TripMember, error)
	IsMember(ctx context.Context, tripID uuid.UUID, email string) (bool, error)
	Remove(ctx context.Context, tripID uuid.UUID, email, removedBy string) error
	Leave(ctx context.Context, tripID uuid.UUID, email string) error
	TouchLastActive(ctx context.Context, tripID uuid.UUID, email string) error
}

// InviteServiceInterface defines the methods used by handlers from InviteService
type InviteServiceInterface interface {
	Create(ctx context.Context, tripID uuid.UUID, inviterEmail, inviterName, inviteeEmail, role string, message *string) (*models.TripInvite, error)
	GetByToken(ctx context.Context, token string) (*models.TripInvite, error)
	Accept(ctx context.Context, token, acceptingEmail, acceptingName string) (*models.Trip, error)
	Decline(ctx context.Context, token string) error
	PendingForTrip(ctx context.Context, tripID uuid.UUID) ([]models.TripInvite, error)
	Cancel(ctx context.Context, inviteID, tripID uuid.UUID, actorEmail string) error
}

// TaskServiceInterface defines the methods used by handlers from TaskService
type TaskServiceInterface interface {
	Assign(ctx context.Context, tripID uuid.UUID, taskID, assignedTo, assignedBy string) (*models.TaskRecord, error)
	Unassign(ctx context.Context, tripID uuid.UUID, taskID, actorEmail string) (*models.TaskRecord, error)
	Complete(ctx context.Context, tripID uuid.UUID, taskID, completedBy string) (*models.TaskRecord, error)
	Uncomplete(ctx context.Context, tripID uuid.UUID, taskID, actorEmail string) (*models.TaskRecord, error)
	AddComment(ctx context.Context, tripID uuid.UUID, taskID, authorEmail, authorName, content string) (*models.TaskComment, error)
	EnhancedItems(ctx context.Context, tripID uuid.UUID, baseItems []models.ReadinessItem) ([]models.ReadinessItem, error)
	Stats(ctx context.Context, tripID uuid.UUID, baseItems []models.ReadinessItem) (*models.TaskStats, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	StoreSignInToken(ctx context.Context, email, name, tokenHash string, expiresAt time.Time) error
	ConsumeSignInToken(ctx context.Context, tokenHash string) (string, string, error)
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// HubInterface defines the methods used by handlers from the Hub
type HubInterface interface {
	Register(client *hub.Client)
	Unregister(client *hub.Client)
	SubscribeToTrip(clientID string, tripID uuid.UUID)
	UnsubscribeFromTrip(clientID string, tripID uuid.UUID)
	IsSubscribedToTrip(clientID string, tripID uuid.UUID) bool
	UpdatePresence(tripID uuid.UUID, email, name, status, activity string)
	StartTyping(tripID uuid.UUID, email, name, field string)
	StopTyping(tripID uuid.UUID, email string)
	PresenceSnapshot(tripID uuid.UUID) []hub.PresenceRecord
	BroadcastTripUpdate(trip *models.Trip, modifiedBy string)
	BroadcastMemberJoined(tripID uuid.UUID, email, name, role string)
	BroadcastMemberLeft(tripID uuid.UUID, email string)
	BroadcastTasksUpdated(tripID uuid.UUID, taskID, action, updatedBy string)
	BroadcastInviteUpdated(tripID, inviteID uuid.UUID, status, email string)
}

// SSEHubInterface defines the methods used by handlers from the SSE hub
type SSEHubInterface interface {
	BroadcastTripUpdate(trip *models.Trip, modifiedBy string)
	BroadcastTasksUpdated(tripID uuid.UUID, taskID, action, updatedBy string)
}

// EmailServiceInterface defines the methods used by handlers from EmailService
type EmailServiceInterface interface {
	IsConfigured() bool
	SendTripInvite(to, tripName, inviterName, inviteURL string) error
	SendMagicLink(to, signInURL string) error
}
