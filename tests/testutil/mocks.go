package testutil

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkovac/tripmates-api/internal/hub"
	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/dkovac/tripmates-api/internal/oauth"
	"github.com/dkovac/tripmates-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreate(ctx context.Context, email, name, provider string) (*models.User, error) {
	args := m.Called(ctx, email, name, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockTripService mocks the TripService
type MockTripService struct {
	mock.Mock
}

func (m *MockTripService) Create(ctx context.Context, name, destination string, startDate, endDate *time.Time, ownerEmail, ownerName string, data json.RawMessage) (*models.Trip, error) {
	args := m.Called(ctx, name, destination, startDate, endDate, ownerEmail, ownerName, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripService) GetByID(ctx context.Context, tripID uuid.UUID) (*models.Trip, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripService) ListForUser(ctx context.Context, email string) ([]models.Trip, []string, error) {
	args := m.Called(ctx, email)
	return args.Get(0).([]models.Trip), args.Get(1).([]string), args.Error(2)
}

func (m *MockTripService) Update(ctx context.Context, tripID uuid.UUID, updates services.TripUpdates, actorEmail string) (*models.Trip, error) {
	args := m.Called(ctx, tripID, updates, actorEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockTripService) Delete(ctx context.Context, tripID uuid.UUID, actorEmail string) error {
	args := m.Called(ctx, tripID, actorEmail)
	return args.Error(0)
}

// MockMemberService mocks the MemberService
type MockMemberService struct {
	mock.Mock
}

func (m *MockMemberService) List(ctx context.Context, tripID uuid.UUID) ([]models.TripMember, error) {
	args := m.Called(ctx, tripID)
	return args.Get(0).([]models.TripMember), args.Error(1)
}

func (m *MockMemberService) Get(ctx context.Context, tripID uuid.UUID, email string) (*models.TripMember, error) {
	args := m.Called(ctx, tripID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TripMember), args.Error(1)
}

func (m *MockMemberService) IsMember(ctx context.Context, tripID uuid.UUID, email string) (bool, error) {
	args := m.Called(ctx, tripID, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberService) Remove(ctx context.Context, tripID uuid.UUID, email, removedBy string) error {
	args := m.Called(ctx, tripID, email, removedBy)
	return args.Error(0)
}

func (m *MockMemberService) Leave(ctx context.Context, tripID uuid.UUID, email string) error {
	args := m.Called(ctx, tripID, email)
	return args.Error(0)
}

func (m *MockMemberService) TouchLastActive(ctx context.Context, tripID uuid.UUID, email string) error {
	args := m.Called(ctx, tripID, email)
	return args.Error(0)
}

// MockInviteService mocks the InviteService
type MockInviteService struct {
	mock.Mock
}

func (m *MockInviteService) Create(ctx context.Context, tripID uuid.UUID, inviterEmail, inviterName, inviteeEmail, role string, message *string) (*models.TripInvite, error) {
	args := m.Called(ctx, tripID, inviterEmail, inviterName, inviteeEmail, role, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TripInvite), args.Error(1)
}

func (m *MockInviteService) GetByToken(ctx context.Context, token string) (*models.TripInvite, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TripInvite), args.Error(1)
}

func (m *MockInviteService) Accept(ctx context.Context, token, acceptingEmail, acceptingName string) (*models.Trip, error) {
	args := m.Called(ctx, token, acceptingEmail, acceptingName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trip), args.Error(1)
}

func (m *MockInviteService) Decline(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockInviteService) PendingForTrip(ctx context.Context, tripID uuid.UUID) ([]models.TripInvite, error) {
	args := m.Called(ctx, tripID)
	return args.Get(0).([]models.TripInvite), args.Error(1)
}

func (m *MockInviteService) Cancel(ctx context.Context, inviteID, tripID uuid.UUID, actorEmail string) error {
	args := m.Called(ctx, inviteID, tripID, actorEmail)
	return args.Error(0)
}

// MockTaskService mocks the TaskService
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Assign(ctx context.Context, tripID uuid.UUID, taskID, assignedTo, assignedBy string) (*models.TaskRecord, error) {
	args := m.Called(ctx, tripID, taskID, assignedTo, assignedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskRecord), args.Error(1)
}

func (m *MockTaskService) Unassign(ctx context.Context, tripID uuid.UUID, taskID, actorEmail string) (*models.TaskRecord, error) {
	args := m.Called(ctx, tripID, taskID, actorEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskRecord), args.Error(1)
}

func (m *MockTaskService) Complete(ctx context.Context, tripID uuid.UUID, taskID, completedBy string) (*models.TaskRecord, error) {
	args := m.Called(ctx, tripID, taskID, completedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskRecord), args.Error(1)
}

func (m *MockTaskService) Uncomplete(ctx context.Context, tripID uuid.UUID, taskID, actorEmail string) (*models.TaskRecord, error) {
	args := m.Called(ctx, tripID, taskID, actorEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskRecord), args.Error(1)
}

func (m *MockTaskService) AddComment(ctx context.Context, tripID uuid.UUID, taskID, authorEmail, authorName, content string) (*models.TaskComment, error) {
	args := m.Called(ctx, tripID, taskID, authorEmail, authorName, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskComment), args.Error(1)
}

func (m *MockTaskService) EnhancedItems(ctx context.Context, tripID uuid.UUID, baseItems []models.ReadinessItem) ([]models.ReadinessItem, error) {
	args := m.Called(ctx, tripID, baseItems)
	return args.Get(0).([]models.ReadinessItem), args.Error(1)
}

func (m *MockTaskService) Stats(ctx context.Context, tripID uuid.UUID, baseItems []models.ReadinessItem) (*models.TaskStats, error) {
	args := m.Called(ctx, tripID, baseItems)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskStats), args.Error(1)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockTokenService) StoreSignInToken(ctx context.Context, email, name, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, email, name, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ConsumeSignInToken(ctx context.Context, tokenHash string) (string, string, error) {
	args := m.Called(ctx, tokenHash)
	return args.String(0), args.String(1), args.Error(2)
}

// MockHub mocks the realtime hub
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Register(client *hub.Client) {
	m.Called(client)
}

func (m *MockHub) Unregister(client *hub.Client) {
	m.Called(client)
}

func (m *MockHub) SubscribeToTrip(clientID string, tripID uuid.UUID) {
	m.Called(clientID, tripID)
}

func (m *MockHub) UnsubscribeFromTrip(clientID string, tripID uuid.UUID) {
	m.Called(clientID, tripID)
}

func (m *MockHub) IsSubscribedToTrip(clientID string, tripID uuid.UUID) bool {
	args := m.Called(clientID, tripID)
	return args.Bool(0)
}

func (m *MockHub) UpdatePresence(tripID uuid.UUID, email, name, status, activity string) {
	m.Called(tripID, email, name, status, activity)
}

func (m *MockHub) StartTyping(tripID uuid.UUID, email, name, field string) {
	m.Called(tripID, email, name, field)
}

func (m *MockHub) StopTyping(tripID uuid.UUID, email string) {
	m.Called(tripID, email)
}

func (m *MockHub) PresenceSnapshot(tripID uuid.UUID) []hub.PresenceRecord {
	args := m.Called(tripID)
	return args.Get(0).([]hub.PresenceRecord)
}

func (m *MockHub) BroadcastTripUpdate(trip *models.Trip, modifiedBy string) {
	m.Called(trip, modifiedBy)
}

func (m *MockHub) BroadcastMemberJoined(tripID uuid.UUID, email, name, role string) {
	m.Called(tripID, email, name, role)
}

func (m *MockHub) BroadcastMemberLeft(tripID uuid.UUID, email string) {
	m.Called(tripID, email)
}

func (m *MockHub) BroadcastTasksUpdated(tripID uuid.UUID, taskID, action, updatedBy string) {
	m.Called(tripID, taskID, action, updatedBy)
}

func (m *MockHub) BroadcastInviteUpdated(tripID, inviteID uuid.UUID, status, email string) {
	m.Called(tripID, inviteID, status, email)
}

// MockSSEHub mocks the SSE hub
type MockSSEHub struct {
	mock.Mock
}

func (m *MockSSEHub) BroadcastTripUpdate(trip *models.Trip, modifiedBy string) {
	m.Called(trip, modifiedBy)
}

func (m *MockSSEHub) BroadcastTasksUpdated(tripID uuid.UUID, taskID, action, updatedBy string) {
	m.Called(tripID, taskID, action, updatedBy)
}

func (m *MockSSEHub) SubscribeToTrip(clientID string, tripID uuid.UUID) {
	m.Called(clientID, tripID)
}

func (m *MockSSEHub) UnsubscribeFromTrip(clientID string, tripID uuid.UUID) {
	m.Called(clientID, tripID)
}

// MockEmailService mocks the EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockEmailService) SendTripInvite(to, tripName, inviterName, inviteURL string) error {
	args := m.Called(to, tripName, inviterName, inviteURL)
	return args.Error(0)
}

func (m *MockEmailService) SendMagicLink(to, signInURL string) error {
	args := m.Called(to, signInURL)
	return args.Error(0)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) AuthURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) Exchange(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}
