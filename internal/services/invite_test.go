package services

import (
	"context"
	"testing"
	"time"

	"github.com/dkovac/tripmates-api/internal/database"
	"github.com/dkovac/tripmates-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupInviteService(t *testing.T) (*InviteService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewInviteService(db), mock
}

func inviteColumns() []string {
	return []string{
		"id", "trip_id", "inviter_email", "inviter_name", "invitee_email",
		"role", "token", "status", "message", "created_at", "expires_at", "updated_at",
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestInviteService_Create(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()
	tripID := uuid.New()
	inviteID := uuid.New()
	now := time.Now()
	expires := now.Add(models.InviteTTL)

	mock.ExpectQuery(`SELECT role FROM trip_members WHERE trip_id`).
		WithArgs(tripID, "ana@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(models.RoleOwner))

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM trip_members`).
		WithArgs(tripID, "marko@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	rows := pgxmock.NewRows(inviteColumns()).
		AddRow(inviteID, tripID, "ana@example.com", "Ana", "marko@example.com",
			models.RoleCollaborator, "deadbeef", models.InviteStatusPending, (*string)(nil), now, expires, now)
	mock.ExpectQuery(`INSERT INTO trip_invites`).
		WithArgs(tripID, "ana@example.com", "Ana", "marko@example.com",
			models.RoleCollaborator, pgxmock.AnyArg(), models.InviteStatusPending,
			(*string)(nil), models.InviteTTL.String()).
		WillReturnRows(rows)

	invite, err := svc.Create(ctx, tripID, "ana@example.com", "Ana", "marko@example.com", models.RoleCollaborator, nil)

	require.NoError(t, err)
	assert.Equal(t, inviteID, invite.ID)
	assert.Equal(t, "marko@example.com", invite.InviteeEmail)
	assert.Equal(t, models.InviteStatusPending, invite.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_Create_OwnerRoleRejected(t *testing.T) {
	svc, _ := setupInviteService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), "ana@example.com", "Ana", "marko@example.com", models.RoleOwner, nil)

	assert.ErrorIs(t, err, ErrInvalidInviteRole)
}

func TestInviteService_Create_ViewerCannotInvite(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()
	tripID := uuid.New()

	mock.ExpectQuery(`SELECT role FROM trip_members WHERE trip_id`).
		WithArgs(tripID, "viewer@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(models.RoleViewer))

	_, err := svc.Create(ctx, tripID, "viewer@example.com", "Viewer", "marko@example.com", models.RoleViewer, nil)

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_Create_AlreadyMember(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()
	tripID := uuid.New()

	mock.ExpectQuery(`SELECT role FROM trip_members WHERE trip_id`).
		WithArgs(tripID, "ana@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(models.RoleOwner))

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM trip_members`).
		WithArgs(tripID, "marko@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Create(ctx, tripID, "ana@example.com", "Ana", "marko@example.com", models.RoleCollaborator, nil)

	assert.ErrorIs(t, err, ErrAlreadyMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_GetByToken(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()
	tripID := uuid.New()
	inviteID := uuid.New()
	now := time.Now()
	expires := now.Add(models.InviteTTL)

	cols := append(inviteColumns(),
		"t.id", "t.name", "t.destination", "t.start_date", "t.end_date", "t.owner_email", "t.owner_name")
	rows := pgxmock.NewRows(cols).
		AddRow(inviteID, tripID, "ana@example.com", "Ana", "marko@example.com",
			models.RoleCollaborator, "deadbeef", models.InviteStatusPending, (*string)(nil), now, expires, now,
			tripID, "Lisbon 2026", "Lisbon", (*time.Time)(nil), (*time.Time)(nil), "ana@example.com", "Ana")

	mock.ExpectQuery(`SELECT .+ FROM trip_invites i\s+JOIN trips t`).
		WithArgs("deadbeef").
		WillReturnRows(rows)

	invite, err := svc.GetByToken(ctx, "deadbeef")

	require.NoError(t, err)
	assert.Equal(t, inviteID, invite.ID)
	require.NotNil(t, invite.Trip)
	assert.Equal(t, "Lisbon 2026", invite.Trip.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_GetByToken_NotFound(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .+ FROM trip_invites i\s+JOIN trips t`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByToken(ctx, "missing")

	assert.ErrorIs(t, err, ErrInviteNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_Accept(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()
	tripID := uuid.New()
	inviteID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()

	mock.ExpectQuery(`SELECT id, trip_id, invitee_email, role, status, expires_at\s+FROM trip_invites WHERE token = \$1 FOR UPDATE`).
		WithArgs("deadbeef").
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "invitee_email", "role", "status", "expires_at"}).
			AddRow(inviteID, tripID, "marko@example.com", models.RoleCollaborator,
				models.InviteStatusPending, now.Add(time.Hour)))

	mock.ExpectExec(`UPDATE trip_invites SET status`).
		WithArgs(models.InviteStatusAccepted, inviteID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	mock.ExpectExec(`INSERT INTO trip_members`).
		WithArgs(tripID, "marko@example.com", "Marko", models.RoleCollaborator).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tripRows := pgxmock.NewRows(tripColumns()).
		AddRow(tripID, "Lisbon 2026", "Lisbon", (*time.Time)(nil), (*time.Time)(nil),
			"ana@example.com", "Ana", true, []byte(`{}`), 4, now, "marko@example.com", now)
	mock.ExpectQuery(`UPDATE trips`).
		WithArgs("marko@example.com", tripID).
		WillReturnRows(tripRows)

	mock.ExpectCommit()

	trip, err := svc.Accept(ctx, "deadbeef", "Marko@Example.com", "Marko")

	require.NoError(t, err)
	assert.Equal(t, tripID, trip.ID)
	assert.True(t, trip.IsShared)
	assert.Equal(t, 4, trip.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_Accept_AlreadyProcessed(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()
	tripID := uuid.New()
	inviteID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trip_invites WHERE token = \$1 FOR UPDATE`).
		WithArgs("deadbeef").
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "invitee_email", "role", "status", "expires_at"}).
			AddRow(inviteID, tripID, "marko@example.com", models.RoleCollaborator,
				models.InviteStatusDeclined, time.Now().Add(time.Hour)))
	mock.ExpectRollback()

	_, err := svc.Accept(ctx, "deadbeef", "marko@example.com", "Marko")

	assert.ErrorIs(t, err, ErrInviteAlreadyProcessed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_Accept_Expired(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()
	tripID := uuid.New()
	inviteID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trip_invites WHERE token = \$1 FOR UPDATE`).
		WithArgs("deadbeef").
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "invitee_email", "role", "status", "expires_at"}).
			AddRow(inviteID, tripID, "marko@example.com", models.RoleCollaborator,
				models.InviteStatusPending, time.Now().Add(-time.Hour)))

	// The expiry flip must land even though the accept fails.
	mock.ExpectExec(`UPDATE trip_invites SET status`).
		WithArgs(models.InviteStatusExpired, inviteID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	_, err := svc.Accept(ctx, "deadbeef", "marko@example.com", "Marko")

	assert.ErrorIs(t, err, ErrInviteExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_Accept_EmailMismatch(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()
	tripID := uuid.New()
	inviteID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trip_invites WHERE token = \$1 FOR UPDATE`).
		WithArgs("deadbeef").
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "invitee_email", "role", "status", "expires_at"}).
			AddRow(inviteID, tripID, "marko@example.com", models.RoleCollaborator,
				models.InviteStatusPending, time.Now().Add(time.Hour)))
	mock.ExpectRollback()

	_, err := svc.Accept(ctx, "deadbeef", "petar@example.com", "Petar")

	assert.ErrorIs(t, err, ErrEmailMismatch)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_Decline(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()
	tripID := uuid.New()
	inviteID := uuid.New()
	now := time.Now()

	cols := append(inviteColumns(),
		"t.id", "t.name", "t.destination", "t.start_date", "t.end_date", "t.owner_email", "t.owner_name")
	mock.ExpectQuery(`SELECT .+ FROM trip_invites i\s+JOIN trips t`).
		WithArgs("deadbeef").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(inviteID, tripID, "ana@example.com", "Ana", "marko@example.com",
				models.RoleCollaborator, "deadbeef", models.InviteStatusPending, (*string)(nil),
				now, now.Add(time.Hour), now,
				tripID, "Lisbon 2026", "Lisbon", (*time.Time)(nil), (*time.Time)(nil), "ana@example.com", "Ana"))

	mock.ExpectExec(`UPDATE trip_invites SET status`).
		WithArgs(models.InviteStatusDeclined, inviteID, models.InviteStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := svc.Decline(ctx, "deadbeef")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_Decline_RacedToTerminal(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()
	tripID := uuid.New()
	inviteID := uuid.New()
	now := time.Now()

	cols := append(inviteColumns(),
		"t.id", "t.name", "t.destination", "t.start_date", "t.end_date", "t.owner_email", "t.owner_name")
	mock.ExpectQuery(`SELECT .+ FROM trip_invites i\s+JOIN trips t`).
		WithArgs("deadbeef").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(inviteID, tripID, "ana@example.com", "Ana", "marko@example.com",
				models.RoleCollaborator, "deadbeef", models.InviteStatusPending, (*string)(nil),
				now, now.Add(time.Hour), now,
				tripID, "Lisbon 2026", "Lisbon", (*time.Time)(nil), (*time.Time)(nil), "ana@example.com", "Ana"))

	// Another request accepted the invite between the read and the write.
	mock.ExpectExec(`UPDATE trip_invites SET status`).
		WithArgs(models.InviteStatusDeclined, inviteID, models.InviteStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := svc.Decline(ctx, "deadbeef")

	assert.ErrorIs(t, err, ErrInviteAlreadyProcessed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_Cancel(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()
	tripID := uuid.New()
	inviteID := uuid.New()

	mock.ExpectQuery(`SELECT owner_email FROM trips WHERE id`).
		WithArgs(tripID).
		WillReturnRows(pgxmock.NewRows([]string{"owner_email"}).AddRow("ana@example.com"))

	mock.ExpectExec(`UPDATE trip_invites SET status`).
		WithArgs(models.InviteStatusExpired, inviteID, tripID, models.InviteStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := svc.Cancel(ctx, inviteID, tripID, "ana@example.com")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_Cancel_NotOwner(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()
	tripID := uuid.New()

	mock.ExpectQuery(`SELECT owner_email FROM trips WHERE id`).
		WithArgs(tripID).
		WillReturnRows(pgxmock.NewRows([]string{"owner_email"}).AddRow("ana@example.com"))

	err := svc.Cancel(ctx, uuid.New(), tripID, "marko@example.com")

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_PendingForTrip(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()
	tripID := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows(inviteColumns()).
		AddRow(uuid.New(), tripID, "ana@example.com", "Ana", "marko@example.com",
			models.RoleCollaborator, "tok1", models.InviteStatusPending, (*string)(nil), now, now.Add(time.Hour), now).
		AddRow(uuid.New(), tripID, "ana@example.com", "Ana", "petar@example.com",
			models.RoleViewer, "tok2", models.InviteStatusPending, (*string)(nil), now, now.Add(time.Hour), now)

	mock.ExpectQuery(`SELECT .+ FROM trip_invites\s+WHERE trip_id = \$1 AND status = \$2`).
		WithArgs(tripID, models.InviteStatusPending).
		WillReturnRows(rows)

	invites, err := svc.PendingForTrip(ctx, tripID)

	require.NoError(t, err)
	assert.Len(t, invites, 2)
	assert.Equal(t, models.RoleViewer, invites[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInviteService_ExpireStale(t *testing.T) {
	svc, mock := setupInviteService(t)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE trip_invites SET status`).
		WithArgs(models.InviteStatusExpired, models.InviteStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	err := svc.ExpireStale(ctx)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
