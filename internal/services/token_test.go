package services

import (
	"context"
	"testing"
	"time"

	"github.com/dkovac/tripmates-api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTokenService(t *testing.T) (*TokenService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewTokenService(db), mock
}

func TestTokenService_StoreAndValidateRefreshToken(t *testing.T) {
	svc, mock := setupTokenService(t)
	ctx := context.Background()
	userID := uuid.New()
	hash := HashToken("refresh-token")
	expiresAt := time.Now().Add(24 * time.Hour)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(userID, hash, expiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := svc.StoreRefreshToken(ctx, userID, hash, expiresAt)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT user_id FROM refresh_tokens`).
		WithArgs(hash).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(userID))

	gotID, err := svc.ValidateRefreshToken(ctx, hash)

	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_ValidateRefreshToken_Expired(t *testing.T) {
	svc, mock := setupTokenService(t)
	ctx := context.Background()
	hash := HashToken("stale")

	mock.ExpectQuery(`SELECT user_id FROM refresh_tokens`).
		WithArgs(hash).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.ValidateRefreshToken(ctx, hash)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_RevokeRefreshToken(t *testing.T) {
	svc, mock := setupTokenService(t)
	ctx := context.Background()
	hash := HashToken("refresh-token")

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token_hash`).
		WithArgs(hash).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := svc.RevokeRefreshToken(ctx, hash)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_RevokeAllUserTokens(t *testing.T) {
	svc, mock := setupTokenService(t)
	ctx := context.Background()
	userID := uuid.New()

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE user_id`).
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	err := svc.RevokeAllUserTokens(ctx, userID)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_ConsumeSignInToken(t *testing.T) {
	svc, mock := setupTokenService(t)
	ctx := context.Background()
	hash := HashToken("magic-link")

	mock.ExpectQuery(`DELETE FROM signin_tokens`).
		WithArgs(hash).
		WillReturnRows(pgxmock.NewRows([]string{"email", "name"}).AddRow("ana@example.com", "Ana"))

	email, name, err := svc.ConsumeSignInToken(ctx, hash)

	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", email)
	assert.Equal(t, "Ana", name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_ConsumeSignInToken_UsedOrExpired(t *testing.T) {
	svc, mock := setupTokenService(t)
	ctx := context.Background()
	hash := HashToken("already-used")

	mock.ExpectQuery(`DELETE FROM signin_tokens`).
		WithArgs(hash).
		WillReturnError(pgx.ErrNoRows)

	_, _, err := svc.ConsumeSignInToken(ctx, hash)

	assert.ErrorIs(t, err, ErrSignInTokenInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenService_CleanupExpired(t *testing.T) {
	svc, mock := setupTokenService(t)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectExec(`DELETE FROM signin_tokens WHERE expires_at`).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := svc.CleanupExpired(ctx)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
