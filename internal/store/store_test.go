package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRegisterAndLogin(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user, err := db.Register(ctx, "amy", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "amy", user.Username)
	assert.NotZero(t, user.ID)

	session, err := db.Login(ctx, "amy", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(user.CreatedAt))

	resolved, err := db.UserForToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Register(ctx, "amy", "one")
	require.NoError(t, err)
	_, err = db.Register(ctx, "amy", "two")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Register(ctx, "amy", "s3cret")
	require.NoError(t, err)

	_, err = db.Login(ctx, "amy", "wrong")
	assert.ErrorIs(t, err, ErrInvalidLogin)
	_, err = db.Login(ctx, "ghost", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestUserForTokenUnknown(t *testing.T) {
	db := openTestDB(t)
	_, err := db.UserForToken(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestTransactions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user, err := db.Register(ctx, "amy", "s3cret")
	require.NoError(t, err)

	first, err := db.RecordTransaction(ctx, user.ID, "espresso", 350)
	require.NoError(t, err)
	second, err := db.RecordTransaction(ctx, user.ID, "croissant", 420)
	require.NoError(t, err)

	list, err := db.TransactionsForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Newest first.
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, int64(420), list[0].AmountCents)
}

func TestTransactionsEmpty(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user, err := db.Register(ctx, "amy", "s3cret")
	require.NoError(t, err)

	list, err := db.TransactionsForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
