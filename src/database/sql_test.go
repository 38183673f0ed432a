package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexymap/hexy/src/crypto"
	"github.com/hexymap/hexy/src/project_types"
)

func newTestStore(t *testing.T) (*Store, *sqlx.DB) {
	t.Helper()
	db, err := SqlInitialize("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, PrepSqlite(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	c, err := crypto.New(key)
	require.NoError(t, err)

	store := NewStore(db, c)
	store.now = func() time.Time { return time.Unix(1700000000, 0) }
	return store, db
}

func TestMigrateIsIdempotent(t *testing.T) {
	_, db := newTestStore(t)
	require.NoError(t, Migrate(context.Background(), db))

	var versions []int64
	require.NoError(t, db.Select(&versions, `SELECT version_id FROM goose_db_version WHERE version_id > 0`))
	assert.Equal(t, []int64{1}, versions)
}

func TestMigrate_UnknownDriver(t *testing.T) {
	_, db := newTestStore(t)
	other := sqlx.NewDb(db.DB, "mysql")

	err := Migrate(context.Background(), other)
	var dbErr *Error
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, "migrate", dbErr.Op)
}

func TestSaveGetUser(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	user := project_types.User{ID: 99, AccessToken: "access", RefreshToken: "refresh", ExpiresAt: 1711929600}
	require.NoError(t, store.SaveUser(ctx, user))

	got, err := store.GetUser(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.ID)
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "refresh", got.RefreshToken)
	assert.Equal(t, int64(1711929600), got.ExpiresAt)
	assert.Equal(t, int64(1700000000), got.UpdatedAt)

	var stored string
	require.NoError(t, db.Get(&stored, `SELECT refresh_token FROM users WHERE id = 99`))
	assert.NotEqual(t, "refresh", stored, "refresh token is encrypted at rest")
}

func TestSaveUserUpserts(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, project_types.User{ID: 1, AccessToken: "a1", RefreshToken: "r1", ExpiresAt: 1}))
	require.NoError(t, store.SaveUser(ctx, project_types.User{ID: 1, AccessToken: "a2", RefreshToken: "r2", ExpiresAt: 2}))

	got, err := store.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a2", got.AccessToken)
	assert.Equal(t, "r2", got.RefreshToken)
	assert.Equal(t, int64(2), got.ExpiresAt)

	var count int
	require.NoError(t, db.Get(&count, `SELECT count(*) FROM users`))
	assert.Equal(t, 1, count)
}

func TestGetUser_PlaintextFallback(t *testing.T) {
	store, db := newTestStore(t)
	_, err := db.Exec(`INSERT INTO users (id, access_token, refresh_token, expires_at) VALUES (5, 'a', 'legacy-plain', 10)`)
	require.NoError(t, err)

	got, err := store.GetUser(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "legacy-plain", got.RefreshToken)
}

func TestGetUser_NotFound(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.GetUser(context.Background(), 404)
	assert.True(t, errors.Is(err, ErrNotFound))

	var dbErr *Error
	assert.False(t, errors.As(err, &dbErr), "missing rows are not database failures")
}

func TestDeleteUser(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveUser(ctx, project_types.User{ID: 3, AccessToken: "a", RefreshToken: "r", ExpiresAt: 1}))
	require.NoError(t, store.DeleteUser(ctx, 3))

	_, err := store.GetUser(ctx, 3)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClosedDatabaseIsDatabaseError(t *testing.T) {
	store, db := newTestStore(t)
	db.Close()

	_, err := store.GetUser(context.Background(), 1)
	var dbErr *Error
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, "get_user", dbErr.Op)
}
