package seeders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/repositories"
	_ "github.com/shashiranjanraj/meetup/database/migrations"
	"github.com/shashiranjanraj/meetup/pkg/testkit"
)

func TestAdminSeederIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewGormStore(testkit.SQLite(t))

	require.NoError(t, Admin(ctx, store, "Root@Example.com", "secret1"))
	require.NoError(t, Admin(ctx, store, "root@example.com", "secret1"))

	u, err := store.Users().FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.True(t, u.HasRole(models.RoleAdmin))
	assert.True(t, u.HasRole(models.RoleUser))
	assert.Len(t, u.Memberships, 2)
}

func TestAdminSeederPromotesExistingUser(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewGormStore(testkit.SQLite(t))

	u := models.NewUser("ops@example.com", "ops", models.MethodLocal)
	require.NoError(t, store.Users().Create(ctx, u))

	require.NoError(t, Admin(ctx, store, "ops@example.com", "ignored"))

	got, err := store.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.HasRole(models.RoleAdmin))
	assert.Equal(t, "ops", got.DisplayName)
}

func TestAdminSeederSkipsWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewGormStore(testkit.SQLite(t))

	require.NoError(t, Admin(ctx, store, "", ""))

	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
