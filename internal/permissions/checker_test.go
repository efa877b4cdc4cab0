package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/apartment/internal/database/testutil"
	"github.com/charlesng35/apartment/internal/models"
)

func TestCheckerResolvesRole(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	role := models.RoleApartmentManager
	user := models.User{Username: "lan", Email: "lan@example.com", FullName: "Tran Lan", RoleID: &role}
	require.NoError(t, db.Create(&user).Error)

	checker, err := NewChecker(db)
	require.NoError(t, err)

	identity, err := checker.Resolve(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, identity.UserID)
	require.Equal(t, "Tran Lan", identity.FullName)
	require.Equal(t, models.RoleApartmentManager, identity.Role)

	require.True(t, identity.HasRole(models.RoleApartmentManager))
	require.False(t, identity.HasRole(models.RoleResident, models.RoleAdmin))
}

func TestCheckerUserWithoutRole(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	user := models.User{Username: "guest", Email: "guest@example.com"}
	require.NoError(t, db.Create(&user).Error)

	checker, err := NewChecker(db)
	require.NoError(t, err)

	identity, err := checker.Resolve(context.Background(), user.ID)
	require.NoError(t, err)
	require.Empty(t, identity.Role)
	require.False(t, identity.HasRole(models.RoleResident))
}

func TestCheckerUnknownAndInactiveUsers(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	checker, err := NewChecker(db)
	require.NoError(t, err)

	_, err = checker.Resolve(context.Background(), "missing")
	require.ErrorIs(t, err, ErrUnknownUser)

	role := models.RoleResident
	user := models.User{Username: "moved-out", Email: "moved@example.com", RoleID: &role}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Model(&user).Update("is_active", false).Error)

	_, err = checker.Resolve(context.Background(), user.ID)
	require.ErrorIs(t, err, ErrInactiveUser)

	_, err = checker.Resolve(context.Background(), "  ")
	require.Error(t, err)
}

func TestNewCheckerRequiresDB(t *testing.T) {
	_, err := NewChecker(nil)
	require.Error(t, err)
}
