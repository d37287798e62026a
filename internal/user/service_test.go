// AngelaMos | 2026
// service_test.go

package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

const (
	admin     = "admin@example.com"
	admin2    = "second-admin@example.com"
	moderator = "mod@example.com"
	plain     = "plain@example.com"
)

func newService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()

	store := ledger.NewMemoryStore()
	err := store.InTx(ctx, func(tx ledger.Tx) error {
		for _, u := range []ledger.User{
			{Email: admin, Role: ledger.RoleAdmin, Membership: ledger.MembershipFree},
			{Email: admin2, Role: ledger.RoleAdmin, Membership: ledger.MembershipFree},
			{Email: moderator, Role: ledger.RoleModerator, Membership: ledger.MembershipFree},
			{Email: plain, Role: ledger.RoleNone, Membership: ledger.MembershipFree},
		} {
			if err := tx.CreateUser(ctx, &u); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	return NewService(store)
}

func TestNextRole(t *testing.T) {
	assert.Equal(t, ledger.RoleModerator, NextRole(ledger.RoleNone, ledger.RoleModerator))
	assert.Equal(t, ledger.RoleNone, NextRole(ledger.RoleModerator, ledger.RoleModerator))
	assert.Equal(t, ledger.RoleAdmin, NextRole(ledger.RoleModerator, ledger.RoleAdmin))
	assert.Equal(t, ledger.RoleNone, NextRole(ledger.RoleAdmin, ledger.RoleAdmin))
}

func TestChangeRole(t *testing.T) {
	tests := []struct {
		name      string
		actor     string
		target    string
		requested string
		want      ledger.Role
		wantErr   error
	}{
		{"grant moderator", admin, plain, "moderator", ledger.RoleModerator, nil},
		{"revoke moderator by re-request", admin, moderator, "moderator", ledger.RoleNone, nil},
		{"promote moderator to admin", admin, moderator, "admin", ledger.RoleAdmin, nil},
		{"revoke other admin", admin, admin2, "admin", ledger.RoleNone, nil},
		{"moderator grant never touches admins", admin, admin2, "moderator", "", core.ErrForbidden},
		{"self demotion by re-request", admin, admin, "admin", "", core.ErrSelfDemotionForbidden},
		{"self demotion to moderator", admin, admin, "moderator", "", core.ErrSelfDemotionForbidden},
		{"non-admin actor", moderator, plain, "moderator", "", core.ErrForbidden},
		{"unknown actor", "ghost@example.com", plain, "moderator", "", core.ErrForbidden},
		{"anonymous actor", "", plain, "moderator", "", core.ErrUnauthorized},
		{"missing target", admin, "ghost@example.com", "moderator", "", core.ErrNotFound},
		{"invalid role", admin, plain, "owner", "", core.ErrInvalidInput},
		{"none is not grantable", admin, plain, "none", "", core.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t)

			got, err := svc.ChangeRole(context.Background(), tt.actor, tt.target, tt.requested)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Role)

			reread, err := svc.GetByEmail(context.Background(), tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, reread.Role)
		})
	}
}

func TestChangeRole_RevokedAdminLosesPower(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.ChangeRole(ctx, admin, admin2, "admin")
	require.NoError(t, err)

	_, err = svc.ChangeRole(ctx, admin2, plain, "moderator")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestEnsureUser(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.EnsureUser(ctx, " New@Example.com ", "New Person", "https://img/1.png")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, ledger.RoleNone, u.Role)
	assert.Equal(t, ledger.MembershipFree, u.Membership)

	u, err = svc.EnsureUser(ctx, "new@example.com", "Renamed", "https://img/2.png")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", u.DisplayName)

	m, err := svc.EnsureUser(ctx, moderator, "Mod", "")
	require.NoError(t, err)
	assert.Equal(t, ledger.RoleModerator, m.Role)

	_, err = svc.EnsureUser(ctx, "  ", "", "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestUpdateMe(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	name := "  Plain Jane "
	u, err := svc.UpdateMe(ctx, plain, UpdateMeRequest{DisplayName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Plain Jane", u.DisplayName)

	_, err = svc.UpdateMe(ctx, "", UpdateMeRequest{})
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = svc.GetMe(ctx, "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestListUsers(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	users, total, err := svc.ListUsers(ctx, admin, ListUsersParams{Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, users, 2)

	_, total, err = svc.ListUsers(ctx, admin, ListUsersParams{Search: "MOD"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, _, err = svc.ListUsers(ctx, admin, ListUsersParams{Role: "owner"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, _, err = svc.ListUsers(ctx, moderator, ListUsersParams{})
	assert.ErrorIs(t, err, core.ErrForbidden)
}
