// AngelaMos | 2026
// service_test.go

package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

const (
	owner     = "owner@example.com"
	reporter  = "reporter@example.com"
	moderator = "mod@example.com"
)

func setup(t *testing.T) (*Service, *ledger.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := ledger.NewMemoryStore().WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})

	err := store.InTx(ctx, func(tx ledger.Tx) error {
		for email, role := range map[string]ledger.Role{
			owner:     ledger.RoleNone,
			reporter:  ledger.RoleNone,
			moderator: ledger.RoleModerator,
		} {
			if err := tx.CreateUser(ctx, &ledger.User{
				Email:      email,
				Role:       role,
				Membership: ledger.MembershipFree,
			}); err != nil {
				return err
			}
		}
		return tx.CreateProduct(ctx, &ledger.Product{
			ID:         "p1",
			Name:       "Spam Cannon",
			OwnerEmail: owner,
			Status:     ledger.StatusAccepted,
		})
	})
	require.NoError(t, err)

	return NewService(store), store
}

func TestFileReport(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	report, err := svc.FileReport(ctx, reporter, "p1", "  spam  ")
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "spam", report.Reason)
	assert.Equal(t, "Spam Cannon", report.ProductName)
	assert.Equal(t, owner, report.OwnerEmail)

	_, err = svc.FileReport(ctx, reporter, "p1", "spam again")
	require.NoError(t, err)

	count, err := svc.ReportCount(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestFileReport_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	tests := []struct {
		name      string
		reporter  string
		productID string
		reason    string
		wantErr   error
	}{
		{"blank reason", reporter, "p1", "   ", core.ErrInvalidInput},
		{"missing product", reporter, "nope", "spam", core.ErrNotFound},
		{"anonymous", "", "p1", "spam", core.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.FileReport(ctx, tt.reporter, tt.productID, tt.reason)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	count, err := svc.ReportCount(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListReportsFor_RequiresModerator(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	_, err := svc.FileReport(ctx, reporter, "p1", "spam")
	require.NoError(t, err)

	_, err = svc.ListReportsFor(ctx, reporter, "p1")
	assert.ErrorIs(t, err, core.ErrForbidden)

	reports, err := svc.ListReportsFor(ctx, moderator, "p1")
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestReportsSurviveProductDeletion(t *testing.T) {
	ctx := context.Background()
	svc, store := setup(t)

	for _, reason := range []string{"first", "second"} {
		_, err := svc.FileReport(ctx, reporter, "p1", reason)
		require.NoError(t, err)
	}

	err := store.InTx(ctx, func(tx ledger.Tx) error {
		return tx.DeleteProduct(ctx, "p1")
	})
	require.NoError(t, err)

	reports, err := svc.ListReportsFor(ctx, moderator, "p1")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "second", reports[0].Reason)

	reported, err := svc.ListReportedProducts(ctx, moderator, "")
	require.NoError(t, err)
	require.Len(t, reported, 1)
	assert.Equal(t, 2, reported[0].ReportCount)
	assert.False(t, reported[0].ProductExists)
	assert.Equal(t, "Spam Cannon", reported[0].ProductName)

	_, err = svc.FileReport(ctx, reporter, "p1", "too late")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
