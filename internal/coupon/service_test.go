// AngelaMos | 2026
// service_test.go

package coupon

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
	admin = "admin@example.com"
	buyer = "buyer@example.com"
)

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func newService(t *testing.T) (*Service, *fixedClock) {
	t.Helper()
	ctx := context.Background()

	store := ledger.NewMemoryStore()
	err := store.InTx(ctx, func(tx ledger.Tx) error {
		if err := tx.CreateUser(ctx, &ledger.User{
			Email: admin, Role: ledger.RoleAdmin, Membership: ledger.MembershipFree,
		}); err != nil {
			return err
		}
		return tx.CreateUser(ctx, &ledger.User{
			Email: buyer, Role: ledger.RoleNone, Membership: ledger.MembershipFree,
		})
	})
	require.NoError(t, err)

	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewService(store).WithClock(clock.now), clock
}

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestClampDiscount(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, 0},
		{0, 0},
		{35, 35},
		{100, 100},
		{150, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampDiscount(tt.in), tt.in)
	}
}

func TestApplyDiscount(t *testing.T) {
	assert.InDelta(t, 10.0, ApplyDiscount(10, 0), 1e-9)
	assert.InDelta(t, 7.5, ApplyDiscount(10, 25), 1e-9)
	assert.InDelta(t, 0.0, ApplyDiscount(10, 100), 1e-9)
}

func TestEndOfDay(t *testing.T) {
	local := time.FixedZone("UTC+9", 9*60*60)
	got := EndOfDay(time.Date(2026, 3, 2, 3, 0, 0, 0, local))

	assert.Equal(t, time.Date(2026, 3, 1, 23, 59, 59, 999999999, time.UTC), got)
}

func TestCreate_ClampsAndNormalizes(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, admin, Input{
		Code:           " spring25 ",
		DiscountAmount: 150,
		ExpiryDate:     date("2026-03-10"),
		Description:    "  spring sale ",
	})
	require.NoError(t, err)
	assert.Equal(t, "SPRING25", c.Code)
	assert.Equal(t, 100, c.DiscountAmount)
	assert.Equal(t, "spring sale", c.Description)

	neg, err := svc.Create(ctx, admin, Input{
		Code:           "NEG",
		DiscountAmount: -5,
		ExpiryDate:     date("2026-03-10"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, neg.DiscountAmount)

	_, err = svc.Create(ctx, admin, Input{Code: "spring25", ExpiryDate: date("2026-04-01")})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestCreate_RequiresFields(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, Input{Code: "  ", ExpiryDate: date("2026-03-10")})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Create(ctx, admin, Input{Code: "X"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestAdminOnly(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	in := Input{Code: "X", DiscountAmount: 10, ExpiryDate: date("2026-03-10")}

	_, err := svc.Create(ctx, buyer, in)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Create(ctx, "", in)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	_, err = svc.List(ctx, buyer)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Create(ctx, admin, in)
	require.NoError(t, err)

	err = svc.Delete(ctx, buyer, "X")
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Update(ctx, buyer, "X", in)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestValidate_ExpiresAtEndOfDay(t *testing.T) {
	svc, clock := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, Input{
		Code:           "LAUNCH",
		DiscountAmount: 20,
		ExpiryDate:     date("2026-03-01"),
	})
	require.NoError(t, err)

	clock.t = time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)
	c, err := svc.Validate(ctx, "launch")
	require.NoError(t, err)
	assert.Equal(t, 20, c.DiscountAmount)

	clock.t = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err = svc.Validate(ctx, "LAUNCH")
	assert.ErrorIs(t, err, core.ErrCouponExpired)
}

func TestValidate_NotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Validate(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrCouponNotFound)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Validate(context.Background(), "   ")
	assert.ErrorIs(t, err, core.ErrCouponNotFound)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, Input{
		Code:           "SUMMER",
		DiscountAmount: 10,
		ExpiryDate:     date("2026-06-01"),
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, admin, "summer", Input{
		DiscountAmount: 40,
		ExpiryDate:     date("2026-07-01"),
		Description:    "extended",
	})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER", updated.Code)
	assert.Equal(t, 40, updated.DiscountAmount)

	list, err := svc.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "extended", list[0].Description)
	assert.Equal(t, date("2026-07-01"), list[0].ExpiryDate)

	require.NoError(t, svc.Delete(ctx, admin, "Summer"))

	err = svc.Delete(ctx, admin, "SUMMER")
	assert.ErrorIs(t, err, core.ErrCouponNotFound)

	_, err = svc.Update(ctx, admin, "SUMMER", Input{ExpiryDate: date("2026-07-01")})
	assert.ErrorIs(t, err, core.ErrCouponNotFound)
}

func TestCouponRequest_Input(t *testing.T) {
	in, err := CouponRequest{Code: "A", DiscountAmount: 5, ExpiryDate: "2026-12-31"}.Input()
	require.NoError(t, err)
	assert.Equal(t, date("2026-12-31"), in.ExpiryDate)

	_, err = CouponRequest{Code: "A", ExpiryDate: "31/12/2026"}.Input()
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
