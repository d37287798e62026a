// AngelaMos | 2026
// service.go

package coupon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

const DateLayout = "2006-01-02"

type Input struct {
	Code           string
	DiscountAmount int
	ExpiryDate     time.Time
	Description    string
}

type Service struct {
	store ledger.Store
	now   func() time.Time
}

func NewService(store ledger.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock replaces the time source used for expiry checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ClampDiscount bounds a percentage to [0, 100]. It is applied when a coupon
// is written, never when it is read.
func ClampDiscount(d int) int {
	return min(max(d, 0), 100)
}

func ApplyDiscount(base float64, discount int) float64 {
	return base * (1 - float64(discount)/100)
}

// ExpiryDate truncates t to its calendar date in UTC.
func ExpiryDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay is the last instant at which a coupon expiring on date is valid.
func EndOfDay(date time.Time) time.Time {
	return ExpiryDate(date).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func IsExpired(c *ledger.Coupon, now time.Time) bool {
	return now.After(EndOfDay(c.ExpiryDate))
}

// Validate looks up a code case-insensitively and rejects expired coupons.
func (s *Service) Validate(ctx context.Context, code string) (*ledger.Coupon, error) {
	code = ledger.NormalizeCouponCode(code)
	if code == "" {
		return nil, fmt.Errorf("validate coupon: %w", core.ErrCouponNotFound)
	}

	var coupon *ledger.Coupon
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		coupon, err = tx.GetCoupon(ctx, code)
		return err
	})
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("validate coupon %s: %w", code, core.ErrCouponNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("validate coupon: %w", err)
	}

	if IsExpired(coupon, s.now()) {
		return nil, fmt.Errorf("validate coupon %s: %w", code, core.ErrCouponExpired)
	}

	return coupon, nil
}

func (s *Service) Create(
	ctx context.Context,
	actorEmail string,
	in Input,
) (*ledger.Coupon, error) {
	coupon, err := toCoupon(in)
	if err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	err = s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := ledger.RequireAdmin(ctx, tx, actorEmail); err != nil {
			return err
		}
		return tx.CreateCoupon(ctx, coupon)
	})
	if err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	slog.Info("coupon created",
		"code", coupon.Code,
		"discount", coupon.DiscountAmount,
		"expires", coupon.ExpiryDate.Format(DateLayout),
	)

	return coupon, nil
}

func (s *Service) Update(
	ctx context.Context,
	actorEmail, code string,
	in Input,
) (*ledger.Coupon, error) {
	in.Code = code
	coupon, err := toCoupon(in)
	if err != nil {
		return nil, fmt.Errorf("update coupon: %w", err)
	}

	err = s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := ledger.RequireAdmin(ctx, tx, actorEmail); err != nil {
			return err
		}
		return tx.UpdateCoupon(ctx, coupon)
	})
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("update coupon %s: %w", coupon.Code, core.ErrCouponNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update coupon: %w", err)
	}

	return coupon, nil
}

func (s *Service) Delete(ctx context.Context, actorEmail, code string) error {
	code = ledger.NormalizeCouponCode(code)

	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := ledger.RequireAdmin(ctx, tx, actorEmail); err != nil {
			return err
		}
		return tx.DeleteCoupon(ctx, code)
	})
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("delete coupon %s: %w", code, core.ErrCouponNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}

	slog.Info("coupon deleted", "code", code)
	return nil
}

func (s *Service) List(ctx context.Context, actorEmail string) ([]ledger.Coupon, error) {
	var coupons []ledger.Coupon
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		if _, err := ledger.RequireAdmin(ctx, tx, actorEmail); err != nil {
			return err
		}
		var err error
		coupons, err = tx.ListCoupons(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}

	return coupons, nil
}

func toCoupon(in Input) (*ledger.Coupon, error) {
	code := ledger.NormalizeCouponCode(in.Code)
	if code == "" {
		return nil, fmt.Errorf("coupon code is required: %w", core.ErrInvalidInput)
	}
	if in.ExpiryDate.IsZero() {
		return nil, fmt.Errorf("expiry date is required: %w", core.ErrInvalidInput)
	}

	return &ledger.Coupon{
		Code:           code,
		DiscountAmount: ClampDiscount(in.DiscountAmount),
		ExpiryDate:     ExpiryDate(in.ExpiryDate),
		Description:    strings.TrimSpace(in.Description),
	}, nil
}
