// AngelaMos | 2026
// service.go

package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/coupon"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

const (
	metaEmail  = "email"
	metaCoupon = "coupon"
)

type Config struct {
	Currency           string
	SubscriptionAmount float64
}

type CheckoutResult struct {
	IntentID       string
	ClientSecret   string
	Status         IntentStatus
	AmountCents    int64
	Currency       string
	DiscountAmount int
	CouponCode     string
}

type Service struct {
	store     ledger.Store
	processor PaymentProcessor
	coupons   *coupon.Service
	cfg       Config
	now       func() time.Time
}

func NewService(
	store ledger.Store,
	processor PaymentProcessor,
	coupons *coupon.Service,
	cfg Config,
) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &Service{
		store:     store,
		processor: processor,
		coupons:   coupons,
		cfg:       cfg,
		now:       time.Now,
	}
}

// AmountCents applies a percentage discount to a price and rounds to the
// nearest cent.
func AmountCents(price float64, discount int) int64 {
	return int64(math.Round(coupon.ApplyDiscount(price, discount) * 100))
}

func (s *Service) loadUser(ctx context.Context, email string) (*ledger.User, error) {
	email = ledger.NormalizeEmail(email)
	if email == "" {
		return nil, core.ErrUnauthorized
	}

	var user *ledger.User
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		user, err = tx.GetUser(ctx, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Checkout prices the membership, optionally discounted by a coupon, and
// opens a payment intent for the client to confirm. A fully discounted
// checkout activates the membership immediately.
func (s *Service) Checkout(
	ctx context.Context,
	email, couponCode string,
) (*CheckoutResult, error) {
	user, err := s.loadUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if user.IsPremium() {
		return nil, fmt.Errorf("checkout: membership already active: %w", core.ErrDuplicateKey)
	}

	result := &CheckoutResult{Currency: s.cfg.Currency}

	if strings.TrimSpace(couponCode) != "" {
		c, err := s.coupons.Validate(ctx, couponCode)
		if err != nil {
			return nil, fmt.Errorf("checkout: %w", err)
		}
		result.DiscountAmount = c.DiscountAmount
		result.CouponCode = c.Code
	}

	result.AmountCents = AmountCents(s.cfg.SubscriptionAmount, result.DiscountAmount)

	if result.AmountCents == 0 {
		result.IntentID = "free_" + uuid.NewString()
		result.Status = IntentSucceeded
		if err := s.activate(ctx, user.Email, result.IntentID, 0, result.CouponCode); err != nil {
			return nil, fmt.Errorf("checkout: %w", err)
		}
		return result, nil
	}

	key, err := core.GenerateIdempotencyKey()
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	metadata := map[string]string{metaEmail: user.Email}
	if result.CouponCode != "" {
		metadata[metaCoupon] = result.CouponCode
	}

	intent, err := s.processor.CreateIntent(ctx, result.AmountCents, s.cfg.Currency, metadata, key)
	if err != nil {
		return nil, fmt.Errorf("checkout: create intent: %w", err)
	}

	result.IntentID = intent.ID
	result.ClientSecret = intent.ClientSecret
	result.Status = intent.Status

	slog.Info("checkout started",
		"email", user.Email,
		"intent_id", intent.ID,
		"amount_cents", result.AmountCents,
		"coupon", result.CouponCode,
	)

	return result, nil
}

// Confirm activates the membership once the processor reports the intent
// as succeeded. Confirming again after activation is a no-op.
func (s *Service) Confirm(ctx context.Context, email, intentID string) (*ledger.User, error) {
	user, err := s.loadUser(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	if user.IsPremium() {
		return user, nil
	}

	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return nil, fmt.Errorf("confirm payment: intent id required: %w", core.ErrInvalidInput)
	}

	intent, err := s.processor.GetIntent(ctx, intentID)
	if err != nil {
		var perr *ProcessorError
		if errors.As(err, &perr) && perr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("confirm payment: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	if intent.Metadata[metaEmail] != user.Email {
		return nil, fmt.Errorf("confirm payment: intent not opened for this user: %w", core.ErrForbidden)
	}

	if intent.Status != IntentSucceeded {
		slog.Warn("payment not completed",
			"email", user.Email,
			"intent_id", intent.ID,
			"status", intent.Status,
		)
		return nil, fmt.Errorf("confirm payment: intent %s is %s: %w",
			intent.ID, intent.Status, core.ErrPaymentFailed)
	}

	want, err := s.expectedCents(ctx, intent.Metadata[metaCoupon])
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	if intent.AmountCents < want || !strings.EqualFold(intent.Currency, s.cfg.Currency) {
		slog.Warn("payment does not cover membership",
			"email", user.Email,
			"intent_id", intent.ID,
			"amount_cents", intent.AmountCents,
			"currency", intent.Currency,
			"want_cents", want,
		)
		return nil, fmt.Errorf("confirm payment: intent %s pays %d %s: %w",
			intent.ID, intent.AmountCents, intent.Currency, core.ErrPaymentFailed)
	}

	if err := s.activate(ctx, user.Email, intent.ID, intent.AmountCents, intent.Metadata[metaCoupon]); err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}

	return s.loadUser(ctx, user.Email)
}

// expectedCents is the price an intent must cover. The coupon named in the
// intent was validated at checkout, so its expiry is not checked again; a
// coupon deleted since then no longer discounts.
func (s *Service) expectedCents(ctx context.Context, couponCode string) (int64, error) {
	discount := 0
	if code := ledger.NormalizeCouponCode(couponCode); code != "" {
		err := s.store.View(ctx, func(tx ledger.Tx) error {
			c, err := tx.GetCoupon(ctx, code)
			if err != nil {
				return err
			}
			discount = c.DiscountAmount
			return nil
		})
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return 0, err
		}
	}
	return AmountCents(s.cfg.SubscriptionAmount, discount), nil
}

func (s *Service) activate(
	ctx context.Context,
	email, intentID string,
	amountCents int64,
	couponCode string,
) error {
	sub := ledger.Subscription{
		ID:          intentID,
		AmountCents: amountCents,
		CouponCode:  couponCode,
		StartedAt:   s.now().UTC(),
	}

	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		return tx.ActivateMembership(ctx, email, sub)
	})
	if err != nil {
		return fmt.Errorf("activate membership: %w", err)
	}

	core.AddSpanEvent(ctx, "membership.activated",
		attribute.String("email", email),
		attribute.String("intent_id", intentID),
	)
	slog.Info("membership activated",
		"email", email,
		"intent_id", intentID,
		"amount_cents", amountCents,
		"coupon", couponCode,
	)

	return nil
}
