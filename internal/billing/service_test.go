// AngelaMos | 2026
// service_test.go

package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/coupon"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

const (
	buyer     = "buyer@example.com"
	other     = "other@example.com"
	admin     = "admin@example.com"
	secretKey = "sk_test_123"
)

type fakeProcessor struct {
	mu       sync.Mutex
	intents  map[string]*Intent
	keys     []string
	requests int
}

func newFakeProcessor(t *testing.T) (*fakeProcessor, *httptest.Server) {
	t.Helper()
	fp := &fakeProcessor{intents: make(map[string]*Intent)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp.mu.Lock()
		defer fp.mu.Unlock()
		fp.requests++

		if r.Header.Get("Authorization") != "Bearer "+secretKey {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
			return
		}

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/payment_intents":
			if err := r.ParseForm(); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			amount, _ := strconv.ParseInt(r.PostForm.Get("amount"), 10, 64)
			id := fmt.Sprintf("pi_%d", len(fp.intents)+1)
			intent := &Intent{
				ID:           id,
				ClientSecret: id + "_secret",
				Status:       IntentRequiresPaymentMethod,
				AmountCents:  amount,
				Currency:     r.PostForm.Get("currency"),
				Metadata: map[string]string{
					"email":  r.PostForm.Get("metadata[email]"),
					"coupon": r.PostForm.Get("metadata[coupon]"),
				},
			}
			fp.intents[id] = intent
			fp.keys = append(fp.keys, r.Header.Get("Idempotency-Key"))
			_ = json.NewEncoder(w).Encode(intent)

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/payment_intents/"):
			intent, ok := fp.intents[strings.TrimPrefix(r.URL.Path, "/v1/payment_intents/")]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":{"message":"no such payment_intent"}}`))
				return
			}
			_ = json.NewEncoder(w).Encode(intent)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return fp, srv
}

func (fp *fakeProcessor) setStatus(id string, status IntentStatus) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.intents[id].Status = status
}

// put registers an intent that did not come from Checkout.
func (fp *fakeProcessor) put(intent Intent) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.intents[intent.ID] = &intent
}

func (fp *fakeProcessor) snapshot() (keys []string, intents map[string]Intent, requests int) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	intents = make(map[string]Intent, len(fp.intents))
	for id, in := range fp.intents {
		intents[id] = *in
	}
	return append([]string(nil), fp.keys...), intents, fp.requests
}

func newService(t *testing.T) (*Service, *fakeProcessor, ledger.Store) {
	t.Helper()
	ctx := context.Background()

	store := ledger.NewMemoryStore()
	err := store.InTx(ctx, func(tx ledger.Tx) error {
		for _, u := range []ledger.User{
			{Email: buyer, Role: ledger.RoleNone, Membership: ledger.MembershipFree},
			{Email: other, Role: ledger.RoleNone, Membership: ledger.MembershipFree},
			{Email: admin, Role: ledger.RoleAdmin, Membership: ledger.MembershipFree},
		} {
			if err := tx.CreateUser(ctx, &u); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	coupons := coupon.NewService(store).WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})
	for code, discount := range map[string]int{"HALF": 50, "FREE": 100} {
		_, err := coupons.Create(ctx, admin, coupon.Input{
			Code:           code,
			DiscountAmount: discount,
			ExpiryDate:     time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	fp, srv := newFakeProcessor(t)
	processor := NewHTTPProcessor(srv.URL, secretKey, time.Second)

	svc := NewService(store, processor, coupons, Config{
		Currency:           "usd",
		SubscriptionAmount: 9.99,
	})
	return svc, fp, store
}

func TestAmountCents(t *testing.T) {
	tests := []struct {
		price    float64
		discount int
		want     int64
	}{
		{9.99, 0, 999},
		{9.99, 50, 500},
		{9.99, 10, 899},
		{9.99, 100, 0},
		{20, 25, 1500},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AmountCents(tt.price, tt.discount), "%v @ %d%%", tt.price, tt.discount)
	}
}

func TestCheckout_CreatesIntent(t *testing.T) {
	svc, fp, _ := newService(t)

	res, err := svc.Checkout(context.Background(), buyer, "half")
	require.NoError(t, err)

	assert.Equal(t, "pi_1", res.IntentID)
	assert.Equal(t, "pi_1_secret", res.ClientSecret)
	assert.Equal(t, int64(500), res.AmountCents)
	assert.Equal(t, 50, res.DiscountAmount)
	assert.Equal(t, "HALF", res.CouponCode)
	assert.Equal(t, IntentRequiresPaymentMethod, res.Status)

	keys, intents, _ := fp.snapshot()
	require.Len(t, keys, 1)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, buyer, intents["pi_1"].Metadata["email"])
	assert.Equal(t, "usd", intents["pi_1"].Currency)
}

func TestCheckout_RejectsBadCoupon(t *testing.T) {
	svc, fp, _ := newService(t)

	_, err := svc.Checkout(context.Background(), buyer, "BOGUS")
	assert.ErrorIs(t, err, core.ErrCouponNotFound)
	_, _, requests := fp.snapshot()
	assert.Zero(t, requests)
}

func TestCheckout_FullDiscountActivatesImmediately(t *testing.T) {
	svc, fp, store := newService(t)
	ctx := context.Background()

	res, err := svc.Checkout(ctx, buyer, "FREE")
	require.NoError(t, err)
	assert.Equal(t, IntentSucceeded, res.Status)
	assert.Zero(t, res.AmountCents)
	_, _, requests := fp.snapshot()
	assert.Zero(t, requests)

	err = store.View(ctx, func(tx ledger.Tx) error {
		u, err := tx.GetUser(ctx, buyer)
		require.NoError(t, err)
		assert.True(t, u.IsPremium())
		require.NotNil(t, u.CouponCode)
		assert.Equal(t, "FREE", *u.CouponCode)
		return nil
	})
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, buyer, "")
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestConfirm(t *testing.T) {
	svc, fp, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Checkout(ctx, buyer, "")
	require.NoError(t, err)
	assert.Equal(t, int64(999), res.AmountCents)

	_, err = svc.Confirm(ctx, buyer, res.IntentID)
	assert.ErrorIs(t, err, core.ErrPaymentFailed)

	_, err = svc.Confirm(ctx, other, res.IntentID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	fp.setStatus(res.IntentID, IntentSucceeded)

	user, err := svc.Confirm(ctx, buyer, res.IntentID)
	require.NoError(t, err)
	assert.Equal(t, ledger.MembershipActive, user.Membership)
	require.NotNil(t, user.SubscriptionID)
	assert.Equal(t, res.IntentID, *user.SubscriptionID)
	require.NotNil(t, user.AmountPaid)
	assert.Equal(t, int64(999), *user.AmountPaid)

	_, _, before := fp.snapshot()
	again, err := svc.Confirm(ctx, buyer, res.IntentID)
	require.NoError(t, err)
	assert.Equal(t, ledger.MembershipActive, again.Membership)
	_, _, after := fp.snapshot()
	assert.Equal(t, before, after)
}

func TestConfirm_RejectsForeignIntents(t *testing.T) {
	svc, fp, store := newService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		intent Intent
		want   error
	}{
		{
			name:   "no owner metadata",
			intent: Intent{ID: "pi_anon", Status: IntentSucceeded, AmountCents: 999, Currency: "usd"},
			want:   core.ErrForbidden,
		},
		{
			name: "underpaid",
			intent: Intent{
				ID: "pi_cent", Status: IntentSucceeded, AmountCents: 1, Currency: "usd",
				Metadata: map[string]string{"email": other},
			},
			want: core.ErrPaymentFailed,
		},
		{
			name: "discount claimed without coupon",
			intent: Intent{
				ID: "pi_half", Status: IntentSucceeded, AmountCents: 500, Currency: "usd",
				Metadata: map[string]string{"email": other, "coupon": "NOPE"},
			},
			want: core.ErrPaymentFailed,
		},
		{
			name: "other currency",
			intent: Intent{
				ID: "pi_jpy", Status: IntentSucceeded, AmountCents: 999, Currency: "jpy",
				Metadata: map[string]string{"email": other},
			},
			want: core.ErrPaymentFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp.put(tt.intent)
			_, err := svc.Confirm(ctx, other, tt.intent.ID)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	err := store.View(ctx, func(tx ledger.Tx) error {
		u, err := tx.GetUser(ctx, other)
		require.NoError(t, err)
		assert.Equal(t, ledger.MembershipFree, u.Membership)
		return nil
	})
	require.NoError(t, err)
}

func TestConfirm_AcceptsCouponPricedIntent(t *testing.T) {
	svc, fp, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Checkout(ctx, buyer, "half")
	require.NoError(t, err)
	assert.Equal(t, int64(500), res.AmountCents)

	fp.setStatus(res.IntentID, IntentSucceeded)
	user, err := svc.Confirm(ctx, buyer, res.IntentID)
	require.NoError(t, err)
	assert.Equal(t, ledger.MembershipActive, user.Membership)
}

func TestConfirm_UnknownIntent(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Confirm(context.Background(), buyer, "pi_missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Confirm(context.Background(), buyer, " ")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestHTTPProcessor_BadKey(t *testing.T) {
	_, srv := newFakeProcessor(t)
	p := NewHTTPProcessor(srv.URL+"/", "wrong", 0)

	_, err := p.CreateIntent(context.Background(), 100, "usd", nil, "")
	var perr *ProcessorError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
	assert.Equal(t, "invalid api key", perr.Message)
}
