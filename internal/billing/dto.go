// AngelaMos | 2026
// dto.go

package billing

import (
	"time"

	"github.com/carterperez-dev/launchpad/internal/ledger"
)

type CheckoutRequest struct {
	CouponCode string `json:"coupon_code" validate:"omitempty,max=64"`
}

type ConfirmRequest struct {
	IntentID string `json:"intent_id" validate:"required,max=255"`
}

type CheckoutResponse struct {
	IntentID       string       `json:"intent_id"`
	ClientSecret   string       `json:"client_secret,omitempty"`
	Status         IntentStatus `json:"status"`
	AmountCents    int64        `json:"amount_cents"`
	Currency       string       `json:"currency"`
	DiscountAmount int          `json:"discount_amount"`
	CouponCode     string       `json:"coupon_code,omitempty"`
}

type MembershipResponse struct {
	Email          string            `json:"email"`
	Membership     ledger.Membership `json:"membership"`
	SubscriptionID string            `json:"subscription_id,omitempty"`
	SubscribedAt   *time.Time        `json:"subscribed_at,omitempty"`
	AmountPaid     *int64            `json:"amount_paid_cents,omitempty"`
	CouponCode     string            `json:"coupon_code,omitempty"`
}

func ToCheckoutResponse(r *CheckoutResult) CheckoutResponse {
	return CheckoutResponse{
		IntentID:       r.IntentID,
		ClientSecret:   r.ClientSecret,
		Status:         r.Status,
		AmountCents:    r.AmountCents,
		Currency:       r.Currency,
		DiscountAmount: r.DiscountAmount,
		CouponCode:     r.CouponCode,
	}
}

func ToMembershipResponse(u *ledger.User) MembershipResponse {
	resp := MembershipResponse{
		Email:        u.Email,
		Membership:   u.Membership,
		SubscribedAt: u.SubscribedAt,
		AmountPaid:   u.AmountPaid,
	}
	if u.SubscriptionID != nil {
		resp.SubscriptionID = *u.SubscriptionID
	}
	if u.CouponCode != nil {
		resp.CouponCode = *u.CouponCode
	}
	return resp
}
