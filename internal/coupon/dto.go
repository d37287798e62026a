// AngelaMos | 2026
// dto.go

package coupon

import (
	"fmt"
	"time"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

type ValidateCouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type CouponRequest struct {
	Code           string `json:"code"            validate:"required,alphanum,max=64"`
	DiscountAmount int    `json:"discount_amount"`
	ExpiryDate     string `json:"expiry_date"     validate:"required,datetime=2006-01-02"`
	Description    string `json:"description"     validate:"max=500"`
}

type UpdateCouponRequest struct {
	DiscountAmount int    `json:"discount_amount"`
	ExpiryDate     string `json:"expiry_date"     validate:"required,datetime=2006-01-02"`
	Description    string `json:"description"     validate:"max=500"`
}

type CouponResponse struct {
	Code           string    `json:"code"`
	DiscountAmount int       `json:"discount_amount"`
	ExpiryDate     string    `json:"expiry_date"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
}

func parseExpiry(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expiry_date: %w", core.ErrInvalidInput)
	}
	return t, nil
}

func (r CouponRequest) Input() (Input, error) {
	expiry, err := parseExpiry(r.ExpiryDate)
	if err != nil {
		return Input{}, err
	}
	return Input{
		Code:           r.Code,
		DiscountAmount: r.DiscountAmount,
		ExpiryDate:     expiry,
		Description:    r.Description,
	}, nil
}

func (r UpdateCouponRequest) Input() (Input, error) {
	expiry, err := parseExpiry(r.ExpiryDate)
	if err != nil {
		return Input{}, err
	}
	return Input{
		DiscountAmount: r.DiscountAmount,
		ExpiryDate:     expiry,
		Description:    r.Description,
	}, nil
}

func ToCouponResponse(c *ledger.Coupon) CouponResponse {
	return CouponResponse{
		Code:           c.Code,
		DiscountAmount: c.DiscountAmount,
		ExpiryDate:     c.ExpiryDate.Format(DateLayout),
		Description:    c.Description,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func ToCouponResponseList(coupons []ledger.Coupon) []CouponResponse {
	out := make([]CouponResponse, 0, len(coupons))
	for i := range coupons {
		out = append(out, ToCouponResponse(&coupons[i]))
	}
	return out
}
