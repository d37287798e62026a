// AngelaMos | 2026
// postgres_coupons.go

package ledger

import (
	"context"
	"fmt"
)

const couponColumns = `code, discount_amount, expiry_date, description, created_at, updated_at`

func (q *queries) CreateCoupon(ctx context.Context, coupon *Coupon) error {
	query := `
		INSERT INTO coupons (code, discount_amount, expiry_date, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := q.db.GetContext(ctx, coupon, query,
		coupon.Code,
		coupon.DiscountAmount,
		coupon.ExpiryDate,
		coupon.Description,
	)
	if err != nil {
		return wrapWriteError("create coupon", err)
	}

	return nil
}

func (q *queries) GetCoupon(ctx context.Context, code string) (*Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	var coupon Coupon
	if err := q.db.GetContext(ctx, &coupon, query, code); err != nil {
		return nil, wrapReadError("get coupon", err)
	}

	return &coupon, nil
}

func (q *queries) UpdateCoupon(ctx context.Context, coupon *Coupon) error {
	query := `
		UPDATE coupons
		SET discount_amount = $2, expiry_date = $3, description = $4, updated_at = NOW()
		WHERE code = $1
		RETURNING updated_at`

	err := q.db.GetContext(ctx, &coupon.UpdatedAt, query,
		coupon.Code,
		coupon.DiscountAmount,
		coupon.ExpiryDate,
		coupon.Description,
	)
	if err != nil {
		return wrapReadError("update coupon", err)
	}

	return nil
}

func (q *queries) DeleteCoupon(ctx context.Context, code string) error {
	result, err := q.db.ExecContext(ctx, `DELETE FROM coupons WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}

	return requireRows("delete coupon", result)
}

func (q *queries) ListCoupons(ctx context.Context) ([]Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY expiry_date DESC, code`

	var coupons []Coupon
	if err := q.db.SelectContext(ctx, &coupons, query); err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}

	return coupons, nil
}
