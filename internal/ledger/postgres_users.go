// AngelaMos | 2026
// postgres_users.go

package ledger

import (
	"context"
	"fmt"
)

const userColumns = `
	email, display_name, avatar_url, role, membership, subscription_id,
	subscribed_at, amount_paid_cents, coupon_code, created_at, updated_at`

func (q *queries) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (email, display_name, avatar_url, role, membership)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := q.db.GetContext(ctx, user, query,
		user.Email,
		user.DisplayName,
		user.AvatarURL,
		user.Role,
		user.Membership,
	)
	if err != nil {
		return wrapWriteError("create user", err)
	}

	return nil
}

func (q *queries) GetUser(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user User
	if err := q.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, wrapReadError("get user", err)
	}

	return &user, nil
}

func (q *queries) LockUser(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 FOR UPDATE`

	var user User
	if err := q.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, wrapReadError("lock user", err)
	}

	return &user, nil
}

func (q *queries) UpdateUserProfile(
	ctx context.Context,
	email, displayName, avatarURL string,
) error {
	query := `
		UPDATE users
		SET display_name = $2, avatar_url = $3, updated_at = NOW()
		WHERE email = $1`

	result, err := q.db.ExecContext(ctx, query, email, displayName, avatarURL)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}

	return requireRows("update user profile", result)
}

func (q *queries) UpdateUserRole(ctx context.Context, email string, role Role) error {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE email = $1`

	result, err := q.db.ExecContext(ctx, query, email, role)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}

	return requireRows("update user role", result)
}

func (q *queries) ActivateMembership(
	ctx context.Context,
	email string,
	sub Subscription,
) error {
	query := `
		UPDATE users
		SET membership = $2,
		    subscription_id = $3,
		    subscribed_at = $4,
		    amount_paid_cents = $5,
		    coupon_code = NULLIF($6, ''),
		    updated_at = NOW()
		WHERE email = $1`

	result, err := q.db.ExecContext(ctx, query,
		email,
		MembershipActive,
		sub.ID,
		sub.StartedAt,
		sub.AmountCents,
		sub.CouponCode,
	)
	if err != nil {
		return fmt.Errorf("activate membership: %w", err)
	}

	return requireRows("activate membership", result)
}

func (q *queries) ListUsers(
	ctx context.Context,
	filter UserFilter,
) ([]User, int, error) {
	var w whereBuilder

	if filter.Search != "" {
		w.add("(email ILIKE $%[1]d OR display_name ILIKE $%[1]d)",
			"%"+escapeLike(filter.Search)+"%")
	}
	if filter.Role != "" {
		w.add("role = $%d", filter.Role)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM users WHERE ` + w.clause()
	if err := q.db.GetContext(ctx, &total, countQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE %s
		ORDER BY created_at DESC, email
		LIMIT $%d OFFSET $%d`,
		userColumns, w.clause(), w.next(), w.next()+1)

	args := append(w.args, limitOrAll(filter.Limit), filter.Offset)

	var users []User
	if err := q.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

// limitOrAll maps a zero limit to NULL, which Postgres treats as LIMIT ALL.
func limitOrAll(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
