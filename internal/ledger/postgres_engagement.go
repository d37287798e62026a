// AngelaMos | 2026
// postgres_engagement.go

package ledger

import (
	"context"
	"fmt"
)

func (q *queries) GetUpvote(
	ctx context.Context,
	productID, userEmail string,
) (*Upvote, error) {
	query := `
		SELECT product_id, user_email, product_name, product_image, created_at
		FROM upvotes
		WHERE product_id = $1 AND user_email = $2`

	var upvote Upvote
	if err := q.db.GetContext(ctx, &upvote, query, productID, userEmail); err != nil {
		return nil, wrapReadError("get upvote", err)
	}

	return &upvote, nil
}

func (q *queries) InsertUpvote(ctx context.Context, upvote *Upvote) error {
	query := `
		INSERT INTO upvotes (product_id, user_email, product_name, product_image)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := q.db.GetContext(ctx, &upvote.CreatedAt, query,
		upvote.ProductID,
		upvote.UserEmail,
		upvote.ProductName,
		upvote.ProductImage,
	)
	if err != nil {
		return wrapWriteError("insert upvote", err)
	}

	return nil
}

func (q *queries) DeleteUpvote(ctx context.Context, productID, userEmail string) error {
	query := `DELETE FROM upvotes WHERE product_id = $1 AND user_email = $2`

	result, err := q.db.ExecContext(ctx, query, productID, userEmail)
	if err != nil {
		return fmt.Errorf("delete upvote: %w", err)
	}

	return requireRows("delete upvote", result)
}

func (q *queries) CountUpvotes(ctx context.Context, productID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM upvotes WHERE product_id = $1`
	if err := q.db.GetContext(ctx, &count, query, productID); err != nil {
		return 0, fmt.Errorf("count upvotes: %w", err)
	}

	return count, nil
}

func (q *queries) DeleteUpvotesForProduct(ctx context.Context, productID string) (int, error) {
	result, err := q.db.ExecContext(ctx, `DELETE FROM upvotes WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("delete product upvotes: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete product upvotes: %w", err)
	}

	return int(rows), nil
}

func (q *queries) ListUpvotesByUser(
	ctx context.Context,
	userEmail, search string,
) ([]Upvote, error) {
	query := `
		SELECT product_id, user_email, product_name, product_image, created_at
		FROM upvotes
		WHERE user_email = $1 AND ($2::text = '' OR product_name ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC, product_id`

	var upvotes []Upvote
	if err := q.db.SelectContext(ctx, &upvotes, query, userEmail, escapeLike(search)); err != nil {
		return nil, fmt.Errorf("list upvotes: %w", err)
	}

	return upvotes, nil
}

func (q *queries) InsertReview(ctx context.Context, review *Review) error {
	query := `
		INSERT INTO reviews (id, product_id, reviewer_email, reviewer_name, rating, text)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := q.db.GetContext(ctx, &review.CreatedAt, query,
		review.ID,
		review.ProductID,
		review.ReviewerEmail,
		review.ReviewerName,
		review.Rating,
		review.Text,
	)
	if err != nil {
		return wrapWriteError("insert review", err)
	}

	return nil
}

func (q *queries) ListReviews(ctx context.Context, productID string) ([]Review, error) {
	query := `
		SELECT id, product_id, reviewer_email, reviewer_name, rating, text, created_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC`

	var reviews []Review
	if err := q.db.SelectContext(ctx, &reviews, query, productID); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, nil
}

func (q *queries) InsertReport(ctx context.Context, report *Report) error {
	query := `
		INSERT INTO reports (id, product_id, reporter_email, reason, product_name, owner_email)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := q.db.GetContext(ctx, &report.CreatedAt, query,
		report.ID,
		report.ProductID,
		report.ReporterEmail,
		report.Reason,
		report.ProductName,
		report.OwnerEmail,
	)
	if err != nil {
		return wrapWriteError("insert report", err)
	}

	return nil
}

func (q *queries) ListReports(ctx context.Context, productID string) ([]Report, error) {
	query := `
		SELECT id, product_id, reporter_email, reason, product_name, owner_email, created_at
		FROM reports
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC`

	var reports []Report
	if err := q.db.SelectContext(ctx, &reports, query, productID); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	return reports, nil
}

func (q *queries) CountReports(ctx context.Context, productID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM reports WHERE product_id = $1`
	if err := q.db.GetContext(ctx, &count, query, productID); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}

	return count, nil
}

func (q *queries) ListReportedProducts(
	ctx context.Context,
	search string,
) ([]ReportedProduct, error) {
	query := `
		SELECT
			r.product_id,
			(array_agg(r.product_name ORDER BY r.created_at DESC))[1] AS product_name,
			(array_agg(r.owner_email ORDER BY r.created_at DESC))[1] AS owner_email,
			COUNT(*) AS report_count,
			MAX(r.created_at) AS latest_report,
			EXISTS (SELECT 1 FROM products p WHERE p.id = r.product_id) AS product_exists
		FROM reports r
		GROUP BY r.product_id
		HAVING $1::text = '' OR bool_or(
			r.product_name ILIKE '%' || $1 || '%' OR r.owner_email ILIKE '%' || $1 || '%'
		)
		ORDER BY report_count DESC, latest_report DESC, r.product_id`

	var reported []ReportedProduct
	if err := q.db.SelectContext(ctx, &reported, query, escapeLike(search)); err != nil {
		return nil, fmt.Errorf("list reported products: %w", err)
	}

	return reported, nil
}
