// AngelaMos | 2026
// postgres_products.go

package ledger

import (
	"context"
	"fmt"
	"time"
)

const productColumns = `
	id, slug, name, image_url, description, external_link, tags, owner_email,
	status, featured, upvote_count, accepted_at, created_at, updated_at`

func (q *queries) CreateProduct(ctx context.Context, product *Product) error {
	query := `
		INSERT INTO products (
			id, slug, name, image_url, description, external_link, tags,
			owner_email, status, featured, upvote_count
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING created_at, updated_at`

	err := q.db.GetContext(ctx, product, query,
		product.ID,
		product.Slug,
		product.Name,
		product.ImageURL,
		product.Description,
		product.ExternalLink,
		product.Tags,
		product.OwnerEmail,
		product.Status,
		product.Featured,
		product.UpvoteCount,
	)
	if err != nil {
		return wrapWriteError("create product", err)
	}

	return nil
}

func (q *queries) GetProduct(ctx context.Context, id string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var product Product
	if err := q.db.GetContext(ctx, &product, query, id); err != nil {
		return nil, wrapReadError("get product", err)
	}

	return &product, nil
}

func (q *queries) LockProduct(ctx context.Context, id string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	var product Product
	if err := q.db.GetContext(ctx, &product, query, id); err != nil {
		return nil, wrapReadError("lock product", err)
	}

	return &product, nil
}

func (q *queries) UpdateProductContent(ctx context.Context, product *Product) error {
	query := `
		UPDATE products
		SET name = $2, slug = $3, image_url = $4, description = $5,
		    external_link = $6, tags = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := q.db.GetContext(ctx, &product.UpdatedAt, query,
		product.ID,
		product.Name,
		product.Slug,
		product.ImageURL,
		product.Description,
		product.ExternalLink,
		product.Tags,
	)
	if err != nil {
		return wrapReadError("update product", err)
	}

	return nil
}

func (q *queries) SetProductModeration(
	ctx context.Context,
	id string,
	status Status,
	featured bool,
	acceptedAt *time.Time,
) error {
	query := `
		UPDATE products
		SET status = $2, featured = $3, accepted_at = $4, updated_at = NOW()
		WHERE id = $1`

	result, err := q.db.ExecContext(ctx, query, id, status, featured, acceptedAt)
	if err != nil {
		return wrapWriteError("set product moderation", err)
	}

	return requireRows("set product moderation", result)
}

func (q *queries) AdjustUpvoteCount(
	ctx context.Context,
	id string,
	delta int,
) (int, error) {
	query := `
		UPDATE products
		SET upvote_count = GREATEST(upvote_count + $2, 0)
		WHERE id = $1
		RETURNING upvote_count`

	var count int
	if err := q.db.GetContext(ctx, &count, query, id, delta); err != nil {
		return 0, wrapReadError("adjust upvote count", err)
	}

	return count, nil
}

func (q *queries) SetUpvoteCount(ctx context.Context, id string, count int) error {
	query := `UPDATE products SET upvote_count = $2 WHERE id = $1`

	result, err := q.db.ExecContext(ctx, query, id, count)
	if err != nil {
		return fmt.Errorf("set upvote count: %w", err)
	}

	return requireRows("set upvote count", result)
}

func (q *queries) DeleteProduct(ctx context.Context, id string) error {
	result, err := q.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	return requireRows("delete product", result)
}

func (q *queries) CountProductsByOwner(
	ctx context.Context,
	ownerEmail string,
) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM products WHERE owner_email = $1`
	if err := q.db.GetContext(ctx, &count, query, ownerEmail); err != nil {
		return 0, fmt.Errorf("count products by owner: %w", err)
	}

	return count, nil
}

func (q *queries) ListProducts(
	ctx context.Context,
	filter ProductFilter,
) ([]Product, int, error) {
	var w whereBuilder

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		w.add("status = ANY($%d)", statuses)
	}
	if filter.OwnerEmail != "" {
		w.add("owner_email = $%d", filter.OwnerEmail)
	}
	if filter.Search != "" {
		w.add("(name ILIKE $%[1]d OR description ILIKE $%[1]d)",
			"%"+escapeLike(filter.Search)+"%")
	}
	if filter.Tag != "" {
		w.add(`EXISTS (
			SELECT 1 FROM jsonb_array_elements_text(tags) AS t(tag)
			WHERE lower(t.tag) = lower($%d))`, filter.Tag)
	}
	if filter.Featured != nil {
		w.add("featured = $%d", *filter.Featured)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM products WHERE ` + w.clause()
	if err := q.db.GetContext(ctx, &total, countQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		productColumns, w.clause(), orderClause(filter.Order), w.next(), w.next()+1)

	args := append(w.args, limitOrAll(filter.Limit), filter.Offset)

	var products []Product
	if err := q.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

func orderClause(order ProductOrder) string {
	switch order {
	case OrderQueue:
		return `CASE status WHEN 'pending' THEN 0 WHEN 'accepted' THEN 1 ELSE 2 END,
			created_at DESC, id DESC`
	case OrderTop:
		return `upvote_count DESC, created_at DESC, id DESC`
	default:
		return `created_at DESC, id DESC`
	}
}

func (q *queries) ListProductIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := q.db.SelectContext(ctx, &ids, `SELECT id FROM products ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list product ids: %w", err)
	}

	return ids, nil
}
