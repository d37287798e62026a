// AngelaMos | 2026
// service.go

package product

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

type Content struct {
	Name         string
	ImageURL     string
	Description  string
	ExternalLink string
	Tags         []string
}

type ListParams struct {
	Search   string
	Tag      string
	Status   ledger.Status
	Featured *bool
	Page     int
	PageSize int
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type Service struct {
	store     ledger.Store
	freeQuota int
	now       func() time.Time
}

func NewService(store ledger.Store, freeQuota int) *Service {
	return &Service{
		store:     store,
		freeQuota: freeQuota,
		now:       time.Now,
	}
}

// Submit records a new product in pending state. Free members are capped at
// freeQuota products across all statuses.
func (s *Service) Submit(
	ctx context.Context,
	ownerEmail string,
	content Content,
) (*ledger.Product, error) {
	ownerEmail = ledger.NormalizeEmail(ownerEmail)
	if ownerEmail == "" {
		return nil, fmt.Errorf("submit product: %w", core.ErrUnauthorized)
	}

	product := &ledger.Product{
		ID:         uuid.New().String(),
		OwnerEmail: ownerEmail,
		Status:     ledger.StatusPending,
	}
	if err := applyContent(product, content); err != nil {
		return nil, fmt.Errorf("submit product: %w", err)
	}

	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		owner, err := tx.LockUser(ctx, ownerEmail)
		if err != nil {
			return err
		}

		if !owner.IsPremium() {
			count, err := tx.CountProductsByOwner(ctx, ownerEmail)
			if err != nil {
				return err
			}
			if count >= s.freeQuota {
				return core.ErrQuotaExceeded
			}
		}

		return tx.CreateProduct(ctx, product)
	})
	if err != nil {
		return nil, fmt.Errorf("submit product: %w", err)
	}

	slog.Info("product submitted",
		"product_id", product.ID,
		"owner", ownerEmail,
	)

	return product, nil
}

// Get returns a product. Products that are not accepted are visible only to
// their owner and to moderators.
func (s *Service) Get(
	ctx context.Context,
	viewerEmail, id string,
) (*ledger.Product, error) {
	viewerEmail = ledger.NormalizeEmail(viewerEmail)

	var product *ledger.Product
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		p, err := tx.GetProduct(ctx, id)
		if err != nil {
			return err
		}

		if p.Status != ledger.StatusAccepted && p.OwnerEmail != viewerEmail {
			if viewerEmail == "" {
				return core.ErrNotFound
			}
			if _, err := ledger.RequireModerator(ctx, tx, viewerEmail); err != nil {
				return core.ErrNotFound
			}
		}

		product = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (s *Service) Update(
	ctx context.Context,
	actorEmail, id string,
	content Content,
) (*ledger.Product, error) {
	actorEmail = ledger.NormalizeEmail(actorEmail)

	var product *ledger.Product
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		p, err := tx.LockProduct(ctx, id)
		if err != nil {
			return err
		}
		if p.OwnerEmail != actorEmail {
			return fmt.Errorf("not the product owner: %w", core.ErrForbidden)
		}
		if err := applyContent(p, content); err != nil {
			return err
		}
		if err := tx.UpdateProductContent(ctx, p); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

// DeleteOwn lets an owner withdraw a product that was never accepted.
func (s *Service) DeleteOwn(ctx context.Context, actorEmail, id string) error {
	actorEmail = ledger.NormalizeEmail(actorEmail)

	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		p, err := tx.LockProduct(ctx, id)
		if err != nil {
			return err
		}
		if p.OwnerEmail != actorEmail {
			return fmt.Errorf("not the product owner: %w", core.ErrForbidden)
		}
		if p.AcceptedAt != nil {
			return fmt.Errorf("product was accepted: %w", core.ErrForbidden)
		}
		return deleteProduct(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("delete own product: %w", err)
	}

	slog.Info("product withdrawn by owner", "product_id", id, "owner", actorEmail)
	return nil
}

func (s *Service) Accept(ctx context.Context, actorEmail, id string) (*ledger.Product, error) {
	return s.transition(ctx, actorEmail, id, ledger.StatusAccepted)
}

func (s *Service) Reject(ctx context.Context, actorEmail, id string) (*ledger.Product, error) {
	return s.transition(ctx, actorEmail, id, ledger.StatusRejected)
}

// allowedTransitions lists the moves a moderator may make. Staying in the
// current status is always allowed and writes nothing.
var allowedTransitions = map[ledger.Status][]ledger.Status{
	ledger.StatusPending:  {ledger.StatusAccepted, ledger.StatusRejected},
	ledger.StatusAccepted: {ledger.StatusRejected},
	ledger.StatusRejected: {ledger.StatusAccepted},
}

func CanTransition(from, to ledger.Status) bool {
	if from == to {
		return from.Valid()
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s *Service) transition(
	ctx context.Context,
	actorEmail, id string,
	target ledger.Status,
) (*ledger.Product, error) {
	var (
		product *ledger.Product
		from    ledger.Status
	)

	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := ledger.RequireModerator(ctx, tx, actorEmail); err != nil {
			return err
		}

		p, err := tx.LockProduct(ctx, id)
		if err != nil {
			return err
		}
		from = p.Status

		if !CanTransition(p.Status, target) {
			return fmt.Errorf("%s to %s: %w", p.Status, target, core.ErrInvalidTransition)
		}
		if p.Status == target {
			product = p
			return nil
		}

		if target == ledger.StatusAccepted && p.AcceptedAt == nil {
			now := s.now().UTC()
			p.AcceptedAt = &now
		}
		p.Status = target
		p.Featured = false

		if err := tx.SetProductModeration(ctx, id, p.Status, p.Featured, p.AcceptedAt); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("moderate product: %w", err)
	}

	if from != target {
		slog.Info("product status changed",
			"product_id", id,
			"from", from,
			"to", target,
			"actor", ledger.NormalizeEmail(actorEmail),
		)
		core.AddSpanEvent(ctx, "product.transition",
			attribute.String("product_id", id),
			attribute.String("from", string(from)),
			attribute.String("to", string(target)),
		)
	}

	return product, nil
}

func (s *Service) SetFeatured(
	ctx context.Context,
	actorEmail, id string,
	featured bool,
) (*ledger.Product, error) {
	var product *ledger.Product

	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := ledger.RequireModerator(ctx, tx, actorEmail); err != nil {
			return err
		}

		p, err := tx.LockProduct(ctx, id)
		if err != nil {
			return err
		}

		if featured && p.Status != ledger.StatusAccepted {
			return fmt.Errorf("feature %s product: %w", p.Status, core.ErrInvalidTransition)
		}
		if p.Featured == featured {
			product = p
			return nil
		}

		p.Featured = featured
		if err := tx.SetProductModeration(ctx, id, p.Status, p.Featured, p.AcceptedAt); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set featured: %w", err)
	}

	return product, nil
}

// Delete removes a product and its upvotes. Reviews and reports are kept.
func (s *Service) Delete(ctx context.Context, actorEmail, id string) error {
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := ledger.RequireModerator(ctx, tx, actorEmail); err != nil {
			return err
		}
		if _, err := tx.LockProduct(ctx, id); err != nil {
			return err
		}
		return deleteProduct(ctx, tx, id)
	})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	slog.Info("product deleted",
		"product_id", id,
		"actor", ledger.NormalizeEmail(actorEmail),
	)
	return nil
}

func deleteProduct(ctx context.Context, tx ledger.Tx, id string) error {
	if _, err := tx.DeleteUpvotesForProduct(ctx, id); err != nil {
		return err
	}
	return tx.DeleteProduct(ctx, id)
}

// Queue lists every product for review: pending first, then accepted, then
// rejected, newest first within each group.
func (s *Service) Queue(
	ctx context.Context,
	actorEmail string,
	params ListParams,
) ([]ledger.Product, int, error) {
	params.Normalize()
	filter := ledger.ProductFilter{
		Search: strings.TrimSpace(params.Search),
		Tag:    strings.TrimSpace(params.Tag),
		Order:  ledger.OrderQueue,
		Limit:  params.PageSize,
		Offset: params.Offset(),
	}
	if params.Status != "" {
		if !params.Status.Valid() {
			return nil, 0, fmt.Errorf("review queue: unknown status %q: %w", params.Status, core.ErrInvalidInput)
		}
		filter.Statuses = []ledger.Status{params.Status}
	}

	var (
		products []ledger.Product
		total    int
	)
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		if _, err := ledger.RequireModerator(ctx, tx, actorEmail); err != nil {
			return err
		}
		var err error
		products, total, err = tx.ListProducts(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("review queue: %w", err)
	}

	return products, total, nil
}

// ListPublic lists accepted products, most upvoted first.
func (s *Service) ListPublic(
	ctx context.Context,
	params ListParams,
) ([]ledger.Product, int, error) {
	params.Normalize()
	filter := ledger.ProductFilter{
		Statuses: []ledger.Status{ledger.StatusAccepted},
		Search:   strings.TrimSpace(params.Search),
		Tag:      strings.TrimSpace(params.Tag),
		Featured: params.Featured,
		Order:    ledger.OrderTop,
		Limit:    params.PageSize,
		Offset:   params.Offset(),
	}

	return s.list(ctx, "list products", filter)
}

func (s *Service) ListMine(
	ctx context.Context,
	ownerEmail string,
	params ListParams,
) ([]ledger.Product, int, error) {
	ownerEmail = ledger.NormalizeEmail(ownerEmail)
	if ownerEmail == "" {
		return nil, 0, fmt.Errorf("list my products: %w", core.ErrUnauthorized)
	}

	params.Normalize()
	filter := ledger.ProductFilter{
		OwnerEmail: ownerEmail,
		Search:     strings.TrimSpace(params.Search),
		Order:      ledger.OrderNewest,
		Limit:      params.PageSize,
		Offset:     params.Offset(),
	}

	return s.list(ctx, "list my products", filter)
}

func (s *Service) list(
	ctx context.Context,
	op string,
	filter ledger.ProductFilter,
) ([]ledger.Product, int, error) {
	var (
		products []ledger.Product
		total    int
	)
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		products, total, err = tx.ListProducts(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return products, total, nil
}

func applyContent(p *ledger.Product, c Content) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return fmt.Errorf("product name is required: %w", core.ErrInvalidInput)
	}

	p.Name = name
	p.Slug = slug.Make(name)
	p.ImageURL = strings.TrimSpace(c.ImageURL)
	p.Description = strings.TrimSpace(c.Description)
	p.ExternalLink = strings.TrimSpace(c.ExternalLink)
	p.Tags = ledger.NormalizeTags(c.Tags)
	return nil
}
