// AngelaMos | 2026
// engine.go

package upvote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

type State string

const (
	StateAdded   State = "added"
	StateRemoved State = "removed"
)

type Result struct {
	ProductID string
	State     State
	Count     int
}

// Intent is an upvote the caller asked for before it was authenticated.
// The caller keeps it across sign-in and hands it back through Replay.
type Intent struct {
	ProductID string `json:"product_id"`
}

func (i *Intent) Empty() bool {
	return i == nil || strings.TrimSpace(i.ProductID) == ""
}

// Drift records a product whose stored counter disagreed with its rows.
type Drift struct {
	ProductID string
	Stored    int
	Actual    int
}

type Engine struct {
	store ledger.Store
	locks PairLocker
}

func NewEngine(store ledger.Store, locks PairLocker) *Engine {
	if locks == nil {
		locks = NewLocalLocker()
	}
	return &Engine{store: store, locks: locks}
}

// Toggle adds the caller's upvote if absent and removes it if present. The
// row write and the counter write commit together or not at all.
func (e *Engine) Toggle(
	ctx context.Context,
	productID, userEmail string,
) (*Result, error) {
	userEmail = ledger.NormalizeEmail(userEmail)
	if productID == "" || userEmail == "" {
		return nil, fmt.Errorf("toggle upvote: %w", core.ErrInvalidInput)
	}

	ctx, span := core.StartSpan(ctx, "upvote.Toggle",
		attribute.String("product_id", productID),
	)
	defer span.End()

	release, ok, err := e.locks.TryLock(ctx, pairKey(productID, userEmail))
	if err != nil {
		return nil, fmt.Errorf("toggle upvote: acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("toggle upvote: toggle in progress: %w", core.ErrConflict)
	}
	defer release()

	var result Result
	err = e.store.InTx(ctx, func(tx ledger.Tx) error {
		product, err := tx.LockProduct(ctx, productID)
		if err != nil {
			return err
		}

		if product.OwnerEmail == userEmail {
			return core.ErrForbiddenSelfVote
		}

		_, err = tx.GetUpvote(ctx, productID, userEmail)
		switch {
		case errors.Is(err, core.ErrNotFound):
			if err := tx.InsertUpvote(ctx, &ledger.Upvote{
				ProductID:    productID,
				UserEmail:    userEmail,
				ProductName:  product.Name,
				ProductImage: product.ImageURL,
			}); err != nil {
				return err
			}
			count, err := tx.AdjustUpvoteCount(ctx, productID, 1)
			if err != nil {
				return err
			}
			result = Result{ProductID: productID, State: StateAdded, Count: count}

		case err != nil:
			return err

		default:
			if err := tx.DeleteUpvote(ctx, productID, userEmail); err != nil {
				return err
			}
			count, err := tx.AdjustUpvoteCount(ctx, productID, -1)
			if err != nil {
				return err
			}
			result = Result{ProductID: productID, State: StateRemoved, Count: count}
		}

		return nil
	})
	if err != nil {
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("toggle upvote: %w", err)
	}

	core.AddSpanEvent(ctx, "upvote.toggled",
		attribute.String("product_id", productID),
		attribute.String("state", string(result.State)),
		attribute.Int("count", result.Count),
	)

	return &result, nil
}

// Replay runs a pending intent for a freshly authenticated user. An empty
// intent is a no-op and returns nil.
func (e *Engine) Replay(
	ctx context.Context,
	userEmail string,
	intent *Intent,
) (*Result, error) {
	if intent.Empty() {
		return nil, nil
	}
	return e.Toggle(ctx, strings.TrimSpace(intent.ProductID), userEmail)
}

// Recount resets a product's counter to its row count. It returns the drift
// found, or nil when the counter was already correct.
func (e *Engine) Recount(ctx context.Context, productID string) (*Drift, error) {
	var drift *Drift

	err := e.store.InTx(ctx, func(tx ledger.Tx) error {
		product, err := tx.LockProduct(ctx, productID)
		if err != nil {
			return err
		}

		actual, err := tx.CountUpvotes(ctx, productID)
		if err != nil {
			return err
		}

		if actual == product.UpvoteCount {
			return nil
		}

		drift = &Drift{ProductID: productID, Stored: product.UpvoteCount, Actual: actual}
		return tx.SetUpvoteCount(ctx, productID, actual)
	})
	if err != nil {
		return nil, fmt.Errorf("recount upvotes: %w", err)
	}

	if drift != nil {
		slog.Warn("upvote counter drift corrected",
			"product_id", drift.ProductID,
			"stored", drift.Stored,
			"actual", drift.Actual,
		)
	}

	return drift, nil
}

// RecountAll reconciles every product, one transaction each. Products that
// vanish mid-run are skipped.
func (e *Engine) RecountAll(ctx context.Context) ([]Drift, error) {
	var ids []string
	err := e.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		ids, err = tx.ListProductIDs(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("recount all: %w", err)
	}

	drifts := make([]Drift, 0)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return drifts, err
		}

		drift, err := e.Recount(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return drifts, err
		}
		if drift != nil {
			drifts = append(drifts, *drift)
		}
	}

	slog.Info("upvote recount finished",
		"products", len(ids),
		"drifted", len(drifts),
	)

	return drifts, nil
}

func (e *Engine) ListMine(
	ctx context.Context,
	userEmail, search string,
) ([]ledger.Upvote, error) {
	userEmail = ledger.NormalizeEmail(userEmail)
	if userEmail == "" {
		return nil, fmt.Errorf("list my upvotes: %w", core.ErrUnauthorized)
	}

	var upvotes []ledger.Upvote
	err := e.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		upvotes, err = tx.ListUpvotesByUser(ctx, userEmail, strings.TrimSpace(search))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list my upvotes: %w", err)
	}

	return upvotes, nil
}

// HasUpvoted reports whether the user currently holds an upvote on the product.
func (e *Engine) HasUpvoted(
	ctx context.Context,
	productID, userEmail string,
) (bool, error) {
	var found bool
	err := e.store.View(ctx, func(tx ledger.Tx) error {
		_, err := tx.GetUpvote(ctx, productID, ledger.NormalizeEmail(userEmail))
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check upvote: %w", err)
	}
	return found, nil
}
