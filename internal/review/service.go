// AngelaMos | 2026
// service.go

package review

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

const (
	MaxRating     = 5.0
	maxTextLength = 2000
)

type Summary struct {
	Count   int
	Average float64
}

type Service struct {
	store ledger.Store
}

func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// ValidRating accepts 0 to 5 in half steps.
func ValidRating(r float64) bool {
	if math.IsNaN(r) || r < 0 || r > MaxRating {
		return false
	}
	return r*2 == math.Trunc(r*2)
}

// AddReview appends a review. One user may review a product many times.
func (s *Service) AddReview(
	ctx context.Context,
	reviewerEmail, productID string,
	rating float64,
	text string,
) (*ledger.Review, error) {
	reviewerEmail = ledger.NormalizeEmail(reviewerEmail)
	if reviewerEmail == "" {
		return nil, fmt.Errorf("add review: %w", core.ErrUnauthorized)
	}
	if !ValidRating(rating) {
		return nil, fmt.Errorf("add review: rating %v: %w", rating, core.ErrInvalidInput)
	}

	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > maxTextLength {
		return nil, fmt.Errorf("add review: text too long: %w", core.ErrInvalidInput)
	}

	review := &ledger.Review{
		ID:            uuid.New().String(),
		ProductID:     productID,
		ReviewerEmail: reviewerEmail,
		Rating:        rating,
		Text:          text,
	}

	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetProduct(ctx, productID); err != nil {
			return err
		}

		reviewer, err := tx.GetUser(ctx, reviewerEmail)
		if err != nil {
			return err
		}
		review.ReviewerName = reviewer.DisplayName

		return tx.InsertReview(ctx, review)
	})
	if err != nil {
		return nil, fmt.Errorf("add review: %w", err)
	}

	return review, nil
}

func (s *Service) ListReviews(
	ctx context.Context,
	productID string,
) ([]ledger.Review, Summary, error) {
	var reviews []ledger.Review
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		var err error
		reviews, err = tx.ListReviews(ctx, productID)
		return err
	})
	if err != nil {
		return nil, Summary{}, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, Summarize(reviews), nil
}

func Summarize(reviews []ledger.Review) Summary {
	if len(reviews) == 0 {
		return Summary{}
	}

	var sum float64
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := sum / float64(len(reviews))

	return Summary{
		Count:   len(reviews),
		Average: math.Round(avg*100) / 100,
	}
}
