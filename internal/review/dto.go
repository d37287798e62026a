// AngelaMos | 2026
// dto.go

package review

import (
	"time"

	"github.com/carterperez-dev/launchpad/internal/ledger"
)

type AddReviewRequest struct {
	Rating *float64 `json:"rating" validate:"required,gte=0,lte=5"`
	Text   string   `json:"text"   validate:"max=2000"`
}

type ReviewResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	ReviewerName string    `json:"reviewer_name"`
	Rating       float64   `json:"rating"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
}

type ReviewListResponse struct {
	Reviews       []ReviewResponse `json:"reviews"`
	Count         int              `json:"count"`
	AverageRating float64          `json:"average_rating"`
}

func ToReviewResponse(r *ledger.Review) ReviewResponse {
	return ReviewResponse{
		ID:           r.ID,
		ProductID:    r.ProductID,
		ReviewerName: r.ReviewerName,
		Rating:       r.Rating,
		Text:         r.Text,
		CreatedAt:    r.CreatedAt,
	}
}

func ToReviewListResponse(reviews []ledger.Review, summary Summary) ReviewListResponse {
	out := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, ToReviewResponse(&reviews[i]))
	}
	return ReviewListResponse{
		Reviews:       out,
		Count:         summary.Count,
		AverageRating: summary.Average,
	}
}
