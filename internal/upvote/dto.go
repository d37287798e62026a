// AngelaMos | 2026
// dto.go

package upvote

import (
	"time"

	"github.com/carterperez-dev/launchpad/internal/ledger"
)

type ToggleResponse struct {
	ProductID   string `json:"product_id"`
	State       State  `json:"state"`
	UpvoteCount int    `json:"upvote_count"`
}

type UpvoteResponse struct {
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	ProductImage string    `json:"product_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func ToToggleResponse(r *Result) ToggleResponse {
	return ToggleResponse{
		ProductID:   r.ProductID,
		State:       r.State,
		UpvoteCount: r.Count,
	}
}

func ToUpvoteResponseList(upvotes []ledger.Upvote) []UpvoteResponse {
	out := make([]UpvoteResponse, len(upvotes))
	for i, u := range upvotes {
		out[i] = UpvoteResponse{
			ProductID:    u.ProductID,
			ProductName:  u.ProductName,
			ProductImage: u.ProductImage,
			CreatedAt:    u.CreatedAt,
		}
	}
	return out
}
