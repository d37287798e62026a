// AngelaMos | 2026
// dto.go

package product

import (
	"time"

	"github.com/carterperez-dev/launchpad/internal/ledger"
)

type SubmitProductRequest struct {
	Name         string   `json:"name"          validate:"required,min=1,max=120"`
	ImageURL     string   `json:"image_url"     validate:"omitempty,url,max=2048"`
	Description  string   `json:"description"   validate:"max=5000"`
	ExternalLink string   `json:"external_link" validate:"omitempty,url,max=2048"`
	Tags         []string `json:"tags"          validate:"max=20,dive,max=40"`
}

func (r SubmitProductRequest) Content() Content {
	return Content{
		Name:         r.Name,
		ImageURL:     r.ImageURL,
		Description:  r.Description,
		ExternalLink: r.ExternalLink,
		Tags:         r.Tags,
	}
}

type SetFeaturedRequest struct {
	Featured *bool `json:"featured" validate:"required"`
}

type ProductResponse struct {
	ID           string     `json:"id"`
	Slug         string     `json:"slug"`
	Name         string     `json:"name"`
	ImageURL     string     `json:"image_url,omitempty"`
	Description  string     `json:"description"`
	ExternalLink string     `json:"external_link,omitempty"`
	Tags         []string   `json:"tags"`
	OwnerEmail   string     `json:"owner_email"`
	Status       string     `json:"status"`
	Featured     bool       `json:"featured"`
	UpvoteCount  int        `json:"upvote_count"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func ToProductResponse(p *ledger.Product) ProductResponse {
	tags := []string(p.Tags)
	if tags == nil {
		tags = []string{}
	}

	return ProductResponse{
		ID:           p.ID,
		Slug:         p.Slug,
		Name:         p.Name,
		ImageURL:     p.ImageURL,
		Description:  p.Description,
		ExternalLink: p.ExternalLink,
		Tags:         tags,
		OwnerEmail:   p.OwnerEmail,
		Status:       string(p.Status),
		Featured:     p.Featured,
		UpvoteCount:  p.UpvoteCount,
		AcceptedAt:   p.AcceptedAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func ToProductResponseList(products []ledger.Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, ToProductResponse(&products[i]))
	}
	return responses
}
