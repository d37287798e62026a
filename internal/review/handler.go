// AngelaMos | 2026
// handler.go

package review

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Get("/products/{productID}/reviews", h.List)
	r.With(authenticator).Post("/products/{productID}/reviews", h.Add)
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddReviewRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	review, err := h.service.AddReview(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		chi.URLParam(r, "productID"),
		*req.Rating,
		req.Text,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToReviewResponse(review))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	reviews, summary, err := h.service.ListReviews(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToReviewListResponse(reviews, summary))
}
