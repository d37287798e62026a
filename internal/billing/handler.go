// AngelaMos | 2026
// handler.go

package billing

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
	r.Route("/billing", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/checkout", h.Checkout)
		r.Post("/confirm", h.Confirm)
	})
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if r.ContentLength != 0 {
		if err := core.DecodeJSON(r, &req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.service.Checkout(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		req.CouponCode,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToCheckoutResponse(result))
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.Confirm(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		req.IntentID,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToMembershipResponse(user))
}
