// AngelaMos | 2026
// handler.go

package coupon

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
	r.With(authenticator).Post("/coupons/validate", h.Validate)
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/coupons", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{code}", h.Update)
		r.Delete("/{code}", h.Delete)
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := core.DecodeJSON(r, dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateCouponRequest
	if !h.decode(w, r, &req) {
		return
	}

	coupon, err := h.service.Validate(r.Context(), req.Code)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToCouponResponse(coupon))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.List(r.Context(), middleware.GetUserEmail(r.Context()))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToCouponResponseList(coupons))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CouponRequest
	if !h.decode(w, r, &req) {
		return
	}

	in, err := req.Input()
	if err != nil {
		core.BadRequest(w, "expiry_date must be YYYY-MM-DD")
		return
	}

	coupon, err := h.service.Create(r.Context(), middleware.GetUserEmail(r.Context()), in)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToCouponResponse(coupon))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCouponRequest
	if !h.decode(w, r, &req) {
		return
	}

	in, err := req.Input()
	if err != nil {
		core.BadRequest(w, "expiry_date must be YYYY-MM-DD")
		return
	}

	coupon, err := h.service.Update(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		chi.URLParam(r, "code"),
		in,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToCouponResponse(coupon))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		chi.URLParam(r, "code"),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}
