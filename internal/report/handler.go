// AngelaMos | 2026
// handler.go

package report

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
	r.With(authenticator).Post("/products/{productID}/reports", h.FileReport)
}

func (h *Handler) RegisterModerationRoutes(
	r chi.Router,
	authenticator, moderatorOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(moderatorOnly)

		r.Get("/moderation/reports", h.ListReportedProducts)
		r.Get("/moderation/products/{productID}/reports", h.ListReportsFor)
	})
}

func (h *Handler) FileReport(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req FileReportRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	report, err := h.service.FileReport(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		productID,
		req.Reason,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	count, err := h.service.ReportCount(r.Context(), productID)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, FileReportResponse{
		ID:          report.ID,
		ProductID:   productID,
		ReportCount: count,
	})
}

func (h *Handler) ListReportsFor(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.ListReportsFor(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		chi.URLParam(r, "productID"),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToReportResponseList(reports))
}

func (h *Handler) ListReportedProducts(w http.ResponseWriter, r *http.Request) {
	reported, err := h.service.ListReportedProducts(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		r.URL.Query().Get("search"),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToReportedProductResponseList(reported))
}
