// AngelaMos | 2026
// handler.go

package product

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
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
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListPublic)
		r.With(optionalAuth).Get("/{productID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Post("/", h.Submit)
			r.Get("/mine", h.ListMine)
			r.Put("/{productID}", h.Update)
			r.Delete("/{productID}", h.DeleteOwn)
		})
	})
}

// RegisterModerationRoutes mounts the review queue and status commands.
// The role in the token is a coarse gate; the service re-checks the ledger.
func (h *Handler) RegisterModerationRoutes(
	r chi.Router,
	authenticator, moderatorOnly func(http.Handler) http.Handler,
) {
	r.Route("/moderation", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(moderatorOnly)

		r.Get("/queue", h.Queue)
		r.Post("/products/{productID}/accept", h.Accept)
		r.Post("/products/{productID}/reject", h.Reject)
		r.Put("/products/{productID}/featured", h.SetFeatured)
		r.Delete("/products/{productID}", h.Delete)
	})
}

func listParams(r *http.Request) ListParams {
	q := r.URL.Query()
	params := ListParams{
		Search:   q.Get("search"),
		Tag:      q.Get("tag"),
		Status:   ledger.Status(q.Get("status")),
		Featured: core.ParseBoolQuery(r, "featured"),
		Page:     core.ParseIntQuery(r, "page", 1),
		PageSize: core.ParseIntQuery(r, "page_size", 20),
	}
	params.Normalize()
	return params
}

func (h *Handler) decodeContent(w http.ResponseWriter, r *http.Request) (Content, bool) {
	var req SubmitProductRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return Content{}, false
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return Content{}, false
	}

	return req.Content(), true
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	content, ok := h.decodeContent(w, r)
	if !ok {
		return
	}

	product, err := h.service.Submit(r.Context(), middleware.GetUserEmail(r.Context()), content)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToProductResponse(product))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		chi.URLParam(r, "productID"),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToProductResponse(product))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	content, ok := h.decodeContent(w, r)
	if !ok {
		return
	}

	product, err := h.service.Update(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		chi.URLParam(r, "productID"),
		content,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToProductResponse(product))
}

func (h *Handler) DeleteOwn(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteOwn(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		chi.URLParam(r, "productID"),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	products, total, err := h.service.ListPublic(r.Context(), params)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Paginated(w, ToProductResponseList(products), params.Page, params.PageSize, total)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	products, total, err := h.service.ListMine(r.Context(), middleware.GetUserEmail(r.Context()), params)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Paginated(w, ToProductResponseList(products), params.Page, params.PageSize, total)
}

func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	products, total, err := h.service.Queue(r.Context(), middleware.GetUserEmail(r.Context()), params)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Paginated(w, ToProductResponseList(products), params.Page, params.PageSize, total)
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Accept(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		chi.URLParam(r, "productID"),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToProductResponse(product))
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Reject(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		chi.URLParam(r, "productID"),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToProductResponse(product))
}

func (h *Handler) SetFeatured(w http.ResponseWriter, r *http.Request) {
	var req SetFeaturedRequest
	if err := core.DecodeJSON(r, &req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	product, err := h.service.SetFeatured(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		chi.URLParam(r, "productID"),
		*req.Featured,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToProductResponse(product))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserEmail(r.Context()),
		chi.URLParam(r, "productID"),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}
