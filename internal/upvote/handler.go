// AngelaMos | 2026
// handler.go

package upvote

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/middleware"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/products/{productID}/upvote", h.Toggle)
		r.Get("/upvotes/mine", h.ListMine)
	})
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	email := middleware.GetUserEmail(r.Context())

	result, err := h.engine.Toggle(r.Context(), productID, email)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToToggleResponse(result))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	email := middleware.GetUserEmail(r.Context())

	upvotes, err := h.engine.ListMine(r.Context(), email, r.URL.Query().Get("search"))
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToUpvoteResponseList(upvotes))
}
