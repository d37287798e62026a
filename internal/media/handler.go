// AngelaMos | 2026
// handler.go

package media

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/launchpad/internal/core"
)

const (
	formField         = "image"
	multipartOverhead = 1 << 20
)

type UploadResponse struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.With(authenticator).Post("/uploads/images", h.UploadImage)
}

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxBytes()+multipartOverhead)

	file, _, err := r.FormFile(formField)
	if err != nil {
		core.BadRequest(w, "multipart field \"image\" is required")
		return
	}
	defer file.Close() //nolint:errcheck

	upload, err := h.service.UploadImage(r.Context(), file)
	if err != nil {
		if IsTooLarge(err) {
			core.JSONError(w, core.NewAppError(
				err,
				"image is too large",
				http.StatusRequestEntityTooLarge,
				"PAYLOAD_TOO_LARGE",
			))
			return
		}
		core.HandleError(w, err)
		return
	}

	core.Created(w, UploadResponse{
		Key:         upload.Key,
		URL:         upload.URL,
		ContentType: upload.ContentType,
		Size:        upload.Size,
	})
}
