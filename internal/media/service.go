// AngelaMos | 2026
// service.go

package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/carterperez-dev/launchpad/internal/core"
)

const (
	keyPrefix       = "products/"
	defaultMaxBytes = 5 << 20
)

var ErrTooLarge = fmt.Errorf("image exceeds size limit: %w", core.ErrInvalidInput)

var allowedTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Upload struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

type Service struct {
	store         ObjectStore
	publicBaseURL string
	maxBytes      int64
}

func NewService(store ObjectStore, publicBaseURL string, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Service{
		store:         store,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		maxBytes:      maxBytes,
	}
}

func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Sniff classifies image content by its bytes, ignoring any declared type.
func Sniff(data []byte) (contentType, ext string, err error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("empty image: %w", core.ErrInvalidInput)
	}

	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if e, ok := allowedTypes[m.String()]; ok {
			return m.String(), e, nil
		}
	}

	return "", "", fmt.Errorf("unsupported image type %s: %w", mt.String(), core.ErrInvalidInput)
}

func (s *Service) UploadImage(ctx context.Context, r io.Reader) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	contentType, ext, err := Sniff(data)
	if err != nil {
		return nil, err
	}

	key := keyPrefix + uuid.NewString() + ext
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	slog.Info("image uploaded",
		"key", key,
		"content_type", contentType,
		"size", len(data),
	)

	return &Upload{
		Key:         key,
		URL:         s.publicBaseURL + "/" + key,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func IsTooLarge(err error) bool {
	return errors.Is(err, ErrTooLarge)
}
