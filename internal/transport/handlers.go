package transport

import (
	"github.com/ds124wfegd/photoframe/internal/service"
)

// DefaultMaxUploadBytes limits a single uploaded frame or photo.
const DefaultMaxUploadBytes = 20 << 20

type CompositeHandler struct {
	service        service.CompositeService
	maxUploadBytes int64
}

func NewCompositeHandler(service service.CompositeService, maxUploadBytes int64) *CompositeHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &CompositeHandler{service: service, maxUploadBytes: maxUploadBytes}
}
