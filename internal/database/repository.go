package database

import (
	"io"

	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/ds124wfegd/photoframe/internal/pkg/storage"
)

type CompositeRepository interface {
	Save(composite *entity.Composite) error
	FindByID(id string) (*entity.Composite, error)
	Delete(id string) error
	SaveImage(id string, data io.Reader) error
	OpenImage(id string) (io.ReadCloser, error)
	// SaveInput stores an uploaded frame or photo and returns its absolute path.
	SaveInput(id, name string, data io.Reader) (string, error)
}

type fileCompositeRepository struct {
	storage storage.FileStorage
}
