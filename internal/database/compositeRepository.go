package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/ds124wfegd/photoframe/internal/pkg/storage"
)

// Every composite owns one directory:
//
//	composites/<id>/metadata.json
//	composites/<id>/composite.jpg
//	composites/<id>/inputs/<name>
const (
	rootDir      = "composites"
	metadataFile = "metadata.json"
	imageFile    = "composite.jpg"
	inputsDir    = "inputs"
)

func NewCompositeRepository(storage storage.FileStorage) CompositeRepository {
	return &fileCompositeRepository{storage: storage}
}

func (r *fileCompositeRepository) Save(composite *entity.Composite) error {
	if !validID(composite.ID) {
		return fmt.Errorf("%w: composite id %q", entity.ErrInvalidInput, composite.ID)
	}
	data, err := json.Marshal(composite)
	if err != nil {
		return err
	}
	return r.storage.Save(r.path(composite.ID, metadataFile), bytes.NewReader(data))
}

func (r *fileCompositeRepository) FindByID(id string) (*entity.Composite, error) {
	if !validID(id) {
		return nil, entity.ErrCompositeNotFound
	}
	reader, err := r.storage.Get(r.path(id, metadataFile))
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, storage.ErrInvalidPath) {
			return nil, entity.ErrCompositeNotFound
		}
		return nil, err
	}
	defer reader.Close()

	var composite entity.Composite
	if err := json.NewDecoder(reader).Decode(&composite); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", id, err)
	}
	return &composite, nil
}

func (r *fileCompositeRepository) Delete(id string) error {
	if !validID(id) || !r.storage.Exists(r.path(id, metadataFile)) {
		return entity.ErrCompositeNotFound
	}
	return r.storage.DeleteAll(path.Join(rootDir, id))
}

func (r *fileCompositeRepository) SaveImage(id string, data io.Reader) error {
	if !validID(id) {
		return fmt.Errorf("%w: composite id %q", entity.ErrInvalidInput, id)
	}
	return r.storage.Save(r.path(id, imageFile), data)
}

func (r *fileCompositeRepository) OpenImage(id string) (io.ReadCloser, error) {
	if !validID(id) {
		return nil, entity.ErrCompositeNotFound
	}
	reader, err := r.storage.Get(r.path(id, imageFile))
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, storage.ErrInvalidPath) {
			return nil, entity.ErrCompositeNotFound
		}
		return nil, err
	}
	return reader, nil
}

func (r *fileCompositeRepository) SaveInput(id, name string, data io.Reader) (string, error) {
	if !validID(id) {
		return "", fmt.Errorf("%w: composite id %q", entity.ErrInvalidInput, id)
	}
	p := r.path(id, path.Join(inputsDir, path.Base(name)))
	if err := r.storage.Save(p, data); err != nil {
		return "", err
	}
	return r.storage.Path(p)
}

func (r *fileCompositeRepository) path(id, name string) string {
	return path.Join(rootDir, id, name)
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
