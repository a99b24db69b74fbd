package database

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/ds124wfegd/photoframe/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (CompositeRepository, string) {
	base := t.TempDir()
	return NewCompositeRepository(storage.NewFileStorage(base)), base
}

func TestSaveAndFind(t *testing.T) {
	repo, _ := newRepo(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	in := &entity.Composite{
		ID:        "c1",
		Status:    entity.StatusCompleted,
		Layout:    entity.TwoByOne,
		Flow:      entity.FlowPhotobooth,
		Width:     900,
		Height:    1800,
		Slots:     entity.SlotSet{{X: 1, Y: 2, W: 4, H: 3}},
		Strategy:  "frame",
		CreatedAt: created,
	}
	require.NoError(t, repo.Save(in))

	got, err := repo.FindByID("c1")
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestFindUnknown(t *testing.T) {
	repo, _ := newRepo(t)

	for _, id := range []string{"missing", "../escape"} {
		_, err := repo.FindByID(id)
		assert.ErrorIs(t, err, entity.ErrCompositeNotFound, id)
	}
}

func TestImageRoundTrip(t *testing.T) {
	repo, _ := newRepo(t)

	_, err := repo.OpenImage("c1")
	assert.ErrorIs(t, err, entity.ErrCompositeNotFound)

	require.NoError(t, repo.SaveImage("c1", strings.NewReader("jpeg")))
	r, err := repo.OpenImage("c1")
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}

func TestSaveInput(t *testing.T) {
	repo, base := newRepo(t)

	p, err := repo.SaveInput("c1", "nested/photo-0.png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "composites", "c1", "inputs", "photo-0.png"), p)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestDeleteRemovesEverything(t *testing.T) {
	repo, base := newRepo(t)

	require.NoError(t, repo.Save(&entity.Composite{ID: "c1", Status: entity.StatusCompleted}))
	require.NoError(t, repo.SaveImage("c1", strings.NewReader("jpeg")))
	_, err := repo.SaveInput("c1", "frame.svg", strings.NewReader("<svg/>"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete("c1"))

	_, err = os.Stat(filepath.Join(base, "composites", "c1"))
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, repo.Delete("c1"), entity.ErrCompositeNotFound)
}

func TestRejectsInvalidIDs(t *testing.T) {
	repo, _ := newRepo(t)

	for _, id := range []string{"", "..", "a/b", `a\b`} {
		assert.ErrorIs(t, repo.Save(&entity.Composite{ID: id}), entity.ErrInvalidInput, id)
		assert.ErrorIs(t, repo.SaveImage(id, strings.NewReader("x")), entity.ErrInvalidInput, id)
		assert.ErrorIs(t, repo.Delete(id), entity.ErrCompositeNotFound, id)
	}
}
