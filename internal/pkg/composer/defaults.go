package composer

import (
	"context"
	"embed"
	"image"
	"io/fs"

	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/ds124wfegd/photoframe/internal/pkg/loader"
)

//go:embed assets/*.svg
var assets embed.FS

var defaultFrames = mustSub(assets, "assets")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

func (c *Composer) loadDefaultFrame(ctx context.Context, layout entity.LayoutType) (image.Image, error) {
	name := layout.String() + ".svg"
	data, err := fs.ReadFile(c.frames, name)
	if err != nil {
		return nil, &entity.ImageDecodeError{Source: "default frame " + name, Err: err}
	}
	return c.loader.Load(ctx, loader.FromBytes("default frame "+name, data),
		loader.WithRasterSize(layout.Width(), layout.Height()))
}
