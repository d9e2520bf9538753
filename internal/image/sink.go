package image

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/mapsynth/raster"
)

// Dir writes every raster it receives as a colorized PNG preview, and
// optionally a PGM, into one directory.
type Dir struct {
	path     string
	colormap Colormap
	maxSide  int
	pgm      bool
}

// NewDir creates the directory if needed. Previews use cm; a maxSide above
// zero bounds the longer side of each preview.
func NewDir(path string, cm Colormap, maxSide int, pgm bool) (*Dir, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	return &Dir{path: path, colormap: cm, maxSide: maxSide, pgm: pgm}, nil
}

// Emit writes name.png and, if enabled, name.pgm.
func (d *Dir) Emit(name string, r *raster.Raster) error {
	img := Fit(Colorize(r, d.colormap, false), d.maxSide)
	if err := SavePNG(filepath.Join(d.path, name+".png"), img); err != nil {
		return err
	}
	if !d.pgm {
		return nil
	}

	f, err := os.Create(filepath.Join(d.path, name+".pgm"))
	if err != nil {
		return fmt.Errorf("image: create file: %w", err)
	}
	if err := WritePGM(f, r, 0xffff); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// SaveComposite writes a composite picture as name.png.
func (d *Dir) SaveComposite(name string, base Overlay, overlays []Overlay, opts ...CompositeOption) error {
	img, err := Composite(base, overlays, opts...)
	if err != nil {
		return err
	}
	return SavePNG(filepath.Join(d.path, name+".png"), img)
}
