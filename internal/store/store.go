// Package store persists rasters as compressed, bit-exact artifacts.
//
// An artifact (.msr) is the magic "MSRA" followed by a zstd frame holding a
// big-endian header (format version, rows, cols) and the IEEE-754 bits of
// every sample in row-major order. Unlike the PNG previews, artifacts keep
// full float64 precision and can be fed back into a later run.
package store

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gogpu/mapsynth/raster"
)

const (
	rasterMagic   = "MSRA"
	rasterVersion = 1
	headerSize    = 12

	// Ext is the artifact file extension.
	Ext = ".msr"
)

// MarshalRaster encodes r as an artifact.
func MarshalRaster(r *raster.Raster) []byte {
	payload := make([]byte, headerSize, headerSize+8*r.Len())
	binary.BigEndian.PutUint32(payload[0:4], rasterVersion)
	binary.BigEndian.PutUint32(payload[4:8], uint32(r.Rows()))
	binary.BigEndian.PutUint32(payload[8:12], uint32(r.Cols()))
	for _, v := range r.Data() {
		payload = binary.BigEndian.AppendUint64(payload, math.Float64bits(v))
	}
	return EncodeFrame(rasterMagic, payload)
}

// UnmarshalRaster decodes an artifact produced by MarshalRaster.
func UnmarshalRaster(data []byte) (*raster.Raster, error) {
	payload, err := DecodeFrame(rasterMagic, data)
	if err != nil {
		return nil, err
	}
	if len(payload) < headerSize {
		return nil, fmt.Errorf("store: truncated header: %d bytes", len(payload))
	}
	if v := binary.BigEndian.Uint32(payload[0:4]); v != rasterVersion {
		return nil, fmt.Errorf("store: unsupported version %d", v)
	}
	rows := int(binary.BigEndian.Uint32(payload[4:8]))
	cols := int(binary.BigEndian.Uint32(payload[8:12]))
	body := payload[headerSize:]
	if len(body) != 8*rows*cols {
		return nil, fmt.Errorf("store: %d payload bytes for %dx%d", len(body), rows, cols)
	}

	data64 := make([]float64, rows*cols)
	for i := range data64 {
		data64[i] = math.Float64frombits(binary.BigEndian.Uint64(body[8*i:]))
	}
	return raster.FromSlice(rows, cols, data64)
}

// Save writes r to path.
func Save(path string, r *raster.Raster) error {
	if err := os.WriteFile(filepath.Clean(path), MarshalRaster(r), 0o644); err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	return nil
}

// Load reads an artifact from path.
func Load(path string) (*raster.Raster, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}
	r, err := UnmarshalRaster(data)
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", path, err)
	}
	return r, nil
}

var validName = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Dir stores named artifacts in one directory.
type Dir struct {
	path string
}

// NewDir creates the directory if needed.
func NewDir(path string) (*Dir, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory.
func (d *Dir) Path() string { return d.path }

// File returns the artifact path for name.
func (d *Dir) File(name string) string {
	return filepath.Join(d.path, name+Ext)
}

// Emit stores r under name, replacing any previous artifact.
func (d *Dir) Emit(name string, r *raster.Raster) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("store: invalid artifact name %q", name)
	}
	return Save(d.File(name), r)
}

// Load reads the artifact stored under name.
func (d *Dir) Load(name string) (*raster.Raster, error) {
	return Load(d.File(name))
}
