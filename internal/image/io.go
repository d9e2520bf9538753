// Package image converts between rasters and pictures: it decodes sketch
// images into rasters, renders rasters through colormaps and writes PNG and
// PGM files.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	"image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP

	"github.com/gogpu/mapsynth/raster"
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when the image format is not supported.
	ErrUnsupportedFormat = errors.New("image: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("image: empty data")
)

// LoadGray loads an image file as a raster of luminance in [0, 1].
// PNG, JPEG, GIF, BMP, TIFF, WebP and PGM are recognized by content.
func LoadGray(path string) (*raster.Raster, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("image: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return DecodeGray(f)
}

// LoadGrayFromBytes decodes an in-memory image as a luminance raster.
func LoadGrayFromBytes(data []byte) (*raster.Raster, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	return DecodeGray(bytes.NewReader(data))
}

// DecodeGray decodes an image and converts it to luminance in [0, 1].
func DecodeGray(r io.Reader) (*raster.Raster, error) {
	img, _, err := image.Decode(r)
	if errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	if err != nil {
		return nil, fmt.Errorf("image: decode: %w", err)
	}
	return FromImage(img)
}

// FromImage converts img to a raster of 16-bit luminance scaled to [0, 1].
// Row i of the raster is row i of the picture.
func FromImage(img image.Image) (*raster.Raster, error) {
	b := img.Bounds()
	out, err := raster.New(b.Dy(), b.Dx())
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}

	// Fast paths for the formats PGM and grayscale PNG decode into.
	switch g := img.(type) {
	case *image.Gray:
		for y := range b.Dy() {
			row := out.Row(y)
			pix := g.Pix[y*g.Stride:]
			for x := range row {
				row[x] = float64(pix[x]) / 0xff
			}
		}
		return out, nil
	case *image.Gray16:
		for y := range b.Dy() {
			row := out.Row(y)
			pix := g.Pix[y*g.Stride:]
			for x := range row {
				row[x] = float64(uint16(pix[2*x])<<8|uint16(pix[2*x+1])) / 0xffff
			}
		}
		return out, nil
	}

	for y := range b.Dy() {
		row := out.Row(y)
		for x := range row {
			c := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			row[x] = float64(c.Y) / 0xffff
		}
	}
	return out, nil
}

// ToGray16 renders r as a 16-bit grayscale picture, rescaled so its minimum
// is black and its maximum white.
func ToGray16(r *raster.Raster) *image.Gray16 {
	s := raster.Rescale(r)
	img := image.NewGray16(image.Rect(0, 0, r.Cols(), r.Rows()))
	for y := range r.Rows() {
		row := s.Row(y)
		for x, v := range row {
			img.SetGray16(x, y, color.Gray16{Y: uint16(v*0xffff + 0.5)})
		}
	}
	return img
}

// SavePNG saves img as a PNG file.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("image: create file: %w", err)
	}

	if err := EncodePNG(f, img); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// EncodePNG encodes img as PNG to w.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("image: encode PNG: %w", err)
	}
	return nil
}
