package image

import (
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gogpu/mapsynth/raster"
)

// Overlay is one named raster and the colormap it is drawn with.
type Overlay struct {
	Name     string
	Raster   *raster.Raster
	Colormap Colormap
}

// CompositeOption configures Composite.
type CompositeOption func(*compositeOptions)

type compositeOptions struct {
	legend bool
	scale  int
}

func defaultCompositeOptions() compositeOptions {
	return compositeOptions{legend: true, scale: 1}
}

// WithLegend enables or disables the layer legend. The default is enabled.
func WithLegend(on bool) CompositeOption {
	return func(o *compositeOptions) {
		o.legend = on
	}
}

// WithScale enlarges the picture by an integer factor before the legend is
// drawn, so small maps stay readable. Values below 1 are ignored.
func WithScale(factor int) CompositeOption {
	return func(o *compositeOptions) {
		if factor >= 1 {
			o.scale = factor
		}
	}
}

var (
	legendFace  = inconsolata.Regular8x16
	legendInk   = image.NewUniform(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	legendShade = image.NewUniform(color.NRGBA{A: 0xa0})
)

// Composite draws base opaquely and every overlay on top of it, faded by
// value, in order. All rasters must share base's shape.
func Composite(base Overlay, overlays []Overlay, opts ...CompositeOption) (*image.NRGBA, error) {
	o := defaultCompositeOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dst := Colorize(base.Raster, base.Colormap, false)
	for _, ov := range overlays {
		if !ov.Raster.SameShape(base.Raster) {
			return nil, fmt.Errorf("image: composite: %s is %v, %s is %v",
				ov.Name, ov.Raster, base.Name, base.Raster)
		}
		src := Colorize(ov.Raster, ov.Colormap, true)
		xdraw.Draw(dst, dst.Bounds(), src, image.Point{}, xdraw.Over)
	}

	if o.scale > 1 {
		dst = Scale(dst, o.scale)
	}
	if o.legend {
		drawLegend(dst, append([]Overlay{base}, overlays...))
	}
	return dst, nil
}

// Scale enlarges img by an integer factor with nearest-neighbour sampling,
// keeping every cell a crisp square.
func Scale(img image.Image, factor int) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Fit resizes img to fit within maxSide pixels on its longer side using
// Catmull-Rom resampling. Pictures already small enough are returned as is.
func Fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	side := max(b.Dx(), b.Dy())
	if maxSide <= 0 || side <= maxSide {
		return img
	}
	w := max(1, b.Dx()*maxSide/side)
	h := max(1, b.Dy()*maxSide/side)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// drawLegend stamps one swatch and title-cased label per layer in the
// top-left corner on a translucent backdrop.
func drawLegend(dst *image.NRGBA, layers []Overlay) {
	const (
		pad    = 4
		line   = 16
		swatch = 10
	)
	title := cases.Title(language.English)
	labels := make([]string, len(layers))
	width := 0
	for i, l := range layers {
		labels[i] = title.String(l.Name)
		width = max(width, font.MeasureString(legendFace, labels[i]).Ceil())
	}
	box := image.Rect(0, 0, 3*pad+swatch+width, pad*2+line*len(layers))
	xdraw.Draw(dst, box, legendShade, image.Point{}, xdraw.Over)

	d := font.Drawer{Dst: dst, Src: legendInk, Face: legendFace}
	for i, l := range layers {
		top := pad + i*line
		sw := image.Rect(pad, top+(line-swatch)/2, pad+swatch, top+(line+swatch)/2)
		xdraw.Draw(dst, sw, image.NewUniform(l.Colormap.At(0.75)), image.Point{}, xdraw.Src)

		d.Dot = fixed.Point26_6{X: fixed.I(2*pad + swatch), Y: fixed.I(top + 12)}
		d.DrawString(labels[i])
	}
}
