package image

import (
	"image"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/gogpu/mapsynth/raster"
)

// Colormap maps t in [0, 1] to a color by interpolating evenly spaced
// anchors in RGB.
type Colormap struct {
	Name    string
	anchors []colorful.Color
}

// NewColormap builds a colormap from hex anchors such as "#08306b".
func NewColormap(name string, hex ...string) Colormap {
	anchors := make([]colorful.Color, len(hex))
	for i, h := range hex {
		anchors[i] = colorful.MustParseHex(h)
	}
	return Colormap{Name: name, anchors: anchors}
}

// At returns the color for t; t is clamped to [0, 1].
func (m Colormap) At(t float64) colorful.Color {
	if len(m.anchors) == 1 {
		return m.anchors[0]
	}
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(m.anchors)-1)
	i := int(pos)
	if i >= len(m.anchors)-1 {
		return m.anchors[len(m.anchors)-1]
	}
	return m.anchors[i].BlendRgb(m.anchors[i+1], pos-float64(i)).Clamped()
}

// Layer colormaps. Heights use Copper; the overlay layers use Blues for
// rivers, Greens for roads and Turbo for buildings. Single rasters are
// previewed with Viridis.
var (
	Copper = NewColormap("copper",
		"#000000", "#40281a", "#805033", "#bf784c", "#ff9f66", "#ffc77f")

	Blues = NewColormap("blues",
		"#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6",
		"#4292c6", "#2171b5", "#08519c", "#08306b")

	Greens = NewColormap("greens",
		"#f7fcf5", "#e5f5e0", "#c7e9c0", "#a1d99b", "#74c476",
		"#41ab5d", "#238b45", "#006d2c", "#00441b")

	Turbo = NewColormap("turbo",
		"#30123b", "#4145ab", "#4675ed", "#39a2fc", "#1bcfd4",
		"#24eca6", "#61fc6c", "#a4fc3b", "#d1e834", "#f3c63a",
		"#fe9b2d", "#f36315", "#d93806", "#b11901", "#7a0402")

	Viridis = NewColormap("viridis",
		"#440154", "#482878", "#3e4989", "#31688e", "#26828e",
		"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725")
)

// Colorize renders r through m after rescaling it to [0, 1]. With fade set,
// each pixel's alpha equals its rescaled value so low values vanish when the
// picture is layered over another.
func Colorize(r *raster.Raster, m Colormap, fade bool) *image.NRGBA {
	s := raster.Rescale(r)
	img := image.NewNRGBA(image.Rect(0, 0, r.Cols(), r.Rows()))
	for y := range r.Rows() {
		for x, v := range s.Row(y) {
			cr, cg, cb := m.At(v).RGB255()
			a := uint8(0xff)
			if fade {
				a = uint8(v*0xff + 0.5)
			}
			img.SetNRGBA(x, y, color.NRGBA{R: cr, G: cg, B: cb, A: a})
		}
	}
	return img
}
