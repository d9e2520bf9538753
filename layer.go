package mapsynth

import (
	"fmt"

	"github.com/gogpu/mapsynth/raster"
)

// Layer identifies one semantic map layer.
type Layer uint8

const (
	Heights Layer = iota
	Roads
	Rivers
	Buildings
)

var allLayers = [...]Layer{Heights, Roads, Rivers, Buildings}

// Layers returns every layer in generation order.
func Layers() []Layer {
	return allLayers[:]
}

// String returns the layer name used in stage keys and output names.
func (l Layer) String() string {
	switch l {
	case Heights:
		return "heights"
	case Roads:
		return "roads"
	case Rivers:
		return "rivers"
	case Buildings:
		return "buildings"
	default:
		return fmt.Sprintf("Layer(%d)", uint8(l))
	}
}

// Level is a resolution level: how many final-output cells one cell of a
// raster covers along each axis.
type Level int

const (
	Level1  Level = 1
	Level4  Level = 4
	Level16 Level = 16
	Level64 Level = 64
)

// String returns the level as used in output names, e.g. "16x".
func (l Level) String() string {
	return fmt.Sprintf("%dx", int(l))
}

// Stage is one step of the generation cascade.
type Stage uint8

const (
	// Stage16 generates the 16x grid from the sketches.
	Stage16 Stage = iota

	// Stage4 refines the 16x maps to 4x.
	Stage4

	// Stage1 refines the 4x maps to full resolution. Roads, rivers and
	// buildings come out blurry here.
	Stage1

	// StageSharp rounds the blurry full-resolution roads, rivers and
	// buildings using only their own local window.
	StageSharp
)

var generationStages = [...]Stage{Stage16, Stage4, Stage1}

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case Stage16:
		return "64-16"
	case Stage4:
		return "64-16-4"
	case Stage1:
		return "16-4-1"
	case StageSharp:
		return "sharp"
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s))
	}
}

// Level returns the resolution the stage writes.
func (s Stage) Level() Level {
	switch s {
	case Stage16:
		return Level16
	case Stage4:
		return Level4
	default:
		return Level1
	}
}

// Key returns the stage configuration key of the predictor that generates
// layer l at this stage, or "" if the stage does not generate l.
func (s Stage) Key(l Layer) string {
	switch {
	case l > Buildings || s > StageSharp:
		return ""
	case s == StageSharp && l == Heights:
		return ""
	case s == StageSharp:
		return l.String() + "_sharp"
	case s == Stage1 && l != Heights:
		return l.String() + "_16-4-blurry"
	default:
		return l.String() + "_" + s.String()
	}
}

// outputName names the raster a stage emits for l: heights_16x,
// roads_blurry_1x, roads_1x and so on.
func (s Stage) outputName(l Layer) string {
	switch {
	case s == Stage1 && l != Heights:
		return l.String() + "_blurry_" + s.Level().String()
	default:
		return l.String() + "_" + s.Level().String()
	}
}

// parseKey maps a stage configuration key back to its stage and layer.
func parseKey(key string) (Stage, Layer, bool) {
	for s := Stage16; s <= StageSharp; s++ {
		for _, l := range allLayers {
			if k := s.Key(l); k != "" && k == key {
				return s, l, true
			}
		}
	}
	return 0, 0, false
}

// Maps holds one raster per layer.
type Maps struct {
	Heights   *raster.Raster
	Roads     *raster.Raster
	Rivers    *raster.Raster
	Buildings *raster.Raster
}

// Get returns the raster of layer l.
func (m *Maps) Get(l Layer) *raster.Raster {
	switch l {
	case Heights:
		return m.Heights
	case Roads:
		return m.Roads
	case Rivers:
		return m.Rivers
	case Buildings:
		return m.Buildings
	default:
		return nil
	}
}

// Set replaces the raster of layer l.
func (m *Maps) Set(l Layer, r *raster.Raster) {
	switch l {
	case Heights:
		m.Heights = r
	case Roads:
		m.Roads = r
	case Rivers:
		m.Rivers = r
	case Buildings:
		m.Buildings = r
	}
}

// check verifies that every layer is present and all share one shape.
func (m *Maps) check() error {
	for _, l := range allLayers {
		if m.Get(l) == nil {
			return fmt.Errorf("%w: %s missing", ErrShapeMismatch, l)
		}
	}
	for _, l := range allLayers[1:] {
		if r := m.Get(l); !r.SameShape(m.Heights) {
			return fmt.Errorf("%w: %s is %v, heights is %v", ErrShapeMismatch, l, r, m.Heights)
		}
	}
	return nil
}

// rescaled returns a copy of m with every layer rescaled to [0, 1].
func (m *Maps) rescaled() Maps {
	var out Maps
	for _, l := range allLayers {
		out.Set(l, raster.Rescale(m.Get(l)))
	}
	return out
}
