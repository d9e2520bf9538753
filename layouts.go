package mapsynth

import (
	"fmt"

	"github.com/gogpu/mapsynth/internal/synth"
	"github.com/gogpu/mapsynth/raster"
)

// Source names bound by the pipeline and the dataset builder.
const (
	srcRowDiff = "heights.rows"
	srcColDiff = "heights.cols"
	srcBlurry  = "blurry"
)

func sketchSource(l Layer) string  { return "sketch." + l.String() }
func prevSource(l Layer) string    { return "prev." + l.String() }
func currentSource(l Layer) string { return l.String() }

// stageLayout returns the context layout of the predictor generating l at
// stage s. Sketch sources are read at reduction 64 around the mapped cell;
// everything else is local to the stage grid.
func stageLayout(s Stage, l Layer) synth.Layout {
	log := func(src string, red int) synth.Segment {
		return synth.Segment{Source: src, Reduction: red, Encoding: synth.Log}
	}
	rel := func(src string, red int, enc synth.Encoding) synth.Segment {
		return synth.Segment{Source: src, Reduction: red, Encoding: enc}
	}
	h := currentSource(Heights)
	roads, rivers := currentSource(Roads), currentSource(Rivers)

	var segs []synth.Segment
	switch {
	case s == StageSharp:
		segs = []synth.Segment{log(srcBlurry, 1)}

	case l == Heights && s == Stage16:
		segs = []synth.Segment{rel(sketchSource(Heights), 64, synth.RelativeReversed)}

	case l == Heights:
		segs = []synth.Segment{
			rel(prevSource(Heights), 16, synth.RelativeReversed),
			rel(prevSource(Heights), 4, synth.RelativeReversed),
		}

	case l == Buildings && s == Stage16:
		segs = []synth.Segment{
			rel(h, 16, synth.RelativeLog), log(rivers, 16), log(roads, 16),
			log(sketchSource(Buildings), 64),
			rel(h, 4, synth.RelativeLog), log(rivers, 4), log(roads, 4),
		}

	case l == Buildings:
		prev := prevSource(Buildings)
		segs = []synth.Segment{
			rel(h, 16, synth.RelativeLog), log(rivers, 16), log(roads, 16), log(prev, 16),
			rel(h, 4, synth.RelativeLog), log(rivers, 4), log(roads, 4), log(prev, 4),
			rel(h, 1, synth.RelativeLog), log(rivers, 1), log(roads, 1),
		}

	case s == Stage16:
		segs = []synth.Segment{
			log(srcRowDiff, 16), log(srcColDiff, 16),
			log(sketchSource(l), 64),
			log(srcRowDiff, 4), log(srcColDiff, 4),
		}

	default:
		prev := prevSource(l)
		segs = []synth.Segment{
			log(srcRowDiff, 16), log(srcColDiff, 16), log(prev, 16),
			log(srcRowDiff, 4), log(srcColDiff, 4), log(prev, 4),
			log(srcRowDiff, 1), log(srcColDiff, 1),
		}
	}
	return synth.Layout{Name: s.Key(l), Segments: segs}
}

// generationMode returns the secondary-loop mode of l at stage s, or nil for
// the primary loop used by heights.
func generationMode(s Stage, l Layer) *synth.OtherMode {
	switch {
	case s == StageSharp:
		return &synth.OtherMode{Round: true}
	case l == Heights:
		return nil
	default:
		return &synth.OtherMode{Encode: true}
	}
}

// seedPadMode is the padding of a layer's seed raster: heights repeat their
// edge, the other layers reflect.
func seedPadMode(l Layer) raster.PadMode {
	if l == Heights {
		return raster.PadEdge
	}
	return raster.PadReflect
}

// sketchPadMode is the padding of an input sketch. An empty margin around
// the buildings sketch means no buildings outside the map.
func sketchPadMode(l Layer) raster.PadMode {
	switch l {
	case Heights:
		return raster.PadEdge
	case Buildings:
		return raster.PadZero
	default:
		return raster.PadReflect
	}
}

// IO returns the predictor input and output lengths for a stage key under
// geometry g.
func IO(key string, g Geometry) (in, out int, err error) {
	s, l, ok := parseKey(key)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownStage, key)
	}
	n, rec := g.EncodingLength, g.RecurrentLen()
	in = stageLayout(s, l).Len(g)
	switch mode := generationMode(s, l); {
	case mode == nil:
		return in + rec*n + n, n, nil
	case mode.Encode:
		return in + rec*n, n, nil
	default:
		return in + rec, 1, nil
	}
}
