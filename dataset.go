package mapsynth

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/gogpu/mapsynth/internal/synth"
	"github.com/gogpu/mapsynth/raster"
)

// blurSigma matches a 5x5 Gaussian kernel with automatic sigma; it turns
// ground truth into the targets of the blurry full-resolution stage.
const blurSigma = 1.1

// Dataset holds training pairs for one stage key. Row i of Inputs is the
// vector the predictor sees at a sampled cell; row i of Outputs is what it
// must return for the generation loop to reproduce the ground truth there.
type Dataset struct {
	Key     string
	Inputs  *raster.Raster
	Outputs *raster.Raster
}

// Emit sends the dataset to s as <key>_inputs and <key>_outputs.
func (d *Dataset) Emit(s Sink) error {
	if err := s.Emit(d.Key+"_inputs", d.Inputs); err != nil {
		return fmt.Errorf("mapsynth: emit dataset: %w", err)
	}
	if err := s.Emit(d.Key+"_outputs", d.Outputs); err != nil {
		return fmt.Errorf("mapsynth: emit dataset: %w", err)
	}
	return nil
}

// BuildDataset samples size distinct cells from a full-resolution ground
// truth map set and builds the pairs the predictor of key is trained on.
//
// The contexts are assembled exactly as Run assembles them: the same
// layouts, padding and recurrent encoding. Coarser inputs are the ground
// truth box-downsampled to each stage's level, and the previous-stage
// estimate is the next coarser level zoomed back up, with the same height
// noise Run adds. Blurry full-resolution stages are trained against
// Gaussian-blurred truth, sharpening stages against the truth itself.
//
// Truth dimensions must be multiples of 16. Only the options for geometry,
// seed, random modifier and logger apply.
func BuildDataset(ctx context.Context, truth Maps, key string, size int, opts ...Option) (*Dataset, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	g := o.geometry
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("mapsynth: dataset: %w", err)
	}
	s, l, ok := parseKey(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, key)
	}
	if size <= 0 {
		return nil, fmt.Errorf("mapsynth: dataset %s: size %d is not positive", key, size)
	}
	if err := truth.check(); err != nil {
		return nil, err
	}
	log := o.log()

	target, env, err := trainingSources(truth.rescaled(), s, l, g, o, rand.NewPCG(o.seed, noiseStream))
	if err != nil {
		return nil, fmt.Errorf("mapsynth: dataset %s: %w", key, err)
	}

	pad := g.Padding
	rows, cols := target.Rows()-2*pad, target.Cols()-2*pad
	contextFn, err := stageLayout(s, l).Bind(g, rows, cols, env)
	if err != nil {
		return nil, fmt.Errorf("mapsynth: dataset: %w", err)
	}

	cells := rows * cols
	if size > cells {
		log.Warn("dataset size capped", "key", key, "size", size, "cells", cells)
		size = cells
	}
	in, out, err := IO(key, g)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(o.seed, sampleStream))
	mode := generationMode(s, l)
	inputs := make([]float64, 0, size*in)
	outputs := make([]float64, 0, size*out)
	for i, cell := range rng.Perm(cells)[:size] {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("mapsynth: dataset %s: %w", key, err)
			}
		}
		inputs, outputs = synth.Sample(g, target, contextFn, mode, pad+cell/cols, pad+cell%cols, inputs, outputs)
	}

	d := &Dataset{Key: key}
	if d.Inputs, err = raster.FromSlice(size, in, inputs); err != nil {
		return nil, fmt.Errorf("mapsynth: dataset %s: %w", key, err)
	}
	if d.Outputs, err = raster.FromSlice(size, out, outputs); err != nil {
		return nil, fmt.Errorf("mapsynth: dataset %s: %w", key, err)
	}
	log.Info("dataset built", "key", key, "samples", size, "input", in, "output", out)
	return d, nil
}

// trainingSources returns the padded target raster of layer l at stage s
// and the sources its layout reads, all derived from rescaled truth.
func trainingSources(t Maps, s Stage, l Layer, g Geometry, o options, noise rand.Source) (*raster.Raster, sources, error) {
	pad := g.Padding
	env := make(sources)
	if s == StageSharp {
		sharp := t.Get(l)
		env.pad(srcBlurry, raster.GaussianBlur(sharp, blurSigma), pad, raster.PadReflect, 1)
		return raster.Pad(sharp, pad, raster.PadReflect), env, nil
	}

	level := int(s.Level())
	for _, x := range allLayers {
		if s == Stage16 {
			env.pad(sketchSource(x), t.Get(x), pad, sketchPadMode(x), int(Level16))
			continue
		}
		coarse, err := raster.ScaleDown(t.Get(x), level*zoom)
		if err != nil {
			return nil, nil, err
		}
		up, err := raster.Zoom(coarse, zoom)
		if err != nil {
			return nil, nil, err
		}
		env.pad(prevSource(x), up, pad, seedPadMode(x), 1)
	}
	if s != Stage16 {
		perturb(o.log(), env[prevSource(Heights)].Raster, o.randomModifier, noise)
	}

	current := make(map[Layer]*raster.Raster, len(allLayers))
	for _, x := range allLayers {
		r, err := raster.ScaleDown(t.Get(x), level)
		if err != nil {
			return nil, nil, err
		}
		current[x] = r
	}
	env.addHeights(current[Heights], pad)
	env.pad(currentSource(Roads), current[Roads], pad, raster.PadReflect, 1)
	env.pad(currentSource(Rivers), current[Rivers], pad, raster.PadReflect, 1)

	target := current[l]
	if s == Stage1 && l != Heights {
		target = raster.GaussianBlur(target, blurSigma)
	}
	return raster.Pad(target, pad, seedPadMode(l)), env, nil
}
