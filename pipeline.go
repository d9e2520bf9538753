package mapsynth

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	imaging "github.com/gogpu/mapsynth/internal/image"
	"github.com/gogpu/mapsynth/internal/parallel"
	"github.com/gogpu/mapsynth/internal/synth"
	"github.com/gogpu/mapsynth/predictor"
	"github.com/gogpu/mapsynth/raster"
)

// PCG streams of the random sources derived from the seed.
const (
	noiseStream  = 0x6e6f697365
	sampleStream = 0x73616d706c
)

// zoom is the resolution ratio between consecutive stages.
const zoom = 4

// Pipeline turns four sketches into full-resolution maps.
//
// A Pipeline owns one predictor per stage key. Run may be called repeatedly
// but not concurrently.
type Pipeline struct {
	opts       options
	predictors map[string]predictor.Predictor
	pool       *parallel.Pool
	emitMu     sync.Mutex
}

// Result holds everything a run produced.
type Result struct {
	// Final holds the full-resolution maps. Roads, rivers and buildings
	// are the sharpened rasters.
	Final Maps

	// Blurry holds the full-resolution roads, rivers and buildings before
	// sharpening. Heights is nil.
	Blurry Maps

	// Levels holds the output of every generation stage keyed by level:
	// 16, 4 and 1. Level 1 equals Final.
	Levels map[Level]Maps
}

// New loads and checks a predictor for every required stage key. Missing
// keys, load failures and predictors whose declared shape does not match
// their stage are reported here, before any generation work.
func New(cfg StageConfig, opts ...Option) (*Pipeline, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	g := o.geometry
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("mapsynth: %w", err)
	}
	if need := g.MinPadding(int(Level64)); g.Padding < need {
		return nil, fmt.Errorf("mapsynth: %w: padding %d, sketch windows need %d", synth.ErrPadding, g.Padding, need)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if o.loader == nil {
		return nil, ErrNoLoader
	}

	p := &Pipeline{
		opts:       o,
		predictors: make(map[string]predictor.Predictor),
	}
	for _, key := range RequiredStages() {
		pr, err := o.loader.Load(key, cfg[key])
		if err == nil {
			err = checkShape(key, pr, g)
		}
		if err != nil {
			if pr != nil {
				p.predictors[key] = pr
			}
			_ = p.Close()
			return nil, fmt.Errorf("mapsynth: load %s: %w", key, err)
		}
		p.predictors[key] = pr
	}
	if o.parallelLayers {
		p.pool = parallel.NewPool(2)
	}

	o.log().Info("pipeline ready", "stages", len(p.predictors), "padding", g.Padding,
		"random_modifier", o.randomModifier, "parallel", o.parallelLayers)
	return p, nil
}

// Close stops the worker pool and closes every predictor that implements
// io.Closer.
func (p *Pipeline) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	var errs []error
	for key, pr := range p.predictors {
		if c, ok := pr.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("mapsynth: close %s: %w", key, err))
			}
		}
	}
	return errors.Join(errs...)
}

// shaped is implemented by predictors that know their vector lengths, such
// as predictor.MLP.
type shaped interface {
	InputLen() int
	OutputLen() int
}

func checkShape(key string, p predictor.Predictor, g Geometry) error {
	sp, ok := p.(shaped)
	if !ok {
		return nil
	}
	in, out, err := IO(key, g)
	if err != nil {
		return err
	}
	if sp.InputLen() != in || sp.OutputLen() != out {
		return fmt.Errorf("%w: %s maps %d to %d values, stage needs %d to %d",
			ErrPredictorShape, key, sp.InputLen(), sp.OutputLen(), in, out)
	}
	return nil
}

// Run generates maps from four sketches of equal size. Sketches are rescaled
// to [0, 1] first. The output grid is the sketch size rounded up to a
// multiple of 16.
//
// Every stage output is emitted to the sink as soon as it is cropped, so a
// failed run still leaves the finished stages behind.
func (p *Pipeline) Run(ctx context.Context, sketches Maps) (*Result, error) {
	if err := sketches.check(); err != nil {
		return nil, err
	}
	log := p.opts.log()
	sketch := sketches.rescaled()
	for _, l := range allLayers {
		if err := p.emit("sketch_"+l.String(), sketch.Get(l)); err != nil {
			return nil, err
		}
	}

	rows := ceilDiv(sketch.Heights.Rows(), int(Level16))
	cols := ceilDiv(sketch.Heights.Cols(), int(Level16))
	if p.opts.randomModifier <= 0 {
		log.Info("height noise disabled")
	}
	noise := rand.NewPCG(p.opts.seed, noiseStream)

	res := &Result{Levels: make(map[Level]Maps, len(generationStages))}
	var prev Maps
	for i, s := range generationStages {
		if i > 0 {
			rows, cols = rows*zoom, cols*zoom
		}
		out, blurry, err := p.runStage(ctx, s, rows, cols, sketch, prev, noise)
		if err != nil {
			return nil, err
		}
		res.Levels[s.Level()] = out
		if s == Stage1 {
			res.Blurry = blurry
		}
		prev = out
	}
	res.Final = prev
	return res, nil
}

// sources are the padded rasters a stage's layouts read, by source name.
type sources map[string]synth.View

func (src sources) pad(name string, r *raster.Raster, n int, mode raster.PadMode, scale int) {
	src[name] = synth.View{Raster: raster.Pad(r, n, mode), Scale: scale}
}

// addHeights binds the heights of the current stage and their derivatives.
func (src sources) addHeights(h *raster.Raster, n int) {
	dr, dc := raster.Derivatives(h)
	src.pad(srcRowDiff, dr, n, raster.PadReflect, 1)
	src.pad(srcColDiff, dc, n, raster.PadReflect, 1)
	src.pad(currentSource(Heights), h, n, raster.PadReflect, 1)
}

// runStage seeds every layer from the previous stage (or the sketches),
// then generates heights, the road and river chains and finally buildings.
// At Stage1 each non-height layer is sharpened right after its blurry pass,
// so buildings see sharpened roads and rivers.
func (p *Pipeline) runStage(ctx context.Context, s Stage, rows, cols int, sketch, prev Maps, noise rand.Source) (out, blurry Maps, err error) {
	log := p.opts.log()
	pad := p.opts.geometry.Padding
	log.Info("stage started", "stage", s, "rows", rows, "cols", cols)
	start := time.Now()

	src := make(sources)
	seeds := make(map[Layer]*raster.Raster, len(allLayers))
	for _, l := range allLayers {
		base := prev.Get(l)
		if s == Stage16 {
			base = sketch.Get(l)
			src.pad(sketchSource(l), base, pad, sketchPadMode(l), int(Level16))
		}
		seed, err := raster.Resize(base, rows, cols)
		if err != nil {
			return out, blurry, fmt.Errorf("mapsynth: stage %s: seed %s: %w", s, l, err)
		}
		seeds[l] = raster.Pad(seed, pad, seedPadMode(l))
		if s != Stage16 {
			src[prevSource(l)] = synth.View{Raster: seeds[l]}
		}
	}
	if s != Stage16 {
		perturb(log, seeds[Heights], p.opts.randomModifier, noise)
	}

	heights, err := p.generate(ctx, s, Heights, seeds[Heights].Clone(), rows, cols, src)
	if err != nil {
		return out, blurry, err
	}
	src.addHeights(heights, pad)

	var results, blurs [len(allLayers)]*raster.Raster
	results[Heights] = heights
	chain := func(l Layer) parallel.Task {
		return func(ctx context.Context) error {
			r, err := p.generate(ctx, s, l, seeds[l].Clone(), rows, cols, src)
			if err != nil {
				return err
			}
			if s == Stage1 {
				blurs[l] = r
				if r, err = p.sharpen(ctx, l, r); err != nil {
					return err
				}
			}
			results[l] = r
			return nil
		}
	}

	if err := p.runChains(ctx, chain(Roads), chain(Rivers)); err != nil {
		return out, blurry, err
	}
	src.pad(currentSource(Roads), results[Roads], pad, raster.PadReflect, 1)
	src.pad(currentSource(Rivers), results[Rivers], pad, raster.PadReflect, 1)
	if err := chain(Buildings)(ctx); err != nil {
		return out, blurry, err
	}

	for _, l := range allLayers {
		out.Set(l, results[l])
		if l != Heights {
			blurry.Set(l, blurs[l])
		}
	}
	log.Info("stage finished", "stage", s, "elapsed", time.Since(start))
	return out, blurry, nil
}

func (p *Pipeline) runChains(ctx context.Context, tasks ...parallel.Task) error {
	if p.pool == nil {
		for _, t := range tasks {
			if err := t(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	return p.pool.Run(ctx, tasks...)
}

// generate runs the loop for one layer on a padded seed and returns the
// cropped result.
func (p *Pipeline) generate(ctx context.Context, s Stage, l Layer, target *raster.Raster, rows, cols int, src sources) (*raster.Raster, error) {
	g := p.opts.geometry
	log := p.opts.log()
	key := s.Key(l)

	contextFn, err := stageLayout(s, l).Bind(g, rows, cols, src)
	if err != nil {
		return nil, fmt.Errorf("mapsynth: %w", err)
	}

	start := time.Now()
	cfg := synth.Config{Geometry: g, Name: key, Logger: log}
	if mode := generationMode(s, l); mode == nil {
		err = synth.Generate(ctx, p.predictors[key], target, contextFn, cfg)
	} else {
		err = synth.GenerateOther(ctx, p.predictors[key], target, contextFn, cfg, *mode)
	}
	if err != nil {
		return nil, fmt.Errorf("mapsynth: %w", err)
	}

	r, err := raster.Crop(target, g.Padding)
	if err != nil {
		return nil, fmt.Errorf("mapsynth: %s: %w", key, err)
	}
	log.Info("layer generated", "key", key, "rows", rows, "cols", cols, "elapsed", time.Since(start))
	logStats(ctx, log, key, r)
	return r, p.emit(s.outputName(l), r)
}

// sharpen runs the rounded pass over a blurry full-resolution layer.
func (p *Pipeline) sharpen(ctx context.Context, l Layer, blurry *raster.Raster) (*raster.Raster, error) {
	pad := p.opts.geometry.Padding
	b := raster.Pad(blurry, pad, raster.PadReflect)
	src := sources{srcBlurry: {Raster: b}}
	return p.generate(ctx, StageSharp, l, b.Clone(), blurry.Rows(), blurry.Cols(), src)
}

func (p *Pipeline) emit(name string, r *raster.Raster) error {
	if p.opts.sink == nil {
		return nil
	}
	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	if err := p.opts.sink.Emit(name, r); err != nil {
		return fmt.Errorf("mapsynth: emit %s: %w", name, err)
	}
	return nil
}

// perturb adds the exponential height noise in place.
func perturb(log *slog.Logger, r *raster.Raster, modifier float64, src rand.Source) {
	if modifier <= 0 {
		return
	}
	if !raster.AddExpNoise(r, modifier, src) {
		log.Warn("height noise skipped on a constant seed")
	}
}

func logStats(ctx context.Context, log *slog.Logger, key string, r *raster.Raster) {
	if !log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	mean, std := stat.MeanStdDev(r.Data(), nil)
	lo, hi := r.MinMax()
	log.Debug("raster stats", "key", key, "mean", mean, "std", std, "min", lo, "max", hi)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Composite renders the final maps as one picture: heights in copper with
// rivers, roads and buildings layered on top, each faded by its own value.
// Scale enlarges every cell to a scale x scale block.
func (r *Result) Composite(scale int) (*image.NRGBA, error) {
	f := r.Final
	base := imaging.Overlay{Name: Heights.String(), Raster: f.Heights, Colormap: imaging.Copper}
	overlays := []imaging.Overlay{
		{Name: Rivers.String(), Raster: f.Rivers, Colormap: imaging.Blues},
		{Name: Roads.String(), Raster: f.Roads, Colormap: imaging.Greens},
		{Name: Buildings.String(), Raster: f.Buildings, Colormap: imaging.Turbo},
	}
	return imaging.Composite(base, overlays, imaging.WithScale(scale))
}
