package mapsynth

import (
	"log/slog"

	"github.com/gogpu/mapsynth/internal/synth"
	"github.com/gogpu/mapsynth/predictor"
)

// Geometry holds the window side (Cut), the number of slots per encoded
// value (EncodingLength) and the padding added around every raster.
type Geometry = synth.Geometry

// DefaultGeometry returns cut 5, 8-slot codes and padding 162, enough for
// the reduction-64 sketch windows of the first stage.
func DefaultGeometry() Geometry {
	return synth.DefaultGeometry()
}

// Option configures a Pipeline or BuildDataset.
//
// Example:
//
//	p, err := mapsynth.New(cfg,
//	    mapsynth.WithLoader(predictor.FileLoader("models")),
//	    mapsynth.WithSink(dir),
//	    mapsynth.WithSeed(7),
//	)
type Option func(*options)

// options holds optional configuration.
type options struct {
	geometry       Geometry
	randomModifier float64
	seed           uint64
	loader         predictor.Loader
	sink           Sink
	parallelLayers bool
	logger         *slog.Logger
}

// defaultOptions returns the default options.
func defaultOptions() options {
	return options{
		geometry:       DefaultGeometry(),
		randomModifier: 10,
		seed:           1,
		parallelLayers: true,
	}
}

// WithGeometry replaces the default geometry. Predictors must have been
// trained for the same geometry.
func WithGeometry(g Geometry) Option {
	return func(o *options) {
		o.geometry = g
	}
}

// WithRandomModifier sets the strength of the exponential noise added to the
// height seed of every refinement stage: the noise mean is the seed's value
// range divided by m. A modifier of zero or less disables the noise.
// The default is 10.
func WithRandomModifier(m float64) Option {
	return func(o *options) {
		o.randomModifier = m
	}
}

// WithSeed seeds the noise and the dataset sampler. Runs with the same seed,
// inputs and predictors produce the same maps. The default is 1.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithLoader sets how stage configuration locations become predictors.
// New fails without one.
func WithLoader(l predictor.Loader) Option {
	return func(o *options) {
		o.loader = l
	}
}

// WithSink sets where finished rasters are emitted. Use MultiSink to feed
// several. Without a sink rasters are only returned in the Result.
func WithSink(s Sink) Option {
	return func(o *options) {
		o.sink = s
	}
}

// WithParallelLayers controls whether the road and river chains of a stage
// run concurrently. The default is enabled.
func WithParallelLayers(on bool) Option {
	return func(o *options) {
		o.parallelLayers = on
	}
}

// WithLogger sets the logger for one pipeline. Without it the package-wide
// logger from SetLogger is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func (o *options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return Logger()
}
