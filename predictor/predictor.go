// Package predictor defines the opaque vector function that drives every
// generation stage, and ships a dense multilayer perceptron that implements
// it.
//
// A stage only needs Predict: it hands over a flat input vector and expects
// a flat output vector whose length the stage knows in advance. Where the
// function comes from (a weight file, a remote service, a test stub) is the
// Loader's business.
package predictor

import (
	"errors"
)

// Errors returned by predictors and loaders.
var (
	// ErrInvalidModel is returned when a model file or layer list is malformed.
	ErrInvalidModel = errors.New("predictor: invalid model")

	// ErrInputLength is returned when an input vector does not match the
	// model's input width.
	ErrInputLength = errors.New("predictor: input has wrong length")
)

// Predictor maps an input vector to an output vector.
//
// The returned slice may alias internal buffers and is only valid until the
// next call. Implementations need not be safe for concurrent use; the
// pipeline gives every stage its own instance.
type Predictor interface {
	Predict(input []float64) ([]float64, error)
}

// Func adapts an ordinary function to the Predictor interface.
type Func func(input []float64) ([]float64, error)

// Predict calls f(input).
func (f Func) Predict(input []float64) ([]float64, error) {
	return f(input)
}

// Loader resolves a stage key and a location string, as listed in a stage
// configuration, into a predictor.
type Loader interface {
	Load(key, location string) (Predictor, error)
}

// LoaderFunc adapts an ordinary function to the Loader interface.
type LoaderFunc func(key, location string) (Predictor, error)

// Load calls f(key, location).
func (f LoaderFunc) Load(key, location string) (Predictor, error) {
	return f(key, location)
}
