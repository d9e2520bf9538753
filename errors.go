package mapsynth

import "errors"

// Errors returned by the pipeline.
var (
	// ErrMissingStage is returned when the stage configuration lacks a
	// predictor location a run needs.
	ErrMissingStage = errors.New("mapsynth: missing stage")

	// ErrStageConfig is returned for a malformed stage configuration line.
	ErrStageConfig = errors.New("mapsynth: malformed stage config")

	// ErrUnknownStage is returned for a key that names no stage.
	ErrUnknownStage = errors.New("mapsynth: unknown stage key")

	// ErrShapeMismatch is returned when input layers are missing or differ
	// in size.
	ErrShapeMismatch = errors.New("mapsynth: layer shape mismatch")

	// ErrPredictorShape is returned when a predictor's declared input or
	// output length does not match its stage layout.
	ErrPredictorShape = errors.New("mapsynth: predictor shape does not match stage")

	// ErrNoLoader is returned by New when no predictor loader is configured.
	ErrNoLoader = errors.New("mapsynth: no predictor loader")
)
