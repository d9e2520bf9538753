package mapsynth

import (
	"errors"

	"github.com/gogpu/mapsynth/raster"
)

// Sink receives every finished raster by name, e.g. "heights_16x" or
// "roads_blurry_1x". Emitted rasters must not be modified.
type Sink interface {
	Emit(name string, r *raster.Raster) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(name string, r *raster.Raster) error

// Emit calls f(name, r).
func (f SinkFunc) Emit(name string, r *raster.Raster) error {
	return f(name, r)
}

type multiSink []Sink

// MultiSink returns a sink that emits to every sink in order. All sinks are
// tried; their errors are joined.
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Emit(name string, r *raster.Raster) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(name, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
