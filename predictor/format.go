package predictor

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/gogpu/mapsynth/internal/cache"
	"github.com/gogpu/mapsynth/internal/store"
)

// Model files (.msnn) hold the magic "MSNN" followed by a zstd frame:
//
//	version      uint32
//	layer count  uint32
//	per layer:   in uint32, out uint32, activation uint8,
//	             out*in weights, out biases (float64 bits)
//
// All integers and floats are big-endian.
const (
	modelMagic   = "MSNN"
	modelVersion = 1

	// ModelExt is the model file extension.
	ModelExt = ".msnn"
)

// MarshalLayers encodes a layer chain as a model file.
func MarshalLayers(layers []Layer) []byte {
	size := 8
	for _, l := range layers {
		size += 9 + 8*(len(l.Weights)+len(l.Bias))
	}
	buf := make([]byte, 0, size)
	buf = binary.BigEndian.AppendUint32(buf, modelVersion)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(layers)))
	for _, l := range layers {
		buf = binary.BigEndian.AppendUint32(buf, uint32(l.In))
		buf = binary.BigEndian.AppendUint32(buf, uint32(l.Out))
		buf = append(buf, byte(l.Activation))
		buf = appendFloats(buf, l.Weights)
		buf = appendFloats(buf, l.Bias)
	}
	return store.EncodeFrame(modelMagic, buf)
}

// UnmarshalLayers decodes a model file into its layer chain. The chain is
// not validated; NewMLP does that.
func UnmarshalLayers(data []byte) ([]Layer, error) {
	payload, err := store.DecodeFrame(modelMagic, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	d := decoder{buf: payload}
	if v := d.readUint32(); v != modelVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidModel, v)
	}
	count := int(d.readUint32())
	if d.err != nil || count == 0 || count > 1<<10 {
		return nil, fmt.Errorf("%w: bad layer count", ErrInvalidModel)
	}

	layers := make([]Layer, count)
	for i := range layers {
		l := &layers[i]
		l.In = int(d.readUint32())
		l.Out = int(d.readUint32())
		l.Activation = Activation(d.readByte())
		l.Weights = d.readFloats(l.In * l.Out)
		l.Bias = d.readFloats(l.Out)
		if d.err != nil {
			return nil, fmt.Errorf("%w: layer %d: %w", ErrInvalidModel, i, d.err)
		}
	}
	if len(d.buf) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidModel, len(d.buf))
	}
	return layers, nil
}

// SaveMLP writes the network's layers to path.
func SaveMLP(path string, m *MLP) error {
	if err := os.WriteFile(filepath.Clean(path), MarshalLayers(m.Layers()), 0o644); err != nil {
		return fmt.Errorf("predictor: save: %w", err)
	}
	return nil
}

// LoadMLP reads a model file and builds the network.
func LoadMLP(path string, opts ...MLPOption) (*MLP, error) {
	layers, err := readLayers(path)
	if err != nil {
		return nil, err
	}
	return newLoaded(path, layers, opts)
}

func readLayers(path string) ([]Layer, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("predictor: load: %w", err)
	}
	layers, err := UnmarshalLayers(data)
	if err != nil {
		return nil, fmt.Errorf("predictor: load %s: %w", path, err)
	}
	return layers, nil
}

func newLoaded(path string, layers []Layer, opts []MLPOption) (*MLP, error) {
	m, err := NewMLP(layers, opts...)
	if err != nil {
		return nil, fmt.Errorf("predictor: load %s: %w", path, err)
	}
	return m, nil
}

// FileLoader returns a Loader that reads model files. Relative locations
// resolve against dir, and a location without an extension gets ModelExt.
// Files shared by several keys are decoded once; each key still gets its
// own network.
func FileLoader(dir string, opts ...MLPOption) Loader {
	decoded := cache.New[string, []Layer](0)
	return LoaderFunc(func(key, location string) (Predictor, error) {
		path := location
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if filepath.Ext(path) == "" {
			path += ModelExt
		}
		layers, err := decoded.GetOrLoad(path, func() ([]Layer, error) {
			return readLayers(path)
		})
		if err != nil {
			return nil, fmt.Errorf("predictor: %s: %w", key, err)
		}
		m, err := newLoaded(path, layers, opts)
		if err != nil {
			return nil, fmt.Errorf("predictor: %s: %w", key, err)
		}
		return m, nil
	})
}

func appendFloats(buf []byte, vs []float64) []byte {
	for _, v := range vs {
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return buf
}

// decoder reads big-endian fields, recording the first short read.
type decoder struct {
	buf []byte
	err error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || len(d.buf) < n {
		d.err = fmt.Errorf("truncated: need %d bytes, have %d", n, len(d.buf))
		return nil
	}
	b := d.buf[:n]
	d.buf = d.buf[n:]
	return b
}

func (d *decoder) readUint32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (d *decoder) readByte() byte {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) readFloats(n int) []float64 {
	b := d.take(8 * n)
	if b == nil {
		return nil
	}
	vs := make([]float64, n)
	for i := range vs {
		vs[i] = math.Float64frombits(binary.BigEndian.Uint64(b[8*i:]))
	}
	return vs
}
