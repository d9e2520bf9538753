package predictor

import (
	"fmt"
	"math"

	"github.com/ajroetker/go-highway/hwy/contrib/nn"
	"github.com/ajroetker/go-highway/hwy/contrib/workerpool"
)

// Activation selects the nonlinearity applied after a dense layer.
type Activation uint8

const (
	// Linear applies no activation.
	Linear Activation = iota

	// ReLU applies max(0, x).
	ReLU

	// Tanh applies the hyperbolic tangent.
	Tanh

	// GELU applies the Gaussian error linear unit.
	GELU

	// SiLU applies x * sigmoid(x).
	SiLU

	// Sigmoid applies 1 / (1 + e^-x). Unary codes live in [0, 1], so this
	// is the usual output activation.
	Sigmoid

	activationCount
)

// String returns the activation name.
func (a Activation) String() string {
	switch a {
	case Linear:
		return "linear"
	case ReLU:
		return "relu"
	case Tanh:
		return "tanh"
	case GELU:
		return "gelu"
	case SiLU:
		return "silu"
	case Sigmoid:
		return "sigmoid"
	default:
		return fmt.Sprintf("Activation(%d)", uint8(a))
	}
}

// kernel maps the activation onto the fused dense kernel. Sigmoid has no
// fused form and is applied afterwards.
func (a Activation) kernel() nn.ActivationType {
	switch a {
	case ReLU:
		return nn.ActivationRelu
	case Tanh:
		return nn.ActivationTanh
	case GELU:
		return nn.ActivationGelu
	case SiLU:
		return nn.ActivationSilu
	default:
		return nn.ActivationNone
	}
}

// Layer is one fully connected layer: out = act(W x + b).
//
// Weights is row-major [Out][In]; Bias has Out entries.
type Layer struct {
	In         int
	Out        int
	Activation Activation
	Weights    []float64
	Bias       []float64
}

func (l Layer) validate() error {
	switch {
	case l.In <= 0 || l.Out <= 0:
		return fmt.Errorf("%w: layer %dx%d", ErrInvalidModel, l.In, l.Out)
	case len(l.Weights) != l.In*l.Out:
		return fmt.Errorf("%w: %d weights for %dx%d", ErrInvalidModel, len(l.Weights), l.In, l.Out)
	case len(l.Bias) != l.Out:
		return fmt.Errorf("%w: %d biases for %d outputs", ErrInvalidModel, len(l.Bias), l.Out)
	case l.Activation >= activationCount:
		return fmt.Errorf("%w: %v", ErrInvalidModel, l.Activation)
	}
	return nil
}

// MLPOption configures an MLP.
type MLPOption func(*mlpOptions)

type mlpOptions struct {
	workers int
}

func defaultMLPOptions() mlpOptions {
	return mlpOptions{workers: 1}
}

// WithWorkers sets the number of workers the dense kernels may use.
// Values <= 0 use GOMAXPROCS. The default of 1 runs every layer on the
// calling goroutine.
func WithWorkers(n int) MLPOption {
	return func(o *mlpOptions) {
		o.workers = n
	}
}

// MLP is a dense feed-forward network evaluated one input vector at a time.
//
// An MLP owns scratch buffers and is not safe for concurrent use.
type MLP struct {
	layers []Layer
	pool   *workerpool.Pool
	bufs   [2][]float64
}

// NewMLP validates the layer chain and prepares the network.
func NewMLP(layers []Layer, opts ...MLPOption) (*MLP, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrInvalidModel)
	}
	widest := 0
	for i, l := range layers {
		if err := l.validate(); err != nil {
			return nil, fmt.Errorf("predictor: layer %d: %w", i, err)
		}
		if i > 0 && layers[i-1].Out != l.In {
			return nil, fmt.Errorf("%w: layer %d takes %d inputs, previous layer gives %d",
				ErrInvalidModel, i, l.In, layers[i-1].Out)
		}
		widest = max(widest, l.Out)
	}

	o := defaultMLPOptions()
	for _, opt := range opts {
		opt(&o)
	}

	m := &MLP{layers: layers}
	if o.workers != 1 {
		m.pool = workerpool.New(o.workers)
	}
	m.bufs[0] = make([]float64, widest)
	m.bufs[1] = make([]float64, widest)
	return m, nil
}

// InputLen returns the width of the first layer.
func (m *MLP) InputLen() int { return m.layers[0].In }

// OutputLen returns the width of the last layer.
func (m *MLP) OutputLen() int { return m.layers[len(m.layers)-1].Out }

// Layers returns the layer chain. The slice must not be modified.
func (m *MLP) Layers() []Layer { return m.layers }

// Predict runs the forward pass. The result aliases an internal buffer.
func (m *MLP) Predict(input []float64) ([]float64, error) {
	if len(input) != m.InputLen() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInputLength, len(input), m.InputLen())
	}

	x := input
	for i, l := range m.layers {
		out := m.bufs[i%2][:l.Out]
		nn.DenseActivationAuto(m.pool, x, l.Weights, l.Bias, out, 1, l.In, l.Out, l.Activation.kernel())
		if l.Activation == Sigmoid {
			for j, v := range out {
				out[j] = 1 / (1 + math.Exp(-v))
			}
		}
		x = out
	}
	return x, nil
}

// Close releases the worker pool, if any.
func (m *MLP) Close() error {
	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
	}
	return nil
}
