// Package inference adapts an ONNX Runtime model to the pipeline's
// Classifier collaborator. The model takes one (window × feature)
// batch and returns (window × class) probabilities; stochastic layers
// (dropout at inference, sampling heads) make repeated calls differ,
// which is exactly what the robustness analysis measures.
package inference

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortEnvOnce sync.Once
	ortEnvErr  error
)

// initORT initializes the ONNX Runtime environment once per process.
func initORT() error {
	ortEnvOnce.Do(func() {
		ortEnvErr = ort.InitializeEnvironment()
	})
	return ortEnvErr
}

// Session wraps an ONNX Runtime session. It implements eval.Classifier
// and is safe for concurrent Predict calls, which serialize on an
// internal mutex.
type Session struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	mu         sync.Mutex
	closed     bool
}

// Config names the model's input and output tensors. Empty fields take
// the conventional names.
type Config struct {
	InputName  string
	OutputName string
}

// NewSession loads the model at modelPath.
func NewSession(modelPath string, cfg Config) (*Session, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("inference: model file: %w", err)
	}
	if err := initORT(); err != nil {
		return nil, fmt.Errorf("inference: initializing ONNX runtime: %w", err)
	}

	if cfg.InputName == "" {
		cfg.InputName = "input"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "probabilities"
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("inference: creating session options: %w", err)
	}
	defer func() { _ = options.Destroy() }()

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("inference: creating session: %w", err)
	}

	return &Session{
		session:    session,
		inputName:  cfg.InputName,
		outputName: cfg.OutputName,
	}, nil
}

// Predict runs the model on one window × feature batch and returns
// window × class probabilities.
func (s *Session) Predict(ctx context.Context, input [][]float64) ([][]float64, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	windows := len(input)
	if windows == 0 {
		return nil, fmt.Errorf("inference: empty input batch")
	}
	features := len(input[0])

	flat := make([]float32, 0, windows*features)
	for w, row := range input {
		if len(row) != features {
			return nil, fmt.Errorf("inference: ragged input: window %d has %d features, want %d", w, len(row), features)
		}
		for _, v := range row {
			flat = append(flat, float32(v))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("inference: session is closed")
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(int64(windows), int64(features)), flat)
	if err != nil {
		return nil, fmt.Errorf("inference: creating input tensor: %w", err)
	}
	defer func() { _ = inputTensor.Destroy() }()

	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference: running model: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("inference: no output produced")
	}
	defer func() { _ = outputs[0].Destroy() }()

	probTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("inference: unexpected output tensor type")
	}

	shape := probTensor.GetShape()
	if len(shape) != 2 || shape[0] != int64(windows) {
		return nil, fmt.Errorf("inference: unexpected output shape %v for %d windows", shape, windows)
	}
	classes := int(shape[1])

	data := probTensor.GetData()
	out := make([][]float64, windows)
	for w := 0; w < windows; w++ {
		row := make([]float64, classes)
		for c := 0; c < classes; c++ {
			row[c] = float64(data[w*classes+c])
		}
		out[w] = row
	}
	return out, nil
}

// Close releases the ONNX session. Predict calls after Close fail.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}
