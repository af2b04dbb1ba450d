//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"inpainter/internal/domain/entity"
	"inpainter/internal/domain/port"
)

// ErrNotBuilt сборка без тега gocv не умеет загружать ONNX-модели.
var ErrNotBuilt = errors.New("gocv build tag is not enabled")

// ONNXInferencer заглушка (без OpenCV).
type ONNXInferencer struct {
	inputs  []string
	outputs []string
}

// NewONNXInferencer возвращает ошибку, если сборка без тега gocv.
func NewONNXInferencer(modelPath string, inputs, outputs []string) (*ONNXInferencer, error) {
	_ = modelPath
	return nil, ErrNotBuilt
}

func (m *ONNXInferencer) InputNames() []string  { return m.inputs }
func (m *ONNXInferencer) OutputNames() []string { return m.outputs }

// Run возвращает ошибку, если сборка без тега gocv.
func (m *ONNXInferencer) Run(ctx context.Context, feeds map[string]*entity.Tensor, output string) (*entity.Tensor, error) {
	_ = ctx
	_ = feeds
	_ = output
	return nil, ErrNotBuilt
}

// Close ничего не делает.
func (m *ONNXInferencer) Close() error {
	return nil
}

var _ port.Inferencer = (*ONNXInferencer)(nil)
