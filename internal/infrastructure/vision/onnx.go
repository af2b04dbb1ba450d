//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"gocv.io/x/gocv"

	"inpainter/internal/domain/entity"
	"inpainter/internal/domain/port"
)

// ONNXInferencer модель закрашивания, загруженная через OpenCV DNN.
type ONNXInferencer struct {
	mu      sync.Mutex
	net     gocv.Net
	inputs  []string
	outputs []string
}

// NewONNXInferencer загружает ONNX-модель. Имена входов и выходов берутся из
// конфигурации: OpenCV не отдаёт имена входов графа.
func NewONNXInferencer(modelPath string, inputs, outputs []string) (*ONNXInferencer, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load onnx model %q", modelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, err
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, err
	}

	return &ONNXInferencer{
		net:     net,
		inputs:  append([]string(nil), inputs...),
		outputs: append([]string(nil), outputs...),
	}, nil
}

func (m *ONNXInferencer) InputNames() []string  { return m.inputs }
func (m *ONNXInferencer) OutputNames() []string { return m.outputs }

// Run подаёт тензоры на входы сети и возвращает выход output.
func (m *ONNXInferencer) Run(ctx context.Context, feeds map[string]*entity.Tensor, output string) (*entity.Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blobs := make([]gocv.Mat, 0, len(feeds))
	defer func() {
		for i := range blobs {
			blobs[i].Close()
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	for name, tensor := range feeds {
		blob, err := tensorToMat(tensor)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		blobs = append(blobs, blob)
		m.net.SetInput(blob, name)
	}

	out := m.net.Forward(output)
	defer out.Close()
	for _, t := range feeds {
		runtime.KeepAlive(t.Data)
	}
	if out.Empty() {
		return nil, fmt.Errorf("output %q is empty", output)
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, err
	}
	result := entity.NewTensor(out.Size()...)
	if len(data) != result.Len() {
		return nil, fmt.Errorf("output %q has %d values for shape %v", output, len(data), out.Size())
	}
	copy(result.Data, data)
	return result, nil
}

// Close освобождает сеть.
func (m *ONNXInferencer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Close()
}

func tensorToMat(t *entity.Tensor) (gocv.Mat, error) {
	if t.Len() == 0 || len(t.Data) != t.Len() {
		return gocv.NewMat(), errors.New("empty tensor")
	}
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&t.Data[0])), len(t.Data)*4)
	return gocv.NewMatWithSizesFromBytes(t.Shape, gocv.MatTypeCV32F, raw)
}

var _ port.Inferencer = (*ONNXInferencer)(nil)
