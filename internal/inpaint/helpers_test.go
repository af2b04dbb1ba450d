package inpaint

import (
	"context"
	"errors"
	"sync"

	"inpainter/internal/domain/entity"
)

// fakeModel возвращает постоянный цвет и считает вызовы.
type fakeModel struct {
	mu      sync.Mutex
	inputs  []string
	outputs []string
	color   [3]float32
	calls   int
	err     error
	shape   []int
}

func newFakeModel(r, g, b float32) *fakeModel {
	return &fakeModel{
		inputs:  []string{"image", "mask"},
		outputs: []string{"output"},
		color:   [3]float32{r, g, b},
	}
}

func (m *fakeModel) InputNames() []string  { return m.inputs }
func (m *fakeModel) OutputNames() []string { return m.outputs }

func (m *fakeModel) Run(_ context.Context, feeds map[string]*entity.Tensor, output string) (*entity.Tensor, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	img, ok := feeds["image"]
	if !ok || feeds["mask"] == nil || output != "output" {
		return nil, errors.New("unexpected feeds")
	}

	shape := m.shape
	if shape == nil {
		shape = []int{1, 3, img.Shape[2], img.Shape[3]}
	}
	out := entity.NewTensor(shape...)
	plane := img.Shape[2] * img.Shape[3]
	if out.Len() != 3*plane {
		return out, nil
	}
	for c := 0; c < 3; c++ {
		for i := 0; i < plane; i++ {
			out.Data[c*plane+i] = m.color[c]
		}
	}
	return out, nil
}

func (m *fakeModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func gradientImage(w, h int) *entity.Image {
	img := entity.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := img.Offset(x, y)
			img.Pix[o] = uint8(x % 256)
			img.Pix[o+1] = uint8(y % 256)
			img.Pix[o+2] = uint8((x * y) % 256)
			img.Pix[o+3] = 255
		}
	}
	return img
}
