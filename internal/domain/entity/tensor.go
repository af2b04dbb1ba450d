package entity

import "fmt"

// Tensor плотный float32-тензор в порядке NCHW.
type Tensor struct {
	Shape []int
	Data  []float32
}

// NewTensor создаёт нулевой тензор заданной формы.
func NewTensor(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Tensor{Shape: append([]int(nil), shape...), Data: make([]float32, n)}
}

// Len возвращает количество элементов по форме.
func (t *Tensor) Len() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// CheckShape проверяет, что форма тензора совпадает с ожидаемой.
func (t *Tensor) CheckShape(want ...int) error {
	if len(t.Shape) != len(want) {
		return fmt.Errorf("tensor shape %v, want %v", t.Shape, want)
	}
	for i := range want {
		if t.Shape[i] != want[i] {
			return fmt.Errorf("tensor shape %v, want %v", t.Shape, want)
		}
	}
	if len(t.Data) != t.Len() {
		return fmt.Errorf("tensor data has %d values, shape %v needs %d", len(t.Data), t.Shape, t.Len())
	}
	return nil
}
