package entity

import (
	"errors"
	"fmt"
)

// MaskThreshold порог бинаризации маски: значение выше него означает «закрасить».
const MaskThreshold = 30

// ErrInvalidDimensions возвращается при несовпадении размеров буфера и заявленных сторон.
var ErrInvalidDimensions = errors.New("invalid dimensions")

// Image RGBA-буфер изображения, строки подряд, 8 бит на канал.
type Image struct {
	Width  int
	Height int
	Pix    []uint8 // len = Width*Height*4
}

// NewImage создаёт прозрачное изображение заданного размера.
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// NewImageFromPix оборачивает готовый буфер, проверяя его длину.
func NewImageFromPix(width, height int, pix []uint8) (*Image, error) {
	if width <= 0 || height <= 0 || len(pix) != width*height*4 {
		return nil, fmt.Errorf("%w: image %dx%d with %d bytes", ErrInvalidDimensions, width, height, len(pix))
	}
	return &Image{Width: width, Height: height, Pix: pix}, nil
}

// Offset возвращает индекс первого байта пикселя (x, y).
func (img *Image) Offset(x, y int) int {
	return (y*img.Width + x) * 4
}

// Clone возвращает независимую копию изображения.
func (img *Image) Clone() *Image {
	pix := make([]uint8, len(img.Pix))
	copy(pix, img.Pix)
	return &Image{Width: img.Width, Height: img.Height, Pix: pix}
}

// Crop копирует прямоугольник [x0,x0+w)×[y0,y0+h) в новое изображение.
func (img *Image) Crop(x0, y0, w, h int) *Image {
	out := NewImage(w, h)
	for y := 0; y < h; y++ {
		src := img.Offset(x0, y0+y)
		copy(out.Pix[y*w*4:(y+1)*w*4], img.Pix[src:src+w*4])
	}
	return out
}

// Paste записывает src в изображение начиная с (x0, y0).
func (img *Image) Paste(src *Image, x0, y0 int) {
	for y := 0; y < src.Height; y++ {
		dst := img.Offset(x0, y0+y)
		copy(img.Pix[dst:dst+src.Width*4], src.Pix[y*src.Width*4:(y+1)*src.Width*4])
	}
}

// Mask маска той же размерности, что и изображение: один байт интенсивности на пиксель.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8 // len = Width*Height
}

// NewMask создаёт пустую маску.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// Filled сообщает, помечен ли пиксель (x, y) к закрашиванию.
func (m *Mask) Filled(x, y int) bool {
	return m.Pix[y*m.Width+x] > MaskThreshold
}

// FillRect помечает прямоугольник максимальной интенсивностью.
func (m *Mask) FillRect(x0, y0, x1, y1 int) {
	for y := max(0, y0); y < min(m.Height, y1); y++ {
		for x := max(0, x0); x < min(m.Width, x1); x++ {
			m.Pix[y*m.Width+x] = 255
		}
	}
}

// Crop копирует прямоугольник маски в новую маску.
func (m *Mask) Crop(x0, y0, w, h int) *Mask {
	out := NewMask(w, h)
	for y := 0; y < h; y++ {
		src := (y0+y)*m.Width + x0
		copy(out.Pix[y*w:(y+1)*w], m.Pix[src:src+w])
	}
	return out
}

// Clone возвращает независимую копию маски.
func (m *Mask) Clone() *Mask {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return &Mask{Width: m.Width, Height: m.Height, Pix: pix}
}

// Binary возвращает классификацию всех пикселей: 1 закрасить, 0 оставить.
func (m *Mask) Binary() []uint8 {
	out := make([]uint8, len(m.Pix))
	for i, v := range m.Pix {
		if v > MaskThreshold {
			out[i] = 1
		}
	}
	return out
}

// FilledCount возвращает количество пикселей к закрашиванию.
func (m *Mask) FilledCount() int {
	n := 0
	for _, v := range m.Pix {
		if v > MaskThreshold {
			n++
		}
	}
	return n
}
