package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	_ "image/gif"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"inpainter/internal/domain/entity"
)

// JPEGQuality качество сохранения результатов в JPEG.
const JPEGQuality = 92

// Форматы результата.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
)

// ErrUnsupportedFormat формат вывода не поддерживается.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Decode читает PNG, JPEG, GIF или WebP и возвращает RGBA без предумножения альфы.
func Decode(r io.Reader) (*entity.Image, string, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(src), format, nil
}

// DecodeBytes то же, что Decode, для буфера в памяти.
func DecodeBytes(data []byte) (*entity.Image, string, error) {
	return Decode(bytes.NewReader(data))
}

// DecodeMask читает изображение маски. Если у маски есть прозрачность, маской
// служит альфа-канал (нарисованные штрихи непрозрачны), иначе яркость: белое закрашивается.
func DecodeMask(r io.Reader) (*entity.Mask, error) {
	img, _, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return MaskFromImage(img), nil
}

// MaskFromImage строит маску из изображения по правилам DecodeMask.
func MaskFromImage(img *entity.Image) *entity.Mask {
	mask := entity.NewMask(img.Width, img.Height)

	transparent := false
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 255 {
			transparent = true
			break
		}
	}

	for i := range mask.Pix {
		p := img.Pix[i*4 : i*4+4]
		if transparent {
			mask.Pix[i] = p[3]
			continue
		}
		// те же коэффициенты, что в color.GrayModel
		y := (19595*uint32(p[0]) + 38470*uint32(p[1]) + 7471*uint32(p[2]) + 1<<15) >> 16
		mask.Pix[i] = uint8(y)
	}
	return mask
}

// FromImage копирует произвольное изображение в entity.Image.
func FromImage(src image.Image) *entity.Image {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if n, ok := src.(*image.NRGBA); ok {
		// прямое копирование: без пересчёта через предумноженные цвета
		for y := 0; y < b.Dy(); y++ {
			row := n.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], n.Pix[row:row+b.Dx()*4])
		}
		return &entity.Image{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
	}
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &entity.Image{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

// ToImage оборачивает буфер без копирования.
func ToImage(img *entity.Image) *image.NRGBA {
	return &image.NRGBA{
		Pix:    img.Pix,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// ResizeMask масштабирует маску методом ближайшего соседа, чтобы не появлялись
// промежуточные значения на границе.
func ResizeMask(mask *entity.Mask, w, h int) *entity.Mask {
	if mask.Width == w && mask.Height == h {
		return mask.Clone()
	}
	src := &image.Gray{Pix: mask.Pix, Stride: mask.Width, Rect: image.Rect(0, 0, mask.Width, mask.Height)}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return &entity.Mask{Width: w, Height: h, Pix: dst.Pix}
}

// Encode записывает изображение в формате format ("jpeg" или "png").
func Encode(w io.Writer, img *entity.Image, format string) error {
	switch format {
	case FormatJPEG:
		return jpeg.Encode(w, ToImage(img), &jpeg.Options{Quality: JPEGQuality})
	case FormatPNG:
		return png.Encode(w, ToImage(img))
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// EncodeBytes то же, что Encode, в буфер.
func EncodeBytes(img *entity.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatFor выбирает формат результата по имени файла. Всё, кроме JPEG, сохраняется в PNG.
func FormatFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	default:
		return FormatPNG
	}
}

// OutputName имя файла результата: расширение меняется на .png, если исходный
// формат не поддерживается для записи.
func OutputName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".jpg", ".jpeg", ".png":
		return name
	default:
		return strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
	}
}

// IsImageName сообщает, похоже ли имя на поддерживаемое изображение.
func IsImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif":
		return true
	default:
		return false
	}
}
