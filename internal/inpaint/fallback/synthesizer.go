package fallback

import (
	"context"
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"inpainter/internal/domain/entity"
)

// Synthesizer отправляет рабочую область в воркер и собирает ответ.
// Области больше maxSide уменьшаются перед синтезом и увеличиваются обратно.
type Synthesizer struct {
	worker  *Worker
	maxSide int
}

// NewSynthesizer создаёт клиента воркера. maxSide = 0 отключает уменьшение.
func NewSynthesizer(worker *Worker, maxSide int) *Synthesizer {
	return &Synthesizer{worker: worker, maxSide: maxSide}
}

func (s *Synthesizer) String() string {
	return fmt.Sprintf("%s max_side=%d", s.worker.Params(), s.maxSide)
}

// Synthesize закрашивает область. Буферы img и mask передаются воркеру и
// не должны использоваться вызывающим после вызова.
func (s *Synthesizer) Synthesize(ctx context.Context, img *entity.Image, mask *entity.Mask, progress func(float64)) (*entity.Image, error) {
	if progress == nil {
		progress = func(float64) {}
	}

	work, workMask := img, mask
	scaled := s.maxSide > 0 && max(img.Width, img.Height) > s.maxSide
	if scaled {
		w, h := scaledSize(img.Width, img.Height, s.maxSide)
		work = resizeImage(img, w, h)
		workMask = resizeMask(mask, w, h)
	}

	responses, err := s.worker.Submit(ctx, Request{
		Image:  work.Pix,
		Mask:   workMask.Pix,
		Width:  work.Width,
		Height: work.Height,
	})
	if err != nil {
		return nil, &entity.InferenceInvocationError{Backend: "fallback", Err: err}
	}

	var result []uint8
	for done := false; !done; {
		select {
		case <-ctx.Done():
			return nil, &entity.InferenceInvocationError{Backend: "fallback", Err: ctx.Err()}
		case resp, ok := <-responses:
			if !ok {
				done = true
				break
			}
			switch resp.Kind {
			case KindProgress:
				progress(float64(resp.Percent) / 100)
			case KindResult:
				result = resp.Pixels
				progress(1)
			case KindError:
				return nil, &entity.InferenceInvocationError{Backend: "fallback", Err: errors.New(resp.Message)}
			}
		}
	}
	if result == nil {
		return nil, &entity.InferenceInvocationError{Backend: "fallback", Err: errors.New("worker finished without result")}
	}

	out, err := entity.NewImageFromPix(work.Width, work.Height, result)
	if err != nil {
		return nil, &entity.InferenceInvocationError{Backend: "fallback", Err: err}
	}
	if scaled {
		out = resizeImage(out, img.Width, img.Height)
		restoreKnown(out, img, mask)
	}
	return out, nil
}

// scaledSize вписывает w×h в квадрат side с сохранением пропорций.
func scaledSize(w, h, side int) (int, int) {
	if w >= h {
		return side, max(1, (h*side+w/2)/w)
	}
	return max(1, (w*side+h/2)/h), side
}

func resizeImage(img *entity.Image, w, h int) *entity.Image {
	src := &image.RGBA{Pix: img.Pix, Stride: img.Width * 4, Rect: image.Rect(0, 0, img.Width, img.Height)}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return &entity.Image{Width: w, Height: h, Pix: dst.Pix}
}

// resizeMask уменьшает маску по максимуму: пиксель закрашивается, если закрашен
// хоть один исходный пиксель его окна. Окно расширено на пиксель с каждой
// стороны, чтобы покрыть опорные точки билинейного уменьшения изображения.
func resizeMask(mask *entity.Mask, w, h int) *entity.Mask {
	out := entity.NewMask(w, h)
	for y := 0; y < h; y++ {
		y0, y1 := footprint(y, mask.Height, h)
		for x := 0; x < w; x++ {
			x0, x1 := footprint(x, mask.Width, w)
			var v uint8
			for sy := y0; sy < y1 && v < 255; sy++ {
				row := mask.Pix[sy*mask.Width : (sy+1)*mask.Width]
				for _, p := range row[x0:x1] {
					v = max(v, p)
				}
			}
			out.Pix[y*w+x] = v
		}
	}
	return out
}

// footprint возвращает диапазон [lo, hi) исходных пикселей под пикселем i.
func footprint(i, src, dst int) (int, int) {
	lo := i*src/dst - 1
	hi := ((i+1)*src+dst-1)/dst + 1
	return max(lo, 0), min(hi, src)
}

// restoreKnown возвращает исходные значения непомеченным пикселям после масштабирования.
func restoreKnown(out, orig *entity.Image, mask *entity.Mask) {
	for i, v := range mask.Pix {
		if v > entity.MaskThreshold {
			continue
		}
		copy(out.Pix[i*4:i*4+4], orig.Pix[i*4:i*4+4])
	}
}
