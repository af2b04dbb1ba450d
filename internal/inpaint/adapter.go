package inpaint

import (
	"context"
	"fmt"

	"inpainter/internal/domain/entity"
	"inpainter/internal/domain/port"
)

// Adapter приводит тайл к тензорному контракту модели и обратно.
type Adapter struct {
	model      port.Inferencer
	tileSize   int
	imageInput string
	maskInput  string
	output     string
}

// NewAdapter проверяет контракт модели: минимум два входа (изображение, маска) и один выход.
func NewAdapter(model port.Inferencer, tileSize int) (*Adapter, error) {
	inputs, outputs := model.InputNames(), model.OutputNames()
	if len(inputs) < 2 || len(outputs) < 1 {
		return nil, &entity.InferenceContractError{Inputs: inputs, Outputs: outputs}
	}
	return &Adapter{
		model:      model,
		tileSize:   tileSize,
		imageInput: inputs[0],
		maskInput:  inputs[1],
		output:     outputs[0],
	}, nil
}

// TileSize возвращает сторону тайла модели.
func (a *Adapter) TileSize() int {
	return a.tileSize
}

// Infer прогоняет через модель тайл tileSize×tileSize и возвращает RGB-результат того же размера.
func (a *Adapter) Infer(ctx context.Context, img *entity.Image, mask *entity.Mask) (*entity.Image, error) {
	t := a.tileSize
	if img.Width != t || img.Height != t || mask.Width != t || mask.Height != t {
		return nil, fmt.Errorf("%w: tile %dx%d, mask %dx%d, model expects %dx%d",
			entity.ErrSizeMismatch, img.Width, img.Height, mask.Width, mask.Height, t, t)
	}

	feeds := map[string]*entity.Tensor{
		a.imageInput: packImage(img),
		a.maskInput:  packMask(mask),
	}

	out, err := a.model.Run(ctx, feeds, a.output)
	if err != nil {
		return nil, &entity.InferenceInvocationError{Backend: "onnx", Err: err}
	}
	if out == nil {
		return nil, &entity.InferenceInvocationError{Backend: "onnx", Err: fmt.Errorf("output %q is missing", a.output)}
	}
	if err := out.CheckShape(1, 3, t, t); err != nil {
		return nil, &entity.InferenceInvocationError{Backend: "onnx", Err: err}
	}

	return unpackImage(out, t), nil
}

// packImage раскладывает RGB по плоскостям [1,3,T,T] в диапазоне [0,1].
func packImage(img *entity.Image) *entity.Tensor {
	plane := img.Width * img.Height
	tensor := entity.NewTensor(1, 3, img.Height, img.Width)
	for i := 0; i < plane; i++ {
		tensor.Data[i] = float32(img.Pix[i*4]) / 255
		tensor.Data[plane+i] = float32(img.Pix[i*4+1]) / 255
		tensor.Data[2*plane+i] = float32(img.Pix[i*4+2]) / 255
	}
	return tensor
}

// packMask бинаризует маску в тензор [1,1,T,T] со значениями {0,1}.
func packMask(mask *entity.Mask) *entity.Tensor {
	tensor := entity.NewTensor(1, 1, mask.Height, mask.Width)
	for i, v := range mask.Binary() {
		tensor.Data[i] = float32(v)
	}
	return tensor
}

// unpackImage собирает RGB из плоскостей [0,255] с округлением и обрезкой.
func unpackImage(tensor *entity.Tensor, size int) *entity.Image {
	plane := size * size
	img := entity.NewImage(size, size)
	for i := 0; i < plane; i++ {
		img.Pix[i*4] = clampByte(float64(tensor.Data[i]))
		img.Pix[i*4+1] = clampByte(float64(tensor.Data[plane+i]))
		img.Pix[i*4+2] = clampByte(float64(tensor.Data[2*plane+i]))
		img.Pix[i*4+3] = 255
	}
	return img
}
