package entity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyMask маска не содержит ни одного пикселя к закрашиванию.
var ErrEmptyMask = errors.New("empty mask")

// ErrSizeMismatch размеры маски и изображения не совпадают.
var ErrSizeMismatch = errors.New("mask size does not match image size")

// InferenceContractError модель не соответствует контракту «2 входа, 1 выход».
type InferenceContractError struct {
	Inputs  []string
	Outputs []string
}

func (e *InferenceContractError) Error() string {
	return fmt.Sprintf("model must have at least 2 inputs (image, mask) and 1 output, found inputs [%s] outputs [%s]",
		strings.Join(e.Inputs, ", "), strings.Join(e.Outputs, ", "))
}

// InferenceInvocationError ошибка вызова модели или фонового синтеза.
type InferenceInvocationError struct {
	Backend string
	Err     error
}

func (e *InferenceInvocationError) Error() string {
	return fmt.Sprintf("%s inference failed: %v", e.Backend, e.Err)
}

func (e *InferenceInvocationError) Unwrap() error {
	return e.Err
}
