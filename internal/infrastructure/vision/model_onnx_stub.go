//go:build !onnxruntime
// +build !onnxruntime

package vision

import (
	"errors"
	"image"

	"sightcom/internal/domain/entity"
)

// ONNXModel заглушка для сборки без onnxruntime.
type ONNXModel struct{}

// NewONNXModel возвращает ошибку, если сборка без тега onnxruntime.
func NewONNXModel(cfg ModelConfig) (*ONNXModel, error) {
	_ = cfg
	return nil, errors.New("onnxruntime build tag is not enabled")
}

// Predict возвращает ошибку, если сборка без тега onnxruntime.
func (m *ONNXModel) Predict(img image.Image) ([]entity.Detection, error) {
	_ = img
	return nil, errors.New("onnxruntime build tag is not enabled")
}

// Close ничего не делает
func (m *ONNXModel) Close() error {
	return nil
}
