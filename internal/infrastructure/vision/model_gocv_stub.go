//go:build !gocv
// +build !gocv

package vision

import (
	"errors"
	"image"

	"sightcom/internal/domain/entity"
)

// GoCVModel заглушка для сборки без OpenCV.
type GoCVModel struct{}

// NewGoCVModel возвращает ошибку, если сборка без тега gocv.
func NewGoCVModel(cfg ModelConfig) (*GoCVModel, error) {
	_ = cfg
	return nil, errors.New("gocv build tag is not enabled")
}

// Predict возвращает ошибку, если сборка без тега gocv.
func (m *GoCVModel) Predict(img image.Image) ([]entity.Detection, error) {
	_ = img
	return nil, errors.New("gocv build tag is not enabled")
}

// Close ничего не делает
func (m *GoCVModel) Close() error {
	return nil
}
