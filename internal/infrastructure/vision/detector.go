package vision

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"

	"sightcom/internal/domain/entity"
	"sightcom/internal/domain/port"
)

// Model предобученная модель детекции: по изображению возвращает рамки и классы.
type Model interface {
	Predict(img image.Image) ([]entity.Detection, error)
	Close() error
}

// Backend способ запуска модели
type Backend string

const (
	BackendGoCV        Backend = "gocv"        // OpenCV DNN, нужен тег сборки gocv
	BackendONNXRuntime Backend = "onnxruntime" // onnxruntime, нужен тег сборки onnxruntime
)

// ModelConfig параметры загрузки модели.
type ModelConfig struct {
	Backend     Backend
	ModelPath   string
	LibraryPath string // путь к libonnxruntime, только для BackendONNXRuntime
	Decode      DecodeConfig
}

// NewModel загружает модель выбранным способом.
func NewModel(cfg ModelConfig) (Model, error) {
	switch cfg.Backend {
	case BackendGoCV:
		m, err := NewGoCVModel(cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	case BackendONNXRuntime:
		m, err := NewONNXModel(cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.Backend)
	}
}

// ObjectDetector детектор объектов: модель + разметка изображения.
type ObjectDetector struct {
	model  Model
	style  Style
	logger *zap.SugaredLogger
}

// NewObjectDetector создаёт детектор поверх загруженной модели.
func NewObjectDetector(model Model, style Style, logger *zap.SugaredLogger) *ObjectDetector {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ObjectDetector{
		model:  model,
		style:  style,
		logger: logger,
	}
}

// Detect находит объекты и рисует их на копии изображения.
func (d *ObjectDetector) Detect(ctx context.Context, img image.Image) (*entity.DetectionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, &entity.DetectionError{Op: "validate image", Err: fmt.Errorf("image is nil or has empty dimensions")}
	}
	if d.model == nil {
		return nil, &entity.DetectionError{Op: "predict", Err: fmt.Errorf("model is not loaded")}
	}

	detections, err := d.model.Predict(img)
	if err != nil {
		return nil, &entity.DetectionError{Op: "predict", Err: err}
	}

	d.logger.Debugw("detection finished",
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
		"objects", len(detections),
	)

	return &entity.DetectionResult{
		Detections: detections,
		Annotated:  Annotate(img, detections, d.style),
	}, nil
}

// Close освобождает модель
func (d *ObjectDetector) Close() error {
	if d.model == nil {
		return nil
	}
	return d.model.Close()
}

// Проверка реализации интерфейса
var _ port.ObjectDetector = (*ObjectDetector)(nil)
