package port

import (
	"context"
	"image"

	"sightcom/internal/domain/entity"
)

// ObjectDetector интерфейс детектора объектов
type ObjectDetector interface {
	// Detect находит объекты и возвращает их вместе с размеченной копией изображения.
	// Входное изображение не изменяется.
	Detect(ctx context.Context, img image.Image) (*entity.DetectionResult, error)
}
