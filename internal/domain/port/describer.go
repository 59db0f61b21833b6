package port

import (
	"context"

	"sightcom/internal/domain/entity"
)

// SceneDescriber интерфейс описателя сцены
type SceneDescriber interface {
	// Describe превращает список меток в одно короткое предложение
	Describe(ctx context.Context, labels []string) (entity.SceneDescription, error)
}
