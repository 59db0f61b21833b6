package container

import (
	"go.uber.org/zap"

	app "sightcom/internal/application"
	"sightcom/internal/domain/port"
)

type Container struct {
	UserService  *app.UserService
	SceneService *app.SceneService
}

// Deps порты, из которых собираются сервисы. Speaker может быть nil.
type Deps struct {
	Users     port.UserRepository
	Codec     port.ImageCodec
	Detector  port.ObjectDetector
	Describer port.SceneDescriber
	Speaker   port.Speaker
	Logger    *zap.SugaredLogger
}

func New(deps Deps) *Container {
	userService := app.NewUserService(deps.Users)
	sceneService := app.NewSceneService(deps.Codec, deps.Detector, deps.Describer, deps.Speaker, deps.Logger)

	return &Container{
		UserService:  userService,
		SceneService: sceneService,
	}
}
