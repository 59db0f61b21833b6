package app

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sightcom/internal/domain/entity"
	"sightcom/internal/domain/port"
)

var (
	// ErrNotConfigured детектор или описатель не переданы в сервис
	ErrNotConfigured = errors.New("scene pipeline is not configured")
	// ErrSpeechDisabled озвучка выключена в настройках
	ErrSpeechDisabled = errors.New("speech is disabled")
)

// SceneOutput результат одного прогона: размеченный снимок, метки и описание.
type SceneOutput struct {
	RunID       string
	Result      *entity.DetectionResult
	Labels      []string
	Annotated   []byte // JPEG для отправки пользователю
	Description entity.SceneDescription
}

// SceneService конвейер "детекция -> разметка -> описание".
// Модель и клиент API создаются заранее и только читаются между прогонами.
type SceneService struct {
	codec     port.ImageCodec
	detector  port.ObjectDetector
	describer port.SceneDescriber
	speaker   port.Speaker
	logger    *zap.SugaredLogger
}

// NewSceneService собирает конвейер. speaker может быть nil.
func NewSceneService(codec port.ImageCodec, detector port.ObjectDetector, describer port.SceneDescriber, speaker port.Speaker, logger *zap.SugaredLogger) *SceneService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SceneService{
		codec:     codec,
		detector:  detector,
		describer: describer,
		speaker:   speaker,
		logger:    logger,
	}
}

// Process декодирует снимок и прогоняет конвейер один раз.
//
// Ошибка детекции возвращается как *entity.DetectionError без результата.
// Ошибка описания возвращается как *entity.DescriptionError вместе с
// результатом: размеченный снимок уже готов и не должен теряться.
func (s *SceneService) Process(ctx context.Context, imageData []byte) (*SceneOutput, error) {
	if !s.configured() {
		return nil, ErrNotConfigured
	}

	img, err := s.codec.Decode(imageData)
	if err != nil {
		return nil, asDetectionError("decode image", err)
	}

	return s.ProcessImage(ctx, img)
}

// ProcessImage прогоняет конвейер для уже декодированного растра.
func (s *SceneService) ProcessImage(ctx context.Context, img image.Image) (*SceneOutput, error) {
	if !s.configured() {
		return nil, ErrNotConfigured
	}

	runID := uuid.NewString()
	log := s.logger.With("run", runID)
	started := time.Now()

	result, err := s.detector.Detect(ctx, img)
	if err != nil {
		log.Warnw("detection failed", "error", err)
		return nil, asDetectionError("detect objects", err)
	}

	annotated, err := s.codec.Encode(result.Annotated)
	if err != nil {
		log.Warnw("encode annotated image failed", "error", err)
		return nil, asDetectionError("encode annotated image", err)
	}

	out := &SceneOutput{
		RunID:     runID,
		Result:    result,
		Labels:    result.Labels(),
		Annotated: annotated,
	}
	log.Infow("objects detected", "found", result.HasObjects(), "labels", out.Labels, "elapsed", time.Since(started))

	desc, err := s.describer.Describe(ctx, out.Labels)
	if err != nil {
		log.Warnw("description failed", "error", err)
		var descErr *entity.DescriptionError
		if !errors.As(err, &descErr) {
			err = &entity.DescriptionError{Op: "describe scene", Err: err}
		}
		return out, err
	}
	out.Description = desc

	log.Infow("scene described", "elapsed", time.Since(started))
	return out, nil
}

func (s *SceneService) configured() bool {
	return s.codec != nil && s.detector != nil && s.describer != nil
}

// SpeechEnabled сообщает, подключена ли озвучка
func (s *SceneService) SpeechEnabled() bool {
	return s.speaker != nil
}

// Speak озвучивает описание сцены.
func (s *SceneService) Speak(ctx context.Context, desc entity.SceneDescription) ([]byte, error) {
	if s.speaker == nil {
		return nil, ErrSpeechDisabled
	}
	return s.speaker.Speak(ctx, desc.String())
}

func asDetectionError(op string, err error) error {
	var detErr *entity.DetectionError
	if errors.As(err, &detErr) {
		return err
	}
	return &entity.DetectionError{Op: op, Err: err}
}
