//go:build onnxruntime
// +build onnxruntime

package vision

import (
	"image"
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"

	"sightcom/internal/domain/entity"
)

const (
	onnxInputName  = "images"
	onnxOutputName = "output0"
)

// ONNXModel запускает ONNX-экспорт YOLOv8 через onnxruntime.
type ONNXModel struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	decode  DecodeConfig
}

// NewONNXModel инициализирует окружение onnxruntime и создаёт сессию.
func NewONNXModel(cfg ModelConfig) (*ONNXModel, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "model file %s", cfg.ModelPath)
	}
	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "initialize onnxruntime")
		}
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, InputSize, InputSize))
	if err != nil {
		return nil, errors.Wrap(err, "create input tensor")
	}

	classes := int64(len(cfg.Decode.Labels))
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 4+classes, Candidates))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "create output tensor")
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{onnxInputName}, []string{onnxOutputName},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "create onnx session")
	}

	return &ONNXModel{
		session: session,
		input:   input,
		output:  output,
		decode:  cfg.Decode,
	}, nil
}

// Predict заполняет входной тензор, запускает сессию и разбирает выход.
func (m *ONNXModel) Predict(img image.Image) ([]entity.Detection, error) {
	data, lb := LetterboxTensor(img, InputSize)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, errors.New("onnx session is closed")
	}

	copy(m.input.GetData(), data)
	if err := m.session.Run(); err != nil {
		return nil, errors.Wrap(err, "run onnx session")
	}

	return DecodeYOLOv8(m.output.GetData(), Candidates, lb, m.decode)
}

// Close освобождает сессию, тензоры и окружение onnxruntime
func (m *ONNXModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil
	}
	err := multierr.Combine(
		m.session.Destroy(),
		m.input.Destroy(),
		m.output.Destroy(),
		ort.DestroyEnvironment(),
	)
	m.session, m.input, m.output = nil, nil, nil
	return err
}
