//go:build gocv
// +build gocv

package vision

import (
	"image"
	"image/color"
	"os"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"sightcom/internal/domain/entity"
)

// GoCVModel запускает ONNX-экспорт YOLOv8 через OpenCV DNN.
type GoCVModel struct {
	mu     sync.Mutex
	net    gocv.Net
	decode DecodeConfig
}

// NewGoCVModel загружает модель из файла ONNX.
func NewGoCVModel(cfg ModelConfig) (*GoCVModel, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "model file %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, errors.Errorf("failed to load onnx model %s", cfg.ModelPath)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, errors.Wrap(err, "set backend")
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, errors.Wrap(err, "set target")
	}

	return &GoCVModel{net: net, decode: cfg.Decode}, nil
}

// Predict вписывает изображение в 640×640, прогоняет сеть и разбирает выход.
func (m *GoCVModel) Predict(img image.Image) ([]entity.Detection, error) {
	blob, lb, err := letterboxBlob(img)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.net.SetInput(blob, "")
	out := m.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "read model output")
	}

	return DecodeYOLOv8(data, Candidates, lb, m.decode)
}

// letterboxBlob готовит вход сети: letterbox 640×640 с полями 114, RGB, CHW, [0,1].
func letterboxBlob(img image.Image) (gocv.Mat, Letterbox, error) {
	lb := NewLetterbox(img.Bounds(), InputSize)

	// ImageToMatRGB отдаёт Mat в порядке BGR, как принято в OpenCV
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, lb, errors.Wrap(err, "convert image to mat")
	}
	defer mat.Close()
	if mat.Empty() {
		return gocv.Mat{}, lb, errors.New("empty image")
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, image.Pt(lb.NewW, lb.NewH), 0, 0, gocv.InterpolationLinear)

	// Поля добиваем серым так же, как LetterboxTensor
	padded := gocv.NewMat()
	defer padded.Close()
	gray := color.RGBA{R: padValue, G: padValue, B: padValue}
	gocv.CopyMakeBorder(resized, &padded,
		lb.PadY, InputSize-lb.NewH-lb.PadY,
		lb.PadX, InputSize-lb.NewW-lb.PadX,
		gocv.BorderConstant, gray)

	// YOLOv8 обучен на RGB, поэтому каналы меняем местами
	blob := gocv.BlobFromImage(padded, 1.0/255.0, image.Pt(InputSize, InputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	return blob, lb, nil
}

// Close освобождает сеть
func (m *GoCVModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Close()
}
