package vision

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/chewxy/math32"

	"sightcom/internal/domain/entity"
)

const (
	// InputSize сторона квадратного входа yolov8n
	InputSize = 640
	// Candidates число якорей в выходе yolov8n при входе 640
	Candidates = 8400

	// DefaultConfidenceThreshold порог уверенности по умолчанию в ultralytics
	DefaultConfidenceThreshold = 0.25
	// DefaultIoUThreshold порог перекрытия для подавления дублей
	DefaultIoUThreshold = 0.7
)

// DecodeConfig настройки разбора выхода модели.
type DecodeConfig struct {
	Labels              []string
	ConfidenceThreshold float32
	IoUThreshold        float32
}

// DefaultDecodeConfig возвращает настройки для моделей, обученных на COCO.
func DefaultDecodeConfig() DecodeConfig {
	return DecodeConfig{
		Labels:              COCOLabels,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		IoUThreshold:        DefaultIoUThreshold,
	}
}

type candidate struct {
	x1, y1, x2, y2 float32
	score          float32
	class          int
}

// DecodeYOLOv8 разбирает выход YOLOv8 формы [1, 4+classes, candidates].
// Координаты рамок приводятся к исходному изображению через lb.
// Результат отсортирован по убыванию уверенности.
func DecodeYOLOv8(output []float32, candidates int, lb Letterbox, cfg DecodeConfig) ([]entity.Detection, error) {
	classes := len(cfg.Labels)
	if classes == 0 {
		return nil, fmt.Errorf("no class labels configured")
	}
	if candidates <= 0 {
		return nil, fmt.Errorf("invalid candidate count %d", candidates)
	}
	if want := (4 + classes) * candidates; len(output) < want {
		return nil, fmt.Errorf("model output holds %d values, need %d", len(output), want)
	}

	found := make([]candidate, 0, 64)
	for idx := 0; idx < candidates; idx++ {
		best := -1
		score := float32(-1)
		for c := 0; c < classes; c++ {
			if s := output[(4+c)*candidates+idx]; s > score {
				score = s
				best = c
			}
		}
		if score < cfg.ConfidenceThreshold {
			continue
		}

		cx, cy := output[idx], output[candidates+idx]
		w, h := output[2*candidates+idx], output[3*candidates+idx]
		x1, y1 := lb.ToSource(cx-w/2, cy-h/2)
		x2, y2 := lb.ToSource(cx+w/2, cy+h/2)

		found = append(found, candidate{x1: x1, y1: y1, x2: x2, y2: y2, score: score, class: best})
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].score > found[j].score
	})
	kept := suppress(found, cfg.IoUThreshold)

	detections := make([]entity.Detection, 0, len(kept))
	for _, c := range kept {
		box := image.Rect(
			round(c.x1), round(c.y1),
			round(c.x2), round(c.y2),
		).Intersect(lb.Source)
		if box.Empty() {
			continue
		}
		detections = append(detections, entity.Detection{
			Box:   box,
			Label: cfg.Labels[c.class],
			Score: c.score,
		})
	}

	return detections, nil
}

// suppress жадно убирает рамки одного класса, перекрывающие более уверенную.
// Вход должен быть отсортирован по убыванию уверенности.
func suppress(sorted []candidate, threshold float32) []candidate {
	used := make([]bool, len(sorted))
	kept := make([]candidate, 0, len(sorted))

	for i := range sorted {
		if used[i] {
			continue
		}
		kept = append(kept, sorted[i])
		used[i] = true

		for j := i + 1; j < len(sorted); j++ {
			if used[j] || sorted[j].class != sorted[i].class {
				continue
			}
			if iou(sorted[i], sorted[j]) > threshold {
				used[j] = true
			}
		}
	}

	return kept
}

func iou(a, b candidate) float32 {
	ix := math32.Max(0, math32.Min(a.x2, b.x2)-math32.Max(a.x1, b.x1))
	iy := math32.Max(0, math32.Min(a.y2, b.y2)-math32.Max(a.y1, b.y1))
	inter := ix * iy
	if inter == 0 {
		return 0
	}
	union := (a.x2-a.x1)*(a.y2-a.y1) + (b.x2-b.x1)*(b.y2-b.y1) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func round(v float32) int {
	return int(math.Round(float64(v)))
}
