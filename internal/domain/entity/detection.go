package entity

import "image"

// Detection один найденный объект: рамка и класс
type Detection struct {
	Box   image.Rectangle // рамка в координатах исходного изображения
	Label string          // имя класса, например "person"
	Score float32         // уверенность модели
}

// DetectionResult хранит итог детекции и изображение с разметкой.
type DetectionResult struct {
	Detections []Detection // в порядке, в котором их вернула модель
	Annotated  image.Image // копия входного изображения с нарисованными рамками
}

// Labels возвращает метки классов в том же порядке, что и Detections.
// Повторы сохраняются: два человека на фото дают две метки "person".
func (r *DetectionResult) Labels() []string {
	labels := make([]string, 0, len(r.Detections))
	for _, d := range r.Detections {
		labels = append(labels, d.Label)
	}
	return labels
}

// HasObjects сообщает, нашла ли модель хоть что-нибудь
func (r *DetectionResult) HasObjects() bool {
	return len(r.Detections) > 0
}
