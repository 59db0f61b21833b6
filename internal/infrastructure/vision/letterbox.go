package vision

import (
	"image"
	"math"

	"github.com/nfnt/resize"
)

// padValue серый цвет полей при letterbox, как в ultralytics
const padValue = 114

// Letterbox описывает, как исходное изображение вписано в квадратный вход модели.
type Letterbox struct {
	Size       int             // сторона входа модели
	Scale      float32         // пикселей входа на пиксель исходника
	PadX, PadY int             // поля слева и сверху
	NewW, NewH int             // размер картинки внутри входа
	Source     image.Rectangle // границы исходного изображения
}

// NewLetterbox считает масштаб и поля для изображения с границами src.
func NewLetterbox(src image.Rectangle, size int) Letterbox {
	w, h := src.Dx(), src.Dy()
	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	newW := maxInt(1, int(math.Round(float64(w)*scale)))
	newH := maxInt(1, int(math.Round(float64(h)*scale)))

	return Letterbox{
		Size:   size,
		Scale:  float32(scale),
		PadX:   (size - newW) / 2,
		PadY:   (size - newH) / 2,
		NewW:   newW,
		NewH:   newH,
		Source: src,
	}
}

// ToSource переводит точку из координат входа модели в координаты исходника.
func (l Letterbox) ToSource(x, y float32) (float32, float32) {
	sx := (x-float32(l.PadX))/l.Scale + float32(l.Source.Min.X)
	sy := (y-float32(l.PadY))/l.Scale + float32(l.Source.Min.Y)
	return sx, sy
}

// LetterboxTensor вписывает изображение в квадрат size×size и возвращает
// тензор в раскладке CHW (RGB, значения 0..1) вместе с параметрами вписывания.
func LetterboxTensor(img image.Image, size int) ([]float32, Letterbox) {
	lb := NewLetterbox(img.Bounds(), size)

	plane := size * size
	data := make([]float32, 3*plane)
	for i := range data {
		data[i] = padValue / 255.0
	}

	resized := resize.Resize(uint(lb.NewW), uint(lb.NewH), img, resize.Bilinear)
	origin := resized.Bounds().Min

	red := data[0:plane]
	green := data[plane : 2*plane]
	blue := data[2*plane : 3*plane]
	for y := 0; y < lb.NewH; y++ {
		row := (y + lb.PadY) * size
		for x := 0; x < lb.NewW; x++ {
			r, g, b, _ := resized.At(origin.X+x, origin.Y+y).RGBA()
			i := row + x + lb.PadX
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
		}
	}

	return data, lb
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
