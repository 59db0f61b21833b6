package vision

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/gofont/goregular"

	"sightcom/internal/domain/entity"
)

var labelFont *truetype.Font

func init() {
	var err error
	labelFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Style задаёт внешний вид разметки.
type Style struct {
	BoxColor  color.Color
	LineWidth float64 // 0: по размеру изображения
	FontSize  float64 // 0: по размеру изображения
}

// DefaultStyle красные рамки, как в исходной версии приложения.
func DefaultStyle() Style {
	return Style{BoxColor: color.RGBA{R: 255, A: 255}}
}

// Annotate рисует рамки и подписи на копии изображения.
// Исходное изображение не меняется; без детекций возвращается неизменённая копия.
func Annotate(img image.Image, detections []entity.Detection, style Style) image.Image {
	canvas := imaging.Clone(img)
	if len(detections) == 0 {
		return canvas
	}

	w, h := canvas.Bounds().Dx(), canvas.Bounds().Dy()
	short := float64(minInt(w, h))

	lineWidth := style.LineWidth
	if lineWidth <= 0 {
		lineWidth = math.Max(2, short/320)
	}
	fontSize := style.FontSize
	if fontSize <= 0 {
		fontSize = math.Max(10, short/40)
	}
	boxColor := style.BoxColor
	if boxColor == nil {
		boxColor = DefaultStyle().BoxColor
	}
	textColor := contrastColor(boxColor)

	dc := gg.NewContextForImage(canvas)
	dc.SetFontFace(truetype.NewFace(labelFont, &truetype.Options{Size: fontSize}))

	// Clone переносит начало координат в (0,0), рамки считаются от исходных границ
	origin := img.Bounds().Min
	pad := fontSize / 4

	for _, d := range detections {
		r := d.Box.Sub(origin)
		x, y := float64(r.Min.X), float64(r.Min.Y)

		dc.SetColor(boxColor)
		dc.SetLineWidth(lineWidth)
		dc.DrawRectangle(x, y, float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()

		tw, th := dc.MeasureString(d.Label)
		tagH := th + 2*pad
		tagY := y - tagH
		if tagY < 0 {
			tagY = y
		}

		dc.SetColor(boxColor)
		dc.DrawRectangle(x, tagY, tw+2*pad, tagH)
		dc.Fill()

		dc.SetColor(textColor)
		dc.DrawStringAnchored(d.Label, x+pad, tagY+pad, 0, 1)
	}

	return dc.Image()
}

// contrastColor выбирает чёрный или белый текст под цвет плашки.
func contrastColor(bg color.Color) color.Color {
	c, ok := colorful.MakeColor(bg)
	if !ok {
		return color.White
	}
	l, _, _ := c.Lab()
	if l > 0.6 {
		return color.Black
	}
	return color.White
}
