package vision

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"

	"sightcom/internal/domain/entity"
	"sightcom/internal/domain/port"
)

// jpegQuality качество JPEG для размеченного изображения
const jpegQuality = 90

// DecodeImage превращает байты JPEG/PNG/GIF/BMP/TIFF/WebP в растр.
// Ориентация из EXIF применяется сразу: снимки с телефона иначе лежат на боку.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &entity.DetectionError{Op: "decode image", Err: errors.New("image data is empty")}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &entity.DetectionError{Op: "decode image", Err: errors.Wrap(err, "unsupported or corrupt image")}
	}
	if img.Bounds().Empty() {
		return nil, &entity.DetectionError{Op: "decode image", Err: errors.New("image has empty dimensions")}
	}

	return img, nil
}

// EncodeJPEG кодирует изображение в JPEG для отправки пользователю.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, errors.Wrap(err, "encode jpeg")
	}
	return buf.Bytes(), nil
}

// Codec реализует port.ImageCodec: любой поддерживаемый формат на входе, JPEG на выходе.
type Codec struct{}

func (Codec) Decode(data []byte) (image.Image, error) {
	return DecodeImage(data)
}

func (Codec) Encode(img image.Image) ([]byte, error) {
	return EncodeJPEG(img)
}

// Проверка реализации интерфейса
var _ port.ImageCodec = Codec{}
