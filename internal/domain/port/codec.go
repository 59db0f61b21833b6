package port

import "image"

// ImageCodec декодирует снимки пользователя и кодирует результат для отправки
type ImageCodec interface {
	Decode(data []byte) (image.Image, error)
	Encode(img image.Image) ([]byte, error)
}
