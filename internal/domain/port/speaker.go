package port

import "context"

// Speaker озвучивает текст
type Speaker interface {
	// Speak возвращает аудио (OGG/Opus), пригодное для голосового сообщения
	Speak(ctx context.Context, text string) ([]byte, error)
}
