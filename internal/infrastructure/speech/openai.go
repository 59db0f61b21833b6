package speech

import (
	"context"
	"io"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"sightcom/internal/domain/port"
)

// DefaultVoice голос по умолчанию
const DefaultVoice = openai.VoiceAlloy

// OpenAISpeaker озвучивает текст через speech endpoint OpenAI.
type OpenAISpeaker struct {
	client *openai.Client
	voice  openai.SpeechVoice
}

// NewOpenAISpeaker создаёт озвучку; для пустого voice берётся голос по умолчанию.
func NewOpenAISpeaker(client *openai.Client, voice string) *OpenAISpeaker {
	v := openai.SpeechVoice(voice)
	if v == "" {
		v = DefaultVoice
	}
	return &OpenAISpeaker{client: client, voice: v}
}

// Speak возвращает OGG/Opus, который Telegram принимает как голосовое сообщение.
func (s *OpenAISpeaker) Speak(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, errors.New("nothing to speak")
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: openai.SpeechResponseFormatOpus,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create speech")
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, errors.Wrap(err, "read speech")
	}
	return audio, nil
}

// Проверка реализации интерфейса
var _ port.Speaker = (*OpenAISpeaker)(nil)
