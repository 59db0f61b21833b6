package llm

import (
	"context"
	"errors"
	"math"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"sightcom/internal/domain/entity"
	"sightcom/internal/domain/port"
)

// DefaultModel модель чата по умолчанию
const DefaultModel = openai.GPT3Dot5Turbo

// Config параметры подключения к API.
type Config struct {
	APIKey  string
	BaseURL string // если пусто, официальный API OpenAI
}

// NewClient создаёт клиента OpenAI-совместимого API.
func NewClient(cfg Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// SceneDescriber описывает сцену одним предложением через chat completion.
type SceneDescriber struct {
	client *openai.Client
	model  string
	logger *zap.SugaredLogger
}

// NewSceneDescriber создаёт описатель поверх клиента.
func NewSceneDescriber(client *openai.Client, model string, logger *zap.SugaredLogger) *SceneDescriber {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SceneDescriber{
		client: client,
		model:  model,
		logger: logger,
	}
}

// Describe отправляет один запрос без повторов и стриминга и возвращает ответ без пробелов по краям.
func (d *SceneDescriber) Describe(ctx context.Context, labels []string) (entity.SceneDescription, error) {
	req := openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(labels)},
		},
		// Ноль клиент выкидывает из JSON (omitempty), сервер тогда берёт 1.
		Temperature: math.SmallestNonzeroFloat32,
	}

	resp, err := d.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", &entity.DescriptionError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &entity.DescriptionError{Op: "read response", Err: errors.New("response has no choices")}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &entity.DescriptionError{Op: "read response", Err: errors.New("response content is empty")}
	}

	d.logger.Debugw("scene described",
		"model", d.model,
		"labels", len(labels),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return entity.SceneDescription(text), nil
}

// Проверка реализации интерфейса
var _ port.SceneDescriber = (*SceneDescriber)(nil)
