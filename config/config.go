package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Значения по умолчанию
const (
	DefaultDetectorBackend  = "gocv"
	DefaultModelPath        = "yolov8n.onnx"
	DefaultTranslationsPath = "translations.json"
	DefaultLanguage         = "English"
	DefaultConfidence       = 0.25
	DefaultIoU              = 0.7
)

// Config настройки процесса. Секреты приходят только из окружения.
type Config struct {
	TelegramToken string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	DetectorBackend     string
	ModelPath           string
	ONNXRuntimeLib      string
	ConfidenceThreshold float32
	IoUThreshold        float32

	TranslationsPath string
	DefaultLanguage  string

	SpeakDescriptions bool
	TTSVoice          string

	LogLevel string
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	// Загружаем .env файл (отсутствие файла не ошибка)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	confidence, err := floatEnv("CONFIDENCE_THRESHOLD", DefaultConfidence)
	if err != nil {
		return nil, err
	}
	iou, err := floatEnv("IOU_THRESHOLD", DefaultIoU)
	if err != nil {
		return nil, err
	}
	speak, err := boolEnv("SPEAK_DESCRIPTIONS", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TelegramToken:       os.Getenv("TELEGRAM_TOKEN"),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:       os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:         os.Getenv("OPENAI_MODEL"),
		DetectorBackend:     stringEnv("DETECTOR_BACKEND", DefaultDetectorBackend),
		ModelPath:           stringEnv("MODEL_PATH", DefaultModelPath),
		ONNXRuntimeLib:      os.Getenv("ONNXRUNTIME_LIB"),
		ConfidenceThreshold: confidence,
		IoUThreshold:        iou,
		TranslationsPath:    stringEnv("TRANSLATIONS_PATH", DefaultTranslationsPath),
		DefaultLanguage:     stringEnv("DEFAULT_LANGUAGE", DefaultLanguage),
		SpeakDescriptions:   speak,
		TTSVoice:            os.Getenv("TTS_VOICE"),
		LogLevel:            strings.ToLower(os.Getenv("LOG_LEVEL")),
	}

	return cfg, nil
}

// Validate проверяет обязательные значения. Сами секреты в ошибку не попадают.
func (c *Config) Validate() error {
	var problems []string
	if c.TelegramToken == "" {
		problems = append(problems, "TELEGRAM_TOKEN is required")
	}
	if c.OpenAIKey == "" {
		problems = append(problems, "OPENAI_API_KEY is required")
	}
	switch c.DetectorBackend {
	case "gocv", "onnxruntime":
	default:
		problems = append(problems, fmt.Sprintf("DETECTOR_BACKEND must be gocv or onnxruntime, got %q", c.DetectorBackend))
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		problems = append(problems, "CONFIDENCE_THRESHOLD must be in (0, 1]")
	}
	if c.IoUThreshold <= 0 || c.IoUThreshold > 1 {
		problems = append(problems, "IOU_THRESHOLD must be in (0, 1]")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func floatEnv(key string, def float32) (float32, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := cast.ToFloat32E(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
