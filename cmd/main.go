package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"sightcom/config"
	telegram "sightcom/internal/api"
	"sightcom/internal/container"
	"sightcom/internal/infrastructure/i18n"
	"sightcom/internal/infrastructure/llm"
	"sightcom/internal/infrastructure/logging"
	"sightcom/internal/infrastructure/speech"
	"sightcom/internal/infrastructure/storage"
	"sightcom/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Errorw("bot stopped", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.SugaredLogger) (err error) {
	// Битый ресурс локализации валит старт, а не первое сообщение
	translations, err := i18n.Load(cfg.TranslationsPath)
	if err != nil {
		return err
	}
	texts, err := i18n.NewLocalizer(translations, cfg.DefaultLanguage)
	if err != nil {
		return err
	}

	decode := vision.DefaultDecodeConfig()
	decode.ConfidenceThreshold = cfg.ConfidenceThreshold
	decode.IoUThreshold = cfg.IoUThreshold

	model, err := vision.NewModel(vision.ModelConfig{
		Backend:     vision.Backend(cfg.DetectorBackend),
		ModelPath:   cfg.ModelPath,
		LibraryPath: cfg.ONNXRuntimeLib,
		Decode:      decode,
	})
	if err != nil {
		return err
	}
	detector := vision.NewObjectDetector(model, vision.DefaultStyle(), logger.Named("detector"))
	defer func() { err = multierr.Append(err, detector.Close()) }()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.OpenAIKey,
		BaseURL: cfg.OpenAIBaseURL,
	})
	describer := llm.NewSceneDescriber(client, cfg.OpenAIModel, logger.Named("describer"))

	deps := container.Deps{
		Users:     storage.NewMemoryUserRepository(),
		Codec:     vision.Codec{},
		Detector:  detector,
		Describer: describer,
		Logger:    logger.Named("scene"),
	}
	// Озвучка необязательна
	if cfg.SpeakDescriptions {
		deps.Speaker = speech.NewOpenAISpeaker(client, cfg.TTSVoice)
	}

	bot, err := telegram.NewBot(cfg.TelegramToken, container.New(deps), texts, logger.Named("telegram"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infow("bot is running",
		"backend", cfg.DetectorBackend,
		"model", cfg.ModelPath,
		"languages", texts.Languages(),
		"default_language", texts.Default(),
		"speech", cfg.SpeakDescriptions,
	)

	if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
