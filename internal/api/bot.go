package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"

	app "sightcom/internal/application"
	"sightcom/internal/container"
	"sightcom/internal/domain/entity"
	"sightcom/internal/infrastructure/i18n"
)

const (
	annotatedFileName = "scene.jpg"
	voiceFileName     = "scene.ogg"
	downloadTimeout   = 30 * time.Second
	maxCaptionLength  = 1024
)

// sender часть Telegram API, которой пользуется обработчик
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// fileFetcher скачивает файл по его Telegram file_id
type fileFetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	client *tgbotapi.BotAPI
	api    sender
	files  fileFetcher
	users  *app.UserService
	scenes *app.SceneService
	texts  *i18n.Localizer
	logger *zap.SugaredLogger
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, texts *i18n.Localizer, logger *zap.SugaredLogger) (*Bot, error) {
	client, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}

	logger.Infow("authorized on telegram", "account", client.Self.UserName)

	b := newBot(client, &telegramFiles{api: client, http: &http.Client{Timeout: downloadTimeout}}, c, texts, logger)
	b.client = client
	return b, nil
}

func newBot(api sender, files fileFetcher, c *container.Container, texts *i18n.Localizer, logger *zap.SugaredLogger) *Bot {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Bot{
		api:    api,
		files:  files,
		users:  c.UserService,
		scenes: c.SceneService,
		texts:  texts,
		logger: logger,
	}
}

// Run запускает основной цикл обработки сообщений.
// Апдейты обрабатываются по одному: один снимок, один прогон конвейера.
func (b *Bot) Run(ctx context.Context) error {
	if b.client == nil {
		return errors.New("telegram client is not configured")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.client.GetUpdatesChan(u)
	defer b.client.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Errorw("get user", "user", msg.From.ID, "error", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка фото
	if fileID, ok := imageFileID(msg); ok {
		b.handlePhoto(ctx, msg, user, fileID)
		return
	}

	b.handleText(ctx, msg, user)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	switch msg.Command() {
	case "start":
		b.setState(ctx, user, entity.StateMainMenu)
		b.sendWithTabs(msg.Chat.ID, user.Language, b.texts.Text(user.Language, i18n.KeyStart))

	case "help":
		b.sendMessage(msg.Chat.ID, b.texts.Text(user.Language, i18n.KeyHelp))

	case "describe":
		b.beginDescribe(ctx, msg, user)

	case "language":
		b.beginLanguage(ctx, msg, user)

	case "cancel":
		if _, err := b.users.Cancel(ctx, user.ID, user.ChatID); err != nil {
			b.logger.Errorw("cancel", "user", user.ID, "error", err)
		}
		b.sendWithTabs(msg.Chat.ID, user.Language, b.texts.Text(user.Language, i18n.KeyCancelled))

	default:
		b.sendMessage(msg.Chat.ID, b.texts.Text(user.Language, i18n.KeyUnknownCommand))
	}
}

// handleText обрабатывает нажатия на вкладки и выбор языка
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	text := strings.TrimSpace(msg.Text)

	if user.State == entity.StateAwaitingLanguage && b.texts.Has(text) {
		updated, err := b.users.SetLanguage(ctx, user.ID, user.ChatID, text)
		if err != nil {
			b.logger.Errorw("set language", "user", user.ID, "error", err)
			return
		}
		b.sendWithTabs(msg.Chat.ID, updated.Language, b.texts.Text(updated.Language, i18n.KeyLanguageSet))
		return
	}

	tabs := b.texts.TabLabels(user.Language)
	switch text {
	case tabs[0]:
		b.beginDescribe(ctx, msg, user)
	case tabs[1]:
		b.beginLanguage(ctx, msg, user)
	default:
		b.sendMessage(msg.Chat.ID, b.texts.Text(user.Language, i18n.KeySendPhoto))
	}
}

func (b *Bot) beginDescribe(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	if _, err := b.users.BeginDescribe(ctx, user.ID, user.ChatID); err != nil {
		b.logger.Errorw("begin describe", "user", user.ID, "error", err)
	}
	b.sendMessage(msg.Chat.ID, b.texts.Text(user.Language, i18n.KeyAwaitingPhoto))
}

func (b *Bot) beginLanguage(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	if _, err := b.users.BeginLanguage(ctx, user.ID, user.ChatID); err != nil {
		b.logger.Errorw("begin language", "user", user.ID, "error", err)
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, b.texts.Text(user.Language, i18n.KeyChooseLanguage))
	reply.ReplyMarkup = keyboard(b.texts.Languages())
	b.send(reply)
}

// handlePhoto прогоняет конвейер один раз для присланного снимка
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User, fileID string) {
	chatID := msg.Chat.ID
	lang := user.Language

	b.setState(ctx, user, entity.StateProcessing)
	defer b.setState(ctx, user, entity.StateMainMenu)

	b.sendMessage(chatID, b.texts.Text(lang, i18n.KeyProcessing))

	imageData, err := b.files.Fetch(ctx, fileID)
	if err != nil {
		b.logger.Errorw("download photo", "user", user.ID, "error", err)
		b.sendMessage(chatID, b.texts.Text(lang, i18n.KeyAnalyzeFailed))
		return
	}

	out, err := b.scenes.Process(ctx, imageData)

	var descErr *entity.DescriptionError
	switch {
	case err == nil:
		b.sendPhoto(chatID, out.Annotated, out.Description.String())
		b.speak(ctx, chatID, lang, out.Description)

	case errors.As(err, &descErr) && out != nil:
		// Детекция прошла, размеченный снимок всё равно показываем
		b.logger.Warnw("description failed", "user", user.ID, "run", out.RunID, "error", err)
		b.sendPhoto(chatID, out.Annotated, b.texts.Text(lang, i18n.KeyDescribeFailed))

	default:
		b.logger.Warnw("analyze failed", "user", user.ID, "error", err)
		b.sendMessage(chatID, b.texts.Text(lang, i18n.KeyAnalyzeFailed))
	}
}

// speak отправляет голосовое сообщение, если озвучка включена
func (b *Bot) speak(ctx context.Context, chatID int64, lang string, desc entity.SceneDescription) {
	if !b.scenes.SpeechEnabled() {
		return
	}

	audio, err := b.scenes.Speak(ctx, desc)
	if err != nil {
		b.logger.Warnw("speech failed", "chat", chatID, "error", err)
		b.sendMessage(chatID, b.texts.Text(lang, i18n.KeySpeechFailed))
		return
	}

	b.send(tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{Name: voiceFileName, Bytes: audio}))
}

func (b *Bot) setState(ctx context.Context, user *entity.User, state entity.UserState) {
	if _, err := b.users.SetState(ctx, user.ID, user.ChatID, state); err != nil {
		b.logger.Errorw("set state", "user", user.ID, "state", state, "error", err)
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

// sendWithTabs отправляет сообщение с клавиатурой вкладок
func (b *Bot) sendWithTabs(chatID int64, lang, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard(b.texts.TabLabels(lang))
	b.send(msg)
}

// sendPhoto отправляет размеченный снимок. Слишком длинная подпись уходит
// отдельным сообщением, иначе Telegram отклонит фото целиком.
func (b *Bot) sendPhoto(chatID int64, jpeg []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: annotatedFileName, Bytes: jpeg})
	if fitsCaption(caption) {
		photo.Caption = caption
		b.send(photo)
		return
	}

	b.send(photo)
	b.sendMessage(chatID, caption)
}

// fitsCaption проверяет лимит подписи; Telegram считает её длину в UTF-16.
func fitsCaption(caption string) bool {
	return len(utf16.Encode([]rune(caption))) <= maxCaptionLength
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Errorw("send message", "error", err)
	}
}

func keyboard(labels []string) tgbotapi.ReplyKeyboardMarkup {
	buttons := lo.Map(labels, func(label string, _ int) tgbotapi.KeyboardButton {
		return tgbotapi.NewKeyboardButton(label)
	})
	return tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(buttons...))
}

// imageFileID возвращает file_id самого крупного фото или документа-картинки
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

// telegramFiles скачивает файлы через Bot API
type telegramFiles struct {
	api  *tgbotapi.BotAPI
	http *http.Client
}

// Fetch скачивает файл из Telegram
func (f *telegramFiles) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	file, err := f.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(f.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}
