package telegram

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"sightcom/internal/container"
	"sightcom/internal/domain/entity"
	"sightcom/internal/infrastructure/i18n"
	"sightcom/internal/infrastructure/storage"
	"sightcom/internal/infrastructure/vision"
)

const (
	testUserID = int64(1)
	testChatID = int64(10)
)

type fakeSender struct {
	sent []tgbotapi.Chattable
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.sent = append(s.sent, c)
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) last(t *testing.T) tgbotapi.Chattable {
	t.Helper()
	require.NotEmpty(t, s.sent)
	return s.sent[len(s.sent)-1]
}

type fakeFiles struct {
	data    []byte
	err     error
	fileIDs []string
}

func (f *fakeFiles) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	f.fileIDs = append(f.fileIDs, fileID)
	return f.data, f.err
}

type fakeModel struct {
	detections []entity.Detection
	err        error
}

func (m *fakeModel) Predict(img image.Image) ([]entity.Detection, error) {
	return m.detections, m.err
}

func (m *fakeModel) Close() error { return nil }

type fakeDescriber struct {
	calls int
	text  string
	err   error
}

func (d *fakeDescriber) Describe(ctx context.Context, labels []string) (entity.SceneDescription, error) {
	d.calls++
	if d.err != nil {
		return "", d.err
	}
	return entity.SceneDescription(d.text), nil
}

type fakeSpeaker struct {
	err error
}

func (s *fakeSpeaker) Speak(ctx context.Context, text string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("ogg:" + text), nil
}

type fixture struct {
	bot       *Bot
	api       *fakeSender
	files     *fakeFiles
	describer *fakeDescriber
	texts     *i18n.Localizer
}

func newFixture(t *testing.T, model *fakeModel, describer *fakeDescriber, speaker *fakeSpeaker) *fixture {
	t.Helper()

	tr, err := i18n.Load("../../translations.json")
	require.NoError(t, err)
	texts, err := i18n.NewLocalizer(tr, "English")
	require.NoError(t, err)

	deps := container.Deps{
		Users:     storage.NewMemoryUserRepository(),
		Codec:     vision.Codec{},
		Detector:  vision.NewObjectDetector(model, vision.DefaultStyle(), nil),
		Describer: describer,
	}
	if speaker != nil {
		deps.Speaker = speaker
	}

	api := &fakeSender{}
	files := &fakeFiles{data: pngBytes(t, 64, 48)}
	b := newBot(api, files, container.New(deps), texts, nil)

	return &fixture{bot: b, api: api, files: files, describer: describer, texts: texts}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 90, G: 90, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func command(name string) *tgbotapi.Message {
	text := "/" + name
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: testUserID},
		Chat:     &tgbotapi.Chat{ID: testChatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}
}

func textMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: testUserID},
		Chat: &tgbotapi.Chat{ID: testChatID},
		Text: text,
	}
}

func photoMessage() *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: testUserID},
		Chat: &tgbotapi.Chat{ID: testChatID},
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small", Width: 90, Height: 60},
			{FileID: "large", Width: 1280, Height: 960},
		},
	}
}

func (f *fixture) user(t *testing.T) *entity.User {
	t.Helper()
	u, err := f.bot.users.Get(context.Background(), testUserID, testChatID)
	require.NoError(t, err)
	return u
}

func TestBot_StartShowsTabs(t *testing.T) {
	f := newFixture(t, &fakeModel{}, &fakeDescriber{text: "x"}, nil)

	f.bot.handleMessage(context.Background(), command("start"))

	msg, ok := f.api.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, f.texts.Text("English", i18n.KeyStart), msg.Text)

	kb, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.Keyboard, 1)
	require.Equal(t, "📷 Describe Scene", kb.Keyboard[0][0].Text)
	require.Equal(t, "🌐 Language", kb.Keyboard[0][1].Text)
}

func TestBot_PhotoRunsPipelineOnce(t *testing.T) {
	model := &fakeModel{detections: []entity.Detection{
		{Box: image.Rect(4, 4, 30, 40), Label: "person", Score: 0.9},
		{Box: image.Rect(32, 10, 60, 40), Label: "bicycle", Score: 0.8},
	}}
	describer := &fakeDescriber{text: "A person stands next to a bicycle."}
	f := newFixture(t, model, describer, nil)

	f.bot.handleMessage(context.Background(), photoMessage())

	require.Equal(t, 1, describer.calls)
	require.Equal(t, []string{"large"}, f.files.fileIDs)
	require.Len(t, f.api.sent, 2)

	processing, ok := f.api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, f.texts.Text("English", i18n.KeyProcessing), processing.Text)

	photo, ok := f.api.sent[1].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	require.Equal(t, "A person stands next to a bicycle.", photo.Caption)

	file, ok := photo.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	require.NotEmpty(t, file.Bytes)

	require.Equal(t, entity.StateMainMenu, f.user(t).State)
}

func TestBot_LongDescriptionSentSeparately(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("A very long sentence about the scene. ", 40))
	f := newFixture(t, &fakeModel{}, &fakeDescriber{text: long}, nil)

	f.bot.handleMessage(context.Background(), photoMessage())

	require.Len(t, f.api.sent, 3)

	photo, ok := f.api.sent[1].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	require.Empty(t, photo.Caption)

	msg, ok := f.api.sent[2].(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, long, msg.Text)
}

func TestFitsCaption(t *testing.T) {
	require.True(t, fitsCaption(""))
	require.True(t, fitsCaption(strings.Repeat("a", 1024)))
	require.False(t, fitsCaption(strings.Repeat("a", 1025)))
	// эмодзи занимает две единицы UTF-16
	require.False(t, fitsCaption(strings.Repeat("📷", 513)))
	require.True(t, fitsCaption(strings.Repeat("📷", 512)))
}

func TestBot_PhotoWithSpeech(t *testing.T) {
	f := newFixture(t, &fakeModel{}, &fakeDescriber{text: "No objects were detected."}, &fakeSpeaker{})

	f.bot.handleMessage(context.Background(), photoMessage())

	voice, ok := f.api.last(t).(tgbotapi.VoiceConfig)
	require.True(t, ok)

	file, ok := voice.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	require.Equal(t, "ogg:No objects were detected.", string(file.Bytes))
}

func TestBot_SpeechFailureIsReported(t *testing.T) {
	f := newFixture(t, &fakeModel{}, &fakeDescriber{text: "Nothing here."}, &fakeSpeaker{err: errors.New("tts down")})

	f.bot.handleMessage(context.Background(), photoMessage())

	_, ok := f.api.sent[1].(tgbotapi.PhotoConfig)
	require.True(t, ok)

	msg, ok := f.api.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, f.texts.Text("English", i18n.KeySpeechFailed), msg.Text)
}

func TestBot_DescriptionFailureStillShowsAnnotatedPhoto(t *testing.T) {
	model := &fakeModel{detections: []entity.Detection{{Box: image.Rect(4, 4, 30, 40), Label: "dog", Score: 0.7}}}
	describer := &fakeDescriber{err: &entity.DescriptionError{Op: "chat completion", Err: errors.New("rate limited")}}
	f := newFixture(t, model, describer, &fakeSpeaker{})

	f.bot.handleMessage(context.Background(), photoMessage())

	photo, ok := f.api.last(t).(tgbotapi.PhotoConfig)
	require.True(t, ok)
	require.Equal(t, f.texts.Text("English", i18n.KeyDescribeFailed), photo.Caption)
	require.Len(t, f.api.sent, 2)
}

func TestBot_DetectionFailure(t *testing.T) {
	describer := &fakeDescriber{text: "x"}
	f := newFixture(t, &fakeModel{err: errors.New("bad tensor")}, describer, nil)

	f.bot.handleMessage(context.Background(), photoMessage())

	msg, ok := f.api.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, f.texts.Text("English", i18n.KeyAnalyzeFailed), msg.Text)
	require.Zero(t, describer.calls)
}

func TestBot_DownloadFailure(t *testing.T) {
	describer := &fakeDescriber{text: "x"}
	f := newFixture(t, &fakeModel{}, describer, nil)
	f.files.err = errors.New("timeout")

	f.bot.handleMessage(context.Background(), photoMessage())

	msg, ok := f.api.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, f.texts.Text("English", i18n.KeyAnalyzeFailed), msg.Text)
	require.Zero(t, describer.calls)
	require.Equal(t, entity.StateMainMenu, f.user(t).State)
}

func TestBot_LanguageSelection(t *testing.T) {
	f := newFixture(t, &fakeModel{}, &fakeDescriber{text: "x"}, nil)
	ctx := context.Background()

	f.bot.handleMessage(ctx, command("language"))

	msg, ok := f.api.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	kb, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	require.Equal(t, "English", kb.Keyboard[0][0].Text)
	require.Equal(t, "Indonesian", kb.Keyboard[0][1].Text)
	require.Equal(t, entity.StateAwaitingLanguage, f.user(t).State)

	f.bot.handleMessage(ctx, textMessage("Indonesian"))

	msg, ok = f.api.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, f.texts.Text("Indonesian", i18n.KeyLanguageSet), msg.Text)

	u := f.user(t)
	require.Equal(t, "Indonesian", u.Language)
	require.Equal(t, entity.StateMainMenu, u.State)
}

func TestBot_LanguageNameOutsidePickerIsNotApplied(t *testing.T) {
	f := newFixture(t, &fakeModel{}, &fakeDescriber{text: "x"}, nil)

	f.bot.handleMessage(context.Background(), textMessage("Indonesian"))

	msg, ok := f.api.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, f.texts.Text("English", i18n.KeySendPhoto), msg.Text)
	require.Empty(t, f.user(t).Language)
}

func TestBot_DescribeTab(t *testing.T) {
	f := newFixture(t, &fakeModel{}, &fakeDescriber{text: "x"}, nil)

	f.bot.handleMessage(context.Background(), textMessage("📷 Describe Scene"))

	msg, ok := f.api.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, f.texts.Text("English", i18n.KeyAwaitingPhoto), msg.Text)
	require.Equal(t, entity.StateAwaitingPhoto, f.user(t).State)
}

func TestBot_CancelAndUnknownCommand(t *testing.T) {
	f := newFixture(t, &fakeModel{}, &fakeDescriber{text: "x"}, nil)
	ctx := context.Background()

	f.bot.handleMessage(ctx, command("describe"))
	require.Equal(t, entity.StateAwaitingPhoto, f.user(t).State)

	f.bot.handleMessage(ctx, command("cancel"))
	require.Equal(t, entity.StateMainMenu, f.user(t).State)
	msg, ok := f.api.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, f.texts.Text("English", i18n.KeyCancelled), msg.Text)

	f.bot.handleMessage(ctx, command("nope"))
	msg, ok = f.api.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, f.texts.Text("English", i18n.KeyUnknownCommand), msg.Text)
}

func TestImageFileID(t *testing.T) {
	id, ok := imageFileID(photoMessage())
	require.True(t, ok)
	require.Equal(t, "large", id)

	id, ok = imageFileID(&tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", MimeType: "image/webp"}})
	require.True(t, ok)
	require.Equal(t, "doc", id)

	_, ok = imageFileID(&tgbotapi.Message{Document: &tgbotapi.Document{FileID: "pdf", MimeType: "application/pdf"}})
	require.False(t, ok)

	_, ok = imageFileID(&tgbotapi.Message{Text: "hello"})
	require.False(t, ok)
}

func TestRunWithoutClient(t *testing.T) {
	f := newFixture(t, &fakeModel{}, &fakeDescriber{text: "x"}, nil)
	require.Error(t, f.bot.Run(context.Background()))
}
