package telegram

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"inpainter/internal/container"
	"inpainter/internal/domain/entity"
	"inpainter/internal/infrastructure/imageio"
	"inpainter/internal/infrastructure/storage"
	"inpainter/internal/inpaint"
)

// fakeAPI записывает всё, что бот отправил.
type fakeAPI struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	nextID  int
	files   string
	updates chan tgbotapi.Update
	stopped bool
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, c)
	a.nextID++
	return tgbotapi.Message{MessageID: a.nextID}, nil
}

func (a *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (a *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return a.files + "/" + fileID, nil
}

func (a *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return a.updates
}

func (a *fakeAPI) StopReceivingUpdates() {
	a.mu.Lock()
	a.stopped = true
	a.mu.Unlock()
}

func (a *fakeAPI) texts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, c := range a.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (a *fakeAPI) last() tgbotapi.Chattable {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sent[len(a.sent)-1]
}

// paintEngine закрашивает маску синим.
type paintEngine struct{}

func (paintEngine) Inpaint(ctx context.Context, img *entity.Image, mask *entity.Mask, progress inpaint.ProgressFunc) (*entity.Image, error) {
	out := img.Clone()
	for i, v := range mask.Pix {
		if v > entity.MaskThreshold {
			copy(out.Pix[i*4:i*4+4], []uint8{0, 0, 255, 255})
		}
	}
	progress(0.5)
	return out, nil
}

func (paintEngine) Settings() string { return "paint" }
func (paintEngine) Backend() string  { return "paint" }

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI) {
	t.Helper()

	photo := image.NewNRGBA(image.Rect(0, 0, 12, 12))
	for i := range photo.Pix {
		photo.Pix[i] = 255
	}
	mask := image.NewNRGBA(image.Rect(0, 0, 12, 12))
	mask.SetNRGBA(6, 6, color.NRGBA{A: 255})

	files := map[string][]byte{
		"photo":      pngBytes(t, photo),
		"mask":       pngBytes(t, mask),
		"empty-mask": pngBytes(t, image.NewNRGBA(image.Rect(0, 0, 12, 12))),
		"garbage":    []byte("not an image"),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)

	logger := zaptest.NewLogger(t)
	c := container.New(
		storage.NewMemoryUserRepository(0),
		storage.NewMemoryMaskStore(0),
		paintEngine{},
		nil,
		time.Second,
		logger,
	)
	api := &fakeAPI{files: srv.URL, updates: make(chan tgbotapi.Update)}
	return newBot(api, c, 0, logger), api
}

func command(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 1},
		Chat:     &tgbotapi.Chat{ID: 10},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}
}

func document(fileID, name string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 1},
		Chat:     &tgbotapi.Chat{ID: 10},
		Document: &tgbotapi.Document{FileID: fileID, FileName: name, MimeType: "image/png"},
	}
}

func photo(fileID string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From:  &tgbotapi.User{ID: 1},
		Chat:  &tgbotapi.Chat{ID: 10},
		Photo: []tgbotapi.PhotoSize{{FileID: "thumb"}, {FileID: fileID}},
	}
}

func TestBot_StartAndHelp(t *testing.T) {
	bot, api := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, command("/start"))
	bot.handleMessage(ctx, command("/help"))
	bot.handleMessage(ctx, command("/unknown"))

	require.Equal(t, []string{msgStart, msgHelp, msgUnknownCommand}, api.texts())
}

func TestBot_PhotoWithoutMask(t *testing.T) {
	bot, api := newTestBot(t)

	bot.handleMessage(context.Background(), photo("photo"))
	require.Equal(t, []string{msgNoTemplate}, api.texts())
}

func TestBot_MaskThenPhoto(t *testing.T) {
	bot, api := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, command("/mask"))
	bot.handleMessage(ctx, document("mask", "mask.png"))
	require.Equal(t, []string{msgAwaitingMask, "✅ Маска 12×12 сохранена. Теперь присылайте фото."}, api.texts())

	bot.handleMessage(ctx, photo("photo"))

	texts := api.texts()
	require.Equal(t, msgProcessing, texts[2])
	require.Contains(t, texts, "⏳ Обрабатываю изображение... 50%")
	require.True(t, strings.HasPrefix(texts[len(texts)-1], "✅ Готово за"))

	var result *tgbotapi.PhotoConfig
	api.mu.Lock()
	for _, c := range api.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			result = &p
		}
	}
	api.mu.Unlock()
	require.NotNil(t, result)

	fb, ok := result.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	out, format, err := imageio.DecodeBytes(fb.Bytes)
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.Equal(t, 12, out.Width)

	user, err := bot.users.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, user.State)
}

func TestBot_DocumentResultKeepsFormat(t *testing.T) {
	bot, api := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, command("/mask"))
	bot.handleMessage(ctx, document("mask", "mask.png"))
	bot.handleMessage(ctx, document("photo", "shot.png"))

	var doc *tgbotapi.DocumentConfig
	api.mu.Lock()
	for _, c := range api.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			doc = &d
		}
	}
	api.mu.Unlock()
	require.NotNil(t, doc)

	fb := doc.File.(tgbotapi.FileBytes)
	require.Equal(t, "inpainted_shot.png", fb.Name)
	out, _, err := imageio.DecodeBytes(fb.Bytes)
	require.NoError(t, err)
	o := out.Offset(6, 6)
	require.Equal(t, []uint8{0, 0, 255, 255}, out.Pix[o:o+4])
}

func TestBot_EmptyAndBrokenMask(t *testing.T) {
	bot, api := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, command("/mask"))
	bot.handleMessage(ctx, document("empty-mask", "m.png"))
	bot.handleMessage(ctx, document("garbage", "m.png"))

	require.Equal(t, []string{msgAwaitingMask, msgMaskEmpty, msgDecodeError}, api.texts())
}

func TestBot_ClearMask(t *testing.T) {
	bot, api := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, command("/mask"))
	bot.handleMessage(ctx, document("mask", "mask.png"))
	bot.handleMessage(ctx, command("/clear"))
	bot.handleMessage(ctx, photo("photo"))

	texts := api.texts()
	require.Equal(t, msgMaskCleared, texts[2])
	require.Equal(t, msgNoTemplate, texts[3])
}

func TestBot_TextMessage(t *testing.T) {
	bot, api := newTestBot(t)

	bot.handleMessage(context.Background(), &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 10},
		Text: "hello",
	})
	require.Equal(t, msgSendPhoto, api.last().(tgbotapi.MessageConfig).Text)
}

func TestBot_RunStopsOnCancel(t *testing.T) {
	bot, api := newTestBot(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	api.updates <- tgbotapi.Update{Message: command("/help")}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bot did not stop")
	}
	api.mu.Lock()
	require.True(t, api.stopped)
	api.mu.Unlock()
	require.Equal(t, []string{msgHelp}, api.texts())
}
