package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	app "inpainter/internal/application"
	"inpainter/internal/container"
	"inpainter/internal/domain/entity"
	"inpainter/internal/infrastructure/imageio"
)

const (
	msgStart = `👋 Привет! Я убираю лишнее с фотографий: водяные знаки, надписи, случайные предметы.

1️⃣ Отправьте /mask и затем маску: PNG с прозрачным фоном, где закрашено то, что нужно убрать (или чёрно-белую картинку, белое убирается).
2️⃣ Присылайте фото, маска применится к каждому.

📋 Команды:
/mask — задать маску
/clear — удалить маску
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ /mask и файл маски того же размера, что и фото (другой размер будет растянут)
2️⃣ Фото или файл изображения
3️⃣ Бот вернёт изображение с закрашенной областью

💡 Рекомендации:
• Присылайте маску файлом (документом), чтобы сохранилась прозрачность
• Маска должна немного выходить за края удаляемого объекта
• Фото без сжатия присылайте документом, результат придёт тоже файлом`

	msgAwaitingMask    = "🖌 Отправьте маску файлом (PNG с прозрачностью) или картинкой."
	msgMaskSaved       = "✅ Маска %d×%d сохранена. Теперь присылайте фото."
	msgMaskEmpty       = "⚠️ На маске ничего не отмечено. Закрасьте область, которую нужно убрать."
	msgMaskCleared     = "🗑 Маска удалена. Отправьте /mask, чтобы задать новую."
	msgNoTemplate      = "🖌 Сначала задайте маску командой /mask."
	msgCancelled       = "❌ Операция отменена."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото или файл изображения."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgBusy            = "⏳ Предыдущее фото ещё обрабатывается, подождите."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgProgress        = "⏳ Обрабатываю изображение... %d%%"
	msgDone            = "✅ Готово за %s (%s)."
	msgDoneCached      = "✅ Готово (из кэша)."
	msgQueueFull       = "🚦 Сейчас много запросов. Попробуйте через минуту."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте другое фото."
	msgDecodeError     = "⚠️ Не удалось прочитать изображение. Поддерживаются JPEG, PNG, WebP."
)

// botAPI часть tgbotapi.BotAPI, которой пользуется бот.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота
type Bot struct {
	api              botAPI
	users            *app.UserService
	masks            *app.MaskService
	inpaint          *app.InpaintService
	http             *http.Client
	progressInterval time.Duration
	logger           *zap.Logger
	wg               sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, progressInterval time.Duration, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Info("authorized on telegram", zap.String("account", api.Self.UserName))
	return newBot(api, c, progressInterval, logger), nil
}

func newBot(api botAPI, c *container.Container, progressInterval time.Duration, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:              api,
		users:            c.UserService,
		masks:            c.MaskService,
		inpaint:          c.InpaintService,
		http:             &http.Client{Timeout: time.Minute},
		progressInterval: progressInterval,
		logger:           logger,
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx.
// Сообщения обрабатываются параллельно, при остановке Run дожидается
// текущих обработок.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("failed to get user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	fileID, isDocument := imageFile(msg)
	if fileID == "" {
		b.sendMessage(msg.Chat.ID, msgSendPhoto)
		return
	}

	if user.State == entity.StateAwaitingMask {
		b.handleMask(ctx, msg, fileID)
		return
	}
	b.handlePhoto(ctx, msg, fileID, isDocument)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	var err error
	switch msg.Command() {
	case "start":
		if !user.Busy() {
			_, err = b.users.Cancel(ctx, user.ID, msg.Chat.ID)
		}
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "mask":
		if user.Busy() {
			b.sendMessage(msg.Chat.ID, msgBusy)
			return
		}
		_, err = b.users.BeginMask(ctx, user.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgAwaitingMask)

	case "clear":
		_, err = b.masks.Clear(ctx, user.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgMaskCleared)

	case "cancel":
		if user.Busy() {
			b.sendMessage(msg.Chat.ID, msgBusy)
			return
		}
		_, err = b.users.Cancel(ctx, user.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}

	if err != nil {
		b.logger.Error("failed to handle command",
			zap.String("command", msg.Command()), zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

// handleMask принимает маску-шаблон.
func (b *Bot) handleMask(ctx context.Context, msg *tgbotapi.Message, fileID string) {
	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.Error("failed to download mask", zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	img, _, err := imageio.DecodeBytes(data)
	if err != nil {
		b.sendMessage(msg.Chat.ID, msgDecodeError)
		return
	}
	mask := imageio.MaskFromImage(img)

	if _, err := b.masks.AcceptTemplate(ctx, msg.From.ID, msg.Chat.ID, mask); err != nil {
		if errors.Is(err, entity.ErrEmptyMask) {
			b.sendMessage(msg.Chat.ID, msgMaskEmpty)
			return
		}
		b.logger.Error("failed to save mask", zap.Error(err))
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	b.logger.Info("mask template saved",
		zap.Int64("user_id", msg.From.ID),
		zap.Int("width", mask.Width),
		zap.Int("height", mask.Height),
		zap.Int("masked", mask.FilledCount()))
	b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgMaskSaved, mask.Width, mask.Height))
}

// handlePhoto закрашивает фото сохранённой маской и отправляет результат.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, fileID string, isDocument bool) {
	chatID, userID := msg.Chat.ID, msg.From.ID

	mask, err := b.masks.Template(ctx, userID)
	if err != nil {
		if !errors.Is(err, app.ErrNoTemplate) {
			b.logger.Error("failed to load mask template", zap.Error(err))
		}
		b.sendMessage(chatID, msgNoTemplate)
		return
	}

	if _, err := b.users.BeginProcessing(ctx, userID, chatID); err != nil {
		b.sendMessage(chatID, msgBusy)
		return
	}
	defer func() {
		if _, err := b.users.FinishProcessing(context.WithoutCancel(ctx), userID, chatID); err != nil {
			b.logger.Error("failed to reset user state", zap.Error(err))
		}
	}()

	status, err := b.api.Send(tgbotapi.NewMessage(chatID, msgProcessing))
	if err != nil {
		b.logger.Error("failed to send message", zap.Error(err))
	}

	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.Error("failed to download photo", zap.Error(err))
		b.editMessage(chatID, status.MessageID, msgProcessingError)
		return
	}
	img, _, err := imageio.DecodeBytes(data)
	if err != nil {
		b.editMessage(chatID, status.MessageID, msgDecodeError)
		return
	}

	res, err := b.inpaint.Process(ctx, img, mask, b.progressReporter(chatID, status.MessageID))
	if err != nil {
		b.logger.Error("failed to inpaint photo", zap.Int64("user_id", userID), zap.Error(err))
		switch {
		case errors.Is(err, app.ErrQueueTimeout):
			b.editMessage(chatID, status.MessageID, msgQueueFull)
		case errors.Is(err, entity.ErrEmptyMask):
			b.editMessage(chatID, status.MessageID, msgMaskEmpty)
		default:
			b.editMessage(chatID, status.MessageID, msgProcessingError)
		}
		return
	}

	if err := b.sendResult(chatID, msg, res.Image, isDocument); err != nil {
		b.logger.Error("failed to send result", zap.Error(err))
		b.editMessage(chatID, status.MessageID, msgProcessingError)
		return
	}

	if res.Cached {
		b.editMessage(chatID, status.MessageID, msgDoneCached)
	} else {
		b.editMessage(chatID, status.MessageID, fmt.Sprintf(msgDone, res.Cost.Round(time.Millisecond), b.inpaint.Backend()))
	}
}

// progressReporter обновляет сообщение о ходе обработки не чаще progressInterval.
func (b *Bot) progressReporter(chatID int64, messageID int) func(float64) {
	limiter := rate.NewLimiter(rate.Every(b.progressInterval), 1)
	limiter.Allow() // первое сообщение уже отправлено
	last := -1
	return func(fraction float64) {
		pct := int(fraction * 100)
		if pct == last || pct >= 100 || !limiter.Allow() {
			return
		}
		last = pct
		b.editMessage(chatID, messageID, fmt.Sprintf(msgProgress, pct))
	}
}

func (b *Bot) sendResult(chatID int64, msg *tgbotapi.Message, img *entity.Image, isDocument bool) error {
	name := "inpainted.jpg"
	if isDocument && msg.Document.FileName != "" {
		name = imageio.OutputName("inpainted_" + msg.Document.FileName)
	}

	data, err := imageio.EncodeBytes(img, imageio.FormatFor(name))
	if err != nil {
		return err
	}
	file := tgbotapi.FileBytes{Name: name, Bytes: data}

	var out tgbotapi.Chattable = tgbotapi.NewPhoto(chatID, file)
	if isDocument {
		out = tgbotapi.NewDocument(chatID, file)
	}
	_, err = b.api.Send(out)
	return err
}

// imageFile возвращает идентификатор файла с изображением: фото в
// максимальном разрешении или документ с картинкой.
func imageFile(msg *tgbotapi.Message) (fileID string, isDocument bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, false
	}
	if doc := msg.Document; doc != nil {
		if strings.HasPrefix(doc.MimeType, "image/") || imageio.IsImageName(doc.FileName) {
			return doc.FileID, true
		}
	}
	return "", false
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	if messageID == 0 {
		b.sendMessage(chatID, text)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.api.Request(edit); err != nil {
		b.logger.Warn("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
