package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	app "terrain-bot/internal/application"
	"terrain-bot/internal/container"
	"terrain-bot/internal/domain/entity"
	"terrain-bot/internal/infrastructure/vision"
)

const (
	msgStart = `👋 Привет! Я бот для оценки проходимости местности по снимку.

📸 Отправьте снимок поверхности, затем нажмите «Анализировать».

📋 Команды:
/analyze — проанализировать текущий снимок
/status — текущее состояние
/reset — очистить сессию
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте снимок местности (фото или файл PNG/JPG)
2️⃣ Нажмите «Анализировать» или отправьте /analyze
3️⃣ Получите вердикт, состав поверхности и карту сегментации

Новый снимок заменяет предыдущий вместе с результатом.

📋 Команды:
/analyze — проанализировать снимок
/status — текущее состояние
/reset — очистить сессию`

	msgSendPhoto       = "📸 Пожалуйста, отправьте снимок местности."
	msgNotAnImage      = "📎 Этот файл не похож на изображение. Отправьте PNG или JPG."
	msgImageAccepted   = "📷 Снимок «%s» получен (%d КБ). Нажмите «Анализировать»."
	msgNoImage         = "📸 Сначала отправьте снимок местности."
	msgBusy            = "⏳ Анализ уже выполняется, дождитесь результата."
	msgAnalyzing       = "⏳ Анализирую местность..."
	msgReset           = "🗑 Сессия очищена. Отправьте новый снимок."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgDownloadError   = "⚠️ Не удалось скачать снимок. Попробуйте отправить его ещё раз."
	msgInternalError   = "⚠️ Внутренняя ошибка. Попробуйте позже."
	msgFailedRetryHint = "Снимок сохранён, можно повторить /analyze."
	msgSegmentation    = "🗺 Карта сегментации"

	callbackAnalyze = "analyze"
	callbackReset   = "reset"
)

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	sessions *app.SessionService
	logger   *zap.Logger
}

// NewBot создаёт нового бота и подписывает его на изменения сессий
func NewBot(token string, c *container.Container) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger := c.Logger.Named("telegram")
	logger.Info("authorized", zap.String("account", api.Self.UserName))

	b := &Bot{
		api:      api,
		sessions: c.SessionService,
		logger:   logger,
	}
	c.SessionService.SetObserver(b)

	return b, nil
}

// Run запускает основной цикл обработки сообщений
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			switch {
			case update.CallbackQuery != nil:
				b.handleCallback(ctx, update.CallbackQuery)
			case update.Message != nil:
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	workflow, err := b.sessions.Workflow(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("failed to get session", zap.Error(err), zap.Int64("user_id", msg.From.ID))
		b.sendMessage(msg.Chat.ID, msgInternalError)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, workflow)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		b.handleImage(ctx, msg.Chat.ID, workflow, photo.FileID, fmt.Sprintf("photo_%d.jpg", msg.MessageID), "image/jpeg")
		return
	}

	// Снимок, отправленный файлом без сжатия
	if msg.Document != nil {
		if !strings.HasPrefix(msg.Document.MimeType, "image/") {
			b.sendMessage(msg.Chat.ID, msgNotAnImage)
			return
		}
		b.handleImage(ctx, msg.Chat.ID, workflow, msg.Document.FileID, msg.Document.FileName, msg.Document.MimeType)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, workflow *app.Workflow) {
	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "analyze", "check":
		b.startAnalysis(ctx, msg.Chat.ID, workflow)

	case "status":
		b.sendStatus(msg.Chat.ID, workflow.Snapshot())

	case "reset", "cancel":
		workflow.Reset(ctx)
		b.sendMessage(msg.Chat.ID, msgReset)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// handleCallback обрабатывает нажатия inline-кнопок
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", zap.Error(err))
	}
	if cq.Message == nil || cq.From == nil {
		return
	}

	chatID := cq.Message.Chat.ID
	workflow, err := b.sessions.Workflow(ctx, cq.From.ID, chatID)
	if err != nil {
		b.logger.Error("failed to get session", zap.Error(err), zap.Int64("user_id", cq.From.ID))
		b.sendMessage(chatID, msgInternalError)
		return
	}

	switch cq.Data {
	case callbackAnalyze:
		b.startAnalysis(ctx, chatID, workflow)
	case callbackReset:
		workflow.Reset(ctx)
		b.sendMessage(chatID, msgReset)
	}
}

// handleImage скачивает снимок и передаёт его в сессию
func (b *Bot) handleImage(ctx context.Context, chatID int64, workflow *app.Workflow, fileID, name, contentType string) {
	data, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.Warn("failed to download image", zap.Error(err), zap.String("file_id", fileID))
		b.sendMessage(chatID, msgDownloadError)
		return
	}

	snap := workflow.SelectImage(ctx, entity.NewImageFile(name, contentType, data))
	if !snap.HasImage() {
		b.sendMessage(chatID, msgSendPhoto)
		return
	}

	reply := tgbotapi.NewMessage(chatID, fmt.Sprintf(msgImageAccepted, snap.Image.Name, (snap.Image.Size()+1023)/1024))
	reply.ReplyMarkup = actionsKeyboard()
	b.send(reply)
}

// startAnalysis запускает анализ; результат придёт через OnSessionChange
func (b *Bot) startAnalysis(ctx context.Context, chatID int64, workflow *app.Workflow) {
	_, err := workflow.Analyze(ctx)
	switch {
	case errors.Is(err, entity.ErrNoImage):
		b.sendMessage(chatID, msgNoImage)
	case errors.Is(err, entity.ErrAnalysisInProgress):
		b.sendMessage(chatID, msgBusy)
	case err != nil:
		b.logger.Error("failed to start analysis", zap.Error(err))
		b.sendMessage(chatID, msgInternalError)
	}
}

// OnSessionChange отображает состояние сессии в чате
func (b *Bot) OnSessionChange(snap entity.Snapshot) {
	switch snap.State {
	case entity.StateAnalyzing:
		b.sendMessage(snap.ChatID, msgAnalyzing)

	case entity.StateSucceeded:
		b.sendResult(snap.ChatID, snap.Result)

	case entity.StateFailed:
		b.sendMessage(snap.ChatID, formatFailure(snap.Error))
	}
}

// sendResult отправляет вердикт и карту сегментации
func (b *Bot) sendResult(chatID int64, result *entity.AnalysisResult) {
	reply := tgbotapi.NewMessage(chatID, formatResult(result))
	reply.ReplyMarkup = actionsKeyboard()
	b.send(reply)

	file, ok := b.imageFile(result.SegmentationMap, "segmentation.png")
	if !ok {
		return
	}
	photo := tgbotapi.NewPhoto(chatID, file)
	photo.Caption = msgSegmentation
	b.send(photo)
}

// sendStatus показывает текущее состояние и превью снимка
func (b *Bot) sendStatus(chatID int64, snap entity.Snapshot) {
	text := formatStatus(snap)

	if file, ok := b.imageFile(snap.PreviewURI, "preview.jpg"); ok {
		photo := tgbotapi.NewPhoto(chatID, file)
		photo.Caption = text
		b.send(photo)
		return
	}
	b.sendMessage(chatID, text)
}

// imageFile превращает data URI или http(s) ссылку в файл для отправки
func (b *Bot) imageFile(uri, name string) (tgbotapi.RequestFileData, bool) {
	switch {
	case uri == "":
		return nil, false
	case vision.IsDataURI(uri):
		_, data, err := vision.DecodeDataURI(uri)
		if err != nil {
			b.logger.Warn("failed to decode image data URI", zap.Error(err), zap.String("name", name))
			return nil, false
		}
		return tgbotapi.FileBytes{Name: name, Bytes: data}, true
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return tgbotapi.FileURL(uri), true
	default:
		b.logger.Warn("unsupported image reference", zap.String("name", name))
		return nil, false
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

func actionsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Анализировать", callbackAnalyze),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Сбросить", callbackReset),
		),
	)
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Warn("failed to send message", zap.Error(err))
	}
}
