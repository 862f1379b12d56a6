// Package telegram provides Telegram Bot API integration using go-telegram/bot library.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf16"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"tunegrab/internal/chat"
	"tunegrab/internal/flood"
	"tunegrab/pkg/text"
)

const (
	entityTypeURL      = "url"
	entityTypeTextLink = "text_link"
)

var errDisabled = errors.New("telegram frontend is disabled")

// Config holds Telegram-specific configuration
type Config struct {
	BotToken            string
	APIServer           string // Custom Bot API server URL, empty for the public one
	Enabled             bool
	FloodLimitPerMinute int // Maximum messages per user per minute
}

// Frontend implements the chat.Frontend interface for Telegram
type Frontend struct {
	config    *Config
	logger    *zap.Logger
	bot       *bot.Bot
	parser    *text.Parser
	floodgate *flood.Floodgate

	// Message handling
	messageHandler func(*chat.Message)
}

// NewFrontend creates a new Telegram frontend
func NewFrontend(config *Config, logger *zap.Logger) *Frontend {
	return &Frontend{
		config:    config,
		logger:    logger,
		parser:    text.NewParser(),
		floodgate: flood.New(config.FloodLimitPerMinute),
	}
}

// Start initializes the Telegram bot and verifies the token
func (f *Frontend) Start(ctx context.Context) error {
	if !f.config.Enabled {
		f.logger.Info("Telegram frontend is disabled, skipping initialization")
		return nil
	}

	f.logger.Info("Starting Telegram frontend")

	opts := []bot.Option{
		bot.WithDefaultHandler(f.handleUpdate),
		bot.WithErrorsHandler(func(err error) {
			f.logger.Warn("Telegram polling error", zap.Error(err))
		}),
	}
	if f.config.APIServer != "" {
		opts = append(opts, bot.WithServerURL(f.config.APIServer))
	}

	b, err := bot.New(f.config.BotToken, opts...)
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}

	f.bot = b

	me, err := b.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify bot token: %w", err)
	}

	f.logger.Info("Telegram frontend started successfully",
		zap.String("username", me.Username))
	return nil
}

// Listen starts polling for updates and blocks until ctx is done
func (f *Frontend) Listen(ctx context.Context, handler func(*chat.Message)) error {
	if !f.config.Enabled {
		return nil // Do nothing if disabled
	}

	f.messageHandler = handler

	f.bot.Start(ctx)

	stats := f.floodgate.GetStats()
	f.floodgate.Stop()
	f.logger.Info("Telegram polling stopped",
		zap.Int("trackedSenders", stats.ActiveUsers),
		zap.Int("floodLimitPerMinute", stats.LimitPerMinute))

	return nil
}

// SendText sends an HTML formatted message to the specified chat, optionally as a reply
func (f *Frontend) SendText(ctx context.Context, chatID, replyToID, text string) (string, error) {
	if !f.config.Enabled {
		return "", errDisabled
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid chat ID: %w", err)
	}

	params := &bot.SendMessageParams{
		ChatID:    chatIDInt,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}

	// Status messages quote Spotify titles, previews only add noise
	disabled := true
	params.LinkPreviewOptions = &models.LinkPreviewOptions{
		IsDisabled: &disabled,
	}

	if replyToID != "" {
		messageID, parseErr := strconv.Atoi(replyToID)
		if parseErr != nil {
			return "", fmt.Errorf("invalid reply message ID: %w", parseErr)
		}
		params.ReplyParameters = &models.ReplyParameters{
			MessageID:                messageID,
			AllowSendingWithoutReply: true,
		}
	}

	msg, err := f.bot.SendMessage(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	return strconv.Itoa(msg.ID), nil
}

// EditText replaces the text of a message sent by the bot
func (f *Frontend) EditText(ctx context.Context, chatID, msgID, text string) error {
	if !f.config.Enabled {
		return errDisabled
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}

	messageID, err := strconv.Atoi(msgID)
	if err != nil {
		return fmt.Errorf("invalid message ID: %w", err)
	}

	disabled := true
	_, err = f.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:    chatIDInt,
		MessageID: messageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disabled,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}

	return nil
}

// SendAudio uploads an audio file with its display fields
func (f *Frontend) SendAudio(ctx context.Context, chatID, replyToID string, audio *chat.Audio) error {
	if !f.config.Enabled {
		return errDisabled
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}

	if _, actionErr := f.bot.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatIDInt,
		Action: models.ChatActionUploadDocument,
	}); actionErr != nil {
		f.logger.Debug("Failed to send chat action", zap.Error(actionErr))
	}

	params := &bot.SendAudioParams{
		ChatID: chatIDInt,
		Audio: &models.InputFileUpload{
			Filename: audio.Filename,
			Data:     audio.Data,
		},
		Title:     audio.Title,
		Performer: audio.Performer,
		Duration:  audio.DurationSecs,
	}

	if replyToID != "" {
		messageID, parseErr := strconv.Atoi(replyToID)
		if parseErr != nil {
			return fmt.Errorf("invalid reply message ID: %w", parseErr)
		}
		params.ReplyParameters = &models.ReplyParameters{
			MessageID:                messageID,
			AllowSendingWithoutReply: true,
		}
	}

	if _, err := f.bot.SendAudio(ctx, params); err != nil {
		return fmt.Errorf("failed to send audio: %w", err)
	}

	return nil
}

// handleUpdate is the default handler for all incoming updates
func (f *Frontend) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message != nil {
		f.handleMessage(ctx, update.Message)
	}
}

// handleMessage processes incoming messages
func (f *Frontend) handleMessage(_ context.Context, msg *models.Message) {
	message := f.convertMessage(msg)
	if message == nil {
		return
	}

	if !f.floodgate.CheckMessage(message.ChatID, message.SenderID) {
		f.logger.Debug("Message dropped by floodgate",
			zap.String("chatID", message.ChatID),
			zap.String("senderID", message.SenderID))
		return
	}

	if f.messageHandler != nil {
		f.messageHandler(message)
	}
}

// convertMessage maps a Telegram message to the unified format, nil for messages to ignore
func (f *Frontend) convertMessage(msg *models.Message) *chat.Message {
	// Channel posts have no sender, bots are ignored
	if msg.From == nil || msg.From.IsBot {
		return nil
	}

	if msg.Text == "" {
		return nil
	}

	urls := f.extractURLs(msg)
	if len(urls) == 0 {
		urls = f.parser.ExtractURLs(msg.Text)
	}

	return &chat.Message{
		ID:         strconv.Itoa(msg.ID),
		ChatID:     strconv.FormatInt(msg.Chat.ID, 10),
		SenderID:   strconv.FormatInt(msg.From.ID, 10),
		SenderName: f.getUserDisplayName(msg.From),
		Text:       msg.Text,
		URLs:       urls,
	}
}

// extractURLs extracts URLs from message entities.
// Entity offsets and lengths are counted in UTF-16 code units.
func (f *Frontend) extractURLs(msg *models.Message) []string {
	var urls []string

	if len(msg.Entities) == 0 {
		return urls
	}

	encoded := utf16.Encode([]rune(msg.Text))
	for _, entity := range msg.Entities {
		switch entity.Type {
		case entityTypeURL:
			end := entity.Offset + entity.Length
			if entity.Offset < 0 || end > len(encoded) {
				continue
			}
			urls = append(urls, string(utf16.Decode(encoded[entity.Offset:end])))
		case entityTypeTextLink:
			if entity.URL != "" {
				urls = append(urls, entity.URL)
			}
		}
	}

	return urls
}

// getUserDisplayName creates a display name for the user
func (f *Frontend) getUserDisplayName(user *models.User) string {
	if user.Username != "" {
		return "@" + user.Username
	}

	name := user.FirstName
	if user.LastName != "" {
		name += " " + user.LastName
	}

	return name
}
