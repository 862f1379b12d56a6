package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tunegrab/internal/chat"
	"tunegrab/internal/i18n"
	"tunegrab/pkg/text"
)

const (
	commandPrefix = "/"
	commandStart  = "start"
	commandHelp   = "help"
	commandSong   = "song"
)

// RequestRunner executes a download request.
type RequestRunner interface {
	Run(ctx context.Context, req *Request) error
}

// Dispatcher handles messages from any chat frontend using the unified interface.
type Dispatcher struct {
	frontend  chat.Frontend
	runner    RequestRunner
	parser    *text.Parser
	localizer *i18n.Localizer
	logger    *zap.Logger

	onReady  func()
	newID    func() string
	inFlight sync.WaitGroup
}

// NewDispatcher creates a new dispatcher with the provided chat frontend.
func NewDispatcher(config *Config, frontend chat.Frontend, runner RequestRunner, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		frontend:  frontend,
		runner:    runner,
		parser:    text.NewParser(),
		localizer: i18n.NewLocalizer(config.App.Language),
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// OnReady registers a callback invoked once the frontend has started.
func (d *Dispatcher) OnReady(fn func()) {
	d.onReady = fn
}

// Start starts the chat frontend and blocks processing messages until ctx is done.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info("Starting message dispatcher")

	if err := d.frontend.Start(ctx); err != nil {
		return fmt.Errorf("failed to start chat frontend: %w", err)
	}

	if d.onReady != nil {
		d.onReady()
	}

	return d.frontend.Listen(ctx, func(msg *chat.Message) {
		d.inFlight.Add(1)
		go func() {
			defer d.inFlight.Done()
			d.handleMessage(ctx, msg)
		}()
	})
}

// Wait blocks until every message handler has returned.
func (d *Dispatcher) Wait() {
	d.inFlight.Wait()
}

// handleMessage routes one incoming message.
func (d *Dispatcher) handleMessage(ctx context.Context, msg *chat.Message) {
	body := strings.TrimSpace(msg.Text)
	if body == "" {
		return
	}

	d.logger.Debug("Received message",
		zap.String("chatID", msg.ChatID),
		zap.String("senderID", msg.SenderID),
		zap.String("sender", msg.SenderName))

	if strings.HasPrefix(body, commandPrefix) {
		d.handleCommand(ctx, msg, body)
		return
	}

	if !d.parser.ContainsCatalogLink(body) {
		d.reply(ctx, msg, d.localizer.T("bot.hint"))
		return
	}

	d.runRequest(ctx, msg, d.catalogURL(msg, body))
}

func (d *Dispatcher) handleCommand(ctx context.Context, msg *chat.Message, body string) {
	fields := strings.Fields(body)
	command := strings.TrimPrefix(fields[0], commandPrefix)
	// Group chats address commands as /song@botname
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}
	args := fields[1:]

	switch strings.ToLower(command) {
	case commandStart:
		d.reply(ctx, msg, d.localizer.T("bot.welcome"))
	case commandHelp:
		d.reply(ctx, msg, d.localizer.T("bot.help"))
	case commandSong:
		if len(args) == 0 {
			d.reply(ctx, msg, d.localizer.T("bot.song_usage"))
			return
		}
		d.runRequest(ctx, msg, args[0])
	default:
		d.logger.Debug("Ignoring unknown command", zap.String("command", command))
	}
}

// catalogURL prefers URLs the frontend extracted, then URLs in the text, then the text itself.
func (d *Dispatcher) catalogURL(msg *chat.Message, body string) string {
	for _, u := range msg.URLs {
		if d.parser.ContainsCatalogLink(u) {
			return u
		}
	}
	return d.parser.FirstCatalogURL(body)
}

func (d *Dispatcher) runRequest(ctx context.Context, msg *chat.Message, rawURL string) {
	req := &Request{
		ID:        d.newID(),
		UserID:    msg.SenderID,
		ChatID:    msg.ChatID,
		MessageID: msg.ID,
		URL:       rawURL,
	}

	// Failures were already reported to the user
	if err := d.runner.Run(ctx, req); err != nil {
		d.logger.Debug("Request finished with error",
			zap.String("requestID", req.ID),
			zap.String("kind", KindOf(err).String()))
	}
}

func (d *Dispatcher) reply(ctx context.Context, msg *chat.Message, message string) {
	if _, err := d.frontend.SendText(ctx, msg.ChatID, msg.ID, message); err != nil {
		d.logger.Warn("Failed to send reply",
			zap.String("chatID", msg.ChatID),
			zap.Error(err))
	}
}
