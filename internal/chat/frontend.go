// Package chat provides a unified interface for chat frontends.
package chat

import (
	"context"
	"io"
)

// Message represents a normalized chat message from any frontend
type Message struct {
	ID         string
	ChatID     string
	SenderID   string
	SenderName string
	Text       string
	URLs       []string
}

// Audio is an audio file upload with its display fields
type Audio struct {
	Title        string
	Performer    string
	DurationSecs int
	Filename     string
	Data         io.Reader
}

// Frontend defines the unified interface for all chat integrations
type Frontend interface {
	// Start initializes the chat frontend
	Start(ctx context.Context) error

	// Listen blocks receiving messages and calls the handler for each message
	Listen(ctx context.Context, handler func(*Message)) error

	// SendText sends a text message to the specified chat, optionally as a reply
	SendText(ctx context.Context, chatID, replyToID, text string) (string, error)

	// EditText replaces the text of a previously sent message
	EditText(ctx context.Context, chatID, msgID, text string) error

	// SendAudio uploads an audio file to the specified chat, optionally as a reply
	SendAudio(ctx context.Context, chatID, replyToID string, audio *Audio) error
}
