// Package youtube locates and downloads audio sources through yt-dlp.
package youtube

import (
	"context"

	"github.com/lrstanley/go-ytdlp"
)

// WatchURLTemplate builds a playable URL from a video ID.
const WatchURLTemplate = "https://www.youtube.com/watch?v=%s"

// runner is the part of *ytdlp.Command the package depends on.
type runner interface {
	Run(ctx context.Context, args ...string) (*ytdlp.Result, error)
}

// baseCommand returns a yt-dlp command using the configured executable.
func baseCommand(executable string) *ytdlp.Command {
	cmd := ytdlp.New()
	if executable != "" {
		cmd.SetExecutable(executable)
	}
	return cmd
}
