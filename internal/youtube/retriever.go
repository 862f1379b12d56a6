package youtube

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const dirPermission = 0o755

// ErrOutputMissing is returned when yt-dlp exits cleanly but left no file.
var ErrOutputMissing = errors.New("expected output file not found")

// RetrieverConfig holds download settings.
type RetrieverConfig struct {
	Dir              string
	CookieFile       string // Passed to yt-dlp only if the file exists
	Executable       string
	AudioFormat      string
	AudioBitrateKbps int
}

// Retriever downloads the best audio of a source and transcodes it.
type Retriever struct {
	config      RetrieverConfig
	logger      *zap.Logger
	newDownload func(outputTemplate, cookieFile string) runner
}

// NewRetriever creates a Retriever for config.
func NewRetriever(config RetrieverConfig, logger *zap.Logger) *Retriever {
	r := &Retriever{
		config: config,
		logger: logger,
	}
	r.newDownload = r.downloadCommand
	return r
}

func (r *Retriever) downloadCommand(outputTemplate, cookieFile string) runner {
	cmd := baseCommand(r.config.Executable).
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat(r.config.AudioFormat).
		AudioQuality(strconv.Itoa(r.config.AudioBitrateKbps) + "K").
		Output(outputTemplate).
		NoPlaylist().
		NoWarnings().
		Quiet()
	if cookieFile != "" {
		cmd.Cookies(cookieFile)
	}
	return cmd
}

// EnsureDownloadDir creates the download directory if needed.
func (r *Retriever) EnsureDownloadDir() error {
	if err := os.MkdirAll(r.config.Dir, dirPermission); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	return nil
}

// Retrieve downloads sourceURL to <dir>/<filename>.<format> and returns the path.
func (r *Retriever) Retrieve(ctx context.Context, sourceURL, filename string) (string, error) {
	expected := filepath.Join(r.config.Dir, filename+"."+r.config.AudioFormat)
	// yt-dlp expands %(...)s fields in the template, literal percent signs are doubled
	template := filepath.Join(r.config.Dir, strings.ReplaceAll(filename, "%", "%%")) + ".%(ext)s"

	r.logger.Debug("Starting download",
		zap.String("url", sourceURL),
		zap.String("output", expected))

	if _, err := r.newDownload(template, r.cookieFile()).Run(ctx, sourceURL); err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	if _, err := os.Stat(expected); err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutputMissing, expected)
	}

	return expected, nil
}

func (r *Retriever) cookieFile() string {
	if r.config.CookieFile == "" {
		return ""
	}
	if _, err := os.Stat(r.config.CookieFile); err != nil {
		return ""
	}
	return r.config.CookieFile
}
