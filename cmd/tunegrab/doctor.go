package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tunegrab/internal/core"
	"tunegrab/internal/spotify"
	"tunegrab/internal/youtube"
)

const (
	doctorTimeout = 60 * time.Second
	// doctorTrackID is a well-known catalog track used to check connectivity.
	doctorTrackID     = "4iV5W9uYEdYUVa79Axb7Rh"
	placeholderPrefix = "your_"
)

var errChecksFailed = errors.New("one or more checks failed")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that tools, credentials and external services are usable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
		defer cancel()

		return runChecks(ctx, cmd.OutOrStdout(), doctorChecks(config))
	},
}

type doctorCheck struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// runChecks runs every check even after a failure and reports each one.
func runChecks(ctx context.Context, w io.Writer, checks []doctorCheck) error {
	failed := 0
	for _, check := range checks {
		detail, err := check.run(ctx)
		if err != nil {
			failed++
			fmt.Fprintf(w, "❌ %s: %v\n", check.name, err)
			continue
		}
		if detail != "" {
			fmt.Fprintf(w, "✅ %s: %s\n", check.name, detail)
		} else {
			fmt.Fprintf(w, "✅ %s\n", check.name)
		}
	}

	if failed > 0 {
		fmt.Fprintf(w, "\n%d of %d checks failed\n", failed, len(checks))
		return errChecksFailed
	}

	fmt.Fprintf(w, "\nAll %d checks passed\n", len(checks))
	return nil
}

func doctorChecks(cfg *core.Config) []doctorCheck {
	ytdlpPath := cfg.Download.YtDlpPath
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}

	return []doctorCheck{
		{"ffmpeg", binaryCheck("ffmpeg")},
		{"yt-dlp", binaryCheck(ytdlpPath)},
		{"Credentials", func(context.Context) (string, error) {
			return "configured", credentialsCheck(cfg)
		}},
		{"Download directory", func(context.Context) (string, error) {
			retriever := youtube.NewRetriever(youtube.RetrieverConfig{Dir: cfg.Download.Dir}, logger.Named("doctor"))
			return cfg.Download.Dir, retriever.EnsureDownloadDir()
		}},
		{"Cookie file", func(context.Context) (string, error) {
			if _, err := os.Stat(cfg.Download.CookieFile); err != nil {
				return "not present, downloading without cookies", nil
			}
			return cfg.Download.CookieFile, nil
		}},
		{"Spotify API", func(ctx context.Context) (string, error) {
			client := spotify.NewClient(&cfg.Spotify, logger.Named("doctor"))
			if err := client.Authenticate(ctx); err != nil {
				return "", err
			}
			meta, err := client.FetchTrack(ctx, doctorTrackID)
			if err != nil {
				return "", err
			}
			return "test track " + meta.DisplayTitle(), nil
		}},
		{"YouTube search", func(ctx context.Context) (string, error) {
			locator := youtube.NewLocator(cfg.Download.YtDlpPath, 1, logger.Named("doctor"))
			source, err := locator.Locate(ctx, "Queen", "Bohemian Rhapsody")
			if err != nil {
				return "", err
			}
			return source.Title, nil
		}},
	}
}

func binaryCheck(name string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		path, err := exec.LookPath(name)
		if err != nil {
			return "", fmt.Errorf("%s not found in PATH: %w", name, err)
		}
		return path, nil
	}
}

// credentialsCheck rejects missing values and untouched .env.example placeholders.
func credentialsCheck(cfg *core.Config) error {
	values := map[string]string{
		flagToEnvVar("telegram-bot-token"):    cfg.Telegram.BotToken,
		flagToEnvVar("spotify-client-id"):     cfg.Spotify.ClientID,
		flagToEnvVar("spotify-client-secret"): cfg.Spotify.ClientSecret,
	}

	var missing []string
	for name, value := range values {
		if value == "" || strings.HasPrefix(value, placeholderPrefix) {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing or placeholder values: %s", strings.Join(missing, ", "))
	}
	return nil
}
