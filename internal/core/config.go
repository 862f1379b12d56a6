package core

import (
	"time"

	"tunegrab/internal/i18n"
)

// Configuration defaults.
const (
	DefaultServerPort          = 8080
	DefaultDownloadDir         = "downloads"
	DefaultCookieFile          = "cookies.txt"
	DefaultFloodLimitPerMinute = 6

	// MaxFileSize is the largest file a bot may upload through the public Bot API (50 MiB).
	MaxFileSize = 50 * 1024 * 1024
	// AudioBitrateKbps is the constant bitrate of produced MP3 files.
	AudioBitrateKbps = 320
	// AudioFormat is the container/codec produced by the transcoder.
	AudioFormat = "mp3"
	// MaxSearchResults is the number of search results requested from the video platform.
	MaxSearchResults = 5
)

type Config struct {
	Telegram TelegramConfig
	Spotify  SpotifyConfig
	Download DownloadConfig
	Server   ServerConfig
	Log      LogConfig
	App      AppConfig
}

type TelegramConfig struct {
	BotToken  string
	APIServer string // Optional Bot API server URL, empty for api.telegram.org
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

type DownloadConfig struct {
	Dir              string
	CookieFile       string // Used only if the file exists
	YtDlpPath        string // Empty resolves yt-dlp from PATH
	MaxFileSize      int64
	AudioFormat      string
	AudioBitrateKbps int
	MaxSearchResults int
}

type ServerConfig struct {
	Enabled      bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	Language            string
	FloodLimitPerMinute int
}

func DefaultConfig() *Config {
	return &Config{
		Download: DownloadConfig{
			Dir:              DefaultDownloadDir,
			CookieFile:       DefaultCookieFile,
			MaxFileSize:      MaxFileSize,
			AudioFormat:      AudioFormat,
			AudioBitrateKbps: AudioBitrateKbps,
			MaxSearchResults: MaxSearchResults,
		},
		Server: ServerConfig{
			Enabled:      true,
			Host:         "0.0.0.0",
			Port:         DefaultServerPort,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			Language:            i18n.DefaultLanguage,
			FloodLimitPerMinute: DefaultFloodLimitPerMinute,
		},
	}
}
