// Package main provides the tunegrab CLI application entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"tunegrab/internal/chat/telegram"
	"tunegrab/internal/core"
	httpserver "tunegrab/internal/http"
	"tunegrab/internal/i18n"
	"tunegrab/internal/lease"
	"tunegrab/internal/spotify"
	"tunegrab/internal/tagger"
	"tunegrab/internal/youtube"
	"tunegrab/pkg/musiclink"
)

const (
	envPrefix         = "TUNEGRAB"
	defaultServerHost = "0.0.0.0"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

// legacyEnvAliases maps flags to environment variable names accepted for
// compatibility with existing deployments.
var legacyEnvAliases = map[string]string{
	"telegram-bot-token":    "TELEGRAM_TOKEN",
	"spotify-client-id":     "SPOTIPY_CLIENT_ID",
	"spotify-client-secret": "SPOTIPY_CLIENT_SECRET",
	"download-dir":          "DOWNLOAD_PATH",
}

var rootCmd = &cobra.Command{
	Use:   "tunegrab",
	Short: "tunegrab - Spotify links → tagged MP3 files over Telegram",
	Long: `tunegrab is a Telegram bot that takes Spotify track links, finds the song on YouTube,
downloads it as a 320 kbps MP3 with ID3 tags and cover art and sends it back to the user.`,
	RunE:         runTunegrab,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := core.DefaultConfig()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", defaults.Log.Format, "log format (json, console)")
	rootCmd.PersistentFlags().String("telegram-bot-token", "", "Telegram bot token")
	rootCmd.PersistentFlags().String("telegram-api-url", "", "Custom Telegram Bot API server URL")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("download-dir", defaults.Download.Dir, "Directory for temporary audio files")
	rootCmd.PersistentFlags().String("cookie-file", defaults.Download.CookieFile, "yt-dlp cookie file, used if it exists")
	rootCmd.PersistentFlags().String("ytdlp-path", "", "yt-dlp executable (default: resolved from PATH)")
	rootCmd.PersistentFlags().Bool("server-enabled", defaults.Server.Enabled, "Serve health and metrics endpoints")
	rootCmd.PersistentFlags().String("server-host", defaultServerHost, "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", defaults.Server.Port, "HTTP server port")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")
	rootCmd.PersistentFlags().String("language", i18n.DefaultLanguage, fmt.Sprintf("Bot language (%s)", supportedLangs))
	rootCmd.PersistentFlags().Int("flood-limit-per-minute", defaults.App.FloodLimitPerMinute,
		"Maximum messages per user per minute")
	rootCmd.PersistentFlags().Bool("generate-env-example", false,
		"Generate .env.example file from current configuration and exit")

	rootCmd.AddCommand(doctorCmd)

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	// Load .env file explicitly using gotenv
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	for key, alias := range legacyEnvAliases {
		// The prefixed name wins over the alias
		if err := viper.BindEnv(key, flagToEnvVar(key), alias); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to bind %s: %v\n", alias, err)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level, config.Log.Format)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	cfg.Telegram.BotToken = viper.GetString("telegram-bot-token")
	cfg.Telegram.APIServer = viper.GetString("telegram-api-url")

	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")

	configureDownload(cfg)
	configureServer(cfg)
	configureApp(cfg)

	return cfg
}

func configureDownload(cfg *core.Config) {
	if dir := viper.GetString("download-dir"); dir != "" {
		cfg.Download.Dir = dir
	}
	cfg.Download.CookieFile = viper.GetString("cookie-file")
	cfg.Download.YtDlpPath = viper.GetString("ytdlp-path")
}

func configureServer(cfg *core.Config) {
	cfg.Server.Enabled = viper.GetBool("server-enabled")
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")

	cfg.Log.Level = viper.GetString("log-level")
	cfg.Log.Format = viper.GetString("log-format")
}

func configureApp(cfg *core.Config) {
	cfg.App.Language = viper.GetString("language")
	if cfg.App.Language == "" {
		cfg.App.Language = i18n.DefaultLanguage
	}

	cfg.App.FloodLimitPerMinute = viper.GetInt("flood-limit-per-minute")
}

func buildLogger(level, format string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	if strings.EqualFold(format, "console") {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runTunegrab(cmd *cobra.Command, _ []string) error {
	if viper.GetBool("generate-env-example") {
		return generateEnvExample(cmd)
	}

	defer func() {
		_ = logger.Sync()
	}()

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting tunegrab",
		zap.String("downloadDir", config.Download.Dir),
		zap.String("language", config.App.Language),
		zap.Bool("serverEnabled", config.Server.Enabled))

	svcs, err := initializeServices(ctx)
	if err != nil {
		return err
	}

	return runServices(ctx, svcs)
}

type services struct {
	httpServer *httpserver.Server
	dispatcher *core.Dispatcher
}

func initializeServices(ctx context.Context) (*services, error) {
	retriever := youtube.NewRetriever(youtube.RetrieverConfig{
		Dir:              config.Download.Dir,
		CookieFile:       config.Download.CookieFile,
		Executable:       config.Download.YtDlpPath,
		AudioFormat:      config.Download.AudioFormat,
		AudioBitrateKbps: config.Download.AudioBitrateKbps,
	}, logger.Named("retriever"))
	if err := retriever.EnsureDownloadDir(); err != nil {
		return nil, err
	}

	spotifyClient := spotify.NewClient(&config.Spotify, logger.Named("spotify"))
	if err := spotifyClient.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Spotify: %w", err)
	}

	frontend := telegram.NewFrontend(&telegram.Config{
		BotToken:            config.Telegram.BotToken,
		APIServer:           config.Telegram.APIServer,
		Enabled:             true,
		FloodLimitPerMinute: config.App.FloodLimitPerMinute,
	}, logger.Named("telegram"))

	components := core.Components{
		Resolver:  musiclink.NewSpotifyResolver(),
		Fetcher:   spotifyClient,
		Locator:   youtube.NewLocator(config.Download.YtDlpPath, config.Download.MaxSearchResults, logger.Named("locator")),
		Retriever: retriever,
		Tagger:    tagger.New(logger.Named("tagger")),
		Leases:    lease.NewRegistry(),
	}

	svcs := &services{}
	if config.Server.Enabled {
		svcs.httpServer = httpserver.NewServer(&config.Server, logger.Named("http"))
		components.Metrics = svcs.httpServer
	}

	pipeline := core.NewPipeline(config, frontend, components, logger.Named("pipeline"))
	svcs.dispatcher = core.NewDispatcher(config, frontend, pipeline, logger.Named("dispatcher"))
	if svcs.httpServer != nil {
		svcs.dispatcher.OnReady(func() {
			svcs.httpServer.SetReady(true)
		})
	}

	return svcs, nil
}

func runServices(ctx context.Context, svcs *services) error {
	g, gCtx := errgroup.WithContext(ctx)

	if svcs.httpServer != nil {
		g.Go(func() error {
			return svcs.httpServer.Start(gCtx)
		})
	}

	g.Go(func() error {
		return svcs.dispatcher.Start(gCtx)
	})

	logger.Info("tunegrab started",
		zap.String("httpAddr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	err := g.Wait()

	// Let running downloads finish their cleanup
	svcs.dispatcher.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("tunegrab stopped with error", zap.Error(err))
		return err
	}

	logger.Info("tunegrab stopped gracefully")
	return nil
}

func validateConfig(cfg *core.Config) error {
	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required")
	}

	if cfg.Spotify.ClientID == "" {
		return fmt.Errorf("spotify client ID is required")
	}

	if cfg.Spotify.ClientSecret == "" {
		return fmt.Errorf("spotify client secret is required")
	}

	if !i18n.IsSupported(cfg.App.Language) {
		return fmt.Errorf("unsupported language '%s', supported languages: %s",
			cfg.App.Language, strings.Join(i18n.GetSupportedLanguages(), ", "))
	}

	if cfg.App.FloodLimitPerMinute <= 0 {
		return fmt.Errorf("flood limit per minute must be positive, got %d", cfg.App.FloodLimitPerMinute)
	}

	if cfg.Server.Enabled && (cfg.Server.Port <= 0 || cfg.Server.Port > 65535) {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	return nil
}
