package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tunegrab/internal/i18n"
)

func generateEnvExample(cmd *cobra.Command) error {
	fmt.Println("Generating .env.example file from current configuration...")

	content := generateEnvExampleContent(cmd)

	if err := os.WriteFile(".env.example", []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write .env.example: %w", err)
	}

	fmt.Println("✅ Successfully generated .env.example file")
	return nil
}

func generateEnvExampleContent(cmd *cobra.Command) string {
	var content strings.Builder

	content.WriteString("# =============================================================================\n")
	content.WriteString("# tunegrab Configuration\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("#\n")
	content.WriteString("# Copy this file to .env and update with your values\n")
	content.WriteString("# All environment variables have CLI flag equivalents (use --help to see them)\n")
	content.WriteString("#\n")
	content.WriteString("# Format: TUNEGRAB_<SECTION>_<SETTING>=value\n")
	content.WriteString("# CLI equivalent: --<section>-<setting>\n")
	content.WriteString("#\n\n")

	generateTelegramSection(&content)
	generateSpotifySection(&content)
	generateDownloadSection(&content, cmd)
	generateAppSection(&content, cmd)
	generateServerSection(&content, cmd)
	generateLoggingSection(&content, cmd)

	return content.String()
}

func flagToEnvVar(flagName string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func getDefaultValueString(cmd *cobra.Command, flagName string) string {
	if f := cmd.PersistentFlags().Lookup(flagName); f != nil {
		return f.DefValue
	}
	return ""
}

func writeSectionHeader(content *strings.Builder, title string) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	fmt.Fprintf(content, "# %s\n", title)
	content.WriteString("# -----------------------------------------------------------------------------\n")
}

func generateTelegramSection(content *strings.Builder) {
	writeSectionHeader(content, "Telegram - Required")
	content.WriteString("# CLI: --telegram-bot-token, --telegram-api-url\n")
	fmt.Fprintf(content, "# Also read from %s\n", legacyEnvAliases["telegram-bot-token"])

	fmt.Fprintf(content, "%s=123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11  # Bot token from @BotFather\n",
		flagToEnvVar("telegram-bot-token"))
	fmt.Fprintf(content, "# %s=http://localhost:8081  # Self-hosted Bot API server (optional)\n",
		flagToEnvVar("telegram-api-url"))
	content.WriteString("\n")
}

func generateSpotifySection(content *strings.Builder) {
	writeSectionHeader(content, "Spotify - Required")
	content.WriteString("# Get these from https://developer.spotify.com/dashboard\n")
	content.WriteString("# CLI: --spotify-client-id, --spotify-client-secret\n")
	fmt.Fprintf(content, "# Also read from %s and %s\n",
		legacyEnvAliases["spotify-client-id"], legacyEnvAliases["spotify-client-secret"])

	fmt.Fprintf(content, "%s=your_spotify_client_id_here          # Spotify app client ID\n",
		flagToEnvVar("spotify-client-id"))
	fmt.Fprintf(content, "%s=your_spotify_client_secret_here  # Spotify app client secret\n",
		flagToEnvVar("spotify-client-secret"))
	content.WriteString("\n")
}

func generateDownloadSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Downloads")
	content.WriteString("# CLI: --download-dir, --cookie-file, --ytdlp-path\n")
	fmt.Fprintf(content, "# Also read from %s\n", legacyEnvAliases["download-dir"])

	dirDefault := getDefaultValueString(cmd, "download-dir")
	cookieDefault := getDefaultValueString(cmd, "cookie-file")

	fmt.Fprintf(content, "%s=%s                 # Temporary audio files, deleted after sending (default: %s)\n",
		flagToEnvVar("download-dir"), dirDefault, dirDefault)
	fmt.Fprintf(content, "%s=%s               # Netscape cookie file for yt-dlp, used if present (default: %s)\n",
		flagToEnvVar("cookie-file"), cookieDefault, cookieDefault)
	fmt.Fprintf(content, "# %s=/usr/local/bin/yt-dlp  # yt-dlp executable (default: from PATH)\n",
		flagToEnvVar("ytdlp-path"))
	content.WriteString("\n")
}

func generateAppSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Application")
	content.WriteString("# CLI: --language, --flood-limit-per-minute\n")

	langDefault := getDefaultValueString(cmd, "language")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")
	floodDefault := getDefaultValueString(cmd, "flood-limit-per-minute")

	fmt.Fprintf(content, "%s=%s                      # Bot language: %s (default: %s)\n",
		flagToEnvVar("language"), langDefault, supportedLangs, langDefault)
	fmt.Fprintf(content, "%s=%s        # Messages per user per minute (default: %s)\n",
		flagToEnvVar("flood-limit-per-minute"), floodDefault, floodDefault)
	content.WriteString("\n")
}

func generateServerSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "HTTP Server - health, readiness and Prometheus metrics")
	content.WriteString("# CLI: --server-enabled, --server-host, --server-port\n")

	enabledDefault := getDefaultValueString(cmd, "server-enabled")
	hostDefault := getDefaultValueString(cmd, "server-host")
	portDefault := getDefaultValueString(cmd, "server-port")

	fmt.Fprintf(content, "%s=%s                # Serve /healthz, /readyz and /metrics (default: %s)\n",
		flagToEnvVar("server-enabled"), enabledDefault, enabledDefault)
	fmt.Fprintf(content, "%s=%s                # Listen address (default: %s)\n",
		flagToEnvVar("server-host"), hostDefault, hostDefault)
	fmt.Fprintf(content, "%s=%s                   # Listen port (default: %s)\n",
		flagToEnvVar("server-port"), portDefault, portDefault)
	content.WriteString("\n")
}

func generateLoggingSection(content *strings.Builder, cmd *cobra.Command) {
	writeSectionHeader(content, "Logging")
	content.WriteString("# CLI: --log-level, --log-format\n")

	levelDefault := getDefaultValueString(cmd, "log-level")
	formatDefault := getDefaultValueString(cmd, "log-format")

	fmt.Fprintf(content, "%s=%s                     # debug, info, warn, error (default: %s)\n",
		flagToEnvVar("log-level"), levelDefault, levelDefault)
	fmt.Fprintf(content, "%s=%s                    # json or console (default: %s)\n",
		flagToEnvVar("log-format"), formatDefault, formatDefault)
}
