package i18n

// englishMessages contains all English translations.
var englishMessages = map[string]string{
	// Bot commands
	"bot.welcome": "🎵 <b>Welcome to the Spotify Downloader Bot!</b>\n\n" +
		"Send me a Spotify track link or use <code>/song &lt;spotify_url&gt;</code>.",
	"bot.help": "🔧 <b>Bot Commands</b>\n\n" +
		"<code>/start</code> - Welcome message\n" +
		"<code>/help</code> - Show help\n" +
		"<code>/song &lt;url&gt;</code> - Download a song from a Spotify URL\n\n" +
		"Send a Spotify track URL to download the song.",
	"bot.song_usage": "❌ Please provide a Spotify URL.\nUsage: <code>/song &lt;spotify_url&gt;</code>",
	"bot.hint": "🎵 Send me a Spotify track URL to download the song!\n" +
		"Use <code>/help</code> for more information.",

	// Status updates, one line per pipeline step
	"status.header":      "🔄 <b>Processing your request...</b>",
	"status.fetching":    "Getting track information...",
	"status.fetched":     "✅ Got track info",
	"status.searching":   "🔍 Searching YouTube...",
	"status.found":       "✅ Found YouTube video",
	"status.downloading": "⬇️ Downloading audio...",
	"status.downloaded":  "✅ Downloaded audio",
	"status.tagging":     "🏷 Adding metadata...",
	"status.tagged":      "✅ Added metadata",
	"status.sending":     "📤 Sending file...",

	// Error messages
	"error.busy":                "⏳ You already have a download in progress. Please wait.",
	"error.invalid_url":         "❌ Invalid Spotify URL. Please provide a valid Spotify track link.",
	"error.unsupported_content": "❌ Only single tracks are supported. Albums and playlists can't be downloaded.",
	"error.not_found":           "❌ <b>Download failed</b>\nCould not find the track.",
	"error.download_failed":     "❌ <b>Download failed</b>\nCould not find or download the track.",
	"error.file_too_large":      "❌ <b>File too large</b>\nThe file (%s) exceeds Telegram's limit.",
	"error.delivery_failed":     "❌ <b>Upload failed</b>\nThe file could not be sent.",
	"error.generic":             "❌ <b>Download failed</b>\nAn error occurred during the download process.",

	// Success messages
	"success.complete": "✅ <b>Download Complete!</b>\n\n" +
		"🎵 <b>%s</b>\n" +
		"👤 <b>%s</b>\n" +
		"💿 <b>%s</b>\n" +
		"📁 <b>Size:</b> %s\n" +
		"🎧 <b>Quality:</b> %dkbps %s\n\n" +
		"Enjoy your music! 🎶",

	// Format helpers
	"format.audio_title": "%s - %s",
}
