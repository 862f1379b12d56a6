package i18n

// berneseGermanMessages contains all Bernese Swiss German (Bärndütsch) translations
var berneseGermanMessages = map[string]string{
	// Bot commands
	"bot.welcome": "🎵 <b>Grüessech bim Spotify-Downloader-Bot!</b>\n\n" +
		"Schick mir e Spotify-Link zumne Lied oder bruuch <code>/song &lt;spotify_url&gt;</code>.",
	"bot.help": "🔧 <b>Befäu</b>\n\n" +
		"<code>/start</code> - Begrüessig\n" +
		"<code>/help</code> - Hiuf azeige\n" +
		"<code>/song &lt;url&gt;</code> - Es Lied vomne Spotify-Link abelade\n\n" +
		"Schick e Spotify-Link zumne Lied, när lad i's abe.",
	"bot.song_usage": "❌ Bitte gib e Spotify-Link a.\nBruuch: <code>/song &lt;spotify_url&gt;</code>",
	"bot.hint": "🎵 Schick mir e Spotify-Link zumne Lied, när lad i's abe!\n" +
		"Mit <code>/help</code> gits meh Infos.",

	// Status updates, one line per pipeline step
	"status.header":      "🔄 <b>Bi dranne...</b>",
	"status.fetching":    "Hole d Infos zum Lied...",
	"status.fetched":     "✅ Infos zum Lied ha",
	"status.searching":   "🔍 Sueche uf YouTube...",
	"status.found":       "✅ YouTube-Video gfunde",
	"status.downloading": "⬇️ Lade ds Audio abe...",
	"status.downloaded":  "✅ Audio abeglade",
	"status.tagging":     "🏷 Schribe d Metadate...",
	"status.tagged":      "✅ Metadate gschribe",
	"status.sending":     "📤 Schicke d Datei...",

	// Error messages
	"error.busy":                "⏳ Du hesch scho en Download am Laufe. Bitte wart no chli.",
	"error.invalid_url":         "❌ Ungüutige Spotify-Link. Bitte schick e richtige Link zumne Lied.",
	"error.unsupported_content": "❌ I cha nume einzelni Lieder abelade, kei Alben oder Playliste.",
	"error.not_found":           "❌ <b>Download fähugschlage</b>\nHa ds Lied nid gfunde.",
	"error.download_failed":     "❌ <b>Download fähugschlage</b>\nHa ds Lied nid chönne finde oder abelade.",
	"error.file_too_large":      "❌ <b>Datei z gross</b>\nD Datei (%s) isch grösser aus Telegram erloubt.",
	"error.delivery_failed":     "❌ <b>Schicke fähugschlage</b>\nD Datei het nid chönne gschickt wärde.",
	"error.generic":             "❌ <b>Download fähugschlage</b>\nÖppis isch schief gloffe bim Abelade.",

	// Success messages
	"success.complete": "✅ <b>Fertig abeglade!</b>\n\n" +
		"🎵 <b>%s</b>\n" +
		"👤 <b>%s</b>\n" +
		"💿 <b>%s</b>\n" +
		"📁 <b>Grössi:</b> %s\n" +
		"🎧 <b>Qualität:</b> %dkbps %s\n\n" +
		"Vüu Spass mit dr Musig! 🎶",

	// Format helpers
	"format.audio_title": "%s - %s",
}
