package core

import (
	"time"
)

// ContentType is the kind of catalog object a link points at.
type ContentType string

const (
	ContentTypeTrack    ContentType = "track"
	ContentTypeAlbum    ContentType = "album"
	ContentTypePlaylist ContentType = "playlist"
)

// UnknownArtist is used when the catalog record carries no artist.
const UnknownArtist = "Unknown Artist"

// TrackReference identifies a catalog object parsed from a link.
type TrackReference struct {
	Type ContentType
	ID   string
}

// TrackMetadata is the normalized catalog record of a single track.
type TrackMetadata struct {
	ID          string
	Name        string
	Artist      string
	Album       string
	DurationMs  int
	AlbumArtURL string // empty when the album has no images
	ReleaseDate string
	Popularity  int
}

// Duration returns the track length.
func (m *TrackMetadata) Duration() time.Duration {
	return time.Duration(m.DurationMs) * time.Millisecond
}

// DisplayTitle returns "Artist - Name".
func (m *TrackMetadata) DisplayTitle() string {
	return m.Artist + " - " + m.Name
}

// Source is a playable match found on the video platform.
type Source struct {
	ID    string
	Title string
	URL   string
}

// DownloadResult is a produced and tagged audio file, owned by the pipeline
// until it is delivered and deleted.
type DownloadResult struct {
	FilePath string
	Metadata TrackMetadata
	Size     int64
}

// Request is a single user's request to download a link.
type Request struct {
	ID        string // Correlates log lines of one pipeline run
	UserID    string
	ChatID    string
	MessageID string
	URL       string
}

type Stage int

const (
	// StageIdle is the state before any work has started
	StageIdle Stage = iota
	// StageValidating checks the lease and parses the link
	StageValidating
	// StageFetchingMetadata loads the catalog record
	StageFetchingMetadata
	// StageSearchingSource looks up a playable source
	StageSearchingSource
	// StageDownloading downloads and transcodes the audio
	StageDownloading
	// StageTagging writes tags and cover art
	StageTagging
	// StageSizeChecking compares the file size against the ceiling
	StageSizeChecking
	// StageDelivering uploads the file to the user
	StageDelivering
	// StageCleanup removes the local file
	StageCleanup
)

var stageNames = map[Stage]string{
	StageIdle:             "idle",
	StageValidating:       "validating",
	StageFetchingMetadata: "fetching_metadata",
	StageSearchingSource:  "searching_source",
	StageDownloading:      "downloading",
	StageTagging:          "tagging",
	StageSizeChecking:     "size_checking",
	StageDelivering:       "delivering",
	StageCleanup:          "cleanup",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}
