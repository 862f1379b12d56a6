package core

import (
	"context"
	"time"
)

// LinkResolver parses catalog links without network access.
type LinkResolver interface {
	Resolve(rawURL string) (*TrackReference, error)
}

// MetadataFetcher loads a track record from the catalog service.
type MetadataFetcher interface {
	FetchTrack(ctx context.Context, trackID string) (*TrackMetadata, error)
}

// SourceLocator finds a playable source for a track.
type SourceLocator interface {
	Locate(ctx context.Context, artist, title string) (*Source, error)
}

// Retriever downloads and transcodes a source into the download directory
// and returns the path of the produced file.
type Retriever interface {
	Retrieve(ctx context.Context, sourceURL, filename string) (string, error)
}

// Tagger writes metadata into a produced audio file.
type Tagger interface {
	Tag(ctx context.Context, path string, meta *TrackMetadata) error
}

// Leases guards the single in-flight request per user.
type Leases interface {
	TryAcquire(key string) (release func(), ok bool)
	Since(key string) (time.Time, bool)
	Active() int
}

// Metrics receives pipeline measurements.
type Metrics interface {
	RecordRequest(outcome string)
	RecordStage(stage Stage, duration time.Duration)
	RecordFileSize(bytes int64)
	SetActiveDownloads(count int)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) RecordRequest(string)             {}
func (NopMetrics) RecordStage(Stage, time.Duration) {}
func (NopMetrics) RecordFileSize(int64)             {}
func (NopMetrics) SetActiveDownloads(int)           {}
