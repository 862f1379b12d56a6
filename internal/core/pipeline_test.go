package core

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tunegrab/internal/chat"
	"tunegrab/internal/i18n"
	"tunegrab/internal/lease"
)

const testTrackURL = "https://open.spotify.com/track/4iV5W9uYEdYUVa79Axb7Rh"

type sentAudio struct {
	chatID    string
	replyToID string
	audio     chat.Audio
	data      []byte
}

type fakeFrontend struct {
	mu       sync.Mutex
	nextID   int
	texts    []string
	edits    []string
	audios   []sentAudio
	audioErr error
	incoming []*chat.Message
}

func (f *fakeFrontend) Start(context.Context) error { return nil }

func (f *fakeFrontend) Listen(_ context.Context, handler func(*chat.Message)) error {
	for _, msg := range f.incoming {
		handler(msg)
	}
	return nil
}

func (f *fakeFrontend) SendText(_ context.Context, _, _, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	f.texts = append(f.texts, text)
	return strconv.Itoa(100 + f.nextID), nil
}

func (f *fakeFrontend) EditText(_ context.Context, _, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeFrontend) SendAudio(_ context.Context, chatID, replyToID string, audio *chat.Audio) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.audioErr != nil {
		return f.audioErr
	}

	data, err := io.ReadAll(audio.Data)
	if err != nil {
		return err
	}
	f.audios = append(f.audios, sentAudio{chatID: chatID, replyToID: replyToID, audio: *audio, data: data})
	return nil
}

// lastText returns the latest status text, sent or edited.
func (f *fakeFrontend) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.edits) > 0 {
		return f.edits[len(f.edits)-1]
	}
	if len(f.texts) > 0 {
		return f.texts[len(f.texts)-1]
	}
	return ""
}

type fakeResolver struct{}

func (fakeResolver) Resolve(rawURL string) (*TrackReference, error) {
	parts := strings.Split(strings.TrimPrefix(rawURL, "https://open.spotify.com/"), "/")
	if !strings.HasPrefix(rawURL, "https://open.spotify.com/") || len(parts) != 2 {
		return nil, errors.New("not a catalog link")
	}
	return &TrackReference{Type: ContentType(parts[0]), ID: parts[1]}, nil
}

type fakeFetcher struct {
	calls int
	meta  *TrackMetadata
	err   error
}

func (f *fakeFetcher) FetchTrack(_ context.Context, trackID string) (*TrackMetadata, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	meta := *f.meta
	meta.ID = trackID
	return &meta, nil
}

type fakeLocator struct {
	calls int
	err   error
}

func (f *fakeLocator) Locate(_ context.Context, artist, title string) (*Source, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Source{ID: "dQw4w9WgXcQ", Title: artist + " - " + title, URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}, nil
}

type fakeRetriever struct {
	dir   string
	size  int
	calls int
	paths []string
	err   error
}

func (f *fakeRetriever) Retrieve(_ context.Context, _, filename string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, filename+".mp3")
	if err := os.WriteFile(path, make([]byte, f.size), 0o600); err != nil {
		return "", err
	}
	f.paths = append(f.paths, path)
	return path, nil
}

type fakeTagger struct {
	err   error
	panic bool
}

func (f *fakeTagger) Tag(context.Context, string, *TrackMetadata) error {
	if f.panic {
		panic("tag writer exploded")
	}
	return f.err
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes []string
	stages   []Stage
	sizes    []int64
	active   []int
}

func (m *fakeMetrics) RecordRequest(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *fakeMetrics) RecordStage(stage Stage, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, stage)
}

func (m *fakeMetrics) RecordFileSize(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sizes = append(m.sizes, bytes)
}

func (m *fakeMetrics) SetActiveDownloads(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = append(m.active, count)
}

type pipelineFixture struct {
	config    *Config
	frontend  *fakeFrontend
	fetcher   *fakeFetcher
	locator   *fakeLocator
	retriever *fakeRetriever
	tagger    *fakeTagger
	leases    *lease.Registry
	metrics   *fakeMetrics
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	return &pipelineFixture{
		config:   DefaultConfig(),
		frontend: &fakeFrontend{},
		fetcher: &fakeFetcher{meta: &TrackMetadata{
			Name:       "Blinding Lights",
			Artist:     "The Weeknd",
			Album:      "After Hours",
			DurationMs: 200040,
		}},
		locator:   &fakeLocator{},
		retriever: &fakeRetriever{dir: t.TempDir(), size: 1024},
		tagger:    &fakeTagger{},
		leases:    lease.NewRegistry(),
		metrics:   &fakeMetrics{},
	}
}

func (fx *pipelineFixture) pipeline() *Pipeline {
	return NewPipeline(fx.config, fx.frontend, Components{
		Resolver:  fakeResolver{},
		Fetcher:   fx.fetcher,
		Locator:   fx.locator,
		Retriever: fx.retriever,
		Tagger:    fx.tagger,
		Leases:    fx.leases,
		Metrics:   fx.metrics,
	}, zap.NewNop())
}

func (fx *pipelineFixture) leaseHeld() bool {
	_, held := fx.leases.Since("42")
	return held
}

func newTestRequest(url string) *Request {
	return &Request{ID: "req-1", UserID: "42", ChatID: "1000", MessageID: "7", URL: url}
}

func assertFilesRemoved(t *testing.T, paths []string) {
	t.Helper()
	for _, path := range paths {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Expected %s to be removed, stat error: %v", path, err)
		}
	}
}

func TestPipelineDeliversTrack(t *testing.T) {
	fx := newPipelineFixture(t)

	if err := fx.pipeline().Run(context.Background(), newTestRequest(testTrackURL)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(fx.frontend.audios) != 1 {
		t.Fatalf("Expected 1 audio upload, got %d", len(fx.frontend.audios))
	}
	sent := fx.frontend.audios[0]
	if sent.chatID != "1000" || sent.replyToID != "7" {
		t.Errorf("Audio sent to chat %s reply %s", sent.chatID, sent.replyToID)
	}
	if sent.audio.Title != "The Weeknd - Blinding Lights" || sent.audio.Performer != "The Weeknd" {
		t.Errorf("Unexpected audio fields: %+v", sent.audio)
	}
	if sent.audio.DurationSecs != 200 {
		t.Errorf("Expected duration 200s, got %d", sent.audio.DurationSecs)
	}
	if sent.audio.Filename != "The Weeknd - Blinding Lights.mp3" {
		t.Errorf("Unexpected upload filename %q", sent.audio.Filename)
	}
	if len(sent.data) != 1024 {
		t.Errorf("Expected 1024 bytes uploaded, got %d", len(sent.data))
	}

	// One status message, edited in place
	if len(fx.frontend.texts) != 1 {
		t.Errorf("Expected a single status message, got %d", len(fx.frontend.texts))
	}
	if got := fx.frontend.lastText(); !strings.Contains(got, "Blinding Lights") || !strings.Contains(got, "320kbps MP3") {
		t.Errorf("Expected success message, got %q", got)
	}

	assertFilesRemoved(t, fx.retriever.paths)

	if fx.leaseHeld() {
		t.Error("Lease should be released after the run")
	}

	if len(fx.metrics.outcomes) != 1 || fx.metrics.outcomes[0] != outcomeDelivered {
		t.Errorf("Expected delivered outcome, got %v", fx.metrics.outcomes)
	}
	if len(fx.metrics.sizes) != 1 || fx.metrics.sizes[0] != 1024 {
		t.Errorf("Expected file size recorded, got %v", fx.metrics.sizes)
	}
	if last := fx.metrics.active[len(fx.metrics.active)-1]; last != 0 {
		t.Errorf("Expected no active downloads after the run, got %d", last)
	}
	foundDownload := false
	for _, stage := range fx.metrics.stages {
		if stage == StageDownloading {
			foundDownload = true
		}
	}
	if !foundDownload {
		t.Errorf("Expected download stage duration recorded, got %v", fx.metrics.stages)
	}
}

func TestPipelineRejectsBusyUser(t *testing.T) {
	fx := newPipelineFixture(t)

	release, ok := fx.leases.TryAcquire("42")
	if !ok {
		t.Fatal("Failed to take lease")
	}
	defer release()

	err := fx.pipeline().Run(context.Background(), newTestRequest(testTrackURL))
	if KindOf(err) != KindBusy {
		t.Fatalf("Expected busy error, got %v", err)
	}

	if fx.fetcher.calls != 0 || fx.locator.calls != 0 || fx.retriever.calls != 0 {
		t.Error("Busy request must not reach any collaborator")
	}

	localizer := i18n.NewLocalizer(i18n.DefaultLanguage)
	if got := fx.frontend.lastText(); got != localizer.T("error.busy") {
		t.Errorf("Expected busy message, got %q", got)
	}

	if !fx.leaseHeld() {
		t.Error("Rejected request must not release the existing lease")
	}
}

func TestPipelineValidation(t *testing.T) {
	localizer := i18n.NewLocalizer(i18n.DefaultLanguage)

	tests := []struct {
		name    string
		url     string
		wantKey string
	}{
		{"not a link", "hello there", "error.invalid_url"},
		{"album", "https://open.spotify.com/album/1ATL5GLyefJaxhQzSPVrLX", "error.unsupported_content"},
		{"playlist", "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", "error.unsupported_content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newPipelineFixture(t)

			err := fx.pipeline().Run(context.Background(), newTestRequest(tt.url))
			if KindOf(err) != KindValidation {
				t.Fatalf("Expected validation error, got %v", err)
			}
			if fx.fetcher.calls != 0 {
				t.Error("Invalid link must not be fetched")
			}
			if got := fx.frontend.lastText(); got != localizer.T(tt.wantKey) {
				t.Errorf("Expected %s message, got %q", tt.wantKey, got)
			}
			if fx.leaseHeld() {
				t.Error("Lease should be released")
			}
		})
	}
}

func TestPipelineNotFound(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.locator.err = errors.New("no search results")

	err := fx.pipeline().Run(context.Background(), newTestRequest(testTrackURL))

	var pipelineErr *Error
	if !errors.As(err, &pipelineErr) || pipelineErr.Kind != KindNotFound || pipelineErr.Stage != StageSearchingSource {
		t.Fatalf("Expected not found at searching stage, got %v", err)
	}
	if fx.retriever.calls != 0 {
		t.Error("Nothing should be downloaded without a source")
	}
}

func TestPipelineOversizeFileIsDeleted(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.config.Download.MaxFileSize = 512

	err := fx.pipeline().Run(context.Background(), newTestRequest(testTrackURL))
	if KindOf(err) != KindSizeLimit {
		t.Fatalf("Expected size limit error, got %v", err)
	}

	if len(fx.frontend.audios) != 0 {
		t.Error("Oversize file must not be delivered")
	}
	if got := fx.frontend.lastText(); !strings.Contains(got, "1.0 KB") {
		t.Errorf("Expected size in message, got %q", got)
	}
	assertFilesRemoved(t, fx.retriever.paths)
}

func TestPipelineFileAtLimitIsDelivered(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.config.Download.MaxFileSize = 1024

	if err := fx.pipeline().Run(context.Background(), newTestRequest(testTrackURL)); err != nil {
		t.Fatalf("File exactly at the limit should be delivered: %v", err)
	}
	if len(fx.frontend.audios) != 1 {
		t.Error("Expected the file to be uploaded")
	}
}

func TestPipelineToolFailure(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.tagger.err = errors.New("id3: write failed")

	err := fx.pipeline().Run(context.Background(), newTestRequest(testTrackURL))
	if KindOf(err) != KindExternalTool {
		t.Fatalf("Expected external tool error, got %v", err)
	}
	assertFilesRemoved(t, fx.retriever.paths)
}

func TestPipelineDeliveryFailureDeletesFile(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.frontend.audioErr = errors.New("Request Entity Too Large")

	err := fx.pipeline().Run(context.Background(), newTestRequest(testTrackURL))

	var pipelineErr *Error
	if !errors.As(err, &pipelineErr) || pipelineErr.Stage != StageDelivering {
		t.Fatalf("Expected delivery stage error, got %v", err)
	}

	localizer := i18n.NewLocalizer(i18n.DefaultLanguage)
	if got := fx.frontend.lastText(); got != localizer.T("error.delivery_failed") {
		t.Errorf("Expected delivery failure message, got %q", got)
	}
	assertFilesRemoved(t, fx.retriever.paths)
	if fx.leaseHeld() {
		t.Error("Lease should be released")
	}
}

func TestPipelineRecoversFromPanic(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.tagger.panic = true

	err := fx.pipeline().Run(context.Background(), newTestRequest(testTrackURL))
	if KindOf(err) != KindUnexpected {
		t.Fatalf("Expected unexpected error, got %v", err)
	}

	if fx.leaseHeld() {
		t.Error("Lease should be released after a panic")
	}
	assertFilesRemoved(t, fx.retriever.paths)

	localizer := i18n.NewLocalizer(i18n.DefaultLanguage)
	if got := fx.frontend.lastText(); got != localizer.T("error.generic") {
		t.Errorf("Expected generic error message, got %q", got)
	}
	if len(fx.metrics.outcomes) != 1 || fx.metrics.outcomes[0] != KindUnexpected.String() {
		t.Errorf("Expected unexpected outcome, got %v", fx.metrics.outcomes)
	}
}

func TestPipelineSeparateUsersRunConcurrently(t *testing.T) {
	fx := newPipelineFixture(t)
	p := fx.pipeline()

	// Another user's lease does not block this one
	release, _ := fx.leases.TryAcquire("99")
	defer release()

	if err := p.Run(context.Background(), newTestRequest(testTrackURL)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestLocalFilename(t *testing.T) {
	p := newPipelineFixture(t).pipeline()

	tests := []struct {
		name  string
		req   *Request
		meta  *TrackMetadata
		want string
	}{
		{"track and request", &Request{ID: "abc"}, &TrackMetadata{ID: "4iV5W9uYEdYUVa79Axb7Rh", Name: "What?", Artist: "AC/DC"}, "4iV5W9uYEdYUVa79Axb7Rh-abc"},
		{"no request ID", &Request{}, &TrackMetadata{ID: "4iV5W9uYEdYUVa79Axb7Rh"}, "4iV5W9uYEdYUVa79Axb7Rh"},
		{"title does not leak in", &Request{ID: "abc"}, &TrackMetadata{ID: "x", Name: strings.Repeat("夜", 120)}, "x-abc"},
		{"nothing to name", &Request{}, &TrackMetadata{}, "track"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.localFilename(tt.req, tt.meta); got != tt.want {
				t.Errorf("localFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPipelineDeliversLongMultibyteTitle(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.fetcher.meta.Name = strings.Repeat("夜", 100)
	fx.fetcher.meta.Artist = strings.Repeat("歌", 20)

	if err := fx.pipeline().Run(context.Background(), newTestRequest(testTrackURL)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(fx.retriever.paths) != 1 {
		t.Fatalf("Expected 1 retrieved file, got %d", len(fx.retriever.paths))
	}
	// yt-dlp appends ".webm.part" while downloading
	if base := filepath.Base(fx.retriever.paths[0]); len(base)+len(".webm.part") > 255 {
		t.Errorf("Working file name is %d bytes: %q", len(base), base)
	}

	if len(fx.frontend.audios) != 1 {
		t.Fatalf("Expected 1 audio upload, got %d", len(fx.frontend.audios))
	}
	filename := fx.frontend.audios[0].audio.Filename
	if !strings.HasPrefix(filename, fx.fetcher.meta.Artist+" - 夜") || !strings.HasSuffix(filename, ".mp3") {
		t.Errorf("Upload filename should carry the title, got %q", filename)
	}
	if len(filename) > 255 {
		t.Errorf("Upload filename is %d bytes", len(filename))
	}

	assertFilesRemoved(t, fx.retriever.paths)
}
