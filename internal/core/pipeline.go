package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"tunegrab/internal/chat"
	"tunegrab/internal/i18n"
	"tunegrab/pkg/text"
)

const (
	outcomeDelivered = "delivered"
	audioExtension   = ".mp3"
)

// Components are the collaborators a Pipeline sequences.
type Components struct {
	Resolver  LinkResolver
	Fetcher   MetadataFetcher
	Locator   SourceLocator
	Retriever Retriever
	Tagger    Tagger
	Leases    Leases
	Metrics   Metrics // optional
}

// Pipeline turns a catalog link into a delivered audio file for one user.
type Pipeline struct {
	config    *Config
	frontend  chat.Frontend
	c         Components
	localizer *i18n.Localizer
	logger    *zap.Logger
}

// NewPipeline creates a pipeline delivering through frontend.
func NewPipeline(config *Config, frontend chat.Frontend, components Components, logger *zap.Logger) *Pipeline {
	if components.Metrics == nil {
		components.Metrics = NopMetrics{}
	}

	return &Pipeline{
		config:    config,
		frontend:  frontend,
		c:         components,
		localizer: i18n.NewLocalizer(config.App.Language),
		logger:    logger,
	}
}

// run is the mutable state of a single pipeline execution.
type run struct {
	req        *Request
	logger     *zap.Logger
	stage      Stage
	stageStart time.Time
	statusID   string // status message to edit, empty until sent
	filePath   string // produced file, empty until it exists
	size       int64
}

// Run processes req to completion. Every failure is reported to the user and
// returned as an *Error. The user's lease is held for the whole run.
func (p *Pipeline) Run(ctx context.Context, req *Request) (err error) {
	r := &run{
		req: req,
		logger: p.logger.With(
			zap.String("requestID", req.ID),
			zap.String("userID", req.UserID)),
		stage:      StageValidating,
		stageStart: time.Now(),
	}

	release, ok := p.c.Leases.TryAcquire(req.UserID)
	if !ok {
		fields := []zap.Field{zap.String("url", req.URL)}
		if since, held := p.c.Leases.Since(req.UserID); held {
			fields = append(fields, zap.Duration("heldFor", time.Since(since)))
		}
		r.logger.Info("Rejected request, download already in progress", fields...)

		err = newError(KindBusy, StageValidating, ErrBusy)
		p.fail(ctx, r, err)
		return err
	}
	defer func() {
		p.c.Metrics.SetActiveDownloads(p.c.Leases.Active())
	}()
	defer release()
	p.c.Metrics.SetActiveDownloads(p.c.Leases.Active())

	defer p.cleanup(r)

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Pipeline panicked",
				zap.Stringer("stage", r.stage),
				zap.Any("panic", rec),
				zap.Stack("stack"))
			err = newError(KindUnexpected, r.stage, fmt.Errorf("panic: %v", rec))
			p.fail(ctx, r, err)
		}
	}()

	r.logger.Info("Processing request", zap.String("url", req.URL))

	if err = p.process(ctx, r); err != nil {
		p.fail(ctx, r, err)
		return err
	}

	p.c.Metrics.RecordRequest(outcomeDelivered)
	r.logger.Info("Request completed",
		zap.String("file", r.filePath),
		zap.Int64("size", r.size))

	return nil
}

func (p *Pipeline) process(ctx context.Context, r *run) error {
	ref, err := p.c.Resolver.Resolve(r.req.URL)
	if err != nil {
		return newError(KindValidation, StageValidating, err)
	}
	if ref.Type != ContentTypeTrack {
		return newError(KindValidation, StageValidating,
			fmt.Errorf("%w: got %s", ErrUnsupportedContent, ref.Type))
	}

	p.advance(ctx, r, StageFetchingMetadata)
	meta, err := p.c.Fetcher.FetchTrack(ctx, ref.ID)
	if err != nil {
		return newError(KindNotFound, StageFetchingMetadata, err)
	}
	r.logger.Info("Fetched track metadata",
		zap.String("trackID", meta.ID),
		zap.String("title", meta.DisplayTitle()))

	p.advance(ctx, r, StageSearchingSource)
	source, err := p.c.Locator.Locate(ctx, meta.Artist, meta.Name)
	if err != nil {
		return newError(KindNotFound, StageSearchingSource, err)
	}
	r.logger.Debug("Located source", zap.String("source", source.URL))

	p.advance(ctx, r, StageDownloading)
	path, err := p.c.Retriever.Retrieve(ctx, source.URL, p.localFilename(r.req, meta))
	if err != nil {
		return newError(KindExternalTool, StageDownloading, err)
	}
	r.filePath = path

	p.advance(ctx, r, StageTagging)
	if err := p.c.Tagger.Tag(ctx, path, meta); err != nil {
		return newError(KindExternalTool, StageTagging, err)
	}

	p.advance(ctx, r, StageSizeChecking)
	info, err := os.Stat(path)
	if err != nil {
		return newError(KindUnexpected, StageSizeChecking, err)
	}
	r.size = info.Size()
	if r.size > p.config.Download.MaxFileSize {
		return newError(KindSizeLimit, StageSizeChecking,
			fmt.Errorf("%w: %d bytes", ErrFileTooLarge, r.size))
	}

	result := &DownloadResult{FilePath: path, Metadata: *meta, Size: r.size}

	p.advance(ctx, r, StageDelivering)
	if err := p.deliver(ctx, r, result); err != nil {
		return newError(KindUnexpected, StageDelivering, err)
	}
	p.c.Metrics.RecordFileSize(result.Size)

	p.updateStatus(ctx, r, formatSuccess(p.localizer, &result.Metadata, result.Size, &p.config.Download))

	return nil
}

// localFilename names the working file after the track and request IDs so
// it stays short for any title and apart from concurrent runs of the track.
func (p *Pipeline) localFilename(req *Request, meta *TrackMetadata) string {
	name := meta.ID
	if req.ID != "" {
		name += "-" + req.ID
	}
	if name = text.SanitizeFilename(name); name == "" {
		name = "track"
	}
	return name
}

func (p *Pipeline) deliver(ctx context.Context, r *run, result *DownloadResult) error {
	meta := &result.Metadata
	title := p.localizer.T("format.audio_title", meta.Artist, meta.Name)

	f, err := os.Open(result.FilePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	return p.frontend.SendAudio(ctx, r.req.ChatID, r.req.MessageID, &chat.Audio{
		Title:        title,
		Performer:    meta.Artist,
		DurationSecs: int(meta.Duration().Seconds()),
		Filename:     text.SanitizeFilename(title) + audioExtension,
		Data:         f,
	})
}

// advance records the time spent in the current stage and moves to next.
func (p *Pipeline) advance(ctx context.Context, r *run, next Stage) {
	now := time.Now()
	p.c.Metrics.RecordStage(r.stage, now.Sub(r.stageStart))
	r.stage = next
	r.stageStart = now

	r.logger.Debug("Entering stage", zap.Stringer("stage", next))

	if hasProgressStep(next) {
		p.updateStatus(ctx, r, formatProgress(p.localizer, next))
	}
}

// updateStatus sends the status message on first use and edits it afterwards.
func (p *Pipeline) updateStatus(ctx context.Context, r *run, message string) {
	if r.statusID == "" {
		id, err := p.frontend.SendText(ctx, r.req.ChatID, r.req.MessageID, message)
		if err != nil {
			r.logger.Warn("Failed to send status message", zap.Error(err))
			return
		}
		r.statusID = id
		return
	}

	if err := p.frontend.EditText(ctx, r.req.ChatID, r.statusID, message); err != nil {
		r.logger.Debug("Failed to update status message", zap.Error(err))
	}
}

// fail logs err and tells the user what went wrong.
func (p *Pipeline) fail(ctx context.Context, r *run, err error) {
	kind := KindOf(err)
	p.c.Metrics.RecordRequest(kind.String())

	fields := []zap.Field{
		zap.String("kind", kind.String()),
		zap.Stringer("stage", r.stage),
		zap.Error(err),
	}
	switch kind {
	case KindBusy, KindValidation, KindNotFound, KindSizeLimit:
		r.logger.Info("Request rejected", fields...)
	default:
		r.logger.Error("Request failed", fields...)
	}

	key := failureMessageKey(err)
	var message string
	if kind == KindSizeLimit {
		message = p.localizer.T(key, text.FormatFileSize(r.size))
	} else {
		message = p.localizer.T(key)
	}

	// The request context may already be cancelled, the user still gets an answer
	p.updateStatus(context.WithoutCancel(ctx), r, message)
}

// cleanup removes the produced file on every terminal path.
func (p *Pipeline) cleanup(r *run) {
	p.c.Metrics.RecordStage(r.stage, time.Since(r.stageStart))
	r.stage = StageCleanup

	if r.filePath == "" {
		return
	}

	if err := os.Remove(r.filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("Failed to remove file", zap.String("file", r.filePath), zap.Error(err))
		return
	}

	r.logger.Debug("Removed file", zap.String("file", r.filePath))
}
