package core

import (
	"errors"
	"html"
	"strings"

	"tunegrab/internal/i18n"
	"tunegrab/pkg/text"
)

// progressStep is one line of the status message.
type progressStep struct {
	stage     Stage
	activeKey string
	doneKey   string // empty when the step has no completed form
}

var progressSteps = []progressStep{
	{StageFetchingMetadata, "status.fetching", "status.fetched"},
	{StageSearchingSource, "status.searching", "status.found"},
	{StageDownloading, "status.downloading", "status.downloaded"},
	{StageTagging, "status.tagging", "status.tagged"},
	{StageDelivering, "status.sending", ""},
}

func hasProgressStep(stage Stage) bool {
	for _, step := range progressSteps {
		if step.stage == stage {
			return true
		}
	}
	return false
}

// formatProgress renders the status message for a request that is currently in stage.
func formatProgress(localizer *i18n.Localizer, stage Stage) string {
	lines := []string{localizer.T("status.header")}

	for _, step := range progressSteps {
		switch {
		case step.stage < stage && step.doneKey != "":
			lines = append(lines, localizer.T(step.doneKey))
		case step.stage == stage:
			lines = append(lines, localizer.T(step.activeKey))
		}
	}

	return strings.Join(lines, "\n")
}

// formatSuccess renders the final message after a file was delivered.
func formatSuccess(localizer *i18n.Localizer, meta *TrackMetadata, size int64, cfg *DownloadConfig) string {
	return localizer.T("success.complete",
		html.EscapeString(meta.Name),
		html.EscapeString(meta.Artist),
		html.EscapeString(meta.Album),
		text.FormatFileSize(size),
		cfg.AudioBitrateKbps,
		strings.ToUpper(cfg.AudioFormat),
	)
}

// failureMessageKey picks the user-facing text for a classified failure.
func failureMessageKey(err error) string {
	var pipelineErr *Error
	if !errors.As(err, &pipelineErr) {
		return "error.generic"
	}

	switch pipelineErr.Kind {
	case KindBusy:
		return "error.busy"
	case KindValidation:
		if errors.Is(pipelineErr.Err, ErrUnsupportedContent) {
			return "error.unsupported_content"
		}
		return "error.invalid_url"
	case KindNotFound:
		return "error.not_found"
	case KindExternalTool:
		return "error.download_failed"
	case KindSizeLimit:
		return "error.file_too_large"
	default:
		if pipelineErr.Stage == StageDelivering {
			return "error.delivery_failed"
		}
		return "error.generic"
	}
}
