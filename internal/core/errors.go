package core

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures for user messaging and metrics.
type Kind int

const (
	// KindUnexpected is any failure that was not classified
	KindUnexpected Kind = iota
	// KindValidation is a malformed or unsupported link
	KindValidation
	// KindNotFound is a missing catalog record or search result
	KindNotFound
	// KindExternalTool is a download, transcode or tag-write failure
	KindExternalTool
	// KindSizeLimit is a produced file above the upload ceiling
	KindSizeLimit
	// KindBusy is a request from a user who already has one in flight
	KindBusy
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindExternalTool:
		return "external_tool"
	case KindSizeLimit:
		return "size_limit"
	case KindBusy:
		return "busy"
	default:
		return "unexpected"
	}
}

var (
	ErrBusy               = errors.New("download already in progress")
	ErrUnsupportedContent = errors.New("only track links are supported")
	ErrFileTooLarge       = errors.New("file exceeds size limit")
)

// Error is a classified pipeline failure.
type Error struct {
	Kind  Kind
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, stage Stage, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

// KindOf returns the kind of a classified error, KindUnexpected otherwise.
func KindOf(err error) Kind {
	var pipelineErr *Error
	if errors.As(err, &pipelineErr) {
		return pipelineErr.Kind
	}
	return KindUnexpected
}
