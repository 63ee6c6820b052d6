package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStageFailed   = errors.New("stage failed")
	ErrStageLookup   = errors.New("unknown stage")
	ErrSpawn         = errors.New("spawn failure")
	ErrInterrupted   = errors.New("operation interrupted")
	ErrConfiguration = errors.New("configuration error")
	ErrExternalTool  = errors.New("external tool error")
)

// Error carries the classification marker and manager/stage context for a
// failed operation. Wrap is the only constructor; callers classify with
// errors.Is against the exported sentinels and recover context with Details.
type Error struct {
	Marker  error
	Manager string
	Stage   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Manager, e.Stage, e.Message)
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Marker.Error(), detail, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Marker.Error(), detail)
}

// Unwrap exposes both the marker and the underlying cause so errors.Is matches
// either branch of the chain.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Marker, e.Err}
	}
	return []error{e.Marker}
}

// Wrap builds an error that includes manager and stage context while tagging it
// with the provided marker for later outcome classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, manager, stage, message string, err error) error {
	if marker == nil {
		marker = ErrExternalTool
	}
	return &Error{
		Marker:  marker,
		Manager: strings.TrimSpace(manager),
		Stage:   strings.TrimSpace(stage),
		Message: strings.TrimSpace(message),
		Err:     err,
	}
}

// Detail is the user-facing summary of a wrapped failure.
type Detail struct {
	Manager string
	Stage   string
	Message string
}

// Details walks the error chain and returns the context recorded by the
// innermost Wrap call. Errors outside the taxonomy yield only a message.
func Details(err error) Detail {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		msg := svcErr.Message
		if msg == "" && svcErr.Err != nil {
			msg = svcErr.Err.Error()
		}
		return Detail{Manager: svcErr.Manager, Stage: svcErr.Stage, Message: msg}
	}
	if err != nil {
		return Detail{Message: err.Error()}
	}
	return Detail{}
}

// Interrupted reports whether err represents a cancelled run rather than a
// genuine failure. Both context cancellation and the ErrInterrupted marker
// count.
func Interrupted(err error) bool {
	return errors.Is(err, ErrInterrupted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func buildDetail(manager, stage, message string) string {
	parts := make([]string, 0, 3)
	if manager = strings.TrimSpace(manager); manager != "" {
		parts = append(parts, manager)
	}
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
