package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCredential marks rejected API credentials. Fatal, never retried.
	ErrCredential = errors.New("invalid credentials")
	// ErrQuotaExhausted marks a spent daily search allowance. It ends the run
	// normally rather than as a failure.
	ErrQuotaExhausted = errors.New("search quota exhausted")
	// ErrTransient marks provider-side failures worth one retry.
	ErrTransient = errors.New("transient failure")
	// ErrStorage marks catalog persistence failures.
	ErrStorage = errors.New("storage error")
	// ErrNotFound marks a catalog record that should exist but does not.
	ErrNotFound = errors.New("not found")
	// ErrExternal marks unexpected responses from an external service.
	ErrExternal = errors.New("external service error")
	// ErrConfiguration marks unusable settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrSkipFile marks a per-file problem; the scan moves on to the next file.
	ErrSkipFile = errors.New("file skipped")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind is the coarse classification the scan loop acts on.
type Kind int

const (
	// KindFatal stops the run and is reported as a failure.
	KindFatal Kind = iota
	// KindQuota stops the run and is reported as a normal completion.
	KindQuota
	// KindSkip abandons only the current file.
	KindSkip
)

func (k Kind) String() string {
	switch k {
	case KindQuota:
		return "quota"
	case KindSkip:
		return "skip"
	default:
		return "fatal"
	}
}

// Classify maps an error onto the action the caller should take.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrQuotaExhausted):
		return KindQuota
	case errors.Is(err, ErrSkipFile):
		return KindSkip
	default:
		return KindFatal
	}
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// IsFatal reports whether err should end the run as a failure.
func IsFatal(err error) bool {
	return err != nil && Classify(err) == KindFatal
}
