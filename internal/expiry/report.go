package expiry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aatumaykin/trash-expiry/internal/config"
	"github.com/aatumaykin/trash-expiry/internal/trash"
)

// Error kinds, used as the metrics label and in the run summary.
const (
	KindDirectoryUnavailable = "directory_unavailable"
	KindMetadataUnreadable   = "metadata_unreadable"
	KindDateUnparsable       = "date_unparsable"
	KindDeletionFailed       = "deletion_failed"
	KindConfigInvalid        = "config_invalid"
	KindCanceled             = "canceled"
	KindOther                = "other"
)

// Report is the outcome of one expiry pass.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	DryRun   bool

	Directories int // trash directories visited
	Scanned     int // metadata records turned into items
	Fresh       int
	Warned      int
	Expired     int
	Unknown     int
	Deleted     int
	Protected   int // expired but kept because of a protect pattern

	// Errors holds every non-fatal error of the pass in occurrence order.
	Errors []error
}

// NewReport starts a report with a fresh run ID.
func NewReport(started time.Time) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Started: started,
	}
}

// AddError records non-fatal errors. Nil errors are ignored.
func (r *Report) AddError(errs ...error) {
	for _, err := range errs {
		if err != nil {
			r.Errors = append(r.Errors, err)
		}
	}
}

// Failed reports whether any non-fatal error was recorded.
func (r *Report) Failed() bool {
	return len(r.Errors) > 0
}

// ErrorsByKind counts the recorded errors per kind.
func (r *Report) ErrorsByKind() map[string]int {
	counts := make(map[string]int)
	for _, err := range r.Errors {
		counts[ErrorKind(err)]++
	}
	return counts
}

func (r *Report) count(class Class) {
	switch class {
	case ClassFresh:
		r.Fresh++
	case ClassWarn:
		r.Warned++
	case ClassExpired:
		r.Expired++
	case ClassUnknown:
		r.Unknown++
	}
}

// ClassCount returns the number of items of class seen in the pass.
func (r *Report) ClassCount(class Class) int {
	switch class {
	case ClassFresh:
		return r.Fresh
	case ClassWarn:
		return r.Warned
	case ClassExpired:
		return r.Expired
	case ClassUnknown:
		return r.Unknown
	}
	return 0
}

// ErrorKind classifies err by the sentinel it wraps.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, trash.ErrDirectoryUnavailable):
		return KindDirectoryUnavailable
	case errors.Is(err, trash.ErrMetadataUnreadable):
		return KindMetadataUnreadable
	case errors.Is(err, trash.ErrDateUnparsable):
		return KindDateUnparsable
	case errors.Is(err, trash.ErrDeletionFailed):
		return KindDeletionFailed
	case errors.Is(err, config.ErrInvalid):
		return KindConfigInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindOther
	}
}
