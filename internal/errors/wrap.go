package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Wrap annotates err with a message. It returns nil when err is nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, msg)
}

// Wrapf annotates err with a formatted message. It returns nil when err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

// RetrievalError reports a failure talking to, or parsing the response of, an
// upstream archive service.
type RetrievalError struct {
	Op         string // "list snapshots", "fetch snapshot"
	URL        string
	StatusCode int // non-zero only for non-success HTTP statuses
	Err        error
}

func (e *RetrievalError) Error() string {
	msg := e.Op
	if e.URL != "" {
		msg += " " + e.URL
	}
	switch {
	case e.Err != nil:
		return msg + ": " + e.Err.Error()
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: http status %d", msg, e.StatusCode)
	default:
		return msg + ": retrieval failed"
	}
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// NewRetrievalError builds a RetrievalError around cause.
func NewRetrievalError(op, url string, cause error) error {
	return &RetrievalError{Op: op, URL: url, Err: cause}
}

// NewStatusError builds a RetrievalError for a non-success HTTP status.
func NewStatusError(op, url string, status int) error {
	return &RetrievalError{Op: op, URL: url, StatusCode: status}
}

// IsRetrieval reports whether err has a RetrievalError in its chain.
func IsRetrieval(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}

// TestErrorPrefix starts every TestError message.
const TestErrorPrefix = "Wayback test failed: "

// TestError is the adapter-level failure returned by a test run.
type TestError struct {
	Target string
	Err    error
}

func (e *TestError) Error() string {
	if e.Err == nil {
		return TestErrorPrefix + "unknown error"
	}
	return TestErrorPrefix + e.Err.Error()
}

func (e *TestError) Unwrap() error { return e.Err }

// NewTestError wraps cause for target. It returns nil when cause is nil.
func NewTestError(target string, cause error) error {
	if cause == nil {
		return nil
	}
	return &TestError{Target: target, Err: cause}
}
