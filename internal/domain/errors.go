package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("resource not found")

// RetryableError marks a transient failure (rate limit, upstream 5xx).
// The embedding pipeline retries these with backoff; everything else
// fails immediately.
type RetryableError struct {
	Op  string
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// FatalError marks a non-retryable failure from an external API or a
// data-integrity check: auth failures, malformed requests, mismatched
// embedding counts. Retrying cannot help.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// ValidationError reports a precondition failure surfaced synchronously
// to the caller, e.g. queueing transcode work for a lecture without a
// video object.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// CommandError captures a subprocess failure with enough context for a
// useful job error string: the tool, its exit code and a stderr excerpt.
type CommandError struct {
	Cmd      string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s exited with code %d", e.Cmd, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Cmd, e.ExitCode, e.Stderr)
}

func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
