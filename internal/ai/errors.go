package ai

import "fmt"

// UpstreamError wraps a failed model call. It is never retried automatically.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Message is the raw upstream text surfaced to the user.
func (e *UpstreamError) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}
