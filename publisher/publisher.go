// Package publisher uploads JSON records to a content-addressed store and
// returns their content identifier.
package publisher

import (
	"context"
	"errors"
	"fmt"
)

// ErrPublish is matched by every *PublishError.
var ErrPublish = errors.New("publish failed")

// Publisher stores a JSON-serializable record and returns its content identifier.
type Publisher interface {
	Publish(ctx context.Context, record any) (string, error)
}

// PublishError carries the upstream response or transport failure of an upload.
type PublishError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Body is the (truncated) upstream response body.
	Body string
	Err  error
}

func (e *PublishError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("publish failed: http %d: %s", e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("publish failed: http %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("publish failed: %v", e.Err)
	}
}

func (e *PublishError) Unwrap() error { return e.Err }

func (e *PublishError) Is(target error) bool { return target == ErrPublish }
