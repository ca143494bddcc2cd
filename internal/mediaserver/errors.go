package mediaserver

import (
	"errors"
	"fmt"
)

// ErrNoResource means the platform holds no directly downloadable resource
// for a video. Distinct from RemoteError: only ErrNoResource marks a video
// permanently not downloadable.
var ErrNoResource = errors.New("mediaserver: no downloadable resource")

// RemoteError reports a non-2xx response or an API-level failure from the
// media platform.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("mediaserver: remote returned %d", e.StatusCode)
	}
	return fmt.Sprintf("mediaserver: remote returned %d: %s", e.StatusCode, e.Body)
}
