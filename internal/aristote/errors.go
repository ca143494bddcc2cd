package aristote

import "fmt"

// RemoteError reports a non-2xx response from the enrichment service.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("aristote: remote returned %d", e.StatusCode)
	}
	return fmt.Sprintf("aristote: remote returned %d: %s", e.StatusCode, e.Body)
}
