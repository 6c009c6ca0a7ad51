package httpclient

import "fmt"

const maxErrorBody = 4 << 10

// UpstreamError is a non-2xx answer from a remote service.
type UpstreamError struct {
	StatusCode int
	Body       []byte
	URL        string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d from %s", e.StatusCode, e.URL)
}
