package httpclient

import (
	"io"
	"net/http"
)

// Request describes an outbound HTTP request.
type Request struct {
	// Method defaults to GET.
	Method string
	// URL is absolute, or relative to Config.BaseURL.
	URL string
	// Headers are merged over the client defaults.
	Headers map[string]string
}

// StreamResponse wraps a streaming HTTP response. The caller must Close it.
type StreamResponse struct {
	StatusCode int
	Headers    http.Header
	// ContentLength is -1 when the server did not announce a length.
	ContentLength int64
	Body          io.ReadCloser
}

// ContentType returns the response Content-Type header.
func (r *StreamResponse) ContentType() string {
	return r.Headers.Get("Content-Type")
}

// Close releases the response body.
func (r *StreamResponse) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}
