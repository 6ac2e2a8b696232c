// Package remote implements HTTP clients for the catalog and inventory
// collaborators. Both are plain JSON-over-HTTP services; requests carry a
// bounded timeout and are instrumented with otelhttp.
package remote

import (
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxBodySize caps collaborator response bodies read into memory.
const maxBodySize = 1 << 20

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// readBody drains and closes the response body.
func readBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

func is2xx(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
