package pos

import (
	"net/http"
	"time"
)

// HTTPDoer is the slice of http.Client the adapters use. Tests inject a fake
// so no vendor traffic is needed.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient returns the client used for all vendor calls.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
