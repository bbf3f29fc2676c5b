package services

import "net/http"

// HTTPDoer describes the HTTP client used by the upstream service clients.
// Tests substitute an httptest-backed client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}
