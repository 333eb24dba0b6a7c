// Package utils provides small helper utilities shared across the client:
// the resty HTTP client wrapper and UUID generation for send idempotency
// tokens.
package utils

import (
	"github.com/go-resty/resty/v2"
)

// HTTPClient embeds *resty.Client so the transport adapter can attach its
// base URL, timeout and per-request headers directly on the resty API.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns an HTTPClient with its own underlying resty.Client,
// so every adapter instance keeps an independent connection pool and cookie
// state.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{Client: resty.New()}
}
