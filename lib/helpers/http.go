package helpers

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient returns a client with a total request timeout and a dial timeout
// capped at ten seconds.
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialTimeout := 10 * time.Second
	if timeout > 0 && timeout < dialTimeout {
		dialTimeout = timeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: dialTimeout,
			}).DialContext,
			TLSHandshakeTimeout: dialTimeout,
		},
	}
}
