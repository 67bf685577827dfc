package clients

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// NewHTTPClient configures the HTTP client used to reach book metadata APIs
// and download cover images. A zero timeout means no overall request timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          25,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		CheckRedirect: redirectPolicyFunc,
	}
}

// redirectPolicyFunc allows a few redirects since cover URLs commonly bounce
// between CDN hosts.
func redirectPolicyFunc(req *http.Request, via []*http.Request) error {
	if len(via) >= 5 {
		return fmt.Errorf("attempted redirect to %s", req.URL)
	}
	return nil
}
