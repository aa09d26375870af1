package httputil

import (
	"net"
	"net/http"
	"time"
)

const userAgent = "casa-subastas/1.0"

// Clients holds the outbound HTTP clients, one per upstream class. They share
// a transport so connection pooling spans all of them.
type Clients struct {
	API   *http.Client // ATTOM property API
	Maps  *http.Client // Street View metadata
	Media *http.Client // image downloads for the mirror
}

func NewClients() *Clients {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	rt := &uaTransport{next: transport}

	return &Clients{
		API:   &http.Client{Timeout: 30 * time.Second, Transport: rt},
		Maps:  &http.Client{Timeout: 10 * time.Second, Transport: rt},
		Media: &http.Client{Timeout: 60 * time.Second, Transport: rt},
	}
}

// uaTransport sets a User-Agent on requests that have none.
type uaTransport struct {
	next http.RoundTripper
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", userAgent)
	}
	return t.next.RoundTrip(req)
}
