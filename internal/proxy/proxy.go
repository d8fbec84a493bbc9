// Package proxy relays dialog requests to the standalone dialog service.
package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"

	"dialoghub/internal/logging"
	"dialoghub/internal/metrics"
	"dialoghub/internal/requestid"
)

// Forwarder sends requests to a single fixed upstream. There is no retry,
// no timeout beyond the transport's own, and no balancing.
type Forwarder struct {
	target *url.URL
	proxy  *httputil.ReverseProxy
}

// New builds a forwarder for upstream, e.g. "http://dialog-service:8080".
// transport may be nil to use http.DefaultTransport.
func New(upstream string, transport http.RoundTripper) (*Forwarder, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream %q: %w", upstream, err)
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, fmt.Errorf("upstream %q: scheme must be http or https", upstream)
	}
	if target.Host == "" {
		return nil, fmt.Errorf("upstream %q: host is required", upstream)
	}

	f := &Forwarder{target: target}
	f.proxy = &httputil.ReverseProxy{
		Rewrite:        f.rewrite,
		ModifyResponse: dropUpstreamRequestID,
		ErrorHandler:   upstreamError,
		Transport:      transport,
	}
	return f, nil
}

// Target reports the upstream base URL.
func (f *Forwarder) Target() string {
	return f.target.String()
}

// Handler forwards the current request verbatim and relays the response.
func (f *Forwarder) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		f.proxy.ServeHTTP(c.Writer, c.Request)
	}
}

func (f *Forwarder) rewrite(pr *httputil.ProxyRequest) {
	pr.SetURL(f.target)
	pr.Out.Host = pr.In.Host
	if id, ok := requestid.FromContext(pr.In.Context()); ok {
		pr.Out.Header.Set(requestid.Header, id)
	}
}

// The caller already carries our x-request-id; the upstream echoes the same
// value and would otherwise duplicate it.
func dropUpstreamRequestID(res *http.Response) error {
	res.Header.Del(requestid.Header)
	return nil
}

func upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	metrics.UpstreamErrors.Inc()
	logger := logging.FromContext(r.Context())
	logger.Error().Err(err).Str("path", r.URL.Path).Msg("dialog upstream unavailable")

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusBadGateway)
	_, _ = w.Write([]byte(`{"error":"upstream unavailable"}`))
}
