package results

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/teamsite/pkg/logger"
)

// NewHTTPClient builds the client used for the results API: bounded
// timeout, optional proxy and transparent gzip.
func NewHTTPClient(timeout time.Duration, proxy string, log logger.Logger) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true,
	}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			log.Warn(context.Background(), "ignoring unparseable proxy", logger.String("proxy", proxy), logger.Error(err))
		} else {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &gzipTransport{next: transport, log: log},
	}
}

// gzipTransport asks for gzip and unwraps it. The standard transport only
// does this when it added the header itself.
type gzipTransport struct {
	next http.RoundTripper
	log  logger.Logger
}

func (g *gzipTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := g.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.Header.Get("Content-Encoding") != "gzip" {
		return resp, nil
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		g.log.Warn(req.Context(), "gzip body unreadable, passing through", logger.Error(err))
		return resp, nil
	}
	resp.Body = &gzipBody{Reader: zr, raw: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

type gzipBody struct {
	*gzip.Reader
	raw io.ReadCloser
}

func (b *gzipBody) Close() error {
	if err := b.Reader.Close(); err != nil {
		_ = b.raw.Close()
		return err
	}
	return b.raw.Close()
}
