package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects is the redirect limit. Past it the last 3xx response is
// returned as is and reported as a failed fetch.
const maxRedirects = 10

// dialFunc is the DialContext signature of http.Transport.
type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// socksDialer returns a dialer tunnelling through the SOCKS5 proxy at
// address, which must be "host:port" with a port in 1..65535.
func socksDialer(address string) (dialFunc, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return nil, ErrInvalidProxyAddress
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return nil, ErrInvalidProxyAddress
	}

	d, err := proxy.SOCKS5("tcp", address, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}, nil
}

// newTransport returns the base transport. Environment proxy variables are
// ignored; the only proxy is the SOCKS5 one given explicitly.
func newTransport(proxyAddress string) (*http.Transport, error) {
	dial := dialFunc((&net.Dialer{Timeout: 10 * time.Second}).DialContext)
	if proxyAddress != "" {
		var err error
		if dial, err = socksDialer(proxyAddress); err != nil {
			return nil, err
		}
	}

	return &http.Transport{
		DialContext:         dial,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}, nil
}

// newHTTPClient builds the client used for every fetch. Cookies set by the
// site are kept in a jar for the fetcher's lifetime, on top of the
// configured cookie.
func newHTTPClient(base http.RoundTripper, cookie string, headers map[string]string) *http.Client {
	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	rt := base
	if cookie != "" || len(headers) > 0 {
		rt = staticHeaders{next: base, cookie: cookie, headers: headers}
	}

	return &http.Client{
		Transport:     rt,
		Jar:           jar,
		CheckRedirect: limitRedirects,
	}
}

func limitRedirects(_ *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return http.ErrUseLastResponse
	}
	return nil
}

// staticHeaders sets the configured headers and appends the configured
// cookie on every request, redirect hops included.
type staticHeaders struct {
	next    http.RoundTripper
	cookie  string
	headers map[string]string
}

// RoundTrip implements http.RoundTripper. The caller's request is not
// modified.
func (t staticHeaders) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	for key, value := range t.headers {
		out.Header.Set(key, value)
	}
	if t.cookie != "" {
		cookie := t.cookie
		if jarCookies := out.Header.Get("Cookie"); jarCookies != "" {
			cookie = jarCookies + "; " + cookie
		}
		out.Header.Set("Cookie", cookie)
	}
	return t.next.RoundTrip(out)
}
