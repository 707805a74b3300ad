package viewmodels

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
)

// ImageProber checks that a URL serves an image.
type ImageProber interface {
	Probe(ctx context.Context, url string) error
}

// ProbeFunc adapts a function to ImageProber.
type ProbeFunc func(ctx context.Context, url string) error

func (f ProbeFunc) Probe(ctx context.Context, url string) error { return f(ctx, url) }

// errBlockedAddress is returned when a preview fetch would dial a non-public
// address.
var errBlockedAddress = errors.New("address not allowed")

// reserved ranges the IP helpers of netip do not cover.
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("64:ff9b::/96"),
}

// isPublicAddr reports whether addr is routable on the public internet.
func isPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() ||
		addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified() {
		return false
	}
	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

// publicOnly is a net.Dialer control hook. It runs after name resolution, so
// every connection, redirects included, is checked against the address
// actually dialed.
func publicOnly(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", errBlockedAddress, address)
	}
	if !isPublicAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", errBlockedAddress, ap.Addr())
	}
	return nil
}

// HTTPImageProber fetches the URL and accepts 2xx responses with an image/*
// content type. The body is never read. Only http and https URLs on public
// addresses are fetched.
type HTTPImageProber struct {
	client *resty.Client
}

func NewHTTPImageProber(timeout time.Duration) *HTTPImageProber {
	return newHTTPImageProber(timeout, false)
}

// newHTTPImageProber lets tests reach httptest servers on loopback.
func newHTTPImageProber(timeout time.Duration, allowPrivate bool) *HTTPImageProber {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if !allowPrivate {
		dialer.Control = publicOnly
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	client := resty.New().
		SetTransport(transport).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetRetryCount(0)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &HTTPImageProber{client: client}
}

func (p *HTTPImageProber) Probe(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPreviewFailed, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrPreviewFailed, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing host", ErrPreviewFailed)
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "image/*").
		Get(u.String())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPreviewFailed, err)
	}
	if body := resp.RawBody(); body != nil {
		defer body.Close()
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return fmt.Errorf("%w: status %d", ErrPreviewFailed, resp.StatusCode())
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: content type %q", ErrPreviewFailed, ct)
	}
	return nil
}
