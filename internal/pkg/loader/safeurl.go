package loader

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"
)

const maxRedirects = 10

// addressGuard vets the ip:port a connection is about to be made to.
type addressGuard func(address string) error

// checkURL rejects non-http schemes. Host addresses are vetted when dialing, so redirects
// and DNS rebinding go through the same check.
func checkURL(rawURL string) error {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("scheme %q is not allowed", parsedURL.Scheme)
	}
	if parsedURL.Hostname() == "" {
		return errors.New("url has no host")
	}
	return nil
}

// checkPublicAddress rejects private, loopback and link-local addresses.
func checkPublicAddress(address string) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("dial address %q is not an ip", address)
	}
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return fmt.Errorf("access to restricted network address %s", ip.String())
	}
	return nil
}

// newHTTPClient builds a client without cookie jar or proxy. A non-nil guard runs on
// every dialed address.
func newHTTPClient(guard addressGuard) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if guard != nil {
		dialer.Control = func(_, address string, _ syscall.RawConn) error {
			return guard(address)
		}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return checkURL(req.URL.String())
		},
	}
}
