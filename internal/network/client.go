package network

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

// DefaultUserAgent is sent when the caller did not set one.
const DefaultUserAgent = "ghsearch"

// ErrProxyRejected means the transport could not use the selected proxy.
// tls-client falls back to a direct connection in that case, so the request
// is not sent.
var ErrProxyRejected = errors.New("proxy rejected by transport")

// Client sends requests through a Chrome TLS profile, optionally rotating
// through proxies.
type Client struct {
	http    tls_client.HttpClient
	rotator *Rotator
}

// NewClient builds a client. A zero timeout disables the client-side deadline.
func NewClient(rotator *Rotator, timeout time.Duration) (*Client, error) {
	client, err := tls_client.NewHttpClient(
		tls_client.NewNoopLogger(),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithTimeoutSeconds(int(timeout/time.Second)),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:    client,
		rotator: rotator,
	}, nil
}

// Do fails without sending anything when a rotator is configured but no
// proxy can be used.
func (c *Client) Do(req *fhttp.Request) (*fhttp.Response, error) {
	proxy, err := c.rotateProxy()
	if err != nil {
		return nil, fmt.Errorf("select proxy: %w", err)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", DefaultUserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if proxy != nil {
		c.rotator.Report(proxy, resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) rotateProxy() (*url.URL, error) {
	if c.rotator == nil {
		return nil, nil
	}
	proxy, err := c.rotator.Next()
	if err != nil {
		return nil, err
	}

	if err := c.http.SetProxy(proxy.String()); err != nil {
		return nil, fmt.Errorf("set proxy %s: %w", proxy.Redacted(), err)
	}
	if c.http.GetProxy() != proxy.String() {
		return nil, fmt.Errorf("set proxy %s: %w", proxy.Redacted(), ErrProxyRejected)
	}
	return proxy, nil
}
