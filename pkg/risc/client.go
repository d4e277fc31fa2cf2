// Package risc is a client for the RISC identity-risk API.
//
// Every call is authenticated either with static Basic credentials or with a
// per-request HMAC-SHA1 signature over the request URL, a random request ID
// and a timestamp. The client also decrypts the risk snapshots produced by
// the browser-side RISC script and confirms them with the server.
package risc

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Client issues signed calls to the RISC API. It is safe for concurrent use
// and immutable after New.
type Client struct {
	secret       string
	baseURL      string
	verbose      bool
	legacyStatus bool
	timeout      time.Duration

	out    Output
	logger *slog.Logger
	http   Doer
	now    func() time.Time
	signer *Signer

	initialized bool
}

// New validates opts and returns a ready client. A missing token or secret
// yields an error wrapping ErrNotInitialized.
func New(opts Options) (*Client, error) {
	opts = opts.withDefaults()

	if opts.Token == "" {
		opts.Output.Error("No API token specified")
		return nil, notInitialized("no API token specified")
	}
	if opts.Secret == "" {
		opts.Output.Error("No API secret specified")
		return nil, notInitialized("no API secret specified")
	}
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, notInitialized("invalid port " + strconv.Itoa(opts.Port))
	}

	signer := NewSigner(opts.Token, opts.Secret, opts.HTTPBasicAuth)
	signer.Now = opts.Now
	signer.Random = opts.Random
	signer.Logger = opts.Logger
	if opts.Verbose {
		signer.Output = opts.Output
	}

	return &Client{
		secret:       opts.Secret,
		baseURL:      fmt.Sprintf("%s://%s:%d/", opts.scheme(), opts.Host, opts.Port),
		verbose:      opts.Verbose,
		legacyStatus: opts.LegacyStatusRange,
		timeout:      opts.Timeout,
		out:          opts.Output,
		logger:       opts.Logger,
		http:         opts.HTTPClient,
		now:          opts.Now,
		signer:       signer,
		initialized:  true,
	}, nil
}

// BaseURL returns the scheme://host:port/ prefix every call is sent to.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// Timeout returns the per-call timeout.
func (c *Client) Timeout() time.Duration {
	if c == nil {
		return 0
	}
	return c.timeout
}

func (c *Client) ready() bool {
	return c != nil && c.initialized
}
