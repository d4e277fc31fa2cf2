package risc

import (
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Defaults applied by New when the corresponding option is left zero.
const (
	DefaultHost    = "risc.lastwall.com"
	DefaultTimeout = 5 * time.Second
)

// Doer is the transport a Client sends requests through. *http.Client
// satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client. Token and Secret are required.
type Options struct {
	Token  string
	Secret string

	Host string // default "risc.lastwall.com"
	Port int    // default 443, or 80 with PlainHTTP

	// PlainHTTP talks http:// instead of https://.
	PlainHTTP bool

	// HTTPBasicAuth sends static Basic credentials instead of a per-request
	// HMAC signature.
	HTTPBasicAuth bool

	Timeout time.Duration // per call, default 5s
	Verbose bool

	// Output receives verbose call logs and snapshot diagnostics.
	// Defaults to a ConsoleOutput on stdout.
	Output Output

	// Logger receives structured debug logs. Defaults to slog.Default().
	Logger *slog.Logger

	// HTTPClient defaults to an *http.Client that does not follow redirects.
	HTTPClient Doer

	// Now and Random are clock and nonce entropy overrides.
	Now    func() time.Time
	Random io.Reader

	// LegacyStatusRange treats any status in [200,400) as success, as older
	// servers expected. The default success range is [200,300).
	LegacyStatusRange bool
}

func (o Options) scheme() string {
	if o.PlainHTTP {
		return "http"
	}
	return "https"
}

func (o Options) withDefaults() Options {
	if o.Host == "" {
		o.Host = DefaultHost
	}
	if o.Port == 0 {
		if o.PlainHTTP {
			o.Port = 80
		} else {
			o.Port = 443
		}
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Output == nil {
		o.Output = NewConsoleOutput(nil)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
