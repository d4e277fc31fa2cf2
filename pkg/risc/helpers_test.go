package risc

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mbd888/risc/internal/logging"
	"github.com/mbd888/risc/internal/risctest"
)

const (
	testToken  = "tok_test_0001"
	testSecret = "00112233445566778899aabbccddeeff"
)

// recordingOutput captures output lines by severity.
type recordingOutput struct {
	mu    sync.Mutex
	lines []string
}

func (o *recordingOutput) add(level, msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, level+": "+msg)
}

func (o *recordingOutput) Info(msg string)    { o.add("info", msg) }
func (o *recordingOutput) Success(msg string) { o.add("success", msg) }
func (o *recordingOutput) Warn(msg string)    { o.add("warn", msg) }
func (o *recordingOutput) Error(msg string)   { o.add("error", msg) }

func (o *recordingOutput) Lines() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.lines...)
}

func (o *recordingOutput) Count(level string) int {
	n := 0
	for _, l := range o.Lines() {
		if strings.HasPrefix(l, level+": ") {
			n++
		}
	}
	return n
}

// doerFunc adapts a function to Doer and counts invocations.
type doerFunc struct {
	calls atomic.Int32
	fn    func(*http.Request) (*http.Response, error)
}

func newDoer(fn func(*http.Request) (*http.Response, error)) *doerFunc {
	return &doerFunc{fn: fn}
}

func (d *doerFunc) Do(req *http.Request) (*http.Response, error) {
	d.calls.Add(1)
	return d.fn(req)
}

func respond(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
			Request:    req,
		}, nil
	}
}

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	if opts.Token == "" {
		opts.Token = testToken
	}
	if opts.Secret == "" {
		opts.Secret = testSecret
	}
	if opts.Output == nil {
		opts.Output = NopOutput{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

// newServerClient starts a fake server and a client pointed at it.
func newServerClient(t *testing.T, opts Options) (*Client, *risctest.Server) {
	t.Helper()
	srv := risctest.NewServer(testToken, testSecret)
	t.Cleanup(srv.Close)

	host, port := srv.HostPort()
	opts.Host = host
	opts.Port = port
	opts.PlainHTTP = true
	return newTestClient(t, opts), srv
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
