package risc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mbd888/risc/internal/logging"
	"github.com/mbd888/risc/internal/metrics"
	"github.com/mbd888/risc/internal/traces"
)

// Result is the decoded JSON object of a successful response.
type Result map[string]any

// reply is what the transport goroutine hands back to call.
type reply struct {
	status int
	body   []byte
	err    error
}

// call performs exactly one signed round trip and classifies the response.
func (c *Client) call(ctx context.Context, method, path string, params url.Values) (Result, error) {
	if !c.ready() {
		return nil, ErrNotInitialized
	}
	if params == nil {
		params = url.Values{}
	}
	path = strings.TrimPrefix(path, "/")
	target := c.baseURL + path

	req := c.signer.Sign(method, target, params)
	if req.RequestID != "" {
		ctx = logging.WithRequestID(ctx, req.RequestID)
	}
	ctx = logging.WithLogger(ctx, c.logger)

	ctx, span := traces.StartSpan(ctx, "risc."+path,
		traces.Method(method),
		traces.Path(path),
		traces.AuthMode(string(req.Mode)),
		traces.RequestID(req.RequestID),
	)
	defer span.End()

	if c.verbose {
		c.out.Info(fmt.Sprintf("Calling '%s %s' (%s), params: %s", method, target, req.Mode, paramKeys(params)))
	}
	logging.L(ctx).Debug("risc call", "method", method, "url", target, "auth", req.Mode)

	start := time.Now()
	res, outcome, err := c.roundTrip(ctx, req)
	metrics.RequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	metrics.RequestsTotal.WithLabelValues(method, path, outcome).Inc()

	if err != nil {
		traces.Fail(span, err)
		logging.L(ctx).Debug("risc call failed", "method", method, "url", target, "error", err)
		return nil, err
	}
	return res, nil
}

// roundTrip races the transport against the per-call timeout. Whichever
// finishes first decides the outcome; a late transport result is dropped.
func (c *Client) roundTrip(ctx context.Context, sr *SignedRequest) (Result, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := sr.NewHTTPRequest(ctx)
	if err != nil {
		return nil, metrics.OutcomeTransport, c.transportFailure(sr, err)
	}

	done := make(chan reply, 1)
	go func() {
		done <- c.send(httpReq)
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, metrics.OutcomeTimeout, c.timeoutFailure(sr)
			}
			return nil, metrics.OutcomeTransport, c.transportFailure(sr, r.err)
		}
		return c.classify(ctx, sr, r.status, r.body)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, metrics.OutcomeTimeout, c.timeoutFailure(sr)
		}
		return nil, metrics.OutcomeTransport, c.transportFailure(sr, ctx.Err())
	}
}

func (c *Client) send(req *http.Request) reply {
	resp, err := c.http.Do(req)
	if err != nil {
		return reply{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return reply{err: err}
	}
	return reply{status: resp.StatusCode, body: body}
}

func (c *Client) classify(ctx context.Context, sr *SignedRequest, status int, body []byte) (Result, string, error) {
	traces.SpanFromContext(ctx).SetAttributes(traces.StatusCode(status))
	mess := fmt.Sprintf("Received API response for '%s %s': response code %d", sr.Method, sr.URL, status)

	if c.successful(status) {
		if c.verbose {
			c.out.Success(mess)
		}
		result := Result{}
		if len(bytes.TrimSpace(body)) == 0 {
			return result, metrics.OutcomeSuccess, nil
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, metrics.OutcomeMalformed, &failure{
				kind:  ErrMalformedResponse,
				msg:   fmt.Sprintf("%d: invalid JSON in response to '%s %s': %v", status, sr.Method, sr.URL, err),
				cause: err,
			}
		}
		return result, metrics.OutcomeSuccess, nil
	}

	apiErr := &APIError{StatusCode: status, Message: errorMessage(status, body)}
	if c.verbose {
		c.out.Error(mess + ", error: " + apiErr.Message)
	}
	return nil, metrics.OutcomeAPIError, apiErr
}

func (c *Client) successful(status int) bool {
	upper := http.StatusMultipleChoices
	if c.legacyStatus {
		upper = http.StatusBadRequest
	}
	return status >= http.StatusOK && status < upper
}

func (c *Client) timeoutFailure(sr *SignedRequest) error {
	msg := fmt.Sprintf("HTTP request '%s %s' timed out", sr.Method, sr.URL)
	if c.verbose {
		c.out.Error(msg)
	}
	return &failure{kind: ErrTimeout, msg: msg}
}

func (c *Client) transportFailure(sr *SignedRequest, err error) error {
	msg := fmt.Sprintf("Error calling API '%s %s': %v", sr.Method, sr.URL, err)
	if c.verbose {
		c.out.Error(msg)
	}
	return &failure{kind: ErrTransport, msg: msg, cause: err}
}

// errorMessage extracts the "error" field of a JSON body, falling back to
// the raw body text.
func errorMessage(status int, body []byte) string {
	var payload map[string]any
	if json.Unmarshal(body, &payload) == nil {
		if msg, ok := payload["error"].(string); ok && msg != "" {
			return msg
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}

func paramKeys(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
