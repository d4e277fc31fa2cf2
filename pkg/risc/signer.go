package risc

import (
	"context"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is the wire format the RISC server verifies
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mbd888/risc/internal/idgen"
	"github.com/mbd888/risc/internal/metrics"
)

// AuthMode names how a request is authenticated.
type AuthMode string

const (
	AuthBasic  AuthMode = "basic"
	AuthDigest AuthMode = "digest"
)

// Header names of the HMAC authentication scheme.
const (
	HeaderToken     = "X-Lastwall-Token"
	HeaderTimestamp = "X-Lastwall-Timestamp"
	HeaderRequestID = "X-Lastwall-Request-Id"
	HeaderSignature = "X-Lastwall-Signature"

	ContentTypeForm = "application/x-www-form-urlencoded"
)

// SignedRequest is an outbound call with its authentication headers and
// form-encoded body. It is built fresh for every call.
type SignedRequest struct {
	Method    string
	URL       string
	Body      string
	Header    http.Header
	Mode      AuthMode
	RequestID string // empty in basic mode
	Timestamp string // empty in basic mode
}

// NewHTTPRequest materializes r as an *http.Request bound to ctx.
func (r *SignedRequest) NewHTTPRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, strings.NewReader(r.Body))
	if err != nil {
		return nil, err
	}
	for k, v := range r.Header {
		req.Header[k] = append([]string(nil), v...)
	}
	return req, nil
}

// Signer builds the authentication headers for RISC calls.
type Signer struct {
	token  string
	secret string
	mode   AuthMode

	// Now defaults to time.Now.
	Now func() time.Time
	// Random is the nonce entropy source; crypto/rand when nil.
	Random io.Reader
	// Logger and Output are told when nonce generation had to fall back to
	// a pseudo-random source. Output may be nil.
	Logger *slog.Logger
	Output Output
}

// NewSigner returns a signer for the given credentials. basicAuth selects
// static Basic credentials instead of HMAC signatures.
func NewSigner(token, secret string, basicAuth bool) *Signer {
	mode := AuthDigest
	if basicAuth {
		mode = AuthBasic
	}
	return &Signer{token: token, secret: secret, mode: mode}
}

// Mode reports the authentication mode.
func (s *Signer) Mode() AuthMode { return s.mode }

// Sign builds the headers and body for method and rawURL.
func (s *Signer) Sign(method, rawURL string, params url.Values) *SignedRequest {
	if s.mode == AuthBasic {
		return s.SignAt(method, rawURL, params, "", time.Time{})
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return s.SignAt(method, rawURL, params, s.requestID(), now())
}

// SignAt is Sign with a fixed request ID and timestamp. Both are ignored in
// basic mode.
func (s *Signer) SignAt(method, rawURL string, params url.Values, requestID string, at time.Time) *SignedRequest {
	req := &SignedRequest{
		Method: method,
		URL:    rawURL,
		Body:   params.Encode(),
		Header: make(http.Header),
		Mode:   s.mode,
	}
	req.Header.Set("Content-Type", ContentTypeForm)

	if s.mode == AuthBasic {
		req.Header.Set("Authorization", BasicAuthorization(s.token, s.secret))
		return req
	}

	req.RequestID = requestID
	req.Timestamp = strconv.FormatInt(at.Unix(), 10)
	req.Header.Set(HeaderToken, s.token)
	req.Header.Set(HeaderTimestamp, req.Timestamp)
	req.Header.Set(HeaderRequestID, req.RequestID)
	req.Header.Set(HeaderSignature, Signature(s.secret, rawURL, req.RequestID, req.Timestamp))
	return req
}

func (s *Signer) requestID() string {
	var (
		id       string
		degraded bool
	)
	if s.Random != nil {
		id, degraded = idgen.RequestIDFrom(s.Random)
	} else {
		id, degraded = idgen.RequestID()
	}
	if degraded {
		metrics.NonceFallbackTotal.Inc()
		msg := "Error generating crypto-secure random request ID. Resorting to pseudo-random"
		if s.Logger != nil {
			s.Logger.Warn("nonce fallback to pseudo-random source")
		}
		if s.Output != nil {
			s.Output.Warn(msg)
		}
	}
	return id
}

// Signature computes base64(HMAC-SHA1(secret, url + requestID + timestamp)).
// The body and method are not part of the signed material.
func Signature(secret, rawURL, requestID, timestamp string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(rawURL + requestID + timestamp))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks signature against the expected value in constant time.
func VerifySignature(secret, rawURL, requestID, timestamp, signature string) bool {
	expected := Signature(secret, rawURL, requestID, timestamp)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// BasicAuthorization returns the Authorization header value for Basic mode.
func BasicAuthorization(token, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(token+":"+secret))
}
