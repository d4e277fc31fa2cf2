// Package risctest provides an in-process fake RISC server for tests. It
// authenticates requests the way the real service does and records them.
package risctest

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // wire format
	"encoding/base64"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// Request is a call received by the fake server.
type Request struct {
	Method        string
	Path          string
	Form          url.Values
	Header        http.Header
	AuthMode      string // "basic", "digest" or ""
	Authenticated bool
}

// Response is a canned reply.
type Response struct {
	Status int
	Body   string
}

// Server is a fake RISC API.
type Server struct {
	*httptest.Server

	Token  string
	Secret string

	mu        sync.Mutex
	requests  []Request
	responses map[string]Response
}

// NewServer starts a fake server that accepts token/secret.
func NewServer(token, secret string) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		Token:     token,
		Secret:    secret,
		responses: make(map[string]Response),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Any("/*path", s.serve)
	s.Server = httptest.NewServer(r)
	return s
}

// Respond sets the reply for method and path (without leading slash).
func (s *Server) Respond(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[method+" "+strings.TrimPrefix(path, "/")] = Response{Status: status, Body: body}
}

// Requests returns a copy of the calls received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// HostPort returns the listener host and port.
func (s *Server) HostPort() (string, int) {
	u, _ := url.Parse(s.URL)
	host, portStr, _ := net.SplitHostPort(u.Host)
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func (s *Server) serve(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	form, _ := url.ParseQuery(string(body))

	rec := Request{
		Method: c.Request.Method,
		Path:   strings.TrimPrefix(c.Request.URL.Path, "/"),
		Form:   form,
		Header: c.Request.Header.Clone(),
	}
	rec.AuthMode, rec.Authenticated = s.authenticate(c.Request)

	s.mu.Lock()
	s.requests = append(s.requests, rec)
	resp, ok := s.responses[rec.Method+" "+rec.Path]
	s.mu.Unlock()

	if !rec.Authenticated {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no route for " + rec.Method + " " + rec.Path})
		return
	}
	c.Data(resp.Status, "application/json", []byte(resp.Body))
}

func (s *Server) authenticate(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte(s.Token+":"+s.Secret))
		return "basic", hmac.Equal([]byte(auth), []byte(want))
	}

	sig := r.Header.Get("X-Lastwall-Signature")
	if sig == "" {
		return "", false
	}
	if r.Header.Get("X-Lastwall-Token") != s.Token {
		return "digest", false
	}
	signedURL := "http://" + r.Host + r.URL.Path
	mac := hmac.New(sha1.New, []byte(s.Secret))
	mac.Write([]byte(signedURL + r.Header.Get("X-Lastwall-Request-Id") + r.Header.Get("X-Lastwall-Timestamp")))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return "digest", hmac.Equal([]byte(sig), []byte(want))
}
