// Package trustservice is an in-memory stand-in for the ubirch anchoring and
// verification APIs, served over httptest.
package trustservice

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/ubirch/go-certify/core/record"
)

const (
	AnchorPath       = "/api/v1/x509/anchor"
	VerifyPath       = "/api/v2/upp/verify"
	LegacyVerifyPath = "/api/upp/verify"
)

// Option is an option configuring the fake service.
type Option func(s *Server)

// WithToken requires verification requests on VerifyPath to carry the bearer
// token.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithVersion sets the version field of issued records.
func WithVersion(v int64) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithRecordHook replaces the bytes of every issued record with the result of
// fn, for simulating a misbehaving service.
func WithRecordHook(fn func(rec []byte) []byte) Option {
	return func(s *Server) {
		s.hook = fn
	}
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	anchored map[string]record.Record
	token    string
	version  int64
	hook     func([]byte) []byte
	key      ed25519.PrivateKey
}

// New starts a plain HTTP fake service. Close it when done.
func New(options ...Option) *Server {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	s := &Server{
		anchored: map[string]record.Record{},
		version:  0x23,
		key:      key,
	}
	for _, opt := range options {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+AnchorPath, s.handleAnchor)
	mux.HandleFunc("POST "+VerifyPath, s.handleVerify(true))
	mux.HandleFunc("POST "+LegacyVerifyPath, s.handleVerify(false))
	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) AnchorURL() *url.URL {
	return s.endpoint(AnchorPath)
}

func (s *Server) VerifyURL() *url.URL {
	return s.endpoint(VerifyPath)
}

func (s *Server) LegacyVerifyURL() *url.URL {
	return s.endpoint(LegacyVerifyPath)
}

func (s *Server) endpoint(path string) *url.URL {
	u, err := url.Parse(s.URL + path)
	if err != nil {
		panic(err)
	}
	return u
}

// Anchored returns the record issued for the base64 digest, if any.
func (s *Server) Anchored(digest string) (record.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.anchored[digest]
	return rec, ok
}

// Anchor records digest as anchored without going through HTTP. A digest
// anchored before gets a fresh record.
func (s *Server) Anchor(digest string, identity uuid.UUID) (record.Record, error) {
	rec, err := s.issue(digest, identity)
	if err != nil {
		return record.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anchored[digest] = rec
	return rec, nil
}

// anchorOnce stores a record for digest unless one exists. It reports false
// for a digest that was already anchored.
func (s *Server) anchorOnce(digest string, identity uuid.UUID) (record.Record, bool, error) {
	rec, err := s.issue(digest, identity)
	if err != nil {
		return record.Record{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.anchored[digest]; ok {
		return record.Record{}, false, nil
	}
	s.anchored[digest] = rec
	return rec, true, nil
}

func (s *Server) issue(digest string, identity uuid.UUID) (record.Record, error) {
	raw, err := base64.StdEncoding.DecodeString(digest)
	if err != nil {
		return record.Record{}, err
	}
	rec := record.Record{
		Version:    s.version,
		IdentityID: identity,
		TypeHint:   record.Hash,
		Payload:    raw,
	}
	unsigned, err := record.Serialize(rec)
	if err != nil {
		return record.Record{}, err
	}
	rec.Signature = ed25519.Sign(s.key, unsigned)
	return rec, nil
}

func (s *Server) handleAnchor(w http.ResponseWriter, r *http.Request) {
	identity, err := uuid.Parse(r.Header.Get("X-Identity-Id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid identity"})
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	rec, created, err := s.anchorOnce(string(body), identity)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	if !created {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "hash already exists"})
		return
	}
	b, err := record.Serialize(rec)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	if s.hook != nil {
		b = s.hook(b)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"body": map[string]any{
				"upp": base64.StdEncoding.EncodeToString(b),
			},
		},
	})
}

func (s *Server) handleVerify(authenticated bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if authenticated && s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rec, ok := s.Anchored(string(body))
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		b, _ := record.Serialize(rec)
		writeJSON(w, http.StatusOK, map[string]any{
			"upp": base64.StdEncoding.EncodeToString(b),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
