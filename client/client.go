// Package client talks to the ubirch trust service: it anchors payload
// digests and asks whether a digest has been anchored.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/ubirch/go-certify/transport"
	thttp "github.com/ubirch/go-certify/transport/http"
)

// TrustService anchors digests and verifies that they were anchored. Digests
// are passed in their base64 text form.
type TrustService interface {
	// Anchor submits digest on behalf of identity and returns the signed
	// record the service issued for it.
	Anchor(ctx context.Context, digest string, identity uuid.UUID) ([]byte, error)
	// Verify reports whether digest is known to the service. An unknown digest
	// is not an error.
	Verify(ctx context.Context, digest string) (bool, error)
}

// Option is an option configuring a trust service client.
type Option func(cfg *clientConfig) error

type clientConfig struct {
	anchorURL    *url.URL
	verifyURL    *url.URL
	anchorClient *http.Client
	verifyClient *http.Client
	token        string
	protocol     VerifyProtocol
	logger       *slog.Logger
}

// WithClientCertificate configures the TLS client certificate presented when
// anchoring.
func WithClientCertificate(cert tls.Certificate) Option {
	return func(cfg *clientConfig) error {
		cfg.anchorClient = thttp.NewMutualTLSClient(cert, nil)
		return nil
	}
}

// WithAnchorHTTPClient configures the HTTP client used for anchoring. It must
// already carry whatever client authentication the service requires.
func WithAnchorHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.anchorClient = c
		return nil
	}
}

// WithVerifyHTTPClient configures the HTTP client used for verification.
func WithVerifyHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.verifyClient = c
		return nil
	}
}

// WithBearerToken configures the access token sent with verification
// requests.
func WithBearerToken(token string) Option {
	return func(cfg *clientConfig) error {
		cfg.token = token
		return nil
	}
}

// WithVerifyProtocol selects the verification API revision. Defaults to
// VerifyV2.
func WithVerifyProtocol(p VerifyProtocol) Option {
	return func(cfg *clientConfig) error {
		if p != VerifyV2 && p != VerifyLegacy {
			return errors.New("unknown verify protocol: " + string(p))
		}
		cfg.protocol = p
		return nil
	}
}

// WithAnchorURL overrides the anchoring endpoint derived from the environment.
func WithAnchorURL(u *url.URL) Option {
	return func(cfg *clientConfig) error {
		cfg.anchorURL = u
		return nil
	}
}

// WithVerifyURL overrides the verification endpoint derived from the
// environment.
func WithVerifyURL(u *url.URL) Option {
	return func(cfg *clientConfig) error {
		cfg.verifyURL = u
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *clientConfig) error {
		cfg.logger = logger
		return nil
	}
}

// Client is a TrustService backed by the ubirch HTTP APIs.
type Client struct {
	anchor     transport.Channel
	verify     transport.Channel
	canAnchor  bool
	needsToken bool
	hasToken   bool
	logger     *slog.Logger
}

var _ TrustService = (*Client)(nil)

// New creates a client for the environment env ("prod" or a staging tag such
// as "demo").
func New(env string, options ...Option) (*Client, error) {
	cfg := clientConfig{protocol: VerifyV2}
	for _, opt := range options {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if env == "" {
		env = Production
	}
	if cfg.anchorURL == nil {
		cfg.anchorURL = AnchorURL(env)
	}
	if cfg.verifyURL == nil {
		cfg.verifyURL = VerifyURL(env, cfg.protocol)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	anchorClient := cfg.anchorClient
	if anchorClient == nil {
		anchorClient = &http.Client{}
	}
	verifyClient := cfg.verifyClient
	if verifyClient == nil {
		verifyClient = &http.Client{}
	}

	verifyOpts := []thttp.Option{thttp.WithClient(verifyClient)}
	if cfg.protocol == VerifyV2 && cfg.token != "" {
		verifyOpts = append(verifyOpts, thttp.WithHeader("Authorization", "Bearer "+cfg.token))
	}

	return &Client{
		anchor:     thttp.NewChannel(cfg.anchorURL, thttp.WithClient(anchorClient)),
		verify:     thttp.NewChannel(cfg.verifyURL, verifyOpts...),
		canAnchor:  cfg.anchorClient != nil,
		needsToken: cfg.protocol == VerifyV2,
		hasToken:   cfg.token != "",
		logger:     cfg.logger,
	}, nil
}
