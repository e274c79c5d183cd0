// Package certify creates and verifies certificates end to end.
//
// Creating a certificate canonically encodes a map, hashes it, anchors the
// hash with the trust service, swaps the hash in the returned signed record
// for the encoded map and packs the record into a certificate string.
// Verifying reverses those steps and asks the trust service whether the
// recomputed hash was anchored.
package certify

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-multihash"

	"github.com/ubirch/go-certify/client"
	"github.com/ubirch/go-certify/core/canonical"
	"github.com/ubirch/go-certify/core/certificate"
	"github.com/ubirch/go-certify/core/hash"
	"github.com/ubirch/go-certify/core/hash/sha256"
	"github.com/ubirch/go-certify/core/record"
	"github.com/ubirch/go-certify/core/value"
)

// Option is an option configuring a Certifier.
type Option func(cfg *certifierConfig)

type certifierConfig struct {
	prefix string
	hasher hash.Hasher
	logger *slog.Logger
}

// WithPrefix configures the certificate prefix. Defaults to
// certificate.DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(cfg *certifierConfig) {
		cfg.prefix = prefix
	}
}

// WithHasher configures the payload hash function. Defaults to SHA-256; the
// trust service expects SHA-256 digests.
func WithHasher(h hash.Hasher) Option {
	return func(cfg *certifierConfig) {
		cfg.hasher = h
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *certifierConfig) {
		cfg.logger = logger
	}
}

type Certifier struct {
	service client.TrustService
	prefix  string
	hasher  hash.Hasher
	logger  *slog.Logger
}

// Result is the outcome of verifying a certificate.
type Result struct {
	// Verified is true when the trust service recognizes the payload digest.
	Verified bool
	// Payload is the data embedded in the certificate. It is populated even
	// when Verified is false.
	Payload value.Value
	// Record is the signed record carried by the certificate.
	Record record.Record
	// Digest is the hash of the payload that was checked with the trust
	// service.
	Digest hash.Digest
}

func New(service client.TrustService, options ...Option) *Certifier {
	cfg := certifierConfig{
		prefix: certificate.DefaultPrefix,
		hasher: sha256.Hasher,
	}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Certifier{
		service: service,
		prefix:  cfg.prefix,
		hasher:  cfg.hasher,
		logger:  cfg.logger,
	}
}

// Create anchors payload on behalf of identity and returns its certificate.
// Any failure aborts without a certificate; an already anchored payload
// yields failure.ErrServiceConflict.
func (c *Certifier) Create(ctx context.Context, payload value.Value, identity uuid.UUID) (string, error) {
	encoded, err := canonical.Encode(payload)
	if err != nil {
		return "", err
	}
	c.logger.Debug("encoded payload", "msgpack", hex.EncodeToString(encoded))

	d, err := c.digest(encoded)
	if err != nil {
		return "", err
	}
	digest := hash.Base64(d)

	upp, err := c.service.Anchor(ctx, digest, identity)
	if err != nil {
		return "", err
	}
	c.logger.Debug("signed record with hash", "upp", hex.EncodeToString(upp))

	rec, err := record.Parse(upp)
	if err != nil {
		return "", err
	}

	b, err := record.Serialize(certificate.Embed(rec, encoded))
	if err != nil {
		return "", err
	}
	c.logger.Debug("signed record with original data", "upp", hex.EncodeToString(b))

	cert, err := certificate.Encode(b, c.prefix)
	if err != nil {
		return "", err
	}
	c.logger.Info("created certificate", "certificate", cert)
	return cert, nil
}

// CreateJSON is Create for a JSON object.
func (c *Certifier) CreateJSON(ctx context.Context, data []byte, identity uuid.UUID) (string, error) {
	payload, err := value.ParseJSON(data)
	if err != nil {
		return "", err
	}
	return c.Create(ctx, payload, identity)
}

// Verify unpacks cert and asks the trust service whether its payload was
// anchored. Malformed certificates are errors; an unrecognized payload is a
// Result with Verified false.
func (c *Certifier) Verify(ctx context.Context, cert string) (Result, error) {
	c.logger.Debug("verifying certificate", "certificate", cert)

	b, err := certificate.Decode(cert, c.prefix)
	if err != nil {
		return Result{}, err
	}
	c.logger.Debug("signed record with original data", "upp", hex.EncodeToString(b))

	rec, err := record.Parse(b)
	if err != nil {
		return Result{}, err
	}
	encoded, err := certificate.Extract(rec)
	if err != nil {
		return Result{}, err
	}
	c.logger.Debug("certificate payload", "msgpack", hex.EncodeToString(encoded))

	payload, err := canonical.Decode(encoded)
	if err != nil {
		return Result{}, err
	}

	d, err := c.digest(encoded)
	if err != nil {
		return Result{}, err
	}
	digest := hash.Base64(d)

	verified, err := c.service.Verify(ctx, digest)
	if err != nil {
		return Result{}, err
	}
	if verified {
		c.logger.Info("certificate verification successful")
	} else {
		c.logger.Warn("certificate payload hash could not be verified by the trust service", "base64", digest)
	}
	return Result{Verified: verified, Payload: payload, Record: rec, Digest: d}, nil
}

func (c *Certifier) digest(b []byte) (hash.Digest, error) {
	d, err := c.hasher.Sum(b)
	if err != nil {
		return nil, err
	}
	c.logger.Info("payload hash",
		"base64", hash.Base64(d),
		"function", multicodec.Code(d.Code()).String(),
		"multihash", multihash.Multihash(d.Bytes()).B58String(),
	)
	return d, nil
}
