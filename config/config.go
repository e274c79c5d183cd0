// Package config loads process configuration from the environment. It is
// read once at startup and passed explicitly to the components that need it.
package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	"github.com/ubirch/go-certify/client"
	"github.com/ubirch/go-certify/core/certificate"
	thttp "github.com/ubirch/go-certify/transport/http"
)

type Config struct {
	// Env selects the trust service deployment, "prod" or a staging tag.
	Env string `env:"UBIRCH_ENV" envDefault:"prod"`
	// IdentityID is the identity anchored hashes are issued for.
	IdentityID uuid.UUID `env:"UBIRCH_IDENTITY_UUID"`
	// ClientCertFile is a PKCS#12 bundle used to authenticate anchoring.
	ClientCertFile string `env:"UBIRCH_CLIENT_CERT_PFX_FILE"`
	// ClientCertPasswordFile holds the password of ClientCertFile.
	ClientCertPasswordFile string `env:"UBIRCH_CLIENT_CERT_PWD_FILE"`
	// VerifyToken is the bearer token for the verification service.
	VerifyToken    string `env:"UBIRCH_VERIFY_TOKEN"`
	VerifyProtocol string `env:"UBIRCH_VERIFY_PROTOCOL" envDefault:"v2"`
	Prefix         string `env:"CERT_PREFIX" envDefault:"C01:"`
	LogLevel       string `env:"LOGLEVEL" envDefault:"info"`
}

// Load parses the configuration from environment variables.
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses the configuration from environ, a map of variable names to
// values. A nil map reads the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = certificate.DefaultPrefix
	}
	if _, err := client.ParseVerifyProtocol(cfg.VerifyProtocol); err != nil {
		return Config{}, err
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RequireIdentity fails unless an identity is configured; creating
// certificates needs one, verifying them does not.
func (c Config) RequireIdentity() error {
	if c.IdentityID == uuid.Nil {
		return errors.New("UBIRCH_IDENTITY_UUID is not set")
	}
	return nil
}

// ClientCertificate loads the PKCS#12 client certificate. Surrounding
// whitespace in the password file is ignored.
func (c Config) ClientCertificate() (tls.Certificate, error) {
	if c.ClientCertFile == "" || c.ClientCertPasswordFile == "" {
		return tls.Certificate{}, errors.New("UBIRCH_CLIENT_CERT_PFX_FILE and UBIRCH_CLIENT_CERT_PWD_FILE must be set")
	}
	bundle, err := os.ReadFile(c.ClientCertFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("reading client certificate: %w", err)
	}
	password, err := os.ReadFile(c.ClientCertPasswordFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("reading client certificate password: %w", err)
	}
	return thttp.LoadPKCS12(bundle, strings.TrimSpace(string(password)))
}

// ClientOptions returns the trust service client options for this
// configuration. The client certificate is only loaded when withCertificate
// is set, so verification works without one.
func (c Config) ClientOptions(withCertificate bool) ([]client.Option, error) {
	protocol, err := client.ParseVerifyProtocol(c.VerifyProtocol)
	if err != nil {
		return nil, err
	}
	opts := []client.Option{client.WithVerifyProtocol(protocol)}
	if c.VerifyToken != "" {
		opts = append(opts, client.WithBearerToken(c.VerifyToken))
	}
	if withCertificate {
		cert, err := c.ClientCertificate()
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithClientCertificate(cert))
	}
	return opts, nil
}

func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}
