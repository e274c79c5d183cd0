package client

import (
	"fmt"
	"net/url"
)

// Production is the environment tag of the production deployment.
const Production = "prod"

// VerifyProtocol selects a revision of the verification API.
type VerifyProtocol string

const (
	// VerifyV2 posts to /api/v2/upp/verify and authenticates with a bearer
	// token.
	VerifyV2 VerifyProtocol = "v2"
	// VerifyLegacy posts to /api/upp/verify without authentication.
	VerifyLegacy VerifyProtocol = "legacy"
)

func ParseVerifyProtocol(s string) (VerifyProtocol, error) {
	switch VerifyProtocol(s) {
	case VerifyV2, "":
		return VerifyV2, nil
	case VerifyLegacy:
		return VerifyLegacy, nil
	default:
		return "", fmt.Errorf("unknown verify protocol: %q", s)
	}
}

func (p VerifyProtocol) path() string {
	if p == VerifyLegacy {
		return "/api/upp/verify"
	}
	return "/api/v2/upp/verify"
}

// AnchorURL returns the anchoring endpoint for env. The production host has
// no environment segment.
func AnchorURL(env string) *url.URL {
	host := "api.certify.ubirch.com"
	if env != Production {
		host = fmt.Sprintf("api.certify.%s.ubirch.com", env)
	}
	return &url.URL{Scheme: "https", Host: host, Path: "/api/v1/x509/anchor"}
}

// VerifyURL returns the verification endpoint for env. Unlike anchoring,
// every environment including production is addressed by its segment.
func VerifyURL(env string, protocol VerifyProtocol) *url.URL {
	return &url.URL{
		Scheme: "https",
		Host:   fmt.Sprintf("verify.%s.ubirch.com", env),
		Path:   protocol.path(),
	}
}
