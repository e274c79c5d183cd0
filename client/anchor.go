package client

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/ubirch/go-certify/core/failure"
	"github.com/ubirch/go-certify/transport"
	thttp "github.com/ubirch/go-certify/transport/http"
)

const (
	identityHeader = "X-Identity-Id"
	uppTypeHeader  = "X-UPP-Type-Id"
	// uppPath is where the anchoring response carries the signed record.
	uppPath = "data.body.upp"
	// maxResponseBody bounds the size of a successful anchoring response.
	maxResponseBody = 1 << 20
)

// Anchor submits the base64 digest for identity and returns the signed
// record bytes. A digest that was anchored before yields ErrServiceConflict,
// a rejected client certificate ErrAuth and anything else ErrService.
func (c *Client) Anchor(ctx context.Context, digest string, identity uuid.UUID) ([]byte, error) {
	if !c.canAnchor {
		return nil, failure.Auth("anchoring requires a client certificate")
	}

	hdrs := http.Header{}
	hdrs.Set(identityHeader, identity.String())
	hdrs.Set(uppTypeHeader, "signed")
	hdrs.Set("Content-Type", "text/plain")

	res, err := c.anchor.Request(ctx, thttp.NewRequest(strings.NewReader(digest), hdrs))
	if err != nil {
		return nil, anchorError(err)
	}
	defer res.Body().Close()

	body, err := io.ReadAll(io.LimitReader(res.Body(), maxResponseBody))
	if err != nil {
		return nil, failure.Service(err, "reading anchoring response")
	}

	upp := gjson.GetBytes(body, uppPath)
	if !upp.Exists() || upp.Type != gjson.String {
		return nil, failure.Service(nil, "anchoring response has no %s: %s", uppPath, body)
	}
	rec, err := base64.StdEncoding.DecodeString(upp.Str)
	if err != nil {
		return nil, failure.Service(err, "decoding signed record from anchoring response")
	}

	c.logger.Debug("anchored digest", "digest", digest, "identity", identity)
	return rec, nil
}

// credentialAlerts are the TLS alerts a server sends when it refuses the
// client certificate during the handshake.
var credentialAlerts = []string{
	"tls: bad certificate",
	"tls: unsupported certificate",
	"tls: revoked certificate",
	"tls: expired certificate",
	"tls: unknown certificate",
	"tls: unknown certificate authority",
	"tls: access denied",
	"tls: certificate required",
}

// rejectedCredential reports whether err is the server refusing the client
// certificate. Remote alerts surface as a *net.OpError with Op "remote
// error" whose cause has no exported type, so the alert is matched by text.
func rejectedCredential(err error) bool {
	var alert tls.AlertError
	if errors.As(err, &alert) {
		return isCredentialAlert(alert.Error())
	}
	var operr *net.OpError
	if errors.As(err, &operr) && operr.Op == "remote error" && operr.Err != nil {
		return isCredentialAlert(operr.Err.Error())
	}
	// Some transport paths flatten the cause into the message.
	msg := err.Error()
	for _, a := range credentialAlerts {
		if strings.Contains(msg, "remote error: "+a) {
			return true
		}
	}
	return false
}

func isCredentialAlert(text string) bool {
	return slices.Contains(credentialAlerts, text)
}

func anchorError(err error) error {
	var herr transport.HTTPError
	if !errors.As(err, &herr) {
		if rejectedCredential(err) {
			return failure.Auth("trust service rejected the client certificate: %s", err)
		}
		return failure.Service(err, "communicating with the trust service")
	}
	switch herr.Status() {
	case http.StatusConflict:
		return failure.Conflict("this data has already been anchored before: %d %s", herr.Status(), herr.Body())
	case http.StatusUnauthorized, http.StatusForbidden:
		return failure.Auth("trust service rejected the client credentials: %d %s", herr.Status(), herr.Body())
	default:
		return failure.Service(herr, "an error occurred communicating with the trust service: %s", herr.Body())
	}
}
