package client

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ubirch/go-certify/core/failure"
	"github.com/ubirch/go-certify/transport"
	thttp "github.com/ubirch/go-certify/transport/http"
)

// Verify asks the verification service whether the base64 digest has been
// anchored. Any answer other than 200 OK means it has not; only transport
// failures are returned as errors.
func (c *Client) Verify(ctx context.Context, digest string) (bool, error) {
	if c.needsToken && !c.hasToken {
		return false, failure.Auth("verification requires a bearer token")
	}

	hdrs := http.Header{}
	hdrs.Set("Content-Type", "text/plain")

	res, err := c.verify.Request(ctx, thttp.NewRequest(strings.NewReader(digest), hdrs))
	if err != nil {
		var herr transport.HTTPError
		if errors.As(err, &herr) {
			c.logger.Debug("verification failed", "digest", digest, "status", herr.Status(), "body", string(herr.Body()))
			return false, nil
		}
		return false, failure.Service(err, "communicating with the verification service")
	}
	res.Body().Close()
	return true, nil
}
