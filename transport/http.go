package transport

import (
	"io"
	"net/http"

	"github.com/ubirch/go-certify/core/failure"
)

type HTTPRequest interface {
	Headers() http.Header
	Body() io.Reader
}

type HTTPResponse interface {
	Status() int
	Headers() http.Header
	Body() io.ReadCloser
}

type HTTPError interface {
	failure.Failure
	Status() int
	Headers() http.Header
	// Body is the (possibly truncated) response body, kept for diagnostics.
	Body() []byte
}
