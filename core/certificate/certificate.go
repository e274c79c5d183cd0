// Package certificate turns signed records into certificate strings and back.
//
// A certificate is a prefix followed by base45(zlib(record)). Before
// encoding, the record's hash payload is replaced by the canonical bytes of
// the data that was anchored, and its type hint is set to record.Embedded.
package certificate

import (
	"bytes"
	"io"
	"strings"

	"github.com/dasio/base45"
	"github.com/klauspost/compress/zlib"

	"github.com/ubirch/go-certify/core/failure"
	"github.com/ubirch/go-certify/core/record"
)

// DefaultPrefix is prepended to every certificate unless configured otherwise.
const DefaultPrefix = "C01:"

// MaxRecordSize bounds the inflated record a certificate may carry. Records
// are a few hundred bytes; anything near the cap is not a certificate this
// package produced.
const MaxRecordSize = 1 << 20

// Embed returns a copy of rec carrying payload in place of its hash.
func Embed(rec record.Record, payload []byte) record.Record {
	rec.Payload = bytes.Clone(payload)
	rec.TypeHint = record.Embedded
	return rec
}

// Extract returns the embedded payload of rec. Records that do not carry
// embedded data are a TypeMismatchError.
func Extract(rec record.Record) ([]byte, error) {
	if rec.TypeHint != record.Embedded {
		return nil, failure.TypeMismatch("invalid payload type %02X, must be %02X", uint8(rec.TypeHint), uint8(record.Embedded))
	}
	return rec.Payload, nil
}

// Encode compresses b, encodes it as base45 and prepends prefix.
func Encode(b []byte, prefix string) (string, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		return "", failure.Encoding(err, "compressing certificate")
	}
	if err := zw.Close(); err != nil {
		return "", failure.Encoding(err, "compressing certificate")
	}
	return prefix + base45.EncodeToString(buf.Bytes()), nil
}

// Decode strips prefix from cert and reverses Encode. Certificates inflating
// to more than MaxRecordSize bytes are a FormatError.
func Decode(cert string, prefix string) ([]byte, error) {
	body, ok := strings.CutPrefix(cert, prefix)
	if !ok {
		return nil, failure.Prefix("certificate does not have expected prefix %q", prefix)
	}

	compressed, err := base45.DecodeString(body)
	if err != nil {
		return nil, failure.Format(err, "decoding certificate")
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, failure.Format(err, "decompressing certificate")
	}
	defer zr.Close()

	b, err := io.ReadAll(io.LimitReader(zr, MaxRecordSize+1))
	if err != nil {
		return nil, failure.Format(err, "decompressing certificate")
	}
	if len(b) > MaxRecordSize {
		return nil, failure.Format(nil, "decompressed certificate exceeds %d bytes", MaxRecordSize)
	}
	return b, nil
}
