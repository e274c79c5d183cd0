// Package record parses and serializes signed records (UPPs), the envelope
// the trust service returns when a hash is anchored.
//
// On the wire a record is a MessagePack array of exactly five elements:
//
//	[version, identity id, type hint, payload, signature]
package record

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/ubirch/go-certify/core/failure"
)

// Fields is the number of elements in a signed record.
const Fields = 5

// TypeHint says what the payload field of a record holds.
type TypeHint uint8

const (
	// Hash marks a record whose payload is the digest of the original data.
	Hash TypeHint = 0x00
	// Embedded marks a record whose payload is the canonical encoding of the
	// original data.
	Embedded TypeHint = 0xEE
)

func (h TypeHint) String() string {
	switch h {
	case Hash:
		return "hash"
	case Embedded:
		return "embedded"
	default:
		return fmt.Sprintf("0x%02X", uint8(h))
	}
}

// Record is a signed record with named fields.
type Record struct {
	Version    int64
	IdentityID uuid.UUID
	TypeHint   TypeHint
	Payload    []byte
	Signature  []byte
}

// Parse decodes a signed record. Any arity other than five, a field of the
// wrong type or trailing bytes are a FormatError.
func Parse(b []byte) (Record, error) {
	r := bytes.NewReader(b)
	dec := msgpack.NewDecoder(r)

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return Record{}, failure.Format(err, "decoding signed record")
	}
	if n != Fields {
		return Record{}, failure.Format(nil, "signed record has %d fields, expected %d", n, Fields)
	}

	var rec Record
	if rec.Version, err = dec.DecodeInt64(); err != nil {
		return Record{}, failure.Format(err, "decoding record version")
	}

	id, err := decodeBin(dec)
	if err != nil {
		return Record{}, failure.Format(err, "decoding record identity")
	}
	if rec.IdentityID, err = uuid.FromBytes(id); err != nil {
		return Record{}, failure.Format(err, "decoding record identity")
	}

	hint, err := dec.DecodeInt64()
	if err != nil {
		return Record{}, failure.Format(err, "decoding record type hint")
	}
	if hint < 0 || hint > 0xFF {
		return Record{}, failure.Format(nil, "record type hint %d out of range", hint)
	}
	rec.TypeHint = TypeHint(hint)

	if rec.Payload, err = decodeBin(dec); err != nil {
		return Record{}, failure.Format(err, "decoding record payload")
	}
	if rec.Signature, err = decodeBin(dec); err != nil {
		return Record{}, failure.Format(err, "decoding record signature")
	}
	if r.Len() > 0 {
		return Record{}, failure.Format(nil, "signed record has %d trailing bytes", r.Len())
	}
	return rec, nil
}

// decodeBin reads a bin value. DecodeBytes would also accept str and nil,
// which Serialize cannot reproduce.
func decodeBin(dec *msgpack.Decoder) ([]byte, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	if c != msgpcode.Bin8 && c != msgpcode.Bin16 && c != msgpcode.Bin32 {
		return nil, fmt.Errorf("expected bin, got code 0x%02x", c)
	}
	return dec.DecodeBytes()
}

// Serialize encodes the record as a five element array, in field order.
func Serialize(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	err := enc.EncodeArrayLen(Fields)
	if err == nil {
		err = enc.EncodeInt(rec.Version)
	}
	if err == nil {
		err = enc.EncodeBytes(rec.IdentityID[:])
	}
	if err == nil {
		err = enc.EncodeUint(uint64(rec.TypeHint))
	}
	if err == nil {
		err = enc.EncodeBytes(rec.Payload)
	}
	if err == nil {
		err = enc.EncodeBytes(rec.Signature)
	}
	if err != nil {
		return nil, failure.Encoding(err, "encoding signed record")
	}
	return buf.Bytes(), nil
}
