package hash

import "encoding/base64"

type Hasher interface {
	Sum(bytes []byte) (Digest, error)
}

type Digest interface {
	// Code is the multicodec code of the hash function.
	Code() uint64
	// Size is the length of the raw digest in bytes.
	Size() uint64
	// Digest is the raw hash output.
	Digest() []byte
	// Bytes is the multihash encoding of the digest.
	Bytes() []byte
}

type digest struct {
	code   uint64
	size   uint64
	digest []byte
	bytes  []byte
}

func (d *digest) Bytes() []byte {
	return d.bytes
}

func (d *digest) Code() uint64 {
	return d.code
}

func (d *digest) Digest() []byte {
	return d.digest
}

func (d *digest) Size() uint64 {
	return d.size
}

func NewDigest(code uint64, size uint64, digst []byte, bytes []byte) Digest {
	return &digest{code, size, digst, bytes}
}

// Base64 returns the padded standard base64 form of the raw digest, which is
// how the trust service expects hashes in request bodies.
func Base64(d Digest) string {
	return base64.StdEncoding.EncodeToString(d.Digest())
}
