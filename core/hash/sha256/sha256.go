package sha256

import (
	"crypto/sha256"
	"fmt"

	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-multihash"

	"github.com/ubirch/go-certify/core/hash"
)

// sha2-256
const Code = uint64(multicodec.Sha2_256)

// sha2-256 hash has a 32-byte sum
const Size = sha256.Size

type hasher struct{}

func (hasher) Code() uint64 {
	return Code
}

func (hasher) Size() uint64 {
	return Size
}

func (hasher) Sum(b []byte) (hash.Digest, error) {
	mh, err := multihash.Sum(b, Code, -1)
	if err != nil {
		return nil, err
	}

	decoded, err := multihash.Decode(mh)
	if err != nil {
		return nil, err
	}
	if decoded.Code != Code || decoded.Length != Size {
		return nil, fmt.Errorf("unexpected multihash %s of %d bytes", decoded.Name, decoded.Length)
	}

	return hash.NewDigest(decoded.Code, uint64(decoded.Length), decoded.Digest, mh), nil
}

var Hasher = hasher{}
