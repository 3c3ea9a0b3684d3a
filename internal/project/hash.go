package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a SHA-256 sum, the same shape as source.File.Hash.
type Digest [32]byte

// Combine hashes content followed by deps, in the order given.
func Combine(content Digest, deps ...Digest) Digest {
	buf := make([]byte, 0, len(content)*(1+len(deps)))
	buf = append(buf, content[:]...)
	for _, d := range deps {
		buf = append(buf, d[:]...)
	}
	return sha256.Sum256(buf)
}

// StringDigest hashes a string, for mixing settings into a key.
func StringDigest(s string) Digest {
	return sha256.Sum256([]byte(s))
}

// Hex is the lower-case hex form used for cache file names.
func (d Digest) Hex() string { return hex.EncodeToString(d[:]) }
