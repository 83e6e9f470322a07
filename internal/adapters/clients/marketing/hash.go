package marketing

import (
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // MD5 is the identifier scheme of the remote API, not a security control
	"crypto/sha1" //nolint:gosec // offered for remote APIs that key resources by SHA-1
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// Algorithm names a hash construction. It is a value, not a hash.Hash: every
// HexHash call builds a fresh hash so no state is shared between calls.
type Algorithm struct {
	name    string
	newHash func() hash.Hash
}

// Supported unkeyed algorithms.
var (
	MD5    = Algorithm{name: "md5", newHash: md5.New}
	SHA1   = Algorithm{name: "sha1", newHash: sha1.New}
	SHA256 = Algorithm{name: "sha256", newHash: sha256.New}
	SHA512 = Algorithm{name: "sha512", newHash: sha512.New}
)

// HMACSHA256 returns a keyed algorithm. The key is copied.
func HMACSHA256(key []byte) Algorithm {
	k := append([]byte(nil), key...)

	return Algorithm{
		name:    "hmac-sha256",
		newHash: func() hash.Hash { return hmac.New(sha256.New, k) },
	}
}

// ParseAlgorithm maps a configuration name to an unkeyed Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "md5":
		return MD5, nil
	case "sha1":
		return SHA1, nil
	case "sha256":
		return SHA256, nil
	case "sha512":
		return SHA512, nil
	default:
		return Algorithm{}, fmt.Errorf("unsupported hash algorithm %q", name)
	}
}

// String returns the algorithm name.
func (a Algorithm) String() string {
	if a.newHash == nil {
		return MD5.name
	}

	return a.name
}

// Size returns the digest length in bytes.
func (a Algorithm) Size() int {
	return a.hasher().Size()
}

func (a Algorithm) hasher() hash.Hash {
	if a.newHash == nil {
		return md5.New() //nolint:gosec // zero Algorithm behaves like MD5
	}

	return a.newHash()
}

// HexHash hashes the UTF-8 bytes of input and returns the digest as lowercase
// hex, two characters per byte, no separators.
func HexHash(alg Algorithm, input string) string {
	h := alg.hasher()
	_, _ = h.Write([]byte(input)) // hash.Hash.Write never returns an error

	return hex.EncodeToString(h.Sum(nil))
}

// SubscriberHash returns the identifier the API uses for a list member: the
// MD5 hex digest of the lowercased e-mail address.
func SubscriberHash(email string) string {
	return HexHash(MD5, NormalizeEmail(email))
}

// NormalizeEmail lowercases and trims an e-mail address before hashing.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
