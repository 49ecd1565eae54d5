package value

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainItem separates item hashes from any other hash computed over the
// same canonical bytes. The version suffix allows algorithm migration.
const DomainItem = "smartcoll/item/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of an item. Structurally equal items have
// equal hashes.
func Hash(v Value) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash item: %w", err)
	}
	return hashWithDomain(DomainItem, data), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when the value is known to be well formed.
func MustHash(v Value) string {
	h, err := Hash(v)
	if err != nil {
		panic(err)
	}
	return h
}
