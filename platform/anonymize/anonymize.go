// Package anonymize derives irreversible digests from contact details so
// estimate records can be stored without personal data.
// This is part of the platform layer and contains no business logic.
package anonymize

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Anonymizer hashes contact identifiers with an application-wide salt.
// The same contact always yields the same digest, which lets records be
// correlated without storing the contact itself.
type Anonymizer struct {
	salt string
}

// New creates an Anonymizer with the given salt.
func New(salt string) *Anonymizer {
	return &Anonymizer{salt: salt}
}

// ContactDigest returns a hex-encoded SHA3-256 digest of the normalized
// contact identifier. Empty input yields an empty digest.
func (a *Anonymizer) ContactDigest(contact string) string {
	normalized := strings.ToLower(strings.TrimSpace(contact))
	if normalized == "" {
		return ""
	}

	sum := sha3.Sum256([]byte(a.salt + ":" + normalized))
	return hex.EncodeToString(sum[:])
}
