package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainCircuit is the domain prefix for circuit fingerprints. The version
// suffix enables future canonical-form migrations.
const DomainCircuit = "qbridge/circuit/v1"

// Fingerprint computes the content-addressed identity of a circuit:
// SHA-256 over the domain prefix, a null separator, and the canonical form.
// The null byte prevents domain/data boundary ambiguity.
func Fingerprint(c *Circuit) (string, error) {
	canonical, err := MarshalCanonical(c)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(DomainCircuit))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}
