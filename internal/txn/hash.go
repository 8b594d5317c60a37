package txn

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainTransaction prefixes transaction hashes. The version suffix allows
// the hashed layout to change without colliding with old IDs.
const DomainTransaction = "mulcheck/transaction/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ID computes the content-addressed identity of a dispatched transaction.
// Two transactions with the same seq, operands, parities and operation
// share an ID across runs, which lets stored runs be diffed.
func ID(t Transaction) (string, error) {
	canonical, err := MarshalCanonical(t.CanonicalMap())
	if err != nil {
		return "", fmt.Errorf("transaction ID: %w", err)
	}
	return hashWithDomain(DomainTransaction, canonical), nil
}

// MustID is like ID but panics on error. The canonical form of a
// Transaction contains no floats or nulls, so ID cannot fail in practice.
func MustID(t Transaction) string {
	id, err := ID(t)
	if err != nil {
		panic(err)
	}
	return id
}
