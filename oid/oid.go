// Package oid defines the content-addressed object identifier used
// throughout the store: a hash algorithm tag plus a lowercase hex digest.
package oid

import (
	"fmt"
	"path"
	"strings"
)

// OID names a blob by the digest of its bytes under a given algorithm.
// The zero value is not valid; construct one with Parse or New.
type OID struct {
	Algo Algorithm
	Hex  string
}

// New builds an OID from an algorithm and a hex digest, validating length
// and character set.
func New(algo Algorithm, hex string) (OID, error) {
	if !algo.IsValid() {
		return OID{}, &InvalidAlgorithmError{Algorithm: string(algo)}
	}
	if err := validateHex(hex, algo.HexLen()); err != nil {
		return OID{}, err
	}
	return OID{Algo: algo, Hex: strings.ToLower(hex)}, nil
}

// Parse decodes the "<algo>:<hex>" wire form of an OID.
func Parse(s string) (OID, error) {
	algo, hex, ok := strings.Cut(s, ":")
	if !ok {
		return OID{}, &ParseError{Input: s, Reason: "missing ':' separator"}
	}
	o, err := New(Algorithm(algo), hex)
	if err != nil {
		return OID{}, &ParseError{Input: s, Reason: err.Error()}
	}
	return o, nil
}

// String renders the "<algo>:<hex>" wire form.
func (o OID) String() string {
	return fmt.Sprintf("%s:%s", o.Algo, o.Hex)
}

// Equal reports whether two OIDs name the same algorithm and digest.
func (o OID) Equal(other OID) bool {
	return o.Algo == other.Algo && o.Hex == other.Hex
}

// IsZero reports whether o is the unconstructed zero value.
func (o OID) IsZero() bool {
	return o.Algo == "" && o.Hex == ""
}

// StoragePath returns the content-addressed storage subpath for o, fanned
// out by the first two hex characters: "<algo>/<hex[0:2]>/<hex[2:]>".
func (o OID) StoragePath() string {
	return path.Join(string(o.Algo), o.Hex[:2], o.Hex[2:])
}

func validateHex(hex string, wantLen int) error {
	if len(hex) != wantLen {
		return &ParseError{Input: hex, Reason: fmt.Sprintf("expected %d hex characters, got %d", wantLen, len(hex))}
	}
	for _, r := range hex {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return &ParseError{Input: hex, Reason: fmt.Sprintf("non-hex character %q", r)}
		}
	}
	return nil
}

// ParseError reports a malformed OID string.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("oid: invalid identifier %q: %s", e.Input, e.Reason)
}
