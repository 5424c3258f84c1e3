package models

import (
	"fmt"

	"github.com/danbev/in-toto-rs/cjson"
)

// HashValue is a lowercase hex digest.
type HashValue string

// NewHashValue validates s as a lowercase hex digest.
func NewHashValue(s string) (HashValue, error) {
	if s == "" {
		return "", cjson.NewError(cjson.KindValidation, "LINK-VAL-102", "digest must not be empty")
	}
	if len(s)%2 != 0 {
		return "", cjson.NewError(cjson.KindValidation, "LINK-VAL-102",
			fmt.Sprintf("digest %q has odd length", s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", cjson.NewError(cjson.KindValidation, "LINK-VAL-102",
				fmt.Sprintf("digest %q is not lowercase hex", s))
		}
	}
	return HashValue(s), nil
}

func (h HashValue) String() string { return string(h) }

// TargetDescription maps digest algorithm names to digests for one artifact.
// Algorithm names are opaque: unknown names round-trip untouched.
type TargetDescription map[string]HashValue

// NewTargetDescription validates algorithm names and digests. At least one
// pair is required.
func NewTargetDescription(pairs map[string]string) (TargetDescription, error) {
	if len(pairs) == 0 {
		return nil, cjson.NewError(cjson.KindValidation, "LINK-VAL-103",
			"target description must carry at least one digest")
	}
	td := make(TargetDescription, len(pairs))
	for alg, dig := range pairs {
		if alg == "" {
			return nil, cjson.NewError(cjson.KindValidation, "LINK-VAL-103",
				"digest algorithm name must not be empty")
		}
		h, err := NewHashValue(dig)
		if err != nil {
			return nil, err
		}
		td[alg] = h
	}
	return td, nil
}

// Equal reports whether both descriptions carry exactly the same algorithms
// and digests.
func (td TargetDescription) Equal(other TargetDescription) bool {
	if len(td) != len(other) {
		return false
	}
	for alg, dig := range td {
		if other[alg] != dig {
			return false
		}
	}
	return true
}

// Clone deep-copies the description.
func (td TargetDescription) Clone() TargetDescription {
	if td == nil {
		return nil
	}
	out := make(TargetDescription, len(td))
	for k, v := range td {
		out[k] = v
	}
	return out
}

// CloneArtifacts deep-copies an artifact map.
func CloneArtifacts(m map[VirtualTargetPath]TargetDescription) map[VirtualTargetPath]TargetDescription {
	if m == nil {
		return nil
	}
	out := make(map[VirtualTargetPath]TargetDescription, len(m))
	for p, td := range m {
		out[p] = td.Clone()
	}
	return out
}
