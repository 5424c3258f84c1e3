package cjson

import "errors"

// Kind is a stable category for programmatic error handling.
//
// These categories are intended to remain stable across versions.
// Callers should branch on Kind/RuleID rather than matching error strings.
//
// NOTE: Error() strings are intentionally kept human-readable and may evolve.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindMalformed covers input that is not decodable at all: invalid
	// syntax, non-UTF-8 bytes, duplicate object keys, trailing data.
	KindMalformed Kind = "Malformed"

	// KindSchemaMismatch covers well-formed input that does not match a
	// record's declared field set: unknown fields, missing required fields,
	// wrong field types.
	KindSchemaMismatch Kind = "SchemaMismatch"

	// KindNoMatchingVersion is raised by auto-detection after every
	// supported schema version has been tried and rejected.
	KindNoMatchingVersion Kind = "NoMatchingVersion"

	// KindUnsupportedVersion is raised when a version identifier outside
	// the supported set is requested.
	KindUnsupportedVersion Kind = "UnsupportedVersion"

	// KindUnrepresentable covers values the canonical form cannot encode,
	// such as non-integral numbers.
	KindUnrepresentable Kind = "Unrepresentable"

	// KindValidation covers semantic constraint violations raised by value
	// constructors (artifact paths, digests) outside any decode.
	KindValidation Kind = "Validation"

	// KindCrypto covers signing and verification failures: bad signatures,
	// unknown key IDs, unmet thresholds.
	KindCrypto Kind = "Crypto"

	KindInternal Kind = "Internal"
)

// Error is the library's structured error type, shared by the codec and the
// record layers built on top of it.
//
// RuleID is a stable identifier (e.g., CJSON-STR-001, CJSON-SCHEMA-102,
// PRED-VER-001) that names the violated rule.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError constructs a structured error. Exported because the record
// packages raise the same taxonomy.
func NewError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

// WrapError constructs a structured error with a cause.
func WrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return NewError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
