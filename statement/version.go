package statement

import (
	"fmt"

	"github.com/danbev/in-toto-rs/cjson"
)

// Version enumerates the supported statement document versions.
type Version int

const (
	VersionNaiveV1 Version = iota
	VersionV01
)

// Statement type tags, carried in the _type field.
const (
	TypeNaiveLink    = "link"
	TypeStatementV01 = "https://in-toto.io/Statement/v0.1"
)

// Versions returns the supported set in declared order; auto-detection
// tries them in exactly this order.
func Versions() []Version {
	return []Version{VersionNaiveV1, VersionV01}
}

// Known reports whether v is inside the supported set.
func (v Version) Known() bool {
	return v == VersionNaiveV1 || v == VersionV01
}

// String returns the _type tag for known versions.
func (v Version) String() string {
	switch v {
	case VersionNaiveV1:
		return TypeNaiveLink
	case VersionV01:
		return TypeStatementV01
	}
	return fmt.Sprintf("Version(%d)", int(v))
}

// ParseVersion maps a _type tag back onto the closed set.
func ParseVersion(tag string) (Version, error) {
	switch tag {
	case TypeNaiveLink:
		return VersionNaiveV1, nil
	case TypeStatementV01:
		return VersionV01, nil
	}
	return 0, errUnsupportedVersion(tag)
}

// UnsupportedVersionError carries the statement type tag that fell outside
// the supported set.
type UnsupportedVersionError struct {
	Got string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported statement version %q", e.Got)
}

func errUnsupportedVersion(got string) error {
	cause := &UnsupportedVersionError{Got: got}
	return cjson.WrapError(cjson.KindUnsupportedVersion, "STMT-VER-001", cause.Error(), cause)
}

func errNoMatchingVersion() error {
	return cjson.NewError(cjson.KindNoMatchingVersion, "STMT-MATCH-001",
		"no supported statement version matched the input")
}
