package predicate

import (
	"fmt"

	"github.com/danbev/in-toto-rs/cjson"
)

// UnsupportedVersionError carries the version identifier that fell outside
// the supported set. Extract it with errors.As; the wrapping *cjson.Error
// classifies it as KindUnsupportedVersion.
type UnsupportedVersionError struct {
	Got string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported predicate version %q", e.Got)
}

func errUnsupportedVersion(got string) error {
	cause := &UnsupportedVersionError{Got: got}
	return cjson.WrapError(cjson.KindUnsupportedVersion, "PRED-VER-001", cause.Error(), cause)
}

func errNoMatchingVersion() error {
	return cjson.NewError(cjson.KindNoMatchingVersion, "PRED-MATCH-001",
		"no supported predicate version matched the input")
}
