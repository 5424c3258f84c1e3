package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danbev/in-toto-rs/cjson"
)

// VirtualTargetPath identifies an artifact inside an attestation: a
// normalized, slash-separated relative path. Paths order by byte value,
// which is the order every canonical encoding and report uses.
type VirtualTargetPath string

// NewVirtualTargetPath validates s as a virtual target path.
//
// Rejected: empty paths, absolute paths (leading slash or drive letter),
// backslashes, NUL bytes, empty segments, and `.`/`..` traversal segments.
func NewVirtualTargetPath(s string) (VirtualTargetPath, error) {
	if s == "" {
		return "", cjson.NewError(cjson.KindValidation, "LINK-VAL-101", "artifact path must not be empty")
	}
	if strings.ContainsRune(s, '\\') {
		return "", cjson.NewError(cjson.KindValidation, "LINK-VAL-101",
			fmt.Sprintf("artifact path %q must use forward slashes", s))
	}
	if strings.ContainsRune(s, 0) {
		return "", cjson.NewError(cjson.KindValidation, "LINK-VAL-101",
			fmt.Sprintf("artifact path %q contains a NUL byte", s))
	}
	if strings.HasPrefix(s, "/") {
		return "", cjson.NewError(cjson.KindValidation, "LINK-VAL-101",
			fmt.Sprintf("artifact path %q must be relative", s))
	}
	if len(s) >= 2 && s[1] == ':' && isDriveLetter(s[0]) {
		return "", cjson.NewError(cjson.KindValidation, "LINK-VAL-101",
			fmt.Sprintf("artifact path %q must be relative", s))
	}
	for _, seg := range strings.Split(s, "/") {
		switch seg {
		case "":
			return "", cjson.NewError(cjson.KindValidation, "LINK-VAL-101",
				fmt.Sprintf("artifact path %q contains an empty segment", s))
		case ".", "..":
			return "", cjson.NewError(cjson.KindValidation, "LINK-VAL-101",
				fmt.Sprintf("artifact path %q contains a traversal segment", s))
		}
	}
	return VirtualTargetPath(s), nil
}

func isDriveLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (p VirtualTargetPath) String() string { return string(p) }

// SortedPaths returns the keys of an artifact map in byte order.
func SortedPaths(m map[VirtualTargetPath]TargetDescription) []VirtualTargetPath {
	out := make([]VirtualTargetPath, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
