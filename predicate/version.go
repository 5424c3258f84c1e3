package predicate

import "fmt"

// Version enumerates the supported predicate schema versions. The set is
// closed: adding a version means a new constant, a new record type, and a
// new arm in every dispatch switch.
type Version int

const (
	VersionLinkV02 Version = iota
	VersionSLSAProvenanceV01
	VersionSLSAProvenanceV02
)

// Predicate type URIs, as published for each schema version.
const (
	URILinkV02           = "https://in-toto.io/Link/v0.2"
	URISLSAProvenanceV01 = "https://slsa.dev/provenance/v0.1"
	URISLSAProvenanceV02 = "https://slsa.dev/provenance/v0.2"
)

// Versions returns the supported set in declared order. Auto-detection
// tries versions in exactly this order and the first match wins.
func Versions() []Version {
	return []Version{VersionLinkV02, VersionSLSAProvenanceV01, VersionSLSAProvenanceV02}
}

// Known reports whether v is inside the supported set.
func (v Version) Known() bool {
	switch v {
	case VersionLinkV02, VersionSLSAProvenanceV01, VersionSLSAProvenanceV02:
		return true
	}
	return false
}

// String returns the predicate type URI for known versions.
func (v Version) String() string {
	switch v {
	case VersionLinkV02:
		return URILinkV02
	case VersionSLSAProvenanceV01:
		return URISLSAProvenanceV01
	case VersionSLSAProvenanceV02:
		return URISLSAProvenanceV02
	}
	return fmt.Sprintf("Version(%d)", int(v))
}

// ParseVersion maps a predicate type URI back onto the closed set.
func ParseVersion(uri string) (Version, error) {
	switch uri {
	case URILinkV02:
		return VersionLinkV02, nil
	case URISLSAProvenanceV01:
		return VersionSLSAProvenanceV01, nil
	case URISLSAProvenanceV02:
		return VersionSLSAProvenanceV02, nil
	}
	return 0, errUnsupportedVersion(uri)
}
