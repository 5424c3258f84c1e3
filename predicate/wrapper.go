package predicate

import (
	"encoding/json"

	"github.com/danbev/in-toto-rs/cjson"
	"github.com/danbev/in-toto-rs/models"
)

// Record is the closed interface over versioned predicate records. The
// unexported method seals the set to the types in this package, so every
// dispatch switch can be exhaustive.
type Record interface {
	// Version returns the record's fixed schema identifier.
	Version() Version
	// ToBytes returns the canonical encoding of the record.
	ToBytes() ([]byte, error)
	// Metadata converts the record back into unified metadata,
	// best-effort for fields the schema never carried.
	Metadata() models.LinkMetadata
	// Wrap places the record into the closed wrapper.
	Wrap() Wrapper

	isRecord()
}

// Wrapper holds exactly one versioned record. The variant is the record's
// dynamic type, so the wrapper can never disagree with the record about
// its version. The zero Wrapper holds nothing and is invalid everywhere a
// record is expected.
type Wrapper struct {
	rec Record
}

// FromMetadata projects meta into the record shape of v and wraps it.
func FromMetadata(meta models.LinkMetadata, v Version) (Wrapper, error) {
	switch v {
	case VersionLinkV02:
		return LinkV02FromMetadata(meta).Wrap(), nil
	case VersionSLSAProvenanceV01:
		return SLSAProvenanceV01FromMetadata(meta).Wrap(), nil
	case VersionSLSAProvenanceV02:
		return SLSAProvenanceV02FromMetadata(meta).Wrap(), nil
	}
	return Wrapper{}, errUnsupportedVersion(v.String())
}

// Decode auto-detects the schema version of data: versions are tried in
// declared order and the first whose schema matches wins. Undecodable
// input fails immediately as Malformed; input that matches no version
// fails as NoMatchingVersion.
func Decode(data []byte) (Wrapper, error) {
	tree, err := cjson.Deserialize(data)
	if err != nil {
		return Wrapper{}, err
	}
	for _, v := range Versions() {
		w, derr := DecodeTree(tree, v)
		if derr == nil {
			return w, nil
		}
		if !cjson.IsKind(derr, cjson.KindSchemaMismatch) {
			return Wrapper{}, derr
		}
	}
	return Wrapper{}, errNoMatchingVersion()
}

// DecodeAs decodes data strictly against the single schema version v.
func DecodeAs(data []byte, v Version) (Wrapper, error) {
	tree, err := cjson.Deserialize(data)
	if err != nil {
		return Wrapper{}, err
	}
	return DecodeTree(tree, v)
}

// DecodeTree decodes an already-parsed intermediate tree against v. The
// statement layer uses this to decode embedded predicates without
// re-parsing.
func DecodeTree(tree any, v Version) (Wrapper, error) {
	switch v {
	case VersionLinkV02:
		rec, err := decodeLinkV02(tree)
		if err != nil {
			return Wrapper{}, err
		}
		return rec.Wrap(), nil
	case VersionSLSAProvenanceV01:
		rec, err := decodeProvenanceV01(tree)
		if err != nil {
			return Wrapper{}, err
		}
		return rec.Wrap(), nil
	case VersionSLSAProvenanceV02:
		rec, err := decodeProvenanceV02(tree)
		if err != nil {
			return Wrapper{}, err
		}
		return rec.Wrap(), nil
	}
	return Wrapper{}, errUnsupportedVersion(v.String())
}

// IsZero reports whether the wrapper holds no record.
func (w Wrapper) IsZero() bool { return w.rec == nil }

// Version returns the wrapped record's schema identifier.
func (w Wrapper) Version() Version { return w.rec.Version() }

// Record returns the wrapped record.
func (w Wrapper) Record() Record { return w.rec }

// ToBytes returns the canonical encoding of the wrapped record.
func (w Wrapper) ToBytes() ([]byte, error) {
	if w.rec == nil {
		return nil, cjson.NewError(cjson.KindInternal, "PRED-WRAP-001", "empty predicate wrapper")
	}
	return w.rec.ToBytes()
}

// Metadata converts the wrapped record back into unified metadata.
func (w Wrapper) Metadata() models.LinkMetadata { return w.rec.Metadata() }

// MarshalJSON emits the wrapped record's plain JSON so enclosing documents
// (statements) can embed a wrapper field and canonicalize the whole tree in
// one outer pass.
func (w Wrapper) MarshalJSON() ([]byte, error) {
	if w.rec == nil {
		return nil, cjson.NewError(cjson.KindInternal, "PRED-WRAP-001", "empty predicate wrapper")
	}
	return json.Marshal(w.rec)
}

// LinkV02 unwraps the record if this is the Link v0.2 variant.
func (w Wrapper) LinkV02() (*LinkV02, bool) {
	rec, ok := w.rec.(*LinkV02)
	return rec, ok
}

// SLSAProvenanceV01 unwraps the record if this is the provenance v0.1 variant.
func (w Wrapper) SLSAProvenanceV01() (*SLSAProvenanceV01, bool) {
	rec, ok := w.rec.(*SLSAProvenanceV01)
	return rec, ok
}

// SLSAProvenanceV02 unwraps the record if this is the provenance v0.2 variant.
func (w Wrapper) SLSAProvenanceV02() (*SLSAProvenanceV02, bool) {
	rec, ok := w.rec.(*SLSAProvenanceV02)
	return rec, ok
}
