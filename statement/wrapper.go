package statement

import (
	"github.com/danbev/in-toto-rs/cjson"
	"github.com/danbev/in-toto-rs/models"
)

// Statement is the closed interface over statement documents. The
// unexported method seals the set to the types in this package.
type Statement interface {
	Version() Version
	ToBytes() ([]byte, error)
	Metadata() models.LinkMetadata
	Wrap() Wrapper

	isStatement()
}

// Wrapper holds exactly one statement document; the variant is the
// document's dynamic type. The zero Wrapper holds nothing and is invalid.
type Wrapper struct {
	st Statement
}

// Decode auto-detects the statement version of data: versions are tried in
// declared order and the first whose schema matches wins.
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

// DecodeAs decodes data strictly against the single statement version v.
func DecodeAs(data []byte, v Version) (Wrapper, error) {
	tree, err := cjson.Deserialize(data)
	if err != nil {
		return Wrapper{}, err
	}
	return DecodeTree(tree, v)
}

// DecodeTree decodes an already-parsed intermediate tree against v.
func DecodeTree(tree any, v Version) (Wrapper, error) {
	switch v {
	case VersionNaiveV1:
		st, err := decodeNaive(tree)
		if err != nil {
			return Wrapper{}, err
		}
		return st.Wrap(), nil
	case VersionV01:
		st, err := decodeV01(tree)
		if err != nil {
			return Wrapper{}, err
		}
		return st.Wrap(), nil
	}
	return Wrapper{}, errUnsupportedVersion(v.String())
}

// IsZero reports whether the wrapper holds no statement.
func (w Wrapper) IsZero() bool { return w.st == nil }

// Version returns the wrapped statement's version.
func (w Wrapper) Version() Version { return w.st.Version() }

// Statement returns the wrapped document.
func (w Wrapper) Statement() Statement { return w.st }

// ToBytes returns the canonical encoding of the wrapped statement.
func (w Wrapper) ToBytes() ([]byte, error) {
	if w.st == nil {
		return nil, cjson.NewError(cjson.KindInternal, "STMT-WRAP-001", "empty statement wrapper")
	}
	return w.st.ToBytes()
}

// Metadata converts the wrapped statement back into unified metadata.
func (w Wrapper) Metadata() models.LinkMetadata { return w.st.Metadata() }

// Naive unwraps the document if this is the naive link variant.
func (w Wrapper) Naive() (*NaiveStatement, bool) {
	st, ok := w.st.(*NaiveStatement)
	return st, ok
}

// V01 unwraps the document if this is the Statement v0.1 variant.
func (w Wrapper) V01() (*StatementV01, bool) {
	st, ok := w.st.(*StatementV01)
	return st, ok
}
