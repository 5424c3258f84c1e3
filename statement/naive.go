package statement

import (
	"fmt"

	"github.com/danbev/in-toto-rs/cjson"
	"github.com/danbev/in-toto-rs/models"
)

// NaiveStatement is the classic signable link document: the full-fidelity
// link record plus its type tag. Unlike the versioned predicates it keeps
// every field, products included.
type NaiveStatement struct {
	Type string `json:"_type"`
	models.Link
}

// NaiveFromMetadata snapshots meta into a naive link statement.
func NaiveFromMetadata(meta models.LinkMetadata) *NaiveStatement {
	return &NaiveStatement{
		Type: TypeNaiveLink,
		Link: models.LinkFromMetadata(meta),
	}
}

func (s *NaiveStatement) Version() Version { return VersionNaiveV1 }

// ToBytes returns the canonical encoding of the statement.
func (s *NaiveStatement) ToBytes() ([]byte, error) {
	return cjson.Marshal(s)
}

// Metadata converts the statement back into unified metadata, losslessly.
func (s *NaiveStatement) Metadata() models.LinkMetadata {
	return s.Link.Metadata()
}

// Wrap places the statement into the closed wrapper.
func (s *NaiveStatement) Wrap() Wrapper { return Wrapper{st: s} }

func (s *NaiveStatement) isStatement() {}

func decodeNaive(tree any) (*NaiveStatement, error) {
	o, err := cjson.AsObj(tree, "")
	if err != nil {
		return nil, err
	}
	tag, err := o.String("_type")
	if err != nil {
		return nil, err
	}
	if tag != TypeNaiveLink {
		return nil, cjson.NewError(cjson.KindSchemaMismatch, "STMT-SCHEMA-101",
			fmt.Sprintf("_type %q is not %q", tag, TypeNaiveLink))
	}
	link, err := models.DecodeLinkFields(o)
	if err != nil {
		return nil, err
	}
	if err := o.Finish(); err != nil {
		return nil, err
	}
	return &NaiveStatement{Type: tag, Link: link}, nil
}
