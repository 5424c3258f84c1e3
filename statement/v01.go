package statement

import (
	"fmt"

	"github.com/danbev/in-toto-rs/cjson"
	"github.com/danbev/in-toto-rs/models"
	"github.com/danbev/in-toto-rs/predicate"
)

// StatementV01 is the in-toto Statement v0.1: subjects bound to a
// versioned predicate.
type StatementV01 struct {
	Type          string            `json:"_type"`
	Subject       []Subject         `json:"subject"`
	PredicateType string            `json:"predicateType"`
	Predicate     predicate.Wrapper `json:"predicate"`
}

// Subject names one artifact the statement speaks about.
type Subject struct {
	Name   string                      `json:"name"`
	Digest map[string]models.HashValue `json:"digest"`
}

// V01FromMetadata builds a Statement v0.1: the subjects are the step's
// products (sorted by path) and the predicate is meta projected to
// predVersion.
func V01FromMetadata(meta models.LinkMetadata, predVersion predicate.Version) (*StatementV01, error) {
	w, err := predicate.FromMetadata(meta, predVersion)
	if err != nil {
		return nil, err
	}
	subjects := make([]Subject, 0, len(meta.Products))
	for _, p := range models.SortedPaths(meta.Products) {
		td := meta.Products[p].Clone()
		subjects = append(subjects, Subject{Name: p.String(), Digest: map[string]models.HashValue(td)})
	}
	return &StatementV01{
		Type:          TypeStatementV01,
		Subject:       subjects,
		PredicateType: predVersion.String(),
		Predicate:     w,
	}, nil
}

func (s *StatementV01) Version() Version { return VersionV01 }

// ToBytes returns the canonical encoding of the statement.
func (s *StatementV01) ToBytes() ([]byte, error) {
	return cjson.Marshal(s)
}

// Metadata converts the embedded predicate back into unified metadata.
// Subjects do not restore products; the predicate alone decides what
// survives.
func (s *StatementV01) Metadata() models.LinkMetadata {
	return s.Predicate.Metadata()
}

// Wrap places the statement into the closed wrapper.
func (s *StatementV01) Wrap() Wrapper { return Wrapper{st: s} }

func (s *StatementV01) isStatement() {}

func decodeV01(tree any) (*StatementV01, error) {
	o, err := cjson.AsObj(tree, "")
	if err != nil {
		return nil, err
	}
	tag, err := o.String("_type")
	if err != nil {
		return nil, err
	}
	if tag != TypeStatementV01 {
		return nil, cjson.NewError(cjson.KindSchemaMismatch, "STMT-SCHEMA-102",
			fmt.Sprintf("_type %q is not %q", tag, TypeStatementV01))
	}
	subjects, err := decodeSubjects(o)
	if err != nil {
		return nil, err
	}
	predType, err := o.String("predicateType")
	if err != nil {
		return nil, err
	}
	// An unknown predicate type is recognized-but-unsupported, not a
	// schema mismatch: auto-detection must surface it instead of falling
	// through to the next statement version.
	predVersion, err := predicate.ParseVersion(predType)
	if err != nil {
		return nil, err
	}
	predTree, err := o.Value("predicate")
	if err != nil {
		return nil, err
	}
	w, err := predicate.DecodeTree(predTree, predVersion)
	if err != nil {
		return nil, err
	}
	if err := o.Finish(); err != nil {
		return nil, err
	}
	return &StatementV01{
		Type:          tag,
		Subject:       subjects,
		PredicateType: predType,
		Predicate:     w,
	}, nil
}

func decodeSubjects(o *cjson.Obj) ([]Subject, error) {
	arr, err := o.Array("subject")
	if err != nil {
		return nil, err
	}
	out := make([]Subject, 0, len(arr))
	for i, elem := range arr {
		so, err := cjson.AsObj(elem, fmt.Sprintf("subject[%d]", i))
		if err != nil {
			return nil, err
		}
		var sub Subject
		if sub.Name, err = so.String("name"); err != nil {
			return nil, err
		}
		digests, err := so.StringMap("digest")
		if err != nil {
			return nil, err
		}
		if len(digests) == 0 {
			return nil, cjson.NewError(cjson.KindSchemaMismatch, "STMT-SCHEMA-103",
				fmt.Sprintf("subject[%d] carries no digest", i))
		}
		sub.Digest = make(map[string]models.HashValue, len(digests))
		for alg, dig := range digests {
			h, herr := models.NewHashValue(dig)
			if herr != nil {
				return nil, cjson.WrapError(cjson.KindSchemaMismatch, "CJSON-SCHEMA-103", herr.Error(), herr)
			}
			sub.Digest[alg] = h
		}
		if err := so.Finish(); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}
