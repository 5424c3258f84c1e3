package predicate

import (
	"github.com/danbev/in-toto-rs/cjson"
	"github.com/danbev/in-toto-rs/models"
)

// LinkV02 is the in-toto Link v0.2 predicate: the original link record
// minus products.
//
// Projection from LinkMetadata:
//
//	name       <- Name
//	materials  <- Materials
//	env        <- Env (nil stays nil, encoded as null)
//	command    <- Command (space-joined string)
//	byproducts <- ByProducts
//	Products are dropped; this version predates them.
type LinkV02 struct {
	Name       string                                                `json:"name"`
	Materials  map[models.VirtualTargetPath]models.TargetDescription `json:"materials"`
	Env        map[string]string                                     `json:"env"`
	Command    string                                                `json:"command"`
	ByProducts models.ByProducts                                     `json:"byproducts"`
}

// LinkV02FromMetadata projects meta into the v0.2 shape. The projection is
// total: it never fails, and it clones everything it keeps.
func LinkV02FromMetadata(meta models.LinkMetadata) *LinkV02 {
	m := meta.Clone()
	rec := &LinkV02{
		Name:       m.Name,
		Materials:  m.Materials,
		Env:        m.Env,
		Command:    m.Command.String(),
		ByProducts: m.ByProducts,
	}
	if rec.Materials == nil {
		rec.Materials = map[models.VirtualTargetPath]models.TargetDescription{}
	}
	return rec
}

func (r *LinkV02) Version() Version { return VersionLinkV02 }

// ToBytes returns the canonical encoding of the record.
func (r *LinkV02) ToBytes() ([]byte, error) {
	return cjson.Marshal(r)
}

// Metadata converts the record back into unified metadata. Products come
// back empty; the schema never carried them.
func (r *LinkV02) Metadata() models.LinkMetadata {
	meta := models.LinkMetadata{
		Name:       r.Name,
		Materials:  models.CloneArtifacts(r.Materials),
		Products:   map[models.VirtualTargetPath]models.TargetDescription{},
		Command:    models.CommandFromString(r.Command),
		ByProducts: r.ByProducts,
	}
	if meta.Materials == nil {
		meta.Materials = map[models.VirtualTargetPath]models.TargetDescription{}
	}
	if r.Env != nil {
		meta.Env = make(map[string]string, len(r.Env))
		for k, v := range r.Env {
			meta.Env[k] = v
		}
	}
	return meta
}

// Wrap places the record into the closed wrapper.
func (r *LinkV02) Wrap() Wrapper { return Wrapper{rec: r} }

func (r *LinkV02) isRecord() {}

func decodeLinkV02(tree any) (*LinkV02, error) {
	o, err := cjson.AsObj(tree, "")
	if err != nil {
		return nil, err
	}
	var rec LinkV02
	if rec.Name, err = o.String("name"); err != nil {
		return nil, err
	}
	if rec.Materials, err = models.DecodeArtifacts(o, "materials"); err != nil {
		return nil, err
	}
	env, ok, err := o.OptionalStringMap("env")
	if err != nil {
		return nil, err
	}
	if ok {
		rec.Env = env
	}
	if rec.Command, err = o.String("command"); err != nil {
		return nil, err
	}
	if rec.ByProducts, err = models.DecodeByProducts(o, "byproducts"); err != nil {
		return nil, err
	}
	if err := o.Finish(); err != nil {
		return nil, err
	}
	return &rec, nil
}
