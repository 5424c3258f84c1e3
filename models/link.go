package models

import "github.com/danbev/in-toto-rs/cjson"

// Link is the full-fidelity wire record of a step: unlike the versioned
// predicate projections it preserves every LinkMetadata field, products
// included. The naive link statement serializes exactly this shape plus
// its type tag.
type Link struct {
	Name       string                                  `json:"name"`
	Materials  map[VirtualTargetPath]TargetDescription `json:"materials"`
	Products   map[VirtualTargetPath]TargetDescription `json:"products"`
	Env        map[string]string                       `json:"env"`
	Command    string                                  `json:"command"`
	ByProducts ByProducts                              `json:"byproducts"`
}

// LinkFromMetadata snapshots meta into the wire shape.
func LinkFromMetadata(meta LinkMetadata) Link {
	m := meta.Clone()
	l := Link{
		Name:       m.Name,
		Materials:  m.Materials,
		Products:   m.Products,
		Env:        m.Env,
		Command:    m.Command.String(),
		ByProducts: m.ByProducts,
	}
	if l.Materials == nil {
		l.Materials = map[VirtualTargetPath]TargetDescription{}
	}
	if l.Products == nil {
		l.Products = map[VirtualTargetPath]TargetDescription{}
	}
	return l
}

// Metadata converts the wire record back into unified metadata.
func (l Link) Metadata() LinkMetadata {
	meta := LinkMetadata{
		Name:       l.Name,
		Materials:  CloneArtifacts(l.Materials),
		Products:   CloneArtifacts(l.Products),
		Command:    CommandFromString(l.Command),
		ByProducts: l.ByProducts,
	}
	if l.Env != nil {
		meta.Env = make(map[string]string, len(l.Env))
		for k, v := range l.Env {
			meta.Env[k] = v
		}
	}
	return meta
}

// ToBytes returns the canonical encoding of the bare link record.
func (l Link) ToBytes() ([]byte, error) {
	return cjson.Marshal(l)
}

// DecodeLinkFields extracts the link fields from o. The caller owns any
// additional fields (such as a statement type tag) and the trailing
// Finish call.
func DecodeLinkFields(o *cjson.Obj) (Link, error) {
	var l Link
	var err error
	if l.Name, err = o.String("name"); err != nil {
		return Link{}, err
	}
	if l.Materials, err = DecodeArtifacts(o, "materials"); err != nil {
		return Link{}, err
	}
	if l.Products, err = DecodeArtifacts(o, "products"); err != nil {
		return Link{}, err
	}
	env, ok, err := o.OptionalStringMap("env")
	if err != nil {
		return Link{}, err
	}
	if ok {
		l.Env = env
	}
	if l.Command, err = o.String("command"); err != nil {
		return Link{}, err
	}
	if l.ByProducts, err = DecodeByProducts(o, "byproducts"); err != nil {
		return Link{}, err
	}
	return l, nil
}
