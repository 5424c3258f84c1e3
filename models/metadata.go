package models

// LinkMetadata is the unified, version-agnostic record of one executed
// step. The execution engine constructs and owns it; the predicate layer
// only reads or clones it when projecting a versioned record.
//
// Env is nil when the environment was not captured; an empty non-nil map
// means captured-and-empty. The two states are preserved across encoding.
type LinkMetadata struct {
	Name       string
	Materials  map[VirtualTargetPath]TargetDescription
	Products   map[VirtualTargetPath]TargetDescription
	Env        map[string]string
	Command    Command
	ByProducts ByProducts
}

// Clone deep-copies the record.
func (m LinkMetadata) Clone() LinkMetadata {
	out := LinkMetadata{
		Name:       m.Name,
		Materials:  CloneArtifacts(m.Materials),
		Products:   CloneArtifacts(m.Products),
		Command:    m.Command.Clone(),
		ByProducts: m.ByProducts,
	}
	if m.Env != nil {
		out.Env = make(map[string]string, len(m.Env))
		for k, v := range m.Env {
			out.Env[k] = v
		}
	}
	return out
}

// LinkMetadataBuilder assembles a LinkMetadata field by field.
type LinkMetadataBuilder struct {
	meta LinkMetadata
}

// NewLinkMetadataBuilder starts a builder for the named step.
func NewLinkMetadataBuilder(name string) *LinkMetadataBuilder {
	return &LinkMetadataBuilder{meta: LinkMetadata{
		Name:      name,
		Materials: map[VirtualTargetPath]TargetDescription{},
		Products:  map[VirtualTargetPath]TargetDescription{},
	}}
}

func (b *LinkMetadataBuilder) Name(name string) *LinkMetadataBuilder {
	b.meta.Name = name
	return b
}

func (b *LinkMetadataBuilder) Materials(m map[VirtualTargetPath]TargetDescription) *LinkMetadataBuilder {
	b.meta.Materials = CloneArtifacts(m)
	return b
}

func (b *LinkMetadataBuilder) AddMaterial(p VirtualTargetPath, td TargetDescription) *LinkMetadataBuilder {
	b.meta.Materials[p] = td.Clone()
	return b
}

func (b *LinkMetadataBuilder) Products(m map[VirtualTargetPath]TargetDescription) *LinkMetadataBuilder {
	b.meta.Products = CloneArtifacts(m)
	return b
}

func (b *LinkMetadataBuilder) AddProduct(p VirtualTargetPath, td TargetDescription) *LinkMetadataBuilder {
	b.meta.Products[p] = td.Clone()
	return b
}

func (b *LinkMetadataBuilder) Env(env map[string]string) *LinkMetadataBuilder {
	if env == nil {
		b.meta.Env = nil
		return b
	}
	b.meta.Env = make(map[string]string, len(env))
	for k, v := range env {
		b.meta.Env[k] = v
	}
	return b
}

func (b *LinkMetadataBuilder) Command(c Command) *LinkMetadataBuilder {
	b.meta.Command = c.Clone()
	return b
}

func (b *LinkMetadataBuilder) ByProducts(bp ByProducts) *LinkMetadataBuilder {
	b.meta.ByProducts = bp
	return b
}

// Build returns the assembled record. The builder may keep being used;
// the result is an independent copy.
func (b *LinkMetadataBuilder) Build() LinkMetadata {
	return b.meta.Clone()
}
