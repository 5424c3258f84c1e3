package predicate

import (
	"github.com/danbev/in-toto-rs/cjson"
	"github.com/danbev/in-toto-rs/models"
)

// SLSAProvenanceV01 is the SLSA provenance v0.1 predicate.
//
// Projection from LinkMetadata:
//
//	recipe.entryPoint  <- Name
//	recipe.arguments   <- Command (space-joined string)
//	recipe.environment <- Env
//	materials          <- Materials (sorted by path)
//	builder.id and recipe.type stay empty: link metadata does not capture
//	them. Products and byproducts are dropped.
type SLSAProvenanceV01 struct {
	Builder   ProvenanceBuilder      `json:"builder"`
	Recipe    ProvenanceRecipe       `json:"recipe"`
	Metadata  *ProvenanceMetadataV01 `json:"metadata"`
	Materials []ProvenanceMaterial   `json:"materials"`
}

// ProvenanceRecipe describes how the build ran under SLSA v0.1.
type ProvenanceRecipe struct {
	Type              string            `json:"type"`
	DefinedInMaterial *int64            `json:"definedInMaterial"`
	EntryPoint        string            `json:"entryPoint"`
	Arguments         *string           `json:"arguments"`
	Environment       map[string]string `json:"environment"`
}

// ProvenanceMetadataV01 carries build telemetry. Timestamps stay opaque
// strings so canonical bytes never depend on host time formatting.
type ProvenanceMetadataV01 struct {
	BuildInvocationID *string         `json:"buildInvocationId"`
	BuildStartedOn    *string         `json:"buildStartedOn"`
	BuildFinishedOn   *string         `json:"buildFinishedOn"`
	Completeness      CompletenessV01 `json:"completeness"`
	Reproducible      bool            `json:"reproducible"`
}

type CompletenessV01 struct {
	Arguments   bool `json:"arguments"`
	Environment bool `json:"environment"`
	Materials   bool `json:"materials"`
}

// SLSAProvenanceV01FromMetadata projects meta into the v0.1 shape.
func SLSAProvenanceV01FromMetadata(meta models.LinkMetadata) *SLSAProvenanceV01 {
	m := meta.Clone()
	return &SLSAProvenanceV01{
		Recipe: ProvenanceRecipe{
			EntryPoint:  m.Name,
			Arguments:   strPtr(m.Command.String()),
			Environment: m.Env,
		},
		Materials: materialsFromArtifacts(m.Materials),
	}
}

func (r *SLSAProvenanceV01) Version() Version { return VersionSLSAProvenanceV01 }

// ToBytes returns the canonical encoding of the record.
func (r *SLSAProvenanceV01) ToBytes() ([]byte, error) {
	return cjson.Marshal(r)
}

// Metadata converts the record back into unified metadata: the inverse of
// the projection, best-effort for materials.
func (r *SLSAProvenanceV01) Metadata() models.LinkMetadata {
	meta := models.LinkMetadata{
		Name:      r.Recipe.EntryPoint,
		Materials: artifactsFromMaterials(r.Materials),
		Products:  map[models.VirtualTargetPath]models.TargetDescription{},
		Env:       cloneStringMap(r.Recipe.Environment),
	}
	if r.Recipe.Arguments != nil {
		meta.Command = models.CommandFromString(*r.Recipe.Arguments)
	}
	return meta
}

// Wrap places the record into the closed wrapper.
func (r *SLSAProvenanceV01) Wrap() Wrapper { return Wrapper{rec: r} }

func (r *SLSAProvenanceV01) isRecord() {}

func decodeProvenanceV01(tree any) (*SLSAProvenanceV01, error) {
	o, err := cjson.AsObj(tree, "")
	if err != nil {
		return nil, err
	}
	var rec SLSAProvenanceV01
	if rec.Builder, err = decodeBuilder(o); err != nil {
		return nil, err
	}
	if rec.Recipe, err = decodeRecipe(o); err != nil {
		return nil, err
	}
	meta, ok, err := o.OptionalChild("metadata")
	if err != nil {
		return nil, err
	}
	if ok {
		md, err := decodeProvenanceMetadataV01(meta)
		if err != nil {
			return nil, err
		}
		rec.Metadata = md
	}
	if rec.Materials, err = decodeMaterials(o); err != nil {
		return nil, err
	}
	if err := o.Finish(); err != nil {
		return nil, err
	}
	return &rec, nil
}

func decodeRecipe(o *cjson.Obj) (ProvenanceRecipe, error) {
	child, err := o.Child("recipe")
	if err != nil {
		return ProvenanceRecipe{}, err
	}
	var rcp ProvenanceRecipe
	if rcp.Type, err = child.String("type"); err != nil {
		return ProvenanceRecipe{}, err
	}
	if dim, ok, err := child.OptionalInt("definedInMaterial"); err != nil {
		return ProvenanceRecipe{}, err
	} else if ok {
		rcp.DefinedInMaterial = &dim
	}
	if rcp.EntryPoint, err = child.String("entryPoint"); err != nil {
		return ProvenanceRecipe{}, err
	}
	if args, ok, err := child.OptionalString("arguments"); err != nil {
		return ProvenanceRecipe{}, err
	} else if ok {
		rcp.Arguments = &args
	}
	if env, ok, err := child.OptionalStringMap("environment"); err != nil {
		return ProvenanceRecipe{}, err
	} else if ok {
		rcp.Environment = env
	}
	if err := child.Finish(); err != nil {
		return ProvenanceRecipe{}, err
	}
	return rcp, nil
}

func decodeProvenanceMetadataV01(o *cjson.Obj) (*ProvenanceMetadataV01, error) {
	var md ProvenanceMetadataV01
	if v, ok, err := o.OptionalString("buildInvocationId"); err != nil {
		return nil, err
	} else if ok {
		md.BuildInvocationID = &v
	}
	if v, ok, err := o.OptionalString("buildStartedOn"); err != nil {
		return nil, err
	} else if ok {
		md.BuildStartedOn = &v
	}
	if v, ok, err := o.OptionalString("buildFinishedOn"); err != nil {
		return nil, err
	} else if ok {
		md.BuildFinishedOn = &v
	}
	comp, err := o.Child("completeness")
	if err != nil {
		return nil, err
	}
	if md.Completeness.Arguments, err = comp.Bool("arguments"); err != nil {
		return nil, err
	}
	if md.Completeness.Environment, err = comp.Bool("environment"); err != nil {
		return nil, err
	}
	if md.Completeness.Materials, err = comp.Bool("materials"); err != nil {
		return nil, err
	}
	if err := comp.Finish(); err != nil {
		return nil, err
	}
	if md.Reproducible, err = o.Bool("reproducible"); err != nil {
		return nil, err
	}
	if err := o.Finish(); err != nil {
		return nil, err
	}
	return &md, nil
}
