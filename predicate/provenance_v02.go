package predicate

import (
	"github.com/danbev/in-toto-rs/cjson"
	"github.com/danbev/in-toto-rs/models"
)

// SLSAProvenanceV02 is the SLSA provenance v0.2 predicate.
//
// Projection from LinkMetadata:
//
//	invocation.configSource.entryPoint <- Name
//	invocation.parameters              <- Command (space-joined string)
//	invocation.environment             <- Env
//	materials                          <- Materials (sorted by path)
//	builder.id, buildType, and configSource uri/digest stay empty: link
//	metadata does not capture them. Products and byproducts are dropped.
type SLSAProvenanceV02 struct {
	Builder     ProvenanceBuilder      `json:"builder"`
	BuildType   string                 `json:"buildType"`
	Invocation  ProvenanceInvocation   `json:"invocation"`
	BuildConfig map[string]string      `json:"buildConfig"`
	Metadata    *ProvenanceMetadataV02 `json:"metadata"`
	Materials   []ProvenanceMaterial   `json:"materials"`
}

// ProvenanceInvocation describes how the build ran under SLSA v0.2.
type ProvenanceInvocation struct {
	ConfigSource ProvenanceConfigSource `json:"configSource"`
	Parameters   *string                `json:"parameters"`
	Environment  map[string]string      `json:"environment"`
}

// ProvenanceConfigSource points at the build definition.
type ProvenanceConfigSource struct {
	URI        string                      `json:"uri"`
	Digest     map[string]models.HashValue `json:"digest"`
	EntryPoint string                      `json:"entryPoint"`
}

// ProvenanceMetadataV02 mirrors ProvenanceMetadataV01 with the v0.2
// completeness field names.
type ProvenanceMetadataV02 struct {
	BuildInvocationID *string         `json:"buildInvocationId"`
	BuildStartedOn    *string         `json:"buildStartedOn"`
	BuildFinishedOn   *string         `json:"buildFinishedOn"`
	Completeness      CompletenessV02 `json:"completeness"`
	Reproducible      bool            `json:"reproducible"`
}

type CompletenessV02 struct {
	Parameters  bool `json:"parameters"`
	Environment bool `json:"environment"`
	Materials   bool `json:"materials"`
}

// SLSAProvenanceV02FromMetadata projects meta into the v0.2 shape.
func SLSAProvenanceV02FromMetadata(meta models.LinkMetadata) *SLSAProvenanceV02 {
	m := meta.Clone()
	return &SLSAProvenanceV02{
		Invocation: ProvenanceInvocation{
			ConfigSource: ProvenanceConfigSource{
				Digest:     map[string]models.HashValue{},
				EntryPoint: m.Name,
			},
			Parameters:  strPtr(m.Command.String()),
			Environment: m.Env,
		},
		Materials: materialsFromArtifacts(m.Materials),
	}
}

func (r *SLSAProvenanceV02) Version() Version { return VersionSLSAProvenanceV02 }

// ToBytes returns the canonical encoding of the record.
func (r *SLSAProvenanceV02) ToBytes() ([]byte, error) {
	return cjson.Marshal(r)
}

// Metadata converts the record back into unified metadata: the inverse of
// the projection, best-effort for materials.
func (r *SLSAProvenanceV02) Metadata() models.LinkMetadata {
	meta := models.LinkMetadata{
		Name:      r.Invocation.ConfigSource.EntryPoint,
		Materials: artifactsFromMaterials(r.Materials),
		Products:  map[models.VirtualTargetPath]models.TargetDescription{},
		Env:       cloneStringMap(r.Invocation.Environment),
	}
	if r.Invocation.Parameters != nil {
		meta.Command = models.CommandFromString(*r.Invocation.Parameters)
	}
	return meta
}

// Wrap places the record into the closed wrapper.
func (r *SLSAProvenanceV02) Wrap() Wrapper { return Wrapper{rec: r} }

func (r *SLSAProvenanceV02) isRecord() {}

func decodeProvenanceV02(tree any) (*SLSAProvenanceV02, error) {
	o, err := cjson.AsObj(tree, "")
	if err != nil {
		return nil, err
	}
	var rec SLSAProvenanceV02
	if rec.Builder, err = decodeBuilder(o); err != nil {
		return nil, err
	}
	if rec.BuildType, err = o.String("buildType"); err != nil {
		return nil, err
	}
	if rec.Invocation, err = decodeInvocation(o); err != nil {
		return nil, err
	}
	if cfg, ok, err := o.OptionalStringMap("buildConfig"); err != nil {
		return nil, err
	} else if ok {
		rec.BuildConfig = cfg
	}
	meta, ok, err := o.OptionalChild("metadata")
	if err != nil {
		return nil, err
	}
	if ok {
		md, err := decodeProvenanceMetadataV02(meta)
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

func decodeInvocation(o *cjson.Obj) (ProvenanceInvocation, error) {
	child, err := o.Child("invocation")
	if err != nil {
		return ProvenanceInvocation{}, err
	}
	var inv ProvenanceInvocation
	cs, err := child.Child("configSource")
	if err != nil {
		return ProvenanceInvocation{}, err
	}
	if inv.ConfigSource.URI, err = cs.String("uri"); err != nil {
		return ProvenanceInvocation{}, err
	}
	if inv.ConfigSource.Digest, err = decodeDigestMap(cs, "digest"); err != nil {
		return ProvenanceInvocation{}, err
	}
	if inv.ConfigSource.EntryPoint, err = cs.String("entryPoint"); err != nil {
		return ProvenanceInvocation{}, err
	}
	if err := cs.Finish(); err != nil {
		return ProvenanceInvocation{}, err
	}
	if params, ok, err := child.OptionalString("parameters"); err != nil {
		return ProvenanceInvocation{}, err
	} else if ok {
		inv.Parameters = &params
	}
	if env, ok, err := child.OptionalStringMap("environment"); err != nil {
		return ProvenanceInvocation{}, err
	} else if ok {
		inv.Environment = env
	}
	if err := child.Finish(); err != nil {
		return ProvenanceInvocation{}, err
	}
	return inv, nil
}

func decodeProvenanceMetadataV02(o *cjson.Obj) (*ProvenanceMetadataV02, error) {
	var md ProvenanceMetadataV02
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
	if md.Completeness.Parameters, err = comp.Bool("parameters"); err != nil {
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
