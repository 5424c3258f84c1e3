package predicate

import (
	"fmt"

	"github.com/danbev/in-toto-rs/cjson"
	"github.com/danbev/in-toto-rs/models"
)

// Sub-records shared by the SLSA provenance schema versions.

// ProvenanceBuilder identifies the entity that produced the artifact.
type ProvenanceBuilder struct {
	ID string `json:"id"`
}

// ProvenanceMaterial is one resolved input of the build.
type ProvenanceMaterial struct {
	URI    string                      `json:"uri"`
	Digest map[string]models.HashValue `json:"digest"`
}

// materialsFromArtifacts projects an artifact map into the provenance
// materials list, sorted by path. The URI carries the artifact path
// verbatim; no scheme is invented.
func materialsFromArtifacts(m map[models.VirtualTargetPath]models.TargetDescription) []ProvenanceMaterial {
	out := make([]ProvenanceMaterial, 0, len(m))
	for _, p := range models.SortedPaths(m) {
		td := m[p].Clone()
		out = append(out, ProvenanceMaterial{URI: p.String(), Digest: map[string]models.HashValue(td)})
	}
	return out
}

// artifactsFromMaterials is the best-effort inverse: entries whose URI is
// not a plain artifact path are skipped.
func artifactsFromMaterials(mats []ProvenanceMaterial) map[models.VirtualTargetPath]models.TargetDescription {
	out := make(map[models.VirtualTargetPath]models.TargetDescription, len(mats))
	for _, mat := range mats {
		p, err := models.NewVirtualTargetPath(mat.URI)
		if err != nil {
			continue
		}
		if len(mat.Digest) == 0 {
			continue
		}
		td := make(models.TargetDescription, len(mat.Digest))
		for alg, dig := range mat.Digest {
			td[alg] = dig
		}
		out[p] = td
	}
	return out
}

func decodeBuilder(o *cjson.Obj) (ProvenanceBuilder, error) {
	child, err := o.Child("builder")
	if err != nil {
		return ProvenanceBuilder{}, err
	}
	var b ProvenanceBuilder
	if b.ID, err = child.String("id"); err != nil {
		return ProvenanceBuilder{}, err
	}
	if err := child.Finish(); err != nil {
		return ProvenanceBuilder{}, err
	}
	return b, nil
}

func decodeMaterials(o *cjson.Obj) ([]ProvenanceMaterial, error) {
	arr, err := o.Array("materials")
	if err != nil {
		return nil, err
	}
	out := make([]ProvenanceMaterial, 0, len(arr))
	for i, elem := range arr {
		eo, err := cjson.AsObj(elem, fmt.Sprintf("materials[%d]", i))
		if err != nil {
			return nil, err
		}
		var mat ProvenanceMaterial
		if mat.URI, err = eo.String("uri"); err != nil {
			return nil, err
		}
		digests, err := eo.StringMap("digest")
		if err != nil {
			return nil, err
		}
		mat.Digest = make(map[string]models.HashValue, len(digests))
		for alg, dig := range digests {
			h, herr := models.NewHashValue(dig)
			if herr != nil {
				return nil, cjson.WrapError(cjson.KindSchemaMismatch, "CJSON-SCHEMA-103", herr.Error(), herr)
			}
			mat.Digest[alg] = h
		}
		if err := eo.Finish(); err != nil {
			return nil, err
		}
		out = append(out, mat)
	}
	return out, nil
}

// decodeDigestMap reads an algorithm->digest object that, unlike a target
// description, may be empty.
func decodeDigestMap(o *cjson.Obj, key string) (map[string]models.HashValue, error) {
	raw, err := o.StringMap(key)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.HashValue, len(raw))
	for alg, dig := range raw {
		h, herr := models.NewHashValue(dig)
		if herr != nil {
			return nil, cjson.WrapError(cjson.KindSchemaMismatch, "CJSON-SCHEMA-103", herr.Error(), herr)
		}
		out[alg] = h
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
