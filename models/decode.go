package models

import "github.com/danbev/in-toto-rs/cjson"

// Tree decoders shared by every record schema that carries artifact maps
// or byproducts. Validation failures surface as schema mismatches so that
// record decoding stays fail-closed.

// DecodeArtifacts takes the required field key as an artifact map:
// path -> algorithm -> digest.
func DecodeArtifacts(o *cjson.Obj, key string) (map[VirtualTargetPath]TargetDescription, error) {
	child, err := o.Child(key)
	if err != nil {
		return nil, err
	}
	return decodeArtifactObj(child)
}

// DecodeOptionalArtifacts is DecodeArtifacts for an absent-or-null field.
func DecodeOptionalArtifacts(o *cjson.Obj, key string) (map[VirtualTargetPath]TargetDescription, bool, error) {
	child, ok, err := o.OptionalChild(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := decodeArtifactObj(child)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func decodeArtifactObj(child *cjson.Obj) (map[VirtualTargetPath]TargetDescription, error) {
	out := make(map[VirtualTargetPath]TargetDescription, len(child.Keys()))
	for _, raw := range child.Keys() {
		path, err := NewVirtualTargetPath(raw)
		if err != nil {
			return nil, schemaMismatch(err)
		}
		digests, err := child.StringMap(raw)
		if err != nil {
			return nil, err
		}
		td, err := NewTargetDescription(digests)
		if err != nil {
			return nil, schemaMismatch(err)
		}
		out[path] = td
	}
	return out, nil
}

// DecodeByProducts takes the required field key as a byproducts record.
func DecodeByProducts(o *cjson.Obj, key string) (ByProducts, error) {
	child, err := o.Child(key)
	if err != nil {
		return ByProducts{}, err
	}
	var bp ByProducts
	if bp.ReturnValue, err = child.Int("return-value"); err != nil {
		return ByProducts{}, err
	}
	if bp.Stderr, err = child.String("stderr"); err != nil {
		return ByProducts{}, err
	}
	if bp.Stdout, err = child.String("stdout"); err != nil {
		return ByProducts{}, err
	}
	if err := child.Finish(); err != nil {
		return ByProducts{}, err
	}
	return bp, nil
}

func schemaMismatch(cause error) error {
	return cjson.WrapError(cjson.KindSchemaMismatch, "CJSON-SCHEMA-103", cause.Error(), cause)
}
