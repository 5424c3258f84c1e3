package layout

import (
	"fmt"

	"github.com/danbev/in-toto-rs/cjson"
)

// Decode parses layout bytes fail-closed and validates the result. Unknown
// fields anywhere in the document are rejected.
func Decode(data []byte) (*Layout, error) {
	tree, err := cjson.Deserialize(data)
	if err != nil {
		return nil, err
	}
	o, err := cjson.AsObj(tree, "")
	if err != nil {
		return nil, err
	}

	l := &Layout{}
	if l.Type, err = o.String("_type"); err != nil {
		return nil, err
	}
	if l.Expires, err = o.String("expires"); err != nil {
		return nil, err
	}
	if l.Readme, err = o.String("readme"); err != nil {
		return nil, err
	}
	if l.Keys, err = o.StringMap("keys"); err != nil {
		return nil, err
	}

	rawSteps, err := o.Array("steps")
	if err != nil {
		return nil, err
	}
	l.Steps = make([]Step, 0, len(rawSteps))
	for i, el := range rawSteps {
		s, err := decodeStep(el, fmt.Sprintf("steps[%d]", i))
		if err != nil {
			return nil, err
		}
		l.Steps = append(l.Steps, s)
	}

	rawInspect, err := o.Array("inspect")
	if err != nil {
		return nil, err
	}
	l.Inspect = make([]Inspection, 0, len(rawInspect))
	for i, el := range rawInspect {
		insp, err := decodeInspection(el, fmt.Sprintf("inspect[%d]", i))
		if err != nil {
			return nil, err
		}
		l.Inspect = append(l.Inspect, insp)
	}

	if err := o.Finish(); err != nil {
		return nil, err
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func decodeStep(v any, path string) (Step, error) {
	o, err := cjson.AsObj(v, path)
	if err != nil {
		return Step{}, err
	}
	s := Step{}
	if s.Type, err = o.String("_type"); err != nil {
		return Step{}, err
	}
	if s.Name, err = o.String("name"); err != nil {
		return Step{}, err
	}
	if s.ExpectedMaterials, err = decodeRules(o, "expected_materials", path); err != nil {
		return Step{}, err
	}
	if s.ExpectedProducts, err = decodeRules(o, "expected_products", path); err != nil {
		return Step{}, err
	}
	if s.ExpectedCommand, err = o.String("expected_command"); err != nil {
		return Step{}, err
	}
	if s.PubKeys, err = decodeStringArray(o, "pubkeys", path); err != nil {
		return Step{}, err
	}
	if s.Threshold, err = o.Int("threshold"); err != nil {
		return Step{}, err
	}
	if err := o.Finish(); err != nil {
		return Step{}, err
	}
	return s, nil
}

func decodeInspection(v any, path string) (Inspection, error) {
	o, err := cjson.AsObj(v, path)
	if err != nil {
		return Inspection{}, err
	}
	insp := Inspection{}
	if insp.Type, err = o.String("_type"); err != nil {
		return Inspection{}, err
	}
	if insp.Name, err = o.String("name"); err != nil {
		return Inspection{}, err
	}
	if insp.Run, err = o.String("run"); err != nil {
		return Inspection{}, err
	}
	if insp.ExpectedMaterials, err = decodeRules(o, "expected_materials", path); err != nil {
		return Inspection{}, err
	}
	if insp.ExpectedProducts, err = decodeRules(o, "expected_products", path); err != nil {
		return Inspection{}, err
	}
	if err := o.Finish(); err != nil {
		return Inspection{}, err
	}
	return insp, nil
}

func decodeRules(o *cjson.Obj, key, path string) ([]ArtifactRule, error) {
	raw, err := o.Array(key)
	if err != nil {
		return nil, err
	}
	rules := make([]ArtifactRule, 0, len(raw))
	for i, el := range raw {
		s, ok := el.(string)
		if !ok {
			return nil, cjson.NewError(cjson.KindSchemaMismatch, "CJSON-SCHEMA-103",
				fmt.Sprintf("%s.%s[%d] is not a string", path, key, i))
		}
		r, err := ParseRule(s)
		if err != nil {
			return nil, cjson.WrapError(cjson.KindSchemaMismatch, "LAY-SCHEMA-110",
				fmt.Sprintf("%s.%s[%d]: invalid artifact rule", path, key, i), err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func decodeStringArray(o *cjson.Obj, key, path string) ([]string, error) {
	raw, err := o.Array(key)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw))
	for i, el := range raw {
		s, ok := el.(string)
		if !ok {
			return nil, cjson.NewError(cjson.KindSchemaMismatch, "CJSON-SCHEMA-103",
				fmt.Sprintf("%s.%s[%d] is not a string", path, key, i))
		}
		out = append(out, s)
	}
	return out, nil
}
