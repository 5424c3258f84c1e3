// Package layout implements the supply chain layout document and its
// fail-closed verification: ordered steps with authorized functionary keys
// and signature thresholds, inspections, and the artifact rule language
// connecting the artifact flow between them.
//
// Layouts are wire documents like statements: canonical bytes come from
// cjson, decoding is allow-list strict, and verification is deterministic,
// producing the same verdict for the same evidence on every run.
package layout

import (
	"fmt"
	"sort"
	"time"

	"github.com/danbev/in-toto-rs/cjson"
	"github.com/danbev/in-toto-rs/keys"
)

// Document type tags.
const (
	TypeLayout     = "layout"
	TypeStep       = "step"
	TypeInspection = "inspection"
)

// Layout declares the expected shape of a supply chain: who may perform
// each step, what evidence thresholds apply, and how artifacts must flow.
type Layout struct {
	Type    string            `json:"_type"`
	Expires string            `json:"expires"`
	Readme  string            `json:"readme"`
	Keys    map[string]string `json:"keys"`
	Steps   []Step            `json:"steps"`
	Inspect []Inspection      `json:"inspect"`
}

// Step is one expected supply chain operation, performed by authorized
// functionaries and evidenced by signed links.
type Step struct {
	Type              string         `json:"_type"`
	Name              string         `json:"name"`
	ExpectedMaterials []ArtifactRule `json:"expected_materials"`
	ExpectedProducts  []ArtifactRule `json:"expected_products"`
	ExpectedCommand   string         `json:"expected_command"`
	PubKeys           []string       `json:"pubkeys"`
	Threshold         int64          `json:"threshold"`
}

// Inspection is a command the verifier itself runs, with rules over the
// artifacts it observes.
type Inspection struct {
	Type              string         `json:"_type"`
	Name              string         `json:"name"`
	Run               string         `json:"run"`
	ExpectedMaterials []ArtifactRule `json:"expected_materials"`
	ExpectedProducts  []ArtifactRule `json:"expected_products"`
}

// New returns an empty layout expiring at the given RFC 3339 instant.
func New(expires string) *Layout {
	return &Layout{
		Type:    TypeLayout,
		Expires: expires,
		Keys:    map[string]string{},
	}
}

// AddKey authorizes pk in the layout and returns its key ID.
func (l *Layout) AddKey(pk keys.PublicKey) (string, error) {
	keyID, err := pk.KeyID()
	if err != nil {
		return "", err
	}
	if l.Keys == nil {
		l.Keys = map[string]string{}
	}
	l.Keys[keyID] = pk.String()
	return keyID, nil
}

// ExpiresAt parses the expiry timestamp.
func (l *Layout) ExpiresAt() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, l.Expires)
	if err != nil {
		return time.Time{}, cjson.WrapError(cjson.KindSchemaMismatch, "LAY-SCHEMA-105",
			fmt.Sprintf("expires %q is not RFC 3339", l.Expires), err)
	}
	return t, nil
}

// Validate checks the layout's internal consistency: document tags, the
// expiry format, key encodings and key ID bindings, unique non-empty names,
// thresholds, pubkey references, and MATCH step references.
func (l *Layout) Validate() error {
	if l.Type != TypeLayout {
		return cjson.NewError(cjson.KindSchemaMismatch, "LAY-SCHEMA-101",
			fmt.Sprintf("_type %q is not %q", l.Type, TypeLayout))
	}
	if _, err := l.ExpiresAt(); err != nil {
		return err
	}

	for _, keyID := range sortedKeys(l.Keys) {
		pk, err := keys.ParsePublicKey(l.Keys[keyID])
		if err != nil {
			return cjson.WrapError(cjson.KindSchemaMismatch, "LAY-KEY-001",
				fmt.Sprintf("key %s does not parse", keyID), err)
		}
		computed, err := pk.KeyID()
		if err != nil {
			return err
		}
		if computed != keyID {
			return cjson.NewError(cjson.KindSchemaMismatch, "LAY-KEY-002",
				fmt.Sprintf("key ID %s does not match its key (computed %s)", keyID, computed))
		}
	}

	stepNames := make(map[string]struct{}, len(l.Steps))
	seen := make(map[string]struct{}, len(l.Steps)+len(l.Inspect))
	for i, s := range l.Steps {
		if s.Type != TypeStep {
			return cjson.NewError(cjson.KindSchemaMismatch, "LAY-SCHEMA-102",
				fmt.Sprintf("steps[%d]: _type %q is not %q", i, s.Type, TypeStep))
		}
		if s.Name == "" {
			return cjson.NewError(cjson.KindSchemaMismatch, "LAY-SCHEMA-106",
				fmt.Sprintf("steps[%d]: name must not be empty", i))
		}
		if _, dup := seen[s.Name]; dup {
			return cjson.NewError(cjson.KindSchemaMismatch, "LAY-SCHEMA-108",
				fmt.Sprintf("duplicate name %q", s.Name))
		}
		seen[s.Name] = struct{}{}
		stepNames[s.Name] = struct{}{}
		if s.Threshold < 1 {
			return cjson.NewError(cjson.KindSchemaMismatch, "LAY-SCHEMA-107",
				fmt.Sprintf("step %q: threshold must be at least 1", s.Name))
		}
		if len(s.PubKeys) == 0 {
			return cjson.NewError(cjson.KindSchemaMismatch, "LAY-KEY-003",
				fmt.Sprintf("step %q: no authorized keys", s.Name))
		}
		for _, keyID := range s.PubKeys {
			if _, ok := l.Keys[keyID]; !ok {
				return cjson.NewError(cjson.KindSchemaMismatch, "LAY-KEY-003",
					fmt.Sprintf("step %q: pubkey %s is not declared in keys", s.Name, keyID))
			}
		}
	}
	for i, insp := range l.Inspect {
		if insp.Type != TypeInspection {
			return cjson.NewError(cjson.KindSchemaMismatch, "LAY-SCHEMA-103",
				fmt.Sprintf("inspect[%d]: _type %q is not %q", i, insp.Type, TypeInspection))
		}
		if insp.Name == "" {
			return cjson.NewError(cjson.KindSchemaMismatch, "LAY-SCHEMA-106",
				fmt.Sprintf("inspect[%d]: name must not be empty", i))
		}
		if _, dup := seen[insp.Name]; dup {
			return cjson.NewError(cjson.KindSchemaMismatch, "LAY-SCHEMA-108",
				fmt.Sprintf("duplicate name %q", insp.Name))
		}
		seen[insp.Name] = struct{}{}
		if insp.Run == "" {
			return cjson.NewError(cjson.KindSchemaMismatch, "LAY-SCHEMA-109",
				fmt.Sprintf("inspection %q: run command must not be empty", insp.Name))
		}
	}

	for _, s := range l.Steps {
		if err := validateRuleRefs(s.Name, s.ExpectedMaterials, s.ExpectedProducts, stepNames); err != nil {
			return err
		}
	}
	for _, insp := range l.Inspect {
		if err := validateRuleRefs(insp.Name, insp.ExpectedMaterials, insp.ExpectedProducts, stepNames); err != nil {
			return err
		}
	}
	return nil
}

func validateRuleRefs(owner string, materials, products []ArtifactRule, stepNames map[string]struct{}) error {
	for _, rules := range [][]ArtifactRule{materials, products} {
		for _, r := range rules {
			if _, err := ParseRule(r.String()); err != nil {
				return cjson.WrapError(cjson.KindSchemaMismatch, "LAY-SCHEMA-110",
					fmt.Sprintf("%q: invalid artifact rule", owner), err)
			}
			if r.Kind == RuleMatch {
				if _, ok := stepNames[r.FromStep]; !ok {
					return cjson.NewError(cjson.KindSchemaMismatch, "LAY-RULE-010",
						fmt.Sprintf("%q: MATCH references unknown step %q", owner, r.FromStep))
				}
			}
		}
	}
	return nil
}

// ToBytes validates the layout and renders its canonical bytes. Pubkey
// lists are sorted; step, inspection, and rule order is semantic and kept.
func (l *Layout) ToBytes() ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	out := Layout{
		Type:    l.Type,
		Expires: l.Expires,
		Readme:  l.Readme,
		Keys:    map[string]string{},
		Steps:   make([]Step, len(l.Steps)),
		Inspect: make([]Inspection, len(l.Inspect)),
	}
	for k, v := range l.Keys {
		out.Keys[k] = v
	}
	for i, s := range l.Steps {
		cp := s
		cp.ExpectedMaterials = copyRules(s.ExpectedMaterials)
		cp.ExpectedProducts = copyRules(s.ExpectedProducts)
		cp.PubKeys = append([]string(nil), s.PubKeys...)
		sort.Strings(cp.PubKeys)
		out.Steps[i] = cp
	}
	for i, insp := range l.Inspect {
		cp := insp
		cp.ExpectedMaterials = copyRules(insp.ExpectedMaterials)
		cp.ExpectedProducts = copyRules(insp.ExpectedProducts)
		out.Inspect[i] = cp
	}
	return cjson.Marshal(out)
}

func copyRules(rules []ArtifactRule) []ArtifactRule {
	out := make([]ArtifactRule, len(rules))
	copy(out, rules)
	return out
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
