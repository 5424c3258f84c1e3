package layout

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/danbev/in-toto-rs/cjson"
	"github.com/danbev/in-toto-rs/models"
)

// RuleKind is an artifact rule keyword.
type RuleKind string

const (
	RuleCreate   RuleKind = "CREATE"
	RuleDelete   RuleKind = "DELETE"
	RuleModify   RuleKind = "MODIFY"
	RuleAllow    RuleKind = "ALLOW"
	RuleDisallow RuleKind = "DISALLOW"
	RuleRequire  RuleKind = "REQUIRE"
	RuleMatch    RuleKind = "MATCH"
)

// ArtifactSide selects which artifact set of a link a MATCH rule reads.
type ArtifactSide string

const (
	SideMaterials ArtifactSide = "MATERIALS"
	SideProducts  ArtifactSide = "PRODUCTS"
)

// ArtifactRule is one parsed artifact rule. The wire form is a single line
// of space-separated tokens:
//
//	CREATE <pattern>
//	DELETE <pattern>
//	MODIFY <pattern>
//	ALLOW <pattern>
//	DISALLOW <pattern>
//	REQUIRE <pattern>
//	MATCH <pattern> [IN <source-prefix>] WITH (MATERIALS|PRODUCTS)
//	      [IN <destination-prefix>] FROM <step>
//
// Patterns support `*` (any run of bytes, crossing `/`) and `?` (any single
// byte). Keywords are case-exact.
type ArtifactRule struct {
	Kind    RuleKind
	Pattern string

	// MATCH only.
	SourcePrefix string
	DestSide     ArtifactSide
	DestPrefix   string
	FromStep     string
}

// ParseRule parses the token form of one artifact rule fail-closed.
func ParseRule(s string) (ArtifactRule, error) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return ArtifactRule{}, cjson.NewError(cjson.KindValidation, "LAY-RULE-001", "empty artifact rule")
	}

	kind := RuleKind(tokens[0])
	switch kind {
	case RuleCreate, RuleDelete, RuleModify, RuleAllow, RuleDisallow, RuleRequire:
		if len(tokens) != 2 {
			return ArtifactRule{}, cjson.NewError(cjson.KindValidation, "LAY-RULE-003",
				fmt.Sprintf("%s takes exactly one pattern, got %q", kind, s))
		}
		return ArtifactRule{Kind: kind, Pattern: tokens[1]}, nil
	case RuleMatch:
		return parseMatchRule(s, tokens[1:])
	default:
		return ArtifactRule{}, cjson.NewError(cjson.KindValidation, "LAY-RULE-002",
			fmt.Sprintf("unknown artifact rule keyword %q", tokens[0]))
	}
}

func parseMatchRule(raw string, tokens []string) (ArtifactRule, error) {
	bad := func(msg string) (ArtifactRule, error) {
		return ArtifactRule{}, cjson.NewError(cjson.KindValidation, "LAY-RULE-004",
			fmt.Sprintf("%s in %q", msg, raw))
	}

	r := ArtifactRule{Kind: RuleMatch}
	i := 0
	next := func() (string, bool) {
		if i >= len(tokens) {
			return "", false
		}
		t := tokens[i]
		i++
		return t, true
	}

	pat, ok := next()
	if !ok || pat == "IN" || pat == "WITH" {
		return bad("MATCH requires a pattern")
	}
	r.Pattern = pat

	t, ok := next()
	if !ok {
		return bad("MATCH requires WITH")
	}
	if t == "IN" {
		r.SourcePrefix, ok = next()
		if !ok {
			return bad("IN requires a prefix")
		}
		t, ok = next()
		if !ok {
			return bad("MATCH requires WITH")
		}
	}
	if t != "WITH" {
		return bad(fmt.Sprintf("expected WITH, got %q", t))
	}

	side, ok := next()
	if !ok {
		return bad("WITH requires MATERIALS or PRODUCTS")
	}
	switch ArtifactSide(side) {
	case SideMaterials, SideProducts:
		r.DestSide = ArtifactSide(side)
	default:
		return bad(fmt.Sprintf("expected MATERIALS or PRODUCTS, got %q", side))
	}

	t, ok = next()
	if !ok {
		return bad("MATCH requires FROM")
	}
	if t == "IN" {
		r.DestPrefix, ok = next()
		if !ok {
			return bad("IN requires a prefix")
		}
		t, ok = next()
		if !ok {
			return bad("MATCH requires FROM")
		}
	}
	if t != "FROM" {
		return bad(fmt.Sprintf("expected FROM, got %q", t))
	}

	r.FromStep, ok = next()
	if !ok || r.FromStep == "" {
		return bad("FROM requires a step name")
	}
	if _, extra := next(); extra {
		return bad("trailing tokens")
	}
	return r, nil
}

// String renders the canonical token form.
func (r ArtifactRule) String() string {
	if r.Kind != RuleMatch {
		return string(r.Kind) + " " + r.Pattern
	}
	parts := []string{"MATCH", r.Pattern}
	if r.SourcePrefix != "" {
		parts = append(parts, "IN", r.SourcePrefix)
	}
	parts = append(parts, "WITH", string(r.DestSide))
	if r.DestPrefix != "" {
		parts = append(parts, "IN", r.DestPrefix)
	}
	parts = append(parts, "FROM", r.FromStep)
	return strings.Join(parts, " ")
}

// MarshalJSON renders the rule as its token string.
func (r ArtifactRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// fnmatch matches name against pattern where `*` matches any run of bytes
// (including `/`) and `?` matches any single byte. Iterative with single
// star backtracking.
func fnmatch(pattern, name string) bool {
	px, nx := 0, 0
	nextPx, nextNx := 0, 0
	for px < len(pattern) || nx < len(name) {
		if px < len(pattern) {
			switch c := pattern[px]; c {
			case '*':
				nextPx = px
				nextNx = nx + 1
				px++
				continue
			case '?':
				if nx < len(name) {
					px++
					nx++
					continue
				}
			default:
				if nx < len(name) && name[nx] == c {
					px++
					nx++
					continue
				}
			}
		}
		if 0 < nextNx && nextNx <= len(name) {
			px = nextPx
			nx = nextNx
			continue
		}
		return false
	}
	return true
}

// evaluateRules runs rules in declared order against one artifact side of
// link. Consuming rules remove matched paths from the queue; DISALLOW and
// REQUIRE assert over what remains. The returned reasons are empty when
// every assertion held.
func evaluateRules(rules []ArtifactRule, side ArtifactSide, link models.LinkMetadata, links map[string]models.LinkMetadata) []string {
	var source map[models.VirtualTargetPath]models.TargetDescription
	switch side {
	case SideMaterials:
		source = link.Materials
	default:
		source = link.Products
	}
	queue := models.CloneArtifacts(source)
	if queue == nil {
		queue = map[models.VirtualTargetPath]models.TargetDescription{}
	}

	var reasons []string
	for _, r := range rules {
		switch r.Kind {
		case RuleCreate, RuleDelete, RuleModify, RuleAllow:
			for _, p := range matchedPaths(r, queue, link) {
				delete(queue, p)
			}
		case RuleDisallow:
			if offending := matchedPaths(r, queue, link); len(offending) > 0 {
				reasons = append(reasons, fmt.Sprintf("%s: unexpected artifacts %v", r.String(), pathStrings(offending)))
			}
		case RuleRequire:
			if len(matchedPaths(r, queue, link)) == 0 {
				reasons = append(reasons, fmt.Sprintf("%s: no artifact matches", r.String()))
			}
		case RuleMatch:
			for _, p := range matchRulePaths(r, queue, links) {
				delete(queue, p)
			}
		}
	}
	return reasons
}

// matchedPaths returns the sorted queue paths the non-MATCH rule covers.
func matchedPaths(r ArtifactRule, queue map[models.VirtualTargetPath]models.TargetDescription, link models.LinkMetadata) []models.VirtualTargetPath {
	var out []models.VirtualTargetPath
	for _, p := range models.SortedPaths(queue) {
		if !fnmatch(r.Pattern, string(p)) {
			continue
		}
		switch r.Kind {
		case RuleCreate:
			if _, inMat := link.Materials[p]; inMat {
				continue
			}
		case RuleDelete:
			if _, inProd := link.Products[p]; inProd {
				continue
			}
		case RuleModify:
			mat, inMat := link.Materials[p]
			prod, inProd := link.Products[p]
			if !inMat || !inProd || mat.Equal(prod) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// matchRulePaths returns the sorted queue paths a MATCH rule consumes:
// those whose relative path matches the pattern and whose digests equal the
// destination artifact in the referenced step's link. A missing step link
// or digest mismatch consumes nothing, leaving the artifact for DISALLOW.
func matchRulePaths(r ArtifactRule, queue map[models.VirtualTargetPath]models.TargetDescription, links map[string]models.LinkMetadata) []models.VirtualTargetPath {
	dest, ok := links[r.FromStep]
	if !ok {
		return nil
	}
	var destArtifacts map[models.VirtualTargetPath]models.TargetDescription
	if r.DestSide == SideMaterials {
		destArtifacts = dest.Materials
	} else {
		destArtifacts = dest.Products
	}

	var out []models.VirtualTargetPath
	for _, p := range models.SortedPaths(queue) {
		rel := string(p)
		if r.SourcePrefix != "" {
			stripped, ok := strings.CutPrefix(rel, r.SourcePrefix+"/")
			if !ok {
				continue
			}
			rel = stripped
		}
		if !fnmatch(r.Pattern, rel) {
			continue
		}
		destPath := rel
		if r.DestPrefix != "" {
			destPath = r.DestPrefix + "/" + rel
		}
		destTD, ok := destArtifacts[models.VirtualTargetPath(destPath)]
		if !ok || !queue[p].Equal(destTD) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func pathStrings(paths []models.VirtualTargetPath) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = string(p)
	}
	sort.Strings(out)
	return out
}
