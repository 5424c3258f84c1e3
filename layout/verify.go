package layout

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/danbev/in-toto-rs/cjson"
	"github.com/danbev/in-toto-rs/envelope"
	"github.com/danbev/in-toto-rs/keys"
	"github.com/danbev/in-toto-rs/models"
	"github.com/danbev/in-toto-rs/statement"
)

// State is the overall verification outcome.
type State string

const (
	StatePassed State = "Passed"
	StateFailed State = "Failed"
)

// StepVerdict materializes the evaluation of one step.
//
// This is representation-only evidence. It does not change verification
// semantics; it exists so a reader can answer "why failed?" without
// re-running the verifier.
type StepVerdict struct {
	Name           string
	Threshold      int64
	Observed       int
	AcceptedKeyIDs []string

	Satisfied bool
	Reasons   []string
}

// InspectionVerdict materializes the evaluation of one inspection.
type InspectionVerdict struct {
	Name      string
	Satisfied bool
	Reasons   []string
}

// Exclusion records one piece of evidence that was rejected before it could
// count toward any threshold.
type Exclusion struct {
	Step   string
	Reason string
}

// Verdict is the full deterministic verification report.
type Verdict struct {
	State       State
	Reasons     []string
	Steps       []StepVerdict
	Inspections []InspectionVerdict
	Exclusions  []Exclusion
}

// Verify evaluates link evidence against the layout: expiry, per-step
// signature thresholds over authorized keys, functionary link agreement,
// expected commands, and artifact rules, then the same rules over the
// caller-executed inspections. Evaluation is deterministic and fail-closed:
// the same inputs always produce the same verdict, and anything unprovable
// fails.
//
// stepLinks maps step names to the signed link envelopes collected for
// them; inspectionLinks maps inspection names to the metadata the caller
// recorded when running each inspection command.
func Verify(l *Layout, stepLinks map[string][]envelope.Envelope, inspectionLinks map[string]models.LinkMetadata, now time.Time) (*Verdict, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	verdict := &Verdict{State: StateFailed}

	expires, err := l.ExpiresAt()
	if err != nil {
		return nil, err
	}
	if now.After(expires) {
		verdict.Reasons = append(verdict.Reasons, fmt.Sprintf("layout expired %s", l.Expires))
	}

	layoutKeys := make(map[string]keys.PublicKey, len(l.Keys))
	for keyID, enc := range l.Keys {
		pk, err := keys.ParsePublicKey(enc)
		if err != nil {
			return nil, err
		}
		layoutKeys[keyID] = pk
	}

	// First pass: authenticate evidence and settle the agreed link per step.
	agreed := make(map[string]models.LinkMetadata)
	verdict.Steps = make([]StepVerdict, len(l.Steps))
	for i, step := range l.Steps {
		sv := &verdict.Steps[i]
		sv.Name = step.Name
		sv.Threshold = step.Threshold

		authorized := make(map[string]keys.PublicKey, len(step.PubKeys))
		for _, keyID := range step.PubKeys {
			authorized[keyID] = layoutKeys[keyID]
		}

		accepted := make(map[string]struct{})
		var agreedBytes []byte
		var agreedMeta models.LinkMetadata
		haveAgreed := false
		disagreed := false
		for j, env := range stepLinks[step.Name] {
			ids, err := env.Verify(authorized, 1)
			if err != nil {
				verdict.Exclusions = append(verdict.Exclusions, Exclusion{
					Step:   step.Name,
					Reason: fmt.Sprintf("envelope %d: %v", j, err),
				})
				continue
			}
			payload, err := env.PayloadBytes()
			if err != nil {
				verdict.Exclusions = append(verdict.Exclusions, Exclusion{
					Step:   step.Name,
					Reason: fmt.Sprintf("envelope %d: %v", j, err),
				})
				continue
			}
			w, err := statement.Decode(payload)
			if err != nil {
				verdict.Exclusions = append(verdict.Exclusions, Exclusion{
					Step:   step.Name,
					Reason: fmt.Sprintf("envelope %d: payload: %v", j, err),
				})
				continue
			}
			meta := w.Metadata()
			if meta.Name != step.Name {
				verdict.Exclusions = append(verdict.Exclusions, Exclusion{
					Step:   step.Name,
					Reason: fmt.Sprintf("envelope %d: link name %q does not match step", j, meta.Name),
				})
				continue
			}
			canon, err := statement.NaiveFromMetadata(meta).ToBytes()
			if err != nil {
				return nil, err
			}
			if !haveAgreed {
				agreedBytes = canon
				agreedMeta = meta
				haveAgreed = true
			} else if !bytes.Equal(canon, agreedBytes) {
				disagreed = true
			}
			for _, id := range ids {
				accepted[id] = struct{}{}
			}
		}

		sv.AcceptedKeyIDs = sortedSet(accepted)
		sv.Observed = len(sv.AcceptedKeyIDs)
		if !haveAgreed {
			sv.Reasons = append(sv.Reasons, "no verifiable link evidence")
			continue
		}
		if disagreed {
			sv.Reasons = append(sv.Reasons, "functionary links disagree")
			continue
		}
		if int64(sv.Observed) < step.Threshold {
			sv.Reasons = append(sv.Reasons,
				fmt.Sprintf("%d of %d required functionary signatures", sv.Observed, step.Threshold))
		}
		if step.ExpectedCommand != "" && agreedMeta.Command.String() != step.ExpectedCommand {
			sv.Reasons = append(sv.Reasons,
				fmt.Sprintf("command %q does not match expected %q", agreedMeta.Command.String(), step.ExpectedCommand))
		}
		agreed[step.Name] = agreedMeta
	}

	// Second pass: artifact rules, with MATCH able to reference any step's
	// agreed link regardless of order.
	for i, step := range l.Steps {
		sv := &verdict.Steps[i]
		if meta, ok := agreed[step.Name]; ok {
			sv.Reasons = append(sv.Reasons, evaluateRules(step.ExpectedMaterials, SideMaterials, meta, agreed)...)
			sv.Reasons = append(sv.Reasons, evaluateRules(step.ExpectedProducts, SideProducts, meta, agreed)...)
		}
		sv.Satisfied = len(sv.Reasons) == 0
	}

	verdict.Inspections = make([]InspectionVerdict, len(l.Inspect))
	for i, insp := range l.Inspect {
		iv := &verdict.Inspections[i]
		iv.Name = insp.Name
		meta, ok := inspectionLinks[insp.Name]
		if !ok {
			iv.Reasons = append(iv.Reasons, "inspection not executed")
		} else {
			if meta.Command.String() != insp.Run {
				iv.Reasons = append(iv.Reasons,
					fmt.Sprintf("command %q does not match run %q", meta.Command.String(), insp.Run))
			}
			iv.Reasons = append(iv.Reasons, evaluateRules(insp.ExpectedMaterials, SideMaterials, meta, agreed)...)
			iv.Reasons = append(iv.Reasons, evaluateRules(insp.ExpectedProducts, SideProducts, meta, agreed)...)
		}
		iv.Satisfied = len(iv.Reasons) == 0
	}

	passed := len(verdict.Reasons) == 0
	for _, sv := range verdict.Steps {
		passed = passed && sv.Satisfied
	}
	for _, iv := range verdict.Inspections {
		passed = passed && iv.Satisfied
	}
	if passed {
		verdict.State = StatePassed
	}
	return verdict, nil
}

// VerifyStrict runs Verify and additionally rejects any verdict that is not
// a clean pass: a failed state or any excluded evidence is an error.
//
// This is a convenience entry point for callers that want "no ambiguity"
// behavior while keeping the base verifier's full report available.
func VerifyStrict(l *Layout, stepLinks map[string][]envelope.Envelope, inspectionLinks map[string]models.LinkMetadata, now time.Time) (*Verdict, error) {
	verdict, err := Verify(l, stepLinks, inspectionLinks, now)
	if err != nil {
		return nil, err
	}
	if len(verdict.Exclusions) > 0 {
		return verdict, cjson.NewError(cjson.KindCrypto, "LAY-VER-001",
			fmt.Sprintf("strict mode: excluded evidence present (%d)", len(verdict.Exclusions)))
	}
	if verdict.State != StatePassed {
		return verdict, cjson.NewError(cjson.KindCrypto, "LAY-VER-002",
			fmt.Sprintf("strict mode: expected %s, got %s", StatePassed, verdict.State))
	}
	return verdict, nil
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
