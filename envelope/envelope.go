// Package envelope implements the DSSE signing envelope that carries
// statement documents: a base64 payload, its type, and one signature per
// functionary key over the pre-authentication encoding of both.
//
// Envelope bytes canonicalize through cjson like every other document, so
// the same envelope always yields the same bytes and the same content
// address.
package envelope

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/danbev/in-toto-rs/cjson"
	"github.com/danbev/in-toto-rs/keys"
)

// PayloadType identifies statement documents carried by this toolchain.
const PayloadType = "application/vnd.in-toto+json"

// Signature binds one key to the envelope payload.
type Signature struct {
	KeyID string `json:"keyid"`
	Sig   string `json:"sig"`
}

// Envelope is the DSSE wire document.
type Envelope struct {
	Payload     string      `json:"payload"`
	PayloadType string      `json:"payloadType"`
	Signatures  []Signature `json:"signatures"`
}

// PAE computes the DSSEv1 pre-authentication encoding. Signatures cover
// these bytes, never the raw payload, so payload and type cannot be swapped
// independently.
func PAE(payloadType string, payload []byte) []byte {
	return []byte(fmt.Sprintf("DSSEv1 %d %s %d %s", len(payloadType), payloadType, len(payload), payload))
}

// New wraps payload bytes in an unsigned envelope with the statement
// payload type.
func New(payload []byte) Envelope {
	return Envelope{
		Payload:     base64.StdEncoding.EncodeToString(payload),
		PayloadType: PayloadType,
	}
}

// Sign wraps payload and signs it with every signer.
func Sign(payload []byte, signers ...keys.Signer) (Envelope, error) {
	e := New(payload)
	for _, s := range signers {
		if err := e.AddSignature(s); err != nil {
			return Envelope{}, err
		}
	}
	return e, nil
}

// AddSignature signs the envelope's PAE with s and appends the signature.
// A key may sign an envelope at most once.
func (e *Envelope) AddSignature(s keys.Signer) error {
	keyID := s.KeyID()
	for _, existing := range e.Signatures {
		if existing.KeyID == keyID {
			return cjson.NewError(cjson.KindCrypto, "ENV-SIGN-001",
				fmt.Sprintf("key %s already signed this envelope", keyID))
		}
	}
	payload, err := e.PayloadBytes()
	if err != nil {
		return err
	}
	sig, err := s.Sign(PAE(e.PayloadType, payload))
	if err != nil {
		return cjson.WrapError(cjson.KindCrypto, "ENV-SIGN-002", "signing failed", err)
	}
	e.Signatures = append(e.Signatures, Signature{
		KeyID: keyID,
		Sig:   base64.StdEncoding.EncodeToString(sig),
	})
	return nil
}

// PayloadBytes decodes the base64 payload.
func (e Envelope) PayloadBytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(e.Payload)
	if err != nil {
		return nil, cjson.WrapError(cjson.KindMalformed, "ENV-B64-001", "invalid payload base64", err)
	}
	return b, nil
}

// Verify checks the envelope's signatures against pubs (key ID to public
// key) and returns the sorted key IDs that verified. At least threshold
// distinct keys must verify; signatures from keys outside pubs are ignored.
func (e Envelope) Verify(pubs map[string]keys.PublicKey, threshold int) ([]string, error) {
	if threshold < 1 {
		return nil, cjson.NewError(cjson.KindCrypto, "ENV-VER-001", "threshold must be at least 1")
	}
	if len(e.Signatures) == 0 {
		return nil, cjson.NewError(cjson.KindCrypto, "ENV-VER-002", "envelope has no signatures")
	}
	payload, err := e.PayloadBytes()
	if err != nil {
		return nil, err
	}
	pae := PAE(e.PayloadType, payload)

	accepted := make(map[string]struct{})
	for _, s := range e.Signatures {
		pk, ok := pubs[s.KeyID]
		if !ok {
			continue
		}
		sig, err := base64.StdEncoding.DecodeString(s.Sig)
		if err != nil {
			return nil, cjson.WrapError(cjson.KindMalformed, "ENV-B64-002",
				fmt.Sprintf("invalid signature base64 for key %s", s.KeyID), err)
		}
		if err := pk.Verify(pae, sig); err != nil {
			return nil, cjson.WrapError(cjson.KindCrypto, "ENV-VER-003",
				fmt.Sprintf("signature by key %s invalid", s.KeyID), err)
		}
		accepted[s.KeyID] = struct{}{}
	}

	ids := make([]string, 0, len(accepted))
	for id := range accepted {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) < threshold {
		return nil, cjson.NewError(cjson.KindCrypto, "ENV-VER-004",
			fmt.Sprintf("%d of %d required signatures verified", len(ids), threshold))
	}
	return ids, nil
}

// ToBytes renders the canonical envelope bytes. Signatures are ordered by
// key ID so the same signature set always produces the same bytes.
func (e Envelope) ToBytes() ([]byte, error) {
	sigs := make([]Signature, len(e.Signatures))
	copy(sigs, e.Signatures)
	sort.Slice(sigs, func(i, j int) bool { return sigs[i].KeyID < sigs[j].KeyID })
	out := Envelope{Payload: e.Payload, PayloadType: e.PayloadType, Signatures: sigs}
	return cjson.Marshal(out)
}
