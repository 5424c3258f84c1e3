package envelope

import (
	"fmt"

	"github.com/danbev/in-toto-rs/cjson"
)

// Decode parses envelope bytes fail-closed: unknown fields, missing fields,
// wrong types, and empty signature lists are all rejected.
func Decode(data []byte) (Envelope, error) {
	tree, err := cjson.Deserialize(data)
	if err != nil {
		return Envelope{}, err
	}
	o, err := cjson.AsObj(tree, "")
	if err != nil {
		return Envelope{}, err
	}

	payload, err := o.String("payload")
	if err != nil {
		return Envelope{}, err
	}
	payloadType, err := o.String("payloadType")
	if err != nil {
		return Envelope{}, err
	}
	rawSigs, err := o.Array("signatures")
	if err != nil {
		return Envelope{}, err
	}
	if len(rawSigs) == 0 {
		return Envelope{}, cjson.NewError(cjson.KindSchemaMismatch, "ENV-SCHEMA-101",
			"envelope must carry at least one signature")
	}

	sigs := make([]Signature, 0, len(rawSigs))
	seen := make(map[string]struct{}, len(rawSigs))
	for i, el := range rawSigs {
		so, err := cjson.AsObj(el, fmt.Sprintf("signatures[%d]", i))
		if err != nil {
			return Envelope{}, err
		}
		keyID, err := so.String("keyid")
		if err != nil {
			return Envelope{}, err
		}
		sig, err := so.String("sig")
		if err != nil {
			return Envelope{}, err
		}
		if err := so.Finish(); err != nil {
			return Envelope{}, err
		}
		if _, dup := seen[keyID]; dup {
			return Envelope{}, cjson.NewError(cjson.KindSchemaMismatch, "ENV-SCHEMA-102",
				fmt.Sprintf("duplicate signature key %s", keyID))
		}
		seen[keyID] = struct{}{}
		sigs = append(sigs, Signature{KeyID: keyID, Sig: sig})
	}

	if err := o.Finish(); err != nil {
		return Envelope{}, err
	}

	e := Envelope{Payload: payload, PayloadType: payloadType, Signatures: sigs}
	if _, err := e.PayloadBytes(); err != nil {
		return Envelope{}, err
	}
	return e, nil
}
