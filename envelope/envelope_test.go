package envelope

import (
	"strings"
	"testing"

	"github.com/danbev/in-toto-rs/cjson"
	"github.com/danbev/in-toto-rs/keys"
)

func testSigner(t *testing.T, scheme string, fill byte) keys.Signer {
	t.Helper()
	seed := make([]byte, keys.SeedSize)
	for i := range seed {
		seed[i] = fill + byte(i)
	}
	s, err := keys.SignerFromSeed(scheme, seed)
	if err != nil {
		t.Fatalf("SignerFromSeed(%s): %v", scheme, err)
	}
	return s
}

func pubsFor(t *testing.T, signers ...keys.Signer) map[string]keys.PublicKey {
	t.Helper()
	pubs := make(map[string]keys.PublicKey, len(signers))
	for _, s := range signers {
		pubs[s.KeyID()] = s.Public()
	}
	return pubs
}

func TestPAEVectors(t *testing.T) {
	cases := []struct {
		payloadType string
		payload     string
		want        string
	}{
		{"http://example.com/HelloWorld", "hello world",
			"DSSEv1 29 http://example.com/HelloWorld 11 hello world"},
		{PayloadType, "hello",
			"DSSEv1 28 application/vnd.in-toto+json 5 hello"},
		{"", "",
			"DSSEv1 0  0 "},
	}
	for _, tc := range cases {
		got := string(PAE(tc.payloadType, []byte(tc.payload)))
		if got != tc.want {
			t.Fatalf("PAE(%q, %q):\n got %q\nwant %q", tc.payloadType, tc.payload, got, tc.want)
		}
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	for _, scheme := range keys.Schemes() {
		signer := testSigner(t, scheme, 1)
		payload := []byte(`{"doc":"content"}`)

		e, err := Sign(payload, signer)
		if err != nil {
			t.Fatalf("%s: Sign: %v", scheme, err)
		}
		if e.PayloadType != PayloadType {
			t.Fatalf("%s: unexpected payload type %q", scheme, e.PayloadType)
		}
		got, err := e.PayloadBytes()
		if err != nil {
			t.Fatalf("%s: PayloadBytes: %v", scheme, err)
		}
		if string(got) != string(payload) {
			t.Fatalf("%s: payload mangled", scheme)
		}

		ids, err := e.Verify(pubsFor(t, signer), 1)
		if err != nil {
			t.Fatalf("%s: Verify: %v", scheme, err)
		}
		if len(ids) != 1 || ids[0] != signer.KeyID() {
			t.Fatalf("%s: unexpected accepted keys %v", scheme, ids)
		}
	}
}

func TestVerifyThresholdTwoSchemes(t *testing.T) {
	ed := testSigner(t, keys.SchemeEd25519, 2)
	dil := testSigner(t, keys.SchemeDilithium3, 2)
	payload := []byte(`{"doc":"content"}`)

	e, err := Sign(payload, ed, dil)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	ids, err := e.Verify(pubsFor(t, ed, dil), 2)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 accepted keys, got %v", ids)
	}
	if !(ids[0] < ids[1]) {
		t.Fatalf("accepted keys not sorted: %v", ids)
	}
}

func TestVerifyTamperedPayloadFails(t *testing.T) {
	signer := testSigner(t, keys.SchemeEd25519, 3)
	e, err := Sign([]byte(`{"doc":"content"}`), signer)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tampered := e
	tampered.Payload = New([]byte(`{"doc":"evil"}`)).Payload

	_, err = tampered.Verify(pubsFor(t, signer), 1)
	if !cjson.IsKind(err, cjson.KindCrypto) || cjson.RuleID(err) != "ENV-VER-003" {
		t.Fatalf("expected ENV-VER-003, got %v", err)
	}
}

func TestVerifyPayloadTypeIsCovered(t *testing.T) {
	signer := testSigner(t, keys.SchemeEd25519, 4)
	e, err := Sign([]byte(`{"doc":"content"}`), signer)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	e.PayloadType = "application/other"
	if _, err := e.Verify(pubsFor(t, signer), 1); err == nil {
		t.Fatalf("expected changed payload type to break the signature")
	}
}

func TestVerifyUnknownKeysIgnored(t *testing.T) {
	signer := testSigner(t, keys.SchemeEd25519, 5)
	stranger := testSigner(t, keys.SchemeEd25519, 6)
	e, err := Sign([]byte(`{"doc":"content"}`), signer, stranger)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	// Only signer is authorized; stranger's signature must not count.
	ids, err := e.Verify(pubsFor(t, signer), 1)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(ids) != 1 || ids[0] != signer.KeyID() {
		t.Fatalf("unexpected accepted keys %v", ids)
	}

	_, err = e.Verify(pubsFor(t, signer), 2)
	if !cjson.IsKind(err, cjson.KindCrypto) || cjson.RuleID(err) != "ENV-VER-004" {
		t.Fatalf("expected ENV-VER-004, got %v", err)
	}
}

func TestVerifyInvalidAuthorizedSignatureFailsClosed(t *testing.T) {
	good := testSigner(t, keys.SchemeEd25519, 7)
	bad := testSigner(t, keys.SchemeEd25519, 8)
	e, err := Sign([]byte(`{"doc":"content"}`), good)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	// Claim bad's key ID over good's signature bytes.
	e.Signatures = append(e.Signatures, Signature{KeyID: bad.KeyID(), Sig: e.Signatures[0].Sig})

	// Even though good alone meets the threshold, the forged entry rejects
	// the whole envelope.
	_, err = e.Verify(pubsFor(t, good, bad), 1)
	if !cjson.IsKind(err, cjson.KindCrypto) || cjson.RuleID(err) != "ENV-VER-003" {
		t.Fatalf("expected ENV-VER-003, got %v", err)
	}
}

func TestVerifyArgumentChecks(t *testing.T) {
	signer := testSigner(t, keys.SchemeEd25519, 9)
	e, err := Sign([]byte("x"), signer)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := e.Verify(pubsFor(t, signer), 0); cjson.RuleID(err) != "ENV-VER-001" {
		t.Fatalf("expected ENV-VER-001, got %v", err)
	}
	unsigned := New([]byte("x"))
	if _, err := unsigned.Verify(pubsFor(t, signer), 1); cjson.RuleID(err) != "ENV-VER-002" {
		t.Fatalf("expected ENV-VER-002, got %v", err)
	}
}

func TestAddSignatureRejectsDuplicateKey(t *testing.T) {
	signer := testSigner(t, keys.SchemeEd25519, 10)
	e := New([]byte("x"))
	if err := e.AddSignature(signer); err != nil {
		t.Fatalf("AddSignature: %v", err)
	}
	err := e.AddSignature(signer)
	if !cjson.IsKind(err, cjson.KindCrypto) || cjson.RuleID(err) != "ENV-SIGN-001" {
		t.Fatalf("expected ENV-SIGN-001, got %v", err)
	}
}

func TestToBytesDeterministicSignatureOrder(t *testing.T) {
	a := testSigner(t, keys.SchemeEd25519, 11)
	b := testSigner(t, keys.SchemeEd25519, 12)
	payload := []byte(`{"doc":"content"}`)

	ab, err := Sign(payload, a, b)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	ba, err := Sign(payload, b, a)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	abBytes, err := ab.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	baBytes, err := ba.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	if string(abBytes) != string(baBytes) {
		t.Fatalf("signing order leaked into canonical bytes:\n%s\n%s", abBytes, baBytes)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	signer := testSigner(t, keys.SchemeEd25519, 13)
	e, err := Sign([]byte(`{"doc":"content"}`), signer)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	b, err := e.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	decoded, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Payload != e.Payload || decoded.PayloadType != e.PayloadType {
		t.Fatalf("round trip changed envelope")
	}
	if len(decoded.Signatures) != 1 || decoded.Signatures[0] != e.Signatures[0] {
		t.Fatalf("round trip changed signatures")
	}
	if _, err := decoded.Verify(pubsFor(t, signer), 1); err != nil {
		t.Fatalf("Verify after round trip: %v", err)
	}

	again, err := decoded.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	if string(again) != string(b) {
		t.Fatalf("canonical bytes not stable across decode")
	}
}

func TestDecodeGolden(t *testing.T) {
	in := `{"payload":"aGVsbG8=","payloadType":"application/vnd.in-toto+json","signatures":[{"keyid":"k1","sig":"c2ln"}]}`
	e, err := Decode([]byte(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	payload, err := e.PayloadBytes()
	if err != nil {
		t.Fatalf("PayloadBytes: %v", err)
	}
	if string(payload) != "hello" {
		t.Fatalf("unexpected payload %q", payload)
	}
	out, err := e.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	if string(out) != in {
		t.Fatalf("canonical form changed:\n got %s\nwant %s", out, in)
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
		kind cjson.Kind
		rule string
	}{
		{"not json", `{`, cjson.KindMalformed, "CJSON-PARSE-002"},
		{"not object", `[1]`, cjson.KindSchemaMismatch, "CJSON-SCHEMA-101"},
		{"missing payload", `{"payloadType":"t","signatures":[{"keyid":"k","sig":"s"}]}`, cjson.KindSchemaMismatch, "CJSON-SCHEMA-102"},
		{"missing payloadType", `{"payload":"aGVsbG8=","signatures":[{"keyid":"k","sig":"s"}]}`, cjson.KindSchemaMismatch, "CJSON-SCHEMA-102"},
		{"missing signatures", `{"payload":"aGVsbG8=","payloadType":"t"}`, cjson.KindSchemaMismatch, "CJSON-SCHEMA-102"},
		{"empty signatures", `{"payload":"aGVsbG8=","payloadType":"t","signatures":[]}`, cjson.KindSchemaMismatch, "ENV-SCHEMA-101"},
		{"unknown field", `{"payload":"aGVsbG8=","payloadType":"t","signatures":[{"keyid":"k","sig":"s"}],"extra":1}`, cjson.KindSchemaMismatch, "CJSON-SCHEMA-104"},
		{"unknown signature field", `{"payload":"aGVsbG8=","payloadType":"t","signatures":[{"keyid":"k","sig":"s","alg":"x"}]}`, cjson.KindSchemaMismatch, "CJSON-SCHEMA-104"},
		{"signature not object", `{"payload":"aGVsbG8=","payloadType":"t","signatures":["s"]}`, cjson.KindSchemaMismatch, "CJSON-SCHEMA-101"},
		{"duplicate keyid", `{"payload":"aGVsbG8=","payloadType":"t","signatures":[{"keyid":"k","sig":"a"},{"keyid":"k","sig":"b"}]}`, cjson.KindSchemaMismatch, "ENV-SCHEMA-102"},
		{"bad payload base64", `{"payload":"!!","payloadType":"t","signatures":[{"keyid":"k","sig":"s"}]}`, cjson.KindMalformed, "ENV-B64-001"},
	}
	for _, tc := range cases {
		_, err := Decode([]byte(tc.in))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !cjson.IsKind(err, tc.kind) {
			t.Fatalf("%s: expected kind %s, got %v", tc.name, tc.kind, err)
		}
		if got := cjson.RuleID(err); got != tc.rule {
			t.Fatalf("%s: expected rule %s, got %s (%v)", tc.name, tc.rule, got, err)
		}
	}
}

func TestUnsignedEnvelopeCanonicalForm(t *testing.T) {
	e := New([]byte("hello"))
	b, err := e.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	if !strings.Contains(string(b), `"signatures":[]`) {
		t.Fatalf("expected empty signature list, got %s", b)
	}
}
