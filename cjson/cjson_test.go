package cjson

import (
	"bytes"
	"errors"
	"testing"
)

func mustCanonical(t *testing.T, v any) []byte {
	t.Helper()
	b, err := Canonicalize(v)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	return b
}

func TestCanonicalize_GoldenVectors(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"null", nil, `null`},
		{"true", true, `true`},
		{"false", false, `false`},
		{"empty string", "", `""`},
		{"plain string", "abc", `"abc"`},
		{"utf8 passthrough", "héllo ☃", `"héllo ☃"`},
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"newline", "a\nb", `"a\nb"`},
		{"control char", "a\x01b", `"a\u0001b"`},
		{"zero", 0, `0`},
		{"negative", int64(-42), `-42`},
		{"uint", uint64(18446744073709551615), `18446744073709551615`},
		{"empty object", map[string]any{}, `{}`},
		{"empty array", []any{}, `[]`},
		{"nested", map[string]any{
			"b": []any{int64(1), "x", nil},
			"a": map[string]any{"z": true, "y": int64(2)},
		}, `{"a":{"y":2,"z":true},"b":[1,"x",null]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mustCanonical(t, tc.in)
			if string(got) != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestCanonicalize_SortsKeysByByteValue(t *testing.T) {
	in := map[string]any{
		"b":   int64(1),
		"a":   int64(2),
		"ab":  int64(3),
		"A":   int64(4),
		"Z":   int64(5),
		"_":   int64(6),
		"0":   int64(7),
		"env": nil,
	}
	want := `{"0":7,"A":4,"Z":5,"_":6,"a":2,"ab":3,"b":1,"env":null}`
	got := mustCanonical(t, in)
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestCanonicalize_NumberNormalization(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"-0", "0"},
		{"1000", "1000"},
		{"1e3", "1000"},
		{"1.0", "1"},
		{"-2.0e2", "-200"},
	}
	for _, tc := range cases {
		tree, err := Deserialize([]byte(tc.in))
		if err != nil {
			t.Fatalf("Deserialize(%q): %v", tc.in, err)
		}
		got := mustCanonical(t, tree)
		if string(got) != tc.want {
			t.Fatalf("Canonicalize(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalize_RejectsNonIntegralNumbers(t *testing.T) {
	for _, in := range []string{"1.5", "0.1", "-3.25", "1e-3"} {
		tree, err := Deserialize([]byte(in))
		if err != nil {
			t.Fatalf("Deserialize(%q): %v", in, err)
		}
		_, err = Canonicalize(tree)
		if err == nil {
			t.Fatalf("Canonicalize(%q): expected error", in)
		}
		if !IsKind(err, KindUnrepresentable) {
			t.Fatalf("Canonicalize(%q): expected KindUnrepresentable, got %v", in, err)
		}
	}
}

func TestCanonicalize_RejectsHugeFloatIntegers(t *testing.T) {
	tree, err := Deserialize([]byte("1e300"))
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	_, err = Canonicalize(tree)
	if !IsKind(err, KindUnrepresentable) {
		t.Fatalf("expected KindUnrepresentable, got %v", err)
	}
}

func TestDeserialize_Malformed(t *testing.T) {
	cases := []struct {
		name   string
		in     []byte
		ruleID string
	}{
		{"non-utf8", []byte{0xff, 0xfe, 0xfd}, "CJSON-STR-001"},
		{"unterminated object", []byte(`{`), "CJSON-PARSE-002"},
		{"bare garbage", []byte(`nope`), "CJSON-PARSE-002"},
		{"empty input", []byte(``), "CJSON-PARSE-002"},
		{"trailing data", []byte(`{} {}`), "CJSON-PARSE-003"},
		{"trailing garbage", []byte(`1 x`), "CJSON-PARSE-003"},
		{"duplicate key", []byte(`{"a":1,"a":2}`), "CJSON-PARSE-004"},
		{"nested duplicate key", []byte(`{"o":{"b":1,"b":1}}`), "CJSON-PARSE-004"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Deserialize(tc.in)
			if err == nil {
				t.Fatalf("expected error")
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("expected structured *cjson.Error, got %T", err)
			}
			if e.Kind != KindMalformed {
				t.Fatalf("expected KindMalformed, got %s", e.Kind)
			}
			if e.RuleID != tc.ruleID {
				t.Fatalf("expected RuleID %s, got %s", tc.ruleID, e.RuleID)
			}
		})
	}
}

func TestDeserialize_AcceptsWhitespaceAroundValue(t *testing.T) {
	tree, err := Deserialize([]byte("  {\"a\": 1}\n"))
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	got := mustCanonical(t, tree)
	if string(got) != `{"a":1}` {
		t.Fatalf("got %s", got)
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	samples := []string{
		`{}`,
		`[1,2,3]`,
		`{"b":"x","a":[{"k":1e3},null,true],"c":"with \"quotes\" and \\ slash"}`,
		`{"s":"line1\nline2\ttabbed"}`,
	}
	for _, s := range samples {
		tree, err := Deserialize([]byte(s))
		if err != nil {
			t.Fatalf("Deserialize(%q): %v", s, err)
		}
		once := mustCanonical(t, tree)
		tree2, err := Deserialize(once)
		if err != nil {
			t.Fatalf("Deserialize(canonical %q): %v", once, err)
		}
		twice := mustCanonical(t, tree2)
		if !bytes.Equal(once, twice) {
			t.Fatalf("not idempotent: %s vs %s", once, twice)
		}
	}
}

func TestMarshal_StructTags(t *testing.T) {
	type inner struct {
		Z int    `json:"z"`
		A string `json:"a"`
	}
	type outer struct {
		Name  string            `json:"name"`
		Inner inner             `json:"inner"`
		Env   map[string]string `json:"env"`
	}
	b, err := Marshal(outer{Name: "n", Inner: inner{Z: 1, A: "x"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"env":null,"inner":{"a":"x","z":1},"name":"n"}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestMarshal_RejectsFloatFields(t *testing.T) {
	_, err := Marshal(map[string]any{"x": 1.5})
	if !IsKind(err, KindUnrepresentable) {
		t.Fatalf("expected KindUnrepresentable, got %v", err)
	}
}

func TestSerialize_UnencodableValue(t *testing.T) {
	_, err := Serialize(make(chan int))
	if !IsKind(err, KindUnrepresentable) {
		t.Fatalf("expected KindUnrepresentable, got %v", err)
	}
}

func TestCanonicalize_RejectsForeignTreeNode(t *testing.T) {
	_, err := Canonicalize(struct{ X int }{1})
	if !IsKind(err, KindInternal) {
		t.Fatalf("expected KindInternal, got %v", err)
	}
}
