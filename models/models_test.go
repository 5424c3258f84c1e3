package models

import (
	"testing"

	"github.com/danbev/in-toto-rs/cjson"
)

func TestNewVirtualTargetPath_Valid(t *testing.T) {
	for _, s := range []string{"a", "a/b", "dir/file.txt", "weird name/with space", "a.b/c-d_e"} {
		p, err := NewVirtualTargetPath(s)
		if err != nil {
			t.Fatalf("NewVirtualTargetPath(%q): %v", s, err)
		}
		if p.String() != s {
			t.Fatalf("path %q mangled to %q", s, p)
		}
	}
}

func TestNewVirtualTargetPath_Invalid(t *testing.T) {
	cases := []string{
		"",
		"/abs",
		"C:/win",
		"c:relative",
		"a\\b",
		"a\x00b",
		"a//b",
		"a/",
		"./a",
		"a/./b",
		"../a",
		"a/..",
	}
	for _, s := range cases {
		_, err := NewVirtualTargetPath(s)
		if err == nil {
			t.Fatalf("NewVirtualTargetPath(%q): expected error", s)
		}
		if !cjson.IsKind(err, cjson.KindValidation) {
			t.Fatalf("NewVirtualTargetPath(%q): expected KindValidation, got %v", s, err)
		}
	}
}

func TestNewHashValue(t *testing.T) {
	if _, err := NewHashValue("deadbeef"); err != nil {
		t.Fatalf("NewHashValue: %v", err)
	}
	for _, s := range []string{"", "abc", "DEADBEEF", "xyzw", "de adbeef"} {
		if _, err := NewHashValue(s); err == nil {
			t.Fatalf("NewHashValue(%q): expected error", s)
		}
	}
}

func TestNewTargetDescription(t *testing.T) {
	td, err := NewTargetDescription(map[string]string{"sha256": "ab12", "unknown-alg": "cd34"})
	if err != nil {
		t.Fatalf("NewTargetDescription: %v", err)
	}
	if td["unknown-alg"] != "cd34" {
		t.Fatalf("unknown algorithm not preserved: %v", td)
	}
	if _, err := NewTargetDescription(nil); err == nil {
		t.Fatalf("expected error for empty description")
	}
	if _, err := NewTargetDescription(map[string]string{"": "ab"}); err == nil {
		t.Fatalf("expected error for empty algorithm name")
	}
}

func TestCommand_CanonicalString(t *testing.T) {
	c := CommandFromString("  tar   xzf  foo.tar.gz ")
	if c.String() != "tar xzf foo.tar.gz" {
		t.Fatalf("got %q", c.String())
	}
	if got := CommandFromArgs([]string{"tar", "xzf", "foo.tar.gz"}).String(); got != c.String() {
		t.Fatalf("args form differs: %q", got)
	}
	if CommandFromString("").String() != "" {
		t.Fatalf("empty command must render empty")
	}
}

func TestCommand_CloneIndependent(t *testing.T) {
	args := []string{"a", "b"}
	c := CommandFromArgs(args)
	args[0] = "mutated"
	if c.String() != "a b" {
		t.Fatalf("command aliases caller slice: %q", c.String())
	}
}

func TestByProducts_SettersAndEquality(t *testing.T) {
	b := NewByProducts()
	if b != (ByProducts{}) {
		t.Fatalf("zero instance not zero: %+v", b)
	}
	b2 := b.WithReturnValue(1).WithStdout("out").WithStderr("err")
	if b != (ByProducts{}) {
		t.Fatalf("setters mutated receiver: %+v", b)
	}
	want := ByProducts{ReturnValue: 1, Stdout: "out", Stderr: "err"}
	if b2 != want {
		t.Fatalf("got %+v, want %+v", b2, want)
	}
}

func mustTD(t *testing.T, alg, dig string) TargetDescription {
	t.Helper()
	td, err := NewTargetDescription(map[string]string{alg: dig})
	if err != nil {
		t.Fatalf("NewTargetDescription: %v", err)
	}
	return td
}

func TestLinkMetadata_CloneIsDeep(t *testing.T) {
	meta := NewLinkMetadataBuilder("build").
		AddMaterial("src/main.c", mustTD(t, "sha256", "00ff")).
		AddProduct("bin/out", mustTD(t, "sha256", "11ee")).
		Env(map[string]string{"PATH": "/bin"}).
		Command(CommandFromString("make all")).
		ByProducts(NewByProducts().WithReturnValue(0)).
		Build()

	clone := meta.Clone()
	clone.Materials["src/main.c"]["sha256"] = "tampered"
	clone.Env["PATH"] = "tampered"

	if meta.Materials["src/main.c"]["sha256"] != "00ff" {
		t.Fatalf("clone shares materials")
	}
	if meta.Env["PATH"] != "/bin" {
		t.Fatalf("clone shares env")
	}
}

func TestLinkMetadata_EnvNilVersusEmpty(t *testing.T) {
	absent := NewLinkMetadataBuilder("s").Build()
	if absent.Env != nil {
		t.Fatalf("default env should be absent")
	}
	empty := NewLinkMetadataBuilder("s").Env(map[string]string{}).Build()
	if empty.Env == nil {
		t.Fatalf("captured-empty env should stay non-nil")
	}
}

func TestLink_RoundTrip(t *testing.T) {
	meta := NewLinkMetadataBuilder("package").
		AddMaterial("src/a.c", mustTD(t, "sha256", "aa00")).
		AddProduct("dist/a", mustTD(t, "sha256", "bb11")).
		Env(map[string]string{"LANG": "C"}).
		Command(CommandFromString("gcc -o a src/a.c")).
		ByProducts(NewByProducts().WithStdout("ok\n")).
		Build()

	l := LinkFromMetadata(meta)
	b, err := l.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	tree, err := cjson.Deserialize(b)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	o, err := cjson.AsObj(tree, "")
	if err != nil {
		t.Fatalf("AsObj: %v", err)
	}
	back, err := DecodeLinkFields(o)
	if err != nil {
		t.Fatalf("DecodeLinkFields: %v", err)
	}
	if err := o.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	b2, err := back.ToBytes()
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if string(b) != string(b2) {
		t.Fatalf("round trip changed bytes:\n%s\n%s", b, b2)
	}
	if back.Products["dist/a"]["sha256"] != "bb11" {
		t.Fatalf("products not preserved: %v", back.Products)
	}
}

func TestLink_EmptyCanonicalBytes(t *testing.T) {
	l := LinkFromMetadata(LinkMetadata{})
	b, err := l.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	want := `{"byproducts":{"return-value":0,"stderr":"","stdout":""},"command":"","env":null,"materials":{},"name":"","products":{}}`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}
}

func TestDecodeByProducts_Strict(t *testing.T) {
	src := `{"byproducts":{"return-value":0,"stderr":"","stdout":"","extra":1}}`
	tree, err := cjson.Deserialize([]byte(src))
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	o, err := cjson.AsObj(tree, "")
	if err != nil {
		t.Fatalf("AsObj: %v", err)
	}
	_, err = DecodeByProducts(o, "byproducts")
	if !cjson.IsKind(err, cjson.KindSchemaMismatch) {
		t.Fatalf("expected KindSchemaMismatch, got %v", err)
	}
}

func TestDecodeArtifacts_RejectsBadPathsAndDigests(t *testing.T) {
	cases := []string{
		`{"materials":{"/abs":{"sha256":"aa"}}}`,
		`{"materials":{"ok":{"sha256":"XYZ"}}}`,
		`{"materials":{"ok":{}}}`,
		`{"materials":{"ok":{"sha256":7}}}`,
		`{"materials":"not an object"}`,
	}
	for _, src := range cases {
		tree, err := cjson.Deserialize([]byte(src))
		if err != nil {
			t.Fatalf("Deserialize(%q): %v", src, err)
		}
		o, err := cjson.AsObj(tree, "")
		if err != nil {
			t.Fatalf("AsObj: %v", err)
		}
		_, err = DecodeArtifacts(o, "materials")
		if !cjson.IsKind(err, cjson.KindSchemaMismatch) {
			t.Fatalf("DecodeArtifacts(%q): expected KindSchemaMismatch, got %v", src, err)
		}
	}
}
