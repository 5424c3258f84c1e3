// Package cjson implements the canonical JSON interchange used for hashing
// and signing attestation metadata.
//
// Canonical form rules:
//
//   - object keys sorted by byte value, no insignificant whitespace
//   - numbers are integers in plain decimal: no exponent, no fraction,
//     no leading zeros; negative zero encodes as 0
//   - strings escape only `"`, `\` and control characters below U+0020
//     (shortest escape, else lowercase \u00xx); all other bytes pass
//     through verbatim, UTF-8 preserved as-is
//   - true/false/null literals
//
// The rules are applied as a pass over an intermediate tree, never left to
// the incidental key ordering of a host map. The intermediate tree is the
// restricted value set
//
//	nil | bool | string | json.Number | []any | map[string]any
//
// produced by Serialize and Deserialize and consumed by Canonicalize.
//
// All hashing, signing, CID derivation, and store ingestion of attestation
// metadata MUST pass through Marshal or Canonicalize.
package cjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Serialize encodes an arbitrary Go value into the intermediate tree.
//
// Struct tags and marshaling behave exactly as encoding/json; numbers are
// kept exact as json.Number. Canonical rules are not applied here.
func Serialize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, WrapError(KindUnrepresentable, "CJSON-SER-030",
			fmt.Sprintf("value of type %T is not encodable", v), err)
	}
	tree, err := Deserialize(raw)
	if err != nil {
		// encoding/json output is always well-formed; anything else is a bug.
		return nil, WrapError(KindInternal, "CJSON-SER-031",
			"re-parse of encoded value failed", err)
	}
	return tree, nil
}

// Deserialize parses data into the intermediate tree.
//
// The parse is strict and fail-closed: non-UTF-8 input, invalid syntax,
// duplicate object keys, and trailing data after the first value are all
// rejected with KindMalformed.
func Deserialize(data []byte) (any, error) {
	if !utf8.Valid(data) {
		return nil, NewError(KindMalformed, "CJSON-STR-001", "input is not valid UTF-8")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, NewError(KindMalformed, "CJSON-PARSE-003", "trailing data after value")
	}
	return v, nil
}

// Canonicalize emits canonical bytes for an intermediate tree.
//
// For hand-built trees the Go integer types int, int64, and uint64 are
// accepted alongside json.Number; float64 is accepted and subject to the
// integer-only rule. Any other node type is an internal error.
//
// Canonicalize is idempotent through Deserialize:
// Canonicalize(Deserialize(Canonicalize(x))) == Canonicalize(x).
func Canonicalize(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := emit(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Marshal is Serialize followed by Canonicalize: the common encode path for
// well-typed records.
func Marshal(v any) ([]byte, error) {
	tree, err := Serialize(v)
	if err != nil {
		return nil, err
	}
	return Canonicalize(tree)
}

func parseValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, wrapSyntax(err)
	}
	return parseToken(dec, tok)
}

func parseToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		}
		// '}' and ']' cannot appear here; Decoder enforces nesting.
		return nil, NewError(KindInternal, "CJSON-PARSE-009", "unexpected delimiter")
	case bool, string, json.Number:
		return t, nil
	case nil:
		return nil, nil
	}
	return nil, NewError(KindInternal, "CJSON-PARSE-009",
		fmt.Sprintf("unexpected token type %T", tok))
}

func parseObject(dec *json.Decoder) (any, error) {
	m := make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, wrapSyntax(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, NewError(KindInternal, "CJSON-PARSE-009", "object key is not a string")
		}
		if _, dup := m[key]; dup {
			return nil, NewError(KindMalformed, "CJSON-PARSE-004",
				fmt.Sprintf("duplicate object key %q", key))
		}
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		m[key] = val
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return nil, wrapSyntax(err)
	}
	return m, nil
}

func parseArray(dec *json.Decoder) (any, error) {
	arr := []any{}
	for dec.More() {
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return nil, wrapSyntax(err)
	}
	return arr, nil
}

func wrapSyntax(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return NewError(KindMalformed, "CJSON-PARSE-002", "unexpected end of input")
	}
	return WrapError(KindMalformed, "CJSON-PARSE-002", "invalid JSON syntax", err)
}

func emit(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		emitString(buf, t)
	case json.Number:
		return emitNumber(buf, t.String())
	case int:
		buf.WriteString(strconv.FormatInt(int64(t), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(t, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(t, 10))
	case float64:
		return emitNumber(buf, strconv.FormatFloat(t, 'g', -1, 64))
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := emit(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			emitString(buf, k)
			buf.WriteByte(':')
			if err := emit(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return NewError(KindInternal, "CJSON-TREE-020",
			fmt.Sprintf("value of type %T is not an intermediate tree node", v))
	}
	return nil
}

// emitNumber enforces the integer-only rule. Integral values written with an
// exponent or fraction ("1e3", "2.0") normalize to plain decimal; negative
// zero normalizes to 0; everything else is unrepresentable.
func emitNumber(buf *bytes.Buffer, s string) error {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		buf.WriteString(strconv.FormatInt(i, 10))
		return nil
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		buf.WriteString(strconv.FormatUint(u, 10))
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NewError(KindUnrepresentable, "CJSON-NUM-010",
			fmt.Sprintf("number %q is not representable", s))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return NewError(KindUnrepresentable, "CJSON-NUM-010",
			fmt.Sprintf("non-integral number %q is not representable", s))
	}
	// Beyond 2^53 the float64 path has already lost digits.
	if math.Abs(f) >= 1<<53 {
		return NewError(KindUnrepresentable, "CJSON-NUM-011",
			fmt.Sprintf("integer %q exceeds the exact range", s))
	}
	buf.WriteString(strconv.FormatInt(int64(f), 10))
	return nil
}

// emitString writes s with the canonical escape set: `\` and `"` are
// backslash-escaped, control characters below U+0020 use the shortest
// standard escape (else lowercase \u00xx), everything else is verbatim.
func emitString(buf *bytes.Buffer, s string) {
	const hexdigits = "0123456789abcdef"
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			buf.WriteString(`\"`)
		case c == '\\':
			buf.WriteString(`\\`)
		case c >= 0x20:
			buf.WriteByte(c)
		case c == '\b':
			buf.WriteString(`\b`)
		case c == '\t':
			buf.WriteString(`\t`)
		case c == '\n':
			buf.WriteString(`\n`)
		case c == '\f':
			buf.WriteString(`\f`)
		case c == '\r':
			buf.WriteString(`\r`)
		default:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexdigits[c>>4])
			buf.WriteByte(hexdigits[c&0xf])
		}
	}
	buf.WriteByte('"')
}
