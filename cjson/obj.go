package cjson

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Obj wraps a decoded object node for strict, allow-list field extraction.
//
// Record decoders take each declared field through a typed accessor and then
// call Finish, which rejects every key that was not taken. This makes the
// allow-list explicit in the decoder itself rather than delegated to a
// framework flag.
//
// Required accessors reject absent and null values. Optional accessors
// treat absent and null alike and report presence in their second result.
type Obj struct {
	path string
	m    map[string]any
	seen map[string]struct{}
}

// AsObj asserts that v is an object node. path names the location for error
// messages ("" for the document root).
func AsObj(v any, path string) (*Obj, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, NewError(KindSchemaMismatch, "CJSON-SCHEMA-101",
			fmt.Sprintf("%s is not an object", loc(path)))
	}
	return &Obj{path: path, m: m, seen: make(map[string]struct{}, len(m))}, nil
}

// Has reports whether key is present (including an explicit null).
func (o *Obj) Has(key string) bool {
	_, ok := o.m[key]
	return ok
}

// Keys returns all keys in sorted order. It does not mark any key as taken.
func (o *Obj) Keys() []string {
	keys := make([]string, 0, len(o.m))
	for k := range o.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Value takes a required field of any type.
func (o *Obj) Value(key string) (any, error) {
	v, ok := o.m[key]
	if !ok {
		return nil, o.missing(key)
	}
	o.seen[key] = struct{}{}
	return v, nil
}

// String takes a required string field.
func (o *Obj) String(key string) (string, error) {
	v, err := o.Value(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", o.wrongType(key, "string", v)
	}
	return s, nil
}

// Int takes a required integer field.
func (o *Obj) Int(key string) (int64, error) {
	v, err := o.Value(key)
	if err != nil {
		return 0, err
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, o.wrongType(key, "integer", v)
	}
	i, perr := strconv.ParseInt(n.String(), 10, 64)
	if perr != nil {
		return 0, o.wrongType(key, "integer", v)
	}
	return i, nil
}

// Bool takes a required boolean field.
func (o *Obj) Bool(key string) (bool, error) {
	v, err := o.Value(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, o.wrongType(key, "boolean", v)
	}
	return b, nil
}

// Child takes a required object field.
func (o *Obj) Child(key string) (*Obj, error) {
	v, err := o.Value(key)
	if err != nil {
		return nil, err
	}
	child, ok := v.(map[string]any)
	if !ok {
		return nil, o.wrongType(key, "object", v)
	}
	return &Obj{path: o.at(key), m: child, seen: make(map[string]struct{}, len(child))}, nil
}

// Array takes a required array field.
func (o *Obj) Array(key string) ([]any, error) {
	v, err := o.Value(key)
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, o.wrongType(key, "array", v)
	}
	return arr, nil
}

// StringMap takes a required object field whose values are all strings.
func (o *Obj) StringMap(key string) (map[string]string, error) {
	child, err := o.Child(key)
	if err != nil {
		return nil, err
	}
	return child.allStrings()
}

// OptionalString takes an optional string field; absent and null report ok=false.
func (o *Obj) OptionalString(key string) (string, bool, error) {
	v, ok := o.take(key)
	if !ok || v == nil {
		return "", false, nil
	}
	s, isStr := v.(string)
	if !isStr {
		return "", false, o.wrongType(key, "string", v)
	}
	return s, true, nil
}

// OptionalInt takes an optional integer field; absent and null report ok=false.
func (o *Obj) OptionalInt(key string) (int64, bool, error) {
	v, ok := o.take(key)
	if !ok || v == nil {
		return 0, false, nil
	}
	n, isNum := v.(json.Number)
	if !isNum {
		return 0, false, o.wrongType(key, "integer", v)
	}
	i, perr := strconv.ParseInt(n.String(), 10, 64)
	if perr != nil {
		return 0, false, o.wrongType(key, "integer", v)
	}
	return i, true, nil
}

// OptionalChild takes an optional object field; absent and null report ok=false.
func (o *Obj) OptionalChild(key string) (*Obj, bool, error) {
	v, ok := o.take(key)
	if !ok || v == nil {
		return nil, false, nil
	}
	child, isObj := v.(map[string]any)
	if !isObj {
		return nil, false, o.wrongType(key, "object", v)
	}
	return &Obj{path: o.at(key), m: child, seen: make(map[string]struct{}, len(child))}, true, nil
}

// OptionalStringMap takes an optional all-string object field; absent and
// null report ok=false.
func (o *Obj) OptionalStringMap(key string) (map[string]string, bool, error) {
	child, ok, err := o.OptionalChild(key)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := child.allStrings()
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// Finish rejects every field that was not taken by an accessor.
func (o *Obj) Finish() error {
	var unknown []string
	for k := range o.m {
		if _, ok := o.seen[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return NewError(KindSchemaMismatch, "CJSON-SCHEMA-104",
		fmt.Sprintf("unknown field(s) %s in %s", strings.Join(unknown, ", "), loc(o.path)))
}

func (o *Obj) allStrings() (map[string]string, error) {
	out := make(map[string]string, len(o.m))
	for _, k := range o.Keys() {
		s, err := o.String(k)
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	return out, nil
}

func (o *Obj) take(key string) (any, bool) {
	v, ok := o.m[key]
	if ok {
		o.seen[key] = struct{}{}
	}
	return v, ok
}

func (o *Obj) missing(key string) error {
	return NewError(KindSchemaMismatch, "CJSON-SCHEMA-102",
		fmt.Sprintf("missing required field %s", loc(o.at(key))))
}

func (o *Obj) wrongType(key, want string, got any) error {
	return NewError(KindSchemaMismatch, "CJSON-SCHEMA-103",
		fmt.Sprintf("field %s is not a %s (got %s)", loc(o.at(key)), want, typeName(got)))
}

func (o *Obj) at(key string) string {
	if o.path == "" {
		return key
	}
	return o.path + "." + key
}

func loc(path string) string {
	if path == "" {
		return "document root"
	}
	return strconv.Quote(path)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
