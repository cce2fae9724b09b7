package schema

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
)

var (
	// ErrInvalidSchema is returned when a value can not be decoded as an object schema.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrUnresolvedRef is returned when a $ref does not point to a local definition.
	ErrUnresolvedRef = errors.New("unresolved reference")
	// ErrCyclicRef is returned when definitions reference themselves.
	ErrCyclicRef = errors.New("cyclic reference")
)

var (
	cache   = make(map[reflect.Type]*Schema)
	cacheMu sync.Mutex
)

// Schema is a reflected schema of a Go type
type Schema struct {
	RawSchema *jsonschema.Schema
	// Parameters represents the flattened object definition,
	// with all references resolved
	Parameters *jsonschema.Schema
}

// New creates a new schema from the given type
func New(t reflect.Type) (*Schema, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if s, ok := cache[t]; ok {
		return s, nil
	}

	raw := JSONSchema(t)
	params, err := Flatten(raw)
	if err != nil {
		return nil, err
	}

	s := &Schema{
		RawSchema:  raw,
		Parameters: params,
	}
	cache[t] = s
	return s, nil
}

func (s *Schema) String() string {
	js, _ := json.MarshalIndent(s.Parameters, "", "\t")
	return string(js)
}

// JSONSchema return the json schema of the type
func JSONSchema(t reflect.Type) *jsonschema.Schema {
	// VS Code does not support the jsonschema version 2020-12
	jsonschema.Version = "http://json-schema.org/draft-07/schema#"

	r := new(jsonschema.Reflector)
	r.ExpandedStruct = true
	r.DoNotReference = true
	r.AllowAdditionalProperties = true

	// Struct names may collide across packages,
	// the hash of the package path keeps definitions apart.
	// See https://github.com/invopop/jsonschema/issues/42
	r.Namer = func(t reflect.Type) string {
		name := t.Name()
		if t.Kind() == reflect.Struct {
			fullname := t.PkgPath() + "/" + t.Name()
			name = t.Name() + "@" + strconv.FormatUint(xxhash.Sum64String(fullname), 10)
		}
		return name
	}

	return r.ReflectFromType(t)
}

// FromAny creates a json schema from any JSON-shaped value.
//
// For example:
//
//	map[string]any{
//		"type": "object",
//		"properties": map[string]any{
//			"query": map[string]any{
//				"type": "string",
//			},
//		},
//	}
func FromAny(t any) (*jsonschema.Schema, error) {
	js, err := toRaw(t)
	if err != nil {
		return nil, err
	}
	schema := &jsonschema.Schema{}
	if err = json.Unmarshal(js, schema); err != nil {
		return nil, errors.Wrap(ErrInvalidSchema, err.Error())
	}
	return schema, nil
}

// MustFromAny is FromAny that panics on error, for static definitions.
func MustFromAny(t any) *jsonschema.Schema {
	s, err := FromAny(t)
	if err != nil {
		panic(err)
	}
	return s
}

// Normalize decodes a tool input schema supplied by a server
// and returns an object schema with local references resolved.
// Both `$defs` and draft-07 `definitions` are supported.
func Normalize(v any) (*jsonschema.Schema, error) {
	if v == nil {
		return nil, errors.Wrap(ErrInvalidSchema, "nil schema")
	}
	js, err := toRaw(v)
	if err != nil {
		return nil, err
	}

	s := &jsonschema.Schema{}
	if err = json.Unmarshal(js, s); err != nil {
		return nil, errors.Wrap(ErrInvalidSchema, err.Error())
	}

	var legacy struct {
		Definitions jsonschema.Definitions `json:"definitions"`
	}
	if err = json.Unmarshal(js, &legacy); err == nil && len(legacy.Definitions) > 0 {
		if s.Definitions == nil {
			s.Definitions = jsonschema.Definitions{}
		}
		for k, d := range legacy.Definitions {
			if _, ok := s.Definitions[k]; !ok {
				s.Definitions[k] = d
			}
		}
	}

	return Flatten(s)
}

// Flatten returns an object schema with all local references resolved
// and definitions removed.
func Flatten(s *jsonschema.Schema) (*jsonschema.Schema, error) {
	if s == nil {
		return nil, errors.Wrap(ErrInvalidSchema, "nil schema")
	}

	r := &resolver{
		defs:     s.Definitions,
		visiting: map[string]bool{},
	}

	root := s
	if s.Ref != "" {
		name, ok := refName(s.Ref)
		if !ok || r.defs[name] == nil {
			return nil, errors.Wrap(ErrUnresolvedRef, s.Ref)
		}
		root = r.defs[name]
	}

	if root.Type != "object" {
		return nil, errors.Wrapf(ErrInvalidSchema, "expected object type, got %q", root.Type)
	}

	res, err := r.resolve(root)
	if err != nil {
		return nil, err
	}
	res.Version = ""
	res.ID = ""
	res.Ref = ""
	if res.Properties == nil {
		res.Properties = jsonschema.NewProperties()
	}
	return res, nil
}

// ToMap converts a schema-shaped value into a generic JSON object.
func ToMap(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	js, err := toRaw(v)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err = json.Unmarshal(js, &m); err != nil {
		return nil, errors.Wrap(ErrInvalidSchema, err.Error())
	}
	return m, nil
}

func toRaw(v any) ([]byte, error) {
	switch val := v.(type) {
	case json.RawMessage:
		return val, nil
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	}
	js, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSchema, err.Error())
	}
	return js, nil
}

func refName(ref string) (string, bool) {
	for _, prefix := range []string{"#/$defs/", "#/definitions/"} {
		if name, ok := strings.CutPrefix(ref, prefix); ok && name != "" {
			return name, true
		}
	}
	return "", false
}

type resolver struct {
	defs     jsonschema.Definitions
	visiting map[string]bool
}

func (r *resolver) resolve(s *jsonschema.Schema) (*jsonschema.Schema, error) {
	if s == nil {
		return nil, nil
	}

	if s.Ref != "" {
		name, ok := refName(s.Ref)
		if !ok {
			return nil, errors.Wrap(ErrUnresolvedRef, s.Ref)
		}
		def, ok := r.defs[name]
		if !ok {
			return nil, errors.Wrap(ErrUnresolvedRef, s.Ref)
		}
		if r.visiting[name] {
			return nil, errors.Wrap(ErrCyclicRef, s.Ref)
		}
		r.visiting[name] = true
		defer delete(r.visiting, name)

		res, err := r.resolve(def)
		if err != nil {
			return nil, err
		}
		if res.Description == "" {
			res.Description = s.Description
		}
		return res, nil
	}

	cp := *s
	cp.Definitions = nil

	if s.Properties != nil {
		props := jsonschema.NewProperties()
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			v, err := r.resolve(pair.Value)
			if err != nil {
				return nil, err
			}
			props.Set(pair.Key, v)
		}
		cp.Properties = props
	}

	var err error
	if cp.Items, err = r.resolve(s.Items); err != nil {
		return nil, err
	}
	if cp.AdditionalProperties, err = r.resolve(s.AdditionalProperties); err != nil {
		return nil, err
	}
	if cp.AnyOf, err = r.resolveList(s.AnyOf); err != nil {
		return nil, err
	}
	if cp.OneOf, err = r.resolveList(s.OneOf); err != nil {
		return nil, err
	}
	if cp.AllOf, err = r.resolveList(s.AllOf); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (r *resolver) resolveList(list []*jsonschema.Schema) ([]*jsonschema.Schema, error) {
	if list == nil {
		return nil, nil
	}
	res := make([]*jsonschema.Schema, 0, len(list))
	for _, s := range list {
		v, err := r.resolve(s)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}
