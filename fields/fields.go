// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package fields implements the field selection language clients use
// to choose which attributes of an entity appear in a JSON response,
// and under what names.
//
// A field spec is normally a JSON list.  Each item is one of
//
//     "*"                          every default (public) field
//     "name" or "+name"            include name as itself
//     "-name"                      exclude name
//     {"name": n, "mapping": m}    include n, output as m
//
// An older form is a JSON object mapping names to output names, where
// each key/value pair is treated like {"name": key, "mapping": value};
// a key of "*" still selects the default fields.
//
// If the spec is absent, or contains "*", the result starts with the
// default fields.  Otherwise it contains only what is explicitly
// listed.  Exclusions are applied last, so an excluded name never
// appears in the result no matter where it is listed.  Names may be
// dotted attribute paths, such as "directory.title".
package fields

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/ugorji/go/codec"
)

// Glob selects every default field.
const Glob = "*"

// Field is a single selected attribute.
type Field struct {
	// Path is the (possibly dotted) attribute path to read.
	Path string

	// As is the key the value is written under.
	As string
}

// Set is a resolved set of fields.  It has no ordering.
type Set map[Field]struct{}

// NewSet creates a set containing some fields.
func NewSet(fields ...Field) Set {
	s := make(Set, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// Defaults creates a set with each name mapped to itself.
func Defaults(names []string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		s[Field{Path: name, As: name}] = struct{}{}
	}
	return s
}

// Has returns true if f is in the set.
func (s Set) Has(f Field) bool {
	_, present := s[f]
	return present
}

// Sorted returns the fields in the set ordered by output name, then
// path.
func (s Set) Sorted() []Field {
	result := make([]Field, 0, len(s))
	for f := range s {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].As != result[j].As {
			return result[i].As < result[j].As
		}
		return result[i].Path < result[j].Path
	})
	return result
}

// ErrBadFieldSpec is returned when a decoded field spec, or one of
// its items, is not of a supported shape.
type ErrBadFieldSpec struct {
	Item interface{}
}

func (e ErrBadFieldSpec) Error() string {
	return fmt.Sprintf("Invalid field spec item %#v", e.Item)
}

// ErrMalformed is returned from Parse() if the field spec is not
// valid JSON.
type ErrMalformed struct {
	Raw string
	Err error
}

func (e ErrMalformed) Error() string {
	return fmt.Sprintf("Malformed field spec %q: %v", e.Raw, e.Err)
}

// resolver accumulates the parts of a spec while it is walked.
type resolver struct {
	glob    bool
	include Set
	exclude map[string]struct{}
}

// add records a single name, with its optional output name.
func (r *resolver) add(name, as string) error {
	switch {
	case name == Glob:
		r.glob = true
		return nil
	case strings.HasPrefix(name, "-"):
		name = name[1:]
		if name == "" {
			return ErrBadFieldSpec{Item: "-"}
		}
		r.exclude[name] = struct{}{}
		return nil
	case strings.HasPrefix(name, "+"):
		name = name[1:]
	}
	if name == "" {
		return ErrBadFieldSpec{Item: name}
	}
	if as == "" {
		as = name
	}
	r.include[Field{Path: name, As: as}] = struct{}{}
	return nil
}

// addItem records one item of a list-form spec.
func (r *resolver) addItem(item interface{}) error {
	switch it := item.(type) {
	case string:
		return r.add(it, "")
	case map[string]interface{}:
		name, isString := it["name"].(string)
		if !isString {
			return ErrBadFieldSpec{Item: item}
		}
		as := ""
		if mapping, present := it["mapping"]; present && mapping != nil {
			if as, isString = mapping.(string); !isString {
				return ErrBadFieldSpec{Item: item}
			}
		}
		return r.add(name, as)
	case map[interface{}]interface{}:
		converted, err := stringKeys(it)
		if err != nil {
			return err
		}
		return r.addItem(converted)
	}
	return ErrBadFieldSpec{Item: item}
}

// addPairs records the entries of a legacy mapping-form spec.
func (r *resolver) addPairs(pairs map[string]interface{}) error {
	for name, value := range pairs {
		as, isString := value.(string)
		if !isString && value != nil {
			return ErrBadFieldSpec{Item: map[string]interface{}{name: value}}
		}
		if err := r.add(name, as); err != nil {
			return err
		}
	}
	return nil
}

// Resolve computes the field set for a decoded spec.  spec may be
// nil (select the defaults), a list of items, or a legacy mapping;
// defaults are the names selected by "*".
func Resolve(spec interface{}, defaults []string) (Set, error) {
	r := resolver{include: make(Set), exclude: make(map[string]struct{})}
	var err error
	switch s := spec.(type) {
	case nil:
		r.glob = true
	case []string:
		for _, item := range s {
			if err = r.add(item, ""); err != nil {
				break
			}
		}
	case []interface{}:
		for _, item := range s {
			if err = r.addItem(item); err != nil {
				break
			}
		}
	case map[string]interface{}:
		err = r.addPairs(s)
	case map[string]string:
		for name, as := range s {
			if err = r.add(name, as); err != nil {
				break
			}
		}
	case map[interface{}]interface{}:
		var converted map[string]interface{}
		converted, err = stringKeys(s)
		if err == nil {
			err = r.addPairs(converted)
		}
	default:
		err = ErrBadFieldSpec{Item: spec}
	}
	if err != nil {
		return nil, err
	}

	result := r.include
	if r.glob {
		for _, name := range defaults {
			result[Field{Path: name, As: name}] = struct{}{}
		}
	}
	for f := range result {
		if _, excluded := r.exclude[f.Path]; excluded {
			delete(result, f)
		}
	}
	return result, nil
}

// Parse decodes a JSON field spec, as it arrives in a request
// parameter, and resolves it.  An empty or all-whitespace string is
// the absent spec and selects the defaults.  Invalid JSON returns
// ErrMalformed.
func Parse(raw string, defaults []string) (Set, error) {
	if strings.TrimSpace(raw) == "" {
		return Resolve(nil, defaults)
	}
	var spec interface{}
	h := &codec.JsonHandle{}
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	decoder := codec.NewDecoder(bytes.NewReader([]byte(raw)), h)
	if err := decoder.Decode(&spec); err != nil {
		return nil, ErrMalformed{Raw: raw, Err: err}
	}
	return Resolve(spec, defaults)
}

func stringKeys(in map[interface{}]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		s, isString := k.(string)
		if !isString {
			return nil, ErrBadFieldSpec{Item: in}
		}
		out[s] = v
	}
	return out, nil
}
