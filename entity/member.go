// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package entity

import (
	"fmt"
	"sort"
	"strings"
)

// Member is a single instance of a kind.  A Member is not safe for
// concurrent modification; stores hand out independent copies.
type Member struct {
	// Kind is the kind of this member.
	Kind *Kind

	values map[string]interface{}
	saved  bool
}

// Saved returns true if the member has been read from or written to a
// store.
func (m *Member) Saved() bool {
	return m.saved
}

// MarkSaved flags the member as stored.  Store implementations call
// this after a successful Create().
func (m *Member) MarkSaved() {
	m.saved = true
}

// Value returns the raw value of a column, and false if the column has
// no value.
func (m *Member) Value(name string) (interface{}, bool) {
	value, present := m.values[name]
	return value, present
}

// Values returns a copy of all of the member's column values.
func (m *Member) Values() map[string]interface{} {
	result := make(map[string]interface{}, len(m.values))
	for name, value := range m.values {
		result[name] = value
	}
	return result
}

// Set assigns a column value, converting it to the column's type.
// Returns ErrNoSuchAttribute if name is not a column, or ErrBadValue
// if the value does not convert.
func (m *Member) Set(name string, value interface{}) error {
	column, present := m.Kind.Column(name)
	if !present {
		return ErrNoSuchAttribute{Kind: m.Kind.Name, Name: name}
	}
	converted, err := column.Convert(value)
	if err != nil {
		return err
	}
	m.values[name] = converted
	return nil
}

// Key returns the member's primary key.  For an unsaved member with a
// generated key, some parts may be nil.
func (m *Member) Key() Key {
	key := make(Key, len(m.Kind.PrimaryKey))
	for i, name := range m.Kind.PrimaryKey {
		key[i] = m.values[name]
	}
	return key
}

// ID returns the member's identifier: nil if the member has not been
// saved, the key value itself for single-column keys, and a slice of
// the key values for composite keys.
func (m *Member) ID() interface{} {
	if !m.saved {
		return nil
	}
	key := m.Key()
	if len(key) == 1 {
		return key[0]
	}
	return []interface{}(key)
}

// Copy returns an independent copy of the member.
func (m *Member) Copy() *Member {
	return &Member{Kind: m.Kind, values: m.Values(), saved: m.saved}
}

// Attr returns a single named attribute: a column value or a computed
// property.  A column with no value returns nil.
func (m *Member) Attr(name string) (interface{}, error) {
	if _, isColumn := m.Kind.Column(name); isColumn {
		return m.values[name], nil
	}
	if property, isProperty := m.Kind.Properties[name]; isProperty {
		return property(m)
	}
	return nil, ErrNoSuchAttribute{Kind: m.Kind.Name, Name: name}
}

// Get resolves a dotted attribute path, such as "directory.title".
// Each segment is looked up on the value of the previous one:
// members by attribute or relation name, maps by key.  Relations are
// followed with load, which may be nil if the path contains none.  A
// nil value partway along the path resolves to nil.
func (m *Member) Get(path string, load Loader) (interface{}, error) {
	var current interface{} = m
	for _, segment := range strings.Split(path, ".") {
		switch v := current.(type) {
		case nil:
			return nil, nil
		case *Member:
			rel, isRelation := v.Kind.Relation(segment)
			if !isRelation {
				var err error
				current, err = v.Attr(segment)
				if err != nil {
					return nil, err
				}
				continue
			}
			fk := v.values[rel.ForeignKey]
			if fk == nil {
				current = nil
				continue
			}
			if load == nil {
				return nil, ErrNoSuchAttribute{Kind: v.Kind.Name, Name: segment}
			}
			related, err := load(rel.Kind, Key{fk})
			if err != nil {
				return nil, err
			}
			current = related
		case map[string]interface{}:
			current = v[segment]
		default:
			return nil, ErrNoSuchAttribute{Kind: fmt.Sprintf("%T", current), Name: segment}
		}
	}
	return current, nil
}

// ToSimple returns a map representation of the member containing only
// JSON-friendly values.  The map always has a "type" key with the
// kind name.  If names is empty, the kind's public names are used.
func (m *Member) ToSimple(names []string) (map[string]interface{}, error) {
	if len(names) == 0 {
		names = m.Kind.PublicNames()
	}
	obj := map[string]interface{}{"type": m.Kind.Name}
	for _, name := range names {
		value, err := m.Attr(name)
		if err != nil {
			return nil, err
		}
		obj[name], err = Simplify(value)
		if err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// String renders the member as a titled list of its public
// attributes, one per line.
func (m *Member) String() string {
	names := m.Kind.PublicNames()
	sort.Strings(names)
	title := m.Kind.MemberTitle
	lines := []string{title, strings.Repeat("-", len(title))}
	for _, name := range names {
		value, err := m.Attr(name)
		if err != nil {
			value = err
		}
		lines = append(lines, fmt.Sprintf("%s: %v", name, value))
	}
	return strings.Join(lines, "\n")
}
