// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package entity

import (
	"sort"
	"strings"
)

// Property is a computed attribute of a member.  Properties are part
// of a kind's public names unless their name begins with an
// underscore.
type Property func(m *Member) (interface{}, error)

// Relation describes a belongs-to link from one kind to another.  The
// member's ForeignKey column holds the (single-column) primary key of
// the related member, and the relation's Name can be used as an
// attribute path segment to reach it.
type Relation struct {
	// Name is the attribute name of the related member.
	Name string `mapstructure:"name"`

	// Kind names the related kind.
	Kind string `mapstructure:"kind"`

	// ForeignKey is the column holding the related member's key.
	// If empty, Name + "_id".
	ForeignKey string `mapstructure:"foreign_key"`
}

// Kind describes an entity type.
type Kind struct {
	// Name is the CamelCase type name, e.g. "WorkUnit".
	Name string `mapstructure:"name"`

	// MemberName is the underscored name of a single member,
	// e.g. "work_unit".  Derived from Name if empty.
	MemberName string `mapstructure:"member_name"`

	// CollectionName is the underscored name of the collection,
	// e.g. "work_units".  Derived from MemberName if empty.
	CollectionName string `mapstructure:"collection_name"`

	// MemberTitle is the human-readable member name, e.g. "Work
	// Unit".  Derived from MemberName if empty.
	MemberTitle string `mapstructure:"member_title"`

	// CollectionTitle is the human-readable collection name,
	// e.g. "Work Units".  Derived from CollectionName if empty.
	CollectionTitle string `mapstructure:"collection_title"`

	// Table is the database table name.  Derived from
	// CollectionName if empty.
	Table string `mapstructure:"table"`

	// PrimaryKey lists the primary key column names in order.  If
	// empty, ["id"], and an integer "id" column is added if the
	// kind does not declare one.
	PrimaryKey []string `mapstructure:"primary_key"`

	// Columns lists the stored attributes.
	Columns []Column `mapstructure:"columns"`

	// Properties holds computed attributes by name.
	Properties map[string]Property `mapstructure:"-"`

	// Relations lists belongs-to links to other kinds.
	Relations []Relation `mapstructure:"relations"`

	columnIndex map[string]int
}

// Init fills in derived names and validates the kind.  It must be
// called once before the kind is used; Database implementations call
// it for the kinds they are given.
func (k *Kind) Init() error {
	if k.Name == "" {
		return ErrNoKindName
	}
	if k.MemberName == "" {
		k.MemberName = CamelToUnderscore(k.Name)
	}
	if k.CollectionName == "" {
		k.CollectionName = k.MemberName + "s"
	}
	if k.MemberTitle == "" {
		k.MemberTitle = UnderscoreToTitle(k.MemberName)
	}
	if k.CollectionTitle == "" {
		k.CollectionTitle = UnderscoreToTitle(k.CollectionName)
	}
	if k.Table == "" {
		k.Table = k.CollectionName
	}

	k.columnIndex = make(map[string]int)
	for i, column := range k.Columns {
		if column.Name == "" {
			return ErrBadKind{Kind: k.Name, Reason: "column with no name"}
		}
		if _, dup := k.columnIndex[column.Name]; dup {
			return ErrBadKind{Kind: k.Name, Reason: "duplicate column " + column.Name}
		}
		if column.Type == "" {
			k.Columns[i].Type = Text
		}
		k.columnIndex[column.Name] = i
	}

	if len(k.PrimaryKey) == 0 {
		k.PrimaryKey = []string{"id"}
		if _, present := k.columnIndex["id"]; !present {
			k.Columns = append([]Column{{Name: "id", Type: Integer}}, k.Columns...)
			for name := range k.columnIndex {
				k.columnIndex[name]++
			}
			k.columnIndex["id"] = 0
		}
	}
	for _, name := range k.PrimaryKey {
		if _, present := k.columnIndex[name]; !present {
			return ErrBadKind{Kind: k.Name, Reason: "no primary key column " + name}
		}
	}

	for i, rel := range k.Relations {
		if rel.Name == "" || rel.Kind == "" {
			return ErrBadKind{Kind: k.Name, Reason: "relation needs a name and a kind"}
		}
		if rel.ForeignKey == "" {
			k.Relations[i].ForeignKey = rel.Name + "_id"
		}
		if _, present := k.columnIndex[k.Relations[i].ForeignKey]; !present {
			return ErrBadKind{Kind: k.Name, Reason: "no foreign key column " + k.Relations[i].ForeignKey}
		}
	}
	return nil
}

// Column returns the named column, or false if there is no such
// column.
func (k *Kind) Column(name string) (Column, bool) {
	i, present := k.columnIndex[name]
	if !present {
		return Column{}, false
	}
	return k.Columns[i], true
}

// Relation returns the named relation, or false if there is no such
// relation.
func (k *Kind) Relation(name string) (Relation, bool) {
	for _, rel := range k.Relations {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relation{}, false
}

// ColumnNames returns the names of all columns in declaration order.
func (k *Kind) ColumnNames() []string {
	names := make([]string, len(k.Columns))
	for i, column := range k.Columns {
		names[i] = column.Name
	}
	return names
}

// PublicNames returns the sorted names of the columns and properties
// that are serialized by default: everything not private and not
// beginning with an underscore.
func (k *Kind) PublicNames() []string {
	var names []string
	for _, column := range k.Columns {
		if column.Private || strings.HasPrefix(column.Name, "_") {
			continue
		}
		names = append(names, column.Name)
	}
	for name := range k.Properties {
		if strings.HasPrefix(name, "_") {
			continue
		}
		if _, isColumn := k.columnIndex[name]; isColumn {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GeneratedKey returns the primary key column if a store can generate
// its value for a new member: a single integer or uuid column.
func (k *Kind) GeneratedKey() (Column, bool) {
	if len(k.PrimaryKey) != 1 {
		return Column{}, false
	}
	column, _ := k.Column(k.PrimaryKey[0])
	switch column.Type {
	case Integer, UUID:
		return column, true
	}
	return Column{}, false
}

// HasSlug returns true if the kind has a "slug" column, which the REST
// layer tries before the primary key when looking up members.
func (k *Kind) HasSlug() bool {
	_, present := k.columnIndex["slug"]
	return present
}

// New creates a new, unsaved member of this kind with column defaults
// filled in.  A default that does not convert to its column's type is
// left unset.
func (k *Kind) New() *Member {
	m := &Member{Kind: k, values: make(map[string]interface{})}
	for _, column := range k.Columns {
		if column.Default == nil {
			continue
		}
		if value, err := column.Convert(column.Default); err == nil {
			m.values[column.Name] = value
		}
	}
	return m
}

// Load creates a saved member from stored column values, as a Store
// does when reading from its backing storage.  Values are converted to
// their column types; names that are not columns are ignored.
func (k *Kind) Load(values map[string]interface{}) (*Member, error) {
	m := &Member{Kind: k, values: make(map[string]interface{}), saved: true}
	for name, value := range values {
		column, present := k.Column(name)
		if !present {
			continue
		}
		converted, err := column.Convert(value)
		if err != nil {
			return nil, err
		}
		m.values[name] = converted
	}
	return m, nil
}
