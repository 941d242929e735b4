// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package entity defines the storage-facing half of Restler: entity
// kinds, their members, and the Store and Database interfaces that
// backends implement.
//
// A Kind describes one entity type.  Most of its naming is derived
// from its CamelCase type name, following the usual REST resource
// conventions:
//
//     kind := &entity.Kind{Name: "WorkUnit"}
//     kind.Init()
//     kind.MemberName      // "work_unit"
//     kind.CollectionName  // "work_units"
//     kind.MemberTitle     // "Work Unit"
//     kind.CollectionTitle // "Work Units"
//
// Any of these can be set explicitly before calling Init(), in which
// case the explicit value is kept.
//
// A Member is a single instance of a Kind, holding its column values.
// Members are created with Kind.New() or by a Store, and are persisted
// through the Store for their kind.  A Database groups the stores for
// a set of kinds; the memory and postgres packages provide
// implementations, and the cache package wraps any other Database.
package entity

import (
	"context"
)

// Database is the top-level interface to a set of entity stores.
type Database interface {
	// Kinds returns all of the kinds this database knows about,
	// in the order they were registered.
	Kinds() []*Kind

	// Store returns the store for the named kind.  The name may be
	// the kind's CamelCase name or its member name.  If there is no
	// such kind, returns ErrNoSuchKind.
	Store(kind string) (Store, error)
}

// Store provides CRUD access to the members of a single kind.
type Store interface {
	// Kind returns the kind of the members of this store.
	Kind() *Kind

	// New creates a new, unsaved member with column defaults
	// filled in.  It is not visible to other calls until it is
	// passed to Create().
	New() *Member

	// Get retrieves a single member by primary key.  If there is
	// no such member, returns ErrNoSuchMember.
	Get(ctx context.Context, key Key) (*Member, error)

	// Find retrieves the members that match a query.  If nothing
	// matches, returns an empty slice and no error.
	Find(ctx context.Context, q Query) ([]*Member, error)

	// Count returns the number of members that match the filters
	// of a query.  Its offset, limit, and ordering are ignored.
	Count(ctx context.Context, q Query) (int, error)

	// Create stores a new member.  If the member's primary key is
	// unset and can be generated (integer or uuid single-column
	// keys), it is filled in on m.  Returns ErrDuplicateKey if a
	// member with the same key already exists.
	Create(ctx context.Context, m *Member) error

	// Update writes the current values of a previously saved
	// member back to the store.
	Update(ctx context.Context, m *Member) error

	// Delete removes a previously saved member.
	Delete(ctx context.Context, m *Member) error
}

// Loader fetches a member of some other kind by key.  It is used to
// follow Relations while resolving dotted attribute paths.
type Loader func(kind string, key Key) (*Member, error)

// DatabaseLoader returns a Loader that fetches members from a
// Database.
func DatabaseLoader(ctx context.Context, db Database) Loader {
	return func(kind string, key Key) (*Member, error) {
		store, err := db.Store(kind)
		if err != nil {
			return nil, err
		}
		return store.Get(ctx, key)
	}
}

// FindBy retrieves the members of a store whose columns equal the
// given values, in primary key order.
func FindBy(ctx context.Context, s Store, values map[string]interface{}) ([]*Member, error) {
	q := Query{}
	for name, value := range values {
		q.Filters = append(q.Filters, Filter{Column: name, Op: Eq, Value: value})
	}
	return s.Find(ctx, q)
}

// FindKind looks up a kind by CamelCase name or member name in a list
// of kinds.  It is a helper for Database implementations.
func FindKind(kinds []*Kind, name string) (*Kind, error) {
	for _, kind := range kinds {
		if kind.Name == name || kind.MemberName == name {
			return kind, nil
		}
	}
	return nil, ErrNoSuchKind{Name: name}
}
