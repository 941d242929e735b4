// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package entity

import (
	"errors"
	"fmt"
)

// ErrNoKindName is returned from Kind.Init() if the kind has no name.
var ErrNoKindName = errors.New("Kind has no name")

// ErrNotSaved is returned from Store.Update() and Store.Delete() if
// the member has never been stored.
var ErrNotSaved = errors.New("Member has not been saved")

// ErrEmptyCollection is returned by the REST layer when a collection
// query matches nothing and the resource treats that as missing.
var ErrEmptyCollection = errors.New("No collection members found")

// ErrNoSuchKind is returned from Database.Store() if the requested
// kind is not registered.
type ErrNoSuchKind struct {
	Name string
}

func (err ErrNoSuchKind) Error() string {
	return fmt.Sprintf("No such kind %v", err.Name)
}

// ErrNoSuchMember is returned from Store.Get() if there is no member
// with the requested key.
type ErrNoSuchMember struct {
	Kind string
	ID   string
}

func (err ErrNoSuchMember) Error() string {
	return fmt.Sprintf("Member with ID %q not found", err.ID)
}

// ErrDuplicateKey is returned from Store.Create() if a member with the
// same primary key already exists.
type ErrDuplicateKey struct {
	Kind string
	ID   string
}

func (err ErrDuplicateKey) Error() string {
	return fmt.Sprintf("%v with ID %q already exists", err.Kind, err.ID)
}

// ErrMalformedKey is returned from Kind.ParseKey() if a key string
// does not have one part per primary key column, or a part cannot be
// converted to its column's type.
type ErrMalformedKey struct {
	Value  string
	Reason string
}

func (err ErrMalformedKey) Error() string {
	return fmt.Sprintf("Malformed key %q: %v", err.Value, err.Reason)
}

// ErrBadValue is returned when a value cannot be converted to the type
// of the column it is assigned to.
type ErrBadValue struct {
	Column string
	Value  string
	Err    error
}

func (err ErrBadValue) Error() string {
	if err.Err == nil {
		return fmt.Sprintf("Invalid value %q for %v", err.Value, err.Column)
	}
	return fmt.Sprintf("Invalid value %q for %v: %v", err.Value, err.Column, err.Err)
}

// ErrNoSuchAttribute is returned when a column, property, or relation
// name does not exist on a kind.
type ErrNoSuchAttribute struct {
	Kind string
	Name string
}

func (err ErrNoSuchAttribute) Error() string {
	return fmt.Sprintf("%v has no attribute %q", err.Kind, err.Name)
}

// ErrBadKind is returned from Kind.Init() if the kind definition is
// inconsistent, for instance naming a primary key column that does not
// exist.
type ErrBadKind struct {
	Kind   string
	Reason string
}

func (err ErrBadKind) Error() string {
	return fmt.Sprintf("Invalid kind %v: %v", err.Kind, err.Reason)
}
