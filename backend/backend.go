// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package backend provides a standard way to construct an entity
// database based on command-line flags.
package backend

import (
	"errors"
	"strings"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/memory"
	"github.com/diffeo/go-restler/postgres"
)

// Backend describes user-visible parameters to store entity data.
// This implements the flag.Value interface, and so a typical use is
//
//     func main() {
//         backend := backend.Backend{Implementation: "memory"}
//         flag.Var(&backend, "backend", "impl:address of entity storage")
//         flag.Parse()
//         db, err := backend.Database(kinds...)
//     }
//
// It also implements urfave/cli's Generic interface, so it can be the
// Value of a cli.GenericFlag.
type Backend struct {
	// Implementation holds the name of the implementation; for
	// instance, "memory".
	Implementation string

	// Address holds some backend-specific address, such as a
	// database connect string.
	Address string
}

// Database creates a new entity database holding kinds.  This
// generally should be only called once.  If the backend has in-process
// state, such as a database connection pool or an in-memory store,
// calling this multiple times will create multiple copies of that
// state.  In particular, if b.Implementation is "memory", multiple
// calls to this will create multiple independent databases.
func (b *Backend) Database(kinds ...*entity.Kind) (entity.Database, error) {
	switch b.Implementation {
	case "memory":
		return memory.New(kinds...)
	case "postgres", "postgresql":
		return postgres.New(b.Address, kinds...)
	default:
		return nil, errors.New("unknown entity backend " + b.Implementation)
	}
}

// String renders a backend description as a string.
func (b *Backend) String() string {
	if b.Address == "" {
		return b.Implementation
	}
	return b.Implementation + ":" + b.Address
}

// Set parses a string into an existing backend description.  The
// string should be of the form "implementation:address", where
// address can be any string.  Set checks to see if the provided
// implementation is any of the known implementations, and returns an
// appropriate error if not.
//
// This is part of the flag.Value interface.  Note that neither Set
// nor Database attempts to validate the b.Address part of the string
// before actually making a connection.
func (b *Backend) Set(param string) error {
	parts := strings.SplitN(param, ":", 2)
	impl, address := parts[0], ""
	if len(parts) == 2 {
		address = parts[1]
	}
	switch impl {
	case "":
		return errors.New("must specify a backend type")
	case "memory", "postgres", "postgresql":
	default:
		return errors.New("unknown entity backend " + impl)
	}
	b.Implementation = impl
	b.Address = address
	return nil
}
