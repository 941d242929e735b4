// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package memory provides an in-process, in-memory implementation of
// entity.Database.  There is no persistence, nor is there any
// automatic sharing.  The entire database is behind a single global
// semaphore to protect against concurrent updates; in some cases this
// can limit performance in the name of correctness.
//
// This is mostly intended as a simple reference implementation that
// can be used for testing, including in-process testing of the REST
// layer.  It is generally tuned for correctness, not performance or
// scalability.
package memory

import (
	"sync"

	"github.com/diffeo/go-restler/entity"
)

// New creates a new entity.Database that operates purely in memory,
// holding the given kinds.  Each kind is initialized with
// entity.Kind.Init().
func New(kinds ...*entity.Kind) (entity.Database, error) {
	db := &memDatabase{stores: make(map[string]*memStore)}
	for _, kind := range kinds {
		if err := kind.Init(); err != nil {
			return nil, err
		}
		if _, dup := db.stores[kind.Name]; dup {
			return nil, entity.ErrBadKind{Kind: kind.Name, Reason: "registered twice"}
		}
		db.kinds = append(db.kinds, kind)
		db.stores[kind.Name] = newStore(db, kind)
	}
	return db, nil
}

// lockable is a common interface for objects that need to take the
// global lock on the database state.
type lockable interface {
	// Database returns a pointer to the database object at the
	// root of this object tree.
	Database() *memDatabase
}

// globalLock locks the database object at the root of the object
// tree.  Pair this with globalUnlock, as
//
//     globalLock(self)
//     defer globalUnlock(self)
func globalLock(l lockable) {
	l.Database().sem.Lock()
}

// globalUnlock unlocks the database object at the root of the object
// tree.
func globalUnlock(l lockable) {
	l.Database().sem.Unlock()
}

type memDatabase struct {
	kinds  []*entity.Kind
	stores map[string]*memStore
	sem    sync.Mutex
}

func (db *memDatabase) Kinds() []*entity.Kind {
	return append([]*entity.Kind(nil), db.kinds...)
}

func (db *memDatabase) Store(name string) (entity.Store, error) {
	kind, err := entity.FindKind(db.kinds, name)
	if err != nil {
		return nil, err
	}
	return db.stores[kind.Name], nil
}

func (db *memDatabase) Database() *memDatabase {
	return db
}
