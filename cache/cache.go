// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package cache provides key-based caching of entity members.  The
// cache wraps some other entity.Database.  Most methods simply pass
// through to the underlying stores, but Store.Get() returns a cached
// member if one is available.
//
// Members written through the cache (Create, Update) replace the
// cached copy, and Delete removes it.  Find and Count always go to the
// underlying store and do not populate the cache.
//
// Caveats
//
// Changes made to the underlying database by anything other than this
// cache are not seen.  A member updated or deleted elsewhere will keep
// being returned from Get until it is evicted.  This is only suitable
// for a single process that owns its data, or for data that does not
// change.
package cache

import (
	"context"

	"github.com/diffeo/go-restler/entity"
)

// DefaultSize is the number of members cached per kind if New() is
// given a non-positive size.
const DefaultSize = 1024

type cache struct {
	backend entity.Database
	stores  map[string]*store
}

// New creates a new caching database, wrapping some other database.
// Up to size members of each kind are kept.
func New(backend entity.Database, size int) entity.Database {
	if size <= 0 {
		size = DefaultSize
	}
	c := &cache{
		backend: backend,
		stores:  make(map[string]*store),
	}
	for _, kind := range backend.Kinds() {
		c.stores[kind.Name] = &store{members: newLRU(size)}
	}
	return c
}

func (c *cache) Kinds() []*entity.Kind {
	return c.backend.Kinds()
}

func (c *cache) Store(name string) (entity.Store, error) {
	backend, err := c.backend.Store(name)
	if err != nil {
		return nil, err
	}
	s := c.stores[backend.Kind().Name]
	if s == nil {
		return backend, nil
	}
	return &store{backend: backend, members: s.members}, nil
}

// store wraps one backend store.  The lru is shared between all
// store objects for the same kind.
type store struct {
	backend entity.Store
	members *lru
}

func (s *store) Kind() *entity.Kind {
	return s.backend.Kind()
}

func (s *store) New() *entity.Member {
	return s.backend.New()
}

func (s *store) Get(ctx context.Context, key entity.Key) (*entity.Member, error) {
	return s.members.Get(key.String(), func(string) (*entity.Member, error) {
		return s.backend.Get(ctx, key)
	})
}

func (s *store) Find(ctx context.Context, q entity.Query) ([]*entity.Member, error) {
	return s.backend.Find(ctx, q)
}

func (s *store) Count(ctx context.Context, q entity.Query) (int, error) {
	return s.backend.Count(ctx, q)
}

func (s *store) Create(ctx context.Context, m *entity.Member) error {
	if err := s.backend.Create(ctx, m); err != nil {
		return err
	}
	s.members.Put(m)
	return nil
}

func (s *store) Update(ctx context.Context, m *entity.Member) error {
	err := s.backend.Update(ctx, m)
	if err != nil {
		s.members.Remove(m.Key().String())
		return err
	}
	s.members.Put(m)
	return nil
}

func (s *store) Delete(ctx context.Context, m *entity.Member) error {
	s.members.Remove(m.Key().String())
	return s.backend.Delete(ctx, m)
}
