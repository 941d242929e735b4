// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package cache_test

import (
	"context"
	"testing"

	"github.com/diffeo/go-restler/cache"
	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/entity/entitytest"
	"github.com/diffeo/go-restler/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Suite runs the generic entity tests against a cache in front of
// the memory backend.
type Suite struct {
	entitytest.Suite
}

// SetupSuite does global setup for the test suite.
func (s *Suite) SetupSuite() {
	s.Suite.SetupSuite()
	s.NewDatabase = func(kinds ...*entity.Kind) (entity.Database, error) {
		backend, err := memory.New(kinds...)
		if err != nil {
			return nil, err
		}
		// A tiny cache makes sure eviction happens during the tests
		return cache.New(backend, 2), nil
	}
}

// TestEntity runs the entity generic tests.
func TestEntity(t *testing.T) {
	suite.Run(t, &Suite{})
}

type CacheAssertions struct {
	*assert.Assertions
	Backend  entity.Database
	Database entity.Database
	ctx      context.Context
}

func NewCacheAssertions(t *testing.T) *CacheAssertions {
	backend, err := memory.New(&entity.Kind{
		Name:    "Page",
		Columns: []entity.Column{{Name: "title"}},
	})
	require.NoError(t, err)
	return &CacheAssertions{
		assert.New(t),
		backend,
		cache.New(backend, 0),
		context.Background(),
	}
}

// Store gets a store from a database; if it fails, fail the test.
func (a *CacheAssertions) Store(db entity.Database) entity.Store {
	store, err := db.Store("Page")
	if !a.NoError(err) {
		a.FailNow("cannot get store")
	}
	return store
}

// Title gets a page through a store and returns its title.
func (a *CacheAssertions) Title(db entity.Database, key entity.Key) interface{} {
	m, err := a.Store(db).Get(a.ctx, key)
	if !a.NoError(err) {
		return nil
	}
	title, _ := m.Value("title")
	return title
}

// TestCachedRead checks that a member read through the cache survives
// a change made behind its back.
func TestCachedRead(t *testing.T) {
	a := NewCacheAssertions(t)
	page := a.Store(a.Database).New()
	a.NoError(page.Set("title", "first"))
	a.NoError(a.Store(a.Database).Create(a.ctx, page))
	key := page.Key()
	a.Equal("first", a.Title(a.Database, key))

	behind, err := a.Store(a.Backend).Get(a.ctx, key)
	require.NoError(t, err)
	a.NoError(behind.Set("title", "second"))
	a.NoError(a.Store(a.Backend).Update(a.ctx, behind))

	a.Equal("second", a.Title(a.Backend, key))
	a.Equal("first", a.Title(a.Database, key))
}

// TestWriteThrough checks that writes through the cache are visible
// in both places.
func TestWriteThrough(t *testing.T) {
	a := NewCacheAssertions(t)
	store := a.Store(a.Database)
	page := store.New()
	a.NoError(page.Set("title", "draft"))
	a.NoError(store.Create(a.ctx, page))

	a.NoError(page.Set("title", "final"))
	a.NoError(store.Update(a.ctx, page))
	a.Equal("final", a.Title(a.Database, page.Key()))
	a.Equal("final", a.Title(a.Backend, page.Key()))

	a.NoError(store.Delete(a.ctx, page))
	_, err := store.Get(a.ctx, page.Key())
	a.IsType(entity.ErrNoSuchMember{}, err)
}

// TestSharedAcrossStores checks that separately fetched stores for a
// kind share one cache.
func TestSharedAcrossStores(t *testing.T) {
	a := NewCacheAssertions(t)
	page := a.Store(a.Database).New()
	a.NoError(page.Set("title", "shared"))
	a.NoError(a.Store(a.Database).Create(a.ctx, page))

	behind, err := a.Store(a.Backend).Get(a.ctx, page.Key())
	require.NoError(t, err)
	a.NoError(a.Store(a.Backend).Delete(a.ctx, behind))

	// a fresh store object still finds the cached member
	a.Equal("shared", a.Title(a.Database, page.Key()))
}

func TestUnknownKind(t *testing.T) {
	a := NewCacheAssertions(t)
	_, err := a.Database.Store("Book")
	a.Equal(entity.ErrNoSuchKind{Name: "Book"}, err)
}
