// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package memory

import (
	"context"
	"testing"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/entity/entitytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// Suite runs the generic entity tests against the memory backend.
type Suite struct {
	entitytest.Suite
}

// SetupSuite does global setup for the test suite.
func (s *Suite) SetupSuite() {
	s.Suite.SetupSuite()
	s.NewDatabase = func(kinds ...*entity.Kind) (entity.Database, error) {
		return New(kinds...)
	}
}

// TestEntity runs the entity generic tests.
func TestEntity(t *testing.T) {
	suite.Run(t, &Suite{})
}

func TestNewBadKind(t *testing.T) {
	_, err := New(&entity.Kind{})
	assert.Equal(t, entity.ErrNoKindName, err)

	_, err = New(&entity.Kind{Name: "A"}, &entity.Kind{Name: "A"})
	assert.IsType(t, entity.ErrBadKind{}, err)
}

func TestSequenceSkipsExplicitKeys(t *testing.T) {
	ctx := context.Background()
	db, err := New(&entity.Kind{Name: "Thing"})
	require.NoError(t, err)
	store, err := db.Store("thing")
	require.NoError(t, err)

	m := store.New()
	require.NoError(t, m.Set("id", 10))
	require.NoError(t, store.Create(ctx, m))

	m = store.New()
	require.NoError(t, store.Create(ctx, m))
	assert.Equal(t, int64(11), m.ID())
}

func TestInsertionOrderAfterDelete(t *testing.T) {
	ctx := context.Background()
	db, err := New(&entity.Kind{Name: "Thing"})
	require.NoError(t, err)
	store, err := db.Store("Thing")
	require.NoError(t, err)

	var members []*entity.Member
	for i := 0; i < 3; i++ {
		m := store.New()
		require.NoError(t, store.Create(ctx, m))
		members = append(members, m)
	}
	require.NoError(t, store.Delete(ctx, members[1]))

	found, err := store.Find(ctx, entity.Query{})
	require.NoError(t, err)
	if assert.Len(t, found, 2) {
		assert.Equal(t, int64(1), found[0].ID())
		assert.Equal(t, int64(3), found[1].ID())
	}
}
