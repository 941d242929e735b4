// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package entitytest provides generic functional tests for the
// entity.Database and entity.Store interfaces.  A typical backend test
// module needs to wrap Suite to create its backend:
//
//     package mybackend
//
//     import (
//             "testing"
//             "github.com/diffeo/go-restler/entity"
//             "github.com/diffeo/go-restler/entity/entitytest"
//             "github.com/stretchr/testify/suite"
//     )
//
//     // Suite is the per-backend generic test suite.
//     type Suite struct{
//             entitytest.Suite
//     }
//
//     // SetupSuite does global setup for the test suite.
//     func (s *Suite) SetupSuite() {
//             s.Suite.SetupSuite()
//             s.NewDatabase = func(kinds ...*entity.Kind) (entity.Database, error) {
//                     return New(kinds...)
//             }
//     }
//
//     // TestEntity runs the entity generic tests.
//     func TestEntity(t *testing.T) {
//             suite.Run(t, &Suite{})
//     }
package entitytest

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-restler/entity"
	"github.com/stretchr/testify/suite"
)

// Suite is the generic entity backend test suite.
type Suite struct {
	suite.Suite

	// Clock contains the time source used to produce timestamp
	// values.  It is pre-initialized to a mock clock.
	Clock *clock.Mock

	// NewDatabase creates an empty database for a set of kinds.
	// It is set by importing packages and called before every
	// test.
	NewDatabase func(kinds ...*entity.Kind) (entity.Database, error)

	// Database contains the database under test.
	Database entity.Database

	ctx context.Context
}

// SetupSuite does one-time initialization for the test suite.
func (s *Suite) SetupSuite() {
	s.Clock = clock.NewMock()
	s.ctx = context.Background()
}

// SetupTest creates a fresh database holding Kinds().
func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewDatabase, "backend did not set NewDatabase")
	db, err := s.NewDatabase(Kinds()...)
	s.Require().NoError(err)
	s.Database = db
}

// Kinds returns new, uninitialized copies of the kinds the suite
// tests with:
//
//     Author   integer key, slug column
//     Book     integer key, belongs to Author
//     Tag      uuid key
//     Edition  composite (isbn, number) key
func Kinds() []*entity.Kind {
	return []*entity.Kind{
		{
			Name: "Author",
			Columns: []entity.Column{
				{Name: "name"},
				{Name: "slug"},
				{Name: "born", Type: entity.DateType},
			},
		},
		{
			Name: "Book",
			Columns: []entity.Column{
				{Name: "title"},
				{Name: "price", Type: entity.Decimal},
				{Name: "rating", Type: entity.Float},
				{Name: "in_print", Type: entity.Boolean, Default: true},
				{Name: "published", Type: entity.Timestamp},
				{Name: "author_id", Type: entity.Integer},
			},
			Relations: []entity.Relation{{Name: "author", Kind: "Author"}},
		},
		{
			Name:       "Tag",
			PrimaryKey: []string{"id"},
			Columns: []entity.Column{
				{Name: "id", Type: entity.UUID},
				{Name: "label"},
			},
		},
		{
			Name:       "Edition",
			PrimaryKey: []string{"isbn", "number"},
			Columns: []entity.Column{
				{Name: "isbn"},
				{Name: "number", Type: entity.Integer},
				{Name: "pages", Type: entity.Integer},
			},
		},
	}
}

// Store gets the store for a kind, failing the test if it does not
// exist.
func (s *Suite) Store(kind string) entity.Store {
	store, err := s.Database.Store(kind)
	s.Require().NoError(err)
	return store
}

// Create makes and stores a new member with some column values.
func (s *Suite) Create(kind string, values map[string]interface{}) *entity.Member {
	store := s.Store(kind)
	m := store.New()
	for name, value := range values {
		s.Require().NoError(m.Set(name, value), "%v.%v", kind, name)
	}
	s.Require().NoError(store.Create(s.ctx, m))
	return m
}

// Value gets a single column value from a member.
func (s *Suite) Value(m *entity.Member, name string) interface{} {
	value, _ := m.Value(name)
	return value
}

// Values gets one column value from each of a list of members.
func (s *Suite) Values(members []*entity.Member, name string) []interface{} {
	result := make([]interface{}, len(members))
	for i, m := range members {
		result[i] = s.Value(m, name)
	}
	return result
}
