// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package postgres

import (
	"os"
	"testing"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/entity/entitytest"
	"github.com/stretchr/testify/suite"
)

// Suite runs the generic entity tests against PostgreSQL.
//
// This connects using the connection string in $RESTLER_POSTGRES,
// which may be empty to use only the PG* environment variables
// described in
// http://www.postgresql.org/docs/current/static/libpq-envars.html.
// The tests are skipped if neither $RESTLER_POSTGRES nor $PGHOST is
// set.  Every test drops and recreates its tables.
type Suite struct {
	entitytest.Suite
}

// SetupSuite does global setup for the test suite.
func (s *Suite) SetupSuite() {
	s.Suite.SetupSuite()
	connectionString := os.Getenv("RESTLER_POSTGRES")
	s.NewDatabase = func(kinds ...*entity.Kind) (entity.Database, error) {
		db, err := Open(connectionString)
		if err != nil {
			return nil, err
		}
		for _, kind := range kinds {
			if err := kind.Init(); err != nil {
				return nil, err
			}
		}
		if err := Drop(db, kinds); err != nil {
			return nil, err
		}
		return NewWithDB(db, kinds...)
	}
}

// TestEntity runs the entity generic tests.
func TestEntity(t *testing.T) {
	_, haveConn := os.LookupEnv("RESTLER_POSTGRES")
	if !haveConn && os.Getenv("PGHOST") == "" {
		t.Skip("set RESTLER_POSTGRES or PGHOST to run PostgreSQL tests")
	}
	suite.Run(t, &Suite{})
}
