// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package backend

import (
	"flag"
	"testing"

	"github.com/diffeo/go-restler/entity"
	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli"
)

// Backend has to work as both kinds of flag.
var (
	_ flag.Value  = &Backend{}
	_ cli.Generic = &Backend{}
)

func TestSet(t *testing.T) {
	for input, expected := range map[string]Backend{
		"memory":                        {Implementation: "memory"},
		"postgres:":                     {Implementation: "postgres"},
		"postgres://localhost/db":       {Implementation: "postgres", Address: "//localhost/db"},
		"postgresql:host=x dbname=y":    {Implementation: "postgresql", Address: "host=x dbname=y"},
		"postgres:postgres://u@h/d?a=b": {Implementation: "postgres", Address: "postgres://u@h/d?a=b"},
	} {
		var b Backend
		if assert.NoError(t, b.Set(input), input) {
			assert.Equal(t, expected, b, input)
		}
	}
}

func TestSetErrors(t *testing.T) {
	b := Backend{Implementation: "memory"}
	assert.Error(t, b.Set(""))
	assert.Error(t, b.Set("redis:localhost"))
	assert.Equal(t, Backend{Implementation: "memory"}, b)
}

func TestString(t *testing.T) {
	b := Backend{Implementation: "memory"}
	assert.Equal(t, "memory", b.String())
	b = Backend{Implementation: "postgres", Address: "//localhost/db"}
	assert.Equal(t, "postgres://localhost/db", b.String())
}

func TestFlag(t *testing.T) {
	b := Backend{Implementation: "memory"}
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&b, "backend", "impl:address of entity storage")
	if assert.NoError(t, fs.Parse([]string{"-backend", "postgres://db"})) {
		assert.Equal(t, Backend{Implementation: "postgres", Address: "//db"}, b)
	}
}

func TestMemoryDatabase(t *testing.T) {
	b := Backend{Implementation: "memory"}
	db, err := b.Database(&entity.Kind{Name: "Widget"})
	if assert.NoError(t, err) {
		_, err = db.Store("widget")
		assert.NoError(t, err)
	}

	b = Backend{Implementation: "carrier-pigeon"}
	_, err = b.Database()
	assert.Error(t, err)
}
