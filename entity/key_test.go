// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package entity

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compositeKind(t *testing.T) *Kind {
	kind := &Kind{
		Name:       "Edition",
		PrimaryKey: []string{"isbn", "number"},
		Columns: []Column{
			{Name: "isbn"},
			{Name: "number", Type: Integer},
		},
	}
	require.NoError(t, kind.Init())
	return kind
}

func TestParseKeySimple(t *testing.T) {
	kind := documentKind(t)
	key, err := kind.ParseKey("42")
	if assert.NoError(t, err) {
		assert.Equal(t, Key{int64(42)}, key)
		assert.Equal(t, "42", key.String())
	}

	_, err = kind.ParseKey("forty-two")
	assert.IsType(t, ErrMalformedKey{}, err)
}

func TestParseKeyTextWithSeparator(t *testing.T) {
	kind := folderKind(t)
	kind.PrimaryKey = []string{"slug"}
	key, err := kind.ParseKey("a,b")
	if assert.NoError(t, err) {
		assert.Equal(t, Key{"a,b"}, key)
	}
}

func TestParseKeyComposite(t *testing.T) {
	kind := compositeKind(t)
	key, err := kind.ParseKey("12345,2")
	if assert.NoError(t, err) {
		assert.Equal(t, Key{"12345", int64(2)}, key)
		assert.Equal(t, "12345,2", key.String())
	}

	_, err = kind.ParseKey("12345")
	assert.IsType(t, ErrMalformedKey{}, err)
	_, err = kind.ParseKey("12345,2,3")
	assert.IsType(t, ErrMalformedKey{}, err)
	_, err = kind.ParseKey("12345,two")
	assert.IsType(t, ErrMalformedKey{}, err)
}

func TestKeyOf(t *testing.T) {
	kind := compositeKind(t)
	key, err := kind.KeyOf("x", 3)
	if assert.NoError(t, err) {
		assert.Equal(t, Key{"x", int64(3)}, key)
		assert.True(t, key.Complete())
	}
	_, err = kind.KeyOf("x")
	if assert.IsType(t, ErrMalformedKey{}, err) {
		assert.Equal(t, "[x]", err.(ErrMalformedKey).Value)
	}

	assert.False(t, Key{"x", nil}.Complete())
	assert.False(t, Key{}.Complete())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "17", FormatValue(int64(17)))
	assert.Equal(t, "3", FormatValue(big.NewRat(3, 1)))
	assert.Equal(t, "1.5000000000", FormatValue(big.NewRat(3, 2)))
	when := time.Date(2017, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "2017-03-04T05:06:07Z", FormatValue(when))
	assert.Equal(t, "true", FormatValue(true))
}
