// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package entity

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Key is a primary key value, one entry per primary key column, in
// column order.  Entries have already been converted to their column
// types.
type Key []interface{}

// KeySeparator separates the parts of a composite key in its string
// form.
const KeySeparator = ","

// ParseKey converts the string form of a key, as it appears in a URL,
// into a Key.  Composite keys are written as their parts separated by
// KeySeparator.  Returns ErrMalformedKey if the number of parts does
// not match the primary key or a part does not convert.
func (k *Kind) ParseKey(s string) (Key, error) {
	parts := []string{s}
	if len(k.PrimaryKey) > 1 {
		parts = strings.Split(s, KeySeparator)
	}
	if len(parts) != len(k.PrimaryKey) {
		return nil, ErrMalformedKey{
			Value:  s,
			Reason: fmt.Sprintf("expected %d parts, got %d", len(k.PrimaryKey), len(parts)),
		}
	}
	key := make(Key, len(parts))
	for i, part := range parts {
		column, _ := k.Column(k.PrimaryKey[i])
		value, err := column.Convert(part)
		if err != nil {
			return nil, ErrMalformedKey{Value: s, Reason: err.Error()}
		}
		key[i] = value
	}
	return key, nil
}

// KeyOf builds a key from already-typed values, converting each to
// its primary key column's type.
func (k *Kind) KeyOf(values ...interface{}) (Key, error) {
	if len(values) != len(k.PrimaryKey) {
		return nil, ErrMalformedKey{
			Value:  fmt.Sprintf("%v", values),
			Reason: fmt.Sprintf("expected %d parts, got %d", len(k.PrimaryKey), len(values)),
		}
	}
	key := make(Key, len(values))
	for i, value := range values {
		column, _ := k.Column(k.PrimaryKey[i])
		converted, err := column.Convert(value)
		if err != nil {
			return nil, err
		}
		key[i] = converted
	}
	return key, nil
}

// String returns the canonical string form of a key, which
// Kind.ParseKey() accepts.
func (key Key) String() string {
	parts := make([]string, len(key))
	for i, value := range key {
		parts[i] = FormatValue(value)
	}
	return strings.Join(parts, KeySeparator)
}

// Complete returns true if no part of the key is nil.
func (key Key) Complete() bool {
	for _, value := range key {
		if value == nil {
			return false
		}
	}
	return len(key) > 0
}

// FormatValue renders a column value as a string in the form that
// Column.Convert() parses back.
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case *big.Rat:
		if v.IsInt() {
			return v.Num().String()
		}
		return v.FloatString(10)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}
