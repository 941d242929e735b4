// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package entity

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "t", "Y", "yes", "ON", "true"} {
		b, err := ParseBool(s)
		if assert.NoError(t, err, s) {
			assert.True(t, b, s)
		}
	}
	for _, s := range []string{"0", "f", "n", "No", "off", "FALSE", "nil"} {
		b, err := ParseBool(s)
		if assert.NoError(t, err, s) {
			assert.False(t, b, s)
		}
	}
	_, err := ParseBool("maybe")
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	when := time.Date(2017, 6, 1, 12, 30, 0, 0, time.UTC)
	for _, tc := range []struct {
		Type     ColumnType
		Input    interface{}
		Expected interface{}
	}{
		{Text, 17, "17"},
		{Text, []byte("bytes"), "bytes"},
		{Integer, "42", int64(42)},
		{Integer, float64(7), int64(7)},
		{Integer, 3, int64(3)},
		{Float, "2.5", 2.5},
		{Float, int64(2), 2.0},
		{Decimal, "1.25", big.NewRat(5, 4)},
		{Decimal, 3, big.NewRat(3, 1)},
		{Boolean, "yes", true},
		{Boolean, int64(0), false},
		{Boolean, true, true},
		{Timestamp, "2017-06-01T12:30:00Z", when},
		{Timestamp, "2017-06-01 12:30:00", when},
		{DateType, "2017-06-01", Date{2017, time.June, 1}},
		{DateType, when, Date{2017, time.June, 1}},
		{UUID, "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{Integer, nil, nil},
	} {
		column := Column{Name: "c", Type: tc.Type}
		actual, err := column.Convert(tc.Input)
		if assert.NoError(t, err, "%v %#v", tc.Type, tc.Input) {
			if r, isRat := tc.Expected.(*big.Rat); isRat {
				if assert.IsType(t, r, actual) {
					assert.Equal(t, 0, r.Cmp(actual.(*big.Rat)))
				}
			} else {
				assert.Equal(t, tc.Expected, actual, "%v %#v", tc.Type, tc.Input)
			}
		}
	}
}

func TestConvertErrors(t *testing.T) {
	for _, tc := range []struct {
		Type  ColumnType
		Input interface{}
	}{
		{Integer, "1.5"},
		{Integer, float64(1.5)},
		{Float, "many"},
		{Decimal, "abc"},
		{Boolean, "perhaps"},
		{Timestamp, "yesterday"},
		{Timestamp, 12},
		{DateType, "June"},
		{UUID, "not-a-uuid"},
		{ColumnType("blob"), "x"},
	} {
		column := Column{Name: "c", Type: tc.Type}
		_, err := column.Convert(tc.Input)
		assert.IsType(t, ErrBadValue{}, err, "%v %#v", tc.Type, tc.Input)
	}
}

func TestDate(t *testing.T) {
	d := DateOf(time.Date(2017, 2, 3, 23, 59, 0, 0, time.UTC))
	assert.Equal(t, "2017-02-03", d.String())
	assert.Equal(t, time.Date(2017, 2, 3, 0, 0, 0, 0, time.UTC), d.Time())
}
