// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaybeEncodeName(t *testing.T) {
	tests := []struct{ Plain, Encoded string }{
		{"emma", "emma"},
		{"42", "42"},
		{"0141439513,2", "0141439513,2"},
		{"2017-03-14 12:00:00", "-MjAxNy0wMy0xNCAxMjowMDowMA"},
		{"", "-"},
		{"-", "-LQ"},
		{"-1", "-LTE"},
		{"a/b", "-YS9i"},
		{"~", "-fg"},
		{"\u0000", "-AA"},
	}
	for _, test := range tests {
		assert.Equal(t, test.Encoded, MaybeEncodeName(test.Plain), "%q", test.Plain)
		dec, err := MaybeDecodeName(test.Encoded)
		if assert.NoError(t, err, "%q", test.Encoded) {
			assert.Equal(t, test.Plain, dec)
		}
	}
}

func TestMaybeDecodeNameBad(t *testing.T) {
	_, err := MaybeDecodeName("-not base64!")
	assert.Error(t, err)
}
