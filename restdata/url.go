// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"encoding/base64"
	"strings"
)

// unsafeRune reports whether a rune may not appear in a member ID
// path segment as-is.  The RFC 3986 unreserved characters and the
// composite key separator are safe, except that "~" is reserved for
// later use.
func unsafeRune(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return false
	case strings.ContainsRune("-._:,", c):
		return false
	}
	return true
}

// MaybeEncodeName returns a member ID that can be inserted into a URL
// path segment.  IDs that are empty, begin with "-", or contain
// anything outside the safe set become "-" followed by the unpadded
// URL-safe base64 encoding of the ID.  Composite keys such as
// "0141439513,2" pass through unchanged.
func MaybeEncodeName(name string) string {
	if name != "" && name[0] != '-' && strings.IndexFunc(name, unsafeRune) < 0 {
		return name
	}
	return "-" + base64.RawURLEncoding.EncodeToString([]byte(name))
}

// MaybeDecodeName reverses MaybeEncodeName.  It fails if name begins
// with "-" but the rest is not valid base64.
func MaybeDecodeName(name string) (string, error) {
	if !strings.HasPrefix(name, "-") {
		return name, nil
	}
	bytes, err := base64.RawURLEncoding.DecodeString(name[1:])
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
