// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package entity

import (
	"strings"
	"unicode"
)

// CamelToUnderscore converts a CamelCase type name to its underscored
// member name.  Every ASCII capital letter becomes an underscore
// followed by its lowercase form, and then leading and trailing
// underscores are removed, so "WorkUnit" becomes "work_unit" and
// "HTTPThing" becomes "h_t_t_p_thing".
func CamelToUnderscore(name string) string {
	var b strings.Builder
	for _, c := range name {
		if c >= 'A' && c <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(c - 'A' + 'a')
		} else {
			b.WriteRune(unicode.ToLower(c))
		}
	}
	return strings.Trim(b.String(), "_")
}

// UnderscoreToTitle converts an underscored name to a title: each
// underscore becomes a space, and each word starts with a capital
// letter followed by lowercase letters.  "work_units" becomes
// "Work Units".
func UnderscoreToTitle(name string) string {
	name = strings.Replace(name, "_", " ", -1)
	var b strings.Builder
	prevLetter := false
	for _, c := range name {
		if unicode.IsLetter(c) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(c))
			} else {
				b.WriteRune(unicode.ToUpper(c))
			}
			prevLetter = true
		} else {
			b.WriteRune(c)
			prevLetter = false
		}
	}
	return b.String()
}
