// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamelToUnderscore(t *testing.T) {
	for input, expected := range map[string]string{
		"Document":       "document",
		"WorkUnit":       "work_unit",
		"HTTPThing":      "h_t_t_p_thing",
		"already_lower":  "already_lower",
		"_Private":       "private",
		"":               "",
		"A":              "a",
		"DocumentFolder": "document_folder",
	} {
		assert.Equal(t, expected, CamelToUnderscore(input), "%q", input)
	}
}

func TestUnderscoreToTitle(t *testing.T) {
	for input, expected := range map[string]string{
		"documents":        "Documents",
		"work_units":       "Work Units",
		"mIXED_case":       "Mixed Case",
		"a_b_c":            "A B C",
		"":                 "",
		"version2_numbers": "Version2 Numbers",
	} {
		assert.Equal(t, expected, UnderscoreToTitle(input), "%q", input)
	}
}

func TestKindNaming(t *testing.T) {
	kind := &Kind{Name: "WorkUnit"}
	if assert.NoError(t, kind.Init()) {
		assert.Equal(t, "work_unit", kind.MemberName)
		assert.Equal(t, "work_units", kind.CollectionName)
		assert.Equal(t, "Work Unit", kind.MemberTitle)
		assert.Equal(t, "Work Units", kind.CollectionTitle)
		assert.Equal(t, "work_units", kind.Table)
	}

	kind = &Kind{Name: "Person", CollectionName: "people"}
	if assert.NoError(t, kind.Init()) {
		assert.Equal(t, "person", kind.MemberName)
		assert.Equal(t, "people", kind.CollectionName)
		assert.Equal(t, "People", kind.CollectionTitle)
		assert.Equal(t, "people", kind.Table)
	}
}
