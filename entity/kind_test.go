// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// folderKind and documentKind are a small pair of related kinds used
// throughout the package tests.
func folderKind(t *testing.T) *Kind {
	kind := &Kind{
		Name: "Folder",
		Columns: []Column{
			{Name: "title"},
			{Name: "slug"},
		},
	}
	require.NoError(t, kind.Init())
	return kind
}

func documentKind(t *testing.T) *Kind {
	kind := &Kind{
		Name: "Document",
		Columns: []Column{
			{Name: "title", Type: Text},
			{Name: "pages", Type: Integer, Default: 1},
			{Name: "price", Type: Decimal},
			{Name: "published", Type: Boolean, Default: "no"},
			{Name: "secret", Private: true},
			{Name: "_hidden"},
			{Name: "folder_id", Type: Integer},
		},
		Properties: map[string]Property{
			"title_upper": func(m *Member) (interface{}, error) {
				title, _ := m.Value("title")
				if title == nil {
					return nil, nil
				}
				return title.(string) + "!", nil
			},
			"_internal": func(m *Member) (interface{}, error) {
				return "internal", nil
			},
		},
		Relations: []Relation{{Name: "folder", Kind: "Folder"}},
	}
	require.NoError(t, kind.Init())
	return kind
}

func TestKindInitAddsID(t *testing.T) {
	kind := documentKind(t)
	assert.Equal(t, []string{"id"}, kind.PrimaryKey)
	column, present := kind.Column("id")
	if assert.True(t, present) {
		assert.Equal(t, Integer, column.Type)
	}
	assert.Equal(t, "id", kind.ColumnNames()[0])

	// every other column is still findable after the shift
	for i, name := range kind.ColumnNames() {
		column, present := kind.Column(name)
		if assert.True(t, present, name) {
			assert.Equal(t, kind.Columns[i], column)
		}
	}
}

func TestKindInitDefaults(t *testing.T) {
	kind := documentKind(t)
	rel, present := kind.Relation("folder")
	if assert.True(t, present) {
		assert.Equal(t, "folder_id", rel.ForeignKey)
	}
	_, present = kind.Relation("nothing")
	assert.False(t, present)

	column, _ := kind.Column("title")
	assert.Equal(t, Text, column.Type)
}

func TestKindInitErrors(t *testing.T) {
	assert.Equal(t, ErrNoKindName, (&Kind{}).Init())

	err := (&Kind{Name: "A", Columns: []Column{{Name: "x"}, {Name: "x"}}}).Init()
	assert.IsType(t, ErrBadKind{}, err)

	err = (&Kind{Name: "A", PrimaryKey: []string{"code"}}).Init()
	assert.IsType(t, ErrBadKind{}, err)

	err = (&Kind{
		Name:      "A",
		Relations: []Relation{{Name: "b", Kind: "B"}},
	}).Init()
	assert.IsType(t, ErrBadKind{}, err)
}

func TestPublicNames(t *testing.T) {
	kind := documentKind(t)
	assert.Equal(t, []string{
		"folder_id",
		"id",
		"pages",
		"price",
		"published",
		"title",
		"title_upper",
	}, kind.PublicNames())
}

func TestHasSlug(t *testing.T) {
	assert.True(t, folderKind(t).HasSlug())
	assert.False(t, documentKind(t).HasSlug())
}

func TestKindNew(t *testing.T) {
	m := documentKind(t).New()
	assert.False(t, m.Saved())
	assert.Nil(t, m.ID())
	pages, present := m.Value("pages")
	assert.True(t, present)
	assert.Equal(t, int64(1), pages)
	published, _ := m.Value("published")
	assert.Equal(t, false, published)
	_, present = m.Value("title")
	assert.False(t, present)
}

func TestKindLoad(t *testing.T) {
	kind := documentKind(t)
	m, err := kind.Load(map[string]interface{}{
		"id":      "7",
		"title":   []byte("Hello"),
		"unknown": "ignored",
	})
	if assert.NoError(t, err) {
		assert.True(t, m.Saved())
		assert.Equal(t, int64(7), m.ID())
		title, _ := m.Value("title")
		assert.Equal(t, "Hello", title)
		_, present := m.Value("unknown")
		assert.False(t, present)
	}

	_, err = kind.Load(map[string]interface{}{"id": "seven"})
	assert.IsType(t, ErrBadValue{}, err)
}

func TestFindKind(t *testing.T) {
	kinds := []*Kind{folderKind(t), documentKind(t)}
	kind, err := FindKind(kinds, "Document")
	if assert.NoError(t, err) {
		assert.Equal(t, "Document", kind.Name)
	}
	kind, err = FindKind(kinds, "folder")
	if assert.NoError(t, err) {
		assert.Equal(t, "Folder", kind.Name)
	}
	_, err = FindKind(kinds, "Other")
	assert.Equal(t, ErrNoSuchKind{Name: "Other"}, err)
}

func TestGeneratedKey(t *testing.T) {
	column, ok := documentKind(t).GeneratedKey()
	if assert.True(t, ok) {
		assert.Equal(t, "id", column.Name)
	}
	_, ok = compositeKind(t).GeneratedKey()
	assert.False(t, ok)

	kind := &Kind{Name: "Page", PrimaryKey: []string{"path"}, Columns: []Column{{Name: "path"}}}
	require.NoError(t, kind.Init())
	_, ok = kind.GeneratedKey()
	assert.False(t, ok)
}
