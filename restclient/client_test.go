// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient_test

import (
	"io/ioutil"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/entity/entitytest"
	"github.com/diffeo/go-restler/memory"
	"github.com/diffeo/go-restler/restclient"
	"github.com/diffeo/go-restler/restserver"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newClient sets up an object stack where the REST client code talks
// to the REST server code, which points at an in-memory backend.
func newClient(t *testing.T) *restclient.Client {
	db, err := memory.New(entitytest.Kinds()...)
	require.NoError(t, err)
	logger := logrus.New()
	logger.Out = ioutil.Discard
	router, err := restserver.NewRouter(db, []restserver.Resource{
		{Kind: "Author"},
		{Kind: "Book", FilterParams: map[string]interface{}{"author_id": nil}},
		{Kind: "Book", Parent: &restserver.Parent{Kind: "Author"}},
		{Kind: "Edition"},
	}, restserver.Options{Logger: logger})
	require.NoError(t, err)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	c, err := restclient.New(server.URL)
	require.NoError(t, err)
	return c
}

func TestEmptyURL(t *testing.T) {
	_, err := restclient.New("")
	if err == nil {
		t.Fatal("Expected error when given empty URL.")
	}
}

func TestRelativeURL(t *testing.T) {
	for _, base := range []string{"localhost/api", "/api", "api"} {
		assert.NotPanics(t, func() {
			_, err := restclient.New(base)
			assert.Error(t, err, base)
		}, base)
	}
}

func TestKinds(t *testing.T) {
	c := newClient(t)
	assert.Equal(t, []string{"Author", "Book", "Edition"}, c.Kinds())

	_, err := c.Resource("Tag")
	assert.Equal(t, entity.ErrNoSuchKind{Name: "Tag"}, err)

	_, err = c.Nested("Edition", "Author", "1")
	assert.Equal(t, entity.ErrNoSuchKind{Name: "Edition"}, err)
}

func TestCRUD(t *testing.T) {
	c := newClient(t)
	books, err := c.Resource("Book")
	require.NoError(t, err)

	id, err := books.Create(map[string]interface{}{"title": "Emma", "price": "7.99"})
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	obj, err := books.Show(id, nil)
	if assert.NoError(t, err) {
		assert.Equal(t, "Book", obj["type"])
		assert.Equal(t, "Emma", obj["title"])
		assert.EqualValues(t, 7.99, obj["price"])
	}

	obj, err = books.Show(id, []interface{}{"title"})
	if assert.NoError(t, err) {
		assert.Equal(t, map[string]interface{}{"title": "Emma"}, obj)
	}

	err = books.Update(id, map[string]interface{}{"in_print": false})
	assert.NoError(t, err)
	obj, err = books.Show(id, nil)
	if assert.NoError(t, err) {
		assert.Equal(t, false, obj["in_print"])
		assert.Equal(t, "Emma", obj["title"])
	}

	err = books.Delete(id)
	assert.NoError(t, err)
	_, err = books.Show(id, nil)
	assert.Equal(t, entity.ErrNoSuchMember{Kind: "Book", ID: "1"}, err)

	err = books.Delete(id)
	assert.Equal(t, entity.ErrNoSuchMember{Kind: "Book", ID: "1"}, err)
}

func TestNew(t *testing.T) {
	c := newClient(t)
	books, err := c.Resource("Book")
	require.NoError(t, err)

	obj, err := books.New()
	if assert.NoError(t, err) {
		assert.Equal(t, true, obj["in_print"])
		assert.Nil(t, obj["id"])
	}
}

func TestIndex(t *testing.T) {
	c := newClient(t)
	books, err := c.Resource("Book")
	require.NoError(t, err)

	results, err := books.Index(restclient.Query{})
	if assert.NoError(t, err) {
		assert.Empty(t, results.Results)
		assert.Equal(t, 0, results.TotalCount)
	}

	for _, values := range []map[string]interface{}{
		{"title": "Emma", "author_id": 1},
		{"title": "Persuasion", "author_id": 1},
		{"title": "Jane Eyre", "author_id": 2},
	} {
		_, err = books.Create(values)
		require.NoError(t, err)
	}

	results, err = books.Index(restclient.Query{Limit: 2, OrderBy: []string{"-title"}})
	if assert.NoError(t, err) {
		assert.Equal(t, 2, results.ResultCount)
		assert.Equal(t, 3, results.TotalCount)
		if assert.Len(t, results.Results, 2) {
			first := results.Results[0].(map[string]interface{})
			assert.Equal(t, "Persuasion", first["title"])
		}
	}

	results, err = books.Index(restclient.Query{
		Filters: map[string]string{"author_id": "1"},
		Fields:  []interface{}{"title"},
	})
	if assert.NoError(t, err) {
		assert.Equal(t, []interface{}{
			map[string]interface{}{"title": "Emma"},
			map[string]interface{}{"title": "Persuasion"},
		}, results.Results)
	}

	_, err = books.Index(restclient.Query{OrderBy: []string{"sales"}})
	assert.Equal(t, entity.ErrNoSuchAttribute{Kind: "Book", Name: "sales"}, err)
}

func TestErrors(t *testing.T) {
	c := newClient(t)
	books, err := c.Resource("Book")
	require.NoError(t, err)

	_, err = books.Create(map[string]interface{}{"title": "Emma", "price": "cheap"})
	if assert.IsType(t, entity.ErrBadValue{}, err) {
		assert.Equal(t, "price", err.(entity.ErrBadValue).Column)
	}

	_, err = books.Create(map[string]interface{}{"id": 7, "title": "Emma"})
	require.NoError(t, err)
	_, err = books.Create(map[string]interface{}{"id": 7, "title": "Emma"})
	assert.Equal(t, entity.ErrDuplicateKey{Kind: "Book", ID: "7"}, err)

	_, err = books.Show("seven", nil)
	assert.IsType(t, entity.ErrMalformedKey{}, err)
}

func TestNested(t *testing.T) {
	c := newClient(t)
	authors, err := c.Resource("Author")
	require.NoError(t, err)
	id, err := authors.Create(map[string]interface{}{"name": "Jane Austen", "slug": "austen"})
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	obj, err := authors.Show("austen", nil)
	if assert.NoError(t, err) {
		assert.Equal(t, "Jane Austen", obj["name"])
	}

	books, err := c.Nested("Book", "Author", "austen")
	require.NoError(t, err)
	id, err = books.Create(map[string]interface{}{"title": "Emma"})
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	obj, err = books.Show(id, nil)
	if assert.NoError(t, err) {
		assert.EqualValues(t, 1, obj["author_id"])
	}

	others, err := c.Nested("Book", "Author", "bronte")
	require.NoError(t, err)
	_, err = others.Index(restclient.Query{})
	assert.Equal(t, entity.ErrNoSuchMember{Kind: "Author", ID: "bronte"}, err)
}

func TestCompositeKey(t *testing.T) {
	c := newClient(t)
	editions, err := c.Resource("Edition")
	require.NoError(t, err)

	id, err := editions.Create(map[string]interface{}{"isbn": "0141439513", "number": 2, "pages": 480})
	require.NoError(t, err)
	assert.Equal(t, "0141439513,2", id)

	obj, err := editions.Show(id, []interface{}{"pages"})
	if assert.NoError(t, err) {
		assert.EqualValues(t, 480, obj["pages"])
	}
}

func TestQueryValues(t *testing.T) {
	q := restclient.Query{
		Filters:  map[string]string{"author_id": "1"},
		Offset:   5,
		Limit:    10,
		OrderBy:  []string{"-title", "id"},
		Distinct: true,
		Fields:   []interface{}{"title", map[string]interface{}{"name": "author.name", "mapping": "author"}},
	}
	values, err := q.Values()
	require.NoError(t, err)
	assert.Equal(t, "1", values.Get("author_id"))
	assert.Equal(t, "5", values.Get("offset"))
	assert.Equal(t, "10", values.Get("limit"))
	assert.Equal(t, "-title,id", values.Get("order_by"))
	assert.Equal(t, "true", values.Get("distinct"))
	assert.JSONEq(t, `["title", {"name": "author.name", "mapping": "author"}]`, values.Get("fields"))

	values, err = restclient.Query{}.Values()
	require.NoError(t, err)
	assert.Equal(t, url.Values{}, values)
}
