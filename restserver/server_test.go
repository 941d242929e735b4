// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/entity/entitytest"
	"github.com/diffeo/go-restler/memory"
	"github.com/diffeo/go-restler/restdata"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture is an HTTP handler serving an in-memory database of the
// entitytest kinds.
type fixture struct {
	*testing.T
	DB      entity.Database
	Handler http.Handler
}

func newFixture(t *testing.T, resources []Resource, opts Options) *fixture {
	db, err := memory.New(entitytest.Kinds()...)
	require.NoError(t, err)
	if opts.Logger == nil {
		logger := logrus.New()
		logger.Out = ioutil.Discard
		opts.Logger = logger
	}
	h, err := NewRouter(db, resources, opts)
	require.NoError(t, err)
	return &fixture{T: t, DB: db, Handler: h}
}

// Create stores a new member directly in the database.
func (f *fixture) Create(kind string, values map[string]interface{}) *entity.Member {
	store, err := f.DB.Store(kind)
	require.NoError(f, err)
	m := store.New()
	for name, value := range values {
		require.NoError(f, m.Set(name, value))
	}
	require.NoError(f, store.Create(context.Background(), m))
	return m
}

// Get fetches a member directly from the database, by key string.
func (f *fixture) Get(kind, id string) (*entity.Member, error) {
	store, err := f.DB.Store(kind)
	require.NoError(f, err)
	key, err := store.Kind().ParseKey(id)
	require.NoError(f, err)
	return store.Get(context.Background(), key)
}

// Do sends a request through the handler.  headers are alternating
// names and values.
func (f *fixture) Do(method, target, contentType, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.Handler.ServeHTTP(rec, req)
	return rec
}

// Decode decodes a JSON response body.
func (f *fixture) Decode(rec *httptest.ResponseRecorder, out interface{}) {
	err := restdata.Decode(rec.Header().Get("Content-Type"), rec.Body, out)
	require.NoError(f, err, "body: %q", rec.Body.String())
}

// Object fetches target and decodes it as a single JSON object.
func (f *fixture) Object(target string) map[string]interface{} {
	rec := f.Do(http.MethodGet, target, "", "")
	require.Equal(f, http.StatusOK, rec.Code, "GET %v: %v", target, rec.Body.String())
	var obj map[string]interface{}
	f.Decode(rec, &obj)
	return obj
}

// Results fetches target and decodes it as a wrapped response.
func (f *fixture) Results(target string) restdata.Results {
	rec := f.Do(http.MethodGet, target, "", "")
	require.Equal(f, http.StatusOK, rec.Code, "GET %v: %v", target, rec.Body.String())
	var envelope restdata.Envelope
	f.Decode(rec, &envelope)
	return envelope.Response
}

// Error decodes an error response, checking its status.
func (f *fixture) Error(rec *httptest.ResponseRecorder, status int) restdata.ErrorResponse {
	require.Equal(f, status, rec.Code, "body: %v", rec.Body.String())
	var resp restdata.ErrorResponse
	f.Decode(rec, &resp)
	return resp
}

// titles extracts the "title" of each result object.
func titles(results []interface{}) []interface{} {
	out := make([]interface{}, len(results))
	for i, result := range results {
		if obj, isMap := result.(map[string]interface{}); isMap {
			out[i] = obj["title"]
		}
	}
	return out
}

func TestRootDocument(t *testing.T) {
	f := newFixture(t, []Resource{
		{Kind: "Author"},
		{Kind: "Book", Parent: &Parent{Kind: "Author"}},
		{Kind: "tag"},
	}, Options{})

	rec := f.Do(http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var root restdata.RootData
	f.Decode(rec, &root)
	assert.Equal(t, "/", root.URL)
	assert.Equal(t, []restdata.ResourceLinks{
		{
			Kind:          "Author",
			Title:         "Authors",
			CollectionURL: "/authors",
			MemberURL:     "/authors/{id}",
			NewURL:        "/authors/new",
			EditURL:       "/authors/{id}/edit",
		},
		{
			Kind:          "Book",
			Title:         "Books",
			Parent:        "Author",
			CollectionURL: "/authors/{parent_id}/books",
			MemberURL:     "/authors/{parent_id}/books/{id}",
			NewURL:        "/authors/{parent_id}/books/new",
			EditURL:       "/authors/{parent_id}/books/{id}/edit",
		},
		{
			Kind:          "Tag",
			Title:         "Tags",
			CollectionURL: "/tags",
			MemberURL:     "/tags/{id}",
			NewURL:        "/tags/new",
			EditURL:       "/tags/{id}/edit",
		},
	}, root.Resources)

	links, found := root.Find("Book")
	if assert.True(t, found) {
		assert.Equal(t, "Author", links.Parent)
	}
}

func TestRouteNames(t *testing.T) {
	db, err := memory.New(entitytest.Kinds()...)
	require.NoError(t, err)
	r := mux.NewRouter()
	err = PopulateRouter(r, db, []Resource{
		{Kind: "Author"},
		{Kind: "Book", Parent: &Parent{Kind: "Author"}},
	}, Options{})
	require.NoError(t, err)

	for _, name := range []string{
		"root",
		"authors", "author", "new_author", "edit_author",
		"formatted_authors", "formatted_author",
		"formatted_new_author", "formatted_edit_author",
		"author_books", "author_book", "author_new_book", "author_edit_book",
		"formatted_author_books", "formatted_author_book",
	} {
		assert.NotNil(t, r.Get(name), "route %q", name)
	}
	assert.Nil(t, r.Get("books"))

	u, err := r.Get("formatted_author_book").URL("parent_id", "1", "id", "2", "format", "json")
	if assert.NoError(t, err) {
		assert.Equal(t, "/authors/1/books/2.json", u.String())
	}
}

func TestPopulateRouterErrors(t *testing.T) {
	db, err := memory.New(entitytest.Kinds()...)
	require.NoError(t, err)

	err = PopulateRouter(mux.NewRouter(), db, []Resource{{Kind: "Nope"}}, Options{})
	assert.IsType(t, entity.ErrNoSuchKind{}, err)

	err = PopulateRouter(mux.NewRouter(), db, []Resource{
		{Kind: "Book", Parent: &Parent{Kind: "Nope"}},
	}, Options{})
	assert.IsType(t, entity.ErrNoSuchKind{}, err)

	// Books have no tag_id column
	err = PopulateRouter(mux.NewRouter(), db, []Resource{
		{Kind: "Book", Parent: &Parent{Kind: "Tag"}},
	}, Options{})
	assert.Equal(t, entity.ErrNoSuchAttribute{Kind: "Book", Name: "tag_id"}, err)

	// ...but an explicit foreign key works
	err = PopulateRouter(mux.NewRouter(), db, []Resource{
		{Kind: "Book", Parent: &Parent{Kind: "Author", ForeignKey: "author_id"}},
	}, Options{})
	assert.NoError(t, err)

	err = PopulateRouter(mux.NewRouter(), db, []Resource{
		{Kind: "Book", Parent: &Parent{Kind: "Edition"}},
	}, Options{})
	assert.IsType(t, entity.ErrBadKind{}, err)
}

func TestSubrouter(t *testing.T) {
	db, err := memory.New(entitytest.Kinds()...)
	require.NoError(t, err)
	r := mux.NewRouter()
	err = PopulateRouter(r.PathPrefix("/api").Subrouter(), db, []Resource{{Kind: "Book"}}, Options{})
	require.NoError(t, err)
	f := &fixture{T: t, DB: db, Handler: r}
	f.Create("Book", map[string]interface{}{"title": "Emma"})

	obj := f.Object("/api/books/1?wrap=false")
	assert.Equal(t, "Emma", obj["title"])

	rec := f.Do(http.MethodDelete, "/api/books/1", "", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/api/books", rec.Header().Get("Location"))
}
