// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/diffeo/go-restler/backend"
	"github.com/diffeo/go-restler/cache"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDaemon(t *testing.T) *daemon {
	cfg, err := loadConfig("testdata/library.yaml")
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	return &daemon{
		Backend: backend.Backend{Implementation: "memory"},
		Config:  cfg,
		Logger:  logger,
		Clock:   clock.NewMock(),
	}
}

func TestHandler(t *testing.T) {
	d := newDaemon(t)
	db, err := d.Backend.Database(d.Config.Kinds...)
	require.NoError(t, err)
	h, err := d.Handler(cache.New(db, 16), "testdata/templates", false)
	require.NoError(t, err)

	do := func(method, target string, form url.Values) *httptest.ResponseRecorder {
		var req *http.Request
		if form != nil {
			req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		} else {
			req = httptest.NewRequest(method, target, nil)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "/books", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_count":0`)

	rec = do(http.MethodPost, "/authors", url.Values{"name": {"Jane Austen"}, "slug": {"austen"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/authors/1", rec.Header().Get("Location"))

	rec = do(http.MethodPost, "/authors/austen/books", url.Values{"title": {"Emma"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/authors/austen/books/1", rec.Header().Get("Location"))

	rec = do(http.MethodGet, "/books?author_id=1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Emma"`)

	rec = do(http.MethodGet, "/authors/austen.txt", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Author: Jane Austen\n", rec.Body.String())

	rec = do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "diffeo_restler_requests_total")
}

func TestHandlerBadResource(t *testing.T) {
	d := newDaemon(t)
	db, err := d.Backend.Database(d.Config.Kinds...)
	require.NoError(t, err)
	d.Config.Resources[0].Kind = "Publisher"
	_, err = d.Handler(db, "", false)
	assert.Error(t, err)
}
