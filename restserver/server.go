// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"io/fs"
	"net/http"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/restdata"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// DefaultFormats are the .{format} URL suffixes recognized when
// Options.Formats is empty.
var DefaultFormats = []string{"json", "html", "txt", "xml"}

// Options holds optional settings for the REST server.
type Options struct {
	// Logger receives debug traces of action and template
	// selection, and request failures.  It defaults to the logrus
	// standard logger.
	Logger logrus.FieldLogger

	// Templates holds the templates for formats other than JSON,
	// as /{controller}/{action}.{format} and
	// /default/{action}.{format}.  If nil, only JSON is available.
	Templates fs.FS

	// Formats are the format names recognized as URL suffixes.
	Formats []string
}

// NewRouter creates a new HTTP handler that publishes resources from
// a database.  All resources are under the URL path root, e.g.
// /books/17.  For more control over this setup, create a mux.Router
// and call PopulateRouter instead.
func NewRouter(db entity.Database, resources []Resource, opts Options) (http.Handler, error) {
	r := mux.NewRouter()
	if err := PopulateRouter(r, db, resources, opts); err != nil {
		return nil, err
	}
	return r, nil
}

// PopulateRouter adds resource routes to an existing
// github.com/gorilla/mux router object.  This can be used, for
// instance, to place the REST interface under a subpath:
//
//     import "github.com/diffeo/go-restler/memory"
//     import "github.com/gorilla/mux"
//     r := mux.NewRouter()
//     s := r.PathPrefix("/api").Subrouter()
//     db, err := memory.New(kinds...)
//     err = PopulateRouter(s, db, resources, restserver.Options{})
//
// Returns an error if a resource names a kind the database does not
// have, or its parent is misconfigured.
func PopulateRouter(r *mux.Router, db entity.Database, resources []Resource, opts Options) error {
	api := &restAPI{
		Database: db,
		Router:   r,
		Logger:   opts.Logger,
		Formats:  opts.Formats,
	}
	if api.Logger == nil {
		api.Logger = logrus.StandardLogger()
	}
	if len(api.Formats) == 0 {
		api.Formats = DefaultFormats
	}
	if opts.Templates != nil {
		api.Templates = newTemplateSet(opts.Templates, api.templateFuncs())
	}
	for _, config := range resources {
		res, err := api.compile(config)
		if err != nil {
			return err
		}
		api.Resources = append(api.Resources, res)
	}
	api.PopulateRouter(r)
	return nil
}

// restAPI holds the persistent state for the REST API.
type restAPI struct {
	Database  entity.Database
	Router    *mux.Router
	Logger    logrus.FieldLogger
	Formats   []string
	Templates *templateSet
	Resources []*resource
}

// PopulateRouter adds all resource URL paths to a router.
func (api *restAPI) PopulateRouter(r *mux.Router) {
	for _, res := range api.Resources {
		api.PopulateResource(r, res)
	}
	r.Path("/").Name("root").Handler(&resourceHandler{
		Context: api.RootContext,
		Get:     api.RootDocument,
		Logger:  api.Logger,
	})
}

// RootContext builds the context for the root document, which is
// always JSON.
func (api *restAPI) RootContext(req *http.Request, accepted string) (*actionContext, error) {
	return &actionContext{
		Request:     req,
		Router:      api.Router,
		Database:    api.Database,
		Logger:      api.Logger,
		QueryParams: req.URL.Query(),
		Format:      "json",
		FormatFrom:  formatFromRoute,
	}, nil
}

func (api *restAPI) RootDocument(ctx *actionContext) (interface{}, error) {
	resp := restdata.RootData{}
	u := buildURLs(api.Router).URL(&resp.URL, "root")
	for _, res := range api.Resources {
		links := restdata.ResourceLinks{
			Kind:  res.kind.Name,
			Title: res.kind.CollectionTitle,
		}
		var parentParams []string
		if res.parent != nil {
			links.Parent = res.parent.Name
			parentParams = []string{"parent_id"}
		}
		u.Template(&links.CollectionURL, res.collectionRoute(), parentParams...).
			Template(&links.MemberURL, res.memberRoute(), append(parentParams, "id")...).
			Template(&links.NewURL, res.newRoute(), parentParams...).
			Template(&links.EditURL, res.editRoute(), append(parentParams, "id")...)
		resp.Resources = append(resp.Resources, links)
	}
	return resp, u.Error
}

// templateFuncs returns the functions available to templates:
//
//     url ROUTE [NAME VALUE]...   URL of a named route
//     navMenu LISTS               HTML for the "nav" lists
func (api *restAPI) templateFuncs() map[string]interface{} {
	return map[string]interface{}{
		"url": func(route string, params ...string) (string, error) {
			var out string
			err := buildURLs(api.Router, params...).URL(&out, route).Error
			return out, err
		},
		"navMenu": navMenu,
	}
}
