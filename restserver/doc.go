// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restserver publishes the kinds of an entity.Database as REST
// resources.  The restclient package is a matching client.
//
// Each Resource maps the standard RESTful actions onto its kind's
// store, with URLs and route names following the kind's naming
// conventions.  For a kind "Book":
//
//     GET    /books            index    route "books"
//     POST   /books            create   route "books"
//     GET    /books/new        new      route "new_book"
//     GET    /books/{id}       show     route "book"
//     PUT    /books/{id}       update   route "book"
//     DELETE /books/{id}       delete   route "book"
//     GET    /books/{id}/edit  edit     route "edit_book"
//
// Every route also has a variant with a format suffix, such as
// /books/17.json, named with a "formatted_" prefix.  A resource nested
// under "Author" lives at /authors/{parent_id}/books and its route
// names have an "author_" prefix.  The root document at / lists the
// resources with URI templates for all of these; see the restdata
// package for its layout.
//
// HTTP Considerations
//
// The response format comes from the URL suffix, else a "format"
// query parameter, else the Accept: header, else the resource's
// default (normally JSON).  JSON responses are built directly;
// anything else renders the template /{controller}/{action}.{format},
// falling back to /default/{action}.{format}.
//
// Create, update, and delete answer 303 See Other, pointing at the
// member or collection in the same format as the request.  HTML forms
// can tunnel PUT and DELETE through a POST with a "_method" field.
//
// Errors are returned as JSON restdata.ErrorResponse objects with an
// appropriate HTTP status: 404 for missing members and empty
// collections, 400 for malformed keys, values, and field specs, 403
// when a resource's authorization hook refuses, 409 for duplicate
// keys, 415 for unreadable request bodies.
//
// Query Parameters
//
// These parameters shape responses and are never column values:
//
//     format                       response format
//     wrap                         false for an unwrapped JSON response
//     fields                       JSON field selection spec
//     offset, start                skip this many members
//     limit                        return at most this many members
//     page, per_page               one-based page of results
//     order_by                     comma-separated columns, "-" for descending
//     distinct                     remove duplicate members
//
// A resource's FilterParams name further parameters that filter its
// collection.
package restserver
