// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

// This file contains various HTTP-related helpers.

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/diffeo/go-restler/restdata"
	"github.com/gorilla/mux"
)

type urlBuilder struct {
	Router *mux.Router
	Params []string
	Error  error
}

func buildURLs(router *mux.Router, params ...string) *urlBuilder {
	// Encode all of the values in params
	for i, value := range params {
		if i%2 == 1 {
			params[i] = restdata.MaybeEncodeName(value)
		}
	}
	return &urlBuilder{Router: router, Params: params}
}

func (u *urlBuilder) Route(route string) *mux.Route {
	if u.Error != nil {
		return nil
	}
	r := u.Router.Get(route)
	if r == nil {
		u.Error = fmt.Errorf("No such route %q", route)
	}
	return r
}

func (u *urlBuilder) URL(out *string, route string) *urlBuilder {
	var r *mux.Route
	var url *url.URL
	if u.Error == nil {
		r = u.Route(route)
	}
	if u.Error == nil {
		url, u.Error = r.URL(u.Params...)
	}
	if u.Error == nil {
		*out = url.String()
	}
	return u
}

// Template produces an RFC 6570 URI template for a route, with each
// of params left as a {param} placeholder.
func (u *urlBuilder) Template(out *string, route string, params ...string) *urlBuilder {
	var r *mux.Route
	var url *url.URL
	if u.Error == nil {
		r = u.Route(route)
	}
	placeholders := make([]string, len(params))
	if u.Error == nil {
		pairs := make([]string, 0, 2*len(params)+len(u.Params))
		for i, param := range params {
			placeholders[i] = fmt.Sprintf("---%d---", i)
			pairs = append(pairs, param, placeholders[i])
		}
		pairs = append(pairs, u.Params...)
		url, u.Error = r.URL(pairs...)
	}
	if u.Error == nil {
		s := url.String()
		for i, param := range params {
			s = strings.Replace(s, placeholders[i], "{"+param+"}", 1)
		}
		*out = s
	}
	return u
}
