// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/diffeo/go-restler/entity"
	"github.com/gorilla/mux"
)

// Action names, as passed to Resource.Authorize and used to find
// templates.
const (
	ActionIndex  = "index"
	ActionShow   = "show"
	ActionNew    = "new"
	ActionEdit   = "edit"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Parent nests a resource under the members of another kind.
type Parent struct {
	// Kind names the parent kind.  Its primary key must be a
	// single column.
	Kind string `mapstructure:"kind"`

	// ForeignKey is the column of the child kind that holds the
	// parent's key.  It defaults to the parent's member name plus
	// "_id".
	ForeignKey string `mapstructure:"foreign_key"`
}

// Resource publishes one entity kind as a REST resource.
type Resource struct {
	// Kind names the entity kind, by CamelCase or member name.
	Kind string `mapstructure:"kind"`

	// Parent, if set, nests this resource under another one:
	// /authors/{parent_id}/books rather than /books.
	Parent *Parent `mapstructure:"parent"`

	// Controller names the template directory.  It defaults to
	// the kind's collection name.
	Controller string `mapstructure:"controller"`

	// Namespace, if set, is prefixed to the fallback template
	// path, giving {namespace}/default/{action}.{format}.
	Namespace string `mapstructure:"namespace"`

	// FilterParams maps request parameter names to default values.
	// Each one is a column equality filter on the index action.
	// A nil default means no filter unless the parameter is given.
	FilterParams map[string]interface{} `mapstructure:"filter_params"`

	// Filters always apply to the index action.
	Filters []entity.Filter `mapstructure:"filters"`

	// DefaultFormat is the response format when the request does
	// not choose one.  It defaults to "json".
	DefaultFormat string `mapstructure:"default_format"`

	// EmptyCollectionOK makes an index that matches nothing return
	// an empty list rather than 404 Not Found.
	EmptyCollectionOK bool `mapstructure:"empty_collection_ok"`

	// Authorize, if non-nil, is called before the create, update,
	// and delete actions.  Returning an error refuses the request
	// with 403 Forbidden.
	Authorize func(req *http.Request, action string) error `mapstructure:"-"`

	// ConvertParam, if non-nil, converts a request parameter before
	// it is assigned to a column.  The result is still converted
	// to the column's type.
	ConvertParam func(column entity.Column, value interface{}) (interface{}, error) `mapstructure:"-"`

	// Transform, if non-nil, rewrites the JSON response object just
	// before it is encoded.
	Transform func(req *http.Request, obj interface{}) (interface{}, error) `mapstructure:"-"`
}

// resource is a Resource bound to its database stores.
type resource struct {
	Resource
	kind        *entity.Kind
	store       entity.Store
	parent      *entity.Kind
	parentStore entity.Store
	foreignKey  string
	prefix      string
}

func (api *restAPI) compile(r Resource) (*resource, error) {
	var err error
	res := &resource{Resource: r}
	res.store, err = api.Database.Store(r.Kind)
	if err != nil {
		return nil, err
	}
	res.kind = res.store.Kind()
	if r.Parent == nil {
		return res, nil
	}

	res.parentStore, err = api.Database.Store(r.Parent.Kind)
	if err != nil {
		return nil, err
	}
	res.parent = res.parentStore.Kind()
	if len(res.parent.PrimaryKey) != 1 {
		return nil, entity.ErrBadKind{
			Kind:   res.parent.Name,
			Reason: "parent resources need a single-column primary key",
		}
	}
	res.foreignKey = r.Parent.ForeignKey
	if res.foreignKey == "" {
		res.foreignKey = res.parent.MemberName + "_id"
	}
	if _, present := res.kind.Column(res.foreignKey); !present {
		return nil, entity.ErrNoSuchAttribute{Kind: res.kind.Name, Name: res.foreignKey}
	}
	res.prefix = res.parent.MemberName + "_"
	return res, nil
}

func (res *resource) defaultFormat() string {
	if res.DefaultFormat == "" {
		return "json"
	}
	return res.DefaultFormat
}

func (res *resource) controller() string {
	if res.Controller == "" {
		return res.kind.CollectionName
	}
	return res.Controller
}

func (res *resource) collectionRoute() string {
	return res.prefix + res.kind.CollectionName
}

func (res *resource) memberRoute() string {
	return res.prefix + res.kind.MemberName
}

func (res *resource) newRoute() string {
	return res.prefix + "new_" + res.kind.MemberName
}

func (res *resource) editRoute() string {
	return res.prefix + "edit_" + res.kind.MemberName
}

// formatted returns the name of the .{format} variant of a route.
func formatted(route string) string {
	return "formatted_" + route
}

// handle adds a route and its .{format} variant.  The variant must
// come first, so that a format suffix is not taken as part of an ID.
func (api *restAPI) handle(r *mux.Router, path, name string, h *resourceHandler) {
	pattern := fmt.Sprintf("%s.{format:%s}", path, strings.Join(api.Formats, "|"))
	r.Path(pattern).Name(formatted(name)).Handler(h)
	r.Path(path).Name(name).Handler(h)
}

// PopulateResource adds the routes for a resource:
//
//     GET    /{collection}            index
//     POST   /{collection}            create
//     GET    /{collection}/new        new
//     GET    /{collection}/{id}/edit  edit
//     GET    /{collection}/{id}       show
//     PUT    /{collection}/{id}       update
//     DELETE /{collection}/{id}       delete
//
// Nested resources are under /{parent_collection}/{parent_id}.
func (api *restAPI) PopulateResource(r *mux.Router, res *resource) {
	base := "/" + res.kind.CollectionName
	if res.parent != nil {
		base = "/" + res.parent.CollectionName + "/{parent_id}" + base
	}
	context := api.Context(res)

	api.handle(r, base, res.collectionRoute(), &resourceHandler{
		Context: context,
		Get:     api.Index,
		Post:    api.Create,
		Logger:  api.Logger,
	})
	api.handle(r, base+"/new", res.newRoute(), &resourceHandler{
		Context: context,
		Get:     api.New,
		Logger:  api.Logger,
	})
	api.handle(r, base+"/{id}/edit", res.editRoute(), &resourceHandler{
		Context: context,
		Get:     api.Edit,
		Logger:  api.Logger,
	})
	api.handle(r, base+"/{id}", res.memberRoute(), &resourceHandler{
		Context: context,
		Get:     api.Show,
		Put:     api.Update,
		Delete:  api.Delete,
		Logger:  api.Logger,
	})
}
