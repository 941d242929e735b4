// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/restdata"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// DefaultPerPage is the page size when a request asks for a page
// without saying how big it is.
const DefaultPerPage = 10

// reservedParams are request parameters that control the response,
// and are never treated as column values.
var reservedParams = map[string]bool{
	"format":   true,
	"wrap":     true,
	"fields":   true,
	"_method":  true,
	"page":     true,
	"per_page": true,
	"offset":   true,
	"start":    true,
	"limit":    true,
	"order_by": true,
	"distinct": true,
}

// formatSource records where a request's response format came from.
type formatSource int

const (
	// formatFromDefault is the resource's default format, possibly
	// refined by Accept: negotiation.
	formatFromDefault formatSource = iota

	// formatFromRoute is a .{format} suffix on the URL path.
	formatFromRoute

	// formatFromParam is a format query parameter.
	formatFromParam
)

// actionContext holds all of the information and objects that can be
// extracted from a request, plus what the action has loaded so far.
type actionContext struct {
	Request     *http.Request
	Resource    *resource
	Router      *mux.Router
	Database    entity.Database
	Logger      logrus.FieldLogger
	QueryParams url.Values

	// Action is the name of the action being run.
	Action string

	// Format is the response format, such as "json" or "html".
	Format string

	// FormatFrom says how Format was chosen.
	FormatFrom formatSource

	// Wrap is true unless the request asked for an unwrapped
	// response.
	Wrap bool

	// ParentID and Parent identify the parent member of a nested
	// resource.
	ParentID string
	Parent   *entity.Member

	// ID and Member identify the member a member route names.
	ID     string
	Member *entity.Member

	// Collection holds the result of an index action, and
	// TotalCount the number of members matching its filters.
	Collection []*entity.Member
	TotalCount int
}

// Context returns the context builder for a resource's routes.
func (api *restAPI) Context(res *resource) func(*http.Request, string) (*actionContext, error) {
	return func(req *http.Request, accepted string) (ctx *actionContext, err error) {
		ctx = &actionContext{
			Request:     req,
			Resource:    res,
			Router:      api.Router,
			Database:    api.Database,
			Logger:      api.Logger,
			QueryParams: req.URL.Query(),
		}
		vars := mux.Vars(req)
		ctx.chooseFormat(vars["format"], accepted)
		ctx.Wrap = ctx.BoolParam("wrap", true)

		var present bool
		var parentID, id string

		if parentID, present = vars["parent_id"]; present && res.parent != nil {
			ctx.ParentID, err = restdata.MaybeDecodeName(parentID)
			if err != nil {
				err = restdata.ErrBadRequest{Err: err}
			}
			if err == nil {
				ctx.Parent, err = findMember(req.Context(), res.parentStore, ctx.ParentID, nil)
			}
		}

		if id, present = vars["id"]; present && err == nil {
			ctx.ID, err = restdata.MaybeDecodeName(id)
			if err != nil {
				err = restdata.ErrBadRequest{Err: err}
			}
			if err == nil {
				ctx.Member, err = findMember(req.Context(), res.store, ctx.ID, ctx.scope())
			}
		}

		return
	}
}

// chooseFormat picks the response format: a .{format} route suffix,
// then a format parameter, then the negotiated media type, then the
// resource default.
func (ctx *actionContext) chooseFormat(routeFormat, accepted string) {
	if routeFormat != "" {
		ctx.Format = routeFormat
		ctx.FormatFrom = formatFromRoute
		return
	}
	if param := strings.TrimSpace(ctx.QueryParams.Get("format")); param != "" {
		ctx.Format = strings.ToLower(param)
		ctx.FormatFrom = formatFromParam
		return
	}
	ctx.FormatFrom = formatFromDefault
	if format, known := typeMap[accepted]; known {
		ctx.Format = format
		return
	}
	ctx.Format = ctx.Resource.defaultFormat()
}

// scope returns the column values every member of a nested resource
// shares with its parent, or nil.
func (ctx *actionContext) scope() map[string]interface{} {
	if ctx.Parent == nil {
		return nil
	}
	return map[string]interface{}{
		ctx.Resource.foreignKey: ctx.Parent.Key()[0],
	}
}

// findMember looks up a member by its URL ID.  If the kind has a slug
// column the ID is tried as a slug first, then as a primary key.
// scope restricts the match to members with those column values.
func findMember(ctx context.Context, store entity.Store, id string, scope map[string]interface{}) (*entity.Member, error) {
	kind := store.Kind()
	notFound := restdata.ErrNotFound{Err: entity.ErrNoSuchMember{Kind: kind.Name, ID: id}}

	if kind.HasSlug() {
		values := map[string]interface{}{"slug": id}
		for name, value := range scope {
			values[name] = value
		}
		members, err := entity.FindBy(ctx, store, values)
		if err != nil {
			return nil, classify(err)
		}
		if len(members) > 0 {
			return members[0], nil
		}
	}

	key, err := kind.ParseKey(id)
	if err != nil {
		// If this could have been a slug, it just wasn't there
		if kind.HasSlug() {
			return nil, notFound
		}
		return nil, restdata.ErrBadRequest{Err: err}
	}
	m, err := store.Get(ctx, key)
	if _, missing := err.(entity.ErrNoSuchMember); missing {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	for name, value := range scope {
		actual, _ := m.Value(name)
		if actual == nil || entity.CompareValues(actual, value) != 0 {
			return nil, notFound
		}
	}
	return m, nil
}

// classify wraps storage errors in the restdata error that gives
// them the right HTTP status.
func classify(err error) error {
	switch err.(type) {
	case entity.ErrNoSuchMember:
		return restdata.ErrNotFound{Err: err}
	case entity.ErrDuplicateKey:
		return restdata.ErrConflict{Err: err}
	case entity.ErrNoSuchAttribute, entity.ErrBadValue, entity.ErrMalformedKey:
		return restdata.ErrBadRequest{Err: err}
	}
	if err == entity.ErrNotSaved {
		return restdata.ErrBadRequest{Err: err}
	}
	return err
}

// BoolParam looks at ctx.QueryParams for a parameter named name.  If
// it has a normally-truthy value (1, on, false, no, ...) then return
// that value.  Otherwise (empty string, foo, ...) return def.
func (ctx *actionContext) BoolParam(name string, def bool) bool {
	value, err := entity.ParseBool(ctx.QueryParams.Get(name))
	if err != nil {
		return def
	}
	return value
}

// IntParam looks at ctx.QueryParams for a non-negative integer
// parameter named name.  Returns false if it is absent.
func (ctx *actionContext) IntParam(name string) (int, bool, error) {
	s := strings.TrimSpace(ctx.QueryParams.Get(name))
	if s == "" {
		return 0, false, nil
	}
	i, err := strconv.Atoi(s)
	if err == nil && i < 0 {
		err = errors.New("must not be negative")
	}
	if err != nil {
		return 0, false, restdata.ErrBadRequest{
			Err: entity.ErrBadValue{Column: name, Value: s, Err: err},
		}
	}
	return i, true, nil
}

// QueryValues returns the query parameters as a map holding the first
// value of each.
func (ctx *actionContext) QueryValues() map[string]interface{} {
	params := make(map[string]interface{}, len(ctx.QueryParams))
	for name, values := range ctx.QueryParams {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}
	return params
}

// Query builds a collection query from the resource's filter
// parameters and static filters, the parent of a nested resource, and
// the paging, ordering, and distinct parameters.
func (ctx *actionContext) Query() (q entity.Query, err error) {
	res := ctx.Resource

	names := make([]string, 0, len(res.FilterParams))
	for name := range res.FilterParams {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := res.FilterParams[name]
		if param := strings.TrimSpace(ctx.QueryParams.Get(name)); param != "" {
			value = param
		}
		if value == nil {
			continue
		}
		q.Filters = append(q.Filters, entity.Filter{Column: name, Op: entity.Eq, Value: value})
	}
	q.Filters = append(q.Filters, res.Filters...)
	for name, value := range ctx.scope() {
		q.Filters = append(q.Filters, entity.Filter{Column: name, Op: entity.Eq, Value: value})
	}

	var offset, limit, page, perPage int
	var present bool
	if offset, present, err = ctx.IntParam("offset"); err != nil {
		return
	} else if !present {
		if offset, _, err = ctx.IntParam("start"); err != nil {
			return
		}
	}
	q.Offset = offset
	if limit, present, err = ctx.IntParam("limit"); err != nil {
		return
	} else if present {
		q.SetLimit(limit)
	}
	if page, present, err = ctx.IntParam("page"); err != nil {
		return
	} else if present {
		if page < 1 {
			err = restdata.ErrBadRequest{Err: entity.ErrBadValue{
				Column: "page",
				Value:  strconv.Itoa(page),
				Err:    errors.New("pages start at 1"),
			}}
			return
		}
		if perPage, present, err = ctx.IntParam("per_page"); err != nil {
			return
		} else if !present {
			perPage = DefaultPerPage
			if q.Limit != nil {
				perPage = *q.Limit
			}
		}
		q.Offset = (page - 1) * perPage
		q.SetLimit(perPage)
	}

	q.OrderBy = entity.ParseOrder(ctx.QueryParams.Get("order_by"))
	q.Distinct = ctx.BoolParam("distinct", false)
	return
}
