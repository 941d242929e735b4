// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"net/url"
	"sort"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/restdata"
)

// Index loads the resource's collection, filtered by the request.
func (api *restAPI) Index(ctx *actionContext) (interface{}, error) {
	ctx.Action = ActionIndex
	q, err := ctx.Query()
	if err != nil {
		return nil, err
	}
	store := ctx.Resource.store
	members, err := store.Find(ctx.Request.Context(), q)
	if err != nil {
		return nil, classify(err)
	}
	if len(members) == 0 && !ctx.Resource.EmptyCollectionOK {
		return nil, restdata.ErrNotFound{Err: entity.ErrEmptyCollection}
	}
	ctx.Collection = members
	ctx.TotalCount = len(members)
	if ctx.Wrap && (q.Offset > 0 || q.Limit != nil) {
		ctx.TotalCount, err = store.Count(ctx.Request.Context(), q)
		if err != nil {
			return nil, classify(err)
		}
	}
	return api.render(ctx)
}

// Show returns the member named in the URL.
func (api *restAPI) Show(ctx *actionContext) (interface{}, error) {
	ctx.Action = ActionShow
	return api.render(ctx)
}

// Edit returns the member named in the URL, generally to fill in an
// editing form.
func (api *restAPI) Edit(ctx *actionContext) (interface{}, error) {
	ctx.Action = ActionEdit
	return api.render(ctx)
}

// New returns a new, unsaved member with its defaults, generally to
// fill in a creation form.
func (api *restAPI) New(ctx *actionContext) (interface{}, error) {
	ctx.Action = ActionNew
	ctx.Member = ctx.Resource.store.New()
	for name, value := range ctx.scope() {
		if err := ctx.Member.Set(name, value); err != nil {
			return nil, err
		}
	}
	return api.render(ctx)
}

// Create stores a new member built from the request parameters, and
// redirects to it.
func (api *restAPI) Create(ctx *actionContext, params map[string]interface{}) (interface{}, error) {
	if err := api.authorize(ctx, ActionCreate); err != nil {
		return nil, err
	}
	m := ctx.Resource.store.New()
	if err := ctx.setParams(m, params, true); err != nil {
		return nil, err
	}
	if err := ctx.Resource.store.Create(ctx.Request.Context(), m); err != nil {
		return nil, classify(err)
	}
	ctx.Member = m
	return ctx.redirectToMember()
}

// Update changes the member named in the URL from the request
// parameters, and redirects to it.
func (api *restAPI) Update(ctx *actionContext, params map[string]interface{}) (interface{}, error) {
	if err := api.authorize(ctx, ActionUpdate); err != nil {
		return nil, err
	}
	if err := ctx.setParams(ctx.Member, params, false); err != nil {
		return nil, err
	}
	if err := ctx.Resource.store.Update(ctx.Request.Context(), ctx.Member); err != nil {
		return nil, classify(err)
	}
	return ctx.redirectToMember()
}

// Delete removes the member named in the URL, and redirects to the
// collection.
func (api *restAPI) Delete(ctx *actionContext) (interface{}, error) {
	if err := api.authorize(ctx, ActionDelete); err != nil {
		return nil, err
	}
	if err := ctx.Resource.store.Delete(ctx.Request.Context(), ctx.Member); err != nil {
		return nil, classify(err)
	}
	return ctx.redirectToCollection()
}

// authorize runs the resource's authorization hook for a mutating
// action.
func (api *restAPI) authorize(ctx *actionContext, action string) error {
	ctx.Action = action
	if ctx.Resource.Authorize == nil {
		ctx.Logger.WithField("action", action).Debug("no authorization hook, allowing")
		return nil
	}
	if err := ctx.Resource.Authorize(ctx.Request, action); err != nil {
		return restdata.ErrForbidden{Err: err}
	}
	return nil
}

// setParams assigns request parameters to a member's columns.
// Parameters that are reserved or are not columns are ignored, as are
// the parent's foreign key and, on update, the primary key.  An empty
// string clears a non-text column.
func (ctx *actionContext) setParams(m *entity.Member, params map[string]interface{}, create bool) error {
	kind := ctx.Resource.kind
	keyColumns := make(map[string]bool, len(kind.PrimaryKey))
	for _, name := range kind.PrimaryKey {
		keyColumns[name] = true
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if reservedParams[name] {
			continue
		}
		column, isColumn := kind.Column(name)
		if !isColumn {
			continue
		}
		if ctx.Parent != nil && name == ctx.Resource.foreignKey {
			continue
		}
		if !create && keyColumns[name] {
			continue
		}
		value := params[name]
		if s, isString := value.(string); isString && s == "" {
			switch column.Type {
			case "", entity.Text:
			default:
				value = nil
			}
		}
		if ctx.Resource.ConvertParam != nil {
			var err error
			value, err = ctx.Resource.ConvertParam(column, value)
			if err != nil {
				return restdata.ErrBadRequest{Err: err}
			}
		}
		if err := m.Set(name, value); err != nil {
			return classify(err)
		}
	}

	for name, value := range ctx.scope() {
		if err := m.Set(name, value); err != nil {
			return classify(err)
		}
	}
	return nil
}

// urlFor builds the URL of a route of this resource.  If the request
// chose its format explicitly, the URL carries the same format.
func (ctx *actionContext) urlFor(route string, params ...string) (string, error) {
	if ctx.Resource.parent != nil {
		params = append(params, "parent_id", ctx.ParentID)
	}
	if ctx.FormatFrom == formatFromRoute {
		route = formatted(route)
		params = append(params, "format", ctx.Format)
	}
	var out string
	err := buildURLs(ctx.Router, params...).URL(&out, route).Error
	if err != nil {
		return "", err
	}
	if ctx.FormatFrom == formatFromParam {
		out += "?" + url.Values{"format": {ctx.Format}}.Encode()
	}
	return out, nil
}

func (ctx *actionContext) redirectToMember() (interface{}, error) {
	location, err := ctx.urlFor(ctx.Resource.memberRoute(), "id", ctx.Member.Key().String())
	if err != nil {
		return nil, err
	}
	return responseSeeOther{Location: location}, nil
}

func (ctx *actionContext) redirectToCollection() (interface{}, error) {
	location, err := ctx.urlFor(ctx.Resource.collectionRoute())
	if err != nil {
		return nil, err
	}
	return responseSeeOther{Location: location}, nil
}
