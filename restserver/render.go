// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"bytes"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/fields"
	"github.com/diffeo/go-restler/restdata"
	"github.com/sirupsen/logrus"
)

// errTemplateNotFound is returned from templateSet.Lookup() if there
// is no template with the requested name.
type errTemplateNotFound struct {
	Name string
}

func (e errTemplateNotFound) Error() string {
	return fmt.Sprintf("Template %q not found", e.Name)
}

// render produces the response for a read action in the request's
// format: JSON directly, anything else through a template.
func (api *restAPI) render(ctx *actionContext) (interface{}, error) {
	ctx.Logger.WithFields(logrus.Fields{
		"action": ctx.Action,
		"format": ctx.Format,
	}).Debug("rendering")
	if ctx.Format == "json" {
		return ctx.jsonObject()
	}
	return api.renderTemplate(ctx)
}

// jsonObject builds the JSON response object.  The fields parameter
// selects attributes; without it each member is its simple map.
// Wrapped responses are a restdata.Envelope; unwrapped, a collection
// is a list and a member is a single object.
func (ctx *actionContext) jsonObject() (interface{}, error) {
	kind := ctx.Resource.kind
	var selected fields.Set
	if raw := ctx.QueryParams.Get("fields"); strings.TrimSpace(raw) != "" {
		var err error
		selected, err = fields.Parse(raw, kind.PublicNames())
		if err != nil {
			return nil, restdata.ErrBadRequest{Err: err}
		}
	}
	load := entity.DatabaseLoader(ctx.Request.Context(), ctx.Database)

	var members []*entity.Member
	if ctx.Action == ActionIndex {
		members = ctx.Collection
	} else if ctx.Member != nil {
		members = []*entity.Member{ctx.Member}
	}
	results := make([]interface{}, 0, len(members))
	for _, m := range members {
		obj, err := simpleObject(m, selected, load)
		if err != nil {
			return nil, err
		}
		results = append(results, obj)
	}

	var obj interface{}
	switch {
	case ctx.Wrap:
		total := ctx.TotalCount
		if ctx.Action != ActionIndex {
			total = len(results)
		}
		obj = restdata.Envelope{Response: restdata.Results{
			Results:     results,
			ResultCount: len(results),
			TotalCount:  total,
		}}
	case ctx.Action == ActionIndex:
		obj = results
	case len(results) > 0:
		obj = results[0]
	}

	if ctx.Resource.Transform != nil {
		var err error
		obj, err = ctx.Resource.Transform(ctx.Request, obj)
		if err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// simpleObject converts a member to a JSON-friendly map.  With no
// selected fields this is Member.ToSimple(); otherwise it holds each
// selected path under its output name, and nothing else, so there is
// no "type" key.
func simpleObject(m *entity.Member, selected fields.Set, load entity.Loader) (map[string]interface{}, error) {
	if selected == nil {
		return m.ToSimple(nil)
	}
	obj := make(map[string]interface{}, len(selected))
	for _, f := range selected.Sorted() {
		value, err := m.Get(f.Path, load)
		if _, dangling := err.(entity.ErrNoSuchMember); dangling {
			value, err = nil, nil
		}
		if err != nil {
			return nil, classify(err)
		}
		obj[f.As], err = entity.Simplify(value)
		if err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// renderTemplate executes /{controller}/{action}.{format}, falling
// back to [{namespace}/]default/{action}.{format}.
func (api *restAPI) renderTemplate(ctx *actionContext) (interface{}, error) {
	if api.Templates == nil {
		return nil, errNotImplemented{
			Text: fmt.Sprintf("Format %q needs templates, but none are configured", ctx.Format),
		}
	}
	res := ctx.Resource
	file := ctx.Action + "." + ctx.Format
	name := path.Join("/", res.controller(), file)
	tmpl, err := api.Templates.Lookup(name)
	if _, missing := err.(errTemplateNotFound); missing {
		name = path.Join("/", res.Namespace, "default", file)
		tmpl, err = api.Templates.Lookup(name)
	}
	ctx.Logger.WithField("template", name).Debug("rendering template")
	if err != nil {
		return nil, err
	}

	data, err := ctx.templateData()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return responseRendered{ContentType: contentTypeFor(ctx.Format), Body: buf.Bytes()}, nil
}

// templateObject is the simple map of a member, plus its "_key" and,
// if it is saved, its "_url".
func (ctx *actionContext) templateObject(m *entity.Member, route string) (map[string]interface{}, error) {
	obj, err := m.ToSimple(nil)
	if err != nil {
		return nil, err
	}
	key := m.Key()
	if !m.Saved() || !key.Complete() {
		return obj, nil
	}
	obj["_key"] = key.String()
	params := []string{"id", key.String()}
	if route == ctx.Resource.memberRoute() && ctx.Resource.parent != nil {
		params = append(params, "parent_id", ctx.ParentID)
	}
	var u string
	if buildURLs(ctx.Router, params...).URL(&u, route).Error == nil {
		obj["_url"] = u
	}
	return obj, nil
}

// templateData builds the data passed to a template.  Members,
// collections, and parents appear both under generic names and under
// their kinds' names.
func (ctx *actionContext) templateData() (map[string]interface{}, error) {
	res := ctx.Resource
	kind := res.kind
	data := map[string]interface{}{
		"action":           ctx.Action,
		"controller":       res.controller(),
		"format":           ctx.Format,
		"wrap":             ctx.Wrap,
		"member_name":      kind.MemberName,
		"member_title":     kind.MemberTitle,
		"collection_name":  kind.CollectionName,
		"collection_title": kind.CollectionTitle,
		"total_count":      ctx.TotalCount,
	}

	if ctx.Member != nil {
		obj, err := ctx.templateObject(ctx.Member, res.memberRoute())
		if err != nil {
			return nil, err
		}
		data["member"] = obj
		data[kind.MemberName] = obj
	}

	if ctx.Action == ActionIndex {
		list := make([]map[string]interface{}, len(ctx.Collection))
		for i, m := range ctx.Collection {
			obj, err := ctx.templateObject(m, res.memberRoute())
			if err != nil {
				return nil, err
			}
			list[i] = obj
		}
		data["collection"] = list
		data[kind.CollectionName] = list
	}

	if ctx.Parent != nil {
		obj, err := ctx.templateObject(ctx.Parent, res.parent.MemberName)
		if err != nil {
			return nil, err
		}
		data["parent"] = obj
		data[res.parent.MemberName] = obj
		data["parent_id"] = ctx.ParentID
		data[res.foreignKey] = ctx.ParentID
	}

	nav, err := ctx.navLists()
	if err != nil {
		return nil, err
	}
	data["nav"] = nav
	return data, nil
}

// executor is the part of html/template and text/template that
// renders a parsed template.
type executor interface {
	Execute(w io.Writer, data interface{}) error
}

// templateSet loads templates from a file system on first use and
// caches them.  Names ending in .html are parsed with html/template
// and everything else with text/template.
type templateSet struct {
	FS    fs.FS
	Funcs map[string]interface{}

	lock  sync.Mutex
	cache map[string]executor
}

func newTemplateSet(fsys fs.FS, funcs map[string]interface{}) *templateSet {
	return &templateSet{FS: fsys, Funcs: funcs, cache: make(map[string]executor)}
}

// Lookup finds and parses a template by its rooted name, such as
// "/books/index.html".  Returns errTemplateNotFound if there is no such
// file.
func (t *templateSet) Lookup(name string) (executor, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if tmpl, present := t.cache[name]; present {
		return tmpl, nil
	}

	src, err := fs.ReadFile(t.FS, strings.TrimPrefix(name, "/"))
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
		return nil, errTemplateNotFound{Name: name}
	}
	if err != nil {
		return nil, err
	}

	var tmpl executor
	if path.Ext(name) == ".html" {
		tmpl, err = htmltemplate.New(name).Funcs(htmltemplate.FuncMap(t.Funcs)).Parse(string(src))
	} else {
		tmpl, err = texttemplate.New(name).Funcs(texttemplate.FuncMap(t.Funcs)).Parse(string(src))
	}
	if err != nil {
		return nil, err
	}
	t.cache[name] = tmpl
	return tmpl, nil
}
