// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

import (
	"fmt"
	htmltemplate "html/template"
	"strings"

	"github.com/diffeo/go-restler/entity"
)

// NavLink is one entry in a navigation list.
type NavLink struct {
	// Text is the link text.
	Text string

	// URL is the link target.
	URL string

	// Method is the HTTP method the link needs, if it is not GET.
	Method string
}

// navLists builds the navigation lists for a page: a link up to the
// parent of a nested resource, the collection links, and, when there
// is a saved member, its links.
func (ctx *actionContext) navLists() ([][]NavLink, error) {
	res := ctx.Resource
	var lists [][]NavLink

	if ctx.Parent != nil && ctx.Router.Get(res.parent.MemberName) != nil {
		var up string
		err := buildURLs(ctx.Router, "id", ctx.ParentID).URL(&up, res.parent.MemberName).Error
		if err != nil {
			return nil, err
		}
		lists = append(lists, []NavLink{{
			Text: fmt.Sprintf("Up to %s %q", res.parent.MemberTitle, titleOf(ctx.Parent, ctx.ParentID)),
			URL:  up,
		}})
	}

	var collection, create string
	err := ctx.buildURLs().
		URL(&collection, res.collectionRoute()).
		URL(&create, res.newRoute()).
		Error
	if err != nil {
		return nil, err
	}
	title := res.kind.MemberTitle
	list := []NavLink{
		{Text: title + " List", URL: collection},
		{Text: "New " + title, URL: create},
	}

	if ctx.Action != ActionNew && ctx.Member != nil && ctx.Member.Saved() {
		var show, edit string
		err = ctx.buildURLs("id", ctx.Member.Key().String()).
			URL(&show, res.memberRoute()).
			URL(&edit, res.editRoute()).
			Error
		if err != nil {
			return nil, err
		}
		list = append(list,
			NavLink{Text: "Show " + title, URL: show},
			NavLink{Text: "Edit " + title, URL: edit},
			NavLink{Text: "Delete " + title, URL: show, Method: "DELETE"},
		)
	}
	return append(lists, list), nil
}

// buildURLs starts a urlBuilder with the parent ID of a nested
// resource filled in.
func (ctx *actionContext) buildURLs(params ...string) *urlBuilder {
	if ctx.Resource.parent != nil {
		params = append(params, "parent_id", ctx.ParentID)
	}
	return buildURLs(ctx.Router, params...)
}

// titleOf returns a member's "title" attribute, or def.
func titleOf(m *entity.Member, def string) string {
	if value, err := m.Attr("title"); err == nil && value != nil {
		return fmt.Sprint(value)
	}
	return def
}

// navMenu renders navigation lists as nested HTML lists.  The first
// and last items of each inner list get "first" and "last" classes;
// links with a method other than GET become small forms that tunnel
// the method through a _method field.
func navMenu(lists [][]NavLink) htmltemplate.HTML {
	esc := htmltemplate.HTMLEscapeString
	var b strings.Builder
	b.WriteString(`<ul id="nav">`)
	for _, items := range lists {
		b.WriteString(`<li><ul class="menu">`)
		for i, item := range items {
			var classes []string
			if i == 0 {
				classes = append(classes, "first")
			}
			if i == len(items)-1 {
				classes = append(classes, "last")
			}
			if len(classes) > 0 {
				fmt.Fprintf(&b, `<li class="%s">`, strings.Join(classes, " "))
			} else {
				b.WriteString("<li>")
			}
			if item.Method == "" {
				fmt.Fprintf(&b, `<a href="%s">%s</a>`, esc(item.URL), esc(item.Text))
			} else {
				fmt.Fprintf(&b,
					`<form action="%s" method="POST" style="display: inline"><input type="hidden" name="_method" value="%s" /><input type="submit" value="%s" /></form>`,
					esc(item.URL), esc(item.Method), esc(item.Text))
			}
			b.WriteString("</li>")
		}
		b.WriteString("</ul></li>")
	}
	b.WriteString("</ul>")
	return htmltemplate.HTML(b.String())
}
