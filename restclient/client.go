// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restclient provides an HTTP REST client that talks to the
// matching server in the "restserver" package.
//
// The server in github.com/diffeo/go-restler/cmd/restlerd can run a
// compatible REST server.  Call New() with the base URL of that
// service; for instance,
//
//     c, err := restclient.New("http://localhost:5980/")
//     books, err := c.Resource("Book")
//     results, err := books.Index(restclient.Query{Limit: 10})
//
// Errors the server reports come back as the matching entity or
// fields error where there is one, so a missing member is still an
// entity.ErrNoSuchMember.
package restclient

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/restdata"
)

// Client is a connection to a REST server.
type Client struct {
	resource
	Representation restdata.RootData
}

// New creates a new client that speaks to an external REST server,
// and fetches its root document.
func New(baseURL string) (*Client, error) {
	return NewWithClient(baseURL, nil)
}

// NewWithClient creates a new client that sends its requests through
// a specific HTTP client.  That client must not follow redirects.  If
// it is nil, a default client is used.
func NewWithClient(baseURL string, httpClient *http.Client) (*Client, error) {
	var c *Client
	u, err := url.Parse(baseURL)
	if err == nil && !u.IsAbs() {
		err = fmt.Errorf("base URL %q is not absolute", baseURL)
	}
	if err == nil {
		c = &Client{
			resource: resource{URL: u, HTTP: httpClient},
		}
		err = c.Refresh()
	}

	if err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh fetches the root document again.
func (c *Client) Refresh() error {
	c.Representation = restdata.RootData{}
	return c.Get(&c.Representation)
}

// Kinds returns the names of the kinds the server publishes, in the
// server's order.  A kind published both on its own and nested is
// listed once.
func (c *Client) Kinds() []string {
	var kinds []string
	seen := make(map[string]bool)
	for _, links := range c.Representation.Resources {
		if !seen[links.Kind] {
			kinds = append(kinds, links.Kind)
			seen[links.Kind] = true
		}
	}
	return kinds
}

// Resource returns the top-level collection for a kind.  If the server
// only publishes the kind nested under a parent, use Nested instead.
func (c *Client) Resource(kind string) (*Collection, error) {
	links, found := c.Representation.Find(kind)
	if !found {
		return nil, entity.ErrNoSuchKind{Name: kind}
	}
	if links.Parent != "" {
		return nil, entity.ErrBadKind{
			Kind:   kind,
			Reason: "only published under " + links.Parent,
		}
	}
	return &Collection{resource: c.resource, Links: links}, nil
}

// Nested returns the collection for a kind published under a parent
// kind, limited to the children of the parent member parentID.
func (c *Client) Nested(kind, parent, parentID string) (*Collection, error) {
	for _, links := range c.Representation.Resources {
		if links.Kind == kind && links.Parent == parent {
			return &Collection{resource: c.resource, Links: links, ParentID: parentID}, nil
		}
	}
	return nil, entity.ErrNoSuchKind{Name: kind}
}
