// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient

import (
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/restdata"
	"github.com/ugorji/go/codec"
)

// Query selects and shapes the members an index returns.  Zero values
// leave the server defaults in place.
type Query struct {
	// Filters are values for the resource's filter parameters.
	Filters map[string]string

	// Offset skips this many matching members.
	Offset int

	// Limit returns at most this many members, if positive.
	Limit int

	// Page and PerPage select a one-based page of results.
	Page    int
	PerPage int

	// OrderBy names columns to sort by, each optionally prefixed
	// with "-" for descending order.
	OrderBy []string

	// Distinct removes duplicate members.
	Distinct bool

	// Fields is a field selection spec, as a list of names and
	// {"name": ..., "mapping": ...} objects.
	Fields []interface{}
}

// Values converts the query to request parameters.
func (q Query) Values() (url.Values, error) {
	params := url.Values{}
	for name, value := range q.Filters {
		params.Set(name, value)
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if len(q.OrderBy) > 0 {
		params.Set("order_by", strings.Join(q.OrderBy, ","))
	}
	if q.Distinct {
		params.Set("distinct", "true")
	}
	if q.Fields != nil {
		spec, err := encodeFields(q.Fields)
		if err != nil {
			return nil, err
		}
		params.Set("fields", spec)
	}
	return params, nil
}

func encodeFields(fields []interface{}) (string, error) {
	var buf []byte
	encoder := codec.NewEncoderBytes(&buf, restdata.JSONHandle())
	if err := encoder.Encode(fields); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Collection is one published resource.  Members are named by their
// URL IDs: a slug, or the string form of the primary key.
type Collection struct {
	resource

	// Links are the resource's URI templates from the root
	// document.
	Links restdata.ResourceLinks

	// ParentID names the parent member of a nested resource.
	ParentID string
}

// expand fills in a URI template from the root document, and adds
// query parameters.
func (c *Collection) expand(template, id string, params url.Values) (*url.URL, error) {
	vars := map[string]interface{}{}
	if c.Links.Parent != "" {
		vars["parent_id"] = c.ParentID
	}
	if id != "" {
		vars["id"] = id
	}
	u, err := c.Template(template, vars)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u, nil
}

// Index fetches the members matching a query.  An empty collection is
// not an error.
func (c *Collection) Index(q Query) (restdata.Results, error) {
	var envelope restdata.Envelope
	params, err := q.Values()
	if err != nil {
		return envelope.Response, err
	}
	u, err := c.expand(c.Links.CollectionURL, "", params)
	if err != nil {
		return envelope.Response, err
	}
	err = c.Do(http.MethodGet, u, nil, &envelope)
	if err == entity.ErrEmptyCollection {
		return restdata.Results{Results: []interface{}{}}, nil
	}
	return envelope.Response, err
}

// Show fetches a single member.  If fields is non-nil, it is a field
// selection spec for the result.
func (c *Collection) Show(id string, fields []interface{}) (map[string]interface{}, error) {
	params := url.Values{"wrap": {"false"}}
	if fields != nil {
		spec, err := encodeFields(fields)
		if err != nil {
			return nil, err
		}
		params.Set("fields", spec)
	}
	u, err := c.expand(c.Links.MemberURL, id, params)
	if err != nil {
		return nil, err
	}
	var obj map[string]interface{}
	err = c.Do(http.MethodGet, u, nil, &obj)
	return obj, err
}

// New fetches a new, unsaved member with its default values.
func (c *Collection) New() (map[string]interface{}, error) {
	u, err := c.expand(c.Links.NewURL, "", url.Values{"wrap": {"false"}})
	if err != nil {
		return nil, err
	}
	var obj map[string]interface{}
	err = c.Do(http.MethodGet, u, nil, &obj)
	return obj, err
}

// Create stores a new member, and returns its URL ID.
func (c *Collection) Create(values map[string]interface{}) (string, error) {
	u, err := c.expand(c.Links.CollectionURL, "", nil)
	if err != nil {
		return "", err
	}
	location, err := c.Redirect(http.MethodPost, u, values)
	if err != nil {
		return "", err
	}
	return restdata.MaybeDecodeName(path.Base(location.Path))
}

// Update changes some of the column values of a member.  Primary key
// columns cannot be changed.
func (c *Collection) Update(id string, values map[string]interface{}) error {
	u, err := c.expand(c.Links.MemberURL, id, nil)
	if err == nil {
		_, err = c.Redirect(http.MethodPut, u, values)
	}
	return err
}

// Delete removes a member.
func (c *Collection) Delete(id string) error {
	u, err := c.expand(c.Links.MemberURL, id, nil)
	if err == nil {
		_, err = c.Redirect(http.MethodDelete, u, nil)
	}
	return err
}
