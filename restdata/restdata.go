// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package restdata defines common data structures shared between the
// restserver and restclient packages.  JSON encodings of these are
// passed across the wire, generally as the
// application/vnd.diffeo.restler.v1+json MIME type, though the server
// also answers plain application/json requests.
//
// API Usage
//
// HTTP GET the root document at its specified URL.  This returns a
// JSON serialization of the RootData object, with one entry per
// published resource.  Follow the links in those entries, filling in
// template values, to get to collections and members.
//
// Many of the URL fields are RFC 6570 URI templates.  For instance,
// if a "Book" kind is published at the root of a server, the root
// document will contain
//
//     {
//         "url": "/",
//         "resources": [{
//             "kind": "Book",
//             "title": "Books",
//             "collection_url": "/books",
//             "member_url": "/books/{id}",
//             "new_url": "/books/new",
//             "edit_url": "/books/{id}/edit"
//         }]
//     }
//
// Nested resources have a {parent_id} template parameter in all of
// their links.  The URL structure is predictable and formulaic, but
// only the root document is part of the API contract.
//
// Encoding Considerations
//
// A member ID in a URL is the string form of its primary key.  For
// kinds with composite keys this is the parts of the key joined with
// commas.  An ID that cannot be represented unescaped is encoded by
// base64 encoding its bytes using the URL-safe alphabet with no
// padding, and prepending a hyphen.  IDs that would otherwise be safe
// but begin with hyphens are also encoded.
//
// Timestamps are represented as "2006-01-02 15:04:05.999999" strings
// in UTC; dates as "2006-01-02".  Decimal values are integers if they
// are integral and floating-point numbers otherwise.
//
// Collections and Members
//
// A collection GET returns, by default, an Envelope holding a Results
// list.  Passing wrap=false returns the bare list instead.  A member
// GET returns an Envelope holding a one-element Results list, or with
// wrap=false the bare object.  Each object has a "type" key naming its
// kind and one key per public attribute, unless the "fields" parameter
// selects something different.
//
// Creating, updating, or deleting a member answers with 303 See Other
// pointing at the member (or, after a delete, the collection).  Request
// bodies may be JSON objects or HTML form submissions.
//
// Errors
//
// Most errors are returned as encodings of the ErrorResponse type,
// accompanied by a failing HTTP status code.  This can round-trip the
// errors of the entity and fields packages but returns most other
// errors as plain strings.  If Go server code panics, this is captured
// and returned as an ErrorResponse with error code "panic".
package restdata

// V1JSONMediaType is the preferred, most specific MIME type for the
// JSON representation of this content.
const V1JSONMediaType = "application/vnd.diffeo.restler.v1+json"

// JSONMediaType requests the most recent version of the JSON
// representation of this content.
const JSONMediaType = "application/vnd.diffeo.restler+json"

// FormMediaType is the MIME type of a URL-encoded HTML form
// submission.
const FormMediaType = "application/x-www-form-urlencoded"

// MultipartFormMediaType is the MIME type of a multipart HTML form
// submission.
const MultipartFormMediaType = "multipart/form-data"

// Resource is a base type for all resources in this module.
type Resource struct {
	// URL points at this resource.
	URL string `json:"url"`
}

// ResourceLinks describes one published resource in the root
// document.
type ResourceLinks struct {
	// Kind is the CamelCase name of the entity kind.
	Kind string `json:"kind"`

	// Title is the human-readable collection title.
	Title string `json:"title"`

	// Parent is the kind name of the parent resource, if this
	// resource is nested.
	Parent string `json:"parent,omitempty"`

	// CollectionURL is the index and create URL.  For nested
	// resources it is a URI template with a {parent_id} parameter.
	CollectionURL string `json:"collection_url"`

	// MemberURL is a URI template with an {id} parameter for the
	// show, update, and delete actions.
	MemberURL string `json:"member_url"`

	// NewURL returns a new, unsaved member.
	NewURL string `json:"new_url"`

	// EditURL is a URI template with an {id} parameter for the
	// edit action.
	EditURL string `json:"edit_url"`
}

// RootData is returned by the root path.
type RootData struct {
	Resource

	// Resources lists every published resource, in the order they
	// were configured.
	Resources []ResourceLinks `json:"resources"`
}

// Find returns the links for a kind, by its CamelCase name, and false
// if there is no such resource.  If the kind is
// published more than once, the first un-nested entry wins.
func (r RootData) Find(kind string) (ResourceLinks, bool) {
	var found ResourceLinks
	ok := false
	for _, links := range r.Resources {
		if links.Kind != kind {
			continue
		}
		if links.Parent == "" {
			return links, true
		}
		if !ok {
			found, ok = links, true
		}
	}
	return found, ok
}

// Results is the body of a wrapped JSON response.
type Results struct {
	// Results holds the simplified members.
	Results []interface{} `json:"results"`

	// ResultCount is the number of entries in Results.
	ResultCount int `json:"result_count"`

	// TotalCount is the number of members matching the request's
	// filters, ignoring paging.
	TotalCount int `json:"total_count"`
}

// Envelope wraps Results in the standard response container.
type Envelope struct {
	Response Results `json:"response"`
}

// ErrorResponse can be a response to any method, generally accompanied
// by a failing HTTP status code.
type ErrorResponse struct {
	// Error is a short description of the failure.  This may be
	// the name or type of an entity or fields error, the string
	// "panic", or the string "error" for some other kind of
	// error.
	Error string `json:"error"`

	// Message is a human-readable description of the failure.
	Message string `json:"message"`

	// Kind names the entity kind involved, if applicable.
	Kind string `json:"kind,omitempty"`

	// Name names the attribute or column involved, if applicable.
	Name string `json:"name,omitempty"`

	// Value is an extra parameter to the error if applicable.
	Value string `json:"value,omitempty"`

	// Reason is the underlying cause of the error, if applicable.
	Reason string `json:"reason,omitempty"`

	// Stack holds a formatted backtrace, if the method failed
	// due to a panic.
	Stack string `json:"stack,omitempty"`
}
