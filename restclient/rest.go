// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restclient

// This file provides generic REST client code.

import (
	"bytes"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/diffeo/go-restler/restdata"
	"github.com/jtacoma/uritemplates"
	"github.com/ugorji/go/codec"
)

// resource is any object that has a URL and a representation.
type resource struct {
	URL *url.URL

	// HTTP is the client requests are sent with.  It must not
	// follow redirects.
	HTTP *http.Client
}

// noRedirects is an HTTP client that hands 3xx responses back to the
// caller, since the server answers writes with 303 See Other.
var noRedirects = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func (r *resource) client() *http.Client {
	if r.HTTP == nil {
		return noRedirects
	}
	return r.HTTP
}

func (r *resource) Template(template string, vars map[string]interface{}) (*url.URL, error) {
	// Build the template object
	tmpl, err := uritemplates.Parse(template)
	if err != nil {
		return nil, err
	}

	// Encode all of the values if required
	for k, v := range vars {
		if s, isString := v.(string); isString {
			vars[k] = restdata.MaybeEncodeName(s)
		}
		if ss, isStringSlice := v.([]string); isStringSlice {
			tt := make([]string, len(ss))
			for i, s := range ss {
				tt[i] = restdata.MaybeEncodeName(s)
			}
			vars[k] = tt
		}
	}

	// Expand the template to produce a string
	expanded, err := tmpl.Expand(vars)
	if err != nil {
		return nil, err
	}

	// Return the parsed URL of the result, relative to ourselves
	return r.URL.Parse(expanded)
}

// send performs some HTTP action.  If in is non-nil, the request data
// is serialized as JSON and sent as the body of, for instance, a POST
// request.  The caller must close the response body.
func (r *resource) send(method string, url *url.URL, in interface{}) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		var buf []byte
		encoder := codec.NewEncoderBytes(&buf, restdata.JSONHandle())
		if err := encoder.Encode(in); err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}

	// Create the request and set headers
	req, err := http.NewRequest(method, url.String(), body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", restdata.V1JSONMediaType)
	}
	req.Header.Set("Accept", restdata.V1JSONMediaType)

	return r.client().Do(req)
}

// Do performs some HTTP action.  If in is non-nil, the request data is
// serialized and sent as the body of, for instance, a POST request.
// If out is non-nil, the response data (if any) is deserialized into
// this object, which must be of pointer type.
func (r *resource) Do(method string, url *url.URL, in, out interface{}) (err error) {
	resp, err := r.send(method, url, in)
	if err != nil {
		return err
	}

	// If the response included a body, clean up afterwards
	if resp.Body != nil {
		defer func() {
			err = firstError(err, resp.Body.Close())
		}()
	}

	// Check the response code
	if err = checkHTTPStatus(resp); err != nil {
		return err
	}

	// If there is both a body and a requested output,
	// decode it
	if resp.Body != nil && out != nil && resp.StatusCode != http.StatusNoContent {
		contentType := resp.Header.Get("Content-Type")
		err = restdata.Decode(contentType, resp.Body, out)
	}

	return err // may be nil
}

// Redirect performs some HTTP action that answers with 303 See Other,
// and returns the absolute URL it points at.
func (r *resource) Redirect(method string, url *url.URL, in interface{}) (location *url.URL, err error) {
	resp, err := r.send(method, url, in)
	if err != nil {
		return nil, err
	}
	if resp.Body != nil {
		defer func() {
			err = firstError(err, resp.Body.Close())
		}()
	}
	if resp.StatusCode != http.StatusSeeOther {
		if err = checkHTTPStatus(resp); err != nil {
			return nil, err
		}
		return nil, ErrorHTTP{Response: resp}
	}
	return url.Parse(resp.Header.Get("Location"))
}

// Get retrieves the resource from its own URL.  The result is stored
// in result, which must be of pointer type.
func (r *resource) Get(out interface{}) (err error) {
	return r.Do(http.MethodGet, r.URL, nil, out)
}

// GetFrom retrieves a resource from some other URL.  template is
// interpreted as a URI template, modified by vars, and the result
// taken relative to the resource's URL.  The result is stored in
// result, which must be of pointer type.
func (r *resource) GetFrom(template string, vars map[string]interface{}, out interface{}) (err error) {
	url, err := r.Template(template, vars)
	if err == nil {
		err = r.Do(http.MethodGet, url, nil, out)
	}
	return err
}

// ErrorHTTP is a catch-all error for non-successes returned from the
// REST endpoint.
type ErrorHTTP struct {
	// Response holds a pointer to the failing HTTP response.
	Response *http.Response

	// Body holds the contents of the message body, presumed to
	// be text.
	Body string
}

func (e ErrorHTTP) Error() string {
	return e.Response.Status
}

// checkHTTPStatus examines an HTTP response and returns an error if
// it is not successful.
func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Always collect the entire body; we will need it as a fallback
	// and can only parse it once.
	var body []byte
	var err error
	if resp.Body != nil {
		body, err = ioutil.ReadAll(resp.Body)
		if err != nil {
			return err
		}
	}

	// Take a shot at decoding it as a better error
	var errResp restdata.ErrorResponse
	contentType := resp.Header.Get("Content-Type")
	err2 := restdata.Decode(contentType, bytes.NewReader(body), &errResp)
	if err2 == nil && errResp.Error != "" {
		// Given that we decoded that successfully, return the
		// server-provided error
		return errResp.ToError()
	}

	return ErrorHTTP{Response: resp, Body: string(body)}
}

func firstError(e1, e2 error) error {
	if e1 != nil {
		return e1
	}
	return e2
}
