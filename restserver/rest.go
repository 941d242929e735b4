// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restserver

// This file contains a REST skeleton framework.
//
// The bulk of this is dealing with HTTP content type negotiation, and
// providing a standard way to deal with input and output values.  The
// negotiated type only picks a response format; the format can also
// come from the URL, and a format other than JSON is rendered through
// a template by the handler functions themselves.

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/diffeo/go-restler/restdata"
	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
)

// typeMap maps acceptable media types to response formats.
var typeMap = map[string]string{
	"text/json":              "json",
	"application/json":       "json",
	restdata.JSONMediaType:   "json",
	restdata.V1JSONMediaType: "json",
	"text/html":              "html",
	"application/xhtml+xml":  "html",
	"text/plain":             "txt",
	"text/xml":               "xml",
	"application/xml":        "xml",
}

// formatTypes gives the Content-Type: for each well-known format.
var formatTypes = map[string]string{
	"json": "application/json",
	"html": "text/html; charset=utf-8",
	"txt":  "text/plain; charset=utf-8",
	"xml":  "text/xml; charset=utf-8",
}

// contentTypeFor returns the Content-Type: for a response format.
func contentTypeFor(format string) string {
	if t, known := formatTypes[format]; known {
		return t
	}
	if t := mime.TypeByExtension("." + format); t != "" {
		return t
	}
	return "application/octet-stream"
}

// errBadAccept is returned from negotiateResponse() if the Accept:
// header is malformed (and no more specific error applies).
var errBadAccept = errors.New("Invalid Accept: header")

// errNotAcceptable is returned from negotiateResponse() if the Accept:
// header does not mention any media types we can actually return.
type errNotAcceptable struct{}

func (e errNotAcceptable) Error() string {
	return "No acceptable representation for response"
}

func (e errNotAcceptable) HTTPStatus() int {
	return http.StatusNotAcceptable
}

// errNotImplemented is returned from an arbitrary handler function if
// the actual function is not implemented.
type errNotImplemented struct {
	Text string
}

func (e errNotImplemented) Error() string {
	if e.Text == "" {
		return "Not implemented"
	}
	return e.Text
}

func (e errNotImplemented) HTTPStatus() int {
	return http.StatusNotImplemented
}

// errMethodNotAllowed is used within the resourceHandler implementation
// to flag an error if a particular HTTP method is not allowed.  This
// corresponds exactly to the 405 Method Not Allowed HTTP status code.
type errMethodNotAllowed struct {
	Method string
}

func (e errMethodNotAllowed) Error() string {
	return fmt.Sprintf("Method %v not allowed", e.Method)
}

func (e errMethodNotAllowed) HTTPStatus() int {
	return http.StatusMethodNotAllowed
}

// responseSeeOther is returned as a value response from handler
// functions that want to send the client somewhere else, as after
// creating, updating, or deleting a member.
type responseSeeOther struct {
	// Location holds the URL to redirect to.
	Location string
}

// responseRendered is returned as a value response from handler
// functions that have produced their own response body.
type responseRendered struct {
	// ContentType is the media type of Body.
	ContentType string

	// Body is the complete response body.
	Body []byte
}

type resourceHandler struct {
	// Context reads an HTTP request and produces a context object.
	// accepted is the media type chosen by Accept: negotiation, or
	// the empty string if any type will do.
	Context func(req *http.Request, accepted string) (*actionContext, error)

	// Get, if non-nil, returns a representation of the object.
	Get func(*actionContext) (interface{}, error)

	// Put, if non-nil, updates the object from request
	// parameters.  The return can be any useful return value,
	// including responseSeeOther.
	Put func(*actionContext, map[string]interface{}) (interface{}, error)

	// Post, if non-nil, takes some arbitrary action given request
	// parameters.  The return can be any useful return value,
	// including responseSeeOther.
	Post func(*actionContext, map[string]interface{}) (interface{}, error)

	// Delete, if non-nil, deletes the object.  The return can be
	// any useful return value.
	Delete func(*actionContext) (interface{}, error)

	// Logger receives request failures.
	Logger logrus.FieldLogger
}

func (h *resourceHandler) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	var (
		ctx          *actionContext
		in           map[string]interface{}
		out          interface{}
		err          error
		status       int
		method       string
		responseType string
	)
	jsonType := formatTypes["json"]

	// Recover from panics by sending an HTTP error.
	defer func() {
		if recovered := recover(); recovered != nil {
			response := restdata.ErrorResponse{}
			response.FromPanic(recovered)
			h.logger().WithFields(logrus.Fields{
				"method": req.Method,
				"url":    req.URL.String(),
			}).Error(response.Message)
			resp.Header().Set("Content-Type", jsonType)
			resp.WriteHeader(http.StatusInternalServerError)
			var body []byte
			encoder := codec.NewEncoderBytes(&body, restdata.JSONHandle())
			if encoder.Encode(response) == nil {
				_, _ = resp.Write(body)
			}
		}
	}()

	// Start by trying to come up with a response type, even before
	// trying to parse the input.  A format in the URL overrides
	// this, but if there is none, failing here is fatal.
	status = http.StatusBadRequest
	responseType, negotiateErr := negotiateResponse(req)
	if typeMap[responseType] == "json" {
		jsonType = responseType
	}

	// Get bits from URL parameters
	ctx, err = h.Context(req, responseType)
	if err == nil && ctx.FormatFrom == formatFromDefault && negotiateErr != nil {
		err = negotiateErr
	}

	// Read the body, if it's there
	method = req.Method
	if err == nil && (method == http.MethodPut || method == http.MethodPost) {
		in = ctx.QueryValues()
		if req.ContentLength != 0 || req.Header.Get("Content-Type") != "" {
			var body map[string]interface{}
			body, err = restdata.DecodeParams(req.Header.Get("Content-Type"), req.Body)
			for name, value := range body {
				in[name] = value
			}
		}
	}

	// HTML forms can only POST, so they tunnel other methods
	if err == nil && method == http.MethodPost {
		if tunneled, isString := in["_method"].(string); isString {
			switch strings.ToUpper(tunneled) {
			case http.MethodPut:
				method = http.MethodPut
			case http.MethodDelete:
				method = http.MethodDelete
			}
		}
	}

	// Actually call the handler method
	if err == nil {
		// We will return this if the method is unexpected or
		// we don't have a handler for it
		err = errMethodNotAllowed{Method: method}
		// If anything else goes wrong here, it's an error in
		// client code
		status = http.StatusInternalServerError
		switch method {
		case http.MethodGet, http.MethodHead:
			if h.Get != nil {
				out, err = h.Get(ctx)
			}
		case http.MethodPut:
			if h.Put != nil {
				out, err = h.Put(ctx, in)
			}
		case http.MethodPost:
			if h.Post != nil {
				out, err = h.Post(ctx, in)
			}
		case http.MethodDelete:
			if h.Delete != nil {
				out, err = h.Delete(ctx)
			}
		}
	}

	// Encode the result.  Everything that is not pre-rendered is
	// JSON, including errors.
	var body []byte
	contentType := jsonType
	if err == nil {
		switch o := out.(type) {
		case nil:
			status = http.StatusNoContent
		case responseSeeOther:
			status = http.StatusSeeOther
			resp.Header().Set("Location", o.Location)
		case responseRendered:
			status = http.StatusOK
			contentType = o.ContentType
			body = o.Body
		default:
			status = http.StatusOK
			encoder := codec.NewEncoderBytes(&body, restdata.JSONHandle())
			err = encoder.Encode(out)
			if err != nil {
				status = http.StatusInternalServerError
			}
		}
	}
	if err != nil {
		// Pick a better status code if we know of one
		if errS, hasStatus := err.(restdata.ErrorStatus); hasStatus {
			status = errS.HTTPStatus()
		}
		if status >= http.StatusInternalServerError {
			h.logger().WithError(err).WithFields(logrus.Fields{
				"method": method,
				"url":    req.URL.String(),
			}).Error("request failed")
		}
		response := restdata.ErrorResponse{Error: "error", Message: err.Error()}
		response.FromError(err)
		body = nil
		contentType = jsonType
		encoder := codec.NewEncoderBytes(&body, restdata.JSONHandle())
		encoder.MustEncode(response)
	}

	// Actually send the response.  If the write fails the status
	// line has already gone out, so all we can do is log it.
	if body != nil {
		resp.Header().Set("Content-Type", contentType)
	}
	resp.WriteHeader(status)
	if body != nil && req.Method != http.MethodHead {
		if _, err = resp.Write(body); err != nil {
			h.logger().WithError(err).Debug("writing response body")
		}
	}
}

func (h *resourceHandler) logger() logrus.FieldLogger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

// negotiateResponse returns a supported MIME type for the response
// body, following the path laid out in RFC 7231 section 5.3.  If any
// type will do, returns the empty string.
func negotiateResponse(req *http.Request) (string, error) {
	accept := req.Header.Get("Accept")
	if accept == "" {
		accept = "*/*"
	}
	bestType := ""
	bestQ := 0.0
	mediaRanges := strings.Split(accept, ",")
	for _, mediaRange := range mediaRanges {
		mediaRange = strings.TrimSpace(mediaRange)
		mediaType, params, err := mime.ParseMediaType(mediaRange)
		if err != nil {
			return "", err
		}

		// What is the "q" ("quality") parameter for this type?
		// If it is less than the best known so far, skip it
		q := 1.0
		if qStr, haveQ := params["q"]; haveQ {
			q, err = strconv.ParseFloat(qStr, 64)
			if err != nil {
				return "", err
			}
			if q < 0.0 || q > 1.0 {
				return "", errBadAccept
			}
		}
		if q < bestQ {
			continue
		}

		// This is acceptable if it's listed in the type
		// map; or it's one of a couple of specific wildcards.
		// Also need to handle wildcard precedence.  So:
		if mediaType == "*/*" {
			// Doesn't override anything.
			if q > bestQ {
				bestType = mediaType
				bestQ = q
			}
		} else if mediaType == "text/*" || mediaType == "application/*" {
			// Only overrides "*/*".
			if q > bestQ || bestType == "*/*" {
				bestType = mediaType
				bestQ = q
			}
		} else if _, knownType := typeMap[mediaType]; knownType {
			// Overrides any wildcard.  We want the first one
			// at a given q to win.
			if q > bestQ || bestType == "*/*" || bestType == "text/*" || bestType == "application/*" {
				bestType = mediaType
				bestQ = q
			}
		}
		// Otherwise we don't recognize this type at all, so
		// just drop it.
	}
	// If this failed to win, return an error
	if bestQ == 0.0 {
		return "", errNotAcceptable{}
	}
	switch bestType {
	case "*/*", "application/*", "text/*":
		return "", nil
	default:
		return bestType, nil
	}
}
