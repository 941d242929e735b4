// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/fields"
)

// ErrorStatus describes errors that correspond to specific HTTP status
// codes.
type ErrorStatus interface {
	// HTTPStatus returns the HTTP status code for this error.
	HTTPStatus() int
}

// ErrUnsupportedMediaType is returned from Decode() if the provided
// Content-Type: is unrecognized.  This translates directly into the
// equivalent HTTP 415 error.
type ErrUnsupportedMediaType struct {
	Type string
}

func (e ErrUnsupportedMediaType) Error() string {
	return fmt.Sprintf("Unsupported media type %q", e.Type)
}

// HTTPStatus returns a fixed 415 Unsupported Media Type error code.
func (e ErrUnsupportedMediaType) HTTPStatus() int {
	return http.StatusUnsupportedMediaType
}

// ErrNotFound is a wrapper error that indicates that, due to the
// embedded error, a REST service should return a 404 Not Found error.
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string {
	return e.Err.Error()
}

// HTTPStatus returns a fixed 404 Not Found error code.
func (e ErrNotFound) HTTPStatus() int {
	return http.StatusNotFound
}

// ErrBadRequest is returned as an error when there is an error decoding
// HTTP headers, query parameters, or the request body.
type ErrBadRequest struct {
	Err error
}

func (e ErrBadRequest) Error() string {
	return e.Err.Error()
}

// HTTPStatus returns a fixed 400 Bad Request HTTP status code.
func (e ErrBadRequest) HTTPStatus() int {
	return http.StatusBadRequest
}

// ErrForbidden is returned when a resource's authorization hook
// refuses an action.
type ErrForbidden struct {
	Err error
}

func (e ErrForbidden) Error() string {
	return e.Err.Error()
}

// HTTPStatus returns a fixed 403 Forbidden HTTP status code.
func (e ErrForbidden) HTTPStatus() int {
	return http.StatusForbidden
}

// ErrConflict is returned when a write collides with an existing
// member.
type ErrConflict struct {
	Err error
}

func (e ErrConflict) Error() string {
	return e.Err.Error()
}

// HTTPStatus returns a fixed 409 Conflict HTTP status code.
func (e ErrConflict) HTTPStatus() int {
	return http.StatusConflict
}

// FromError populates an ErrorResponse to fill in its fields based
// on an error value.  This remaps the well-known entity and fields
// errors to specific e.Error codes.
func (e *ErrorResponse) FromError(err error) {
	switch err {
	case entity.ErrNoKindName:
		e.Error = "ErrNoKindName"
	case entity.ErrNotSaved:
		e.Error = "ErrNotSaved"
	case entity.ErrEmptyCollection:
		e.Error = "ErrEmptyCollection"
	}
	switch et := err.(type) {
	case entity.ErrNoSuchKind:
		e.Error = "ErrNoSuchKind"
		e.Kind = et.Name
	case entity.ErrNoSuchMember:
		e.Error = "ErrNoSuchMember"
		e.Kind = et.Kind
		e.Value = et.ID
	case entity.ErrDuplicateKey:
		e.Error = "ErrDuplicateKey"
		e.Kind = et.Kind
		e.Value = et.ID
	case entity.ErrMalformedKey:
		e.Error = "ErrMalformedKey"
		e.Value = et.Value
		e.Reason = et.Reason
	case entity.ErrBadValue:
		e.Error = "ErrBadValue"
		e.Name = et.Column
		e.Value = et.Value
		if et.Err != nil {
			e.Reason = et.Err.Error()
		}
	case entity.ErrNoSuchAttribute:
		e.Error = "ErrNoSuchAttribute"
		e.Kind = et.Kind
		e.Name = et.Name
	case entity.ErrBadKind:
		e.Error = "ErrBadKind"
		e.Kind = et.Kind
		e.Reason = et.Reason
	case fields.ErrMalformed:
		e.Error = "ErrMalformedFields"
		e.Value = et.Raw
		if et.Err != nil {
			e.Reason = et.Err.Error()
		}
	case fields.ErrBadFieldSpec:
		e.Error = "ErrBadFieldSpec"
		e.Value = fmt.Sprintf("%v", et.Item)
	case ErrNotFound:
		// Discard this wrapper and return the embedded error
		e.FromError(et.Err)
	case ErrBadRequest:
		e.FromError(et.Err)
	case ErrForbidden:
		e.FromError(et.Err)
	case ErrConflict:
		e.FromError(et.Err)
	}
}

// ToError converts e back to an entity or fields error, if that is
// possible.  If not, returns a plain error with e.Message text.
func (e *ErrorResponse) ToError() error {
	var reason error
	if e.Reason != "" {
		reason = errors.New(e.Reason)
	}
	switch e.Error {
	case "ErrNoKindName":
		return entity.ErrNoKindName
	case "ErrNotSaved":
		return entity.ErrNotSaved
	case "ErrEmptyCollection":
		return entity.ErrEmptyCollection
	case "ErrNoSuchKind":
		return entity.ErrNoSuchKind{Name: e.Kind}
	case "ErrNoSuchMember":
		return entity.ErrNoSuchMember{Kind: e.Kind, ID: e.Value}
	case "ErrDuplicateKey":
		return entity.ErrDuplicateKey{Kind: e.Kind, ID: e.Value}
	case "ErrMalformedKey":
		return entity.ErrMalformedKey{Value: e.Value, Reason: e.Reason}
	case "ErrBadValue":
		return entity.ErrBadValue{Column: e.Name, Value: e.Value, Err: reason}
	case "ErrNoSuchAttribute":
		return entity.ErrNoSuchAttribute{Kind: e.Kind, Name: e.Name}
	case "ErrBadKind":
		return entity.ErrBadKind{Kind: e.Kind, Reason: e.Reason}
	case "ErrMalformedFields":
		return fields.ErrMalformed{Raw: e.Value, Err: reason}
	case "ErrBadFieldSpec":
		return fields.ErrBadFieldSpec{Item: e.Value}
	default:
		return errors.New(e.Message)
	}
}

// FromPanic populates an error response based on a panic.  Typical use
// is:
//
//     defer func() {
//         if obj := recovered(); obj != nil {
//             resp := restdata.ErrorResponse{}
//             resp.FromPanic(obj)
//             // write resp out as makes sense
//         }
//    }
func (e *ErrorResponse) FromPanic(obj interface{}) {
	e.Error = "panic"
	if recoveredError, isError := obj.(error); isError {
		e.Message = recoveredError.Error()
	} else {
		e.Message = fmt.Sprintf("%+v", obj)
	}
	var stack [4096]byte
	len := runtime.Stack(stack[:], false)
	e.Stack = string(stack[:len])
}
