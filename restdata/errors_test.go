// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"errors"
	"net/http"
	"testing"

	"github.com/diffeo/go-restler/entity"
	"github.com/diffeo/go-restler/fields"
	"github.com/stretchr/testify/assert"
)

func TestErrorRoundTrip(t *testing.T) {
	tests := []error{
		entity.ErrNoKindName,
		entity.ErrNotSaved,
		entity.ErrEmptyCollection,
		entity.ErrNoSuchKind{Name: "Book"},
		entity.ErrNoSuchMember{Kind: "Book", ID: "17"},
		entity.ErrDuplicateKey{Kind: "Book", ID: "17"},
		entity.ErrMalformedKey{Value: "1,2,3", Reason: "expected 2 parts, got 3"},
		entity.ErrBadValue{Column: "price", Value: "cheap", Err: errors.New("not a decimal")},
		entity.ErrBadValue{Column: "price", Value: "cheap"},
		entity.ErrNoSuchAttribute{Kind: "Book", Name: "colour"},
		entity.ErrBadKind{Kind: "Book", Reason: "no columns"},
		fields.ErrMalformed{Raw: "[", Err: errors.New("EOF")},
		fields.ErrBadFieldSpec{Item: "42"},
	}
	for _, err := range tests {
		resp := ErrorResponse{Error: "error", Message: err.Error()}
		resp.FromError(err)
		assert.NotEqual(t, "error", resp.Error, "%#v", err)
		back := resp.ToError()
		assert.Equal(t, err, back)
		assert.Equal(t, err.Error(), back.Error())
	}
}

func TestErrorWrappers(t *testing.T) {
	inner := entity.ErrNoSuchMember{Kind: "Book", ID: "x"}
	tests := []struct {
		Err    error
		Status int
	}{
		{ErrNotFound{Err: inner}, http.StatusNotFound},
		{ErrBadRequest{Err: inner}, http.StatusBadRequest},
		{ErrForbidden{Err: inner}, http.StatusForbidden},
		{ErrConflict{Err: inner}, http.StatusConflict},
	}
	for _, test := range tests {
		if assert.Implements(t, (*ErrorStatus)(nil), test.Err) {
			assert.Equal(t, test.Status, test.Err.(ErrorStatus).HTTPStatus())
		}
		assert.Equal(t, inner.Error(), test.Err.Error())

		resp := ErrorResponse{Error: "error", Message: test.Err.Error()}
		resp.FromError(test.Err)
		assert.Equal(t, "ErrNoSuchMember", resp.Error)
		assert.Equal(t, inner, resp.ToError())
	}
}

func TestUnknownError(t *testing.T) {
	err := errors.New("something broke")
	resp := ErrorResponse{Error: "error", Message: err.Error()}
	resp.FromError(err)
	assert.Equal(t, "error", resp.Error)
	assert.EqualError(t, resp.ToError(), "something broke")
}

func TestFromPanic(t *testing.T) {
	resp := ErrorResponse{}
	resp.FromPanic("oops")
	assert.Equal(t, "panic", resp.Error)
	assert.Equal(t, "oops", resp.Message)
	assert.NotEmpty(t, resp.Stack)

	resp = ErrorResponse{}
	resp.FromPanic(errors.New("bad"))
	assert.Equal(t, "bad", resp.Message)
}
