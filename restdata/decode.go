// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package restdata

import (
	"errors"
	"io"
	"io/ioutil"
	"mime"
	"mime/multipart"
	"net/url"
	"reflect"

	"github.com/ugorji/go/codec"
)

// maxFormMemory bounds the multipart form data held in memory.
const maxFormMemory = 32 << 20

// errNotObject is returned from DecodeParams() if a JSON body is not
// an object.
var errNotObject = errors.New("Request body is not a JSON object")

// errNoBoundary is returned from DecodeParams() if a multipart body
// has no boundary parameter.
var errNoBoundary = errors.New("Multipart body has no boundary")

// JSONHandle returns the codec handle used for all JSON on the wire.
// Generic objects decode as map[string]interface{}.
func JSONHandle() *codec.JsonHandle {
	h := &codec.JsonHandle{}
	h.MapType = reflect.TypeOf(map[string]interface{}(nil))
	return h
}

// mediaTypeOf parses a Content-Type: header and promotes the JSON
// variants to V1JSONMediaType.
func mediaTypeOf(contentType string) (string, map[string]string, error) {
	if contentType == "" {
		// RFC 7231 section 3.1.1.5
		contentType = "application/octet-stream"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", nil, ErrBadRequest{Err: err}
	}

	// Promote to more specific types
	switch mediaType {
	case "text/json", "application/json", JSONMediaType, V1JSONMediaType:
		mediaType = V1JSONMediaType
	}
	return mediaType, params, nil
}

// Decode tries to decode a restdata object from a reader, such as an
// HTTP request or response.  out must be a pointer type.
func Decode(contentType string, r io.Reader, out interface{}) error {
	mediaType, _, err := mediaTypeOf(contentType)
	if err != nil {
		return err
	}

	switch mediaType {
	case V1JSONMediaType:
		decoder := codec.NewDecoder(r, JSONHandle())
		err = decoder.Decode(out)
	default:
		err = ErrUnsupportedMediaType{Type: mediaType}
	}
	return err
}

// DecodeParams reads the parameters of a create or update request
// body.  JSON bodies must be a single object; its values are passed
// through with their JSON types.  URL-encoded and multipart form
// bodies produce string values, using the first value of repeated
// fields.  Decoding failures are ErrBadRequest; unknown media types
// are ErrUnsupportedMediaType.
func DecodeParams(contentType string, r io.Reader) (map[string]interface{}, error) {
	mediaType, mediaParams, err := mediaTypeOf(contentType)
	if err != nil {
		return nil, err
	}

	switch mediaType {
	case V1JSONMediaType:
		var obj interface{}
		if err = Decode(contentType, r, &obj); err != nil {
			return nil, ErrBadRequest{Err: err}
		}
		if obj == nil {
			return map[string]interface{}{}, nil
		}
		params, isMap := obj.(map[string]interface{})
		if !isMap {
			return nil, ErrBadRequest{Err: errNotObject}
		}
		return params, nil

	case FormMediaType:
		var body []byte
		body, err = ioutil.ReadAll(r)
		if err != nil {
			return nil, err
		}
		var values url.Values
		values, err = url.ParseQuery(string(body))
		if err != nil {
			return nil, ErrBadRequest{Err: err}
		}
		return firstValues(values), nil

	case MultipartFormMediaType:
		boundary := mediaParams["boundary"]
		if boundary == "" {
			return nil, ErrBadRequest{Err: errNoBoundary}
		}
		var form *multipart.Form
		form, err = multipart.NewReader(r, boundary).ReadForm(maxFormMemory)
		if err != nil {
			return nil, ErrBadRequest{Err: err}
		}
		defer form.RemoveAll()
		return firstValues(form.Value), nil
	}
	return nil, ErrUnsupportedMediaType{Type: mediaType}
}

func firstValues(values map[string][]string) map[string]interface{} {
	params := make(map[string]interface{}, len(values))
	for name, list := range values {
		if len(list) > 0 {
			params[name] = list[0]
		}
	}
	return params
}
