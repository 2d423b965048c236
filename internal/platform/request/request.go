// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/mediavault/internal/platform/apperr"
	"github.com/taibuivan/mediavault/internal/platform/ctxutil"
	"github.com/taibuivan/mediavault/internal/platform/validate"
	"github.com/taibuivan/mediavault/pkg/query"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, request.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request, percent-decoded.

chi matches on the raw path when the client escaped characters Go would not
(":" as %3A, ";" as %3B), leaving such parameters escaped. Otherwise it
matches on the already decoded path and the value is returned as is.

Returns:
  - string: the decoded value
  - error: a 400 error when the value is not valid percent-encoding
*/
func Param(request *http.Request, name string) (string, error) {
	value := chi.URLParam(request, name)
	if request.URL.RawPath == "" {
		return value, nil
	}

	decoded, err := url.PathUnescape(value)
	if err != nil {
		return "", apperr.BadRequest("Malformed path parameter: " + name)
	}
	return decoded, nil
}

/*
List splits a comma-separated query parameter, dropping blank entries.

Returns:
  - []string: the trimmed values in request order
  - error: a 400 validation error when no value remains
*/
func List(request *http.Request, name string) ([]string, error) {
	values := query.StringSlice(request.URL.Query().Get(name))
	if len(values) == 0 {
		return nil, validate.RequiredError(name, "At least one value is required")
	}
	return values, nil
}

/*
RequiredGrant returns the media grant provisioned for the request's token.

Returns:
  - string: the grant folder name
  - error: apperr.Unauthorized if the request did not pass token validation
*/
func RequiredGrant(request *http.Request) (string, error) {
	grant := ctxutil.GetGrant(request.Context())
	if grant == "" {
		return "", apperr.Unauthorized("Authentication required")
	}
	return grant, nil
}
