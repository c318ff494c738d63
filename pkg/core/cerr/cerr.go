// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package cerr contains the core errors which classify failures of the
// use cases. Each Error wraps its cause and carries an HTTP status code
// so the REST adapters can report it without knowing the use cases.
//
//   - BadRequest: a required field was missing (no statement was run),
//   - NotFound: a name lookup yielded no row,
//   - Conflict: an ambiguous lookup or a missing open session,
//   - Unavailable: the database could not be reached.
//
// Other failures, such as constraint violations, are returned as plain
// wrapped errors and are reported as internal errors.
package cerr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Err            error
	HTTPStatusCode int
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.HTTPStatusCode, e.Err.Error())
}

func BadRequest(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusBadRequest}
}

func NotFound(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusNotFound}
}

func Conflict(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusConflict}
}

func Unavailable(err error) *Error {
	return &Error{Err: err, HTTPStatusCode: http.StatusServiceUnavailable}
}

// ErrNoSession is wrapped by a Conflict error when a write is asked
// while no session is open.
var ErrNoSession = errors.New("transaction not started")

// Code returns the HTTP status code of the outer most *Error which is
// wrapped by err, or http.StatusInternalServerError if err does not
// wrap any *Error. A nil err yields http.StatusOK.
func Code(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.HTTPStatusCode
	}
	return http.StatusInternalServerError
}
