// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package serdser contains the serialization and deserialization
// helpers which are shared by the REST resources.
package serdser

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/momeni/clientstx/pkg/core/cerr"
	"github.com/momeni/clientstx/pkg/core/log"
)

// Bind deserializes the request into req with the b binding and
// validates it. A failure is reported to the client and false is
// returned, so the caller can simply return.
func Bind(c *gin.Context, req any, b binding.Binding) bool {
	return report(c, c.ShouldBindWith(req, b))
}

// BindURI is similar to Bind, but deserializes the path params.
func BindURI(c *gin.Context, req any) bool {
	return report(c, c.ShouldBindUri(req))
}

func report(c *gin.Context, err error) bool {
	var verrs validator.ValidationErrors
	var iverr *validator.InvalidValidationError
	switch {
	case err == nil:
		return true
	case errors.As(err, &iverr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": err.Error(),
		})
	case errors.As(err, &verrs):
		var nameToErrs map[string][]string
		for _, ferr := range verrs {
			AddErr(&nameToErrs, ferr.Field(), ferr.Error())
		}
		c.JSON(http.StatusBadRequest, nameToErrs)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": err.Error(),
		})
	}
	return false
}

func AddErr(errs *map[string][]string, name string, msgs ...string) {
	if (*errs) == nil {
		*errs = make(map[string][]string)
	}
	(*errs)[name] = append((*errs)[name], msgs...)
}

// SerErr reports err with the status code of its *cerr.Error, or as
// an internal server error. Internal errors are logged too.
func SerErr(c *gin.Context, err error) {
	code := cerr.Code(err)
	if code >= http.StatusInternalServerError {
		log.Error(c, "request failed", log.Err("err", err))
	}
	var ce *cerr.Error
	if errors.As(err, &ce) {
		c.JSON(code, gin.H{"detail": ce.Err.Error()})
		return
	}
	c.JSON(code, gin.H{"detail": err.Error()})
}
