// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package routes_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	gogin "github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/momeni/clientstx/internal/test/dbcontainer"
	"github.com/momeni/clientstx/pkg/adapter/config"
	"github.com/momeni/clientstx/pkg/adapter/db/postgres"
	"github.com/momeni/clientstx/pkg/adapter/restful/gin"
	"github.com/momeni/clientstx/pkg/adapter/restful/gin/routes"
	"github.com/momeni/clientstx/pkg/core/model"
	"github.com/stretchr/testify/suite"
)

type IntegrationRoutesTestSuite struct {
	suite.Suite

	Ctx  context.Context
	Pool *postgres.Pool
	Gin  *gin.Engine

	services *routes.Services
}

func TestIntegrationRoutesTestSuite(t *testing.T) {
	ctx := context.Background()
	_, pool, dfrs, ok := dbcontainer.New(ctx, 60*time.Second, t)
	for _, f := range dfrs {
		defer f()
	}
	if !ok || !dbcontainer.InitDev(ctx, t, pool) {
		return
	}
	suite.Run(t, &IntegrationRoutesTestSuite{Ctx: ctx, Pool: pool})
}

func (irts *IntegrationRoutesTestSuite) SetupSuite() {
	gogin.SetMode(gogin.TestMode)
	c := &config.Config{}
	irts.Require().NoError(c.Session.ValidateAndNormalize())
	irts.Gin = gin.New()
	var err error
	irts.services, err = routes.Register(irts.Ctx, irts.Gin, irts.Pool, c)
	irts.Require().NoError(err, "failed to register Gin routes")
}

func (irts *IntegrationRoutesTestSuite) TearDownSuite() {
	irts.NoError(irts.services.Shutdown(irts.Ctx))
}

func form(kv ...string) io.Reader {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return strings.NewReader(v.Encode())
}

func (irts *IntegrationRoutesTestSuite) do(
	method, path string, body io.Reader, want int,
) []byte {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, routes.BasePath+path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	irts.Gin.ServeHTTP(w, req)
	irts.Require().Equal(want, w.Code, "%s %s: %s", method, path, w.Body)
	return w.Body.Bytes()
}

func (irts *IntegrationRoutesTestSuite) snapshotNames() []string {
	var resp struct {
		Clients []model.Client `json:"clients"`
	}
	body := irts.do(http.MethodGet, "/clients/snapshot", nil, http.StatusOK)
	irts.Require().NoError(json.Unmarshal(body, &resp))
	var ns []string
	for _, c := range resp.Clients {
		ns = append(ns, c.Name+" "+c.LastName)
	}
	return ns
}

func (irts *IntegrationRoutesTestSuite) TestEditAndCommit() {
	irts.do(http.MethodPost, "/clients", form(
		"name", "Ana", "last_name", "Lopez", "address", "1st St",
	), http.StatusConflict)

	irts.do(http.MethodPost, "/session/start", nil, http.StatusOK)
	irts.do(http.MethodPost, "/clients", form(
		"name", "Ana", "last_name", "Lopez", "address", "1st St",
	), http.StatusCreated)
	irts.do(http.MethodPost, "/clients", form(
		"name", "Bea", "last_name", "Ruiz",
	), http.StatusBadRequest)
	irts.do(http.MethodPost, "/clients/NoSuchClient/phones", form(
		"number", "555-0000",
	), http.StatusNotFound)
	irts.do(http.MethodPut, "/clients/Ana", form(
		"last_name", "Garcia", "address", "2nd Ave",
	), http.StatusOK)

	body := irts.do(http.MethodGet, "/session", nil, http.StatusOK)
	irts.JSONEq(`{"state":"open-dirty","isolation_level":"read committed",
		"label":"Nivel actual: Lecturas comprometidas"}`, string(body))

	body = irts.do(http.MethodGet, "/clients", nil, http.StatusOK)
	irts.Contains(string(body), `"Garcia"`, "pending writes are listed")

	irts.do(http.MethodPost, "/session/commit", nil, http.StatusOK)
	irts.Contains(irts.snapshotNames(), "Ana Garcia", "refreshed on commit")

	irts.do(http.MethodPost, "/clients/Ana/phones", form(
		"number", "555-0303",
	), http.StatusCreated)
	irts.do(http.MethodPost, "/session/rollback", nil, http.StatusOK)
	body = irts.do(http.MethodGet, "/clients", nil, http.StatusOK)
	irts.NotContains(string(body), "555-0303")

	irts.do(http.MethodPut, "/session/isolation", form(
		"level", "serializable",
	), http.StatusOK)
	body = irts.do(
		http.MethodPost, "/session/isolation/next", nil, http.StatusOK,
	)
	irts.Contains(string(body), `"read uncommitted"`)
	body = irts.do(http.MethodDelete, "/session", nil, http.StatusOK)
	irts.Contains(string(body), `"closed"`)
}
