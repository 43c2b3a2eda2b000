// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/ledgerview/app/services/viewer/handlers/v1/viewgrp"
	"github.com/ardanlabs/ledgerview/business/core/dashboard"
	"github.com/ardanlabs/ledgerview/foundation/events"
	"github.com/ardanlabs/ledgerview/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log      *zap.SugaredLogger
	Registry *dashboard.Registry
	Evts     *events.Events
	Origin   string
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	vgh := viewgrp.Handlers{
		Log:      cfg.Log,
		Registry: cfg.Registry,
		Evts:     cfg.Evts,
		Origin:   cfg.Origin,
	}

	app.Handle(http.MethodPost, version, "/views", vgh.CreateView)
	app.Handle(http.MethodDelete, version, "/views/:id", vgh.DeleteView)
	app.Handle(http.MethodGet, version, "/views/:id/blocks", vgh.Blocks)
	app.Handle(http.MethodPost, version, "/views/:id/blocks/:index/toggle", vgh.Toggle)
	app.Handle(http.MethodGet, version, "/views/:id/form", vgh.Form)
	app.Handle(http.MethodPut, version, "/views/:id/form", vgh.EditForm)
	app.Handle(http.MethodPost, version, "/views/:id/transactions", vgh.SubmitTransaction)
	app.Handle(http.MethodGet, version, "/stats", vgh.Stats)
	app.Handle(http.MethodGet, version, "/analytics/:kind", vgh.Analytics)
	app.Handle(http.MethodGet, version, "/balances/:address", vgh.Balance)
	app.Handle(http.MethodGet, version, "/events", vgh.Events)
}
