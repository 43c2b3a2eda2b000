// Package viewgrp maintains the group of handlers for dashboard views.
package viewgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ardanlabs/ledgerview/business/core/analytics"
	"github.com/ardanlabs/ledgerview/business/core/dashboard"
	"github.com/ardanlabs/ledgerview/business/core/submit"
	v1 "github.com/ardanlabs/ledgerview/business/web/v1"
	"github.com/ardanlabs/ledgerview/foundation/events"
	"github.com/ardanlabs/ledgerview/foundation/ledger"
	"github.com/ardanlabs/ledgerview/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of view endpoints.
type Handlers struct {
	Log      *zap.SugaredLogger
	Registry *dashboard.Registry
	Evts     *events.Events
	Origin   string
	WS       websocket.Upgrader
}

// CreateView opens a new dashboard session.
func (h Handlers) CreateView(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := h.Registry.Create()
	if err != nil {
		if errors.Is(err, dashboard.ErrFull) {
			return v1.NewRequestError(err, http.StatusTooManyRequests)
		}
		return err
	}

	resp := view{
		ID:      v.ID,
		Created: v.Created,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// DeleteView closes a dashboard session.
func (h Handlers) DeleteView(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.Registry.Remove(web.Param(r, "id")); err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, nil, http.StatusNoContent)
}

// Blocks returns the blocks matching the q query string parameter.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := h.lookup(r)
	if err != nil {
		return err
	}

	blocks := v.Blocks(r.URL.Query().Get("q"))

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Toggle flips the expansion of a block for the view.
func (h Handlers) Toggle(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := h.lookup(r)
	if err != nil {
		return err
	}

	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("invalid block index: %w", err), http.StatusBadRequest)
	}

	resp := expanded{
		Index:    index,
		Expanded: v.Toggle(index),
	}
	resp.IsExpanded = v.IsExpanded(index)

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Form returns the state of the view's transaction form.
func (h Handlers) Form(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := h.lookup(r)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, v.Form(), http.StatusOK)
}

// EditForm records the user's changes to the draft.
func (h Handlers) EditForm(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := h.lookup(r)
	if err != nil {
		return err
	}

	var draft ledger.Draft
	if err := web.Decode(r, &draft); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if err := v.Edit(draft); err != nil {
		return v1.NewRequestError(err, http.StatusConflict)
	}

	return web.Respond(ctx, w, v.Form(), http.StatusOK)
}

// SubmitTransaction submits the draft through the view's form.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := h.lookup(r)
	if err != nil {
		return err
	}

	var draft ledger.Draft
	if err := web.Decode(r, &draft); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", web.GetTraceID(ctx), "view", v.ID, "sender", draft.Sender, "recipient", draft.Recipient, "amount", draft.Amount)

	tx, err := v.Submit(ctx, draft)
	if err != nil {
		var se *submit.SubmissionError
		switch {
		case submit.IsValidationError(err):
			return v1.NewRequestError(err, http.StatusBadRequest)
		case errors.Is(err, submit.ErrInFlight):
			return v1.NewRequestError(err, http.StatusConflict)
		case errors.As(err, &se):
			return v1.NewRequestError(err, http.StatusBadGateway)
		}
		return err
	}

	resp := submitted{
		Transaction: tx,
		Form:        v.Form(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Stats returns the state of the stats query.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st := h.Registry.Stats()

	resp := stats{
		Stats:     st.Data,
		IsLoading: st.IsLoading,
		Stale:     st.Invalidated || (st.Err != nil && st.HasData),
		FetchedAt: st.FetchedAt,
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Analytics returns the dataset of the requested kind.
func (h Handlers) Analytics(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	kind, err := analytics.ParseKind(web.Param(r, "kind"))
	if err != nil {
		return v1.NewRequestError(err, http.StatusNotFound)
	}

	ds, err := h.Registry.Analytics(kind)
	if err != nil {
		if errors.Is(err, dashboard.ErrNoChain) {
			return v1.NewRequestError(err, http.StatusServiceUnavailable)
		}
		return err
	}

	resp := dataset{
		Kind: ds.Kind(),
		Data: ds,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balance returns the balance of the address from the last chain snapshot.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")

	bal, err := h.Registry.Balance(address)
	if err != nil {
		if errors.Is(err, dashboard.ErrNoChain) {
			return v1.NewRequestError(err, http.StatusServiceUnavailable)
		}
		return err
	}

	resp := balance{
		Address: address,
		Balance: bal,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide query updates to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = h.checkOrigin

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

// checkOrigin accepts websocket requests from the configured CORS origin.
// Every origin is accepted when it's configured as *.
func (h Handlers) checkOrigin(r *http.Request) bool {
	if h.Origin == "" || h.Origin == "*" {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	return strings.EqualFold(origin, h.Origin)
}

// lookup finds the view named by the id parameter.
func (h Handlers) lookup(r *http.Request) (*dashboard.View, error) {
	v, err := h.Registry.Lookup(web.Param(r, "id"))
	if err != nil {
		return nil, v1.NewRequestError(err, http.StatusNotFound)
	}
	return v, nil
}
