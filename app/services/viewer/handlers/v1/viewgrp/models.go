package viewgrp

import (
	"time"

	"github.com/ardanlabs/ledgerview/business/core/analytics"
	"github.com/ardanlabs/ledgerview/business/core/submit"
	"github.com/ardanlabs/ledgerview/foundation/ledger"
)

type view struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
}

type expanded struct {
	Index      uint64   `json:"index"`
	IsExpanded bool     `json:"is_expanded"`
	Expanded   []uint64 `json:"expanded"`
}

type submitted struct {
	Transaction ledger.Transaction `json:"transaction"`
	Form        submit.State       `json:"form"`
}

type stats struct {
	Stats     ledger.StatsSnapshot `json:"stats"`
	IsLoading bool                 `json:"is_loading"`
	Stale     bool                 `json:"stale"`
	Error     string               `json:"error,omitempty"`
	FetchedAt time.Time            `json:"fetched_at,omitzero"`
}

type dataset struct {
	Kind analytics.Kind    `json:"kind"`
	Data analytics.Dataset `json:"data"`
}

type balance struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}
