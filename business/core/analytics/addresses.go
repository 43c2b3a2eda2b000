package analytics

import (
	"sort"

	"github.com/ardanlabs/ledgerview/foundation/ledger"
)

// AddressStats describes the activity of a single address.
type AddressStats struct {
	Address        string  `json:"address"`
	Sent           int     `json:"total_sent_transactions"`
	Received       int     `json:"total_received_transactions"`
	SentAmount     float64 `json:"total_sent_amount"`
	ReceivedAmount float64 `json:"total_received_amount"`
	Net            float64 `json:"net_amount"`
	FirstActivity  float64 `json:"first_activity"`
	LastActivity   float64 `json:"last_activity"`
}

// Total returns the number of transactions the address took part in.
func (as AddressStats) Total() int {
	return as.Sent + as.Received
}

// Addresses describes the activity of every address in the chain.
type Addresses struct {
	Unique        int             `json:"total_unique_addresses"`
	MostActive    []AddressCount  `json:"most_active_addresses"`
	HighestVolume []AddressAmount `json:"highest_volume_addresses"`
	SenderOnly    int             `json:"sender_only"`
	ReceiverOnly  int             `json:"receiver_only"`
	Both          int             `json:"both_sender_and_receiver"`
	Stats         []AddressStats  `json:"all_address_stats"`
}

// Kind implements the Dataset interface.
func (Addresses) Kind() Kind { return KindAddresses }
func (Addresses) dataset()   {}

// NewAddresses computes the address dataset for the snapshot.
func NewAddresses(snap ledger.ChainSnapshot) Addresses {
	stats := make(map[string]*AddressStats)

	touch := func(addr string, ts float64) *AddressStats {
		as, exists := stats[addr]
		if !exists {
			as = &AddressStats{Address: addr, FirstActivity: ts, LastActivity: ts}
			stats[addr] = as
		}
		as.FirstActivity = min(as.FirstActivity, ts)
		as.LastActivity = max(as.LastActivity, ts)
		return as
	}

	for _, blk := range snap.Chain {
		for _, tx := range blk.Transactions {
			s := touch(tx.Sender, tx.TimeStamp)
			s.Sent++
			s.SentAmount += tx.Amount

			r := touch(tx.Recipient, tx.TimeStamp)
			r.Received++
			r.ReceivedAmount += tx.Amount
		}
	}

	ds := Addresses{
		Unique: len(stats),
		Stats:  make([]AddressStats, 0, len(stats)),
	}

	activity := make(map[string]int, len(stats))
	volume := make(map[string]float64, len(stats))

	for addr, as := range stats {
		as.Net = as.ReceivedAmount - as.SentAmount
		ds.Stats = append(ds.Stats, *as)

		activity[addr] = as.Total()
		volume[addr] = as.SentAmount + as.ReceivedAmount

		switch {
		case as.Sent > 0 && as.Received > 0:
			ds.Both++
		case as.Sent > 0:
			ds.SenderOnly++
		default:
			ds.ReceiverOnly++
		}
	}

	sort.Slice(ds.Stats, func(i, j int) bool { return ds.Stats[i].Address < ds.Stats[j].Address })

	ds.MostActive = rankCounts(activity)
	ds.HighestVolume = rankAmounts(volume)

	return ds
}
