package analytics

import (
	"github.com/ardanlabs/ledgerview/foundation/ledger"
)

// BlockTimes summarizes the seconds between consecutive blocks.
type BlockTimes struct {
	Average float64 `json:"average_block_time"`
	Median  float64 `json:"median_block_time"`
	Minimum float64 `json:"minimum_block_time"`
	Maximum float64 `json:"maximum_block_time"`
}

// BlockLoad summarizes the number of transactions in each block.
type BlockLoad struct {
	Average      float64 `json:"average"`
	Maximum      int     `json:"maximum"`
	Distribution []int   `json:"distribution"`
}

// Network describes the performance of the chain. Block times and
// throughput need at least two blocks and are zero otherwise.
type Network struct {
	Blocks            int        `json:"blocks"`
	BlockTimes        BlockTimes `json:"block_time_analysis"`
	Load              BlockLoad  `json:"transactions_per_block"`
	AverageNonce      float64    `json:"average_nonce"`
	TotalNonce        uint64     `json:"total_nonce_attempts"`
	Difficulty        int        `json:"current_difficulty"`
	TotalTransactions int        `json:"total_transactions"`
	TotalSeconds      float64    `json:"total_time_seconds"`
	PerSecond         float64    `json:"transactions_per_second"`
}

// Kind implements the Dataset interface.
func (Network) Kind() Kind { return KindNetwork }
func (Network) dataset()   {}

// NewNetwork computes the network dataset for the snapshot.
func NewNetwork(snap ledger.ChainSnapshot) Network {
	ds := Network{
		Blocks:     len(snap.Chain),
		Difficulty: snap.Difficulty,
		Load: BlockLoad{
			Distribution: make([]int, len(snap.Chain)),
		},
	}

	if len(snap.Chain) == 0 {
		return ds
	}

	for i, blk := range snap.Chain {
		n := len(blk.Transactions)
		ds.Load.Distribution[i] = n
		ds.TotalTransactions += n
		if n > ds.Load.Maximum {
			ds.Load.Maximum = n
		}
		ds.TotalNonce += blk.Nonce
	}

	ds.Load.Average = float64(ds.TotalTransactions) / float64(len(snap.Chain))
	ds.AverageNonce = float64(ds.TotalNonce) / float64(len(snap.Chain))

	if len(snap.Chain) < 2 {
		return ds
	}

	times := make([]float64, 0, len(snap.Chain)-1)
	var sum float64
	for i := 1; i < len(snap.Chain); i++ {
		d := snap.Chain[i].TimeStamp - snap.Chain[i-1].TimeStamp
		times = append(times, d)
		sum += d
	}

	ds.BlockTimes.Average = sum / float64(len(times))
	ds.BlockTimes.Minimum = times[0]
	ds.BlockTimes.Maximum = times[0]
	for _, d := range times {
		ds.BlockTimes.Minimum = min(ds.BlockTimes.Minimum, d)
		ds.BlockTimes.Maximum = max(ds.BlockTimes.Maximum, d)
	}
	ds.BlockTimes.Median = median(times)

	ds.TotalSeconds = snap.Chain[len(snap.Chain)-1].TimeStamp - snap.Chain[0].TimeStamp
	if ds.TotalSeconds > 0 {
		ds.PerSecond = float64(ds.TotalTransactions) / ds.TotalSeconds
	}

	return ds
}
