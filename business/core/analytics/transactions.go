package analytics

import (
	"math"
	"time"

	"github.com/ardanlabs/ledgerview/foundation/ledger"
)

// sizeBuckets are the amount ranges of the size distribution. The last
// bucket has no upper bound.
var sizeBuckets = []struct {
	label string
	min   float64
	max   float64
}{
	{"0-10", 0, 10},
	{"10-50", 10, 50},
	{"50-100", 50, 100},
	{"100-500", 100, 500},
	{"500+", 500, math.Inf(1)},
}

// Transactions describes the patterns of the mined transactions.
type Transactions struct {
	Total                 int                `json:"total_transactions"`
	Volume                float64            `json:"total_volume"`
	Average               float64            `json:"average_transaction_amount"`
	Median                float64            `json:"median_transaction_amount"`
	Daily                 map[string]int     `json:"daily_transactions"`
	DailyVolume           map[string]float64 `json:"daily_volume"`
	TopSendersByCount     []AddressCount     `json:"top_senders_by_count"`
	TopRecipientsByCount  []AddressCount     `json:"top_recipients_by_count"`
	TopSendersByVolume    []AddressAmount    `json:"top_senders_by_volume"`
	TopRecipientsByVolume []AddressAmount    `json:"top_recipients_by_volume"`
	SizeDistribution      []Bucket           `json:"transaction_size_distribution"`
}

// Kind implements the Dataset interface.
func (Transactions) Kind() Kind { return KindTransactions }
func (Transactions) dataset()   {}

// NewTransactions computes the transaction dataset for the snapshot.
func NewTransactions(snap ledger.ChainSnapshot) Transactions {
	ds := Transactions{
		Daily:            make(map[string]int),
		DailyVolume:      make(map[string]float64),
		SizeDistribution: make([]Bucket, len(sizeBuckets)),
	}
	for i, b := range sizeBuckets {
		ds.SizeDistribution[i].Label = b.label
	}

	senderCount := make(map[string]int)
	recipientCount := make(map[string]int)
	senderVolume := make(map[string]float64)
	recipientVolume := make(map[string]float64)
	var amounts []float64

	for _, blk := range snap.Chain {
		for _, tx := range blk.Transactions {
			ds.Total++
			ds.Volume += tx.Amount
			amounts = append(amounts, tx.Amount)

			day := time.Unix(int64(tx.TimeStamp), 0).UTC().Format(time.DateOnly)
			ds.Daily[day]++
			ds.DailyVolume[day] += tx.Amount

			senderCount[tx.Sender]++
			recipientCount[tx.Recipient]++
			senderVolume[tx.Sender] += tx.Amount
			recipientVolume[tx.Recipient] += tx.Amount

			for i, b := range sizeBuckets {
				if tx.Amount >= b.min && tx.Amount < b.max {
					ds.SizeDistribution[i].Count++
					break
				}
			}
		}
	}

	if ds.Total > 0 {
		ds.Average = ds.Volume / float64(ds.Total)
		ds.Median = median(amounts)
	}

	ds.TopSendersByCount = rankCounts(senderCount)
	ds.TopRecipientsByCount = rankCounts(recipientCount)
	ds.TopSendersByVolume = rankAmounts(senderVolume)
	ds.TopRecipientsByVolume = rankAmounts(recipientVolume)

	return ds
}
