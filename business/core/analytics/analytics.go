// Package analytics builds the datasets behind the dashboard charts. Each
// kind of dataset is its own type, chosen once when it's built, so
// consumers switch on the concrete type instead of a display tag.
package analytics

import (
	"fmt"
	"sort"

	"github.com/ardanlabs/ledgerview/foundation/ledger"
)

// topN is the number of addresses kept in the ranked lists.
const topN = 10

// Kind identifies a dataset.
type Kind string

// Set of dataset kinds.
const (
	KindTransactions Kind = "transactions"
	KindNetwork      Kind = "network"
	KindAddresses    Kind = "addresses"
)

// ParseKind converts a string into a dataset kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindTransactions, KindNetwork, KindAddresses:
		return k, nil
	}
	return "", fmt.Errorf("unknown dataset kind %q", s)
}

// Dataset is implemented only by Transactions, Network and Addresses.
type Dataset interface {
	Kind() Kind
	dataset()
}

// Build computes the dataset of the specified kind from the snapshot.
func Build(kind Kind, snap ledger.ChainSnapshot) (Dataset, error) {
	switch kind {
	case KindTransactions:
		return NewTransactions(snap), nil
	case KindNetwork:
		return NewNetwork(snap), nil
	case KindAddresses:
		return NewAddresses(snap), nil
	}
	return nil, fmt.Errorf("unknown dataset kind %q", kind)
}

// =============================================================================

// AddressCount pairs an address with a number of transactions.
type AddressCount struct {
	Address string `json:"address"`
	Count   int    `json:"count"`
}

// AddressAmount pairs an address with a volume.
type AddressAmount struct {
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
}

// Bucket is one range of a size distribution.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// rankCounts returns the top entries ordered by count, then address.
func rankCounts(m map[string]int) []AddressCount {
	list := make([]AddressCount, 0, len(m))
	for addr, n := range m {
		list = append(list, AddressCount{Address: addr, Count: n})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Address < list[j].Address
	})

	if len(list) > topN {
		list = list[:topN]
	}
	return list
}

// rankAmounts returns the top entries ordered by amount, then address.
func rankAmounts(m map[string]float64) []AddressAmount {
	list := make([]AddressAmount, 0, len(m))
	for addr, v := range m {
		list = append(list, AddressAmount{Address: addr, Amount: v})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Amount != list[j].Amount {
			return list[i].Amount > list[j].Amount
		}
		return list[i].Address < list[j].Address
	})

	if len(list) > topN {
		list = list[:topN]
	}
	return list
}

// median returns the median of the values. The slice is sorted in place.
func median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sort.Float64s(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}
