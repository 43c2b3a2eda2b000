// Package ledger defines the data the remote ledger gateway serves and the
// read helpers that can be answered from a chain snapshot without asking
// the gateway again.
package ledger

import "strconv"

// Transaction represents a transfer of value between two addresses. A
// transaction only exists once the gateway has accepted it and assigned
// an id.
type Transaction struct {
	ID        string  `json:"transaction_id"`
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
	TimeStamp float64 `json:"timestamp"`
}

// Block represents a group of transactions mined into the chain. The index
// is the stable identity of a block and is never reused.
type Block struct {
	Index        uint64        `json:"index"`
	TimeStamp    float64       `json:"timestamp"`
	PrevHash     string        `json:"previous_hash"`
	Hash         string        `json:"hash"`
	Nonce        uint64        `json:"nonce"`
	Transactions []Transaction `json:"transactions"`
}

// IndexString returns the block index rendered as a decimal string.
func (b Block) IndexString() string {
	return strconv.FormatUint(b.Index, 10)
}

// ChainSnapshot is the full state of the chain at the moment the gateway
// answered. A snapshot is never modified after it is received; a new poll
// produces a new value.
type ChainSnapshot struct {
	Chain        []Block       `json:"chain"`
	Pending      []Transaction `json:"pending_transactions"`
	Difficulty   int           `json:"difficulty"`
	MiningReward float64       `json:"mining_reward"`
}

// StatsSnapshot contains the aggregate numbers the gateway reports. It is
// polled independently of the chain and may briefly disagree with it.
type StatsSnapshot struct {
	TotalBlocks       uint64  `json:"total_blocks"`
	TotalTransactions uint64  `json:"total_transactions"`
	Difficulty        int     `json:"difficulty"`
	MiningReward      float64 `json:"mining_reward"`
	Pending           uint64  `json:"pending_transactions"`
}

// Draft represents the user entered fields of a transaction before it has
// been validated and submitted.
type Draft struct {
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Amount    string `json:"amount" validate:"required,amount"`
}

// IsZero reports whether every field of the draft is empty.
func (d Draft) IsZero() bool {
	return d == Draft{}
}

// =============================================================================

// LatestBlock returns the last block in the chain.
func (s ChainSnapshot) LatestBlock() (Block, bool) {
	if len(s.Chain) == 0 {
		return Block{}, false
	}
	return s.Chain[len(s.Chain)-1], true
}

// BlockByIndex returns the block with the specified index.
func (s ChainSnapshot) BlockByIndex(index uint64) (Block, bool) {

	// Blocks are stored in index order starting at zero so the common
	// case is a direct lookup.
	if index < uint64(len(s.Chain)) && s.Chain[index].Index == index {
		return s.Chain[index], true
	}

	for _, blk := range s.Chain {
		if blk.Index == index {
			return blk, true
		}
	}

	return Block{}, false
}

// TransactionByID looks for the transaction in the mined blocks first and
// then in the set of pending transactions. The boolean return reports
// whether the transaction has been mined.
func (s ChainSnapshot) TransactionByID(id string) (tx Transaction, mined bool, found bool) {
	for _, blk := range s.Chain {
		for _, tx := range blk.Transactions {
			if tx.ID == id {
				return tx, true, true
			}
		}
	}

	for _, tx := range s.Pending {
		if tx.ID == id {
			return tx, false, true
		}
	}

	return Transaction{}, false, false
}

// Balance calculates the balance for the address from the mined blocks.
// Pending transactions are not applied.
func (s ChainSnapshot) Balance(address string) float64 {
	var balance float64

	for _, blk := range s.Chain {
		for _, tx := range blk.Transactions {
			if tx.Sender == address {
				balance -= tx.Amount
			}
			if tx.Recipient == address {
				balance += tx.Amount
			}
		}
	}

	return balance
}

// TotalTransactions returns the number of mined transactions.
func (s ChainSnapshot) TotalTransactions() int {
	var total int
	for _, blk := range s.Chain {
		total += len(blk.Transactions)
	}
	return total
}
