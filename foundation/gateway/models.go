package gateway

// NewTransaction is the payload the gateway expects for a new transaction.
type NewTransaction struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
}

// Receipt is returned by the gateway once a transaction has been accepted
// into the pending set.
type Receipt struct {
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

// Health represents the gateway health check.
type Health struct {
	Status     string `json:"status"`
	ChainValid bool   `json:"blockchain_valid"`
}
