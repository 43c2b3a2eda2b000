// Package gateway provides a client for the remote ledger service that
// owns the chain. The gateway is responsible for mining, validation and
// persistence; this package only reads state and submits transactions.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ardanlabs/ledgerview/foundation/ledger"
)

// DefaultTimeout is used when a Client is constructed without an
// http.Client of its own.
const DefaultTimeout = 10 * time.Second

// Error is returned when the gateway responds with a non-2xx status.
type Error struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("gateway: status %d", e.Status)
	}
	return fmt.Sprintf("gateway: status %d: %s", e.Status, e.Detail)
}

// IsNotFound reports whether the error is a gateway 404.
func IsNotFound(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Status == http.StatusNotFound
}

// Detail returns the message the gateway provided with a failed request.
// An empty string is returned if the error didn't come from the gateway
// or the gateway didn't provide one.
func Detail(err error) string {
	var ge *Error
	if !errors.As(err, &ge) {
		return ""
	}
	return ge.Detail
}

// =============================================================================

// Client provides access to the gateway API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a client for the gateway at the specified base url. If no
// http client is provided, one with DefaultTimeout is used.
func New(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    client,
	}
}

// BaseURL returns the url of the gateway this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chain retrieves the full chain along with the pending transactions.
func (c *Client) Chain(ctx context.Context) (ledger.ChainSnapshot, error) {
	var snap ledger.ChainSnapshot
	if err := c.send(ctx, http.MethodGet, "/api/blockchain", nil, &snap); err != nil {
		return ledger.ChainSnapshot{}, fmt.Errorf("chain: %w", err)
	}
	return snap, nil
}

// Stats retrieves the aggregate chain statistics.
func (c *Client) Stats(ctx context.Context) (ledger.StatsSnapshot, error) {
	var stats ledger.StatsSnapshot
	if err := c.send(ctx, http.MethodGet, "/api/blockchain/stats", nil, &stats); err != nil {
		return ledger.StatsSnapshot{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

// Block retrieves a single block by index.
func (c *Client) Block(ctx context.Context, index uint64) (ledger.Block, error) {
	path := "/api/blockchain/blocks/" + strconv.FormatUint(index, 10)

	var blk ledger.Block
	if err := c.send(ctx, http.MethodGet, path, nil, &blk); err != nil {
		return ledger.Block{}, fmt.Errorf("block[%d]: %w", index, err)
	}
	return blk, nil
}

// Pending retrieves the transactions waiting to be mined.
func (c *Client) Pending(ctx context.Context) ([]ledger.Transaction, error) {
	var resp struct {
		Pending []ledger.Transaction `json:"pending_transactions"`
	}
	if err := c.send(ctx, http.MethodGet, "/api/transactions/pending", nil, &resp); err != nil {
		return nil, fmt.Errorf("pending: %w", err)
	}
	return resp.Pending, nil
}

// Transaction retrieves a mined or pending transaction by id.
func (c *Client) Transaction(ctx context.Context, id string) (ledger.Transaction, error) {
	path := "/api/transactions/" + url.PathEscape(id)

	var tx ledger.Transaction
	if err := c.send(ctx, http.MethodGet, path, nil, &tx); err != nil {
		return ledger.Transaction{}, fmt.Errorf("transaction[%s]: %w", id, err)
	}
	return tx, nil
}

// Balance asks the gateway for the balance of the specified address.
func (c *Client) Balance(ctx context.Context, address string) (float64, error) {
	path := "/api/addresses/" + url.PathEscape(address) + "/balance"

	var resp struct {
		Address string  `json:"address"`
		Balance float64 `json:"balance"`
	}
	if err := c.send(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return 0, fmt.Errorf("balance[%s]: %w", address, err)
	}
	return resp.Balance, nil
}

// Health reports whether the gateway is up and its chain is valid.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	if err := c.send(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return Health{}, fmt.Errorf("health: %w", err)
	}
	return h, nil
}

// SubmitTransaction sends a new transaction to the gateway to be added to
// the set of pending transactions. A single request is made; the caller
// decides whether to try again.
func (c *Client) SubmitTransaction(ctx context.Context, nt NewTransaction) (Receipt, error) {
	var rcpt Receipt
	if err := c.send(ctx, http.MethodPost, "/api/transactions", nt, &rcpt); err != nil {
		return Receipt{}, fmt.Errorf("submit: %w", err)
	}
	return rcpt, nil
}

// =============================================================================

// send is a helper function to send an HTTP request to the gateway.
func (c *Client) send(ctx context.Context, method string, path string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp)
	}

	if resp.StatusCode == http.StatusNoContent || dataRecv == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	return nil
}

// newError reads the failure body looking for the detail field the gateway
// uses for error messages.
func newError(resp *http.Response) error {
	ge := Error{
		Status: resp.StatusCode,
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || len(data) == 0 {
		return &ge
	}

	var msg struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return &ge
	}

	// The detail field is a string for errors raised by handlers and a
	// list of field errors when the request fails schema validation.
	switch d := msg.Detail.(type) {
	case string:
		ge.Detail = d
	case nil:
	default:
		if b, err := json.Marshal(d); err == nil {
			ge.Detail = string(b)
		}
	}

	return &ge
}
