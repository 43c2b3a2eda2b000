// Package submit implements the workflow for submitting a new transaction
// from a form. A form validates the draft before anything is sent, allows a
// single submission in flight, and on success invalidates the queries that
// the new transaction makes stale.
package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/ledgerview/business/core/query"
	"github.com/ardanlabs/ledgerview/foundation/gateway"
	"github.com/ardanlabs/ledgerview/foundation/ledger"
	"github.com/ardanlabs/ledgerview/foundation/validate"
)

// GenericFailure is the reason reported when the gateway rejects a
// transaction without saying why.
const GenericFailure = "Failed to submit transaction"

// ErrInFlight is returned when a submission is attempted while another one
// for the same form hasn't completed.
var ErrInFlight = errors.New("submission already in flight")

// Invalidates is the set of queries a successful submission makes stale.
// The new transaction shows up in the pending set of the chain and in the
// pending count of the stats.
var Invalidates = []query.Key{query.KeyChain, query.KeyStats}

// Phase represents the stage of the submission lifecycle a form is in.
type Phase string

// Set of phases a form moves through.
const (
	Idle       Phase = "idle"
	Submitting Phase = "submitting"
	Succeeded  Phase = "succeeded"
	Failed     Phase = "failed"
)

// Gateway represents the behavior required to send a transaction.
type Gateway interface {
	SubmitTransaction(ctx context.Context, nt gateway.NewTransaction) (gateway.Receipt, error)
}

// EventHandler defines a function that is called when events
// occur in the processing of a submission.
type EventHandler func(v string, args ...any)

// =============================================================================

// ValidationError is returned when the draft is rejected before it is sent.
type ValidationError struct {
	Fields validate.FieldErrors
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("invalid draft: %s", ve.Fields)
}

// Unwrap provides access to the field errors.
func (ve *ValidationError) Unwrap() error {
	return ve.Fields
}

// IsValidationError checks if an error of type ValidationError exists.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// SubmissionError is returned when the gateway didn't accept the
// transaction. Reason is what should be displayed to the user.
type SubmissionError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (se *SubmissionError) Error() string {
	return se.Reason
}

// Unwrap provides access to the underlying gateway error.
func (se *SubmissionError) Unwrap() error {
	return se.Err
}

// =============================================================================

// State represents the form at a point in time.
type State struct {
	Phase       Phase              `json:"phase"`
	Draft       ledger.Draft       `json:"draft"`
	Transaction ledger.Transaction `json:"transaction,omitzero"`
	Reason      string             `json:"reason,omitempty"`
}

// Config represents the configuration required to construct a form.
type Config struct {
	Gateway     Gateway
	Invalidator query.Invalidator
	EvHandler   EventHandler
}

// Form manages a single transaction form.
type Form struct {
	gateway     Gateway
	invalidator query.Invalidator
	evHandler   EventHandler

	mu    sync.Mutex
	state State
}

// New constructs a form in the idle phase with an empty draft.
func New(cfg Config) *Form {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	return &Form{
		gateway:     cfg.Gateway,
		invalidator: cfg.Invalidator,
		evHandler:   ev,
		state:       State{Phase: Idle},
	}
}

// State returns a copy of the current form state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

// Edit replaces the draft with the user's changes. Edits are rejected
// while a submission is in flight.
func (f *Form) Edit(draft ledger.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Phase == Submitting {
		return ErrInFlight
	}

	f.state.Draft = draft
	return nil
}

// Submit validates the draft and sends it to the gateway. A draft that
// fails validation never reaches the gateway. No retry is performed on
// failure; the draft is kept so the user can submit again.
func (f *Form) Submit(ctx context.Context, draft ledger.Draft) (ledger.Transaction, error) {
	amount, err := f.begin(draft)
	if err != nil {
		return ledger.Transaction{}, err
	}

	f.evHandler("submit: Submit: started: sender[%s] recipient[%s] amount[%v]", draft.Sender, draft.Recipient, amount)

	nt := gateway.NewTransaction{
		Sender:    draft.Sender,
		Recipient: draft.Recipient,
		Amount:    amount,
	}

	rcpt, err := f.gateway.SubmitTransaction(ctx, nt)
	if err == nil && rcpt.TransactionID == "" {
		err = errors.New("gateway response missing transaction id")
	}

	if err != nil {
		return ledger.Transaction{}, f.fail(err)
	}

	tx := ledger.Transaction{
		ID:        rcpt.TransactionID,
		Sender:    nt.Sender,
		Recipient: nt.Recipient,
		Amount:    nt.Amount,
		TimeStamp: float64(time.Now().UnixNano()) / float64(time.Second),
	}

	f.succeed(tx)

	return tx, nil
}

// =============================================================================

// begin checks the form can accept a submission and moves it into the
// submitting phase.
func (f *Form) begin(draft ledger.Draft) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Phase == Submitting {
		f.evHandler("submit: Submit: rejected: %s", ErrInFlight)
		return 0, ErrInFlight
	}

	f.state.Draft = draft

	if err := validate.Check(draft); err != nil {
		fields := validate.GetFieldErrors(err)
		if fields == nil {
			return 0, err
		}
		f.evHandler("submit: Submit: validation: %s", fields)
		return 0, &ValidationError{Fields: fields}
	}

	amount, _ := validate.ParseAmount(draft.Amount)

	f.state = State{
		Phase: Submitting,
		Draft: draft,
	}

	return amount, nil
}

// fail moves the form into the failed phase keeping the draft.
func (f *Form) fail(err error) error {
	reason := gateway.Detail(err)
	if reason == "" {
		reason = GenericFailure
	}

	f.mu.Lock()
	f.state.Phase = Failed
	f.state.Reason = reason
	f.mu.Unlock()

	f.evHandler("submit: Submit: failed: %s: ERROR: %s", reason, err)

	return &SubmissionError{Reason: reason, Err: err}
}

// succeed moves the form into the succeeded phase, clears the draft and
// invalidates the queries the transaction affects.
func (f *Form) succeed(tx ledger.Transaction) {
	f.mu.Lock()
	f.state = State{
		Phase:       Succeeded,
		Transaction: tx,
	}
	f.mu.Unlock()

	f.evHandler("submit: Submit: completed: txid[%s]", tx.ID)

	if f.invalidator == nil {
		return
	}

	for _, key := range Invalidates {
		f.invalidator.Invalidate(key)
	}
}
