package submit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/ledgerview/business/core/query"
	"github.com/ardanlabs/ledgerview/business/core/submit"
	"github.com/ardanlabs/ledgerview/foundation/gateway"
	"github.com/ardanlabs/ledgerview/foundation/ledger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// gatewayMock records the transactions it's asked to submit.
type gatewayMock struct {
	mu    sync.Mutex
	calls []gateway.NewTransaction
	rcpt  gateway.Receipt
	err   error
	wait  chan struct{}
}

func (g *gatewayMock) SubmitTransaction(ctx context.Context, nt gateway.NewTransaction) (gateway.Receipt, error) {
	g.mu.Lock()
	g.calls = append(g.calls, nt)
	g.mu.Unlock()

	if g.wait != nil {
		<-g.wait
	}

	return g.rcpt, g.err
}

func (g *gatewayMock) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// invalidatorMock records the keys that were invalidated.
type invalidatorMock struct {
	mu   sync.Mutex
	keys []query.Key
}

func (i *invalidatorMock) Invalidate(key query.Key) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.keys = append(i.keys, key)
}

// =============================================================================

func TestValidation(t *testing.T) {
	type table struct {
		name  string
		draft ledger.Draft
		field string
	}

	tt := []table{
		{name: "nosender", draft: ledger.Draft{Sender: "", Recipient: "Bob", Amount: "10"}, field: "sender"},
		{name: "negative", draft: ledger.Draft{Sender: "Alice", Recipient: "Bob", Amount: "-5"}, field: "amount"},
		{name: "text", draft: ledger.Draft{Sender: "Alice", Recipient: "Bob", Amount: "abc"}, field: "amount"},
		{name: "norecipient", draft: ledger.Draft{Sender: "Alice", Amount: "1"}, field: "recipient"},
	}

	t.Log("Given the need to reject invalid drafts before they are sent.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling draft %+v.", testID, tst.draft)
			{
				f := func(t *testing.T) {
					gw := gatewayMock{}
					form := submit.New(submit.Config{Gateway: &gw})

					_, err := form.Submit(context.Background(), tst.draft)

					var ve *submit.ValidationError
					if !errors.As(err, &ve) {
						t.Fatalf("\t%s\tTest %d:\tShould get a validation error: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get a validation error.", success, testID)

					if _, exists := ve.Fields.Fields()[tst.field]; !exists {
						t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, ve.Fields.Fields())
						t.Fatalf("\t%s\tTest %d:\tShould name the %s field.", failed, testID, tst.field)
					}
					t.Logf("\t%s\tTest %d:\tShould name the %s field.", success, testID, tst.field)

					if gw.count() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould not call the gateway.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not call the gateway.", success, testID)

					st := form.State()
					if st.Phase != submit.Idle || st.Draft != tst.draft {
						t.Logf("\t%s\tTest %d:\tgot: %+v", failed, testID, st)
						t.Fatalf("\t%s\tTest %d:\tShould stay idle and keep the draft.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould stay idle and keep the draft.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestSuccess(t *testing.T) {
	gw := gatewayMock{rcpt: gateway.Receipt{TransactionID: "tx-001"}}
	inv := invalidatorMock{}

	form := submit.New(submit.Config{Gateway: &gw, Invalidator: &inv})

	t.Log("Given the need to submit a valid draft.")
	{
		draft := ledger.Draft{Sender: "Alice", Recipient: "Bob", Amount: "50"}

		tx, err := form.Submit(context.Background(), draft)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to submit: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to submit.", success)

		exp := gateway.NewTransaction{Sender: "Alice", Recipient: "Bob", Amount: 50}
		if gw.count() != 1 || gw.calls[0] != exp {
			t.Logf("\t%s\tgot: %+v", failed, gw.calls)
			t.Fatalf("\t%s\tShould send the transaction once with a numeric amount.", failed)
		}
		t.Logf("\t%s\tShould send the transaction once with a numeric amount.", success)

		st := form.State()
		if st.Phase != submit.Succeeded || !st.Draft.IsZero() || st.Transaction.ID != "tx-001" || tx.ID != "tx-001" {
			t.Logf("\t%s\tgot: %+v", failed, st)
			t.Fatalf("\t%s\tShould be succeeded with the draft cleared.", failed)
		}
		t.Logf("\t%s\tShould be succeeded with the draft cleared.", success)

		if len(inv.keys) != 2 || inv.keys[0] != query.KeyChain || inv.keys[1] != query.KeyStats {
			t.Logf("\t%s\tgot: %v", failed, inv.keys)
			t.Fatalf("\t%s\tShould invalidate the chain and stats queries.", failed)
		}
		t.Logf("\t%s\tShould invalidate the chain and stats queries.", success)
	}
}

func TestFailure(t *testing.T) {
	type table struct {
		name   string
		rcpt   gateway.Receipt
		err    error
		reason string
	}

	tt := []table{
		{name: "detail", err: &gateway.Error{Status: 400, Detail: "Insufficient balance"}, reason: "Insufficient balance"},
		{name: "nodetail", err: &gateway.Error{Status: 500}, reason: submit.GenericFailure},
		{name: "network", err: errors.New("connection refused"), reason: submit.GenericFailure},
		{name: "noid", rcpt: gateway.Receipt{Message: "ok"}, reason: submit.GenericFailure},
	}

	t.Log("Given the need to report a rejected submission.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen the gateway fails with %v.", testID, tst.err)
			{
				f := func(t *testing.T) {
					gw := gatewayMock{rcpt: tst.rcpt, err: tst.err}
					inv := invalidatorMock{}
					form := submit.New(submit.Config{Gateway: &gw, Invalidator: &inv})

					draft := ledger.Draft{Sender: "Alice", Recipient: "Bob", Amount: "500"}

					_, err := form.Submit(context.Background(), draft)

					var se *submit.SubmissionError
					if !errors.As(err, &se) {
						t.Fatalf("\t%s\tTest %d:\tShould get a submission error: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get a submission error.", success, testID)

					st := form.State()
					if st.Phase != submit.Failed || st.Reason != tst.reason || se.Reason != tst.reason {
						t.Logf("\t%s\tTest %d:\tgot: %+v", failed, testID, st)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.reason)
						t.Fatalf("\t%s\tTest %d:\tShould fail with the reason.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould fail with the reason.", success, testID)

					if st.Draft != draft {
						t.Fatalf("\t%s\tTest %d:\tShould keep the draft: %+v", failed, testID, st.Draft)
					}
					t.Logf("\t%s\tTest %d:\tShould keep the draft.", success, testID)

					if len(inv.keys) != 0 || gw.count() != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould call once without invalidating.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould call once without invalidating.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestInFlight(t *testing.T) {
	gw := gatewayMock{
		rcpt: gateway.Receipt{TransactionID: "tx-001"},
		wait: make(chan struct{}),
	}
	form := submit.New(submit.Config{Gateway: &gw})

	draft := ledger.Draft{Sender: "Alice", Recipient: "Bob", Amount: "5"}

	t.Log("Given the need to allow only one submission at a time.")
	{
		done := make(chan error, 1)
		go func() {
			_, err := form.Submit(context.Background(), draft)
			done <- err
		}()

		deadline := time.Now().Add(5 * time.Second)
		for form.State().Phase != submit.Submitting {
			if time.Now().After(deadline) {
				t.Fatalf("\t%s\tShould move into the submitting phase.", failed)
			}
			time.Sleep(time.Millisecond)
		}
		t.Logf("\t%s\tShould move into the submitting phase.", success)

		if _, err := form.Submit(context.Background(), draft); !errors.Is(err, submit.ErrInFlight) {
			t.Fatalf("\t%s\tShould reject a second submission: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a second submission.", success)

		if err := form.Edit(ledger.Draft{Sender: "Mallory"}); !errors.Is(err, submit.ErrInFlight) {
			t.Fatalf("\t%s\tShould reject edits while submitting: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject edits while submitting.", success)

		close(gw.wait)

		if err := <-done; err != nil {
			t.Fatalf("\t%s\tShould complete the first submission: %s", failed, err)
		}
		if gw.count() != 1 {
			t.Fatalf("\t%s\tShould call the gateway once, got %d.", failed, gw.count())
		}
		t.Logf("\t%s\tShould call the gateway once.", success)

		if err := form.Edit(draft); err != nil {
			t.Fatalf("\t%s\tShould accept edits once done: %s", failed, err)
		}
		if form.State().Draft != draft {
			t.Fatalf("\t%s\tShould record the edit.", failed)
		}
		t.Logf("\t%s\tShould accept edits once done.", success)
	}
}
