package search_test

import (
	"testing"

	"github.com/ardanlabs/ledgerview/business/core/search"
	"github.com/ardanlabs/ledgerview/foundation/ledger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func chain() []ledger.Block {
	return []ledger.Block{
		{Index: 0, Hash: "abc123"},
		{Index: 1, Hash: "def456", Transactions: []ledger.Transaction{
			{ID: "tx-1", Sender: "Alice", Recipient: "Bob", Amount: 50},
		}},
		{Index: 12, Hash: "0FF1CE", Transactions: []ledger.Transaction{
			{ID: "tx-2", Sender: "Carol", Recipient: "Alicia", Amount: 5},
			{ID: "tx-3", Sender: "Bob", Recipient: "Dave", Amount: 7},
		}},
	}
}

func indexes(blocks []ledger.Block) []uint64 {
	idx := make([]uint64, len(blocks))
	for i, blk := range blocks {
		idx[i] = blk.Index
	}
	return idx
}

func equal(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterBlocks(t *testing.T) {
	type table struct {
		name  string
		query string
		exp   []uint64
	}

	tt := []table{
		{name: "empty", query: "", exp: []uint64{0, 1, 12}},
		{name: "sender", query: "alice", exp: []uint64{1, 12}},
		{name: "hash", query: "abc", exp: []uint64{0}},
		{name: "hashcase", query: "off1ce", exp: []uint64{12}},
		{name: "index", query: "1", exp: []uint64{1, 12}},
		{name: "recipient", query: "DAVE", exp: []uint64{12}},
		{name: "nomatch", query: "9", exp: []uint64{}},
		{name: "nospan", query: "bobcarol", exp: []uint64{}},
	}

	t.Log("Given the need to filter blocks by a free text query.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling query %q.", testID, tst.query)
			{
				f := func(t *testing.T) {
					got := indexes(search.FilterBlocks(chain(), tst.query))
					if !equal(got, tst.exp) {
						t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get back the matching blocks in order.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the matching blocks in order.", success, testID)

					idx, err := search.NewIndex(2)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to construct an index: %s", failed, testID, err)
					}

					for range 2 {
						got := indexes(idx.Filter(chain(), tst.query))
						if !equal(got, tst.exp) {
							t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, got)
							t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.exp)
							t.Fatalf("\t%s\tTest %d:\tShould get the same result from the index.", failed, testID)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould get the same result from the index.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestFilterIdentity(t *testing.T) {
	t.Log("Given the need to return the chain unchanged for an empty query.")
	{
		for _, c := range [][]ledger.Block{nil, {}, chain()} {
			got := search.FilterBlocks(c, "")
			if len(got) != len(c) {
				t.Fatalf("\t%s\tShould get back %d blocks, got %d.", failed, len(c), len(got))
			}
			if !equal(indexes(got), indexes(c)) {
				t.Fatalf("\t%s\tShould get back the blocks in the same order.", failed)
			}
		}
		t.Logf("\t%s\tShould get back the chain unchanged.", success)
	}
}

func TestFilterIdempotent(t *testing.T) {
	t.Log("Given the need to filter a filtered result again.")
	{
		for _, q := range []string{"", "a", "alice", "1", "bob", "zzz"} {
			once := search.FilterBlocks(chain(), q)
			twice := search.FilterBlocks(once, q)

			if !equal(indexes(once), indexes(twice)) {
				t.Logf("\t%s\tgot: %v", failed, indexes(twice))
				t.Logf("\t%s\texp: %v", failed, indexes(once))
				t.Fatalf("\t%s\tShould not change the result for query %q.", failed, q)
			}
		}
		t.Logf("\t%s\tShould not change the result.", success)
	}
}

func TestIndexStaleHash(t *testing.T) {
	t.Log("Given the need to not match against a replaced block.")
	{
		idx, err := search.NewIndex(0)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct an index: %s", failed, err)
		}

		before := []ledger.Block{{Index: 3, Hash: "aaaa"}}
		if got := idx.Filter(before, "aaaa"); len(got) != 1 {
			t.Fatalf("\t%s\tShould match the original block.", failed)
		}

		after := []ledger.Block{{Index: 3, Hash: "bbbb"}}
		if got := idx.Filter(after, "aaaa"); len(got) != 0 {
			t.Fatalf("\t%s\tShould not match the replaced block.", failed)
		}
		t.Logf("\t%s\tShould not match the replaced block.", success)

		if idx.Len() != 2 {
			t.Fatalf("\t%s\tShould have cached both blocks, got %d.", failed, idx.Len())
		}

		idx.Purge()
		if idx.Len() != 0 {
			t.Fatalf("\t%s\tShould have purged the index.", failed)
		}
		t.Logf("\t%s\tShould be able to purge the index.", success)
	}
}
