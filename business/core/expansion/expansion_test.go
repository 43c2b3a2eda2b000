package expansion_test

import (
	"sync"
	"testing"

	"github.com/ardanlabs/ledgerview/business/core/expansion"
)

func Test_Toggle(t *testing.T) {
	type table struct {
		name    string
		initial []uint64
		toggle  uint64
	}

	tt := []table{
		{name: "empty", initial: nil, toggle: 4},
		{name: "others", initial: []uint64{0, 2, 9}, toggle: 5},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			s := expansion.New()
			for _, index := range tst.initial {
				s.Toggle(index)
			}

			exp := s.Copy()

			got := s.Toggle(tst.toggle)
			if !s.IsExpanded(tst.toggle) {
				t.Fatalf("Test %s:\tShould be expanded after the first toggle.", tst.name)
			}
			if len(got) != len(exp)+1 {
				t.Logf("Test %s:\tgot: %v", tst.name, got)
				t.Fatalf("Test %s:\tShould get back the new membership.", tst.name)
			}

			got = s.Toggle(tst.toggle)
			if s.IsExpanded(tst.toggle) {
				t.Fatalf("Test %s:\tShould be collapsed after the second toggle.", tst.name)
			}

			if len(got) != len(exp) {
				t.Logf("Test %s:\tgot: %v", tst.name, got)
				t.Logf("Test %s:\texp: %v", tst.name, exp)
				t.Fatalf("Test %s:\tShould restore the original set.", tst.name)
			}
			for i := range exp {
				if got[i] != exp[i] {
					t.Logf("Test %s:\tgot: %v", tst.name, got)
					t.Logf("Test %s:\texp: %v", tst.name, exp)
					t.Fatalf("Test %s:\tShould restore the original set.", tst.name)
				}
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_Concurrent(t *testing.T) {
	s := expansion.New()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Toggle(uint64(i))
			s.Toggle(uint64(i))
			s.Toggle(uint64(i))
		}()
	}
	wg.Wait()

	if s.Len() != 10 {
		t.Fatalf("Should have 10 expanded blocks, got %d.", s.Len())
	}

	for i, index := range s.Copy() {
		if index != uint64(i) {
			t.Fatalf("Should get back the indexes in ascending order: %v", s.Copy())
		}
	}
}
