package book

import (
	"math/rand"
	"sort"
	"testing"
)

func treeKeysAsc(t *rbTree) []int64 {
	var keys []int64
	t.walkAsc(func(lvl *PriceLevel) bool {
		keys = append(keys, lvl.Price)
		return true
	})
	return keys
}

func TestInsertFindDelete(t *testing.T) {
	tr := newRBTree()
	for _, k := range []int64{50, 20, 80, 10, 30, 70, 90} {
		tr.insert(k, &PriceLevel{Price: k})
	}
	if tr.len() != 7 {
		t.Fatalf("size = %d, want 7", tr.len())
	}
	if n := tr.find(30); n == tr.nil || n.level.Price != 30 {
		t.Error("find(30) failed")
	}
	if n := tr.find(31); n != tr.nil {
		t.Error("find(31) should miss")
	}
	if !tr.delete(20) {
		t.Error("delete(20) failed")
	}
	if tr.delete(20) {
		t.Error("second delete(20) should report false")
	}
	want := []int64{10, 30, 50, 70, 80, 90}
	got := treeKeysAsc(tr)
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

func TestMinMaxAfterChurn(t *testing.T) {
	tr := newRBTree()
	rng := rand.New(rand.NewSource(1))

	inserted := map[int64]bool{}
	for i := 0; i < 500; i++ {
		k := int64(rng.Intn(200))
		if inserted[k] {
			tr.delete(k)
			delete(inserted, k)
		} else {
			tr.insert(k, &PriceLevel{Price: k})
			inserted[k] = true
		}

		keys := treeKeysAsc(tr)
		if len(keys) != len(inserted) {
			t.Fatalf("walk saw %d keys, map has %d", len(keys), len(inserted))
		}
		if !sort.SliceIsSorted(keys, func(a, b int) bool { return keys[a] < keys[b] }) {
			t.Fatalf("walkAsc out of order: %v", keys)
		}
		if len(keys) > 0 {
			if tr.min(tr.root).key != keys[0] {
				t.Fatalf("min = %d, want %d", tr.min(tr.root).key, keys[0])
			}
			if tr.max(tr.root).key != keys[len(keys)-1] {
				t.Fatalf("max = %d, want %d", tr.max(tr.root).key, keys[len(keys)-1])
			}
		}
	}
}

func TestLadderDirections(t *testing.T) {
	bids := newLadder(DescendingPrice)
	asks := newLadder(AscendingPrice)
	for _, p := range []int64{100, 99, 101} {
		bids.levelFor(p)
		asks.levelFor(p)
	}

	if bids.best().Price != 101 {
		t.Errorf("best bid = %d, want 101", bids.best().Price)
	}
	if asks.best().Price != 99 {
		t.Errorf("best ask = %d, want 99", asks.best().Price)
	}

	var desc []int64
	bids.walk(func(lvl *PriceLevel) bool {
		desc = append(desc, lvl.Price)
		return true
	})
	if len(desc) != 3 || desc[0] != 101 || desc[1] != 100 || desc[2] != 99 {
		t.Errorf("bid walk = %v, want [101 100 99]", desc)
	}
}

func TestLevelForIsIdempotent(t *testing.T) {
	l := newLadder(AscendingPrice)
	a := l.levelFor(100)
	b := l.levelFor(100)
	if a != b {
		t.Error("levelFor created a second level for the same price")
	}
	if l.len() != 1 {
		t.Errorf("ladder has %d levels, want 1", l.len())
	}
	if !l.drop(100) {
		t.Error("drop failed")
	}
	if l.find(100) != nil {
		t.Error("dropped level still findable")
	}
}
