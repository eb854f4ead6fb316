package service

import (
	"errors"
	"testing"

	"mimir/domain/book"
	"mimir/infra/journal"
	"mimir/infra/sequence"
)

func newTestService(t *testing.T, jnl *journal.Journal) *BookService {
	t.Helper()
	return New(book.New(book.Config{BlockSize: 16}), sequence.New(0), jnl)
}

func TestAddCancelAmendThroughService(t *testing.T) {
	svc := newTestService(t, nil)

	if err := svc.Add(book.Order{ID: 1, Side: book.Bid, Price: 100, Qty: 10}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := svc.Add(book.Order{ID: 2, Side: book.Ask, Price: 105, Qty: 4}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if svc.Seq() != 2 {
		t.Errorf("seq = %d, want 2", svc.Seq())
	}

	if err := svc.Amend(1, 99, 10); err != nil {
		t.Fatalf("amend failed: %v", err)
	}
	if err := svc.Cancel(2); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := svc.Cancel(2); !errors.Is(err, book.ErrNotFound) {
		t.Errorf("second cancel = %v, want ErrNotFound", err)
	}

	bids, asks := svc.Depth(5)
	if len(bids) != 1 || bids[0].Price != 99 || len(asks) != 0 {
		t.Errorf("depth = %v / %v", bids, asks)
	}
	if svc.Resting() != 1 {
		t.Errorf("resting = %d, want 1", svc.Resting())
	}
}

func TestRejectedCommandsDoNotAdvanceSeq(t *testing.T) {
	svc := newTestService(t, nil)

	if err := svc.Add(book.Order{ID: 1, Side: book.Bid, Price: 100, Qty: 0}); err == nil {
		t.Fatal("zero qty add accepted")
	}
	if err := svc.Cancel(42); !errors.Is(err, book.ErrNotFound) {
		t.Fatalf("cancel of unknown = %v", err)
	}
	if svc.Seq() != 0 {
		t.Errorf("rejected commands advanced seq to %d", svc.Seq())
	}
}

func TestReplayRebuildsBook(t *testing.T) {
	dir := t.TempDir()

	jnl, err := journal.Open(dir)
	if err != nil {
		t.Fatalf("journal open failed: %v", err)
	}
	svc := newTestService(t, jnl)

	mustDo := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("command failed: %v", err)
		}
	}
	mustDo(svc.Add(book.Order{ID: 1, Side: book.Bid, Price: 100, Qty: 10}))
	mustDo(svc.Add(book.Order{ID: 2, Side: book.Bid, Price: 100, Qty: 5}))
	mustDo(svc.Add(book.Order{ID: 3, Side: book.Ask, Price: 105, Qty: 7}))
	mustDo(svc.Amend(2, 101, 5))
	mustDo(svc.Cancel(1))

	wantBids, wantAsks := svc.Depth(10)
	wantSeq := svc.Seq()
	if err := jnl.Close(); err != nil {
		t.Fatalf("journal close failed: %v", err)
	}

	// Fresh process: new book, new sequencer, same journal dir.
	jnl2, err := journal.Open(dir)
	if err != nil {
		t.Fatalf("journal reopen failed: %v", err)
	}
	defer jnl2.Close()

	svc2 := newTestService(t, jnl2)
	if err := svc2.Replay(); err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	gotBids, gotAsks := svc2.Depth(10)
	if len(gotBids) != len(wantBids) || len(gotAsks) != len(wantAsks) {
		t.Fatalf("depth after replay = %v/%v, want %v/%v", gotBids, gotAsks, wantBids, wantAsks)
	}
	for i := range wantBids {
		if gotBids[i] != wantBids[i] {
			t.Errorf("bid %d = %+v, want %+v", i, gotBids[i], wantBids[i])
		}
	}
	for i := range wantAsks {
		if gotAsks[i] != wantAsks[i] {
			t.Errorf("ask %d = %+v, want %+v", i, gotAsks[i], wantAsks[i])
		}
	}
	if svc2.Seq() != wantSeq {
		t.Errorf("seq after replay = %d, want %d", svc2.Seq(), wantSeq)
	}

	// New commands sequence after the replayed ones.
	mustDo(svc2.Add(book.Order{ID: 9, Side: book.Bid, Price: 98, Qty: 1}))
	if svc2.Seq() != wantSeq+1 {
		t.Errorf("seq after new command = %d, want %d", svc2.Seq(), wantSeq+1)
	}
}

func TestCompactThenReplayRestartsCleanly(t *testing.T) {
	dir := t.TempDir()

	jnl, err := journal.Open(dir)
	if err != nil {
		t.Fatalf("journal open failed: %v", err)
	}
	svc := newTestService(t, jnl)

	mustDo := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("command failed: %v", err)
		}
	}
	// The cancel references an add that compaction will truncate away;
	// the snapshot baseline is what keeps replay coherent.
	mustDo(svc.Add(book.Order{ID: 1, Side: book.Bid, Price: 100, Qty: 10}))
	mustDo(svc.Add(book.Order{ID: 2, Side: book.Bid, Price: 100, Qty: 5}))
	mustDo(svc.Cancel(1))

	if err := svc.Compact(); err != nil {
		t.Fatalf("compact failed: %v", err)
	}

	// Traffic past the compaction point.
	mustDo(svc.Add(book.Order{ID: 3, Side: book.Ask, Price: 105, Qty: 7}))
	mustDo(svc.Amend(2, 100, 8))

	wantBids, wantAsks := svc.Depth(10)
	wantSeq := svc.Seq()
	if err := jnl.Close(); err != nil {
		t.Fatalf("journal close failed: %v", err)
	}

	jnl2, err := journal.Open(dir)
	if err != nil {
		t.Fatalf("journal reopen failed: %v", err)
	}
	defer jnl2.Close()

	svc2 := newTestService(t, jnl2)
	if err := svc2.Replay(); err != nil {
		t.Fatalf("replay after compaction failed: %v", err)
	}

	gotBids, gotAsks := svc2.Depth(10)
	if len(gotBids) != len(wantBids) || len(gotAsks) != len(wantAsks) {
		t.Fatalf("depth after replay = %v/%v, want %v/%v", gotBids, gotAsks, wantBids, wantAsks)
	}
	for i := range wantBids {
		if gotBids[i] != wantBids[i] {
			t.Errorf("bid %d = %+v, want %+v", i, gotBids[i], wantBids[i])
		}
	}
	for i := range wantAsks {
		if gotAsks[i] != wantAsks[i] {
			t.Errorf("ask %d = %+v, want %+v", i, gotAsks[i], wantAsks[i])
		}
	}
	if svc2.Seq() != wantSeq {
		t.Errorf("seq after replay = %d, want %d", svc2.Seq(), wantSeq)
	}
	if svc2.Resting() != 2 {
		t.Errorf("resting = %d, want 2", svc2.Resting())
	}
}

func TestAutoCompactKeepsReplayCoherent(t *testing.T) {
	dir := t.TempDir()

	jnl, err := journal.Open(dir)
	if err != nil {
		t.Fatalf("journal open failed: %v", err)
	}
	svc := newTestService(t, jnl)
	svc.AutoCompact(2)

	mustDo := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("command failed: %v", err)
		}
	}
	// Seq 2 and 4 trigger compactions; the cancel at seq 3 lands below
	// the second baseline and must survive through it.
	mustDo(svc.Add(book.Order{ID: 1, Side: book.Bid, Price: 100, Qty: 10}))
	mustDo(svc.Add(book.Order{ID: 2, Side: book.Bid, Price: 101, Qty: 5}))
	mustDo(svc.Cancel(1))
	mustDo(svc.Add(book.Order{ID: 3, Side: book.Ask, Price: 105, Qty: 7}))
	mustDo(svc.Add(book.Order{ID: 4, Side: book.Ask, Price: 106, Qty: 2}))

	wantBids, wantAsks := svc.Depth(10)
	wantSeq := svc.Seq()
	if err := jnl.Close(); err != nil {
		t.Fatalf("journal close failed: %v", err)
	}

	jnl2, err := journal.Open(dir)
	if err != nil {
		t.Fatalf("journal reopen failed: %v", err)
	}
	defer jnl2.Close()

	svc2 := newTestService(t, jnl2)
	if err := svc2.Replay(); err != nil {
		t.Fatalf("replay after auto-compaction failed: %v", err)
	}

	gotBids, gotAsks := svc2.Depth(10)
	if len(gotBids) != len(wantBids) || len(gotAsks) != len(wantAsks) {
		t.Fatalf("depth after replay = %v/%v, want %v/%v", gotBids, gotAsks, wantBids, wantAsks)
	}
	for i := range wantBids {
		if gotBids[i] != wantBids[i] {
			t.Errorf("bid %d = %+v, want %+v", i, gotBids[i], wantBids[i])
		}
	}
	for i := range wantAsks {
		if gotAsks[i] != wantAsks[i] {
			t.Errorf("ask %d = %+v, want %+v", i, gotAsks[i], wantAsks[i])
		}
	}
	if svc2.Seq() != wantSeq {
		t.Errorf("seq after replay = %d, want %d", svc2.Seq(), wantSeq)
	}
}
