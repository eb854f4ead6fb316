// Package journal persists accepted book commands in a pebble store,
// keyed by operation sequence, so the resting book can be rebuilt by
// replay before a restarted engine accepts traffic. Compaction rolls
// the commands up into a snapshot baseline so the store does not grow
// without bound.
package journal

import (
	"fmt"

	"github.com/cockroachdb/pebble"
)

type Journal struct {
	db *pebble.DB
}

func Open(dir string) (*Journal, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Append durably stores the record before the caller applies it.
func (j *Journal) Append(r Record) error {
	return j.db.Set(keyFor(r.Seq), encodeRecord(r), pebble.Sync)
}

// Replay invokes fn for every journaled record with sequence greater
// than after, in order, and returns the last sequence seen (at least
// after itself). Records at or below the horizon are skipped rather
// than rejected: a crash between WriteSnapshot and TruncateBefore
// legitimately leaves both. A non-monotonic sequence past the horizon
// means the store was corrupted out of band and aborts the replay.
func (j *Journal) Replay(after uint64, fn func(Record) error) (lastSeq uint64, err error) {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return after, err
	}
	defer iter.Close()

	lastSeq = after
	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return lastSeq, fmt.Errorf("replay at %q: %w", iter.Key(), err)
		}
		if rec.Seq <= after {
			continue
		}
		if rec.Seq <= lastSeq {
			return lastSeq, fmt.Errorf("journal: non-monotonic seq %d after %d", rec.Seq, lastSeq)
		}
		lastSeq = rec.Seq
		if err := fn(rec); err != nil {
			return lastSeq, err
		}
	}
	return lastSeq, iter.Error()
}

// TruncateBefore drops every record with sequence < seq. Call it only
// through Compact: records below a snapshot-less horizon reference
// state the replay would no longer have.
func (j *Journal) TruncateBefore(seq uint64) error {
	return j.db.DeleteRange([]byte(keyPrefix), keyFor(seq), pebble.Sync)
}

// WriteSnapshot durably replaces the replay baseline: the full resting
// state as of seq, expressed as the add records that rebuild it in
// queue-priority order.
func (j *Journal) WriteSnapshot(seq uint64, recs []Record) error {
	return j.db.Set([]byte(snapKey), encodeSnapshot(seq, recs), pebble.Sync)
}

// Snapshot loads the replay baseline. No stored snapshot yields seq 0
// and no records, meaning replay starts from an empty book.
func (j *Journal) Snapshot() (seq uint64, recs []Record, err error) {
	val, closer, err := j.db.Get([]byte(snapKey))
	if err != nil {
		if err == pebble.ErrNotFound {
			return 0, nil, nil
		}
		return 0, nil, err
	}
	defer closer.Close()
	return decodeSnapshot(val)
}

// Compact garbage-collects the journal: it persists recs as the new
// baseline at seq, then drops every record at or below it. Snapshot
// first, truncate second — a crash in between leaves overlap, which
// Replay tolerates, never a gap.
func (j *Journal) Compact(seq uint64, recs []Record) error {
	if err := j.WriteSnapshot(seq, recs); err != nil {
		return err
	}
	return j.TruncateBefore(seq + 1)
}

const (
	keyPrefix = "cmd/"
	snapKey   = "snap/state"
)

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}
