package journal

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

type Op uint8

const (
	OpAdd Op = iota
	OpCancel
	OpAmend
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpCancel:
		return "cancel"
	case OpAmend:
		return "amend"
	default:
		return "unknown"
	}
}

// Record is one accepted book command. Side/Price/Qty are meaningful
// for OpAdd and OpAmend; cancels carry only the order id.
type Record struct {
	Op      Op
	Seq     uint64
	Time    int64
	OrderID uint64
	Side    uint8
	Price   int64
	Qty     int64
}

// Binary layout: [op:1][seq:8][time:8][id:8][side:1][price:8][qty:8][crc:4]
const recordSize = 1 + 8 + 8 + 8 + 1 + 8 + 8 + 4

var (
	ErrBadRecordLength = errors.New("journal: invalid record length")
	ErrBadChecksum     = errors.New("journal: record checksum mismatch")
	ErrBadSnapshot     = errors.New("journal: malformed snapshot")
)

func encodeRecord(r Record) []byte {
	buf := make([]byte, recordSize)
	buf[0] = byte(r.Op)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint64(buf[17:25], r.OrderID)
	buf[25] = r.Side
	binary.BigEndian.PutUint64(buf[26:34], uint64(r.Price))
	binary.BigEndian.PutUint64(buf[34:42], uint64(r.Qty))
	binary.BigEndian.PutUint32(buf[42:46], crc32.ChecksumIEEE(buf[:42]))
	return buf
}

// Snapshot layout: [seq:8][count:4] header followed by count records,
// each in the framed Record encoding above (so each row carries its own
// checksum).
const snapshotHeaderSize = 8 + 4

func encodeSnapshot(seq uint64, recs []Record) []byte {
	buf := make([]byte, snapshotHeaderSize, snapshotHeaderSize+len(recs)*recordSize)
	binary.BigEndian.PutUint64(buf[0:8], seq)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(recs)))
	for _, r := range recs {
		buf = append(buf, encodeRecord(r)...)
	}
	return buf
}

func decodeSnapshot(b []byte) (uint64, []Record, error) {
	if len(b) < snapshotHeaderSize {
		return 0, nil, ErrBadSnapshot
	}
	seq := binary.BigEndian.Uint64(b[0:8])
	count := int(binary.BigEndian.Uint32(b[8:12]))
	if len(b) != snapshotHeaderSize+count*recordSize {
		return 0, nil, ErrBadSnapshot
	}
	recs := make([]Record, 0, count)
	for off := snapshotHeaderSize; off < len(b); off += recordSize {
		r, err := decodeRecord(b[off : off+recordSize])
		if err != nil {
			return 0, nil, err
		}
		recs = append(recs, r)
	}
	return seq, recs, nil
}

func decodeRecord(b []byte) (Record, error) {
	if len(b) != recordSize {
		return Record{}, ErrBadRecordLength
	}
	if crc32.ChecksumIEEE(b[:42]) != binary.BigEndian.Uint32(b[42:46]) {
		return Record{}, ErrBadChecksum
	}
	return Record{
		Op:      Op(b[0]),
		Seq:     binary.BigEndian.Uint64(b[1:9]),
		Time:    int64(binary.BigEndian.Uint64(b[9:17])),
		OrderID: binary.BigEndian.Uint64(b[17:25]),
		Side:    b[25],
		Price:   int64(binary.BigEndian.Uint64(b[26:34])),
		Qty:     int64(binary.BigEndian.Uint64(b[34:42])),
	}, nil
}
