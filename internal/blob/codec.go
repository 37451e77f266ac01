// Package blob persists a merged event graph as a compact binary file so
// repeated analysis runs skip the JSON work. The format is little-endian:
//
//	4 bytes   magic "CBA0"
//	int64     event count N
//	N times   int32 kind, int64 start, int64 dur, int32 detail,
//	          int32 parent, int64 child count C, C x int32 child index
//	int64     name count M
//	M times   uint32 length L, L bytes (no terminator, no padding)
//	uint64    xxhash of every preceding byte
//
// The trailing hash uses the same 64-bit hash family as the interner, so a
// truncated or bit-flipped blob is rejected before any of it is trusted.
package blob

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/Sumatoshi-tech/tracefang/internal/events"
	"github.com/Sumatoshi-tech/tracefang/internal/intern"
	"github.com/Sumatoshi-tech/tracefang/pkg/safeconv"
)

// magic identifies a build analysis blob.
var magic = [4]byte{'C', 'B', 'A', '0'}

// hashSize is the size of the trailing content hash.
const hashSize = 8

// Sentinel errors for blob rejection.
var (
	ErrTooShort = errors.New("blob file is too short")
	ErrBadMagic = errors.New("blob file has unknown header")
	ErrBadHash  = errors.New("blob file content hash mismatch")
	ErrCorrupt  = errors.New("blob file is corrupt")
)

// Save writes the event graph to path.
func Save(path string, evs []events.Event, names *intern.Global) error {
	var buf bytes.Buffer

	buf.Write(magic[:])

	writeInt64(&buf, int64(len(evs)))

	for i := range evs {
		ev := &evs[i]
		writeInt32(&buf, int32(ev.Kind))
		writeInt64(&buf, ev.Start)
		writeInt64(&buf, ev.Dur)
		writeInt32(&buf, int32(ev.Detail))
		writeInt32(&buf, int32(ev.Parent))
		writeInt64(&buf, int64(len(ev.Children)))

		for _, child := range ev.Children {
			writeInt32(&buf, int32(child))
		}
	}

	nameCount := names.Len()
	writeInt64(&buf, int64(nameCount))

	for i := 0; i < nameCount; i++ {
		name := names.Name(events.DetailIndex(safeconv.MustIntToInt32(i)))
		writeUint32(&buf, safeconv.MustIntToUint32(len(name)))
		buf.Write(name)
	}

	var trailer [hashSize]byte

	binary.LittleEndian.PutUint64(trailer[:], xxhash.Sum64(buf.Bytes()))
	buf.Write(trailer[:])

	writeErr := os.WriteFile(path, buf.Bytes(), 0o644)
	if writeErr != nil {
		return fmt.Errorf("write blob: %w", writeErr)
	}

	return nil
}

// Load reads the event graph back from path. Names are interned into a
// fresh global table in stored order, which reproduces the saved detail
// indices exactly.
func Load(path string) ([]events.Event, *intern.Global, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read blob: %w", err)
	}

	if len(data) < len(magic)+hashSize {
		return nil, nil, fmt.Errorf("%w: %s", ErrTooShort, path)
	}

	if !bytes.Equal(data[:len(magic)], magic[:]) {
		return nil, nil, fmt.Errorf("%w: %s", ErrBadMagic, path)
	}

	body := data[:len(data)-hashSize]
	stored := binary.LittleEndian.Uint64(data[len(data)-hashSize:])

	if xxhash.Sum64(body) != stored {
		return nil, nil, fmt.Errorf("%w: %s", ErrBadHash, path)
	}

	r := reader{data: body[len(magic):]}

	rawEventCount := r.int64()
	if rawEventCount < 0 || rawEventCount > int64(len(r.data)) {
		return nil, nil, fmt.Errorf("%w: %s", ErrCorrupt, path)
	}

	eventCount := safeconv.MustInt64ToInt(rawEventCount)
	evs := make([]events.Event, 0, eventCount)

	for i := 0; i < eventCount && r.err == nil; i++ {
		ev := events.Event{
			Kind:   events.Kind(r.int32()),
			Start:  r.int64(),
			Dur:    r.int64(),
			Detail: events.DetailIndex(r.int32()),
			Parent: events.EventIndex(r.int32()),
		}

		rawChildCount := r.int64()
		if rawChildCount < 0 || rawChildCount > int64(len(r.data)) {
			return nil, nil, fmt.Errorf("%w: %s", ErrCorrupt, path)
		}

		if childCount := safeconv.MustInt64ToInt(rawChildCount); childCount > 0 {
			ev.Children = make([]events.EventIndex, childCount)
			for c := range ev.Children {
				ev.Children[c] = events.EventIndex(r.int32())
			}
		}

		evs = append(evs, ev)
	}

	names := intern.NewGlobal()

	rawNameCount := r.int64()
	if rawNameCount < 0 || rawNameCount > int64(len(r.data)) {
		return nil, nil, fmt.Errorf("%w: %s", ErrCorrupt, path)
	}

	nameCount := safeconv.MustInt64ToInt(rawNameCount)

	for i := 0; i < nameCount && r.err == nil; i++ {
		length := r.uint32()
		names.Intern(r.bytes(int(length)))
	}

	if r.err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrCorrupt, path)
	}

	return evs, names, nil
}

// reader is a bounds-checked little-endian cursor. The first failed read
// latches err; subsequent reads return zero values.
type reader struct {
	data []byte
	err  error
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil || n < 0 || n > len(r.data) {
		r.err = ErrCorrupt

		return nil
	}

	b := r.data[:n]
	r.data = r.data[n:]

	return b
}

func (r *reader) int32() int32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}

	return int32(binary.LittleEndian.Uint32(b))
}

func (r *reader) uint32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint32(b)
}

func (r *reader) int64() int64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}

	return int64(binary.LittleEndian.Uint64(b))
}

func writeInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte

	binary.LittleEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte

	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte

	binary.LittleEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}
