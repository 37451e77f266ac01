package blob

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tracefang/internal/events"
	"github.com/Sumatoshi-tech/tracefang/internal/intern"
)

// sampleGraph builds a small linked graph with a few interned names.
func sampleGraph() ([]events.Event, *intern.Global) {
	names := intern.NewGlobal()
	compiler := names.InternString("a.o")
	fn := names.InternString("foo(int)")

	evs := []events.Event{
		{Kind: events.KindOptFunction, Start: 100, Dur: 300, Detail: fn, Parent: 2},
		{Kind: events.KindBackend, Start: 50, Dur: 500, Parent: 2, Children: []events.EventIndex{0}},
		{Kind: events.KindCompiler, Start: 0, Dur: 1000, Detail: compiler, Parent: events.NoParent, Children: []events.EventIndex{1}},
	}

	return evs, names
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trace.bin")
	evs, names := sampleGraph()

	require.NoError(t, Save(path, evs, names))

	gotEvents, gotNames, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, evs, gotEvents)
	require.Equal(t, names.Len(), gotNames.Len())

	for i := 0; i < names.Len(); i++ {
		idx := events.DetailIndex(i)
		assert.Equal(t, names.NameString(idx), gotNames.NameString(idx))
	}
}

func TestSaveLoad_EmptyGraph(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.bin")

	require.NoError(t, Save(path, nil, intern.NewGlobal()))

	gotEvents, gotNames, err := Load(path)
	require.NoError(t, err)

	assert.Empty(t, gotEvents)
	assert.Equal(t, 1, gotNames.Len())
}

func TestSave_TrailingHashCoversBody(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trace.bin")
	evs, names := sampleGraph()

	require.NoError(t, Save(path, evs, names))

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	require.Greater(t, len(data), hashSize)

	body := data[:len(data)-hashSize]
	stored := binary.LittleEndian.Uint64(data[len(data)-hashSize:])

	assert.Equal(t, xxhash.Sum64(body), stored)
	assert.Equal(t, []byte("CBA0"), data[:4])
}

func TestLoad_RejectsTooShort(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(path, []byte("CBA0"), 0o644))

	_, _, err := Load(path)

	require.ErrorIs(t, err, ErrTooShort)
}

func TestLoad_RejectsBadMagic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "magic.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 64), 0o644))

	_, _, err := Load(path)

	require.ErrorIs(t, err, ErrBadMagic)
}

func TestLoad_RejectsFlippedBit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trace.bin")
	evs, names := sampleGraph()

	require.NoError(t, Save(path, evs, names))

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)

	data[10] ^= 0x01

	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, _, err := Load(path)

	require.ErrorIs(t, err, ErrBadHash)
}

func TestLoad_RejectsTruncatedBody(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trace.bin")
	evs, names := sampleGraph()

	require.NoError(t, Save(path, evs, names))

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)

	// Drop the last 12 bytes of the body (the final name record), then
	// re-seal with a valid hash so that the structural bounds checks are
	// what rejects the file.
	body := data[: len(data)-hashSize-12 : len(data)-hashSize-12]

	var trailer [hashSize]byte

	binary.LittleEndian.PutUint64(trailer[:], xxhash.Sum64(body))
	body = append(body, trailer[:]...)

	require.NoError(t, os.WriteFile(path, body, 0o644))

	_, _, err := Load(path)

	require.ErrorIs(t, err, ErrCorrupt)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := Load(filepath.Join(t.TempDir(), "nope.bin"))

	require.Error(t, err)
}
