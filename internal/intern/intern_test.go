package intern

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tracefang/internal/events"
)

func TestLocal_EmptyNameIsIndexZero(t *testing.T) {
	t.Parallel()

	l := NewLocal()

	assert.Equal(t, events.EmptyDetail, l.Intern(""))
	assert.Equal(t, 1, l.Len())
}

func TestLocal_AssignsDenseIndices(t *testing.T) {
	t.Parallel()

	l := NewLocal()

	a := l.Intern("a.cpp")
	b := l.Intern("b.cpp")

	assert.Equal(t, events.DetailIndex(1), a)
	assert.Equal(t, events.DetailIndex(2), b)
}

func TestLocal_HitReturnsExistingIndex(t *testing.T) {
	t.Parallel()

	l := NewLocal()

	first := l.Intern("foo")
	second := l.Intern("foo")

	assert.Equal(t, first, second)
	assert.Equal(t, 2, l.Len())
}

func TestLocal_NameRoundTrip(t *testing.T) {
	t.Parallel()

	l := NewLocal()
	idx := l.Intern("std::vector<int>")

	assert.Equal(t, "std::vector<int>", l.Name(idx))
}

func TestGlobal_EmptyNameIsIndexZero(t *testing.T) {
	t.Parallel()

	g := NewGlobal()

	assert.Equal(t, events.EmptyDetail, g.Intern(nil))
	assert.Equal(t, events.EmptyDetail, g.InternString(""))
	assert.Equal(t, 1, g.Len())
}

func TestGlobal_InternAndInternStringAgree(t *testing.T) {
	t.Parallel()

	g := NewGlobal()

	byBytes := g.Intern([]byte("foo.h"))
	byString := g.InternString("foo.h")

	assert.Equal(t, byBytes, byString)
	assert.Equal(t, "foo.h", g.NameString(byBytes))
}

func TestGlobal_MergeLocalRemapsIndices(t *testing.T) {
	t.Parallel()

	g := NewGlobal()
	g.InternString("already-global")

	l := NewLocal()
	a := l.Intern("a.cpp")
	b := l.Intern("already-global")

	remap := g.MergeLocal(l)

	require.Len(t, remap, 3)

	// The empty name always maps to the reserved zero index.
	assert.Equal(t, events.EmptyDetail, remap[0])
	assert.Equal(t, "a.cpp", g.NameString(remap[a]))
	assert.Equal(t, "already-global", g.NameString(remap[b]))
	assert.Equal(t, events.DetailIndex(1), remap[b])
}

func TestGlobal_MergeIsMonotonic(t *testing.T) {
	t.Parallel()

	g := NewGlobal()

	l1 := NewLocal()
	l1.Intern("one")

	l2 := NewLocal()
	l2.Intern("two")
	l2.Intern("one")

	g.MergeLocal(l1)
	remap := g.MergeLocal(l2)

	assert.Equal(t, "two", g.NameString(remap[1]))
	assert.Equal(t, "one", g.NameString(remap[2]))
	assert.Equal(t, 3, g.Len())
}

func TestGlobal_ConcurrentInternIsSafe(t *testing.T) {
	t.Parallel()

	g := NewGlobal()

	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := 0; i < 100; i++ {
				g.InternString(fmt.Sprintf("name-%d", i))
			}
		}()
	}

	wg.Wait()

	// 100 distinct names plus the reserved empty name.
	assert.Equal(t, 101, g.Len())
}
