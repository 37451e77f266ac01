package demangle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_DemanglesItaniumSymbol(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "foo(int)", Filter("_Z3fooi"))
}

func TestFilter_HumanNamePassesThrough(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "std::vector<int>::push_back(int&&)", Filter("std::vector<int>::push_back(int&&)"))
}

func TestFilter_Idempotent(t *testing.T) {
	t.Parallel()

	once := Filter("_ZN3Foo3barEv")

	assert.Equal(t, once, Filter(once))
}
