package intern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternSameStringSameID(t *testing.T) {
	in := New()
	a := in.Intern("foo")
	b := in.Intern("foo")
	assert.Equal(t, a, b)
	assert.Equal(t, "foo", in.Lookup(a))
}

func TestInternDistinctStringsDistinctIDs(t *testing.T) {
	in := New()
	a := in.Intern("foo")
	b := in.Intern("bar")
	assert.NotEqual(t, a, b)
}

func TestInternNormalizesUnicode(t *testing.T) {
	in := New()
	// "é" as a single codepoint vs. "e" + combining acute accent.
	a := in.Intern("café")
	b := in.Intern("café")
	assert.Equal(t, a, b, "NFC-equivalent spellings must intern identically")
}

func TestArenaAllocIsDenseAndStable(t *testing.T) {
	ar := NewArena[string]()
	i0 := ar.Alloc("a")
	i1 := ar.Alloc("b")
	assert.Equal(t, "a", ar.Get(i0))
	assert.Equal(t, "b", ar.Get(i1))
	assert.Equal(t, 2, ar.Len())
}

func TestArenaSetBackpatches(t *testing.T) {
	ar := NewArena[int]()
	idx := ar.Alloc(0)
	ar.Set(idx, 42)
	assert.Equal(t, 42, ar.Get(idx))
}
