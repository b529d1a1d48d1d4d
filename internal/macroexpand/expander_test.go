package macroexpand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/semcore/internal/input"
)

func TestExpandDeclarativeMacro(t *testing.T) {
	reg := NewRegistry(0, input.NewProcMacroRegistry(false))
	reg.Define(&Definition{
		Name: "double",
		Kind: KindDeclarative,
		Rules: []Rule{{
			Pattern:  Tokenize("$x:expr"),
			Template: Tokenize("$x + $x"),
		}},
	})

	toks, bag := reg.Expand(nil, CallSite{Name: "double", Args: Tokenize("n")})
	require.Equal(t, 0, bag.Len())
	assert.Equal(t, Tokenize("n + n"), toks)
}

func TestExpandBuiltinStringify(t *testing.T) {
	reg := NewRegistry(0, input.NewProcMacroRegistry(false))
	toks, bag := reg.Expand(nil, CallSite{Name: "stringify", Args: Tokenize("1 + 2")})
	require.Equal(t, 0, bag.Len())
	assert.Equal(t, []Token{`"1 + 2"`}, toks)
}

func TestExpandDepthLimitExceeded(t *testing.T) {
	reg := NewRegistry(0, input.NewProcMacroRegistry(false))
	_, bag := reg.Expand(nil, CallSite{Name: "anything", Depth: maxExpansionDepth + 1})
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, "MAC001", bag.All()[0].Code)
}

func TestExpandCycleDetected(t *testing.T) {
	reg := NewRegistry(0, input.NewProcMacroRegistry(false))
	_, bag := reg.Expand([]string{"a", "b"}, CallSite{Name: "b"})
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, "MAC002", bag.All()[0].Code)
}

func TestExpandUnresolvedProcMacroIsDummy(t *testing.T) {
	reg := NewRegistry(0, input.NewProcMacroRegistry(true))
	_, bag := reg.Expand(nil, CallSite{Name: "some_derive_helper"})
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, "NAM005", bag.All()[0].Code)
}

func TestVirtualFileAllocatorProducesDistinctFiles(t *testing.T) {
	store := input.NewFileStore()
	alloc := NewVirtualFileAllocator(store)
	f1 := alloc.Allocate("call1", Tokenize("fn f() {}"))
	f2 := alloc.Allocate("call2", Tokenize("fn g() {}"))
	assert.NotEqual(t, f1, f2)
	assert.Contains(t, store.Text(f1), "fn")
}
