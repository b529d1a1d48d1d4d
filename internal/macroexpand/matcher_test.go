package macroexpand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeKeepsMetaVarsIntact(t *testing.T) {
	toks := Tokenize("$name:ident + $rhs:expr")
	require.Equal(t, []Token{"$name:ident", "+", "$rhs:expr"}, toks)
}

func TestMatchRuleSimpleMetaVar(t *testing.T) {
	pattern := Tokenize("$x:expr")
	input := Tokenize("1 + 2")
	b, ok := matchRule(pattern, input)
	require.True(t, ok)
	require.Len(t, b["x"], 1)
	assert.Equal(t, []Token{"1", "+", "2"}, b["x"][0])
}

func TestMatchRuleLiteralPrefix(t *testing.T) {
	pattern := Tokenize("max ( $a:expr , $b:expr )")
	input := Tokenize("max(1, 2)")
	b, ok := matchRule(pattern, input)
	require.True(t, ok)
	assert.Equal(t, []Token{"1"}, b["a"][0])
	assert.Equal(t, []Token{"2"}, b["b"][0])
}

func TestMatchRuleRepetition(t *testing.T) {
	pattern := Tokenize("$( $x:expr ),*")
	input := Tokenize("1, 2, 3")
	b, ok := matchRule(pattern, input)
	require.True(t, ok)
	require.Len(t, b["x"], 3)
	assert.Equal(t, []Token{"1"}, b["x"][0])
	assert.Equal(t, []Token{"3"}, b["x"][2])
}

func TestExpandTemplateRepetition(t *testing.T) {
	def := &Definition{
		Name: "sum_all",
		Kind: KindDeclarative,
		Rules: []Rule{{
			Pattern:  Tokenize("$( $x:expr ),*"),
			Template: Tokenize("0 $( + $x )*"),
		}},
	}
	out, ok := expandDeclarative(def, Tokenize("1, 2, 3"))
	require.True(t, ok)
	assert.Equal(t, Tokenize("0 + 1 + 2 + 3"), out)
}

func TestMatchRuleNoMatchFails(t *testing.T) {
	pattern := Tokenize("foo ( $a:expr )")
	input := Tokenize("bar(1)")
	_, ok := matchRule(pattern, input)
	assert.False(t, ok)
}
