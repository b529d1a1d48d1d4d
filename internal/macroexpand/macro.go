// Package macroexpand implements macro expansion:
// declarative (macro_rules!), built-in function-like/derive/attribute
// macros, and procedural macros dispatched through an
// input.ProcMacroExpander. Expansion turns one macro call into a fresh
// token stream that item-tree lowering and body lowering re-consume as
// if it had been written by hand, under a synthetic FileID so source
// maps and diagnostics still point somewhere sensible.
//
// The token representation here is deliberately flat (a tokenized
// string, not a concrete syntax tree) since input.TokenTree itself is
// flat. This keeps macro expansion's pattern matcher a simple
// string-keyed rewrite table rather than building a second parser that
// would duplicate internal/synsrc.
package macroexpand

import (
	"strings"
)

// Token is a single lexeme of a macro's argument or template.
type Token string

// Tokenize splits macro-call argument text into tokens along
// whitespace and single-character punctuation, keeping `$name` (and
// `$name:frag`) intact as one token. Repetition markers are not kept
// whole: `$(` comes out as `$`, `(` and `)*` as `)`, `*`.
func Tokenize(text string) []Token {
	var toks []Token
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, Token(cur.String()))
			cur.Reset()
		}
	}
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		case r == '$':
			flush()
			cur.WriteRune(r)
			// Greedily consume the identifier (and optional :fragment) that follows.
			for i+1 < len(runes) && (isIdentRune(runes[i+1]) || runes[i+1] == ':') {
				i++
				cur.WriteRune(runes[i])
			}
			flush()
		case strings.ContainsRune("(){}[],;:*+?", r):
			flush()
			toks = append(toks, Token(string(r)))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// Kind distinguishes the macro dispatch strategies this package supports.
type Kind int

const (
	KindDeclarative Kind = iota
	KindBuiltinFnLike
	KindBuiltinDerive
	KindBuiltinAttribute
	KindProcedural
)

// Rule is one `(pattern) => { template };` arm of a macro_rules! macro.
type Rule struct {
	Pattern  []Token
	Template []Token
}

// Definition is a macro's full set of expansion rules or, for a
// built-in/procedural macro, a marker consulted by the dispatch table
// instead.
type Definition struct {
	Name  string
	Kind  Kind
	Rules []Rule // KindDeclarative only
}
