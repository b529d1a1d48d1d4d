package macroexpand

// Bindings maps a metavariable name to the token sequence(s) it
// captured. A plain `$x` binds one sequence; `$x` inside a repetition
// group accumulates one sequence per repetition, in order.
type Bindings map[string][][]Token

// matchRule attempts to match input against one rule's pattern in
// full. Declarative macros try their rules in declaration order and
// use the first match.
func matchRule(pattern, input []Token) (Bindings, bool) {
	b := Bindings{}
	rest, ok := matchSeq(pattern, input, b)
	if !ok || len(rest) != 0 {
		return nil, false
	}
	return b, true
}

// matchSeq consumes pattern tokens against input, left to right,
// returning unconsumed input on success.
func matchSeq(pattern, input []Token, b Bindings) ([]Token, bool) {
	i := 0
	for i < len(pattern) {
		tok := pattern[i]

		if tok == "$" && i+1 < len(pattern) && pattern[i+1] == "(" {
			closeIdx, sep, quant, next := parseRepetition(pattern, i+1)
			inner := pattern[i+2 : closeIdx]
			for {
				if len(input) == 0 {
					break
				}
				window := input
				if sep != "" {
					if idx := indexOf(window, sep); idx >= 0 {
						window = window[:idx]
					}
				}
				iterBindings := Bindings{}
				rest, ok := matchSeq(inner, window, iterBindings)
				if !ok || len(rest) != 0 {
					break
				}
				for k, v := range iterBindings {
					b[k] = append(b[k], v...)
				}
				input = input[len(window):]
				if quant == "?" {
					break
				}
				if sep != "" {
					if len(input) > 0 && input[0] == sep {
						input = input[1:]
						continue
					}
					break
				}
			}
			i = next
			continue
		}

		if len(tok) > 1 && tok[0] == '$' {
			name := metaVarName(tok)
			// Capture until the next literal pattern token, or to the
			// end of input if this is the pattern's last token.
			var stop Token
			haveStop := false
			if i+1 < len(pattern) {
				stop = pattern[i+1]
				haveStop = true
			}
			var captured []Token
			for len(input) > 0 {
				if haveStop && input[0] == stop {
					break
				}
				captured = append(captured, input[0])
				input = input[1:]
			}
			if len(captured) == 0 {
				return nil, false
			}
			b[name] = append(b[name], captured)
			i++
			continue
		}

		if len(input) == 0 || input[0] != tok {
			return nil, false
		}
		input = input[1:]
		i++
	}
	return input, true
}

func indexOf(toks []Token, t Token) int {
	for i, tok := range toks {
		if tok == t {
			return i
		}
	}
	return -1
}

func metaVarName(tok Token) string {
	s := string(tok)[1:] // drop leading '$'
	for i, r := range s {
		if r == ':' {
			return s[:i]
		}
	}
	return s
}

// parseRepetition reads a `( ... ) sep? quant` group starting at the
// "(" token index, returning the index of the matching ")", the
// separator token (empty if none), the quantifier (*, +, or ?), and
// the index just past the whole group.
func parseRepetition(pattern []Token, openIdx int) (closeIdx int, sep Token, quant string, next int) {
	depth := 0
	i := openIdx
	for ; i < len(pattern); i++ {
		switch pattern[i] {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				closeIdx = i
			}
		}
		if depth == 0 && pattern[i] == ")" {
			break
		}
	}
	j := closeIdx + 1
	if j < len(pattern) && pattern[j] != "*" && pattern[j] != "+" && pattern[j] != "?" {
		sep = pattern[j]
		j++
	}
	if j < len(pattern) {
		quant = string(pattern[j])
		j++
	}
	return closeIdx, sep, quant, j
}

// expandTemplate substitutes bindings into a rule's template,
// expanding `$( ... )sep*` groups once per captured repetition.
func expandTemplate(template []Token, b Bindings) []Token {
	var out []Token
	i := 0
	for i < len(template) {
		tok := template[i]

		if tok == "$" && i+1 < len(template) && template[i+1] == "(" {
			close, sep, _, next := parseRepetition(template, i+1)
			inner := template[i+2 : close]
			count := repetitionCount(inner, b)
			for n := 0; n < count; n++ {
				out = append(out, expandTemplateOnce(inner, b, n)...)
				if sep != "" && n != count-1 {
					out = append(out, sep)
				}
			}
			i = next
			continue
		}

		if len(tok) > 1 && tok[0] == '$' {
			name := metaVarName(tok)
			if vals, ok := b[name]; ok && len(vals) > 0 {
				out = append(out, vals[0]...)
			}
			i++
			continue
		}

		out = append(out, tok)
		i++
	}
	return out
}

func repetitionCount(inner []Token, b Bindings) int {
	for _, tok := range inner {
		if len(tok) > 1 && tok[0] == '$' {
			if vals, ok := b[metaVarName(tok)]; ok {
				return len(vals)
			}
		}
	}
	return 0
}

func expandTemplateOnce(inner []Token, b Bindings, n int) []Token {
	var out []Token
	for _, tok := range inner {
		if len(tok) > 1 && tok[0] == '$' {
			name := metaVarName(tok)
			if vals, ok := b[name]; ok && n < len(vals) {
				out = append(out, vals[n]...)
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}
