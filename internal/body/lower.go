package body

import (
	"strconv"
	"strings"

	"github.com/sunholo/semcore/internal/intern"
	"github.com/sunholo/semcore/internal/synsrc"
)

// Lowerer holds the mutable state of one body's lowering pass.
type Lowerer struct {
	tree     *synsrc.Tree
	interner *intern.Interner
	exprs    *intern.Arena[Expr]
	pats     *intern.Arena[Pat]
	sm       *SourceMap

	// loopLabels is read by currentLabel for `break`/`continue` without an
	// explicit label, but no lowering step pushes onto it, so such a
	// `break`/`continue` always carries the zero label.
	loopLabels []intern.ID
}

// Lower builds a Body from a function/closure/const body's root syntax
// node.
func Lower(tree *synsrc.Tree, interner *intern.Interner, params []int, rootExprNode int) *Body {
	lz := &Lowerer{
		tree:     tree,
		interner: interner,
		exprs:    intern.NewArena[Expr](),
		pats:     intern.NewArena[Pat](),
		sm:       newSourceMap(),
	}

	var paramIDs []PatID
	for _, p := range params {
		paramIDs = append(paramIDs, lz.lowerPat(p))
	}

	root := lz.lowerExpr(rootExprNode)
	return &Body{
		Exprs:     lz.exprs,
		Pats:      lz.pats,
		Params:    paramIDs,
		RootExpr:  root,
		SourceMap: lz.sm,
	}
}

func (lz *Lowerer) allocExpr(idx int, e Expr) ExprID {
	if idx >= 0 {
		e.Node = lz.tree.Nodes[idx]
	}
	id := lz.exprs.Alloc(e)
	if idx >= 0 {
		nodeID := lz.tree.Nodes[idx].ID
		lz.sm.ExprSource[id] = nodeID
		lz.sm.NodeExpr[nodeID] = id
	}
	return id
}

func (lz *Lowerer) allocPat(idx int, p Pat) PatID {
	if idx >= 0 {
		p.Node = lz.tree.Nodes[idx]
	}
	id := lz.pats.Alloc(p)
	if idx >= 0 {
		nodeID := lz.tree.Nodes[idx].ID
		lz.sm.PatSource[id] = nodeID
		lz.sm.NodePat[nodeID] = id
	}
	return id
}

// missing produces an error-recovery placeholder instead of failing
// lowering outright.
func (lz *Lowerer) missingExpr(idx int) ExprID {
	return lz.allocExpr(idx, Expr{Kind: ExprMissing})
}

// childrenExcluding returns idx's children whose text isn't one of the
// given literal keyword/punctuation strings — a best-effort way to
// recover a node's "meaningful" children without node-type field names.
func (lz *Lowerer) childrenExcluding(idx int, skip ...string) []int {
	var out []int
	for _, c := range lz.tree.Children(idx) {
		text := lz.tree.NodeText(c)
		excluded := false
		for _, s := range skip {
			if text == s {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, c)
		}
	}
	return out
}

func (lz *Lowerer) lowerExpr(idx int) ExprID {
	if idx < 0 {
		return lz.missingExpr(idx)
	}
	kind := lz.tree.Nodes[idx].Kind

	switch kind {
	case "integer_literal":
		return lz.allocExpr(idx, Expr{Kind: ExprLiteral, LitKind: LitInt, LitText: lz.tree.NodeText(idx)})
	case "float_literal":
		return lz.allocExpr(idx, Expr{Kind: ExprLiteral, LitKind: LitFloat, LitText: lz.tree.NodeText(idx)})
	case "string_literal":
		return lz.allocExpr(idx, Expr{Kind: ExprLiteral, LitKind: LitString, LitText: lz.tree.NodeText(idx)})
	case "char_literal":
		return lz.allocExpr(idx, Expr{Kind: ExprLiteral, LitKind: LitChar, LitText: lz.tree.NodeText(idx)})
	case "boolean_literal":
		return lz.allocExpr(idx, Expr{Kind: ExprLiteral, LitKind: LitBool, LitText: lz.tree.NodeText(idx)})

	case "identifier", "scoped_identifier", "self":
		return lz.allocExpr(idx, Expr{Kind: ExprPath, PathSegments: lz.lowerPathSegments(idx)})

	case "block", "unsafe_block":
		return lz.lowerBlock(idx, false)

	case "async_block":
		return lz.lowerBlock(idx, true)

	case "if_expression":
		return lz.lowerIf(idx)

	case "match_expression":
		return lz.lowerMatch(idx)

	case "loop_expression":
		return lz.lowerLoop(idx)

	case "while_expression":
		return lz.lowerWhile(idx)

	case "for_expression":
		return lz.lowerFor(idx)

	case "call_expression":
		return lz.lowerCall(idx)

	case "method_call_expression":
		return lz.lowerMethodCall(idx)

	case "field_expression":
		return lz.lowerField(idx)

	case "binary_expression":
		return lz.lowerBinary(idx)

	case "unary_expression":
		return lz.lowerUnary(idx)

	case "reference_expression":
		return lz.lowerRef(idx)

	case "try_expression":
		return lz.lowerTry(idx)

	case "closure_expression":
		return lz.lowerClosure(idx)

	case "tuple_expression":
		return lz.lowerTuple(idx)

	case "array_expression":
		return lz.lowerArray(idx)

	case "struct_expression":
		return lz.lowerStructLit(idx)

	case "index_expression":
		return lz.lowerIndex(idx)

	case "type_cast_expression":
		return lz.lowerCast(idx)

	case "return_expression":
		return lz.lowerReturn(idx)

	case "break_expression":
		return lz.lowerBreak(idx)

	case "continue_expression":
		return lz.allocExpr(idx, Expr{Kind: ExprContinue, BreakLabel: lz.currentLabel()})

	case "assignment_expression", "compound_assignment_expr":
		return lz.lowerAssign(idx)

	case "parenthesized_expression":
		children := lz.childrenExcluding(idx, "(", ")")
		if len(children) == 1 {
			return lz.lowerExpr(children[0])
		}
		return lz.missingExpr(idx)

	default:
		return lz.missingExpr(idx)
	}
}

func (lz *Lowerer) lowerPathSegments(idx int) []intern.ID {
	text := lz.tree.NodeText(idx)
	var segs []intern.ID
	for _, seg := range strings.Split(text, "::") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		segs = append(segs, lz.interner.Intern(seg))
	}
	return segs
}

func (lz *Lowerer) lowerBlock(idx int, isAsync bool) ExprID {
	children := lz.childrenExcluding(idx, "{", "}")
	var stmts []Stmt
	var tail *ExprID

	lastContentIdx := -1
	for i := len(children) - 1; i >= 0; i-- {
		if lz.tree.NodeText(children[i]) != ";" {
			lastContentIdx = i
			break
		}
	}

	for i, c := range children {
		if lz.tree.NodeText(c) == ";" {
			continue
		}

		switch lz.tree.Nodes[c].Kind {
		case "let_declaration":
			stmts = append(stmts, lz.lowerLetStmt(c))
		default:
			if i == lastContentIdx {
				e := lz.lowerExpr(c)
				tail = &e
			} else {
				e := lz.lowerExpr(c)
				stmts = append(stmts, Stmt{Kind: StmtExpr, Expr: e})
			}
		}
	}

	return lz.allocExpr(idx, Expr{Kind: ExprBlock, Statements: stmts, Tail: tail, IsAsync: isAsync})
}

func (lz *Lowerer) lowerLetStmt(idx int) Stmt {
	eqIdx := -1
	children := lz.tree.Children(idx)
	for i, c := range children {
		if lz.tree.NodeText(c) == "=" {
			eqIdx = i
			break
		}
	}

	var patIdx = -1
	for _, c := range children {
		if lz.tree.NodeText(c) == "let" || lz.tree.NodeText(c) == "=" || lz.tree.NodeText(c) == ";" || lz.tree.NodeText(c) == ":" {
			continue
		}
		if eqIdx >= 0 {
			pos := indexOfChild(children, c)
			if pos < eqIdx {
				patIdx = c
				break
			}
			continue
		}
		patIdx = c
		break
	}

	pat := lz.lowerPat(patIdx)

	hasType := false
	for _, c := range children {
		if lz.tree.NodeText(c) == ":" {
			hasType = true
			break
		}
	}

	var init *ExprID
	if eqIdx >= 0 && eqIdx+1 < len(children) {
		e := lz.lowerExpr(children[eqIdx+1])
		init = &e
	}

	return Stmt{Kind: StmtLet, Pat: pat, Type: hasType, Init: init}
}

func indexOfChild(children []int, target int) int {
	for i, c := range children {
		if c == target {
			return i
		}
	}
	return -1
}

// lowerIf handles both plain `if cond { } else { }` and the if-let
// desugaring: `if let PAT = EXPR { A }
// else { B }` becomes `match EXPR { PAT => A, _ => B }`.
func (lz *Lowerer) lowerIf(idx int) ExprID {
	children := lz.childrenExcluding(idx, "if", "else")
	if len(children) < 2 {
		return lz.missingExpr(idx)
	}
	condIdx, thenIdx := children[0], children[1]
	var elseIdx = -1
	if len(children) >= 3 {
		elseIdx = children[2]
	}

	if isLetCondition(lz.tree, condIdx) {
		patIdx, valIdx := splitLetCondition(lz.tree, condIdx)
		pat := lz.lowerPat(patIdx)
		thenExpr := lz.lowerExpr(thenIdx)
		wild := lz.allocPat(-1, Pat{Kind: PatWild})
		var elseExpr ExprID
		if elseIdx >= 0 {
			elseExpr = lz.lowerExpr(elseIdx)
		} else {
			elseExpr = lz.allocExpr(-1, Expr{Kind: ExprTuple})
		}
		scrutinee := lz.lowerExpr(valIdx)
		return lz.allocExpr(idx, Expr{
			Kind:      ExprMatch,
			Scrutinee: scrutinee,
			Arms: []MatchArm{
				{Pat: pat, Body: thenExpr},
				{Pat: wild, Body: elseExpr},
			},
		})
	}

	cond := lz.lowerExpr(condIdx)
	thenExpr := lz.lowerExpr(thenIdx)
	e := Expr{Kind: ExprIf, Cond: cond, Then: thenExpr}
	if elseIdx >= 0 {
		elseExpr := lz.lowerExpr(elseIdx)
		e.Else = &elseExpr
	}
	return lz.allocExpr(idx, e)
}

func isLetCondition(tree *synsrc.Tree, idx int) bool {
	if idx < 0 {
		return false
	}
	if tree.Nodes[idx].Kind == "let_condition" {
		return true
	}
	return strings.HasPrefix(strings.TrimSpace(tree.NodeText(idx)), "let ")
}

func splitLetCondition(tree *synsrc.Tree, idx int) (patIdx, valIdx int) {
	children := tree.Children(idx)
	eqPos := -1
	for i, c := range children {
		if tree.NodeText(c) == "=" {
			eqPos = i
			break
		}
	}
	patIdx, valIdx = -1, -1
	for i, c := range children {
		text := tree.NodeText(c)
		if text == "let" || text == "=" {
			continue
		}
		if eqPos >= 0 && i < eqPos {
			patIdx = c
		} else if eqPos >= 0 && i > eqPos {
			if valIdx < 0 {
				valIdx = c
			}
		}
	}
	return patIdx, valIdx
}

// lowerWhile handles plain `while cond { body }` and the while-let
// desugaring:
// `while let PAT = EXPR { BODY }` becomes
// `loop { match EXPR { PAT => BODY, _ => break } }`.
func (lz *Lowerer) lowerWhile(idx int) ExprID {
	children := lz.childrenExcluding(idx, "while")
	if len(children) < 2 {
		return lz.missingExpr(idx)
	}
	condIdx, bodyIdx := children[0], children[1]

	if isLetCondition(lz.tree, condIdx) {
		patIdx, valIdx := splitLetCondition(lz.tree, condIdx)
		pat := lz.lowerPat(patIdx)
		scrutinee := lz.lowerExpr(valIdx)
		bodyExpr := lz.lowerExpr(bodyIdx)
		wild := lz.allocPat(-1, Pat{Kind: PatWild})
		breakExpr := lz.allocExpr(-1, Expr{Kind: ExprBreak})
		matchExpr := lz.allocExpr(-1, Expr{
			Kind:      ExprMatch,
			Scrutinee: scrutinee,
			Arms: []MatchArm{
				{Pat: pat, Body: bodyExpr},
				{Pat: wild, Body: breakExpr},
			},
		})
		return lz.allocExpr(idx, Expr{Kind: ExprLoop, LoopBody: matchExpr})
	}

	cond := lz.lowerExpr(condIdx)
	bodyExpr := lz.lowerExpr(bodyIdx)
	breakExpr := lz.allocExpr(-1, Expr{Kind: ExprBreak})
	unitExpr := lz.allocExpr(-1, Expr{Kind: ExprTuple})
	ifExpr := lz.allocExpr(-1, Expr{Kind: ExprIf, Cond: cond, Then: bodyExpr, Else: exprPtr(breakExpr)})
	_ = unitExpr
	return lz.allocExpr(idx, Expr{Kind: ExprLoop, LoopBody: ifExpr})
}

func exprPtr(id ExprID) *ExprID { return &id }

// lowerFor desugars `for PAT in ITER { BODY }` into
// `loop { match ITER.into_iter().next() { Some(PAT) => BODY, None => break } }`.
// There is no outer match binding the iterator to a variable: the
// into_iter and next calls both sit inside the loop's match scrutinee.
// They are represented as opaque method calls on the iterator
// expression rather than resolved trait calls, since that resolution
// is type inference's job, not lowering's.
func (lz *Lowerer) lowerFor(idx int) ExprID {
	children := lz.childrenExcluding(idx, "for", "in")
	if len(children) < 3 {
		return lz.missingExpr(idx)
	}
	patIdx, iterIdx, bodyIdx := children[0], children[1], children[2]

	pat := lz.lowerPat(patIdx)
	iterExpr := lz.lowerExpr(iterIdx)
	bodyExpr := lz.lowerExpr(bodyIdx)

	intoIter := lz.allocExpr(-1, Expr{Kind: ExprMethodCall, Receiver: iterExpr, MethodName: lz.interner.Intern("into_iter")})
	nextCall := lz.allocExpr(-1, Expr{Kind: ExprMethodCall, Receiver: intoIter, MethodName: lz.interner.Intern("next")})

	somePat := lz.allocPat(-1, Pat{Kind: PatTupleStruct, PathSegments: []intern.ID{lz.interner.Intern("Some")}, Elements: []PatID{pat}})
	nonePat := lz.allocPat(-1, Pat{Kind: PatTupleStruct, PathSegments: []intern.ID{lz.interner.Intern("None")}})
	breakExpr := lz.allocExpr(-1, Expr{Kind: ExprBreak})

	matchExpr := lz.allocExpr(-1, Expr{
		Kind:      ExprMatch,
		Scrutinee: nextCall,
		Arms: []MatchArm{
			{Pat: somePat, Body: bodyExpr},
			{Pat: nonePat, Body: breakExpr},
		},
	})
	return lz.allocExpr(idx, Expr{Kind: ExprLoop, LoopBody: matchExpr})
}

// lowerTry desugars the `?` operator: `EXPR?` becomes
// `match Try::branch(EXPR) { Continue(v) => v, Break(r) => return From::from(r) }`.
// The `From::from` conversion is left as a bare path reference to the
// residual, since picking the concrete conversion impl is type
// inference's job.
func (lz *Lowerer) lowerTry(idx int) ExprID {
	children := lz.childrenExcluding(idx, "?")
	if len(children) != 1 {
		return lz.missingExpr(idx)
	}
	inner := lz.lowerExpr(children[0])

	contName := lz.interner.Intern("v")
	contPat := lz.allocPat(-1, Pat{Kind: PatTupleStruct, PathSegments: []intern.ID{lz.interner.Intern("Continue")}, Elements: []PatID{
		lz.allocPat(-1, Pat{Kind: PatBind, Name: contName}),
	}})
	contValue := lz.allocExpr(-1, Expr{Kind: ExprPath, PathSegments: []intern.ID{contName}})

	residualName := lz.interner.Intern("r")
	breakPat := lz.allocPat(-1, Pat{Kind: PatTupleStruct, PathSegments: []intern.ID{lz.interner.Intern("Break")}, Elements: []PatID{
		lz.allocPat(-1, Pat{Kind: PatBind, Name: residualName}),
	}})
	residualValue := lz.allocExpr(-1, Expr{Kind: ExprPath, PathSegments: []intern.ID{residualName}})
	returnExpr := lz.allocExpr(-1, Expr{Kind: ExprReturn, Value: exprPtr(residualValue)})

	branchFn := lz.allocExpr(-1, Expr{Kind: ExprPath, PathSegments: []intern.ID{lz.interner.Intern("Try"), lz.interner.Intern("branch")}})
	branchCall := lz.allocExpr(-1, Expr{Kind: ExprCall, Callee: branchFn, Args: []ExprID{inner}})

	return lz.allocExpr(idx, Expr{
		Kind:      ExprMatch,
		Scrutinee: branchCall,
		Arms: []MatchArm{
			{Pat: contPat, Body: contValue},
			{Pat: breakPat, Body: returnExpr},
		},
	})
}

func (lz *Lowerer) lowerMatch(idx int) ExprID {
	children := lz.childrenExcluding(idx, "match", "{", "}")
	if len(children) == 0 {
		return lz.missingExpr(idx)
	}
	scrutinee := lz.lowerExpr(children[0])

	var arms []MatchArm
	for _, armIdx := range children[1:] {
		if lz.tree.Nodes[armIdx].Kind != "match_arm" {
			continue
		}
		armChildren := lz.childrenExcluding(armIdx, "=>", ",")
		if len(armChildren) < 2 {
			continue
		}
		pat := lz.lowerPat(armChildren[0])
		var guard *ExprID
		bodyPos := 1
		if lz.tree.Nodes[armChildren[1]].Kind == "match_guard" {
			g := lz.lowerExpr(armChildren[1])
			guard = &g
			bodyPos = 2
		}
		if bodyPos >= len(armChildren) {
			continue
		}
		body := lz.lowerExpr(armChildren[bodyPos])
		arms = append(arms, MatchArm{Pat: pat, Guard: guard, Body: body})
	}

	return lz.allocExpr(idx, Expr{Kind: ExprMatch, Scrutinee: scrutinee, Arms: arms})
}

func (lz *Lowerer) lowerLoop(idx int) ExprID {
	children := lz.childrenExcluding(idx, "loop")
	if len(children) == 0 {
		return lz.missingExpr(idx)
	}
	body := lz.lowerExpr(children[0])
	return lz.allocExpr(idx, Expr{Kind: ExprLoop, LoopBody: body})
}

func (lz *Lowerer) lowerCall(idx int) ExprID {
	children := lz.tree.Children(idx)
	if len(children) == 0 {
		return lz.missingExpr(idx)
	}
	callee := lz.lowerExpr(children[0])
	var args []ExprID
	if len(children) > 1 {
		for _, a := range lz.childrenExcluding(children[1], "(", ")", ",") {
			args = append(args, lz.lowerExpr(a))
		}
	}
	return lz.allocExpr(idx, Expr{Kind: ExprCall, Callee: callee, Args: args})
}

func (lz *Lowerer) lowerMethodCall(idx int) ExprID {
	children := lz.tree.Children(idx)
	if len(children) < 2 {
		return lz.missingExpr(idx)
	}
	receiver := lz.lowerExpr(children[0])
	name := lz.interner.Intern(lz.tree.NodeText(children[1]))
	var args []ExprID
	if len(children) > 2 {
		for _, a := range lz.childrenExcluding(children[len(children)-1], "(", ")", ",") {
			args = append(args, lz.lowerExpr(a))
		}
	}
	return lz.allocExpr(idx, Expr{Kind: ExprMethodCall, Receiver: receiver, MethodName: name, Args: args})
}

func (lz *Lowerer) lowerField(idx int) ExprID {
	children := lz.tree.Children(idx)
	if len(children) < 2 {
		return lz.missingExpr(idx)
	}
	base := lz.lowerExpr(children[0])
	text := lz.tree.NodeText(children[len(children)-1])
	if n, err := strconv.Atoi(text); err == nil {
		return lz.allocExpr(idx, Expr{Kind: ExprTupleIndex, Base: base, TupleIdx: n})
	}
	return lz.allocExpr(idx, Expr{Kind: ExprField, Base: base, FieldName: lz.interner.Intern(text)})
}

var binOps = map[string]BinOp{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpRem,
	"&&": OpAnd, "||": OpOr, "==": OpEq, "!=": OpNe,
	"<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
	"&": OpBitAnd, "|": OpBitOr, "^": OpBitXor, "<<": OpShl, ">>": OpShr,
}

func (lz *Lowerer) lowerBinary(idx int) ExprID {
	children := lz.tree.Children(idx)
	if len(children) != 3 {
		return lz.missingExpr(idx)
	}
	lhs := lz.lowerExpr(children[0])
	opText := lz.tree.NodeText(children[1])
	rhs := lz.lowerExpr(children[2])
	op, ok := binOps[opText]
	if !ok {
		op = OpAdd
	}
	return lz.allocExpr(idx, Expr{Kind: ExprBinary, BinOp: op, LHS: lhs, RHS: rhs})
}

func (lz *Lowerer) lowerUnary(idx int) ExprID {
	children := lz.tree.Children(idx)
	if len(children) != 2 {
		return lz.missingExpr(idx)
	}
	opText := lz.tree.NodeText(children[0])
	operand := lz.lowerExpr(children[1])
	op := OpNeg
	switch opText {
	case "!":
		op = OpNot
	case "*":
		op = OpDeref
	}
	return lz.allocExpr(idx, Expr{Kind: ExprUnary, UnOp: op, Operand: operand})
}

func (lz *Lowerer) lowerRef(idx int) ExprID {
	children := lz.childrenExcluding(idx, "&", "mut")
	if len(children) != 1 {
		return lz.missingExpr(idx)
	}
	operand := lz.lowerExpr(children[0])
	isMut := strings.Contains(lz.tree.NodeText(idx), "mut")
	return lz.allocExpr(idx, Expr{Kind: ExprRef, Operand: operand, RefMut: isMut})
}

func (lz *Lowerer) lowerClosure(idx int) ExprID {
	isMove := strings.HasPrefix(strings.TrimSpace(lz.tree.NodeText(idx)), "move")
	children := lz.tree.Children(idx)
	var params []PatID
	var bodyIdx = -1
	for _, c := range children {
		switch lz.tree.Nodes[c].Kind {
		case "closure_parameters":
			for _, p := range lz.childrenExcluding(c, "|", ",") {
				params = append(params, lz.lowerPat(p))
			}
		case "identifier", "block", "call_expression", "binary_expression", "literal":
			bodyIdx = c
		default:
			if bodyIdx < 0 && lz.tree.NodeText(c) != "move" && lz.tree.NodeText(c) != "|" {
				bodyIdx = c
			}
		}
	}
	body := lz.lowerExpr(bodyIdx)
	return lz.allocExpr(idx, Expr{Kind: ExprClosure, Params: params, ClosureBody: body, ClosureMove: isMove})
}

func (lz *Lowerer) lowerTuple(idx int) ExprID {
	var elems []ExprID
	for _, c := range lz.childrenExcluding(idx, "(", ")", ",") {
		elems = append(elems, lz.lowerExpr(c))
	}
	return lz.allocExpr(idx, Expr{Kind: ExprTuple, Elements: elems})
}

func (lz *Lowerer) lowerArray(idx int) ExprID {
	var elems []ExprID
	for _, c := range lz.childrenExcluding(idx, "[", "]", ",") {
		elems = append(elems, lz.lowerExpr(c))
	}
	return lz.allocExpr(idx, Expr{Kind: ExprArray, Elements: elems})
}

func (lz *Lowerer) lowerStructLit(idx int) ExprID {
	children := lz.tree.Children(idx)
	if len(children) == 0 {
		return lz.missingExpr(idx)
	}
	path := lz.lowerPathSegments(children[0])

	var fields []StructLitField
	var spread *ExprID
	for _, c := range children[1:] {
		switch lz.tree.Nodes[c].Kind {
		case "field_initializer":
			fc := lz.tree.Children(c)
			if len(fc) == 0 {
				continue
			}
			name := lz.interner.Intern(lz.tree.NodeText(fc[0]))
			var value ExprID
			if len(fc) > 1 {
				value = lz.lowerExpr(fc[len(fc)-1])
			} else {
				value = lz.allocExpr(-1, Expr{Kind: ExprPath, PathSegments: []intern.ID{name}})
			}
			fields = append(fields, StructLitField{Name: name, Value: value})
		case "base_field_initializer":
			sc := lz.childrenExcluding(c, "..")
			if len(sc) == 1 {
				e := lz.lowerExpr(sc[0])
				spread = &e
			}
		}
	}

	return lz.allocExpr(idx, Expr{Kind: ExprStructLit, StructPath: path, Fields: fields, Spread: spread})
}

func (lz *Lowerer) lowerIndex(idx int) ExprID {
	children := lz.childrenExcluding(idx, "[", "]")
	if len(children) != 2 {
		return lz.missingExpr(idx)
	}
	base := lz.lowerExpr(children[0])
	index := lz.lowerExpr(children[1])
	return lz.allocExpr(idx, Expr{Kind: ExprIndex, IndexBase: base, IndexExpr: index})
}

func (lz *Lowerer) lowerCast(idx int) ExprID {
	children := lz.childrenExcluding(idx, "as")
	if len(children) == 0 {
		return lz.missingExpr(idx)
	}
	inner := lz.lowerExpr(children[0])
	return lz.allocExpr(idx, Expr{Kind: ExprCast, CastExpr: inner})
}

func (lz *Lowerer) lowerReturn(idx int) ExprID {
	children := lz.childrenExcluding(idx, "return")
	e := Expr{Kind: ExprReturn}
	if len(children) > 0 {
		v := lz.lowerExpr(children[0])
		e.Value = &v
	}
	return lz.allocExpr(idx, e)
}

func (lz *Lowerer) lowerBreak(idx int) ExprID {
	children := lz.childrenExcluding(idx, "break")
	e := Expr{Kind: ExprBreak, BreakLabel: lz.currentLabel()}
	if len(children) > 0 {
		v := lz.lowerExpr(children[0])
		e.Value = &v
	}
	return lz.allocExpr(idx, e)
}

func (lz *Lowerer) lowerAssign(idx int) ExprID {
	children := lz.tree.Children(idx)
	if len(children) != 3 {
		return lz.missingExpr(idx)
	}
	lhs := lz.lowerExpr(children[0])
	rhs := lz.lowerExpr(children[2])
	return lz.allocExpr(idx, Expr{Kind: ExprAssign, AssignLHS: lhs, AssignRHS: rhs})
}

func (lz *Lowerer) currentLabel() intern.ID {
	if len(lz.loopLabels) == 0 {
		return 0
	}
	return lz.loopLabels[len(lz.loopLabels)-1]
}

// lowerPat lowers one pattern node. Unrecognized shapes fall back to a
// wildcard, the recovery value exhaustiveness checking treats as
// "matches anything" rather than rejecting the whole arm.
func (lz *Lowerer) lowerPat(idx int) PatID {
	if idx < 0 {
		return lz.allocPat(-1, Pat{Kind: PatWild})
	}
	kind := lz.tree.Nodes[idx].Kind
	text := strings.TrimSpace(lz.tree.NodeText(idx))

	switch kind {
	case "_":
		return lz.allocPat(idx, Pat{Kind: PatWild})
	case "identifier":
		if text == "_" {
			return lz.allocPat(idx, Pat{Kind: PatWild})
		}
		return lz.allocPat(idx, Pat{Kind: PatBind, Name: lz.interner.Intern(text)})
	case "mut_pattern":
		children := lz.childrenExcluding(idx, "mut")
		if len(children) == 1 {
			inner := lz.lowerPat(children[0])
			if ip := lz.pats.Get(inner); ip.Kind == PatBind {
				ip.BindMut = true
				lz.pats.Set(inner, ip)
				return inner
			}
		}
		return lz.allocPat(idx, Pat{Kind: PatBind, Name: lz.interner.Intern(text), BindMut: true})
	case "reference_pattern":
		children := lz.childrenExcluding(idx, "&", "mut")
		if len(children) == 1 {
			inner := lz.lowerPat(children[0])
			return lz.allocPat(idx, Pat{Kind: PatRef, SubPat: &inner})
		}
		return lz.allocPat(idx, Pat{Kind: PatWild})
	case "tuple_pattern":
		var elems []PatID
		for _, c := range lz.childrenExcluding(idx, "(", ")", ",") {
			elems = append(elems, lz.lowerPat(c))
		}
		return lz.allocPat(idx, Pat{Kind: PatTuple, Elements: elems})
	case "tuple_struct_pattern":
		children := lz.tree.Children(idx)
		if len(children) == 0 {
			return lz.allocPat(idx, Pat{Kind: PatWild})
		}
		path := lz.lowerPathSegments(children[0])
		var elems []PatID
		for _, c := range children[1:] {
			t := lz.tree.NodeText(c)
			if t == "(" || t == ")" || t == "," {
				continue
			}
			elems = append(elems, lz.lowerPat(c))
		}
		return lz.allocPat(idx, Pat{Kind: PatTupleStruct, PathSegments: path, Elements: elems})
	case "struct_pattern":
		children := lz.tree.Children(idx)
		if len(children) == 0 {
			return lz.allocPat(idx, Pat{Kind: PatWild})
		}
		path := lz.lowerPathSegments(children[0])
		var names []intern.ID
		var elems []PatID
		for _, c := range children[1:] {
			if lz.tree.Nodes[c].Kind != "field_pattern" {
				continue
			}
			fc := lz.childrenExcluding(c, ":")
			if len(fc) == 0 {
				continue
			}
			names = append(names, lz.interner.Intern(lz.tree.NodeText(fc[0])))
			if len(fc) > 1 {
				elems = append(elems, lz.lowerPat(fc[1]))
			} else {
				elems = append(elems, lz.allocPat(-1, Pat{Kind: PatBind, Name: lz.interner.Intern(lz.tree.NodeText(fc[0]))}))
			}
		}
		return lz.allocPat(idx, Pat{Kind: PatStruct, PathSegments: path, FieldNames: names, Elements: elems})
	case "or_pattern":
		var alts []PatID
		for _, c := range lz.childrenExcluding(idx, "|") {
			alts = append(alts, lz.lowerPat(c))
		}
		return lz.allocPat(idx, Pat{Kind: PatOr, Alternatives: alts})
	case "integer_literal", "string_literal", "char_literal", "boolean_literal":
		return lz.allocPat(idx, Pat{Kind: PatLiteral, LitText: text})
	case "scoped_identifier":
		return lz.allocPat(idx, Pat{Kind: PatPath, PathSegments: lz.lowerPathSegments(idx)})
	default:
		return lz.allocPat(idx, Pat{Kind: PatWild})
	}
}
