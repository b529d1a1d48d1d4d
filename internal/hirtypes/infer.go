package hirtypes

import (
	"errors"
	"fmt"

	"github.com/sunholo/semcore/internal/body"
	"github.com/sunholo/semcore/internal/diag"
	"github.com/sunholo/semcore/internal/intern"
)

// ExpectationKind tags what an inference call knows about the type its
// result must have before it runs, carried in from rust-analyzer's
// infer/expr.rs since it changes concrete
// decisions: an integer literal under HasType(u8) skips defaulting.
// RValueLikeUnsized (the unsized-coercion hint, `&[T]` from `&[T; N]`)
// is declared but no inference path in this package produces or
// consults it.
type ExpectationKind int

const (
	ExpectNone ExpectationKind = iota
	ExpectHasType
	ExpectRValueLikeUnsized
)

// Expectation is the contextual type hint threaded through expression
// inference.
type Expectation struct {
	Kind ExpectationKind
	Ty   TyID
}

// NoExpectation is the absence of a contextual hint.
var NoExpectation = Expectation{Kind: ExpectNone}

// HasType builds an Expectation carrying a concrete target type.
func HasType(ty TyID) Expectation { return Expectation{Kind: ExpectHasType, Ty: ty} }

// FieldInfo is one field of an ADT as AdtFields reports it.
type FieldInfo struct {
	Name intern.ID
	Type TyID
}

// AdtFields is the narrow interface field-access and struct-pattern
// inference consult to learn a nominal type's field layout — supplied
// by whatever owns the item tree/def map (internal/db), never computed
// inside this package.
type AdtFields interface {
	Fields(adtPath []intern.ID) ([]FieldInfo, bool)
	// TypeParams reports the ADT's declared generic parameter names, in
	// declaration order, used to substitute Args into field types whose
	// declared type is one of those parameters.
	TypeParams(adtPath []intern.ID) []intern.ID
}

// NoopAdtFields reports no known fields for any path — used when no
// item-tree-backed provider has been wired in (isolated inference
// tests), so field access degrades to a best-effort fresh type rather
// than panicking on a nil interface.
type NoopAdtFields struct{}

func (NoopAdtFields) Fields([]intern.ID) ([]FieldInfo, bool) { return nil, false }
func (NoopAdtFields) TypeParams([]intern.ID) []intern.ID     { return nil }

type breakableCtx struct {
	label     intern.ID
	breakType TyID
	hasBreak  bool
}

// Ctx is one body's inference context: the unification table, the
// per-expr/per-pat result tables, the obligation list the final phase
// resolves, and the breakable-context stack `break`/`continue` consult.
type Ctx struct {
	Types    *Table
	Infer    *InferenceTable
	Solver   Solver
	Fields   AdtFields
	Methods  Methods
	Body     *body.Body
	Interner *intern.Interner
	Diags    *diag.Bag

	ExprTypes map[body.ExprID]TyID
	PatTypes  map[body.PatID]TyID

	Obligations []Obligation

	scopes     []map[intern.ID]TyID
	breakables []breakableCtx
	closureSeq int
}

// NewCtx builds an inference context for one body.
func NewCtx(types *Table, b *body.Body, interner *intern.Interner, solver Solver, fields AdtFields, methods Methods) *Ctx {
	if solver == nil {
		solver = NoopSolver{}
	}
	if fields == nil {
		fields = NoopAdtFields{}
	}
	if methods == nil {
		methods = NoopMethods{}
	}
	return &Ctx{
		Types:     types,
		Infer:     NewInferenceTable(types),
		Solver:    solver,
		Fields:    fields,
		Methods:   methods,
		Body:      b,
		Interner:  interner,
		Diags:     &diag.Bag{},
		ExprTypes: make(map[body.ExprID]TyID),
		PatTypes:  make(map[body.PatID]TyID),
		scopes:    []map[intern.ID]TyID{make(map[intern.ID]TyID)},
	}
}

func (c *Ctx) pushScope()         { c.scopes = append(c.scopes, make(map[intern.ID]TyID)) }
func (c *Ctx) popScope()          { c.scopes = c.scopes[:len(c.scopes)-1] }
func (c *Ctx) bind(name intern.ID, ty TyID) {
	c.scopes[len(c.scopes)-1][name] = ty
}
func (c *Ctx) lookup(name intern.ID) (TyID, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if ty, ok := c.scopes[i][name]; ok {
			return ty, true
		}
	}
	return 0, false
}

func (c *Ctx) expr(id body.ExprID) body.Expr { return c.Body.Exprs.Get(id) }
func (c *Ctx) pat(id body.PatID) body.Pat    { return c.Body.Pats.Get(id) }

func (c *Ctx) err(code, msg string) {
	c.Diags.Add(diag.New(code, "hirtypes", msg, nil))
}

// InferBody infers every parameter pattern then the root expression,
// returning the body's overall type.
func (c *Ctx) InferBody(paramTypes []TyID) TyID {
	for i, p := range c.Body.Params {
		var expected TyID
		if i < len(paramTypes) {
			expected = paramTypes[i]
		} else {
			expected = c.Infer.NewVar(OriginGeneral)
		}
		c.InferPat(p, expected)
	}
	return c.InferExpr(c.Body.RootExpr, NoExpectation)
}

// InferExpr infers id's type under expectation exp, recording the
// result and returning it.
func (c *Ctx) InferExpr(id body.ExprID, exp Expectation) TyID {
	e := c.expr(id)
	ty := c.inferExprKind(id, e, exp)
	c.ExprTypes[id] = ty
	return ty
}

func (c *Ctx) inferExprKind(id body.ExprID, e body.Expr, exp Expectation) TyID {
	switch e.Kind {
	case body.ExprMissing:
		return c.Types.Error()

	case body.ExprLiteral:
		return c.inferLiteral(e, exp)

	case body.ExprPath:
		return c.inferPath(e)

	case body.ExprBlock:
		return c.inferBlock(e)

	case body.ExprIf:
		return c.inferIf(e)

	case body.ExprMatch:
		return c.inferMatch(e)

	case body.ExprLoop:
		return c.inferLoop(e)

	case body.ExprCall:
		return c.inferCall(e)

	case body.ExprMethodCall:
		return c.inferMethodCall(e)

	case body.ExprField:
		return c.inferField(e)

	case body.ExprTupleIndex:
		return c.inferTupleIndex(e)

	case body.ExprBinary:
		return c.inferBinary(e)

	case body.ExprUnary:
		return c.inferUnary(e)

	case body.ExprRef:
		inner := c.InferExpr(e.Operand, NoExpectation)
		return c.Types.Ref(inner, e.RefMut)

	case body.ExprClosure:
		return c.inferClosure(e)

	case body.ExprTuple:
		elems := make([]TyID, len(e.Elements))
		for i, el := range e.Elements {
			elems[i] = c.InferExpr(el, NoExpectation)
		}
		return c.Types.Tuple(elems)

	case body.ExprArray:
		return c.inferArray(e)

	case body.ExprStructLit:
		return c.inferStructLit(e)

	case body.ExprIndex:
		return c.inferIndex(e)

	case body.ExprCast:
		c.InferExpr(e.CastExpr, NoExpectation)
		return c.Infer.NewVar(OriginGeneral)

	case body.ExprReturn:
		if e.Value != nil {
			c.InferExpr(*e.Value, NoExpectation)
		}
		return c.Types.Never()

	case body.ExprBreak:
		c.inferBreak(e)
		return c.Types.Never()

	case body.ExprContinue:
		return c.Types.Never()

	case body.ExprAssign:
		lhs := c.InferExpr(e.AssignLHS, NoExpectation)
		c.InferExpr(e.AssignRHS, HasType(lhs))
		return c.Types.Unit()

	default:
		return c.Types.Error()
	}
}

func (c *Ctx) inferLiteral(e body.Expr, exp Expectation) TyID {
	switch e.LitKind {
	case body.LitInt:
		if exp.Kind == ExpectHasType {
			if c.Types.Get(exp.Ty).Kind == KindScalar {
				return exp.Ty
			}
		}
		return c.Infer.NewVar(OriginIntLiteral)
	case body.LitFloat:
		if exp.Kind == ExpectHasType {
			if c.Types.Get(exp.Ty).Kind == KindScalar {
				return exp.Ty
			}
		}
		return c.Infer.NewVar(OriginFloatLiteral)
	case body.LitString:
		return c.Types.Ref(c.Types.Str(), false)
	case body.LitChar:
		return c.Types.Scalar(ScalarChar)
	case body.LitBool:
		return c.Types.Scalar(ScalarBool)
	default:
		return c.Types.Error()
	}
}

func (c *Ctx) inferPath(e body.Expr) TyID {
	if len(e.PathSegments) == 0 {
		return c.Types.Error()
	}
	name := e.PathSegments[len(e.PathSegments)-1]
	if ty, ok := c.lookup(name); ok {
		return ty
	}
	// An item-level reference (function, const, unit struct/variant):
	// real resolution needs the def map, which this package doesn't
	// own. Best-effort fresh variable
	// so the rest of the body still gets types.
	return c.Infer.NewVar(OriginGeneral)
}

func (c *Ctx) inferBlock(e body.Expr) TyID {
	c.pushScope()
	defer c.popScope()

	for _, stmt := range e.Statements {
		switch stmt.Kind {
		case body.StmtLet:
			var initTy TyID
			if stmt.Init != nil {
				initTy = c.InferExpr(*stmt.Init, NoExpectation)
			} else {
				initTy = c.Infer.NewVar(OriginGeneral)
			}
			c.InferPat(stmt.Pat, initTy)
			if stmt.Else != nil {
				c.InferExpr(*stmt.Else, NoExpectation)
			}
		case body.StmtExpr:
			c.InferExpr(stmt.Expr, NoExpectation)
		case body.StmtItem:
			// Block-local items are collected and resolved by the item
			// tree and name resolution, not inferred here.
		}
	}

	var result TyID
	if e.Tail != nil {
		result = c.InferExpr(*e.Tail, NoExpectation)
	} else {
		result = c.Types.Unit()
	}

	if e.IsAsync {
		futurePath := []intern.ID{c.Interner.Intern("core"), c.Interner.Intern("future"), c.Interner.Intern("Future")}
		return c.Types.Opaque(futurePath, []TyID{result})
	}
	return result
}

func (c *Ctx) inferIf(e body.Expr) TyID {
	c.InferExpr(e.Cond, HasType(c.Types.Scalar(ScalarBool)))
	thenTy := c.InferExpr(e.Then, NoExpectation)
	if e.Else != nil {
		elseTy := c.InferExpr(*e.Else, NoExpectation)
		if err := c.Infer.Unify(thenTy, elseTy); err != nil {
			c.err(diag.TYP001, fmt.Sprintf("if and else have incompatible types: %v", err))
		}
		return thenTy
	}
	if err := c.Infer.Unify(thenTy, c.Types.Unit()); err != nil {
		c.err(diag.TYP001, "if without else must have unit-typed body")
	}
	return c.Types.Unit()
}

func (c *Ctx) inferMatch(e body.Expr) TyID {
	scrutTy := c.InferExpr(e.Scrutinee, NoExpectation)
	var result TyID
	for i, arm := range e.Arms {
		c.pushScope()
		c.InferPat(arm.Pat, scrutTy)
		if arm.Guard != nil {
			c.InferExpr(*arm.Guard, HasType(c.Types.Scalar(ScalarBool)))
		}
		bodyTy := c.InferExpr(arm.Body, NoExpectation)
		c.popScope()
		if i == 0 {
			result = bodyTy
		} else if err := c.Infer.Unify(result, bodyTy); err != nil {
			c.err(diag.TYP001, fmt.Sprintf("match arms have incompatible types: %v", err))
		}
	}
	if result == 0 && len(e.Arms) == 0 {
		return c.Types.Never()
	}
	return result
}

func (c *Ctx) inferLoop(e body.Expr) TyID {
	c.breakables = append(c.breakables, breakableCtx{breakType: c.Infer.NewVar(OriginGeneral)})
	c.InferExpr(e.LoopBody, NoExpectation)
	bc := c.breakables[len(c.breakables)-1]
	c.breakables = c.breakables[:len(c.breakables)-1]
	if !bc.hasBreak {
		return c.Types.Never()
	}
	return bc.breakType
}

func (c *Ctx) inferBreak(e body.Expr) {
	if len(c.breakables) == 0 {
		c.err(diag.TYP005, "break outside of a loop")
		if e.Value != nil {
			c.InferExpr(*e.Value, NoExpectation)
		}
		return
	}
	idx := len(c.breakables) - 1
	var valTy TyID
	if e.Value != nil {
		valTy = c.InferExpr(*e.Value, NoExpectation)
	} else {
		valTy = c.Types.Unit()
	}
	if err := c.Infer.Unify(c.breakables[idx].breakType, valTy); err != nil {
		c.err(diag.TYP001, fmt.Sprintf("break value type mismatch: %v", err))
	}
	c.breakables[idx].hasBreak = true
}

func (c *Ctx) inferCall(e body.Expr) TyID {
	calleeTy := c.InferExpr(e.Callee, NoExpectation)
	resolved := c.Infer.Resolve(calleeTy)
	ty := c.Types.Get(resolved)

	switch ty.Kind {
	case KindFnDef, KindFnPtr, KindClosure:
		if len(e.Args) != len(ty.Params) {
			c.err(diag.TYP008, fmt.Sprintf("expected %d arguments, found %d", len(ty.Params), len(e.Args)))
		}
		for i, a := range e.Args {
			var expect Expectation
			if i < len(ty.Params) {
				expect = HasType(ty.Params[i])
			}
			c.InferExpr(a, expect)
		}
		return ty.Ret
	default:
		for _, a := range e.Args {
			c.InferExpr(a, NoExpectation)
		}
		return c.Infer.NewVar(OriginGeneral)
	}
}

// inferMethodCall infers a method call's receiver and arguments, walks
// the receiver's autoderef chain via ResolveMethod, and checks the
// resolved candidate's signature the same way inferCall checks a plain
// function call. With no Methods provider wired in (NoopMethods),
// resolution always misses and this degrades to inferring operands and
// reporting TYP009, never panicking.
func (c *Ctx) inferMethodCall(e body.Expr) TyID {
	recvTy := c.InferExpr(e.Receiver, NoExpectation)

	candidate, err := c.ResolveMethod(recvTy, e.MethodName)
	if err != nil {
		for _, a := range e.Args {
			c.InferExpr(a, NoExpectation)
		}
		if errors.Is(err, errAmbiguousMethod) {
			c.err(diag.TYP010, err.Error())
		} else {
			c.err(diag.TYP009, err.Error())
		}
		return c.Infer.NewVar(OriginGeneral)
	}

	if len(e.Args) != len(candidate.Params) {
		c.err(diag.TYP008, fmt.Sprintf("expected %d arguments, found %d", len(candidate.Params), len(e.Args)))
	}
	for i, a := range e.Args {
		var expect Expectation
		if i < len(candidate.Params) {
			expect = HasType(candidate.Params[i])
		}
		c.InferExpr(a, expect)
	}
	return candidate.Ret
}


func (c *Ctx) inferField(e body.Expr) TyID {
	baseTy := c.InferExpr(e.Base, NoExpectation)
	resolved := c.Infer.Resolve(baseTy)
	ty := c.Types.Get(resolved)
	adtPath, adtArgs := ty.DefPath, ty.Args
	if ty.Kind == KindRef {
		inner := c.Types.Get(c.Infer.Resolve(ty.Elem))
		if inner.Kind == KindAdt {
			adtPath, adtArgs = inner.DefPath, inner.Args
		}
	} else if ty.Kind != KindAdt {
		adtPath = nil
	}
	if adtPath != nil {
		if fields, ok := c.Fields.Fields(adtPath); ok {
			for _, f := range fields {
				if f.Name == e.FieldName {
					return c.substituteParams(f.Type, adtPath, adtArgs)
				}
			}
			c.err(diag.TYP007, fmt.Sprintf("no field `%s`", c.Interner.Lookup(e.FieldName)))
		}
	}
	return c.Infer.NewVar(OriginGeneral)
}

// substituteParams replaces any Placeholder type in fieldTy that
// matches one of adtPath's declared generic parameters with the
// corresponding concrete argument from args, by declaration index.
func (c *Ctx) substituteParams(fieldTy TyID, adtPath []intern.ID, args []TyID) TyID {
	params := c.Fields.TypeParams(adtPath)
	ty := c.Types.Get(fieldTy)
	if ty.Kind == KindPlaceholder {
		for i, p := range params {
			if p == ty.ParamName && i < len(args) {
				return args[i]
			}
		}
	}
	return fieldTy
}

func (c *Ctx) inferTupleIndex(e body.Expr) TyID {
	baseTy := c.InferExpr(e.Base, NoExpectation)
	resolved := c.Infer.Resolve(baseTy)
	ty := c.Types.Get(resolved)
	if ty.Kind == KindTuple && e.TupleIdx < len(ty.Elements) {
		return ty.Elements[e.TupleIdx]
	}
	return c.Infer.NewVar(OriginGeneral)
}

var comparisonOps = map[body.BinOp]bool{
	body.OpEq: true, body.OpNe: true, body.OpLt: true, body.OpLe: true, body.OpGt: true, body.OpGe: true,
}

var logicalOps = map[body.BinOp]bool{body.OpAnd: true, body.OpOr: true}

func (c *Ctx) inferBinary(e body.Expr) TyID {
	if logicalOps[e.BinOp] {
		boolTy := c.Types.Scalar(ScalarBool)
		c.InferExpr(e.LHS, HasType(boolTy))
		c.InferExpr(e.RHS, HasType(boolTy))
		return boolTy
	}
	lhsTy := c.InferExpr(e.LHS, NoExpectation)
	rhsTy := c.InferExpr(e.RHS, HasType(lhsTy))
	if err := c.Infer.Unify(lhsTy, rhsTy); err != nil {
		c.err(diag.TYP001, fmt.Sprintf("binary operand type mismatch: %v", err))
	}
	if comparisonOps[e.BinOp] {
		return c.Types.Scalar(ScalarBool)
	}
	return lhsTy
}

func (c *Ctx) inferUnary(e body.Expr) TyID {
	operandTy := c.InferExpr(e.Operand, NoExpectation)
	switch e.UnOp {
	case body.OpNot:
		return c.Types.Scalar(ScalarBool)
	case body.OpDeref:
		resolved := c.Infer.Resolve(operandTy)
		ty := c.Types.Get(resolved)
		if ty.Kind == KindRef || ty.Kind == KindRawPtr {
			return ty.Elem
		}
		return c.Infer.NewVar(OriginGeneral)
	default: // OpNeg
		return operandTy
	}
}

func (c *Ctx) inferClosure(e body.Expr) TyID {
	c.pushScope()
	params := make([]TyID, len(e.Params))
	for i, p := range e.Params {
		v := c.Infer.NewVar(OriginGeneral)
		c.InferPat(p, v)
		params[i] = v
	}
	ret := c.InferExpr(e.ClosureBody, NoExpectation)
	c.popScope()

	c.closureSeq++
	path := []intern.ID{c.Interner.Intern(fmt.Sprintf("{closure#%d}", c.closureSeq))}
	return c.Types.Closure(path, params, ret)
}

func (c *Ctx) inferArray(e body.Expr) TyID {
	if len(e.Elements) == 0 {
		return c.Types.Array(c.Infer.NewVar(OriginGeneral), 0)
	}
	elemTy := c.InferExpr(e.Elements[0], NoExpectation)
	for _, el := range e.Elements[1:] {
		t := c.InferExpr(el, HasType(elemTy))
		if err := c.Infer.Unify(elemTy, t); err != nil {
			c.err(diag.TYP001, fmt.Sprintf("array element type mismatch: %v", err))
		}
	}
	return c.Types.Array(elemTy, int64(len(e.Elements)))
}

func (c *Ctx) inferStructLit(e body.Expr) TyID {
	adtTy := c.Types.Adt(e.StructPath, nil)
	if fields, ok := c.Fields.Fields(e.StructPath); ok {
		byName := make(map[intern.ID]TyID, len(fields))
		for _, f := range fields {
			byName[f.Name] = f.Type
		}
		seen := make(map[intern.ID]bool, len(e.Fields))
		for _, lf := range e.Fields {
			seen[lf.Name] = true
			expect, ok := byName[lf.Name]
			if !ok {
				c.err(diag.TYP007, fmt.Sprintf("no field `%s`", c.Interner.Lookup(lf.Name)))
				c.InferExpr(lf.Value, NoExpectation)
				continue
			}
			c.InferExpr(lf.Value, HasType(expect))
		}
		if e.Spread == nil {
			for _, f := range fields {
				if !seen[f.Name] {
					c.err(diag.TYP002, fmt.Sprintf("missing field `%s`", c.Interner.Lookup(f.Name)))
				}
			}
		} else {
			c.InferExpr(*e.Spread, HasType(adtTy))
		}
	} else {
		for _, lf := range e.Fields {
			c.InferExpr(lf.Value, NoExpectation)
		}
		if e.Spread != nil {
			c.InferExpr(*e.Spread, NoExpectation)
		}
	}
	return adtTy
}

func (c *Ctx) inferIndex(e body.Expr) TyID {
	baseTy := c.InferExpr(e.IndexBase, NoExpectation)
	c.InferExpr(e.IndexExpr, NoExpectation)
	resolved := c.Infer.Resolve(baseTy)
	ty := c.Types.Get(resolved)
	switch ty.Kind {
	case KindSlice, KindArray:
		return ty.Elem
	default:
		return c.Infer.NewVar(OriginGeneral)
	}
}
