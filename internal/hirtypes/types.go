// Package hirtypes is the type system and inference engine: an interned type representation, a narrow trait-solver interface,
// and a per-body inference context that walks internal/body's expression
// and pattern arenas producing a type for every node plus a diagnostic
// bag.
//
// The same shape of interned type constructors, a Substitution-based
// unifier with an occurs check, and class-constraint/instance/defaulting
// machinery generalizes from a Hindley-Milner-with-type-classes system
// to this trait-based nominal type system (ADTs, references, trait
// objects, projections) instead of a TCon/TRecord/row-polymorphism set.
package hirtypes

import (
	"fmt"
	"strings"

	"github.com/sunholo/semcore/internal/intern"
)

// TyID is a stable, content-addressed handle into a Table. Two
// structurally equal types always have the same TyID.
type TyID uint32

// Kind tags a Ty's payload variant.
type Kind int

const (
	KindError Kind = iota
	KindNever
	KindScalar
	KindStr
	KindAdt
	KindTuple
	KindArray
	KindSlice
	KindRef
	KindRawPtr
	KindFnDef
	KindFnPtr
	KindClosure
	KindTraitObject
	KindProjection
	KindOpaque
	KindPlaceholder
	KindInferVar
)

// ScalarKind enumerates the primitive scalar types.
type ScalarKind int

const (
	ScalarBool ScalarKind = iota
	ScalarChar
	ScalarI8
	ScalarI16
	ScalarI32
	ScalarI64
	ScalarI128
	ScalarIsize
	ScalarU8
	ScalarU16
	ScalarU32
	ScalarU64
	ScalarU128
	ScalarUsize
	ScalarF32
	ScalarF64
)

func (s ScalarKind) String() string {
	names := [...]string{
		"bool", "char", "i8", "i16", "i32", "i64", "i128", "isize",
		"u8", "u16", "u32", "u64", "u128", "usize", "f32", "f64",
	}
	if int(s) < len(names) {
		return names[s]
	}
	return "?scalar"
}

// InferVarOrigin records why an inference variable was created, used
// for defaulting at the end of a body's inference.
type InferVarOrigin int

const (
	OriginGeneral InferVarOrigin = iota
	OriginIntLiteral
	OriginFloatLiteral
)

// Ty is one node of the interned type representation. Only the fields
// relevant to Kind are populated.
type Ty struct {
	Kind Kind

	// KindScalar
	Scalar ScalarKind

	// KindAdt / KindTraitObject (principal trait) / KindOpaque (defining fn)
	DefPath []intern.ID
	Args    []TyID

	// KindTuple
	Elements []TyID

	// KindArray / KindSlice / KindRef / KindRawPtr
	Elem   TyID
	Len    int64 // KindArray only
	Mut    bool  // KindRef / KindRawPtr / KindPlaceholder
	Static bool  // KindRef: 'static lifetime folded to a bool, since lifetimes are erased

	// KindFnDef / KindFnPtr / KindClosure
	Params  []TyID
	Ret     TyID
	Variadic bool

	// KindTraitObject: additional bounds beyond the principal trait
	AutoTraits []intern.ID

	// KindProjection: <Self as Trait>::Assoc
	Self       TyID
	TraitPath  []intern.ID
	AssocName  intern.ID

	// KindPlaceholder: a generic type parameter (rigid, never unified away)
	ParamName intern.ID
	ParamIdx  int

	// KindInferVar
	VarID  uint32
	Origin InferVarOrigin
}

// Table interns Ty values by structure: building one never allocates a
// duplicate, so two calls with the same shape return the same TyID and
// can be compared for equality by ID alone.
type Table struct {
	interner *intern.Interner
	byKey    map[string]TyID
	tys      []Ty
}

// NewTable creates an empty type table backed by the given name interner.
func NewTable(interner *intern.Interner) *Table {
	return &Table{interner: interner, byKey: make(map[string]TyID)}
}

func (t *Table) intern(key string, ty Ty) TyID {
	if id, ok := t.byKey[key]; ok {
		return id
	}
	id := TyID(len(t.tys))
	t.tys = append(t.tys, ty)
	t.byKey[key] = id
	return id
}

// Get dereferences a TyID.
func (t *Table) Get(id TyID) Ty { return t.tys[id] }

func (t *Table) name(id intern.ID) string { return t.interner.Lookup(id) }

func namesKey(ids []intern.ID) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}

func tyIDsKey(ids []TyID) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}

// Error returns the single canonical error-recovery type: unification
// with it always succeeds silently, so one ill-typed expression never
// stops the rest of a body from receiving best-effort types.
func (t *Table) Error() TyID { return t.intern("err", Ty{Kind: KindError}) }

// Never is the bottom type (diverging expressions: panic!, loop with no
// break, return).
func (t *Table) Never() TyID { return t.intern("!", Ty{Kind: KindNever}) }

// Scalar returns the interned handle for one primitive scalar kind.
func (t *Table) Scalar(k ScalarKind) TyID {
	return t.intern(fmt.Sprintf("scalar:%d", k), Ty{Kind: KindScalar, Scalar: k})
}

// Str is the unsized string-slice type.
func (t *Table) Str() TyID { return t.intern("str", Ty{Kind: KindStr}) }

// Adt returns the interned handle for a nominal struct/enum/union at
// path with the given generic arguments.
func (t *Table) Adt(path []intern.ID, args []TyID) TyID {
	key := fmt.Sprintf("adt:%s<%s>", namesKey(path), tyIDsKey(args))
	return t.intern(key, Ty{Kind: KindAdt, DefPath: path, Args: args})
}

// Tuple returns the interned handle for a tuple of element types. The
// zero-element tuple is the unit type `()`.
func (t *Table) Tuple(elems []TyID) TyID {
	return t.intern("tuple:"+tyIDsKey(elems), Ty{Kind: KindTuple, Elements: elems})
}

// Unit is the zero-element tuple.
func (t *Table) Unit() TyID { return t.Tuple(nil) }

// Array returns the interned handle for a fixed-length array type.
func (t *Table) Array(elem TyID, length int64) TyID {
	key := fmt.Sprintf("array:%d:%d", elem, length)
	return t.intern(key, Ty{Kind: KindArray, Elem: elem, Len: length})
}

// Slice returns the interned handle for an unsized slice type.
func (t *Table) Slice(elem TyID) TyID {
	return t.intern(fmt.Sprintf("slice:%d", elem), Ty{Kind: KindSlice, Elem: elem})
}

// Ref returns the interned handle for a reference type. Lifetimes are
// erased to nothing; only mutability survives.
func (t *Table) Ref(elem TyID, mut bool) TyID {
	key := fmt.Sprintf("ref:%d:%v", elem, mut)
	return t.intern(key, Ty{Kind: KindRef, Elem: elem, Mut: mut})
}

// RawPtr returns the interned handle for a raw pointer type.
func (t *Table) RawPtr(elem TyID, mut bool) TyID {
	key := fmt.Sprintf("ptr:%d:%v", elem, mut)
	return t.intern(key, Ty{Kind: KindRawPtr, Elem: elem, Mut: mut})
}

// FnDef returns the interned handle for one specific function item's
// type (every function item has its own zero-sized, non-unifiable-with-
// siblings type, coercible to a KindFnPtr of the same signature).
func (t *Table) FnDef(path []intern.ID, params []TyID, ret TyID) TyID {
	key := fmt.Sprintf("fndef:%s(%s)->%d", namesKey(path), tyIDsKey(params), ret)
	return t.intern(key, Ty{Kind: KindFnDef, DefPath: path, Params: params, Ret: ret})
}

// FnPtr returns the interned handle for a bare function-pointer type.
func (t *Table) FnPtr(params []TyID, ret TyID) TyID {
	key := fmt.Sprintf("fnptr:(%s)->%d", tyIDsKey(params), ret)
	return t.intern(key, Ty{Kind: KindFnPtr, Params: params, Ret: ret})
}

// Closure returns the interned handle for one specific closure literal's
// type, identified by its defining path (a synthetic per-closure path,
// analogous to rustc's per-closure anonymous type).
func (t *Table) Closure(path []intern.ID, params []TyID, ret TyID) TyID {
	key := fmt.Sprintf("closure:%s(%s)->%d", namesKey(path), tyIDsKey(params), ret)
	return t.intern(key, Ty{Kind: KindClosure, DefPath: path, Params: params, Ret: ret})
}

// TraitObject returns the interned handle for `dyn Trait + AutoTrait...`.
func (t *Table) TraitObject(trait []intern.ID, args []TyID, autoTraits []intern.ID) TyID {
	key := fmt.Sprintf("dyn:%s<%s>+%s", namesKey(trait), tyIDsKey(args), namesKey(autoTraits))
	return t.intern(key, Ty{Kind: KindTraitObject, DefPath: trait, Args: args, AutoTraits: autoTraits})
}

// Projection returns the interned handle for `<Self as Trait>::Assoc`,
// left unevaluated until the trait solver normalizes it.
func (t *Table) Projection(self TyID, traitPath []intern.ID, assoc intern.ID) TyID {
	key := fmt.Sprintf("proj:%d:%s::%d", self, namesKey(traitPath), assoc)
	return t.intern(key, Ty{Kind: KindProjection, Self: self, TraitPath: traitPath, AssocName: assoc})
}

// Opaque returns the interned handle for `impl Trait` at the function
// identified by path; the hidden type is filled in once the body that
// defines it is inferred.
func (t *Table) Opaque(path []intern.ID, args []TyID) TyID {
	key := fmt.Sprintf("opaque:%s<%s>", namesKey(path), tyIDsKey(args))
	return t.intern(key, Ty{Kind: KindOpaque, DefPath: path, Args: args})
}

// Placeholder returns the interned handle for a rigid generic type
// parameter (e.g. `T` in `fn f<T>(x: T)`), which unification never
// resolves to anything else.
func (t *Table) Placeholder(name intern.ID, idx int) TyID {
	key := fmt.Sprintf("param:%d:%d", name, idx)
	return t.intern(key, Ty{Kind: KindPlaceholder, ParamName: name, ParamIdx: idx})
}

// String renders a Ty for diagnostics. It never participates in
// equality — TyID comparison is the only correct equality check.
func (t *Table) String(id TyID) string {
	ty := t.Get(id)
	switch ty.Kind {
	case KindError:
		return "{error}"
	case KindNever:
		return "!"
	case KindScalar:
		return ty.Scalar.String()
	case KindStr:
		return "str"
	case KindAdt:
		return t.pathArgsString(ty.DefPath, ty.Args)
	case KindTuple:
		if len(ty.Elements) == 0 {
			return "()"
		}
		return "(" + t.joinTys(ty.Elements) + ")"
	case KindArray:
		return fmt.Sprintf("[%s; %d]", t.String(ty.Elem), ty.Len)
	case KindSlice:
		return fmt.Sprintf("[%s]", t.String(ty.Elem))
	case KindRef:
		if ty.Mut {
			return "&mut " + t.String(ty.Elem)
		}
		return "&" + t.String(ty.Elem)
	case KindRawPtr:
		if ty.Mut {
			return "*mut " + t.String(ty.Elem)
		}
		return "*const " + t.String(ty.Elem)
	case KindFnDef, KindFnPtr, KindClosure:
		return fmt.Sprintf("fn(%s) -> %s", t.joinTys(ty.Params), t.String(ty.Ret))
	case KindTraitObject:
		return "dyn " + t.pathArgsString(ty.DefPath, ty.Args)
	case KindProjection:
		return fmt.Sprintf("<%s as %s>::%s", t.String(ty.Self), namesJoin(t.interner, ty.TraitPath), t.name(ty.AssocName))
	case KindOpaque:
		return "impl " + t.pathArgsString(ty.DefPath, ty.Args)
	case KindPlaceholder:
		return t.name(ty.ParamName)
	case KindInferVar:
		return fmt.Sprintf("?%d", ty.VarID)
	default:
		return "?"
	}
}

func (t *Table) pathArgsString(path []intern.ID, args []TyID) string {
	s := namesJoin(t.interner, path)
	if len(args) > 0 {
		s += "<" + t.joinTys(args) + ">"
	}
	return s
}

func (t *Table) joinTys(ids []TyID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = t.String(id)
	}
	return strings.Join(parts, ", ")
}

func namesJoin(in *intern.Interner, ids []intern.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = in.Lookup(id)
	}
	return strings.Join(parts, "::")
}
