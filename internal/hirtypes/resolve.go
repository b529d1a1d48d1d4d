package hirtypes

import (
	"errors"
	"fmt"

	"github.com/sunholo/semcore/internal/intern"
)

// MethodCandidate is one inherent or trait method found during
// resolution, enough for call-site inference to check argument
// count/types and read off the return type without needing the full
// item tree.
type MethodCandidate struct {
	Path      []intern.ID
	Params    []TyID // excluding the receiver
	Ret       TyID
	SelfByRef bool
	SelfMut   bool
}

// Methods is the narrow interface method-call resolution consults,
// supplied by whatever owns the item tree and impl index (internal/db)
// — this package only walks the autoderef chain and picks a candidate,
// mirroring rustc's method-lookup probe.
type Methods interface {
	// Lookup returns every inherent or trait method named name directly
	// available on the nominal type at selfPath (no autoderef — the
	// caller walks that).
	Lookup(selfPath []intern.ID, name intern.ID) []MethodCandidate
}

// NoopMethods reports no candidates for any receiver, the default when
// no impl index has been wired in.
type NoopMethods struct{}

func (NoopMethods) Lookup([]intern.ID, intern.ID) []MethodCandidate { return nil }

const maxAutoderefSteps = 16

// ResolveMethod walks recvTy's autoderef chain (the type itself, then
// repeatedly dereferencing through KindRef/KindRawPtr) looking for a
// method named name, per rustc's method probe: the first deref depth
// with any candidate wins, and more than one candidate at that depth is
// ambiguous rather than falling through to a deeper depth.
func (c *Ctx) ResolveMethod(recvTy TyID, name intern.ID) (*MethodCandidate, error) {
	cur := recvTy
	for step := 0; step < maxAutoderefSteps; step++ {
		resolved := c.Infer.Resolve(cur)
		ty := c.Types.Get(resolved)

		if ty.Kind == KindAdt || ty.Kind == KindTraitObject {
			candidates := c.Methods.Lookup(ty.DefPath, name)
			switch len(candidates) {
			case 0:
				// fall through to the next deref depth
			case 1:
				return &candidates[0], nil
			default:
				return nil, fmt.Errorf("%w: multiple candidates for `%s`", errAmbiguousMethod, c.Interner.Lookup(name))
			}
		}

		if ty.Kind != KindRef && ty.Kind != KindRawPtr {
			break
		}
		cur = ty.Elem
	}
	return nil, fmt.Errorf("%w: no method named `%s`", errUnresolvedMethod, c.Interner.Lookup(name))
}

var (
	errUnresolvedMethod = errors.New("unresolved method")
	errAmbiguousMethod  = errors.New("ambiguous method")
)
