package macroexpand

import (
	"github.com/sunholo/semcore/internal/input"
	"github.com/sunholo/semcore/internal/synsrc"
)

// ExpansionStep records one hop of a macro-expansion trace: the
// virtual file a hop landed on, and the real-source (or further
// virtual) call site it expanded from.
type ExpansionStep struct {
	File     input.FileID
	CallSite input.FileID
	Node     synsrc.NodePtr
}

// ExpansionOfFunc looks up the single-hop expansion edge for a file —
// satisfied by db.Database.ExpansionOf, kept as an interface here so
// this package never imports db.
type ExpansionOfFunc func(file input.FileID) (input.FileID, synsrc.NodePtr, bool)

// Trace walks every hop from a macro-expansion output file back to
// real source, recording each step instead of only the final
// destination. This generalizes a surface-to-core provenance mapping
// (a flat list of transform steps between a surface node and the
// nodes it elaborated into) from content-hash identity to the
// expansion-edge identity this package already tracks per virtual
// file.
//
// The returned slice is empty if file has no recorded expansion edge
// (it is already real source).
func Trace(expansionOf ExpansionOfFunc, file input.FileID) []ExpansionStep {
	const maxHops = 64
	var steps []ExpansionStep
	cur := file
	for i := 0; i < maxHops; i++ {
		callSite, node, ok := expansionOf(cur)
		if !ok {
			break
		}
		steps = append(steps, ExpansionStep{File: cur, CallSite: callSite, Node: node})
		cur = callSite
	}
	return steps
}
