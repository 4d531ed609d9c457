package permissions

import "quorum/api/internal/proposals"

// mutatingOperations are masked off in a readonly space. The mask is a
// final filtering pass over the materialized flags: it can only turn
// bits off, regardless of which rule produced them.
var mutatingOperations = []proposals.Operation{
	proposals.OpEdit,
	proposals.OpEditRewards,
	proposals.OpMove,
	proposals.OpArchive,
	proposals.OpUnarchive,
	proposals.OpDelete,
	proposals.OpComment,
	proposals.OpMakePublic,
	proposals.OpCreateVote,
	proposals.OpCompleteEvaluation,
	proposals.OpEvaluate,
	proposals.OpEvaluateAppeal,
}

// Builder accumulates proposal operations monotonically. Adding an
// operation twice has no additional effect, and nothing ever removes an
// operation short of the readonly mask applied on materialization.
// Each computation constructs its own Builder; instances are never
// shared across call sites.
type Builder struct {
	readonly bool
	ops      map[proposals.Operation]struct{}
}

func NewBuilder(isReadonlySpace bool) *Builder {
	return &Builder{
		readonly: isReadonlySpace,
		ops:      make(map[proposals.Operation]struct{}),
	}
}

// AddPermissions OR-merges the given operations into the accumulator
// and returns the builder for chaining.
func (b *Builder) AddPermissions(ops ...proposals.Operation) *Builder {
	for _, op := range ops {
		b.ops[op] = struct{}{}
	}
	return b
}

// OperationFlags materializes the accumulated set as a total flag map,
// applying the readonly mask last.
func (b *Builder) OperationFlags() OperationFlags {
	var f OperationFlags
	for op := range b.ops {
		f.set(op, true)
	}
	return b.mask(f)
}

// Full returns every operation enabled, subject to the readonly mask.
func (b *Builder) Full() OperationFlags {
	var f OperationFlags
	for _, op := range proposals.AllOperations {
		f.set(op, true)
	}
	return b.mask(f)
}

// Empty returns every operation disabled.
func (b *Builder) Empty() OperationFlags {
	return OperationFlags{}
}

func (b *Builder) mask(f OperationFlags) OperationFlags {
	if !b.readonly {
		return f
	}
	for _, op := range mutatingOperations {
		f.set(op, false)
	}
	return f
}
