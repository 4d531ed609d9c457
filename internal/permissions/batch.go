package permissions

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"quorum/api/internal/proposals"
)

// bulkConcurrency caps the number of in-flight per-proposal
// computations in a bulk call.
const bulkConcurrency = 8

// snapshot holds the subject inputs shared across every resource in a
// batch. The batch trusts the snapshot for its whole lifetime and does
// not re-validate freshness.
type snapshot struct {
	role        SpaceRole
	memberships []string
	spaceFlags  SpaceOperationFlags
}

func (s *snapshot) apply(req *ComputeRequest) {
	req.SpaceRole = &s.role
	req.RoleMemberships = s.memberships
	req.SpaceFlags = &s.spaceFlags
}

// BulkComputer evaluates many proposals for one subject, resolving the
// shared space-role, role-membership and space-flag inputs once instead
// of once per proposal. Per-proposal calls run concurrently; each one
// builds its own accumulator.
type BulkComputer struct {
	engine Computer
	res    Resolvers
	space  *SpaceEngine
}

func NewBulkComputer(engine Computer, res Resolvers) *BulkComputer {
	return &BulkComputer{
		engine: engine,
		res:    res,
		space:  NewSpaceEngine(res.SpaceRoles, res.RoleMemberships, res.SpaceGrants),
	}
}

// Compute returns the narrowed bulk projection keyed by proposal id.
func (c *BulkComputer) Compute(ctx context.Context, spaceID, userID string, resourceIDs []string) (map[string]BulkFlags, error) {
	snap, err := c.resolveSnapshot(ctx, spaceID, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]BulkFlags, len(resourceIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for _, id := range resourceIDs {
		id := id
		g.Go(func() error {
			req := ComputeRequest{ResourceID: id, UserID: userID}
			snap.apply(&req)
			flags, err := c.engine.Compute(gctx, req)
			if err != nil {
				return fmt.Errorf("proposal %s: %w", id, err)
			}
			mu.Lock()
			out[id] = flags.Bulk()
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BulkComputer) resolveSnapshot(ctx context.Context, spaceID, userID string) (*snapshot, error) {
	normalized := normalizeUserID(userID)
	role, err := c.res.SpaceRoles.ResolveSpaceRole(ctx, spaceID, normalized)
	if err != nil {
		return nil, fmt.Errorf("resolve space role: %w", err)
	}
	snap := &snapshot{role: role, memberships: []string{}}
	if role.Tier == TierMember {
		held, err := c.res.RoleMemberships.ResolveRoleMemberships(ctx, role.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve role memberships: %w", err)
		}
		if held != nil {
			snap.memberships = held
		}
	}
	snap.spaceFlags, err = c.space.ComputeWith(ctx, spaceID, normalized, role, snap.memberships)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// DraftStepKey is the synthetic step id the all-steps computer uses for
// the pre-workflow draft state.
const DraftStepKey = "draft"

// AllStepsComputer evaluates the engine once per workflow step of a
// single proposal, plus the synthetic draft state, for step-preview
// UIs.
type AllStepsComputer struct {
	engine Computer
	res    Resolvers
	space  *SpaceEngine
}

func NewAllStepsComputer(engine Computer, res Resolvers) *AllStepsComputer {
	return &AllStepsComputer{
		engine: engine,
		res:    res,
		space:  NewSpaceEngine(res.SpaceRoles, res.RoleMemberships, res.SpaceGrants),
	}
}

// Compute returns operation flags keyed by evaluation id, with the
// DraftStepKey entry computed as if the proposal were still a draft.
func (c *AllStepsComputer) Compute(ctx context.Context, resourceID, userID string) (map[string]OperationFlags, error) {
	p, err := c.res.Proposals.FetchProposal(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	bulk := BulkComputer{engine: c.engine, res: c.res, space: c.space}
	snap, err := bulk.resolveSnapshot(ctx, p.SpaceID, userID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]OperationFlags, len(p.Evaluations)+1)

	draft := *p
	draft.Status = proposals.StatusDraft
	req := ComputeRequest{ResourceID: resourceID, UserID: userID, Proposal: &draft}
	snap.apply(&req)
	flags, err := c.engine.Compute(ctx, req)
	if err != nil {
		return nil, err
	}
	out[DraftStepKey] = flags

	for i := range p.Evaluations {
		ev := &p.Evaluations[i]
		req := ComputeRequest{
			ResourceID:   resourceID,
			UserID:       userID,
			EvaluationID: ev.ID,
			Proposal:     p,
		}
		snap.apply(&req)
		flags, err := c.engine.Compute(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("evaluation %s: %w", ev.ID, err)
		}
		out[ev.ID] = flags
	}
	return out, nil
}
