package permissions

import (
	"context"
	"fmt"
)

// SpaceEngine rolls space-scoped grants up into space-level operation
// flags. Grants are purely additive: the result is the union of every
// grant whose assignee resolves against the subject.
type SpaceEngine struct {
	spaceRoles      SpaceRoleResolver
	roleMemberships RoleMembershipResolver
	spaceGrants     SpaceGrantResolver
}

func NewSpaceEngine(spaceRoles SpaceRoleResolver, roleMemberships RoleMembershipResolver, spaceGrants SpaceGrantResolver) *SpaceEngine {
	return &SpaceEngine{
		spaceRoles:      spaceRoles,
		roleMemberships: roleMemberships,
		spaceGrants:     spaceGrants,
	}
}

// Compute resolves the subject's membership and role set, then defers
// to ComputeWith.
func (e *SpaceEngine) Compute(ctx context.Context, spaceID, userID string) (SpaceOperationFlags, error) {
	userID = normalizeUserID(userID)
	if userID == "" {
		return SpaceOperationFlags{}, nil
	}
	role, err := e.spaceRoles.ResolveSpaceRole(ctx, spaceID, userID)
	if err != nil {
		return SpaceOperationFlags{}, fmt.Errorf("resolve space role: %w", err)
	}
	var heldRoles []string
	if role.Tier == TierMember {
		heldRoles, err = e.roleMemberships.ResolveRoleMemberships(ctx, role.ID)
		if err != nil {
			return SpaceOperationFlags{}, fmt.Errorf("resolve role memberships: %w", err)
		}
	}
	return e.ComputeWith(ctx, spaceID, userID, role, heldRoles)
}

// ComputeWith computes space flags from an already-resolved membership
// snapshot. The batch computers use it to share one snapshot across
// many proposals.
func (e *SpaceEngine) ComputeWith(ctx context.Context, spaceID, userID string, role SpaceRole, heldRoles []string) (SpaceOperationFlags, error) {
	switch role.Tier {
	case TierNone, TierGuest:
		return SpaceOperationFlags{}, nil
	case TierAdmin:
		return fullSpaceFlags(), nil
	}

	grants, err := e.spaceGrants.ListSpaceGrants(ctx, spaceID)
	if err != nil {
		return SpaceOperationFlags{}, fmt.Errorf("list space grants: %w", err)
	}

	subject := newSubjectContext(userID, role.Tier, heldRoles, false)
	var flags SpaceOperationFlags
	for _, g := range grants {
		if matchAssignee(g.Assignee, subject) {
			flags.set(g.Operation, true)
		}
	}
	return flags, nil
}
