package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quorum/api/internal/proposals"
)

func TestSpaceEngine(t *testing.T) {
	f := newFakeResolvers()
	f.addMember(uidAdmin, TierAdmin)
	f.addMember(uidMember, TierMember, roleGrants)
	f.addMember(uidReviewer, TierMember)
	f.roles[uidOutsider] = SpaceRole{ID: "sr-guest", Tier: TierGuest}
	f.grants[spaceID] = []SpaceGrant{
		{Assignee: proposals.SystemRoleAssignee(proposals.SystemRoleSpaceMember), Operation: SpaceOpCreatePage},
		{Assignee: proposals.RoleAssignee(roleGrants), Operation: SpaceOpDeleteAnyProposal},
		{Assignee: proposals.UserAssignee(uidReviewer), Operation: SpaceOpReviewProposals},
	}
	eng := NewSpaceEngine(f, f, f)

	tests := []struct {
		name   string
		userID string
		want   SpaceOperationFlags
	}{
		{"anonymous", "", SpaceOperationFlags{}},
		{"malformed id", "not-a-uuid", SpaceOperationFlags{}},
		{"guest", uidOutsider, SpaceOperationFlags{}},
		{"admin", uidAdmin, fullSpaceFlags()},
		{"member with role grant", uidMember, SpaceOperationFlags{CreatePage: true, DeleteAnyProposal: true}},
		{"member with user grant", uidReviewer, SpaceOperationFlags{CreatePage: true, ReviewProposals: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, err := eng.Compute(context.Background(), spaceID, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, flags)
		})
	}
}

func TestSpaceEngineGrantsAreAdditive(t *testing.T) {
	f := newFakeResolvers()
	f.addMember(uidMember, TierMember, roleGrants)
	// A role-restricted grant never narrows a space-wide one; the
	// result is the plain union.
	f.grants[spaceID] = []SpaceGrant{
		{Assignee: proposals.SystemRoleAssignee(proposals.SystemRoleSpaceMember), Operation: SpaceOpCreateProposals},
		{Assignee: proposals.RoleAssignee("role-other"), Operation: SpaceOpCreateProposals},
		{Assignee: proposals.RoleAssignee(roleGrants), Operation: SpaceOpCreateBounty},
	}
	eng := NewSpaceEngine(f, f, f)

	flags, err := eng.Compute(context.Background(), spaceID, uidMember)
	require.NoError(t, err)
	assert.Equal(t, SpaceOperationFlags{CreateProposals: true, CreateBounty: true}, flags)
}
