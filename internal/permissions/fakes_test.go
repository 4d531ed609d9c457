package permissions

import (
	"context"

	"quorum/api/internal/proposals"
)

// Stable subject ids used across the suite. User ids must be well
// formed or the engines treat them as anonymous.
const (
	uidAdmin    = "0f6a4d17-1d2c-4b6e-9b25-6c1a5b8e1f10"
	uidAuthor   = "3f2504e0-4f89-41d3-9a0c-0305e82c3301"
	uidReviewer = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	uidApprover = "9b2c28a1-05c2-4a8e-8f6b-2f7b5a3d9c44"
	uidMember   = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	uidOutsider = "c56a4180-65aa-42ec-a945-5fd21dec0538"

	spaceID    = "space-1"
	roleGrants = "role-grants"
)

// fakeResolvers backs all four collaborator interfaces with maps and
// counts lookups so tests can assert how often the batch components hit
// each resolver.
type fakeResolvers struct {
	roles       map[string]SpaceRole // keyed by user id
	memberships map[string][]string  // keyed by space-role id
	store       map[string]*proposals.Proposal
	grants      map[string][]SpaceGrant // keyed by space id
	readonly    bool

	spaceRoleCalls  int
	membershipCalls int
	proposalCalls   int
	grantCalls      int
}

func newFakeResolvers() *fakeResolvers {
	return &fakeResolvers{
		roles:       map[string]SpaceRole{},
		memberships: map[string][]string{},
		store:       map[string]*proposals.Proposal{},
		grants:      map[string][]SpaceGrant{},
	}
}

func (f *fakeResolvers) ResolveSpaceRole(_ context.Context, _, userID string) (SpaceRole, error) {
	f.spaceRoleCalls++
	if role, ok := f.roles[userID]; ok {
		return role, nil
	}
	return SpaceRole{Tier: TierNone, IsReadonlySpace: f.readonly}, nil
}

func (f *fakeResolvers) ResolveRoleMemberships(_ context.Context, spaceRoleID string) ([]string, error) {
	f.membershipCalls++
	return f.memberships[spaceRoleID], nil
}

func (f *fakeResolvers) FetchProposal(_ context.Context, resourceID string) (*proposals.Proposal, error) {
	f.proposalCalls++
	p, ok := f.store[resourceID]
	if !ok {
		return nil, &NotFoundError{ResourceID: resourceID}
	}
	return p, nil
}

func (f *fakeResolvers) ListSpaceGrants(_ context.Context, sID string) ([]SpaceGrant, error) {
	f.grantCalls++
	return f.grants[sID], nil
}

func (f *fakeResolvers) bundle() Resolvers {
	return Resolvers{SpaceRoles: f, RoleMemberships: f, Proposals: f, SpaceGrants: f}
}

// addMember registers a user with the given tier and returns the
// membership record id used for role resolution.
func (f *fakeResolvers) addMember(userID string, tier MembershipTier, heldRoles ...string) string {
	roleID := "sr-" + userID[:8]
	f.roles[userID] = SpaceRole{ID: roleID, Tier: tier, IsReadonlySpace: f.readonly}
	if len(heldRoles) > 0 {
		f.memberships[roleID] = heldRoles
	}
	return roleID
}

func (f *fakeResolvers) addProposal(p *proposals.Proposal) {
	f.store[p.ID] = p
}

// singleStepProposal builds a published one-step proposal with the
// given reviewers; tests mutate the result for their scenario.
func singleStepProposal(id string, reviewers ...proposals.Assignee) *proposals.Proposal {
	return &proposals.Proposal{
		ID:        id,
		SpaceID:   spaceID,
		Status:    proposals.StatusPublished,
		AuthorIDs: []string{uidAuthor},
		Workflow:  proposals.Workflow{ID: "wf-1"},
		Evaluations: []proposals.Evaluation{
			{
				ID:        "eval-1",
				Type:      proposals.EvaluationFeedback,
				Index:     0,
				Reviewers: reviewers,
			},
		},
	}
}
