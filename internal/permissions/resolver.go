package permissions

import (
	"context"

	"github.com/google/uuid"

	"quorum/api/internal/proposals"
)

// MembershipTier is the subject's relationship to a space.
type MembershipTier string

const (
	TierNone   MembershipTier = "none"
	TierGuest  MembershipTier = "guest"
	TierMember MembershipTier = "member"
	TierAdmin  MembershipTier = "admin"
)

// SpaceRole is the resolved membership of a subject in a space. ID is
// the membership record id and is empty when Tier is TierNone. The
// readonly flag belongs to the space and is populated even for
// anonymous subjects.
type SpaceRole struct {
	ID              string         `json:"id"`
	Tier            MembershipTier `json:"tier"`
	IsReadonlySpace bool           `json:"is_readonly_space"`
}

// SpaceGrant attaches one space-wide operation to an assignee. A grant
// to the space_member system role applies to every full member.
type SpaceGrant struct {
	Assignee  proposals.Assignee
	Operation SpaceOperation
}

// SpaceRoleResolver resolves a subject's membership tier in a space.
type SpaceRoleResolver interface {
	ResolveSpaceRole(ctx context.Context, spaceID, userID string) (SpaceRole, error)
}

// RoleMembershipResolver resolves the role ids held through a space
// membership record.
type RoleMembershipResolver interface {
	ResolveRoleMemberships(ctx context.Context, spaceRoleID string) ([]string, error)
}

// ProposalResolver fetches the full proposal snapshot: authors,
// workflow flags, and every evaluation step with its reviewers,
// approvers, appeal reviewers and grants.
type ProposalResolver interface {
	FetchProposal(ctx context.Context, resourceID string) (*proposals.Proposal, error)
}

// SpaceGrantResolver lists the space-scoped grants of a space.
type SpaceGrantResolver interface {
	ListSpaceGrants(ctx context.Context, spaceID string) ([]SpaceGrant, error)
}

// Resolvers bundles the collaborator interfaces the engines use to
// resolve whatever the caller did not pre-fetch.
type Resolvers struct {
	SpaceRoles      SpaceRoleResolver
	RoleMemberships RoleMembershipResolver
	Proposals       ProposalResolver
	SpaceGrants     SpaceGrantResolver
}

// ComputeRequest is the input contract of both permission engines. The
// pre-fetched fields are pure optimizations: results are identical
// whether or not they are supplied, and any omitted one is resolved
// through the Resolvers.
//
// RoleMemberships uses nil to mean "not supplied"; a non-nil empty
// slice means the subject is known to hold no roles.
type ComputeRequest struct {
	ResourceID   string
	UserID       string
	EvaluationID string

	Proposal        *proposals.Proposal
	SpaceRole       *SpaceRole
	RoleMemberships []string
	SpaceFlags      *SpaceOperationFlags
}

// normalizeUserID applies the input sanitization rule: a syntactically
// invalid subject id is treated as anonymous, never as an error.
func normalizeUserID(raw string) string {
	if raw == "" {
		return ""
	}
	if err := uuid.Validate(raw); err != nil {
		return ""
	}
	return raw
}

// subjectContext is the resolved view of a subject against one
// proposal, shared by the matching helpers.
type subjectContext struct {
	userID   string
	tier     MembershipTier
	roles    map[string]bool
	isAuthor bool
}

func (s subjectContext) isMember() bool {
	return s.tier != TierNone
}

func newSubjectContext(userID string, tier MembershipTier, roleIDs []string, isAuthor bool) subjectContext {
	roles := make(map[string]bool, len(roleIDs))
	for _, id := range roleIDs {
		roles[id] = true
	}
	return subjectContext{userID: userID, tier: tier, roles: roles, isAuthor: isAuthor}
}

// matchAssignee resolves reviewer, approver and appeal-reviewer specs
// against the subject. Symbolic roles that only make sense inside grant
// lists (public, current_reviewer, all_reviewers) never match here.
func matchAssignee(a proposals.Assignee, s subjectContext) bool {
	switch a.Kind {
	case proposals.AssigneeUser:
		return s.userID != "" && a.UserID == s.userID
	case proposals.AssigneeRole:
		return s.roles[a.RoleID]
	case proposals.AssigneeSystemRole:
		switch a.SystemRole {
		case proposals.SystemRoleSpaceMember:
			return s.isMember()
		case proposals.SystemRoleAuthor:
			return s.isAuthor
		default:
			return false
		}
	default:
		return false
	}
}

func matchAnyAssignee(specs []proposals.Assignee, s subjectContext) bool {
	for _, a := range specs {
		if matchAssignee(a, s) {
			return true
		}
	}
	return false
}
