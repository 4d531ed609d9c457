package permissions

import "quorum/api/internal/proposals"

// ListSubject is the caller-supplied identity for list filtering.
// HeldRoles follows the same convention as ComputeRequest: nil means
// not resolved, an empty slice means resolved to no roles.
type ListSubject struct {
	UserID    string
	Tier      MembershipTier
	HeldRoles []string
}

// AccessibleProposals filters a proposal collection down to the ones
// the subject may list. It expresses the engine's visibility rules as
// a predicate: admins see everything, members see their own proposals
// plus every non-draft one, anonymous and non-member subjects see only
// non-draft proposals. With onlyAssigned set, admin and member results
// narrow to proposals where the subject is an author or a reviewer of
// the current step.
func AccessibleProposals(subject ListSubject, items []*proposals.Proposal, onlyAssigned bool) []*proposals.Proposal {
	userID := normalizeUserID(subject.UserID)
	tier := subject.Tier
	if userID == "" {
		tier = TierNone
	}
	sc := newSubjectContext(userID, tier, subject.HeldRoles, false)

	out := make([]*proposals.Proposal, 0, len(items))
	for _, p := range items {
		if p == nil {
			continue
		}
		sc.isAuthor = p.IsAuthor(userID)
		if !visibleTo(p, sc) {
			continue
		}
		if onlyAssigned && !assignedTo(p, sc) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func visibleTo(p *proposals.Proposal, sc subjectContext) bool {
	switch sc.tier {
	case TierAdmin:
		return true
	case TierMember, TierGuest:
		return sc.isAuthor || p.Status != proposals.StatusDraft
	default:
		return p.Status != proposals.StatusDraft
	}
}

func assignedTo(p *proposals.Proposal, sc subjectContext) bool {
	if sc.isAuthor {
		return true
	}
	current := p.CurrentEvaluation()
	return current != nil && matchAnyAssignee(current.Reviewers, sc)
}
