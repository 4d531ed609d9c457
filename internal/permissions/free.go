package permissions

import (
	"context"
	"log/slog"

	"quorum/api/internal/proposals"
)

// FreeEngine evaluates proposal permissions for free-tier spaces. The
// contract and step-selection rule match Engine, but the policy is the
// coarser implicit one: published proposals are visible to everyone,
// reviewers on the current step evaluate and complete directly, there
// is no approver split, no appeal handling, no space-level delete
// rollup and no reward freeze. Free spaces carry no custom roles, so
// role assignees never match.
type FreeEngine struct {
	spaceRoles SpaceRoleResolver
	proposals  ProposalResolver
	log        *slog.Logger
}

func NewFreeEngine(res Resolvers, logger *slog.Logger) *FreeEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &FreeEngine{spaceRoles: res.SpaceRoles, proposals: res.Proposals, log: logger}
}

func (e *FreeEngine) Compute(ctx context.Context, req ComputeRequest) (OperationFlags, error) {
	p := req.Proposal
	if p == nil {
		var err error
		p, err = e.proposals.FetchProposal(ctx, req.ResourceID)
		if err != nil {
			return OperationFlags{}, err
		}
	}

	userID := normalizeUserID(req.UserID)
	role := SpaceRole{}
	if req.SpaceRole != nil {
		role = *req.SpaceRole
	} else {
		var err error
		role, err = e.spaceRoles.ResolveSpaceRole(ctx, p.SpaceID, userID)
		if err != nil {
			return OperationFlags{}, err
		}
	}

	b := NewBuilder(role.IsReadonlySpace)
	if role.Tier == TierAdmin {
		return b.Full(), nil
	}

	published := p.Status != proposals.StatusDraft

	if userID == "" || role.Tier == TierNone {
		if published {
			return b.AddPermissions(proposals.OpView).OperationFlags(), nil
		}
		return b.Empty(), nil
	}

	if published {
		b.AddPermissions(proposals.OpView)
	}

	isAuthor := p.IsAuthor(userID)
	if isAuthor {
		b.AddPermissions(baseAuthorPermissions...)
		b.AddPermissions(proposals.OpMakePublic)
		if p.Status == proposals.StatusDraft && req.EvaluationID == "" {
			b.AddPermissions(proposals.OpEdit, proposals.OpComment, proposals.OpMove)
			addArchivePermissions(b, p)
		}
	}

	current := selectEvaluation(p, req.EvaluationID)
	if current == nil {
		e.log.Warn("proposal has no current evaluation",
			"proposal", p.ID, "evaluation_id", req.EvaluationID)
		return b.OperationFlags(), nil
	}

	subject := newSubjectContext(userID, role.Tier, nil, isAuthor)

	var st reviewerStatus
	st.currentReviewer = matchAnyAssignee(current.Reviewers, subject)
	st.anyReviewer = st.currentReviewer
	for i := range p.Evaluations {
		if st.anyReviewer {
			break
		}
		if matchAnyAssignee(p.Evaluations[i].Reviewers, subject) {
			st.anyReviewer = true
		}
	}

	if st.currentReviewer {
		b.AddPermissions(proposals.OpEvaluate, proposals.OpCompleteEvaluation)
		if published {
			b.AddPermissions(proposals.OpViewPrivateFields)
		}
	}

	for _, g := range current.Permissions {
		if !grantApplies(g.Assignee, subject, p, st) {
			continue
		}
		switch g.Operation {
		case proposals.OpEdit:
			b.AddPermissions(proposals.OpEdit, proposals.OpEditRewards)
		case proposals.OpMove:
			b.AddPermissions(proposals.OpMove)
			addArchivePermissions(b, p)
		default:
			b.AddPermissions(g.Operation)
		}
	}

	return b.OperationFlags(), nil
}
