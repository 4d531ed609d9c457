// Package permissions implements the proposal permission computation
// engine: a pure decision layer that combines role hierarchy, per-step
// reviewer assignment, explicit grants and a handful of absolute
// overrides into a total operation-flag map.
package permissions

import (
	"context"
	"fmt"
	"log/slog"

	"quorum/api/internal/proposals"
)

// Computer is the shared contract of the full and free-tier engines.
type Computer interface {
	Compute(ctx context.Context, req ComputeRequest) (OperationFlags, error)
}

// baseAuthorPermissions never depend on workflow state: an author keeps
// them in every status and at every evaluation step.
var baseAuthorPermissions = []proposals.Operation{
	proposals.OpView,
	proposals.OpViewPrivateFields,
	proposals.OpDelete,
	proposals.OpCreateVote,
}

// Engine evaluates proposal permissions for paid spaces: explicit ACL
// grants, approver sets, appeals and the reward-freeze rule. The
// computation is a monotonic accumulation with exactly two terminal
// short-circuits (admin full, anonymous public-view); every other rule
// only turns bits on.
type Engine struct {
	res   Resolvers
	space *SpaceEngine
	log   *slog.Logger
}

func NewEngine(res Resolvers, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		res:   res,
		space: NewSpaceEngine(res.SpaceRoles, res.RoleMemberships, res.SpaceGrants),
		log:   logger,
	}
}

// reviewerStatus collects the subject's standing toward the current
// evaluation and the proposal as a whole.
type reviewerStatus struct {
	currentReviewer       bool
	currentApprover       bool
	currentAppealReviewer bool
	appealActive          bool
	anyReviewer           bool
	anyAppealReviewer     bool
}

func (e *Engine) Compute(ctx context.Context, req ComputeRequest) (OperationFlags, error) {
	p, err := e.fetchProposal(ctx, req)
	if err != nil {
		return OperationFlags{}, err
	}

	userID := normalizeUserID(req.UserID)
	role, err := e.resolveSpaceRole(ctx, req, p.SpaceID, userID)
	if err != nil {
		return OperationFlags{}, err
	}

	b := NewBuilder(role.IsReadonlySpace)
	if role.Tier == TierAdmin {
		return b.Full(), nil
	}

	current := selectEvaluation(p, req.EvaluationID)

	// Anonymous and non-member subjects only ever see published
	// proposals whose current step carries a public grant.
	if userID == "" || role.Tier == TierNone {
		if p.Status != proposals.StatusDraft && hasPublicAssignee(current) {
			return b.AddPermissions(proposals.OpView).OperationFlags(), nil
		}
		return b.Empty(), nil
	}

	isAuthor := p.IsAuthor(userID)
	if isAuthor {
		b.AddPermissions(baseAuthorPermissions...)
		if p.Status == proposals.StatusDraft && req.EvaluationID == "" {
			b.AddPermissions(
				proposals.OpEdit,
				proposals.OpEditRewards,
				proposals.OpComment,
				proposals.OpMove,
			)
			addArchivePermissions(b, p)
		}
	}

	heldRoles, err := e.resolveRoleMemberships(ctx, req, role)
	if err != nil {
		return OperationFlags{}, err
	}
	spaceFlags, err := e.resolveSpaceFlags(ctx, req, p.SpaceID, userID, role, heldRoles)
	if err != nil {
		return OperationFlags{}, err
	}
	if spaceFlags.DeleteAnyProposal {
		b.AddPermissions(proposals.OpDelete, proposals.OpView, proposals.OpViewPrivateFields)
		addArchivePermissions(b, p)
	}

	if current == nil {
		// Defined degraded output: an unmatched evaluation id or a
		// proposal without steps yields whatever accumulated so far.
		e.log.Warn("proposal has no current evaluation",
			"proposal", p.ID, "evaluation_id", req.EvaluationID)
		return b.OperationFlags(), nil
	}

	subject := newSubjectContext(userID, role.Tier, heldRoles, isAuthor)
	status := resolveReviewerStatus(p, current, subject)
	passed := proposalPassed(p, current)

	if status.currentReviewer {
		b.AddPermissions(proposals.OpEvaluate)
	}
	if status.currentApprover {
		b.AddPermissions(proposals.OpCompleteEvaluation)
	}
	if status.currentAppealReviewer && status.appealActive {
		b.AddPermissions(proposals.OpEvaluateAppeal)
	}

	canReadNotes := noteReadAccess(p, subject)
	if (canReadNotes || status.anyReviewer || status.anyAppealReviewer || status.currentApprover) &&
		p.Status != proposals.StatusDraft {
		b.AddPermissions(proposals.OpViewNotes, proposals.OpView, proposals.OpViewPrivateFields)
	}

	for _, g := range current.Permissions {
		if !grantApplies(g.Assignee, subject, p, status) {
			continue
		}
		switch {
		case g.Operation == proposals.OpEdit && isAuthor:
			if passed {
				// Content is frozen after a pass; reward terms stay editable.
				b.AddPermissions(proposals.OpEditRewards)
			} else {
				b.AddPermissions(proposals.OpEdit, proposals.OpEditRewards)
			}
		case g.Operation == proposals.OpMove:
			if !p.Workflow.PrivateEvaluations || !current.Type.Concealable() || status.currentReviewer {
				b.AddPermissions(proposals.OpMove)
				addArchivePermissions(b, p)
			}
		default:
			b.AddPermissions(g.Operation)
		}
	}

	return b.OperationFlags(), nil
}

func (e *Engine) fetchProposal(ctx context.Context, req ComputeRequest) (*proposals.Proposal, error) {
	if req.Proposal != nil {
		return req.Proposal, nil
	}
	return e.res.Proposals.FetchProposal(ctx, req.ResourceID)
}

func (e *Engine) resolveSpaceRole(ctx context.Context, req ComputeRequest, spaceID, userID string) (SpaceRole, error) {
	if req.SpaceRole != nil {
		return *req.SpaceRole, nil
	}
	role, err := e.res.SpaceRoles.ResolveSpaceRole(ctx, spaceID, userID)
	if err != nil {
		return SpaceRole{}, fmt.Errorf("resolve space role: %w", err)
	}
	return role, nil
}

func (e *Engine) resolveRoleMemberships(ctx context.Context, req ComputeRequest, role SpaceRole) ([]string, error) {
	if req.RoleMemberships != nil {
		return req.RoleMemberships, nil
	}
	if role.Tier != TierMember {
		return nil, nil
	}
	held, err := e.res.RoleMemberships.ResolveRoleMemberships(ctx, role.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve role memberships: %w", err)
	}
	return held, nil
}

func (e *Engine) resolveSpaceFlags(ctx context.Context, req ComputeRequest, spaceID, userID string, role SpaceRole, heldRoles []string) (SpaceOperationFlags, error) {
	if req.SpaceFlags != nil {
		return *req.SpaceFlags, nil
	}
	return e.space.ComputeWith(ctx, spaceID, userID, role, heldRoles)
}

// selectEvaluation picks the step a computation is scoped to. An
// explicit evaluation id wins, even when it is not the workflow's
// current step; an unmatched id selects nothing.
func selectEvaluation(p *proposals.Proposal, evaluationID string) *proposals.Evaluation {
	if evaluationID != "" {
		return p.EvaluationByID(evaluationID)
	}
	return p.CurrentEvaluation()
}

func resolveReviewerStatus(p *proposals.Proposal, current *proposals.Evaluation, subject subjectContext) reviewerStatus {
	var st reviewerStatus
	st.currentReviewer = matchAnyAssignee(current.Reviewers, subject)
	// Back-compatibility rule: a step without approvers falls back to
	// its reviewers for completion.
	if len(current.Approvers) == 0 {
		st.currentApprover = st.currentReviewer
	} else {
		st.currentApprover = matchAnyAssignee(current.Approvers, subject)
	}
	st.currentAppealReviewer = matchAnyAssignee(current.AppealReviewers, subject)
	st.appealActive = current.Appealed() && current.Result == proposals.ResultNone

	st.anyReviewer = st.currentReviewer
	st.anyAppealReviewer = st.currentAppealReviewer
	for i := range p.Evaluations {
		ev := &p.Evaluations[i]
		if !st.anyReviewer && matchAnyAssignee(ev.Reviewers, subject) {
			st.anyReviewer = true
		}
		if !st.anyAppealReviewer && matchAnyAssignee(ev.AppealReviewers, subject) {
			st.anyAppealReviewer = true
		}
	}
	return st
}

// proposalPassed reports whether the proposal as a whole has passed:
// every step carries a pass result, or the current step was appealed
// and its own result is a pass.
func proposalPassed(p *proposals.Proposal, current *proposals.Evaluation) bool {
	if current != nil && current.Appealed() && current.Result == proposals.ResultPass {
		return true
	}
	if len(p.Evaluations) == 0 {
		return false
	}
	for i := range p.Evaluations {
		if p.Evaluations[i].Result != proposals.ResultPass {
			return false
		}
	}
	return true
}

// grantApplies tests one explicit grant's assignee against the subject.
func grantApplies(a proposals.Assignee, s subjectContext, p *proposals.Proposal, st reviewerStatus) bool {
	switch a.Kind {
	case proposals.AssigneeUser:
		return s.userID != "" && a.UserID == s.userID
	case proposals.AssigneeRole:
		return s.roles[a.RoleID]
	case proposals.AssigneeSystemRole:
		switch a.SystemRole {
		case proposals.SystemRoleAuthor:
			return s.isAuthor
		case proposals.SystemRoleCurrentReviewer:
			return st.currentReviewer || st.currentAppealReviewer
		case proposals.SystemRoleAllReviewers:
			return st.anyReviewer || st.anyAppealReviewer
		case proposals.SystemRoleSpaceMember:
			return s.isMember()
		case proposals.SystemRolePublic:
			return p.Status != proposals.StatusDraft
		}
	}
	return false
}

// addArchivePermissions grants archive/unarchive unless an admin
// archived the proposal; admin-archived proposals can only be
// un-archived by another admin, who never reaches this path.
func addArchivePermissions(b *Builder, p *proposals.Proposal) {
	if p.ArchivedByAdmin {
		return
	}
	b.AddPermissions(proposals.OpArchive, proposals.OpUnarchive)
}

// hasPublicAssignee reports whether any grant on the step targets the
// public system role.
func hasPublicAssignee(ev *proposals.Evaluation) bool {
	if ev == nil {
		return false
	}
	for _, g := range ev.Permissions {
		if g.Assignee.Kind == proposals.AssigneeSystemRole &&
			g.Assignee.SystemRole == proposals.SystemRolePublic {
			return true
		}
	}
	return false
}
