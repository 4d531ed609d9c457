package permissions

import "quorum/api/internal/proposals"

// NoteAccessInput is the subject/resource pair for a note-visibility
// decision.
type NoteAccessInput struct {
	Proposal  *proposals.Proposal
	UserID    string
	Tier      MembershipTier
	HeldRoles []string
}

// NoteReadAccess is the standalone entry point for the note-visibility
// sub-policy. The main engine folds the same decision into its flag
// output.
func NoteReadAccess(in NoteAccessInput) bool {
	subject := newSubjectContext(normalizeUserID(in.UserID), in.Tier, in.HeldRoles, in.Proposal.IsAuthor(normalizeUserID(in.UserID)))
	return noteReadAccess(in.Proposal, subject)
}

// noteReadAccess decides visibility of internal review notes. Readable
// by the proposal's authors, by reviewers or appeal reviewers of any
// step (current or past), and by anyone holding an explicit view_notes
// grant on any step.
func noteReadAccess(p *proposals.Proposal, subject subjectContext) bool {
	if subject.isAuthor {
		return true
	}
	for i := range p.Evaluations {
		ev := &p.Evaluations[i]
		if matchAnyAssignee(ev.Reviewers, subject) || matchAnyAssignee(ev.AppealReviewers, subject) {
			return true
		}
		for _, g := range ev.Permissions {
			if g.Operation != proposals.OpViewNotes {
				continue
			}
			switch g.Assignee.Kind {
			case proposals.AssigneeUser, proposals.AssigneeRole:
				if matchAssignee(g.Assignee, subject) {
					return true
				}
			}
		}
	}
	return false
}
