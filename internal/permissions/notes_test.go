package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quorum/api/internal/proposals"
)

func TestNoteReadAccess(t *testing.T) {
	p := singleStepProposal("p-1", proposals.UserAssignee(uidReviewer))
	p.Evaluations[0].Result = proposals.ResultPass
	p.Evaluations = append(p.Evaluations, proposals.Evaluation{
		ID: "eval-2", Type: proposals.EvaluationPassFail, Index: 1,
		AppealReviewers: []proposals.Assignee{proposals.UserAssignee(uidApprover)},
		Permissions: []proposals.PermissionGrant{
			{Assignee: proposals.RoleAssignee(roleGrants), Operation: proposals.OpViewNotes},
			{Assignee: proposals.SystemRoleAssignee(proposals.SystemRoleSpaceMember), Operation: proposals.OpViewNotes},
		},
	})

	tests := []struct {
		name string
		in   NoteAccessInput
		want bool
	}{
		{"author", NoteAccessInput{Proposal: p, UserID: uidAuthor, Tier: TierMember}, true},
		{"past-step reviewer", NoteAccessInput{Proposal: p, UserID: uidReviewer, Tier: TierMember}, true},
		{"appeal reviewer", NoteAccessInput{Proposal: p, UserID: uidApprover, Tier: TierMember}, true},
		{"role grant holder", NoteAccessInput{Proposal: p, UserID: uidMember, Tier: TierMember, HeldRoles: []string{roleGrants}}, true},
		{"plain member despite space_member grant", NoteAccessInput{Proposal: p, UserID: uidMember, Tier: TierMember}, false},
		{"anonymous", NoteAccessInput{Proposal: p}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NoteReadAccess(tt.in))
		})
	}
}
