package permissions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quorum/api/internal/proposals"
)

func TestAccessibleProposals(t *testing.T) {
	draftOwn := singleStepProposal("p-draft-own")
	draftOwn.Status = proposals.StatusDraft

	draftOther := singleStepProposal("p-draft-other")
	draftOther.Status = proposals.StatusDraft
	draftOther.AuthorIDs = []string{uidOutsider}

	published := singleStepProposal("p-published", proposals.UserAssignee(uidReviewer))
	published.AuthorIDs = []string{uidOutsider}

	archived := singleStepProposal("p-archived")
	archived.Status = proposals.StatusArchived
	archived.AuthorIDs = []string{uidOutsider}

	all := []*proposals.Proposal{draftOwn, draftOther, published, archived}

	idsOf := func(ps []*proposals.Proposal) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.ID
		}
		return out
	}

	tests := []struct {
		name         string
		subject      ListSubject
		onlyAssigned bool
		want         []string
	}{
		{
			name:    "admin sees everything",
			subject: ListSubject{UserID: uidAdmin, Tier: TierAdmin},
			want:    []string{"p-draft-own", "p-draft-other", "p-published", "p-archived"},
		},
		{
			name:    "author sees own draft plus published",
			subject: ListSubject{UserID: uidAuthor, Tier: TierMember},
			want:    []string{"p-draft-own", "p-published", "p-archived"},
		},
		{
			name:    "anonymous sees only non-drafts",
			subject: ListSubject{},
			want:    []string{"p-published", "p-archived"},
		},
		{
			name:    "malformed id is anonymous",
			subject: ListSubject{UserID: "oops", Tier: TierAdmin},
			want:    []string{"p-published", "p-archived"},
		},
		{
			name:         "only assigned narrows to author or reviewer",
			subject:      ListSubject{UserID: uidAuthor, Tier: TierMember},
			onlyAssigned: true,
			want:         []string{"p-draft-own"},
		},
		{
			name:         "reviewer assignment counts as assigned",
			subject:      ListSubject{UserID: uidReviewer, Tier: TierMember},
			onlyAssigned: true,
			want:         []string{"p-published"},
		},
		{
			name:         "admin narrowed by only assigned",
			subject:      ListSubject{UserID: uidAdmin, Tier: TierAdmin},
			onlyAssigned: true,
			want:         []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AccessibleProposals(tt.subject, all, tt.onlyAssigned)
			assert.Equal(t, tt.want, idsOf(got))
		})
	}
}
