package permissions

import "quorum/api/internal/proposals"

// OperationFlags is a total mapping from every proposal operation to a
// boolean. No field is ever omitted from the JSON form, even when false.
type OperationFlags struct {
	View               bool `json:"view"`
	ViewPrivateFields  bool `json:"view_private_fields"`
	ViewNotes          bool `json:"view_notes"`
	Comment            bool `json:"comment"`
	Edit               bool `json:"edit"`
	EditRewards        bool `json:"edit_rewards"`
	Move               bool `json:"move"`
	Archive            bool `json:"archive"`
	Unarchive          bool `json:"unarchive"`
	Delete             bool `json:"delete"`
	CreateVote         bool `json:"create_vote"`
	Evaluate           bool `json:"evaluate"`
	CompleteEvaluation bool `json:"complete_evaluation"`
	EvaluateAppeal     bool `json:"evaluate_appeal"`
	MakePublic         bool `json:"make_public"`
	GrantPermissions   bool `json:"grant_permissions"`
}

// Has reports the flag for a single operation.
func (f OperationFlags) Has(op proposals.Operation) bool {
	switch op {
	case proposals.OpView:
		return f.View
	case proposals.OpViewPrivateFields:
		return f.ViewPrivateFields
	case proposals.OpViewNotes:
		return f.ViewNotes
	case proposals.OpComment:
		return f.Comment
	case proposals.OpEdit:
		return f.Edit
	case proposals.OpEditRewards:
		return f.EditRewards
	case proposals.OpMove:
		return f.Move
	case proposals.OpArchive:
		return f.Archive
	case proposals.OpUnarchive:
		return f.Unarchive
	case proposals.OpDelete:
		return f.Delete
	case proposals.OpCreateVote:
		return f.CreateVote
	case proposals.OpEvaluate:
		return f.Evaluate
	case proposals.OpCompleteEvaluation:
		return f.CompleteEvaluation
	case proposals.OpEvaluateAppeal:
		return f.EvaluateAppeal
	case proposals.OpMakePublic:
		return f.MakePublic
	case proposals.OpGrantPermissions:
		return f.GrantPermissions
	default:
		return false
	}
}

func (f *OperationFlags) set(op proposals.Operation, v bool) {
	switch op {
	case proposals.OpView:
		f.View = v
	case proposals.OpViewPrivateFields:
		f.ViewPrivateFields = v
	case proposals.OpViewNotes:
		f.ViewNotes = v
	case proposals.OpComment:
		f.Comment = v
	case proposals.OpEdit:
		f.Edit = v
	case proposals.OpEditRewards:
		f.EditRewards = v
	case proposals.OpMove:
		f.Move = v
	case proposals.OpArchive:
		f.Archive = v
	case proposals.OpUnarchive:
		f.Unarchive = v
	case proposals.OpDelete:
		f.Delete = v
	case proposals.OpCreateVote:
		f.CreateVote = v
	case proposals.OpEvaluate:
		f.Evaluate = v
	case proposals.OpCompleteEvaluation:
		f.CompleteEvaluation = v
	case proposals.OpEvaluateAppeal:
		f.EvaluateAppeal = v
	case proposals.OpMakePublic:
		f.MakePublic = v
	case proposals.OpGrantPermissions:
		f.GrantPermissions = v
	}
}

// BulkFlags is the narrowed projection the bulk computer returns per
// proposal.
type BulkFlags struct {
	Evaluate          bool `json:"evaluate"`
	View              bool `json:"view"`
	ViewNotes         bool `json:"view_notes"`
	ViewPrivateFields bool `json:"view_private_fields"`
}

func (f OperationFlags) Bulk() BulkFlags {
	return BulkFlags{
		Evaluate:          f.Evaluate,
		View:              f.View,
		ViewNotes:         f.ViewNotes,
		ViewPrivateFields: f.ViewPrivateFields,
	}
}

// SpaceOperation is one space-wide permission bit.
type SpaceOperation string

const (
	SpaceOpCreatePage          SpaceOperation = "create_page"
	SpaceOpCreateBounty        SpaceOperation = "create_bounty"
	SpaceOpCreateProposals     SpaceOperation = "create_proposals"
	SpaceOpDeleteAnyProposal   SpaceOperation = "delete_any_proposal"
	SpaceOpDeleteAnyPage       SpaceOperation = "delete_any_page"
	SpaceOpDeleteAnyBounty     SpaceOperation = "delete_any_bounty"
	SpaceOpReviewProposals     SpaceOperation = "review_proposals"
	SpaceOpCreateForumCategory SpaceOperation = "create_forum_category"
	SpaceOpModerateForums      SpaceOperation = "moderate_forums"
)

var AllSpaceOperations = []SpaceOperation{
	SpaceOpCreatePage,
	SpaceOpCreateBounty,
	SpaceOpCreateProposals,
	SpaceOpDeleteAnyProposal,
	SpaceOpDeleteAnyPage,
	SpaceOpDeleteAnyBounty,
	SpaceOpReviewProposals,
	SpaceOpCreateForumCategory,
	SpaceOpModerateForums,
}

// SpaceOperationFlags is the total space-level output of the space
// permission engine.
type SpaceOperationFlags struct {
	CreatePage          bool `json:"create_page"`
	CreateBounty        bool `json:"create_bounty"`
	CreateProposals     bool `json:"create_proposals"`
	DeleteAnyProposal   bool `json:"delete_any_proposal"`
	DeleteAnyPage       bool `json:"delete_any_page"`
	DeleteAnyBounty     bool `json:"delete_any_bounty"`
	ReviewProposals     bool `json:"review_proposals"`
	CreateForumCategory bool `json:"create_forum_category"`
	ModerateForums      bool `json:"moderate_forums"`
}

func (f *SpaceOperationFlags) set(op SpaceOperation, v bool) {
	switch op {
	case SpaceOpCreatePage:
		f.CreatePage = v
	case SpaceOpCreateBounty:
		f.CreateBounty = v
	case SpaceOpCreateProposals:
		f.CreateProposals = v
	case SpaceOpDeleteAnyProposal:
		f.DeleteAnyProposal = v
	case SpaceOpDeleteAnyPage:
		f.DeleteAnyPage = v
	case SpaceOpDeleteAnyBounty:
		f.DeleteAnyBounty = v
	case SpaceOpReviewProposals:
		f.ReviewProposals = v
	case SpaceOpCreateForumCategory:
		f.CreateForumCategory = v
	case SpaceOpModerateForums:
		f.ModerateForums = v
	}
}

func fullSpaceFlags() SpaceOperationFlags {
	var f SpaceOperationFlags
	for _, op := range AllSpaceOperations {
		f.set(op, true)
	}
	return f
}

// PagePermissionFlags is the page-permission vocabulary produced by the
// page adapter.
type PagePermissionFlags struct {
	Read             bool `json:"read"`
	Comment          bool `json:"comment"`
	EditContent      bool `json:"edit_content"`
	EditPosition     bool `json:"edit_position"`
	Delete           bool `json:"delete"`
	CreatePoll       bool `json:"create_poll"`
	GrantPermissions bool `json:"grant_permissions"`
}
