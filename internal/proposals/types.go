// Package proposals holds the domain model for governance proposals:
// statuses, workflow evaluation steps, assignees and permission grants.
// The permission engine in internal/permissions reads these values but
// never mutates them.
package proposals

import "time"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// EvaluationType is the closed set of workflow step kinds.
type EvaluationType string

const (
	EvaluationFeedback EvaluationType = "feedback"
	EvaluationPassFail EvaluationType = "pass_fail"
	EvaluationRubric   EvaluationType = "rubric"
	EvaluationVote     EvaluationType = "vote"
)

// Concealable reports whether a step of this type hides its move/result
// state from non-reviewers when the workflow uses private evaluations.
// Feedback steps are always visible.
func (t EvaluationType) Concealable() bool {
	switch t {
	case EvaluationPassFail, EvaluationRubric, EvaluationVote:
		return true
	default:
		return false
	}
}

type EvaluationResult string

const (
	ResultNone EvaluationResult = ""
	ResultPass EvaluationResult = "pass"
	ResultFail EvaluationResult = "fail"
)

// Operation is one atomic permission bit on a proposal.
type Operation string

const (
	OpView               Operation = "view"
	OpViewPrivateFields  Operation = "view_private_fields"
	OpViewNotes          Operation = "view_notes"
	OpComment            Operation = "comment"
	OpEdit               Operation = "edit"
	OpEditRewards        Operation = "edit_rewards"
	OpMove               Operation = "move"
	OpArchive            Operation = "archive"
	OpUnarchive          Operation = "unarchive"
	OpDelete             Operation = "delete"
	OpCreateVote         Operation = "create_vote"
	OpEvaluate           Operation = "evaluate"
	OpCompleteEvaluation Operation = "complete_evaluation"
	OpEvaluateAppeal     Operation = "evaluate_appeal"
	OpMakePublic         Operation = "make_public"
	OpGrantPermissions   Operation = "grant_permissions"
)

// AllOperations lists every proposal operation. Order matters only for
// deterministic output.
var AllOperations = []Operation{
	OpView,
	OpViewPrivateFields,
	OpViewNotes,
	OpComment,
	OpEdit,
	OpEditRewards,
	OpMove,
	OpArchive,
	OpUnarchive,
	OpDelete,
	OpCreateVote,
	OpEvaluate,
	OpCompleteEvaluation,
	OpEvaluateAppeal,
	OpMakePublic,
	OpGrantPermissions,
}

// SystemRole is a symbolic assignee resolved dynamically against the
// subject and the proposal, as opposed to a fixed user or role id.
type SystemRole string

const (
	SystemRoleAuthor          SystemRole = "author"
	SystemRoleSpaceMember     SystemRole = "space_member"
	SystemRolePublic          SystemRole = "public"
	SystemRoleCurrentReviewer SystemRole = "current_reviewer"
	SystemRoleAllReviewers    SystemRole = "all_reviewers"
)

type AssigneeKind string

const (
	AssigneeSystemRole AssigneeKind = "system_role"
	AssigneeRole       AssigneeKind = "role"
	AssigneeUser       AssigneeKind = "user"
)

// Assignee is a closed tagged union: exactly one of SystemRole, RoleID
// or UserID is meaningful, selected by Kind. Matching is always done by
// explicit case analysis on Kind, never by probing which field is set.
type Assignee struct {
	Kind       AssigneeKind
	SystemRole SystemRole
	RoleID     string
	UserID     string
}

func SystemRoleAssignee(role SystemRole) Assignee {
	return Assignee{Kind: AssigneeSystemRole, SystemRole: role}
}

func RoleAssignee(roleID string) Assignee {
	return Assignee{Kind: AssigneeRole, RoleID: roleID}
}

func UserAssignee(userID string) Assignee {
	return Assignee{Kind: AssigneeUser, UserID: userID}
}

// PermissionGrant attaches one operation to one assignee on an
// evaluation step.
type PermissionGrant struct {
	Assignee  Assignee
	Operation Operation
}

// Workflow carries the per-workflow settings the engine cares about.
type Workflow struct {
	ID                 string
	PrivateEvaluations bool
}

// Evaluation is one ordered stage of a proposal's workflow.
type Evaluation struct {
	ID              string
	Type            EvaluationType
	Index           int
	Result          EvaluationResult
	AppealedAt      *time.Time
	Reviewers       []Assignee
	Approvers       []Assignee
	AppealReviewers []Assignee
	Permissions     []PermissionGrant
}

// Appealed reports whether this step has an open or resolved appeal.
func (e *Evaluation) Appealed() bool {
	return e.AppealedAt != nil
}

// Proposal is the snapshot the permission engine evaluates. It includes
// the full workflow instance: every evaluation step with its reviewers,
// approvers, appeal reviewers and grants.
type Proposal struct {
	ID              string
	SpaceID         string
	Status          Status
	AuthorIDs       []string
	ArchivedByAdmin bool
	Workflow        Workflow
	Evaluations     []Evaluation
}

func (p *Proposal) IsAuthor(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range p.AuthorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// CurrentEvaluation selects the workflow's current step: the first step
// without a terminal result, or the last step when every step is
// terminal. Returns nil for a proposal with no steps.
func (p *Proposal) CurrentEvaluation() *Evaluation {
	if len(p.Evaluations) == 0 {
		return nil
	}
	for i := range p.Evaluations {
		if p.Evaluations[i].Result == ResultNone {
			return &p.Evaluations[i]
		}
	}
	return &p.Evaluations[len(p.Evaluations)-1]
}

// EvaluationByID returns the step with the given id, or nil.
func (p *Proposal) EvaluationByID(id string) *Evaluation {
	for i := range p.Evaluations {
		if p.Evaluations[i].ID == id {
			return &p.Evaluations[i]
		}
	}
	return nil
}
