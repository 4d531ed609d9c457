// Package store implements the resolver interfaces of the permission
// engines over database/sql. The same queries run against postgres and
// sqlite; both drivers accept $N placeholders.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quorum/api/internal/permissions"
	"quorum/api/internal/proposals"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// Resolvers bundles the store for engine construction.
func (s *Store) Resolvers() permissions.Resolvers {
	return permissions.Resolvers{
		SpaceRoles:      s,
		RoleMemberships: s,
		Proposals:       s,
		SpaceGrants:     s,
	}
}

func (s *Store) GetSpace(ctx context.Context, spaceID string) (Space, error) {
	var sp Space
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, tier, is_readonly FROM spaces WHERE id=$1`, spaceID,
	).Scan(&sp.ID, &sp.Name, &sp.Tier, &sp.IsReadonly)
	if err != nil {
		return Space{}, err
	}
	return sp, nil
}

func (s *Store) ResolveSpaceRole(ctx context.Context, spaceID, userID string) (permissions.SpaceRole, error) {
	var readonly bool
	err := s.db.QueryRowContext(ctx,
		`SELECT is_readonly FROM spaces WHERE id=$1`, spaceID,
	).Scan(&readonly)
	if errors.Is(err, sql.ErrNoRows) {
		return permissions.SpaceRole{Tier: permissions.TierNone}, nil
	}
	if err != nil {
		return permissions.SpaceRole{}, fmt.Errorf("read space: %w", err)
	}

	role := permissions.SpaceRole{Tier: permissions.TierNone, IsReadonlySpace: readonly}
	if userID == "" {
		return role, nil
	}

	var id string
	var isAdmin, isGuest bool
	err = s.db.QueryRowContext(ctx,
		`SELECT id, is_admin, is_guest FROM space_members WHERE space_id=$1 AND user_id=$2`,
		spaceID, userID,
	).Scan(&id, &isAdmin, &isGuest)
	if errors.Is(err, sql.ErrNoRows) {
		return role, nil
	}
	if err != nil {
		return permissions.SpaceRole{}, fmt.Errorf("read space membership: %w", err)
	}

	role.ID = id
	switch {
	case isAdmin:
		role.Tier = permissions.TierAdmin
	case isGuest:
		role.Tier = permissions.TierGuest
	default:
		role.Tier = permissions.TierMember
	}
	return role, nil
}

func (s *Store) ResolveRoleMemberships(ctx context.Context, spaceRoleID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role_id FROM role_members WHERE space_member_id=$1 ORDER BY role_id`,
		spaceRoleID,
	)
	if err != nil {
		return nil, fmt.Errorf("read role memberships: %w", err)
	}
	defer rows.Close()

	held := []string{}
	for rows.Next() {
		var roleID string
		if err := rows.Scan(&roleID); err != nil {
			return nil, fmt.Errorf("scan role membership: %w", err)
		}
		held = append(held, roleID)
	}
	return held, rows.Err()
}

func (s *Store) ListSpaceGrants(ctx context.Context, spaceID string) ([]permissions.SpaceGrant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT assignee_kind, system_role, role_id, user_id, operation
		FROM space_permission_grants
		WHERE space_id=$1
		ORDER BY id
	`, spaceID)
	if err != nil {
		return nil, fmt.Errorf("read space grants: %w", err)
	}
	defer rows.Close()

	var grants []permissions.SpaceGrant
	for rows.Next() {
		var kind string
		var sysRole, roleID, userID sql.NullString
		var op string
		if err := rows.Scan(&kind, &sysRole, &roleID, &userID, &op); err != nil {
			return nil, fmt.Errorf("scan space grant: %w", err)
		}
		grants = append(grants, permissions.SpaceGrant{
			Assignee:  assigneeFromColumns(kind, sysRole, roleID, userID),
			Operation: permissions.SpaceOperation(op),
		})
	}
	return grants, rows.Err()
}

func (s *Store) FetchProposal(ctx context.Context, resourceID string) (*proposals.Proposal, error) {
	const query = `
		SELECT p.id, p.space_id, p.status, p.archived_by_admin, w.id, w.private_evaluations
		FROM proposals p
		JOIN workflows w ON w.id = p.workflow_id
		WHERE p.id = $1
	`
	p := &proposals.Proposal{}
	err := s.db.QueryRowContext(ctx, query, resourceID).Scan(
		&p.ID, &p.SpaceID, &p.Status, &p.ArchivedByAdmin,
		&p.Workflow.ID, &p.Workflow.PrivateEvaluations,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &permissions.NotFoundError{ResourceID: resourceID}
	}
	if err != nil {
		return nil, fmt.Errorf("read proposal: %w", err)
	}

	if p.AuthorIDs, err = s.proposalAuthors(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Evaluations, err = s.proposalEvaluations(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// ListSpaceProposals hydrates every proposal of a space for list
// filtering.
func (s *Store) ListSpaceProposals(ctx context.Context, spaceID string) ([]*proposals.Proposal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM proposals WHERE space_id=$1 ORDER BY created_at, id`, spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan proposal id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*proposals.Proposal, 0, len(ids))
	for _, id := range ids {
		p, err := s.FetchProposal(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) proposalAuthors(ctx context.Context, proposalID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM proposal_authors WHERE proposal_id=$1 ORDER BY user_id`,
		proposalID,
	)
	if err != nil {
		return nil, fmt.Errorf("read authors: %w", err)
	}
	defer rows.Close()

	var authors []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		authors = append(authors, userID)
	}
	return authors, rows.Err()
}

func (s *Store) proposalEvaluations(ctx context.Context, proposalID string) ([]proposals.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, idx, result, appealed_at
		FROM evaluations
		WHERE proposal_id=$1
		ORDER BY idx
	`, proposalID)
	if err != nil {
		return nil, fmt.Errorf("read evaluations: %w", err)
	}
	defer rows.Close()

	var evals []proposals.Evaluation
	index := map[string]int{}
	for rows.Next() {
		var ev proposals.Evaluation
		var appealedAt sql.NullTime
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.Index, &ev.Result, &appealedAt); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		if appealedAt.Valid {
			t := appealedAt.Time
			ev.AppealedAt = &t
		}
		index[ev.ID] = len(evals)
		evals = append(evals, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(evals) == 0 {
		return nil, nil
	}

	if err := s.attachAssignees(ctx, proposalID, evals, index); err != nil {
		return nil, err
	}
	if err := s.attachGrants(ctx, proposalID, evals, index); err != nil {
		return nil, err
	}
	return evals, nil
}

func (s *Store) attachAssignees(ctx context.Context, proposalID string, evals []proposals.Evaluation, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.evaluation_id, a.kind, a.assignee_kind, a.system_role, a.role_id, a.user_id
		FROM evaluation_assignees a
		JOIN evaluations e ON e.id = a.evaluation_id
		WHERE e.proposal_id=$1
		ORDER BY a.id
	`, proposalID)
	if err != nil {
		return fmt.Errorf("read evaluation assignees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var evalID, kind, assigneeKind string
		var sysRole, roleID, userID sql.NullString
		if err := rows.Scan(&evalID, &kind, &assigneeKind, &sysRole, &roleID, &userID); err != nil {
			return fmt.Errorf("scan evaluation assignee: %w", err)
		}
		i, ok := index[evalID]
		if !ok {
			continue
		}
		a := assigneeFromColumns(assigneeKind, sysRole, roleID, userID)
		switch kind {
		case "reviewer":
			evals[i].Reviewers = append(evals[i].Reviewers, a)
		case "approver":
			evals[i].Approvers = append(evals[i].Approvers, a)
		case "appeal_reviewer":
			evals[i].AppealReviewers = append(evals[i].AppealReviewers, a)
		}
	}
	return rows.Err()
}

func (s *Store) attachGrants(ctx context.Context, proposalID string, evals []proposals.Evaluation, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.evaluation_id, g.assignee_kind, g.system_role, g.role_id, g.user_id, g.operation
		FROM evaluation_permission_grants g
		JOIN evaluations e ON e.id = g.evaluation_id
		WHERE e.proposal_id=$1
		ORDER BY g.id
	`, proposalID)
	if err != nil {
		return fmt.Errorf("read evaluation grants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var evalID, assigneeKind string
		var sysRole, roleID, userID sql.NullString
		var op string
		if err := rows.Scan(&evalID, &assigneeKind, &sysRole, &roleID, &userID, &op); err != nil {
			return fmt.Errorf("scan evaluation grant: %w", err)
		}
		i, ok := index[evalID]
		if !ok {
			continue
		}
		evals[i].Permissions = append(evals[i].Permissions, proposals.PermissionGrant{
			Assignee:  assigneeFromColumns(assigneeKind, sysRole, roleID, userID),
			Operation: proposals.Operation(op),
		})
	}
	return rows.Err()
}

func assigneeFromColumns(kind string, sysRole, roleID, userID sql.NullString) proposals.Assignee {
	switch proposals.AssigneeKind(kind) {
	case proposals.AssigneeSystemRole:
		return proposals.SystemRoleAssignee(proposals.SystemRole(sysRole.String))
	case proposals.AssigneeRole:
		return proposals.RoleAssignee(roleID.String)
	case proposals.AssigneeUser:
		return proposals.UserAssignee(userID.String)
	default:
		return proposals.Assignee{Kind: proposals.AssigneeKind(kind)}
	}
}
