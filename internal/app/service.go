// Package app wires the permission engines, the store and the optional
// cache behind the HTTP surface. Handlers stay thin; every decision
// lives in internal/permissions.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"quorum/api/internal/permissions"
	"quorum/api/internal/proposals"
	"quorum/api/internal/store"
)

// SpaceStore is the read surface the service needs beyond the resolver
// interfaces.
type SpaceStore interface {
	GetSpace(ctx context.Context, spaceID string) (store.Space, error)
	ListSpaceProposals(ctx context.Context, spaceID string) ([]*proposals.Proposal, error)
}

type Service struct {
	db     *sql.DB
	spaces SpaceStore
	res    permissions.Resolvers
	full   *permissions.Engine
	free   *permissions.FreeEngine
	space  *permissions.SpaceEngine
	log    *slog.Logger
}

// NewService builds the service. The resolver bundle may be the store
// directly or the Redis cache wrapped around it; db is only used for
// readiness checks and may be nil in tests.
func NewService(db *sql.DB, spaces SpaceStore, res permissions.Resolvers, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:     db,
		spaces: spaces,
		res:    res,
		full:   permissions.NewEngine(res, logger),
		free:   permissions.NewFreeEngine(res, logger),
		space:  permissions.NewSpaceEngine(res.SpaceRoles, res.RoleMemberships, res.SpaceGrants),
		log:    logger,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

// engineFor picks the engine matching the space's product tier.
func (s *Service) engineFor(ctx context.Context, spaceID string) (permissions.Computer, error) {
	sp, err := s.spaces.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("load space %s: %w", spaceID, err)
	}
	if sp.Tier == store.SpaceTierFree {
		return s.free, nil
	}
	return s.full, nil
}

// ProposalPermissions computes the operation flags of one subject on
// one proposal, optionally scoped to a specific evaluation step.
func (s *Service) ProposalPermissions(ctx context.Context, proposalID, userID, evaluationID string) (permissions.OperationFlags, error) {
	p, err := s.res.Proposals.FetchProposal(ctx, proposalID)
	if err != nil {
		return permissions.OperationFlags{}, err
	}
	engine, err := s.engineFor(ctx, p.SpaceID)
	if err != nil {
		return permissions.OperationFlags{}, err
	}
	return engine.Compute(ctx, permissions.ComputeRequest{
		ResourceID:   proposalID,
		UserID:       userID,
		EvaluationID: evaluationID,
		Proposal:     p,
	})
}

// ProposalStepPermissions computes flags for every workflow step of a
// proposal, keyed by evaluation id plus the synthetic draft key.
func (s *Service) ProposalStepPermissions(ctx context.Context, proposalID, userID string) (map[string]permissions.OperationFlags, error) {
	p, err := s.res.Proposals.FetchProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	engine, err := s.engineFor(ctx, p.SpaceID)
	if err != nil {
		return nil, err
	}
	return permissions.NewAllStepsComputer(engine, s.res).Compute(ctx, proposalID, userID)
}

// PagePermissions projects a proposal computation onto the page
// vocabulary.
func (s *Service) PagePermissions(ctx context.Context, proposalID, userID string) (permissions.PagePermissionFlags, error) {
	flags, err := s.ProposalPermissions(ctx, proposalID, userID, "")
	if err != nil {
		return permissions.PagePermissionFlags{}, err
	}
	return permissions.PageFlags(flags), nil
}

// SpacePermissions computes the space-level flags of a subject.
func (s *Service) SpacePermissions(ctx context.Context, spaceID, userID string) (permissions.SpaceOperationFlags, error) {
	if _, err := s.spaces.GetSpace(ctx, spaceID); err != nil {
		return permissions.SpaceOperationFlags{}, fmt.Errorf("load space %s: %w", spaceID, err)
	}
	return s.space.Compute(ctx, spaceID, userID)
}

// BulkProposalPermissions computes the narrowed projection for many
// proposals of one space.
func (s *Service) BulkProposalPermissions(ctx context.Context, spaceID, userID string, proposalIDs []string) (map[string]permissions.BulkFlags, error) {
	engine, err := s.engineFor(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	return permissions.NewBulkComputer(engine, s.res).Compute(ctx, spaceID, userID, proposalIDs)
}

// ProposalSummary is the listing row returned by AccessibleProposals.
type ProposalSummary struct {
	ID     string           `json:"id"`
	Status proposals.Status `json:"status"`
}

// AccessibleProposals lists the proposals of a space the subject may
// see, optionally narrowed to the ones they are assigned to.
func (s *Service) AccessibleProposals(ctx context.Context, spaceID, userID string, onlyAssigned bool) ([]ProposalSummary, error) {
	sp, err := s.spaces.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("load space %s: %w", spaceID, err)
	}

	role, err := s.res.SpaceRoles.ResolveSpaceRole(ctx, spaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve space role: %w", err)
	}
	subject := permissions.ListSubject{UserID: userID, Tier: role.Tier}
	// Free spaces carry no custom roles.
	if sp.Tier != store.SpaceTierFree && role.Tier == permissions.TierMember {
		subject.HeldRoles, err = s.res.RoleMemberships.ResolveRoleMemberships(ctx, role.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve role memberships: %w", err)
		}
	}

	items, err := s.spaces.ListSpaceProposals(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	visible := permissions.AccessibleProposals(subject, items, onlyAssigned)

	out := make([]ProposalSummary, 0, len(visible))
	for _, p := range visible {
		out = append(out, ProposalSummary{ID: p.ID, Status: p.Status})
	}
	return out, nil
}
