package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quorum/api/internal/permissions"
	"quorum/api/internal/proposals"
)

type countingResolvers struct {
	role        permissions.SpaceRole
	held        []string
	grants      []permissions.SpaceGrant
	roleCalls   int
	heldCalls   int
	grantsCalls int
}

func (c *countingResolvers) ResolveSpaceRole(context.Context, string, string) (permissions.SpaceRole, error) {
	c.roleCalls++
	return c.role, nil
}

func (c *countingResolvers) ResolveRoleMemberships(context.Context, string) ([]string, error) {
	c.heldCalls++
	return c.held, nil
}

func (c *countingResolvers) ListSpaceGrants(context.Context, string) ([]permissions.SpaceGrant, error) {
	c.grantsCalls++
	return c.grants, nil
}

func (c *countingResolvers) FetchProposal(context.Context, string) (*proposals.Proposal, error) {
	return nil, &permissions.NotFoundError{}
}

func (c *countingResolvers) bundle() permissions.Resolvers {
	return permissions.Resolvers{SpaceRoles: c, RoleMemberships: c, Proposals: c, SpaceGrants: c}
}

func setupCache(t *testing.T, ttl time.Duration) (*ResolverCache, *countingResolvers, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	inner := &countingResolvers{
		role:   permissions.SpaceRole{ID: "sr-1", Tier: permissions.TierMember, IsReadonlySpace: true},
		held:   []string{"role-a", "role-b"},
		grants: []permissions.SpaceGrant{{Assignee: proposals.RoleAssignee("role-a"), Operation: permissions.SpaceOpCreatePage}},
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewResolverCacheWithClient(client, inner.bundle(), ttl, nil), inner, mr
}

func TestResolverCacheHit(t *testing.T) {
	c, inner, _ := setupCache(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		role, err := c.ResolveSpaceRole(ctx, "space-1", "user-1")
		if err != nil {
			t.Fatalf("resolve role: %v", err)
		}
		if role != inner.role {
			t.Fatalf("role = %+v", role)
		}

		held, err := c.ResolveRoleMemberships(ctx, "sr-1")
		if err != nil {
			t.Fatalf("resolve memberships: %v", err)
		}
		if len(held) != 2 {
			t.Fatalf("held = %v", held)
		}

		grants, err := c.ListSpaceGrants(ctx, "space-1")
		if err != nil {
			t.Fatalf("list grants: %v", err)
		}
		if len(grants) != 1 || grants[0].Operation != permissions.SpaceOpCreatePage {
			t.Fatalf("grants = %+v", grants)
		}
		if grants[0].Assignee.RoleID != "role-a" {
			t.Fatalf("assignee did not survive the round trip: %+v", grants[0].Assignee)
		}
	}

	if inner.roleCalls != 1 || inner.heldCalls != 1 || inner.grantsCalls != 1 {
		t.Fatalf("inner resolvers hit more than once: %d %d %d",
			inner.roleCalls, inner.heldCalls, inner.grantsCalls)
	}
}

func TestResolverCacheExpiry(t *testing.T) {
	c, inner, mr := setupCache(t, 30*time.Second)
	ctx := context.Background()

	if _, err := c.ResolveSpaceRole(ctx, "space-1", "user-1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	mr.FastForward(time.Minute)
	if _, err := c.ResolveSpaceRole(ctx, "space-1", "user-1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if inner.roleCalls != 2 {
		t.Fatalf("expected expired entry to re-resolve, calls = %d", inner.roleCalls)
	}
}

func TestResolverCacheFallsThroughWhenRedisDown(t *testing.T) {
	c, inner, mr := setupCache(t, time.Minute)
	mr.Close()

	role, err := c.ResolveSpaceRole(context.Background(), "space-1", "user-1")
	if err != nil {
		t.Fatalf("resolve must fall back to inner: %v", err)
	}
	if role != inner.role || inner.roleCalls != 1 {
		t.Fatalf("fallback did not reach inner resolver: %+v %d", role, inner.roleCalls)
	}
}

func TestResolverCacheInvalidateSpace(t *testing.T) {
	c, inner, _ := setupCache(t, time.Hour)
	ctx := context.Background()

	if _, err := c.ResolveSpaceRole(ctx, "space-1", "user-1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := c.ListSpaceGrants(ctx, "space-1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := c.InvalidateSpace(ctx, "space-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if _, err := c.ResolveSpaceRole(ctx, "space-1", "user-1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := c.ListSpaceGrants(ctx, "space-1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if inner.roleCalls != 2 || inner.grantsCalls != 2 {
		t.Fatalf("invalidation did not evict: %d %d", inner.roleCalls, inner.grantsCalls)
	}
}
