// Package cache provides a Redis pass-through cache for the resolver
// inputs shared across permission computations. Cache failures are
// never fatal; every lookup falls back to the wrapped resolvers.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"quorum/api/internal/permissions"
)

type ResolverCache struct {
	inner  permissions.Resolvers
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

// NewResolverCache connects to Redis and wraps the given resolvers.
func NewResolverCache(redisURL string, inner permissions.Resolvers, ttl time.Duration, logger *slog.Logger) (*ResolverCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewResolverCacheWithClient(client, inner, ttl, logger), nil
}

// NewResolverCacheWithClient wraps the resolvers using an existing
// Redis client.
func NewResolverCacheWithClient(client *redis.Client, inner permissions.Resolvers, ttl time.Duration, logger *slog.Logger) *ResolverCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolverCache{inner: inner, client: client, ttl: ttl, log: logger}
}

func (c *ResolverCache) Close() error {
	return c.client.Close()
}

// Resolvers returns the resolver bundle with the cached lookups in
// place. Proposal snapshots are never cached: they change
// with every workflow transition and staleness there changes results.
func (c *ResolverCache) Resolvers() permissions.Resolvers {
	return permissions.Resolvers{
		SpaceRoles:      c,
		RoleMemberships: c,
		Proposals:       c.inner.Proposals,
		SpaceGrants:     c,
	}
}

func (c *ResolverCache) ResolveSpaceRole(ctx context.Context, spaceID, userID string) (permissions.SpaceRole, error) {
	key := "perm:spacerole:" + spaceID + ":" + userID
	var cached permissions.SpaceRole
	if c.get(ctx, key, &cached) {
		return cached, nil
	}
	role, err := c.inner.SpaceRoles.ResolveSpaceRole(ctx, spaceID, userID)
	if err != nil {
		return permissions.SpaceRole{}, err
	}
	c.set(ctx, key, role)
	return role, nil
}

func (c *ResolverCache) ResolveRoleMemberships(ctx context.Context, spaceRoleID string) ([]string, error) {
	key := "perm:roles:" + spaceRoleID
	var cached []string
	if c.get(ctx, key, &cached) {
		return cached, nil
	}
	held, err := c.inner.RoleMemberships.ResolveRoleMemberships(ctx, spaceRoleID)
	if err != nil {
		return nil, err
	}
	if held == nil {
		held = []string{}
	}
	c.set(ctx, key, held)
	return held, nil
}

func (c *ResolverCache) ListSpaceGrants(ctx context.Context, spaceID string) ([]permissions.SpaceGrant, error) {
	key := "perm:spacegrants:" + spaceID
	var cached []permissions.SpaceGrant
	if c.get(ctx, key, &cached) {
		return cached, nil
	}
	grants, err := c.inner.SpaceGrants.ListSpaceGrants(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if grants == nil {
		grants = []permissions.SpaceGrant{}
	}
	c.set(ctx, key, grants)
	return grants, nil
}

// InvalidateSpace drops every cached key for a space after membership
// or grant changes.
func (c *ResolverCache) InvalidateSpace(ctx context.Context, spaceID string) error {
	patterns := []string{
		"perm:spacerole:" + spaceID + ":*",
		"perm:spacegrants:" + spaceID,
	}
	for _, pattern := range patterns {
		iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("invalidate %s: %w", iter.Val(), err)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
	}
	return nil
}

func (c *ResolverCache) get(ctx context.Context, key string, out any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("cache read failed", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.Debug("cache entry corrupt", "key", key, "err", err)
		return false
	}
	return true
}

func (c *ResolverCache) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Debug("cache write failed", "key", key, "err", err)
	}
}
