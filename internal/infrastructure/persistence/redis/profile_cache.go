package redis

import (
	"context"
	"errors"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/shared"
	"github.com/aura-hub/intervention-hub/internal/domain/student"
)

// ProfileCache implements student.Cache using the generic Redis Cache.
// It sits between the orchestrator and the SIS source so repeated
// assessments of the same student within the TTL skip the network call.
type ProfileCache struct {
	cache *Cache
}

// NewProfileCache creates a new ProfileCache.
func NewProfileCache(cache *Cache) *ProfileCache {
	return &ProfileCache{cache: cache}
}

// Get returns a cached profile. Returns shared.ErrCacheMiss when the
// profile is not cached.
func (p *ProfileCache) Get(ctx context.Context, id shared.StudentID) (*student.Profile, error) {
	var profile student.Profile
	err := p.cache.Get(ctx, ProfileKey(id.String()), &profile)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrCacheMiss
		}
		return nil, err
	}

	return &profile, nil
}

// Set caches a profile with the given TTL. A zero TTL falls back to the
// package default.
func (p *ProfileCache) Set(ctx context.Context, profile *student.Profile, ttl time.Duration) error {
	if profile == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = TTLProfileCache
	}

	return p.cache.Set(ctx, ProfileKey(profile.ID.String()), profile, ttl)
}

// Invalidate removes a profile from the cache. Called when a risk
// escalation suggests the cached attributes are stale.
func (p *ProfileCache) Invalidate(ctx context.Context, id shared.StudentID) error {
	return p.cache.Delete(ctx, ProfileKey(id.String()))
}
