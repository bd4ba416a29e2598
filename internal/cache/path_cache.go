package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mud-platform-backend/internal/path"
)

// PathBuildCache memoizes path.Build results (SPEC_FULL Sec.4.11's
// "terrain-tile and path-rebuild memoization"): rebuilding a path samples
// up to several hundred terrain-projected points, and the result is a pure
// function of (waypoints, closed, groundOffset) for a fixed terrain seed —
// the same inputs recur whenever a unit's path is rebuilt without having
// actually changed (e.g. a periodic obstacle scan that finds nothing new).
// Built on QueryCache's cache-aside Get/Set, generalized from its
// database-query use case to this domain's deterministic pure-function
// rebuilds.
type PathBuildCache struct {
	queries *QueryCache
}

// NewPathBuildCache wraps client with a TTL suited to path rebuilds: short
// enough that a stale terrain seed change is never served for long, long
// enough to absorb the repeated rebuilds a single player's drag gesture or
// an obstacle-scan storm produces in the same tick window.
func NewPathBuildCache(client *redis.Client) *PathBuildCache {
	return &PathBuildCache{queries: NewQueryCache(client, 30*time.Second)}
}

// Get returns the cached Built for the given key, or ok=false on a miss or
// any error (including a disconnected Redis, which must never block a path
// rebuild).
func (c *PathBuildCache) Get(ctx context.Context, key string) (path.Built, bool) {
	var built path.Built
	if err := c.queries.Get(ctx, key, &built); err != nil {
		return path.Built{}, false
	}
	return built, true
}

// Set stores built under key, ignoring errors: a failed cache write must
// never fail the caller's path rebuild, only cost it a future cache miss.
func (c *PathBuildCache) Set(ctx context.Context, key string, built path.Built) {
	_ = c.queries.Set(ctx, key, built)
}

// Key derives a stable cache key from a path rebuild's pure-function
// inputs, scoped by terrainSeed so two sessions with different terrain
// never share a cached rebuild.
func Key(terrainSeed int64, waypoints []path.Waypoint, closed bool, groundOffset float64) string {
	h := sha1.New()
	fmt.Fprintf(h, "seed=%d|closed=%t|ground=%f", terrainSeed, closed, groundOffset)
	for _, wp := range waypoints {
		fmt.Fprintf(h, "|%s:%f,%f,%f", wp.ID, wp.Position.X, wp.Position.Y, wp.Position.Z)
	}
	return "pathbuild:" + hex.EncodeToString(h.Sum(nil))
}
