package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/cognicore/revlens/internal/logging"
	"github.com/cognicore/revlens/internal/metrics"
	"github.com/cognicore/revlens/pkg/revlens/cachestore"
	"github.com/cognicore/revlens/pkg/revlens/internalerr"
)

// AllBuilder builds every product profile.
type AllBuilder interface {
	BuildAll(ctx context.Context) (map[int64]KeywordProfile, error)
}

// Cache holds the current product profile snapshot. Reads never block;
// rebuilds happen outside any lock and are swapped in atomically.
type Cache struct {
	builder AllBuilder
	blobs   cachestore.BlobStore

	current atomic.Pointer[Snapshot]
	swapMu  sync.Mutex
	flight  singleflight.Group

	log zerolog.Logger
}

// NewCache creates an empty cache. blobs may be nil to disable persistence.
func NewCache(b AllBuilder, blobs cachestore.BlobStore) *Cache {
	return &Cache{
		builder: b,
		blobs:   blobs,
		log:     logging.Component("profile-cache"),
	}
}

// Snapshot returns the current snapshot, or nil before the first load.
func (c *Cache) Snapshot() *Snapshot {
	return c.current.Load()
}

// Get returns the cached profile of a product.
func (c *Cache) Get(productID int64) (KeywordProfile, bool) {
	s := c.current.Load()
	if s == nil {
		return nil, false
	}
	p, ok := s.Profiles[productID]
	return p, ok
}

// Ensure makes sure a snapshot is present, loading or building it once
// even under concurrent callers. The shared load ignores the first
// caller's cancellation so one timed-out request does not fail the rest.
func (c *Cache) Ensure(ctx context.Context) (*Snapshot, error) {
	if s := c.current.Load(); s != nil {
		return s, nil
	}
	v, err, _ := c.flight.Do("load", func() (interface{}, error) {
		if s := c.current.Load(); s != nil {
			return s, nil
		}
		return c.Load(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Load reads the persisted snapshot. A missing, unreadable or corrupt blob
// is not an error: profiles are rebuilt from the store and persisted.
func (c *Cache) Load(ctx context.Context) (*Snapshot, error) {
	if c.blobs == nil {
		return c.rebuildAndSave(ctx)
	}

	blob, err := c.blobs.Get(ctx)
	switch {
	case errors.Is(err, cachestore.ErrNotFound):
		metrics.ProfileCacheLoads.WithLabelValues(metrics.CacheMiss).Inc()
		c.log.Info().Msg("no persisted profiles, building")
		return c.rebuildAndSave(ctx)
	case err != nil:
		metrics.ProfileCacheLoads.WithLabelValues(metrics.CacheMiss).Inc()
		c.log.Warn().Err(err).Msg("reading persisted profiles failed, rebuilding")
		return c.rebuildAndSave(ctx)
	}

	snap, err := Decode(blob)
	if err != nil {
		metrics.ProfileCacheLoads.WithLabelValues(metrics.CacheCorrupt).Inc()
		c.log.Warn().Err(err).Int("bytes", len(blob)).Msg("persisted profiles corrupt, rebuilding")
		return c.rebuildAndSave(ctx)
	}

	metrics.ProfileCacheLoads.WithLabelValues(metrics.CacheHit).Inc()
	c.install(snap, false)
	c.log.Info().Str("snapshot_id", snap.ID).Int("products", len(snap.Profiles)).
		Time("built_at", snap.BuiltAt).Msg("profiles loaded")
	return c.current.Load(), nil
}

func (c *Cache) rebuildAndSave(ctx context.Context) (*Snapshot, error) {
	snap, err := c.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Save(ctx); err != nil {
		c.log.Warn().Err(err).Msg("persisting rebuilt profiles failed")
	}
	return snap, nil
}

// Rebuild builds all product profiles and swaps them in, replacing any
// current snapshot whatever its timestamp. It does not persist; call Save
// for that.
func (c *Cache) Rebuild(ctx context.Context) (*Snapshot, error) {
	profiles, err := c.builder.BuildAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("build product profiles: %w", err)
	}
	snap := &Snapshot{
		ID:       ulid.Make().String(),
		BuiltAt:  time.Now().UTC(),
		Profiles: profiles,
	}
	c.install(snap, true)
	return snap, nil
}

// Save persists the current snapshot.
func (c *Cache) Save(ctx context.Context) error {
	if c.blobs == nil {
		return nil
	}
	snap := c.current.Load()
	if snap == nil {
		return fmt.Errorf("save profiles: no snapshot: %w", internalerr.ErrNotFound)
	}
	blob, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	if err := c.blobs.Put(ctx, blob); err != nil {
		return fmt.Errorf("persist profiles: %w", err)
	}
	c.log.Info().Str("snapshot_id", snap.ID).Int("bytes", len(blob)).Msg("profiles persisted")
	return nil
}

// install swaps in s. Unless force is set, a persisted snapshot older than
// the current one is ignored.
func (c *Cache) install(s *Snapshot, force bool) {
	c.swapMu.Lock()
	defer c.swapMu.Unlock()
	if cur := c.current.Load(); !force && cur != nil && cur.BuiltAt.After(s.BuiltAt) {
		return
	}
	c.current.Store(s)
	metrics.ProfileCacheSize.Set(float64(len(s.Profiles)))
}
