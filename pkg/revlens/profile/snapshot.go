package profile

import (
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
)

// snapshotVersion is bumped whenever the envelope layout changes.
const snapshotVersion = 1

// sumTolerance bounds how far a decoded profile may drift from summing to 1.
const sumTolerance = 1e-6

// Snapshot is an immutable set of product profiles. Never mutate one after
// it has been handed to a Cache.
type Snapshot struct {
	ID       string
	BuiltAt  time.Time
	Profiles map[int64]KeywordProfile
}

type envelope struct {
	Version    int                      `json:"version"`
	SnapshotID string                   `json:"snapshot_id"`
	BuiltAt    time.Time                `json:"built_at"`
	Profiles   map[int64]KeywordProfile `json:"profiles"`
}

// Encode serializes a snapshot.
func Encode(s *Snapshot) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode nil snapshot: %w", internalerr.ErrInvalidInput)
	}
	return json.Marshal(envelope{
		Version:    snapshotVersion,
		SnapshotID: s.ID,
		BuiltAt:    s.BuiltAt,
		Profiles:   s.Profiles,
	})
}

// Decode parses and validates a snapshot. Anything unusable is reported as
// internalerr.ErrCacheCorrupt.
func Decode(blob []byte) (*Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w: %v", internalerr.ErrCacheCorrupt, err)
	}
	if env.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d: %w", env.Version, snapshotVersion, internalerr.ErrCacheCorrupt)
	}
	if env.Profiles == nil {
		return nil, fmt.Errorf("snapshot has no profiles: %w", internalerr.ErrCacheCorrupt)
	}
	for id, p := range env.Profiles {
		if p == nil {
			env.Profiles[id] = KeywordProfile{}
			continue
		}
		if len(p) == 0 {
			continue
		}
		for kw, w := range p {
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return nil, fmt.Errorf("product %d keyword %q weight %v: %w", id, kw, w, internalerr.ErrCacheCorrupt)
			}
		}
		if sum := p.Sum(); math.Abs(sum-1) > sumTolerance {
			return nil, fmt.Errorf("product %d weights sum to %v: %w", id, sum, internalerr.ErrCacheCorrupt)
		}
	}
	return &Snapshot{ID: env.SnapshotID, BuiltAt: env.BuiltAt, Profiles: env.Profiles}, nil
}
