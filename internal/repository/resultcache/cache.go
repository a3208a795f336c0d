// Package resultcache stores search answers in a key-value store.
package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/neodex/internal/db"
	"github.com/kailas-cloud/neodex/internal/domain"
	"github.com/kailas-cloud/neodex/internal/domain/caldate"
	"github.com/kailas-cloud/neodex/internal/domain/neo"
)

var cacheKeyPrefix = domain.KeyPrefix + "search:"

// DefaultTTL applies when New is given a non-positive ttl.
const DefaultTTL = 10 * time.Minute

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache keeps serialized search results keyed by catalog version and query fingerprint.
// Failures are logged and reported as misses so the searcher falls back to the catalog.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a result cache.
// cacheTotal is a counter vec with label "result"; the cache only reports "error" on it.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Key builds the storage key for a query fingerprint within a catalog version.
func Key(version, fingerprint string) string {
	h := sha256.Sum256([]byte(fingerprint))
	return cacheKeyPrefix + version + ":" + hex.EncodeToString(h[:])
}

// Get returns the cached result, if any.
func (c *Cache) Get(ctx context.Context, version, fingerprint string) ([]*neo.Object, bool) {
	key := Key(version, fingerprint)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.incError()
			c.logger.Warn("Failed to get cached result", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	objs, err := decode(data)
	if err != nil {
		c.incError()
		c.logger.Warn("Failed to decode cached result", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return objs, true
}

// Put stores a result.
func (c *Cache) Put(ctx context.Context, version, fingerprint string, objs []*neo.Object) {
	key := Key(version, fingerprint)
	data, err := encode(objs)
	if err != nil {
		c.incError()
		c.logger.Warn("Failed to encode result", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.incError()
		c.logger.Warn("Failed to cache result", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) incError() {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues("error").Inc()
	}
}

type objectDTO struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	DiameterMin float64       `json:"diameter_min_km"`
	DiameterMax float64       `json:"diameter_max_km"`
	Hazardous   bool          `json:"hazardous"`
	Approaches  []approachDTO `json:"approaches"`
}

type approachDTO struct {
	Date         caldate.Date `json:"date"`
	SpeedKmh     float64      `json:"speed_kmh"`
	MissDistance float64      `json:"miss_distance_km"`
	OrbitingBody string       `json:"orbiting_body,omitempty"`
}

func encode(objs []*neo.Object) ([]byte, error) {
	dtos := make([]objectDTO, len(objs))
	for i, o := range objs {
		approaches := o.Approaches()
		d := objectDTO{
			ID:          o.ID(),
			Name:        o.Name(),
			DiameterMin: o.DiameterMinKm(),
			DiameterMax: o.DiameterMaxKm(),
			Hazardous:   o.Hazardous(),
			Approaches:  make([]approachDTO, len(approaches)),
		}
		for j, a := range approaches {
			d.Approaches[j] = approachDTO{
				Date:         a.Date(),
				SpeedKmh:     a.SpeedKmh(),
				MissDistance: a.MissDistanceKm(),
				OrbitingBody: a.OrbitingBody(),
			}
		}
		dtos[i] = d
	}
	data, err := json.Marshal(dtos)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]*neo.Object, error) {
	var dtos []objectDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	objs := make([]*neo.Object, len(dtos))
	for i, d := range dtos {
		approaches := make([]neo.Approach, len(d.Approaches))
		for j, a := range d.Approaches {
			approaches[j] = neo.NewApproach(d.Name, a.SpeedKmh, a.MissDistance, a.Date, a.OrbitingBody)
		}
		objs[i] = neo.Reconstruct(neo.Attributes{
			ID:            d.ID,
			Name:          d.Name,
			DiameterMinKm: d.DiameterMin,
			DiameterMaxKm: d.DiameterMax,
			Hazardous:     d.Hazardous,
		}, approaches)
	}
	return objs, nil
}
