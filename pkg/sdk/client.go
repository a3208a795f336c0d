package neodex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/neodex/internal/db"
	dbValkey "github.com/kailas-cloud/neodex/internal/db/valkey"
	"github.com/kailas-cloud/neodex/internal/domain"
	"github.com/kailas-cloud/neodex/internal/domain/neo"
	"github.com/kailas-cloud/neodex/internal/domain/search/filter"
	"github.com/kailas-cloud/neodex/internal/domain/search/request"
	"github.com/kailas-cloud/neodex/internal/ingest"
	"github.com/kailas-cloud/neodex/internal/repository/catalog"
	"github.com/kailas-cloud/neodex/internal/repository/resultcache"
	healthuc "github.com/kailas-cloud/neodex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/neodex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) ([]*neo.Object, error)
	Lookup(ctx context.Context, name string) (*neo.Object, error)
}

// Client is the neodex SDK entry point. It is safe for concurrent use.
type Client struct {
	catalog    *catalog.Catalog
	store      db.Store
	searchSvc  searchUseCase
	healthSvc  healthUseCase
	comparison filter.Comparison
	obs        *observer
}

// Open loads the dataset at uri and returns a ready Client.
// uri is a local path or s3://bucket/key, CSV or Parquet, optionally compressed.
func Open(ctx context.Context, uri string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cat := catalog.New()
	loader := ingest.NewLoader(ingest.S3Config{
		Endpoint:  cfg.s3Endpoint,
		AccessKey: cfg.s3AccessKey,
		SecretKey: cfg.s3SecretKey,
		UseSSL:    cfg.s3UseSSL,
		Region:    cfg.s3Region,
	})
	stats, err := loader.Load(ctx, uri, cat)
	obs.observe(ctx, "load", start, stats.Objects, err)
	if err != nil {
		return nil, fmt.Errorf("neodex: load dataset: %w", err)
	}

	return wireClient(ctx, cat, cfg, obs)
}

func wireClient(ctx context.Context, cat *catalog.Catalog, cfg *clientConfig, obs *observer) (*Client, error) {
	searchSvc := searchuc.New(cat).WithTimeout(cfg.timeout)

	// Pass nil interface (not typed nil pointer!) when no cache is configured.
	var (
		store  db.Store
		pinger healthuc.CachePinger
	)
	if len(cfg.cacheAddrs) > 0 {
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.cacheAddrs,
			Password: cfg.cachePassword,
		})
		if err != nil {
			return nil, fmt.Errorf("neodex: create valkey store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("neodex: cache not ready: %w", err)
		}
		searchSvc.WithCache(resultcache.New(s, cfg.cacheTTL, nil, zap.NewNop()))
		store, pinger = s, s
	}

	cmp := filter.Typed
	if cfg.comparison != "" {
		cmp = filter.Comparison(cfg.comparison)
	}

	return &Client{
		catalog:    cat,
		store:      store,
		searchSvc:  searchSvc,
		healthSvc:  healthuc.New(cat, pinger),
		comparison: cmp,
		obs:        obs,
	}, nil
}

// Close releases the cache connection, if any.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Search returns the objects matching q, in load order.
// Approach-level filters restrict each returned object's approaches.
func (c *Client) Search(ctx context.Context, q Query) (objs []Object, err error) {
	start := time.Now()
	defer func() { c.obs.observe(ctx, "search", start, len(objs), err) }()

	found, err := c.search(ctx, q)
	if err != nil {
		return nil, err
	}
	return fromObjects(found), nil
}

// Paths returns the approaches of the objects matching q, flattened in result order.
func (c *Client) Paths(ctx context.Context, q Query) (paths []Approach, err error) {
	start := time.Now()
	defer func() { c.obs.observe(ctx, "paths", start, len(paths), err) }()

	found, err := c.search(ctx, q)
	if err != nil {
		return nil, err
	}
	approaches := searchuc.Approaches(found)
	paths = make([]Approach, len(approaches))
	for i, a := range approaches {
		paths[i] = fromApproach(a)
	}
	return paths, nil
}

// Lookup returns one object by name. Missing objects yield ErrNotFound.
func (c *Client) Lookup(ctx context.Context, name string) (obj Object, err error) {
	start := time.Now()
	defer func() { c.obs.observe(ctx, "lookup", start, -1, err) }()

	o, err := c.searchSvc.Lookup(ctx, name)
	if err != nil {
		return Object{}, fmt.Errorf("lookup: %w", err)
	}
	return fromObject(o), nil
}

// Stats describes the loaded dataset.
func (c *Client) Stats() Stats {
	return Stats{
		Objects:    c.catalog.Len(),
		Dates:      c.catalog.DateCount(),
		Approaches: c.catalog.ApproachCount(),
		Version:    c.catalog.Version(),
	}
}

func (c *Client) search(ctx context.Context, q Query) ([]*neo.Object, error) {
	if q.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidQuery)
	}
	limit := q.Limit
	if limit == 0 {
		limit = domain.DefaultLimit
	}

	req, err := request.Build(request.Params{
		Date:      q.Date,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Filters:   q.Filters,
		Number:    limit,
	}, c.comparison)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	objs, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search timed out: %w", err)
		}
		return nil, fmt.Errorf("search: %w", err)
	}
	return objs, nil
}
