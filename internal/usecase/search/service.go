package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/neodex/internal/domain"
	"github.com/kailas-cloud/neodex/internal/domain/neo"
	"github.com/kailas-cloud/neodex/internal/domain/search/mode"
	"github.com/kailas-cloud/neodex/internal/domain/search/request"
	"github.com/kailas-cloud/neodex/internal/logger"
	"github.com/kailas-cloud/neodex/internal/metrics"
)

// ctxCheckEvery is how many candidates are processed between deadline checks.
const ctxCheckEvery = 1024

// Service resolves search requests against the catalog.
type Service struct {
	catalog Catalog
	cache   ResultCache
	timeout time.Duration
	group   singleflight.Group
}

// New creates a search service over catalog. A nil catalog makes every search fail
// with domain.ErrCatalogUnavailable.
func New(catalog Catalog) *Service {
	return &Service{catalog: catalog}
}

// WithCache enables the result cache.
func (s *Service) WithCache(c ResultCache) *Service {
	s.cache = c
	return s
}

// WithTimeout bounds each search. Zero disables the bound.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.timeout = d
	return s
}

// Search returns up to req.Limit() objects with an approach matching the date
// search and all filters. Results come in load order; the catalog is not mutated.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]*neo.Object, error) {
	if s.catalog == nil {
		return nil, domain.ErrCatalogUnavailable
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	log := logger.FromContext(ctx)

	var (
		results []*neo.Object
		cached  bool
		err     error
	)
	if s.cache != nil {
		results, cached, err = s.searchCached(ctx, req)
	} else {
		results, err = s.execute(ctx, req)
	}

	duration := time.Since(start)
	metrics.SearchDuration.WithLabelValues(string(req.Dates().Mode())).Observe(duration.Seconds())
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.SearchTotal.WithLabelValues(outcome).Inc()
		return nil, err
	}
	metrics.SearchTotal.WithLabelValues("ok").Inc()
	metrics.SearchResults.Observe(float64(len(results)))

	log.Debug("search",
		zap.String("dates", req.Dates().String()),
		zap.Strings("filters", req.Filters().Tokens()),
		zap.Int("limit", req.Limit()),
		zap.Int("results", len(results)),
		zap.Bool("cached", cached),
		zap.Duration("duration", duration),
	)
	return results, nil
}

// Lookup returns a single object by name.
func (s *Service) Lookup(_ context.Context, name string) (*neo.Object, error) {
	if s.catalog == nil {
		return nil, domain.ErrCatalogUnavailable
	}
	o, ok := s.catalog.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("object %q: %w", name, domain.ErrNotFound)
	}
	return o, nil
}

// searchCached serves from the cache and collapses concurrent identical misses.
func (s *Service) searchCached(ctx context.Context, req *request.Request) ([]*neo.Object, bool, error) {
	version := s.catalog.Version()
	fp := req.Fingerprint()

	if objs, ok := s.cache.Get(ctx, version, fp); ok {
		metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
		return objs, true, nil
	}
	metrics.SearchCacheTotal.WithLabelValues("miss").Inc()

	// The shared execution outlives any single caller; each caller stops
	// waiting when its own context ends.
	ch := s.group.DoChan(version+"|"+fp, func() (any, error) {
		shared := context.WithoutCancel(ctx)
		if s.timeout > 0 {
			var cancel context.CancelFunc
			shared, cancel = context.WithTimeout(shared, s.timeout)
			defer cancel()
		}
		objs, err := s.execute(shared, req)
		if err != nil {
			return nil, err
		}
		s.cache.Put(shared, version, fp, objs)
		return objs, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		objs, _ := res.Val.([]*neo.Object)
		return objs, false, nil
	case <-ctx.Done():
		return nil, false, fmt.Errorf("await shared search: %w", ctx.Err())
	}
}

func (s *Service) execute(ctx context.Context, req *request.Request) ([]*neo.Object, error) {
	candidates, err := s.candidates(ctx, req.Dates())
	if err != nil {
		return nil, err
	}

	objs := make([]*neo.Object, 0, candidates.GetCardinality())
	it := candidates.Iterator()
	for i := 0; it.HasNext(); i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("collect candidates: %w", err)
			}
		}
		if o := s.catalog.Object(it.Next()); o != nil {
			objs = append(objs, o)
		}
	}

	if !req.Filters().IsEmpty() {
		objs = req.Filters().Apply(objs)
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("apply filters: %w", err)
		}
	}

	if len(objs) > req.Limit() {
		objs = objs[:req.Limit()]
	}
	return objs, nil
}

// candidates collects the ordinals of every object with an approach matching
// the date search. The bitmap deduplicates objects reached through several
// dates or duplicate bucket entries.
func (s *Service) candidates(ctx context.Context, dates mode.DateSearch) (*roaring.Bitmap, error) {
	bm := roaring.New()
	if dates.Mode() == mode.Equals {
		bm.AddMany(s.catalog.OrdinalsOnDate(dates.Start()))
		return bm, nil
	}

	for i, d := range s.catalog.Dates() {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("scan dates: %w", err)
			}
		}
		if dates.Matches(d) {
			bm.AddMany(s.catalog.OrdinalsOnDate(d))
		}
	}
	return bm, nil
}

// Approaches flattens objects into their approaches, in result order.
// Path output is rendered from this.
func Approaches(objs []*neo.Object) []neo.Approach {
	var n int
	for _, o := range objs {
		n += len(o.Approaches())
	}
	out := make([]neo.Approach, 0, n)
	for _, o := range objs {
		out = append(out, o.Approaches()...)
	}
	return out
}
