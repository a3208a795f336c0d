package resultcache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/neodex/internal/db"
	"github.com/kailas-cloud/neodex/internal/domain/caldate"
	"github.com/kailas-cloud/neodex/internal/domain/neo"
)

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func newCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
}

func sampleObjects() []*neo.Object {
	a := neo.NewObject(neo.Attributes{ID: "1", Name: "A", DiameterMinKm: 0.5, DiameterMaxKm: 1.1, Hazardous: true})
	a.AddApproach(neo.NewApproach("A", 1000.5, 250000, caldate.MustNew(2020, 1, 1), "Earth"))
	a.AddApproach(neo.NewApproach("A", 2000, 300000, caldate.MustNew(2020, 1, 5), "Mars"))
	b := neo.NewObject(neo.Attributes{ID: "2", Name: "B"})
	return []*neo.Object{a, b}
}

func TestKey(t *testing.T) {
	k1 := Key("v1", "equals:2020-01-01|limit=10")
	k2 := Key("v2", "equals:2020-01-01|limit=10")
	k3 := Key("v1", "equals:2020-01-01|limit=11")

	if !strings.HasPrefix(k1, "neodex:search:v1:") {
		t.Errorf("key = %q, want neodex:search:v1: prefix", k1)
	}
	if len(strings.TrimPrefix(k1, "neodex:search:v1:")) != 64 {
		t.Errorf("key hash should be hex sha256: %q", k1)
	}
	if k1 == k2 || k1 == k3 {
		t.Error("keys must differ by version and fingerprint")
	}
	if k1 != Key("v1", "equals:2020-01-01|limit=10") {
		t.Error("key must be deterministic")
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	ms := newMockKVStore()
	c := New(ms, time.Minute, nil, zap.NewNop())
	ctx := context.Background()

	c.Put(ctx, "v1", "fp", sampleObjects())
	if ttl := ms.ttls[Key("v1", "fp")]; ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}

	got, ok := c.Get(ctx, "v1", "fp")
	if !ok {
		t.Fatal("expected hit")
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	a := got[0]
	if a.ID() != "1" || a.Name() != "A" || !a.Hazardous() || a.DiameterMaxKm() != 1.1 {
		t.Errorf("object = %+v", a.Attributes())
	}
	if len(a.Approaches()) != 2 {
		t.Fatalf("approaches = %d, want 2", len(a.Approaches()))
	}
	second := a.Approaches()[1]
	if second.Date() != caldate.MustNew(2020, 1, 5) || second.OrbitingBody() != "Mars" || second.Name() != "A" {
		t.Errorf("approach = %+v", second)
	}
	if len(got[1].Approaches()) != 0 {
		t.Errorf("B approaches = %d, want 0", len(got[1].Approaches()))
	}
}

func TestPutGet_Empty(t *testing.T) {
	c := New(newMockKVStore(), 0, nil, nil)
	c.Put(context.Background(), "v1", "fp", []*neo.Object{})

	got, ok := c.Get(context.Background(), "v1", "fp")
	if !ok {
		t.Fatal("an empty result is still a hit")
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestGet_Miss(t *testing.T) {
	counter := newCounter()
	c := New(newMockKVStore(), time.Minute, counter, zap.NewNop())

	if _, ok := c.Get(context.Background(), "v1", "absent"); ok {
		t.Fatal("expected miss")
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("error")); v != 0 {
		t.Errorf("a plain miss is not an error, got %v", v)
	}
}

func TestGet_StoreError(t *testing.T) {
	ms := newMockKVStore()
	ms.getErr = errors.New("connection refused")
	counter := newCounter()
	c := New(ms, time.Minute, counter, zap.NewNop())

	if _, ok := c.Get(context.Background(), "v1", "fp"); ok {
		t.Fatal("store error must read as a miss")
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("error")); v != 1 {
		t.Errorf("error count = %v, want 1", v)
	}
}

func TestGet_Corrupt(t *testing.T) {
	ms := newMockKVStore()
	ms.data[Key("v1", "fp")] = []byte("not json")
	c := New(ms, time.Minute, nil, zap.NewNop())

	if _, ok := c.Get(context.Background(), "v1", "fp"); ok {
		t.Fatal("corrupt entry must read as a miss")
	}
}

func TestPut_StoreError(t *testing.T) {
	ms := newMockKVStore()
	ms.setErr = errors.New("OOM")
	counter := newCounter()
	c := New(ms, time.Minute, counter, zap.NewNop())

	c.Put(context.Background(), "v1", "fp", sampleObjects())
	if v := testutil.ToFloat64(counter.WithLabelValues("error")); v != 1 {
		t.Errorf("error count = %v, want 1", v)
	}
}

func TestNew_DefaultTTL(t *testing.T) {
	ms := newMockKVStore()
	c := New(ms, 0, nil, nil)
	c.Put(context.Background(), "v1", "fp", nil)
	if ttl := ms.ttls[Key("v1", "fp")]; ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", ttl, DefaultTTL)
	}
}
