package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockCatalog struct {
	n int
}

func (m *mockCatalog) Len() int { return m.n }

type mockCachePinger struct {
	err error
}

func (m *mockCachePinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		catalog    CatalogSizer
		cache      CachePinger
		wantStatus Status
		wantChecks map[string]CheckResult
	}{
		{
			name:       "all healthy",
			catalog:    &mockCatalog{n: 3},
			cache:      &mockCachePinger{},
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{"catalog": CheckOK, "cache": CheckOK},
		},
		{
			name:       "no cache configured",
			catalog:    &mockCatalog{n: 3},
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{"catalog": CheckOK},
		},
		{
			name:       "cache down",
			catalog:    &mockCatalog{n: 3},
			cache:      &mockCachePinger{err: errors.New("connection refused")},
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{"catalog": CheckOK, "cache": CheckError},
		},
		{
			name:       "empty catalog",
			catalog:    &mockCatalog{},
			cache:      &mockCachePinger{},
			wantStatus: Unhealthy,
			wantChecks: map[string]CheckResult{"catalog": CheckError, "cache": CheckOK},
		},
		{
			name:       "no catalog and cache down",
			cache:      &mockCachePinger{err: errors.New("timeout")},
			wantStatus: Unhealthy,
			wantChecks: map[string]CheckResult{"catalog": CheckError, "cache": CheckError},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.catalog, tt.cache).Check(context.Background())
			if r.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", r.Status, tt.wantStatus)
			}
			if len(r.Checks) != len(tt.wantChecks) {
				t.Fatalf("checks = %v, want %v", r.Checks, tt.wantChecks)
			}
			for k, v := range tt.wantChecks {
				if r.Checks[k] != v {
					t.Errorf("check %q = %q, want %q", k, r.Checks[k], v)
				}
			}
		})
	}
}
