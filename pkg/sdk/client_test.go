package neodex

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dataset = "../../internal/ingest/testdata/neos.csv"

func openTest(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := Open(context.Background(), dataset, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func names(objs []Object) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.Name
	}
	return out
}

func TestOpen_Stats(t *testing.T) {
	c := openTest(t)

	st := c.Stats()
	assert.Equal(t, 3, st.Objects)
	assert.Equal(t, 3, st.Dates)
	assert.Equal(t, 4, st.Approaches)
	assert.NotEmpty(t, st.Version)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = Open(context.Background(), "neos.json")
	assert.ErrorIs(t, err, ErrUnsupportedFeature)
}

func TestSearch(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "equals",
			query: Query{Date: "2020-01-01"},
			want:  []string{"(2002 PB)", "(2016 YG)"},
		},
		{
			name:  "range with hazard filter",
			query: Query{StartDate: "2020-01-01", EndDate: "2020-01-05", Filters: []string{"is_hazardous:=:True"}},
			want:  []string{"(2002 PB)", "465633 (2009 JR5)"},
		},
		{
			name:  "limit",
			query: Query{StartDate: "2020-01-01", EndDate: "2020-01-05", Limit: 1},
			want:  []string{"(2002 PB)"},
		},
		{
			name:  "reversed range",
			query: Query{StartDate: "2020-01-05", EndDate: "2020-01-01"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestSearch_ApproachFilterRestricts(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	got, err := c.Search(ctx, Query{Date: "2020-01-05", Filters: []string{"distance:<=:500000"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Approaches, 1)
	assert.Equal(t, time.Date(2020, time.January, 5, 0, 0, 0, 0, time.UTC), got[0].Approaches[0].Date)

	full, err := c.Lookup(ctx, "(2002 PB)")
	require.NoError(t, err)
	assert.Len(t, full.Approaches, 2)
}

func TestSearch_Errors(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		query   Query
		wantErr error
	}{
		{"unknown field", Query{Date: "2020-01-01", Filters: []string{"color:=:red"}}, ErrUnsupportedFeature},
		{"malformed date", Query{Date: "01-01-2020"}, ErrMalformedDate},
		{"missing dates", Query{}, ErrInvalidQuery},
		{"negative limit", Query{Date: "2020-01-01", Limit: -1}, ErrInvalidQuery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Search(ctx, tt.query)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestLexicalComparison(t *testing.T) {
	typed := openTest(t)
	lexical := openTest(t, WithLexicalComparison())
	ctx := context.Background()

	// "71322.3117461447" < "9" as text but not as a number.
	q := Query{Date: "2020-01-01", Filters: []string{"speed:<:9"}}

	got, err := typed.Search(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = lexical.Search(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"(2002 PB)", "(2016 YG)"}, names(got))
}

func TestPaths(t *testing.T) {
	c := openTest(t)

	paths, err := c.Paths(context.Background(), Query{Date: "2020-01-05"})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "(2002 PB)", paths[0].Name)
	assert.InDelta(t, 6127016.3217012, paths[0].MissDistanceKm, 1e-6)
	assert.InDelta(t, 450001.25, paths[1].MissDistanceKm, 1e-6)
	assert.Equal(t, "Earth", paths[1].OrbitingBody)
}

func TestLookup_NotFound(t *testing.T) {
	c := openTest(t)

	_, err := c.Lookup(context.Background(), "Apophis")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHealth_NoCache(t *testing.T) {
	c := openTest(t)

	h := c.Health(context.Background())
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "ok", h.Checks["catalog"])
	_, hasCache := h.Checks["cache"]
	assert.False(t, hasCache)
}

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := openTest(t, WithPrometheus(reg))
	ctx := context.Background()

	_, err := c.Search(ctx, Query{Date: "2020-01-01"})
	require.NoError(t, err)
	_, err = c.Search(ctx, Query{})
	require.Error(t, err)
	_, err = c.Lookup(ctx, "(2016 YG)")
	require.NoError(t, err)

	m, err := newSDKMetrics(reg)
	require.NoError(t, err, "second registration must reuse collectors")

	assert.InDelta(t, 1, testutil.ToFloat64(m.operations.WithLabelValues("load", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.operations.WithLabelValues("search", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.operations.WithLabelValues("search", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.operations.WithLabelValues("lookup", "ok")), 0)
}

func TestObserver_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := openTest(t, WithLogger(logger))

	_, err := c.Search(context.Background(), Query{Date: "2020-01-01"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "op=search")
	assert.Contains(t, buf.String(), "results=2")

	buf.Reset()
	_, _ = c.Lookup(context.Background(), "Apophis")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "op=lookup")
}

func TestObserver_NilIsNoop(t *testing.T) {
	obs, err := newObserver(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, obs)
	obs.observe(context.Background(), "search", time.Now(), 0, nil)
}
