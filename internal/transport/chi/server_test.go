package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/neodex/internal/domain/caldate"
	"github.com/kailas-cloud/neodex/internal/domain/neo"
	"github.com/kailas-cloud/neodex/internal/domain/search/filter"
	"github.com/kailas-cloud/neodex/internal/render"
	"github.com/kailas-cloud/neodex/internal/repository/catalog"
	healthuc "github.com/kailas-cloud/neodex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/neodex/internal/usecase/search"
)

// --- Fixtures ---

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	add := func(name string, hazardous bool, day int, distance float64) {
		o := c.UpsertObject(neo.Attributes{ID: "id-" + name, Name: name, Hazardous: hazardous, DiameterMinKm: 0.1})
		a := neo.NewApproach(name, 50000, distance, caldate.MustNew(2020, 1, day), "Earth")
		if err := c.RecordApproach(o, a); err != nil {
			t.Fatalf("RecordApproach: %v", err)
		}
	}
	add("A", true, 1, 100)
	add("B", false, 1, 200)
	add("A", true, 5, 5000)
	add("433 Eros", false, 3, 300)
	return c
}

type testEnv struct {
	handler http.Handler
	catalog *catalog.Catalog
}

func newTestEnv(t *testing.T, opts RouterOptions) testEnv {
	t.Helper()
	cat := testCatalog(t)
	srv := NewServer(
		searchuc.New(cat),
		cat,
		healthuc.New(cat, nil),
		filter.Typed,
		100,
		zap.NewNop(),
	)
	return testEnv{handler: NewRouter(srv, opts), catalog: cat}
}

func (e testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, httptest.NewRequest("GET", target, http.NoBody))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func objectNames(resp render.Response) []string {
	names := make([]string, len(resp.Objects))
	for i, o := range resp.Objects {
		names[i] = o.Name
	}
	return names
}

// --- Search ---

func TestSearch_Equals(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	rr := env.get(t, "/api/v1/search?date=2020-01-01")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}
	resp := decode[render.Response](t, rr)
	if resp.ReturnObject != "NEO" || resp.Count != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if names := objectNames(resp); names[0] != "A" || names[1] != "B" {
		t.Errorf("names = %v", names)
	}
}

func TestSearch_EndToEnd(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	q := url.Values{}
	q.Set("start_date", "2020-01-01")
	q.Set("end_date", "2020-01-05")
	q.Add("filter", "is_hazardous:=:True")
	q.Set("number", "5")

	rr := env.get(t, "/api/v1/search?"+q.Encode())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	resp := decode[render.Response](t, rr)
	if resp.Count != 1 || resp.Objects[0].Name != "A" {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.Objects[0].Approaches) != 2 {
		t.Errorf("A approaches = %d, want 2", len(resp.Objects[0].Approaches))
	}
}

func TestSearch_RepeatedFiltersAndPath(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	q := url.Values{}
	q.Set("start_date", "2020-01-01")
	q.Set("end_date", "2020-01-31")
	q.Add("filter", "distance:>=:150")
	q.Add("filter", "is_hazardous:=:False")
	q.Set("return_object", "Path")

	rr := env.get(t, "/api/v1/search?"+q.Encode())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	resp := decode[render.Response](t, rr)
	if resp.ReturnObject != "Path" || resp.Count != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Approaches[0].Name != "B" || resp.Approaches[1].Name != "433 Eros" {
		t.Errorf("approaches = %+v", resp.Approaches)
	}
}

func TestSearch_Limit(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	rr := env.get(t, "/api/v1/search?start_date=2020-01-01&end_date=2020-01-31&number=1")
	resp := decode[render.Response](t, rr)
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
}

func TestSearch_Errors(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	tests := []struct {
		name   string
		query  string
		status int
		code   string
	}{
		{"no date", "", http.StatusBadRequest, CodeInvalidQuery},
		{"half range", "start_date=2020-01-01", http.StatusBadRequest, CodeInvalidQuery},
		{"bad date", "date=2020-13-01", http.StatusBadRequest, CodeMalformedDate},
		{"unknown field", "date=2020-01-01&filter=color:=:red", http.StatusBadRequest, CodeUnsupportedFeature},
		{"unknown operator", "date=2020-01-01&filter=distance:!=:5", http.StatusBadRequest, CodeUnsupportedFeature},
		{"untyped value", "date=2020-01-01&filter=distance:>:far", http.StatusBadRequest, CodeInvalidQuery},
		{"zero number", "date=2020-01-01&number=0", http.StatusBadRequest, CodeInvalidQuery},
		{"number above max", "date=2020-01-01&number=101", http.StatusBadRequest, CodeInvalidQuery},
		{"unknown field wins over number", "date=2020-01-01&number=5000&filter=color:=:red", http.StatusBadRequest, CodeUnsupportedFeature},
		{"NaN value", "date=2020-01-01&filter=distance:=:NaN", http.StatusBadRequest, CodeInvalidQuery},
		{"number not int", "date=2020-01-01&number=ten", http.StatusBadRequest, CodeBadRequest},
		{"bad output", "date=2020-01-01&return_object=CSV", http.StatusBadRequest, CodeInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.get(t, "/api/v1/search?"+tt.query)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d, body = %s", rr.Code, tt.status, rr.Body.String())
			}
			errResp := decode[ErrorResponse](t, rr)
			if errResp.Code != tt.code {
				t.Errorf("code = %q, want %q (message %q)", errResp.Code, tt.code, errResp.Message)
			}
			if errResp.Message == "" {
				t.Error("message must not be empty")
			}
		})
	}
}

func TestSearch_NoCatalog(t *testing.T) {
	srv := NewServer(searchuc.New(nil), nil, healthuc.New(nil, nil), filter.Typed, 0, nil)
	h := NewRouter(srv, RouterOptions{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/search?date=2020-01-01", http.NoBody))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
	if errResp := decode[ErrorResponse](t, rr); errResp.Code != CodeCatalogUnavailable {
		t.Errorf("code = %q", errResp.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/stats", http.NoBody))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("stats status = %d", rr.Code)
	}
}

func TestSearch_Timeout(t *testing.T) {
	cat := testCatalog(t)
	srv := NewServer(searchuc.New(cat), cat, healthuc.New(cat, nil), filter.Typed, 10, zap.NewNop())

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	req := httptest.NewRequest("GET", "/api/v1/search?start_date=2020-01-01&end_date=2020-01-31", http.NoBody).
		WithContext(ctx)
	rr := httptest.NewRecorder()
	NewRouter(srv, RouterOptions{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if errResp := decode[ErrorResponse](t, rr); errResp.Code != CodeTimeout {
		t.Errorf("code = %q", errResp.Code)
	}
}

// --- Objects / stats / health ---

func TestGetObject(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	rr := env.get(t, "/api/v1/objects/"+url.PathEscape("433 Eros"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	obj := decode[render.ObjectDTO](t, rr)
	if obj.Name != "433 Eros" || obj.ID != "id-433 Eros" || len(obj.Approaches) != 1 {
		t.Errorf("object = %+v", obj)
	}
	if obj.Approaches[0].Date != "2020-01-03" {
		t.Errorf("date = %q", obj.Approaches[0].Date)
	}

	rr = env.get(t, "/api/v1/objects/Apophis")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing object status = %d", rr.Code)
	}
	if errResp := decode[ErrorResponse](t, rr); errResp.Code != CodeNotFound {
		t.Errorf("code = %q", errResp.Code)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	rr := env.get(t, "/api/v1/stats")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	stats := decode[StatsResponse](t, rr)
	want := StatsResponse{Objects: 3, Dates: 3, Approaches: 4, Version: env.catalog.Version(), Comparison: "typed"}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, RouterOptions{APIKeys: []string{"secret"}})
	rr := env.get(t, "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	h := decode[HealthResponse](t, rr)
	if h.Status != "ok" || h.Checks["catalog"] != "ok" {
		t.Errorf("health = %+v", h)
	}

	empty := catalog.New()
	srv := NewServer(searchuc.New(empty), empty, healthuc.New(empty, nil), filter.Typed, 10, nil)
	rr = httptest.NewRecorder()
	NewRouter(srv, RouterOptions{}).ServeHTTP(rr, httptest.NewRequest("GET", "/health", http.NoBody))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("empty catalog health status = %d", rr.Code)
	}
}

// --- Router ---

func TestRouter_AuthAppliesToAPI(t *testing.T) {
	env := newTestEnv(t, RouterOptions{APIKeys: []string{"secret"}})

	if rr := env.get(t, "/api/v1/stats"); rr.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d", rr.Code)
	}

	req := httptest.NewRequest("GET", "/api/v1/stats", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("authenticated status = %d", rr.Code)
	}
}

func TestRouter_RequestIDAndNotFound(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	rr := env.get(t, "/api/v2/nothing")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID must be set")
	}
	if errResp := decode[ErrorResponse](t, rr); errResp.Code != CodeNotFound {
		t.Errorf("code = %q", errResp.Code)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/search", http.NoBody))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if errResp := decode[ErrorResponse](t, rr); errResp.Code != CodeInternalError {
		t.Errorf("code = %q", errResp.Code)
	}
}
