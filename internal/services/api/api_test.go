package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	perr "gwdata/internal/platform/errors"
)

func newTestServer() *httptest.Server {
	r := chi.NewRouter()
	Register(r, Deps{ServiceName: "gwdata-serve-test", StartedAt: time.Now()})
	return httptest.NewServer(r)
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Code       perr.ErrorCode  `json:"code"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
}

func get(t *testing.T, url string) (int, envelope) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	status, env := get(t, ts.URL+"/meta/health")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var h HealthResponse
	if err := json.Unmarshal(env.Data, &h); err != nil {
		t.Fatal(err)
	}
	if !h.OK || h.Service != "gwdata-serve-test" {
		t.Fatalf("health = %+v", h)
	}
}

func TestRunsList(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	status, env := get(t, ts.URL+"/runs")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var runs []RunResponse
	if err := json.Unmarshal(env.Data, &runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) == 0 || runs[0].Name != "O1" {
		t.Fatalf("runs = %+v", runs)
	}
}

func TestResolveRun(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	status, env := get(t, ts.URL+"/runs/resolve?gps=1187008882")
	if status != http.StatusOK {
		t.Fatalf("status = %d, error = %s", status, env.Error)
	}
	var run RunResponse
	if err := json.Unmarshal(env.Data, &run); err != nil {
		t.Fatal(err)
	}
	if run.Name != "O2" {
		t.Fatalf("run = %+v", run)
	}
}

func TestResolveRunUnmapped(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	status, env := get(t, ts.URL+"/runs/resolve?gps=1200000000")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d", status)
	}
	if env.Code != perr.ErrorCodeUnmappedEpoch {
		t.Fatalf("code = %d", env.Code)
	}
}

func TestResolveRunBadQuery(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	status, _ := get(t, ts.URL+"/runs/resolve?gps=yesterday")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	status, _ = get(t, ts.URL+"/runs/resolve")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
}

func postPlans(t *testing.T, ts *httptest.Server, body any) (int, []PlanResult, envelope) {
	t.Helper()
	raw, _ := json.Marshal(body)
	resp, err := http.Post(ts.URL+"/plans", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST /plans: %v", err)
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	var results []PlanResult
	if len(env.Data) > 0 {
		_ = json.Unmarshal(env.Data, &results)
	}
	return resp.StatusCode, results, env
}

func TestPlans(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	status, results, env := postPlans(t, ts, PlanRequest{
		Detectors: []string{"H1", "V1", "K1"},
		GPSStart:  1380000000,
		GPSEnd:    1380000100,
		Version:   "C01",
		Directory: "/archive/cal",
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d, error = %s", status, env.Error)
	}
	if len(results) != 3 {
		t.Fatalf("results = %+v", results)
	}

	h1 := results[0]
	if h1.Plan == nil || h1.Plan.Source != "local storage" || h1.Plan.Run.Name != "O4a" {
		t.Fatalf("H1 = %+v", h1)
	}
	v1 := results[1]
	if v1.Plan == nil || v1.Plan.Source != "frame" || v1.Plan.Version != "" {
		t.Fatalf("V1 = %+v", v1)
	}
	k1 := results[2]
	if k1.Error == nil || k1.Error.Code != perr.ErrorCodeUnsupportedDetector {
		t.Fatalf("K1 = %+v", k1)
	}
}

func TestFrameQueries(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	raw, _ := json.Marshal(FrameQueryRequest{
		Detectors: []string{"H1", "V1"},
		GPSStart:  1264316100,
		GPSEnd:    1264316200,
		Source:    "private",
		Types:     map[string]string{"H1": "H1_HOFT_C01", "V1": "HoftOnline"},
		Host:      "datafind.example.org",
	})
	resp, err := http.Post(ts.URL+"/frames/queries", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST /frames/queries: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	var qs []FrameQueryResponse
	if err := json.Unmarshal(env.Data, &qs); err != nil {
		t.Fatal(err)
	}
	if len(qs) != 2 || qs[0].Site != "H" || qs[0].FrameType != "H1_HOFT_C01" || qs[1].Host != "datafind.example.org" {
		t.Fatalf("queries = %+v", qs)
	}
}

func TestFrameQueriesPrivateNeedsTypes(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	raw, _ := json.Marshal(FrameQueryRequest{
		Detectors: []string{"L1"},
		GPSStart:  1,
		GPSEnd:    2,
		Source:    "private",
	})
	resp, err := http.Post(ts.URL+"/frames/queries", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestPlansValidation(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	status, _, _ := postPlans(t, ts, PlanRequest{GPSStart: 1, GPSEnd: 2})
	if status != http.StatusBadRequest {
		t.Fatalf("missing detectors: status = %d", status)
	}

	status, _, _ = postPlans(t, ts, PlanRequest{
		Detectors: []string{"H1"}, GPSStart: 100, GPSEnd: 50,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("bad window: status = %d", status)
	}
}
