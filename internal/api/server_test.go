package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/pubsim/internal/engine"
	"github.com/talgya/pubsim/internal/persistence"
)

const testKey = "s3cret"

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := &Server{
		Eng:      engine.NewEngine(engine.NewSimulation(engine.Options{Seed: 1}), 0),
		AdminKey: testKey,
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url, key string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestStatus_Public(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/status", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, engine.DefaultPubName, body["name"])
	assert.Equal(t, "£100.00", body["cash_display"])
	assert.Equal(t, "Week 1 Mon (closed)", body["sim_time"])
	assert.Equal(t, false, body["open"])
}

func TestReadEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/api/v1/report", "/api/v1/credit", "/api/v1/stock", "/api/v1/staff", "/api/v1/punters"} {
		resp, _ := do(t, http.MethodGet, ts.URL+path, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, _ := do(t, http.MethodGet, ts.URL+"/api/v1/reports", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAdmin_AuthRequired(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/speed", "", map[string]any{"speed": 2})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/speed", "wrong", map[string]any{"speed": 2})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	disabled := &Server{Eng: engine.NewEngine(engine.NewSimulation(engine.Options{Seed: 1}), 0)}
	ts2 := httptest.NewServer(disabled.Handler())
	defer ts2.Close()
	resp, _ = do(t, http.MethodPost, ts2.URL+"/api/v1/speed", "anything", map[string]any{"speed": 2})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdmin_Speed(t *testing.T) {
	s, ts := newTestServer(t)

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/speed", testKey, map[string]any{"speed": 4})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s.Eng.Do(func(*engine.Simulation) { assert.InDelta(t, 4, s.Eng.Speed, 1e-9) })

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/speed", testKey, map[string]any{"speed": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_BuyWine(t *testing.T) {
	s, ts := newTestServer(t)

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/stock/wine", testKey, map[string]any{"name": "House White", "qty": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s.Eng.Do(func(sim *engine.Simulation) { assert.Equal(t, 30, sim.Wine.Count()) })

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/stock/wine", testKey, map[string]any{"name": "House White", "qty": 0})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.NotEmpty(t, body["error"])

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/stock/wine", testKey, map[string]any{"name": "House White", "bottles": 2})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_HireAndFire(t *testing.T) {
	s, ts := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/staff", testKey, map[string]any{"role": "trainee"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id := body["id"]
	require.NotNil(t, id)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/staff", testKey, map[string]any{"role": "wizard"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/staff/%v", ts.URL, id), testKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s.Eng.Do(func(sim *engine.Simulation) { assert.Zero(t, sim.Staff.Count()) })

	resp, _ = do(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/staff/%v", ts.URL, id), testKey, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAdmin_CreditLine(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/api/v1/credit/lines", testKey, map[string]any{"bank": "bank of townland"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/credit/lines/"+id+"/enabled", testKey, map[string]any{"enabled": false})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/credit/lines/nope/repay", testKey, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/credit/lines", testKey, map[string]any{"bank": "Bank of Nowhere"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_CloseNight(t *testing.T) {
	s, ts := newTestServer(t)

	resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/night/close", testKey, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	s.Eng.Do(func(sim *engine.Simulation) { require.True(t, sim.OpenNight()) })
	resp, _ = do(t, http.MethodPost, ts.URL+"/api/v1/night/close", testKey, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	s.Eng.Do(func(sim *engine.Simulation) { assert.False(t, sim.NightOpen) })
}

func TestEvents_FromLogAndJournal(t *testing.T) {
	s, ts := newTestServer(t)
	s.Eng.Do(func(sim *engine.Simulation) {
		_, err := sim.BuyWine("House White", 2)
		require.NoError(t, err)
	})

	req, err := http.Get(ts.URL + "/api/v1/events")
	require.NoError(t, err)
	var fromLog []map[string]any
	require.NoError(t, json.NewDecoder(req.Body).Decode(&fromLog))
	req.Body.Close()
	assert.NotEmpty(t, fromLog)

	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	defer db.Close()
	run, err := db.StartRun(1, "test")
	require.NoError(t, err)
	s.Eng.Do(func(sim *engine.Simulation) { require.NoError(t, db.SaveRun(run, sim, sim.Log.Drain())) })

	withDB := &Server{Eng: s.Eng, DB: db, RunID: run}
	ts2 := httptest.NewServer(withDB.Handler())
	defer ts2.Close()

	req, err = http.Get(ts2.URL + "/api/v1/events")
	require.NoError(t, err)
	var fromDB []map[string]any
	require.NoError(t, json.NewDecoder(req.Body).Decode(&fromDB))
	req.Body.Close()
	assert.Len(t, fromDB, len(fromLog))

	resp, _ := do(t, http.MethodGet, ts2.URL+"/api/v1/reports", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdmin_RateLimited(t *testing.T) {
	s := &Server{
		Eng:       engine.NewEngine(engine.NewSimulation(engine.Options{Seed: 1}), 0),
		AdminKey:  testKey,
		AdminRate: 2,
	}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	for range 2 {
		resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/speed", testKey, map[string]any{"speed": 1})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := do(t, http.MethodPost, ts.URL+"/api/v1/speed", testKey, map[string]any{"speed": 1})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestRateLimiter_WindowResets(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 60, rl.RetryAfter("a"))

	now = now.Add(30500 * time.Millisecond)
	assert.Equal(t, 30, rl.RetryAfter("a"))

	now = now.Add(29500 * time.Millisecond)
	assert.Zero(t, rl.RetryAfter("a"))
	assert.True(t, rl.Allow("a"))
	assert.Zero(t, rl.RetryAfter("unknown"))
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "£1,234.50", money(1234.5))
	assert.Equal(t, "-£20.00", money(-20))
}
