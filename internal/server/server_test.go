package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/lotto-engine/internal/auth"
	"github.com/rickgao/lotto-engine/internal/drawsync"
	"github.com/rickgao/lotto-engine/internal/engine"
	"github.com/rickgao/lotto-engine/internal/model"
	"github.com/rickgao/lotto-engine/internal/pacer"
	"github.com/rickgao/lotto-engine/internal/pattern"
	"github.com/rickgao/lotto-engine/internal/progress"
	"github.com/rickgao/lotto-engine/internal/recommend"
	"github.com/rickgao/lotto-engine/internal/server/response"
	"github.com/rickgao/lotto-engine/internal/store/memory"
	"github.com/rickgao/lotto-engine/internal/store/storetest"
)

type fakeSync struct {
	has       bool
	report    *drawsync.Report
	err       error
	calls     atomic.Int32
	cancelled atomic.Bool
}

func (f *fakeSync) HasData(context.Context) (bool, error) { return f.has, nil }

func (f *fakeSync) Sync(context.Context) (*drawsync.Report, error) {
	f.calls.Add(1)
	return f.report, f.err
}

func (f *fakeSync) Cancel() bool {
	f.cancelled.Store(true)
	return true
}

func (f *fakeSync) Status(context.Context) (drawsync.Status, error) {
	return drawsync.Status{State: model.SyncState{AsOfDrawNo: 7}, Sweeps: 2}, nil
}

type stubPacer struct{ err error }

func (p stubPacer) Pause(context.Context) error { return p.err }

type fixture struct {
	srv   *Server
	store *memory.Store
	sync  *fakeSync
	hub   *progress.Hub
	creds *auth.Credentials
}

func newFixture(t *testing.T, pauseErr error) *fixture {
	t.Helper()
	st := memory.New()
	cache := pattern.NewCache(st.Draws(), nil)
	fs := &fakeSync{report: &drawsync.Report{Inserted: 3}}
	rec := recommend.New(recommend.Deps{
		Data:    fs,
		Metrics: st.Metrics(),
		Results: st.Results(),
		Engine:  engine.New(cache),
		Pacer:   stubPacer{err: pauseErr},
	}, nil)

	creds, err := auth.NewCredentials("admin", "0123456789abcdef0123")
	if err != nil {
		t.Fatal(err)
	}
	hub := progress.NewHub(nil)

	cfg := DefaultConfig()
	srv := New(cfg, Deps{
		Recommender: rec,
		Draws:       st.Draws(),
		Patterns:    cache,
		Sync:        fs,
		Hub:         hub,
		Verifier:    auth.NewVerifier(creds, time.Minute),
	}, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})
	return &fixture{srv: srv, store: st, sync: fs, hub: hub, creds: creds}
}

func (f *fixture) do(t *testing.T, method, target, body string, signed bool) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if signed {
		f.creds.Apply(r)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, r)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	env := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	f.sync.has = true

	rec := f.do(t, http.MethodGet, "/health", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || !body.HasData {
		t.Errorf("unexpected health: %+v", body)
	}
}

func TestStrategies(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/strategies", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list []strategyInfo
	decodeData(t, rec, &list)
	if len(list) != len(model.StrategyIDs) {
		t.Fatalf("got %d strategies, want %d", len(list), len(model.StrategyIDs))
	}
	heuristic := 0
	for _, s := range list {
		if s.Heuristic {
			heuristic++
		}
	}
	if heuristic != 4 {
		t.Errorf("heuristic strategies = %d, want 4", heuristic)
	}
}

func TestRecommendValidation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"strategy":`},
		{"unknown field", `{"strategy":"BALANCED","colour":"red"}`},
		{"missing strategy", `{"count":3}`},
		{"unknown strategy", `{"strategy":"LUCKY"}`},
		{"count too large", `{"strategy":"BALANCED","count":51}`},
		{"negative count", `{"strategy":"BALANCED","count":-1}`},
		{"bad window", `{"strategy":"BALANCED","windowSize":30}`},
		{"include out of range", `{"strategy":"BALANCED","constraints":{"include":[0]}}`},
		{"include repeated", `{"strategy":"BALANCED","constraints":{"include":[5,5]}}`},
		{"include too many", `{"strategy":"BALANCED","constraints":{"include":[1,2,3,4,5,6,7]}}`},
		{"include excluded", `{"strategy":"BALANCED","constraints":{"include":[7],"exclude":[7]}}`},
		{"odd inverted", `{"strategy":"BALANCED","constraints":{"oddMin":4,"oddMax":2}}`},
		{"odd out of range", `{"strategy":"BALANCED","constraints":{"oddMax":7}}`},
		{"sum out of range", `{"strategy":"BALANCED","constraints":{"sumMin":10}}`},
		{"similarity out of range", `{"strategy":"BALANCED","constraints":{"similarityThreshold":1.5}}`},
		{"user id too long", `{"strategy":"BALANCED","userId":"` + strings.Repeat("u", 65) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/recommendations", tt.body, false)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			if body := decodeError(t, rec); body.Reason != "invalid_request" {
				t.Errorf("reason = %q", body.Reason)
			}
		})
	}
}

func TestRecommend(t *testing.T) {
	f := newFixture(t, nil)

	body := `{"strategy":"BALANCED","count":4,"windowSize":20,"constraints":{"include":[7],"exclude":[1,2,3]}}`
	rec := f.do(t, http.MethodPost, "/api/v1/recommendations", body, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var res recommend.Response
	decodeData(t, rec, &res)
	if res.Window != 20 || res.Strategy != model.StrategyBalanced {
		t.Errorf("unexpected response header: %+v", res)
	}
	if len(res.Sets) == 0 || len(res.Sets) > 4 {
		t.Fatalf("got %d sets", len(res.Sets))
	}
	for _, s := range res.Sets {
		has7 := false
		for _, n := range s.Numbers {
			if n >= 1 && n <= 3 {
				t.Errorf("excluded number in %v", s.Numbers)
			}
			if n == 7 {
				has7 = true
			}
		}
		if !has7 {
			t.Errorf("include missing from %v", s.Numbers)
		}
	}
}

func TestRecommendExcludeFallsBackToFullPool(t *testing.T) {
	f := newFixture(t, nil)

	exclude := make([]string, 0, 42)
	for n := 1; n <= 42; n++ {
		exclude = append(exclude, strconv.Itoa(n))
	}
	body := `{"strategy":"BALANCED","count":3,"constraints":{"exclude":[` + strings.Join(exclude, ",") + `]}}`
	rec := f.do(t, http.MethodPost, "/api/v1/recommendations", body, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var res recommend.Response
	decodeData(t, rec, &res)
	if len(res.Sets) == 0 {
		t.Fatal("no sets returned")
	}
	for _, s := range res.Sets {
		low := 0
		for i, n := range s.Numbers {
			if n < model.MinNumber || n > model.MaxNumber || (i > 0 && s.Numbers[i-1] >= n) {
				t.Fatalf("invalid combination %v", s.Numbers)
			}
			if n <= 42 {
				low++
			}
		}
		if low < 3 {
			t.Errorf("combination %v not drawn from the full pool", s.Numbers)
		}
	}
}

func TestRecommendBusy(t *testing.T) {
	f := newFixture(t, pacer.ErrBusy)

	rec := f.do(t, http.MethodPost, "/api/v1/recommendations", `{"strategy":"AI_SIMULATION"}`, false)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Reason != "busy" {
		t.Errorf("reason = %q, want busy", body.Reason)
	}

	// non-heuristic strategies skip the pacer
	rec = f.do(t, http.MethodPost, "/api/v1/recommendations", `{"strategy":"BALANCED"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHistory(t *testing.T) {
	f := newFixture(t, nil)

	if rec := f.do(t, http.MethodGet, "/api/v1/recommendations", "", false); rec.Code != http.StatusBadRequest {
		t.Errorf("missing userId: status = %d", rec.Code)
	}
	if rec := f.do(t, http.MethodGet, "/api/v1/recommendations?userId=u&page=x", "", false); rec.Code != http.StatusBadRequest {
		t.Errorf("bad page: status = %d", rec.Code)
	}

	rec := f.do(t, http.MethodPost, "/api/v1/recommendations", `{"strategy":"FREQUENT_TOP","count":1,"userId":"u1"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("save: status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/api/v1/recommendations?userId=u1&page=1&size=10", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var page response.PaginatedResponse
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 1 || page.PageSize != 10 || page.TotalPages != 1 {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestDraws(t *testing.T) {
	f := newFixture(t, nil)

	if rec := f.do(t, http.MethodGet, "/api/v1/draws/latest", "", false); rec.Code != http.StatusNotFound {
		t.Errorf("empty latest: status = %d", rec.Code)
	}

	f.store.Seed(
		storetest.Draw(1, [6]int{1, 2, 3, 4, 5, 6}),
		storetest.Draw(2, [6]int{10, 12, 20, 31, 40, 44}),
	)

	tests := []struct {
		target string
		want   int
		drawNo int
	}{
		{"/api/v1/draws/latest", http.StatusOK, 2},
		{"/api/v1/draws/1", http.StatusOK, 1},
		{"/api/v1/draws/99", http.StatusNotFound, 0},
		{"/api/v1/draws/abc", http.StatusBadRequest, 0},
		{"/api/v1/draws/0", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.target, "", false)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.drawNo == 0 {
				return
			}
			var d model.Draw
			decodeData(t, rec, &d)
			if d.No != tt.drawNo {
				t.Errorf("drawNo = %d, want %d", d.No, tt.drawNo)
			}
		})
	}
}

func TestPatternStats(t *testing.T) {
	f := newFixture(t, nil)

	if rec := f.do(t, http.MethodGet, "/api/v1/stats/patterns?window=30", "", false); rec.Code != http.StatusBadRequest {
		t.Errorf("bad window: status = %d", rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/api/v1/stats/patterns?window=100", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats model.PatternStats
	decodeData(t, rec, &stats)
	if stats.Window != 100 || !stats.IsDefault() {
		t.Errorf("want default stats for window 100, got %+v", stats)
	}
}

func TestAdminRequiresSignature(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/admin/sync", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if f.sync.calls.Load() != 0 {
		t.Error("unsigned request reached the synchronizer")
	}

	other, _ := auth.NewCredentials("admin", "ffffffffffffffffffff")
	r := httptest.NewRequest(http.MethodGet, "/admin/sync/status", nil)
	other.Apply(r)
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, r)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret: status = %d", rr.Code)
	}
}

func TestAdminSync(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/admin/sync?wait=true", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("wait: status = %d", rec.Code)
	}
	var rep drawsync.Report
	decodeData(t, rec, &rep)
	if rep.Inserted != 3 {
		t.Errorf("inserted = %d", rep.Inserted)
	}

	rec = f.do(t, http.MethodPost, "/admin/sync", "", true)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("async: status = %d", rec.Code)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.srv.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if got := f.sync.calls.Load(); got != 2 {
		t.Errorf("sync calls = %d, want 2", got)
	}
}

func TestAdminSyncConflict(t *testing.T) {
	f := newFixture(t, nil)
	f.sync.report = nil
	f.sync.err = drawsync.ErrSyncInProgress

	rec := f.do(t, http.MethodPost, "/admin/sync?wait=1", "", true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Reason != "sync_in_progress" {
		t.Errorf("reason = %q", body.Reason)
	}
}

func TestAdminCancelAndStatus(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/admin/sync/cancel", "", true)
	if rec.Code != http.StatusOK || !f.sync.cancelled.Load() {
		t.Fatalf("cancel: status = %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/admin/sync/status", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: status = %d", rec.Code)
	}
	var st drawsync.Status
	decodeData(t, rec, &st)
	if st.State.AsOfDrawNo != 7 || st.Sweeps != 2 {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestSyncStream(t *testing.T) {
	f := newFixture(t, nil)
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	f.hub.Publish(progress.Event{Type: progress.EventDrawSaved, SyncID: "s1", DrawNo: 42})

	header := http.Header{}
	for k, v := range f.creds.SignRequest(http.MethodGet, "/admin/sync/stream") {
		header.Set(k, v)
	}
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/admin/sync/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev progress.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != progress.EventDrawSaved || ev.DrawNo != 42 {
		t.Errorf("unexpected event: %+v", ev)
	}

	f.hub.Publish(progress.Event{Type: progress.EventFinished, SyncID: "s1", Inserted: 1})
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != progress.EventFinished {
		t.Errorf("type = %q", ev.Type)
	}
}

func TestStreamRejectsUnsigned(t *testing.T) {
	f := newFixture(t, nil)
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/admin/sync/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial succeeded without a signature")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("want 401, got %v", resp)
	}
}

func TestRequestBodyLimit(t *testing.T) {
	f := newFixture(t, nil)
	big := `{"strategy":"BALANCED","userId":"` + string(bytes.Repeat([]byte("a"), maxBodyBytes)) + `"}`

	rec := f.do(t, http.MethodPost, "/api/v1/recommendations", big, false)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}
