package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claude/courtside/internal/clock"
	"github.com/claude/courtside/internal/coach"
	"github.com/claude/courtside/internal/metrics"
	"github.com/claude/courtside/internal/models"
	"github.com/claude/courtside/internal/plan"
	"github.com/claude/courtside/internal/service"
	"github.com/claude/courtside/internal/speech"
	"github.com/claude/courtside/internal/storage"
	"github.com/claude/courtside/internal/tone"
	"github.com/claude/courtside/internal/wakelock"
)

// newTestServer builds the full stack over a temp SQLite database with
// flows running inline on a manual clock.
func newTestServer(t *testing.T, apiKey string) (*Server, *clock.Manual) {
	t.Helper()
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	path := filepath.Join(t.TempDir(), "courtside.db")
	if err := storage.RunMigrations(path); err != nil {
		t.Fatal(err)
	}
	db, err := storage.Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	catalog, err := plan.Load("")
	if err != nil {
		t.Fatal(err)
	}

	clk := clock.NewManual(time.UnixMilli(1_700_000_000_000))
	m, reg := metrics.NewTestManagerAndRegistry()
	c := coach.New(coach.Options{
		Voice:    speech.NewGuide(speech.LogSpeaker{Log: log}, clk, 0, log),
		Tones:    tone.NewPlayer(tone.NopSink{}, clk, log),
		Wake:     wakelock.New(nil, log),
		Store:    db.Sessions(),
		Recorder: db,
		Metrics:  m,
		Clock:    clk,
		Logger:   log,
		Spawn:    func(fn func()) { fn() },
	})
	t.Cleanup(func() {
		c.Close()
		db.Close()
	})

	svc := service.New(c, catalog, db, models.DefaultWorkoutConfig(), log)
	return New(svc, m, reg, apiKey, log), clk
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v (body %q)", err, rec.Body.String())
	}
	return v
}

// TestListPlans verifies the catalog is served with the built-in plans first.
func TestListPlans(t *testing.T) {
	s, _ := newTestServer(t, "")
	rec := do(t, s, http.MethodGet, "/api/v1/plans", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	plans := decode[[]plan.Summary](t, rec)
	if len(plans) != 2+plan.ProgramWeeks*plan.ProgramDays {
		t.Errorf("plans = %d", len(plans))
	}
	if plans[0].ID != "warmup" {
		t.Errorf("first plan = %q, want warmup", plans[0].ID)
	}

	if rec := do(t, s, http.MethodGet, "/api/v1/plans/w1d1", ""); rec.Code != http.StatusOK {
		t.Errorf("GET w1d1 status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/plans/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET nope status = %d, want 404", rec.Code)
	}
}

// TestWorkoutLifecycle drives a workout through start, pause, navigation
// and stop over HTTP.
func TestWorkoutLifecycle(t *testing.T) {
	s, clk := newTestServer(t, "")

	rec := do(t, s, http.MethodPost, "/api/v1/workout/start", `{"plan_id":"warmup","pause_duration":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d: %s", rec.Code, rec.Body)
	}
	view := decode[coach.View](t, rec)
	if view.PlanName != "Warm-Up Protocol" || view.Progress != "Exercise 1 of 11" {
		t.Errorf("view = %+v", view)
	}

	clk.Tick()
	status := decode[coach.View](t, do(t, s, http.MethodGet, "/api/v1/workout", ""))
	if status.Phase != models.PhaseCountdown || status.Remaining != "00:04" {
		t.Errorf("after one tick: phase %s remaining %s", status.Phase, status.Remaining)
	}

	paused := decode[controlResponse](t, do(t, s, http.MethodPost, "/api/v1/workout/pause", ""))
	if !paused.OK || paused.View.Running {
		t.Errorf("pause = %+v", paused)
	}
	again := decode[controlResponse](t, do(t, s, http.MethodPost, "/api/v1/workout/pause", ""))
	if again.OK {
		t.Error("second pause reported a change")
	}

	next := decode[controlResponse](t, do(t, s, http.MethodPost, "/api/v1/workout/next?unit=section", ""))
	if !next.OK || next.View.Section != "Dynamic Mobility" || next.View.Running {
		t.Errorf("next section = %+v", next)
	}
	if rec := do(t, s, http.MethodPost, "/api/v1/workout/next?unit=set", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad unit status = %d, want 400", rec.Code)
	}

	toggled := decode[controlResponse](t, do(t, s, http.MethodPost, "/api/v1/workout/toggle", ""))
	if !toggled.View.Running {
		t.Error("toggle did not resume")
	}

	stopped := decode[controlResponse](t, do(t, s, http.MethodPost, "/api/v1/workout/stop", ""))
	if !stopped.OK || stopped.View.Active {
		t.Errorf("stop = %+v", stopped)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/session", ""); rec.Code != http.StatusNotFound {
		t.Errorf("session after stop status = %d, want 404", rec.Code)
	}
}

func TestStartErrors(t *testing.T) {
	s, _ := newTestServer(t, "")
	tests := map[string]struct {
		body string
		want int
	}{
		"bad json":      {`{`, http.StatusBadRequest},
		"no plan":       {`{}`, http.StatusBadRequest},
		"unknown plan":  {`{"plan_id":"tiebreak"}`, http.StatusNotFound},
		"bad pause":     {`{"plan_id":"warmup","pause_duration":7}`, http.StatusBadRequest},
		"bad program":   {`{"week":1,"day":5}`, http.StatusNotFound},
		"bad custom id": {`{"custom_id":"x"}`, http.StatusBadRequest},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/workout/start", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

// TestEventsSince verifies polling returns only events after the cursor.
func TestEventsSince(t *testing.T) {
	s, _ := newTestServer(t, "")
	do(t, s, http.MethodPost, "/api/v1/workout/start", `{"plan_id":"cooldown"}`)

	all := decode[[]coach.Event](t, do(t, s, http.MethodGet, "/api/v1/workout/events", ""))
	if len(all) == 0 || all[0].Type != coach.EventStarted {
		t.Fatalf("events = %+v", all)
	}
	last := all[len(all)-1].Seq
	if rest := decode[[]coach.Event](t, do(t, s, http.MethodGet, "/api/v1/workout/events?since="+itoa(last), "")); len(rest) != 0 {
		t.Errorf("events since last = %d, want 0", len(rest))
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/workout/events?since=-1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("negative since status = %d, want 400", rec.Code)
	}
}

func TestVisibilityPauses(t *testing.T) {
	s, _ := newTestServer(t, "")
	do(t, s, http.MethodPost, "/api/v1/workout/start", `{"plan_id":"warmup"}`)

	resp := decode[controlResponse](t, do(t, s, http.MethodPost, "/api/v1/workout/visibility", `{"hidden":true}`))
	if resp.View.Running {
		t.Error("hidden workout still running")
	}
	resp = decode[controlResponse](t, do(t, s, http.MethodPost, "/api/v1/workout/visibility", `{"hidden":false}`))
	if resp.View.Running {
		t.Error("showing the app must not resume")
	}
}

// TestCustomCRUD verifies custom workouts can be created, replaced, started
// and deleted.
func TestCustomCRUD(t *testing.T) {
	s, _ := newTestServer(t, "")

	rec := do(t, s, http.MethodPost, "/api/v1/custom", `{"name":"Serve Day","exercises":[{"name":"Serves","reps":"20 reps"}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	created := decode[models.CustomWorkout](t, rec)

	body, _ := json.Marshal(models.CustomWorkout{Name: "Serve Day v2", Exercises: created.Exercises})
	rec = do(t, s, http.MethodPut, "/api/v1/custom/"+created.ID.String(), string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body)
	}
	updated := decode[models.CustomWorkout](t, rec)
	if updated.ID != created.ID || updated.Name != "Serve Day v2" || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("updated = %+v", updated)
	}

	list := decode[[]models.CustomWorkout](t, do(t, s, http.MethodGet, "/api/v1/custom", ""))
	if len(list) != 1 {
		t.Errorf("list = %d, want 1", len(list))
	}

	view := decode[coach.View](t, do(t, s, http.MethodPost, "/api/v1/workout/start", `{"custom_id":"`+created.ID.String()+`"}`))
	if view.PlanName != "Serve Day v2" {
		t.Errorf("started %q", view.PlanName)
	}

	if rec := do(t, s, http.MethodPost, "/api/v1/custom", `{"name":"Empty","exercises":[]}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty workout status = %d, want 400", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/v1/custom/"+created.ID.String(), ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/custom/"+created.ID.String(), ""); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/custom/not-a-uuid", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

func TestHistoryAndWeek(t *testing.T) {
	s, _ := newTestServer(t, "")

	hist := decode[[]models.HistoryRecord](t, do(t, s, http.MethodGet, "/api/v1/history?limit=5", ""))
	if hist == nil || len(hist) != 0 {
		t.Errorf("history = %#v, want empty list", hist)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/history?limit=x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", rec.Code)
	}

	wp := decode[service.WeekProgress](t, do(t, s, http.MethodGet, "/api/v1/program/weeks/3", ""))
	if wp.Week != 3 || len(wp.Days) != plan.ProgramDays {
		t.Errorf("week = %+v", wp)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/program/weeks/12", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("week 12 status = %d, want 400", rec.Code)
	}
}

// TestAPIKeyRequired verifies the API and MCP mount are protected when a
// key is configured while /metrics stays open.
func TestAPIKeyRequired(t *testing.T) {
	s, _ := newTestServer(t, "k")
	s.MountMCP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	if rec := do(t, s, http.MethodGet, "/api/v1/plans", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("plans without key = %d, want 401", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/mcp", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("mcp without key = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	req.Header.Set("X-API-Key", "k")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("plans with key = %d, want 200", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("courtside_http_requests_total")) {
		t.Errorf("metrics status = %d", rec.Code)
	}
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
