package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/claude/courtside/internal/coach"
	"github.com/claude/courtside/internal/models"
	"github.com/claude/courtside/internal/plan"
	"github.com/claude/courtside/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
)

// fakeBackend records the last call and returns canned results.
type fakeBackend struct {
	start    service.StartRequest
	skipUnit string
	skipDir  int
	limit    int
	view     coach.View
	err      error
}

func (f *fakeBackend) ListPlans(context.Context) ([]plan.Summary, error) {
	return []plan.Summary{{ID: "warmup", Type: models.PlanWarmup, Name: "Warm-Up Protocol"}}, f.err
}

func (f *fakeBackend) StartWorkout(_ context.Context, req service.StartRequest) (coach.View, error) {
	f.start = req
	return f.view, f.err
}

func (f *fakeBackend) Status(context.Context) (coach.View, error) { return f.view, f.err }

func (f *fakeBackend) Pause(context.Context) (Control, error) {
	return Control{OK: true, View: f.view}, f.err
}

func (f *fakeBackend) Resume(context.Context) (Control, error) {
	return Control{OK: true, View: f.view}, f.err
}

func (f *fakeBackend) Skip(_ context.Context, unit string, dir int) (Control, error) {
	f.skipUnit, f.skipDir = unit, dir
	return Control{OK: true, View: f.view}, f.err
}

func (f *fakeBackend) Stop(context.Context) (Control, error) {
	return Control{OK: true}, f.err
}

func (f *fakeBackend) History(_ context.Context, limit int) ([]models.HistoryRecord, error) {
	f.limit = limit
	return nil, f.err
}

func newHandlers(b Backend) *handlers {
	return &handlers{b: b, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return text.Text
}

// TestStartWorkoutArguments verifies tool arguments map onto the start
// request, with absent options left for the server defaults.
func TestStartWorkoutArguments(t *testing.T) {
	b := &fakeBackend{view: coach.View{Active: true, PlanName: "Week 1 Monday: Speed"}}
	h := newHandlers(b)

	res, err := h.startWorkout(context.Background(), callRequest("start_workout", map[string]any{
		"week":           float64(1),
		"day":            float64(1),
		"pause_duration": float64(15),
		"beeps":          false,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if b.start.Week != 1 || b.start.Day != 1 {
		t.Errorf("week/day = %d/%d", b.start.Week, b.start.Day)
	}
	if b.start.PauseDuration == nil || *b.start.PauseDuration != 15 {
		t.Errorf("pause_duration = %v", b.start.PauseDuration)
	}
	if b.start.Beeps == nil || *b.start.Beeps {
		t.Errorf("beeps = %v, want explicit false", b.start.Beeps)
	}
	if b.start.Voice != nil || b.start.WakeLock != nil {
		t.Error("absent options should stay nil")
	}
	if !strings.Contains(resultText(t, res), "Week 1 Monday: Speed") {
		t.Errorf("result = %s", resultText(t, res))
	}
}

func TestStartWorkoutRequiresPlan(t *testing.T) {
	h := newHandlers(&fakeBackend{})
	res, _ := h.startWorkout(context.Background(), callRequest("start_workout", map[string]any{}))
	if !res.IsError {
		t.Error("expected tool error without a plan")
	}
}

// TestStartWorkoutBackendError verifies backend failures become tool
// errors rather than protocol errors.
func TestStartWorkoutBackendError(t *testing.T) {
	h := newHandlers(&fakeBackend{err: errors.New("no workout plan selected")})
	res, err := h.startWorkout(context.Background(), callRequest("start_workout", map[string]any{"plan_id": "warmup"}))
	if err != nil {
		t.Fatalf("protocol error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "no workout plan selected") {
		t.Errorf("result = %+v", res)
	}
}

func TestSkip(t *testing.T) {
	b := &fakeBackend{}
	h := newHandlers(b)

	if _, err := h.skip(context.Background(), callRequest("skip", map[string]any{"unit": "section", "direction": "previous"})); err != nil {
		t.Fatal(err)
	}
	if b.skipUnit != "section" || b.skipDir != -1 {
		t.Errorf("skip = %s/%d, want section/-1", b.skipUnit, b.skipDir)
	}

	if _, err := h.skip(context.Background(), callRequest("skip", nil)); err != nil {
		t.Fatal(err)
	}
	if b.skipUnit != "exercise" || b.skipDir != 1 {
		t.Errorf("default skip = %s/%d, want exercise/1", b.skipUnit, b.skipDir)
	}

	res, _ := h.skip(context.Background(), callRequest("skip", map[string]any{"direction": "sideways"}))
	if !res.IsError {
		t.Error("expected error for bad direction")
	}
}

func TestWorkoutStatusIdle(t *testing.T) {
	h := newHandlers(&fakeBackend{})
	res, err := h.workoutStatus(context.Background(), callRequest("workout_status", nil))
	if err != nil {
		t.Fatal(err)
	}
	if got := resultText(t, res); got != "No workout in progress." {
		t.Errorf("status = %q", got)
	}
}

func TestGetHistoryDefaultLimit(t *testing.T) {
	b := &fakeBackend{}
	h := newHandlers(b)
	if _, err := h.getHistory(context.Background(), callRequest("get_history", nil)); err != nil {
		t.Fatal(err)
	}
	if b.limit != 20 {
		t.Errorf("limit = %d, want 20", b.limit)
	}
}

// TestCurrentWorkoutResource verifies the resource serves the view as JSON.
func TestCurrentWorkoutResource(t *testing.T) {
	h := newHandlers(&fakeBackend{view: coach.View{Active: true, PlanName: "Cool-Down Protocol", Remaining: "00:30"}})

	var req mcp.ReadResourceRequest
	req.Params.URI = "courtside://current_workout"
	contents, err := h.currentWorkout(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents = %T", contents[0])
	}
	var view coach.View
	if err := json.Unmarshal([]byte(text.Text), &view); err != nil {
		t.Fatal(err)
	}
	if view.PlanName != "Cool-Down Protocol" || view.Remaining != "00:30" {
		t.Errorf("view = %+v", view)
	}
}

// TestNewRegistersTools verifies the server advertises every tool.
func TestNewRegistersTools(t *testing.T) {
	s := New(&fakeBackend{}, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	tools := s.ListTools()
	for _, name := range []string{"list_plans", "start_workout", "workout_status", "pause_workout", "resume_workout", "skip", "stop_workout", "get_history"} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
}
