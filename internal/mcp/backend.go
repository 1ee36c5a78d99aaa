package mcp

import (
	"context"

	"github.com/claude/courtside/internal/coach"
	"github.com/claude/courtside/internal/models"
	"github.com/claude/courtside/internal/plan"
	"github.com/claude/courtside/internal/service"
)

// Control is the result of a workout control: whether it changed anything,
// and the view afterwards. It matches the REST API's control response.
type Control struct {
	OK   bool       `json:"ok"`
	View coach.View `json:"view"`
}

// Backend abstracts the coach for MCP tools. Local (in-process) and
// HTTPClient (remote via REST API) both satisfy it.
type Backend interface {
	ListPlans(ctx context.Context) ([]plan.Summary, error)
	StartWorkout(ctx context.Context, req service.StartRequest) (coach.View, error)
	Status(ctx context.Context) (coach.View, error)
	Pause(ctx context.Context) (Control, error)
	Resume(ctx context.Context) (Control, error)
	Skip(ctx context.Context, unit string, dir int) (Control, error)
	Stop(ctx context.Context) (Control, error)
	History(ctx context.Context, limit int) ([]models.HistoryRecord, error)
}

// Local serves MCP tools from the service in the same process.
type Local struct {
	svc *service.Service
}

// Compile-time check: Local satisfies Backend.
var _ Backend = (*Local)(nil)

func NewLocal(svc *service.Service) *Local {
	return &Local{svc: svc}
}

func (l *Local) ListPlans(ctx context.Context) ([]plan.Summary, error) {
	return l.svc.ListPlans(ctx)
}

func (l *Local) StartWorkout(ctx context.Context, req service.StartRequest) (coach.View, error) {
	return l.svc.Start(ctx, req)
}

func (l *Local) Status(context.Context) (coach.View, error) {
	return l.svc.Status(), nil
}

func (l *Local) Pause(ctx context.Context) (Control, error) {
	view, ok := l.svc.Pause(ctx)
	return Control{OK: ok, View: view}, nil
}

func (l *Local) Resume(ctx context.Context) (Control, error) {
	view, ok := l.svc.Resume(ctx)
	return Control{OK: ok, View: view}, nil
}

func (l *Local) Skip(_ context.Context, unit string, dir int) (Control, error) {
	view, ok, err := l.svc.Navigate(unit, dir)
	return Control{OK: ok, View: view}, err
}

func (l *Local) Stop(ctx context.Context) (Control, error) {
	ok := l.svc.Stop(ctx)
	return Control{OK: ok, View: l.svc.Status()}, nil
}

func (l *Local) History(ctx context.Context, limit int) ([]models.HistoryRecord, error) {
	return l.svc.History(ctx, limit)
}
