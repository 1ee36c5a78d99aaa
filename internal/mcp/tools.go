package mcp

import (
	"context"

	"github.com/claude/courtside/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolListPlans = mcp.NewTool("list_plans",
	mcp.WithDescription("List runnable workout plans: the warm-up and cool-down protocols, every day of the 8-week program (IDs like w3d2) and saved custom workouts."),
)

var toolStartWorkout = mcp.NewTool("start_workout",
	mcp.WithDescription("Start a voice-guided workout, replacing any workout in progress. Name the plan by plan_id, by week and day of the 8-week program, or by custom_id."),
	mcp.WithString("plan_id", mcp.Description("Plan ID from list_plans (e.g. warmup, cooldown, w1d1)")),
	mcp.WithNumber("week", mcp.Description("8-week program week, 1-8")),
	mcp.WithNumber("day", mcp.Description("8-week program day within the week, 1-4")),
	mcp.WithString("custom_id", mcp.Description("Custom workout ID")),
	mcp.WithNumber("pause_duration", mcp.Description("Rest between exercises in seconds: 5, 10, 15, 20, 30, 45 or 60")),
	mcp.WithBoolean("voice", mcp.Description("Speak announcements")),
	mcp.WithBoolean("beeps", mcp.Description("Play countdown beeps")),
	mcp.WithBoolean("wake_lock", mcp.Description("Keep the screen awake")),
)

var toolWorkoutStatus = mcp.NewTool("workout_status",
	mcp.WithDescription("Current workout view: plan, exercise N of M, section, phase, remaining time, total elapsed and which skip controls are enabled."),
)

var toolPauseWorkout = mcp.NewTool("pause_workout",
	mcp.WithDescription("Pause the running workout. Does nothing if already paused."),
)

var toolResumeWorkout = mcp.NewTool("resume_workout",
	mcp.WithDescription("Resume a paused workout. Does nothing if already running."),
)

var toolSkip = mcp.NewTool("skip",
	mcp.WithDescription("Move to the next or previous exercise or section. The move is ignored at the ends of the plan."),
	mcp.WithString("unit", mcp.Description("What to skip. Defaults to exercise."), mcp.Enum("exercise", "section")),
	mcp.WithString("direction", mcp.Description("Skip direction. Defaults to next."), mcp.Enum("next", "previous")),
)

var toolStopWorkout = mcp.NewTool("stop_workout",
	mcp.WithDescription("Stop the workout and discard its saved progress. Only call this when the user confirmed stopping."),
)

var toolGetHistory = mcp.NewTool("get_history",
	mcp.WithDescription("Completed workouts, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum rows. Defaults to 20.")),
)

// --- Tool handlers ---

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}

func (h *handlers) listPlans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plans, err := h.b.ListPlans(ctx)
	if err != nil {
		h.log.Error("mcp list_plans", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(plans), nil
}

func (h *handlers) startWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sr := service.StartRequest{
		PlanID:   req.GetString("plan_id", ""),
		Week:     req.GetInt("week", 0),
		Day:      req.GetInt("day", 0),
		CustomID: req.GetString("custom_id", ""),
	}
	args := req.GetArguments()
	if _, ok := args["pause_duration"]; ok {
		n := req.GetInt("pause_duration", 0)
		sr.PauseDuration = &n
	}
	for key, dst := range map[string]**bool{"voice": &sr.Voice, "beeps": &sr.Beeps, "wake_lock": &sr.WakeLock} {
		if v, ok := args[key].(bool); ok {
			*dst = &v
		}
	}
	if sr.PlanID == "" && sr.Week == 0 && sr.CustomID == "" {
		return mcp.NewToolResultError("one of plan_id, week/day or custom_id is required"), nil
	}

	view, err := h.b.StartWorkout(ctx, sr)
	if err != nil {
		h.log.Warn("mcp start_workout", "error", err)
		return mcp.NewToolResultError("start failed: " + err.Error()), nil
	}
	return jsonResult(view), nil
}

func (h *handlers) workoutStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := h.b.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError("status failed: " + err.Error()), nil
	}
	if !view.Active {
		return mcp.NewToolResultText("No workout in progress."), nil
	}
	return jsonResult(view), nil
}

func (h *handlers) pauseWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.control(h.b.Pause(ctx))
}

func (h *handlers) resumeWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.control(h.b.Resume(ctx))
}

func (h *handlers) skip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	unit := req.GetString("unit", service.UnitExercise)
	dir := 1
	switch req.GetString("direction", "next") {
	case "next":
	case "previous":
		dir = -1
	default:
		return mcp.NewToolResultError("direction must be next or previous"), nil
	}
	return h.control(h.b.Skip(ctx, unit, dir))
}

func (h *handlers) stopWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.control(h.b.Stop(ctx))
}

func (h *handlers) control(ctl Control, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		h.log.Warn("mcp control", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(ctl), nil
}

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	rows, err := h.b.History(ctx, limit)
	if err != nil {
		h.log.Error("mcp get_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(rows), nil
}
