package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(b Backend, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Courtside", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Courtside voice-guided tennis conditioning coach. List plans, start a workout, check its status, pause, resume, skip exercises or sections, stop, and read completed workout history."),
	)

	h := &handlers{b: b, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListPlans, Handler: h.listPlans},
		server.ServerTool{Tool: toolStartWorkout, Handler: h.startWorkout},
		server.ServerTool{Tool: toolWorkoutStatus, Handler: h.workoutStatus},
		server.ServerTool{Tool: toolPauseWorkout, Handler: h.pauseWorkout},
		server.ServerTool{Tool: toolResumeWorkout, Handler: h.resumeWorkout},
		server.ServerTool{Tool: toolSkip, Handler: h.skip},
		server.ServerTool{Tool: toolStopWorkout, Handler: h.stopWorkout},
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resCurrentWorkout, Handler: h.currentWorkout},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	b   Backend
	log *slog.Logger
}

// --- Resource definitions ---

var resCurrentWorkout = mcp.NewResource(
	"courtside://current_workout",
	"Current Workout",
	mcp.WithResourceDescription("Presentation view of the running workout: phase, remaining time, section timeline and navigation state"),
	mcp.WithMIMEType("application/json"),
)
