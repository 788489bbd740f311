package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/repflow/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// NewServer creates an MCP server exposing workout data to the AI coach.
// Tools that need live session state are registered only when the data
// source can provide it.
func NewServer(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepFlow", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepFlow workout coach data server. Query workout history, personal records, and training volume. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	tools := []server.ServerTool{
		{Tool: toolGetWorkoutHistory, Handler: h.getWorkoutHistory},
		{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		{Tool: toolGetTrainingVolume, Handler: h.getTrainingVolume},
	}
	if live, ok := ds.(LiveSource); ok {
		h.live = live
		tools = append(tools, server.ServerTool{Tool: toolGetActiveSession, Handler: h.getActiveSession})
	}
	s.AddTools(tools...)

	s.AddResources(
		server.ServerResource{Resource: resRecentHistory, Handler: h.recentHistory},
		server.ServerResource{Resource: resRecordBoard, Handler: h.recordBoard},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds   DataSource
	live LiveSource
	log  *slog.Logger
}

// --- Resource definitions ---

var resRecentHistory = mcp.NewResource(
	"repflow://recent_history",
	"Recent History",
	mcp.WithResourceDescription("Finished workouts from the last 14 days with full exercise/set detail"),
	mcp.WithMIMEType("application/json"),
)

var resRecordBoard = mcp.NewResource(
	"repflow://record_board",
	"Record Board",
	mcp.WithResourceDescription("All personal records with estimated one-rep maxes"),
	mcp.WithMIMEType("application/json"),
)

// --- Tool definitions ---

var toolGetWorkoutHistory = mcp.NewTool("get_workout_history",
	mcp.WithDescription("Retrieve finished workouts in a date range, newest first. Each entry includes duration, completed sets, total volume, and the full exercise/set tree."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("List all personal records: best weight/reps per exercise with estimated one-rep max."),
)

var toolGetTrainingVolume = mcp.NewTool("get_training_volume",
	mcp.WithDescription("Total training volume (weight x reps over completed sets) per workout in a date range."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetActiveSession = mcp.NewTool("get_active_session",
	mcp.WithDescription("The user's in-progress workout session, if any: exercises, sets, elapsed time, rest timer state."),
)

// --- Tool handlers ---

func (h *handlers) getWorkoutHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultDateRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	entries, err := h.historyBetween(ctx, UserIDFromContext(ctx), start, end)
	if err != nil {
		h.log.Error("mcp get_workout_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(entries)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPersonalRecords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := h.ds.LoadRecords(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(records)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultDateRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	entries, err := h.historyBetween(ctx, UserIDFromContext(ctx), start, end)
	if err != nil {
		h.log.Error("mcp get_training_volume", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	type volumePoint struct {
		Date   string  `json:"date"`
		Name   string  `json:"name"`
		Volume float64 `json:"volume"`
		Sets   int     `json:"sets"`
	}
	points := make([]volumePoint, 0, len(entries))
	for _, e := range entries {
		points = append(points, volumePoint{
			Date:   e.Date.Format("2006-01-02"),
			Name:   e.Name,
			Volume: e.TotalVolume,
			Sets:   e.CompletedSets,
		})
	}

	result, err := mcp.NewToolResultJSON(points)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getActiveSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := h.live.ActiveSession(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_active_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if state == nil {
		return mcp.NewToolResultText("no active session"), nil
	}

	result, err := mcp.NewToolResultJSON(state)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) recentHistory(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := time.Now()
	entries, err := h.historyBetween(ctx, UserIDFromContext(ctx), end.AddDate(0, 0, -14), end)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, entries)
}

func (h *handlers) recordBoard(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	records, err := h.ds.LoadRecords(ctx, UserIDFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, records)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// historyBetween filters loaded history to a date range. The store returns
// entries newest first; ordering is preserved.
func (h *handlers) historyBetween(ctx context.Context, userID int, start, end time.Time) ([]models.HistoryEntry, error) {
	entries, err := h.ds.LoadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	filtered := make([]models.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Date.Before(start) && e.Date.Before(end) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// defaultDateRange parses optional start/end strings, defaulting to the
// last 30 days.
func defaultDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
