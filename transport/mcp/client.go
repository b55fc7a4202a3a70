package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/pairmatch/game/engine"
	"github.com/wricardo/mcp-training/pairmatch/game/profile"
	"github.com/wricardo/mcp-training/pairmatch/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Pair Match",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Pair Match - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Every key on the board appears on exactly two face-down tokens. Reveal two
tokens per turn; equal keys stay matched, different keys turn back over.
Match every pair to win.

AVAILABLE TOOLS:
- create_session: Create a session (profile, difficulty, mode)
- get_session: Show the board and score
- list_sessions: List live sessions
- start_session / pause_session / resume_session / end_session: Lifecycle
- take_turn: Reveal two tokens
- bulk_turns: Play several turns at once
- flip_token: Turn up one token; the second flip completes a turn
- use_hint: Spend a hint to locate an unmatched pair
- list_difficulties / list_modes: Available settings
- create_profile / get_profile / list_profiles: Player profiles and statistics
- game_instructions: Full rules

NOTE: Remember every key you have seen. Remembered positions win games.`),
	)

	// Register all tools
	c.registerTools()
}

func sessionIDProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Session ID",
	}
}

func positionProperty(description string) map[string]any {
	return map[string]any{
		"type":        "object",
		"description": description,
		"properties": map[string]any{
			"row": map[string]any{"type": "integer"},
			"col": map[string]any{"type": "integer"},
		},
		"required": []string{"row", "col"},
	}
}

func sessionOnlySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]any{"session_id": sessionIDProperty()},
		Required:   []string{"session_id"},
	}
}

func emptySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]any{},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session. A profile keeps one live session; creating another abandons the previous one.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"profile": map[string]any{
					"type":        "string",
					"description": "Profile name (optional, letters, digits, '-' and '_')",
				},
				"difficulty": map[string]any{
					"type":        "string",
					"description": "Difficulty name, see list_difficulties (optional)",
				},
				"mode": map[string]any{
					"type":        "string",
					"enum":        []string{string(engine.ModeEndless), string(engine.ModeTimed)},
					"description": "Game mode (optional)",
				},
				"auto_start": map[string]any{
					"type":        "boolean",
					"description": "Start the session immediately",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all live game sessions",
		InputSchema: emptySchema(),
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Show the board, score and timer of a session",
		InputSchema: sessionOnlySchema(),
	}, c.handleGetSession)

	// Lifecycle
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_session",
		Description: "Start the session clock",
		InputSchema: sessionOnlySchema(),
	}, c.lifecycleHandler("start"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "pause_session",
		Description: "Pause the session clock",
		InputSchema: sessionOnlySchema(),
	}, c.lifecycleHandler("pause"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "resume_session",
		Description: "Resume a paused session",
		InputSchema: sessionOnlySchema(),
	}, c.lifecycleHandler("resume"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "end_session",
		Description: "End the session and record its statistics",
		InputSchema: sessionOnlySchema(),
	}, c.lifecycleHandler("end"))

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "take_turn",
		Description: "Reveal two tokens. Matching keys stay face up and score points.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"first":      positionProperty("First token position"),
				"second":     positionProperty("Second token position"),
			},
			Required: []string{"session_id", "first", "second"},
		},
	}, c.handleTakeTurn)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_turns",
		Description: "Play several turns in order. Stops at the first error or when the game ends.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"turns": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"first":  positionProperty("First token position"),
							"second": positionProperty("Second token position"),
						},
						"required": []string{"first", "second"},
					},
					"description": fmt.Sprintf("Turns to play (at most %d)", service.MaxBulkTurns),
				},
			},
			Required: []string{"session_id", "turns"},
		},
	}, c.handleBulkTurns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "flip_token",
		Description: "Turn up one token. The next flip completes the turn with it and counts as a move",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"row":        map[string]any{"type": "integer", "description": "Row (0-based)"},
				"col":        map[string]any{"type": "integer", "description": "Column (0-based)"},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleFlipToken)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "use_hint",
		Description: "Spend a hint to learn the positions of an unmatched pair",
		InputSchema: sessionOnlySchema(),
	}, c.handleUseHint)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_difficulties",
		Description: "List available difficulties",
		InputSchema: emptySchema(),
	}, c.handleListDifficulties)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_modes",
		Description: "List available game modes",
		InputSchema: emptySchema(),
	}, c.handleListModes)

	// Profiles
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_profile",
		Description: "Create a player profile",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"name": map[string]any{"type": "string", "description": "Profile name"},
			},
			Required: []string{"name"},
		},
	}, c.handleCreateProfile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_profile",
		Description: "Show a profile's statistics",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"name": map[string]any{"type": "string", "description": "Profile name"},
			},
			Required: []string{"name"},
		},
	}, c.handleGetProfile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_profiles",
		Description: "List profile names",
		InputSchema: emptySchema(),
	}, c.handleListProfiles)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: emptySchema(),
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID string, action string) string {
	path := "/api/sessions/" + url.PathEscape(sessionID)
	if action != "" {
		path += "/" + action
	}
	return path
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return map[string]any{}
	}
	return args
}

// intArg reads a JSON number argument
func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// positionArg reads a {row, col} object argument
func positionArg(args map[string]any, key string) (engine.Position, error) {
	raw, ok := args[key].(map[string]any)
	if !ok {
		return engine.Position{}, fmt.Errorf("%s must be an object with row and col", key)
	}
	row, okRow := intArg(raw, "row")
	col, okCol := intArg(raw, "col")
	if !okRow || !okCol {
		return engine.Position{}, fmt.Errorf("%s must be an object with row and col", key)
	}
	return engine.Position{Row: row, Col: col}, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := service.CreateSessionRequest{}
	body.Profile, _ = args["profile"].(string)
	body.Difficulty, _ = args["difficulty"].(string)
	body.Mode, _ = args["mode"].(string)
	body.AutoStart, _ = args["auto_start"].(bool)

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\n", info.ID) + formatSessionInfo(&info)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Live Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		owner := s.Profile
		if owner == "" {
			owner = "anonymous"
		}
		fmt.Fprintf(&b, "- %s (%s, %s %s, %s, %d/%d pairs, created %s)\n",
			s.ID, owner, s.Difficulty, s.Mode, s.Status, s.MatchedPairs, s.TotalPairs,
			s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) lifecycleHandler(action string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, _ := arguments(request)["session_id"].(string)

		var info service.SessionInfo
		if err := c.apiCall(ctx, "POST", sessionPath(sessionID, action), nil, &info); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(formatSessionInfo(&info)), nil
	}
}

func (c *Client) handleTakeTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	first, err := positionArg(args, "first")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	second, err := positionArg(args, "second")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.TurnResult
	body := service.TurnRequest{First: first, Second: second}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "turn"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTurnResult(first, second, &result)), nil
}

func (c *Client) handleBulkTurns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	rawTurns, _ := args["turns"].([]any)

	turns := make([]service.TurnRequest, 0, len(rawTurns))
	for i, raw := range rawTurns {
		obj, _ := raw.(map[string]any)
		first, err := positionArg(obj, "first")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("turn %d: %v", i+1, err)), nil
		}
		second, err := positionArg(obj, "second")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("turn %d: %v", i+1, err)), nil
		}
		turns = append(turns, service.TurnRequest{First: first, Second: second})
	}

	var result service.BulkTurnResult
	body := map[string]any{"turns": turns}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "bulk-turns"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkTurnResult(&result)), nil
}

func (c *Client) handleFlipToken(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required"), nil
	}

	var result service.FlipResult
	body := engine.Position{Row: row, Col: col}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "flip"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Token at (%d,%d): %s\n", row, col, result.Token.Key)
	if result.Turn != nil {
		text += fmt.Sprintf("Turn %d: (%d,%d)=%s and (%d,%d)=%s\n", result.Turn.Idx,
			result.Turn.First.Row, result.Turn.First.Col, result.Turn.Keys[0],
			result.Turn.Second.Row, result.Turn.Second.Col, result.Turn.Keys[1])
	}
	text += result.Message + "\n"
	if result.Session != nil {
		text += fmt.Sprintf("Score: %d | Pairs: %d/%d\n", result.Session.Score, result.Session.MatchedPairs, result.Session.TotalPairs)
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleUseHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var result service.HintResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "hint"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Hint: (%d,%d) and (%d,%d) hold the same key.\nHints left: %d\n",
		result.First.Row, result.First.Col, result.Second.Row, result.Second.Col, result.HintsLeft)
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleListDifficulties(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Difficulties []service.DifficultyInfo `json:"difficulties"`
	}
	if err := c.apiCall(ctx, "GET", "/api/difficulties", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Difficulties:\n\n")
	for _, d := range response.Difficulties {
		fmt.Fprintf(&b, "- %s: %dx%d board, %d pairs, %ds timed budget, %d hints",
			d.Name, d.Rows, d.Cols, d.Pairs, d.TimeBudgetSeconds, d.Hints)
		if d.Description != "" {
			fmt.Fprintf(&b, " (%s)", d.Description)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListModes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Modes []service.ModeInfo `json:"modes"`
	}
	if err := c.apiCall(ctx, "GET", "/api/modes", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Modes:\n\n")
	for _, m := range response.Modes {
		fmt.Fprintf(&b, "- %s: %s\n", m.Name, m.Description)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleCreateProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, _ := arguments(request)["name"].(string)

	var p profile.Profile
	if err := c.apiCall(ctx, "POST", "/api/profiles", map[string]string{"name": name}, &p); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created profile: %s\n", p.Name)), nil
}

func (c *Client) handleGetProfile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, _ := arguments(request)["name"].(string)

	var response struct {
		Profile       profile.Profile `json:"profile"`
		AverageMoves  float64         `json:"average_moves"`
		AverageTimeMs int64           `json:"average_time_ms"`
	}
	if err := c.apiCall(ctx, "GET", "/api/profiles/"+url.PathEscape(name), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatProfile(&response.Profile, response.AverageMoves, response.AverageTimeMs)), nil
}

func (c *Client) handleListProfiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Profiles []string `json:"profiles"`
	}
	if err := c.apiCall(ctx, "GET", "/api/profiles", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Profiles) == 0 {
		return mcp.NewToolResultText("No profiles yet.\n"), nil
	}
	return mcp.NewToolResultText("Profiles:\n- " + strings.Join(response.Profiles, "\n- ") + "\n"), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Pair Match - Complete Instructions

GAME OBJECTIVE:
The board is a grid of face-down tokens. Every key appears on exactly two
tokens. Find all pairs.

TURNS:
- A turn reveals two different tokens (take_turn with first and second).
- Equal keys: both tokens stay face up as a matched pair and you score.
- Different keys: both tokens turn back over.
- Every turn counts as one move, matched or not.

BOARD LEGEND:
- ??     face-down token
- key    face-up token
- [key]  matched token
Positions are (row,col), both 0-based, row 0 at the top.

MODES:
- endless: no clock pressure, the session ends when every pair is matched.
- timed: the session also ends when the time budget runs out. Pausing stops
  the clock. Remaining whole seconds earn a bonus when you finish early.

SCORING:
Each match earns points from the difficulty's scoring rules. Fewer misses
and faster matches earn more. Completing the board adds a completion bonus.

HINTS:
use_hint reveals the positions of one unmatched pair. Each difficulty grants
a fixed number of hints.

STRATEGY:
- Keep a written map of every key you have seen and where.
- Reveal unknown tokens first; only play a known pair once you have seen both halves.
- flip_token turns up one token at a time; every second flip is a move.

PROFILES:
Play under a profile to keep statistics: games played, average moves,
average time and best score. Only ended sessions count.

Good luck and sharp memory!`

// Formatting helpers

func formatSessionInfo(info *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", info.ID)
	if info.Profile != "" {
		fmt.Fprintf(&b, "Profile: %s\n", info.Profile)
	}
	fmt.Fprintf(&b, "Difficulty: %s | Mode: %s | Status: %s\n", info.Difficulty, info.Mode, info.Status)
	fmt.Fprintf(&b, "Score: %d | Moves: %d | Pairs: %d/%d | Hints left: %d\n",
		info.Score, info.Moves, info.MatchedPairs, info.TotalPairs, info.HintsLeft)
	fmt.Fprintf(&b, "Elapsed: %s", formatMillis(info.ElapsedMillis))
	if info.Mode == engine.ModeTimed {
		fmt.Fprintf(&b, " | Remaining: %s", formatMillis(info.RemainingMillis))
	}
	b.WriteString("\n")

	if info.GameOver {
		if info.MatchedPairs == info.TotalPairs {
			b.WriteString("🎉 BOARD CLEARED!\n")
		} else {
			b.WriteString("⏱ GAME OVER\n")
		}
	}

	if len(info.Board) > 0 {
		b.WriteString("\n")
		b.WriteString(formatBoard(info.Board))
	}
	return b.String()
}

// formatBoard renders the grid with row and column indices
func formatBoard(board [][]engine.CellView) string {
	width := 4
	for _, row := range board {
		for _, cell := range row {
			if l := len(cell.Key) + 2; l > width {
				width = l
			}
		}
	}

	var b strings.Builder
	b.WriteString("    ")
	for col := range board[0] {
		fmt.Fprintf(&b, "%-*d ", width, col)
	}
	b.WriteString("\n")

	for r, row := range board {
		fmt.Fprintf(&b, "%2d  ", r)
		for _, cell := range row {
			fmt.Fprintf(&b, "%-*s ", width, cellLabel(cell))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func cellLabel(cell engine.CellView) string {
	switch {
	case cell.Matched:
		return "[" + cell.Key + "]"
	case cell.FaceUp:
		return cell.Key
	default:
		return "??"
	}
}

func formatTurnResult(first, second engine.Position, result *service.TurnResult) string {
	var b strings.Builder
	if result.Matched {
		fmt.Fprintf(&b, "✓ Match! (%d,%d) and (%d,%d) are both %q (+%d)\n",
			first.Row, first.Col, second.Row, second.Col, result.First.Key, result.Award)
	} else {
		fmt.Fprintf(&b, "✗ No match: (%d,%d) is %q, (%d,%d) is %q\n",
			first.Row, first.Col, result.First.Key, second.Row, second.Col, result.Second.Key)
	}
	if result.Message != "" {
		fmt.Fprintf(&b, "%s\n", result.Message)
	}
	if result.Session != nil {
		b.WriteString("\n")
		b.WriteString(formatSessionInfo(result.Session))
	}
	return b.String()
}

func formatBulkTurnResult(result *service.BulkTurnResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turns: %d/%d executed | Matches: %d | Score delta: %+d\n",
		result.TurnsExecuted, result.RequestedTurns, result.Matches, result.ScoreDelta)
	if result.Truncated {
		fmt.Fprintf(&b, "Only the first %d turns were played.\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on turn %d: %s\n", result.StoppedOnTurn, result.StoppedReason)
	}

	for _, turn := range result.Turns {
		mark := "✗"
		if turn.Matched {
			mark = "✓"
		}
		fmt.Fprintf(&b, "%3d. %s (%d,%d)=%s (%d,%d)=%s\n", turn.Idx, mark,
			turn.First.Row, turn.First.Col, turn.Keys[0],
			turn.Second.Row, turn.Second.Col, turn.Keys[1])
	}

	if result.Session != nil {
		b.WriteString("\n")
		b.WriteString(formatSessionInfo(result.Session))
	}
	return b.String()
}

func formatProfile(p *profile.Profile, averageMoves float64, averageTimeMs int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile: %s\n", p.Name)
	fmt.Fprintf(&b, "Games played: %d (%d timed)\n", p.Stats.GamesPlayed, p.Stats.TimedGamesPlayed)
	if p.Stats.GamesPlayed > 0 {
		fmt.Fprintf(&b, "Average moves: %.1f\n", averageMoves)
		fmt.Fprintf(&b, "Average time: %s\n", formatMillis(averageTimeMs))
		fmt.Fprintf(&b, "Best score: %d\n", p.Stats.BestScore)
		if p.Stats.BestTimeMillis > 0 {
			fmt.Fprintf(&b, "Best time: %s\n", formatMillis(p.Stats.BestTimeMillis))
		}
	}
	return b.String()
}

func formatMillis(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Round(100 * time.Millisecond).String()
}
