package mcpserver

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"testing"

	"ludo-arena/internal/game"
	"ludo-arena/internal/testutil"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

func TestMCPServerToolsAndFlows(t *testing.T) {
	a := testutil.NewArena(t, 4)
	a.Seed(t, "s1", "ann", "bob")
	a.Mutate(t, "s1", func(s *game.Session) {
		s.Players[0].Tokens = [4]int{3, 10, game.HomePosition, game.HomePosition}
		s.Players[1].Tokens = [4]int{14, game.HomePosition, game.HomePosition, game.HomePosition}
	})

	httpSrv := httptest.NewServer(New(a.Service).Handler())
	defer httpSrv.Close()
	mcpClient, closeClient := newMCPClient(t, httpSrv.URL+"/mcp")
	defer closeClient()

	assertToolNames(t, mustListTools(t, mcpClient), "get_session", "roll_dice", "move_token", "suggest_move")

	got := mapFromStructured(t, mustCallTool(t, mcpClient, "get_session", map[string]any{"session_id": "s1"}))
	if asString(got["current_turn"]) != "ann" || asString(got["phase"]) != string(game.PhaseAwaitingRoll) {
		t.Fatalf("get_session = %v", got)
	}

	roll := mustCallTool(t, mcpClient, "roll_dice", map[string]any{"session_id": "s1", "user_id": "ann"})
	if roll.IsError {
		t.Fatalf("roll_dice failed: %v", roll.StructuredContent)
	}
	if dice := asFloat64(mapFromStructured(t, roll)["dice"]); dice != 4 {
		t.Fatalf("dice = %v", dice)
	}

	sug := mapFromStructured(t, mustCallTool(t, mcpClient, "suggest_move", map[string]any{"session_id": "s1"}))
	if sug["has_move"] != true || asFloat64(sug["token_index"]) != 1 {
		t.Fatalf("suggest_move = %v", sug)
	}

	move := mustCallTool(t, mcpClient, "move_token", map[string]any{"session_id": "s1", "user_id": "ann", "token_index": 1})
	if move.IsError {
		t.Fatalf("move_token failed: %v", move.StructuredContent)
	}
	outcome, _ := mapFromStructured(t, move)["outcome"].(map[string]any)
	if outcome["capture"] != true || outcome["bonus_turn"] != true {
		t.Fatalf("outcome = %v", outcome)
	}
	if bob := a.Session(t, "s1").Player("bob"); bob.Tokens[0] != game.HomePosition {
		t.Fatalf("bob token not captured: %v", bob.Tokens)
	}
}

func TestMCPServerToolErrors(t *testing.T) {
	a := testutil.NewArena(t, 3)
	a.Seed(t, "s1", "ann", "bob")

	httpSrv := httptest.NewServer(New(a.Service).Handler())
	defer httpSrv.Close()
	mcpClient, closeClient := newMCPClient(t, httpSrv.URL+"/mcp")
	defer closeClient()

	tests := []struct {
		tool string
		args map[string]any
		want string
	}{
		{tool: "get_session", args: map[string]any{}, want: "invalid_request"},
		{tool: "get_session", args: map[string]any{"session_id": "nope"}, want: "session_not_found"},
		{tool: "roll_dice", args: map[string]any{"session_id": "s1"}, want: "invalid_request"},
		{tool: "roll_dice", args: map[string]any{"session_id": "s1", "user_id": "bob"}, want: "invalid_turn"},
		{tool: "move_token", args: map[string]any{"session_id": "s1", "user_id": "ann", "token_index": 0}, want: "dice_not_rolled"},
		{tool: "move_token", args: map[string]any{"session_id": "s1", "user_id": "ann"}, want: "invalid_request"},
		{tool: "suggest_move", args: map[string]any{"session_id": "s1"}, want: "dice_not_rolled"},
	}
	for _, tt := range tests {
		assertToolErrorCode(t, mustCallTool(t, mcpClient, tt.tool, tt.args), tt.want)
	}
}

func newMCPClient(t *testing.T, endpoint string) (*client.Client, func()) {
	t.Helper()
	ctx := context.Background()
	trans, err := transport.NewStreamableHTTP(endpoint)
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	if err := trans.Start(ctx); err != nil {
		t.Fatalf("transport start: %v", err)
	}
	c := client.NewClient(trans)
	_, err = c.Initialize(ctx, mcp.InitializeRequest{Params: mcp.InitializeParams{ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION}})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return c, func() { _ = trans.Close() }
}

func mustListTools(t *testing.T, c *client.Client) []mcp.Tool {
	t.Helper()
	res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	return res.Tools
}

func assertToolNames(t *testing.T, tools []mcp.Tool, expected ...string) {
	t.Helper()
	got := make([]string, 0, len(tools))
	for _, tool := range tools {
		got = append(got, tool.Name)
	}
	sort.Strings(got)
	sort.Strings(expected)
	if len(got) != len(expected) {
		t.Fatalf("tool count mismatch got=%v expected=%v", got, expected)
	}
	for i := range got {
		if got[i] != expected[i] {
			t.Fatalf("tool list mismatch got=%v expected=%v", got, expected)
		}
	}
}

func mustCallTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := c.CallTool(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}})
	if err != nil {
		t.Fatalf("call tool %s: %v", name, err)
	}
	return res
}

func assertToolErrorCode(t *testing.T, res *mcp.CallToolResult, want string) {
	t.Helper()
	if !res.IsError {
		t.Fatalf("expected tool error %q, got success: %v", want, res.StructuredContent)
	}
	payload := mapFromStructured(t, res)
	errObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("error payload missing 'error': %v", payload)
	}
	if got := asString(errObj["code"]); got != want {
		t.Fatalf("error code=%q want=%q payload=%v", got, want, payload)
	}
}

func mapFromStructured(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	b, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat64(v any) float64 {
	f, _ := v.(float64)
	return f
}
