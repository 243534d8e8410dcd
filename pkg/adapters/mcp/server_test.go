package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/gamemaster"
	"github.com/aretw0/gamemaster/pkg/adapters/mcp"
	"github.com/aretw0/gamemaster/pkg/adapters/memory"
	"github.com/aretw0/gamemaster/pkg/dice"
	"github.com/aretw0/gamemaster/pkg/session"
	"github.com/aretw0/gamemaster/pkg/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

func newServer(t *testing.T, src dice.Source, withSessions bool) *mcp.Server {
	t.Helper()
	opts := []gamemaster.Option{gamemaster.WithSource(src)}
	if withSessions {
		mgr := session.NewManager(memory.NewStore(), session.WithCombatLog(memory.NewCombatLog()))
		opts = append(opts, gamemaster.WithSessions(mgr))
	}
	eng := gamemaster.New(opts...)
	reg := tasks.NewRegistry()
	eng.RegisterTasks(reg)
	return mcp.NewServer(eng, reg, "test")
}

func rpc(t *testing.T, s *mcp.Server, method string, params any) json.RawMessage {
	t.Helper()
	req, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp := s.MCPServer().HandleMessage(context.Background(), req)
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  json.RawMessage `json:"error"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.Empty(t, envelope.Error, "rpc error: %s", envelope.Error)
	return envelope.Result
}

func callTool(t *testing.T, s *mcp.Server, name string, args map[string]any) toolResult {
	t.Helper()
	var res toolResult
	raw := rpc(t, s, "tools/call", map[string]any{"name": name, "arguments": args})
	require.NoError(t, json.Unmarshal(raw, &res))
	require.NotEmpty(t, res.Content)
	return res
}

func TestServer_ListsOneToolPerTask(t *testing.T) {
	s := newServer(t, dice.DefaultSource(), false)

	var list struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rpc(t, s, "tools/list", map[string]any{}), &list))

	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.Len(t, names, 9)
	assert.Contains(t, names, gamemaster.OpRoll)
	assert.NotContains(t, names, "session.create")
}

func TestServer_CallTask(t *testing.T) {
	s := newServer(t, dice.NewScriptedSource(5, 2, 7), false)

	res := callTool(t, s, gamemaster.OpRoll, map[string]any{"expression": "3d8kh2"})
	require.False(t, res.IsError, res.Content[0].Text)

	var out struct {
		Total int   `json:"total"`
		Kept  []int `json:"kept"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &out))
	assert.Equal(t, 12, out.Total)
	assert.Equal(t, []int{7, 5}, out.Kept)
}

func TestServer_TaskErrorIsToolError(t *testing.T) {
	s := newServer(t, dice.DefaultSource(), false)

	res := callTool(t, s, gamemaster.OpRoll, map[string]any{"expression": "xd"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, "invalid dice expression")
}

func TestServer_SessionTools(t *testing.T) {
	s := newServer(t, dice.DefaultSource(), true)

	res := callTool(t, s, "session.create", map[string]any{"session_id": "s-1"})
	require.False(t, res.IsError, res.Content[0].Text)

	res = callTool(t, s, "session.transition", map[string]any{"session_id": "s-1", "event": "START"})
	require.False(t, res.IsError, res.Content[0].Text)
	assert.Contains(t, res.Content[0].Text, `"staging"`)

	res = callTool(t, s, "session.transition", map[string]any{"session_id": "s-1", "event": "pause"})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, "invalid state transition")

	res = callTool(t, s, "session.state", map[string]any{"session_id": "s-1"})
	require.False(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, `"events":["end"]`)

	res = callTool(t, s, "session.play_turn", map[string]any{
		"session_id": "s-1",
		"actor":      map[string]any{"name": "Hero"},
		"action":     "move",
	})
	assert.True(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, gamemaster.ErrNotInCombat.Error())
}

func TestServer_TasksResource(t *testing.T) {
	s := newServer(t, dice.DefaultSource(), false)

	raw := rpc(t, s, "resources/read", map[string]any{"uri": mcp.TasksURI})
	assert.Contains(t, string(raw), gamemaster.OpRoll)
}
