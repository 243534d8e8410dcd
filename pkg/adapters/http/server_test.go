package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/gamemaster"
	adapter "github.com/aretw0/gamemaster/pkg/adapters/http"
	"github.com/aretw0/gamemaster/pkg/adapters/memory"
	"github.com/aretw0/gamemaster/pkg/domain"
	"github.com/aretw0/gamemaster/pkg/session"
	"github.com/aretw0/gamemaster/pkg/tasks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, sessions bool) *httptest.Server {
	t.Helper()
	opts := []gamemaster.Option{gamemaster.WithSeed(42)}
	if sessions {
		mgr := session.NewManager(memory.NewStore(), session.WithCombatLog(memory.NewCombatLog()))
		opts = append(opts, gamemaster.WithSessions(mgr))
	}
	eng := gamemaster.New(opts...)
	reg := tasks.NewRegistry()
	eng.RegisterTasks(reg)

	ts := httptest.NewServer(adapter.NewHandler(eng, reg,
		adapter.WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		})),
	))
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t, false)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t, false)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_ListTasks(t *testing.T) {
	ts := newTestServer(t, false)

	resp, err := http.Get(ts.URL + "/tasks")
	require.NoError(t, err)
	defer resp.Body.Close()

	var list []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	decode(t, resp, &list)
	require.Len(t, list, 9)
	assert.Equal(t, "combat.check_combat_end", list[0].Name)
}

func TestServer_ExecuteTask(t *testing.T) {
	ts := newTestServer(t, false)

	resp := post(t, ts.URL+"/tasks/"+gamemaster.OpRoll, map[string]any{"expression": "2d6"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Expression string `json:"expression"`
		Total      int    `json:"total"`
	}
	decode(t, resp, &out)
	assert.Equal(t, "2d6", out.Expression)
	assert.GreaterOrEqual(t, out.Total, 2)
	assert.LessOrEqual(t, out.Total, 12)
}

func TestServer_ErrorMapping(t *testing.T) {
	ts := newTestServer(t, true)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		kind   string
	}{
		{"unknown task", "/tasks/nope", nil, http.StatusNotFound, "domain_error"},
		{"bad expression", "/tasks/" + gamemaster.OpRoll, map[string]any{"expression": "d"}, http.StatusBadRequest, "domain_error"},
		{"bad args", "/tasks/" + gamemaster.OpResolveCheck, map[string]any{"dc": "high"}, http.StatusBadRequest, "domain_error"},
		{"unknown session", "/sessions/ghost/events/start", nil, http.StatusNotFound, "domain_error"},
		{"unknown event", "/sessions/ghost/events/dance", nil, http.StatusBadRequest, "domain_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body struct {
				Error string `json:"error"`
				Kind  string `json:"kind"`
			}
			decode(t, resp, &body)
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestServer_SessionsWithoutManager(t *testing.T) {
	ts := newTestServer(t, false)

	resp := post(t, ts.URL+"/sessions", map[string]any{"id": "s-1"})
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestServer_SessionLifecycle(t *testing.T) {
	ts := newTestServer(t, true)

	resp := post(t, ts.URL+"/sessions", map[string]any{"id": "s-1", "campaign_id": "c-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = post(t, ts.URL+"/sessions", map[string]any{"id": "s-1"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = post(t, ts.URL+"/sessions/s-1/events/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		State domain.SessionState `json:"state"`
	}
	decode(t, resp, &out)
	assert.Equal(t, domain.StatusStaging, out.State.Status)

	// STAGING only allows END.
	resp = post(t, ts.URL+"/sessions/s-1/events/pause", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	get, err := http.Get(ts.URL + "/sessions/s-1/events")
	require.NoError(t, err)
	defer get.Body.Close()
	var events struct {
		Events []domain.SessionEvent `json:"events"`
	}
	decode(t, get, &events)
	assert.Equal(t, []domain.SessionEvent{domain.EventEnd}, events.Events)

	resp = post(t, ts.URL+"/sessions/s-1/turns", map[string]any{
		"actor":  map[string]any{"name": "Hero"},
		"action": "move",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "turns need combat")

	got, err := http.Get(ts.URL + "/sessions/s-1")
	require.NoError(t, err)
	defer got.Body.Close()
	var state domain.SessionState
	decode(t, got, &state)
	assert.Equal(t, "c-1", state.CampaignID)
}

func TestServer_TruncatedBodyIsRejected(t *testing.T) {
	ts := newTestServer(t, true)

	resp := post(t, ts.URL+"/sessions", map[string]any{"id": "s-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = post(t, ts.URL+"/sessions/s-1/events/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, path := range []string{"/sessions/s-1/events/end", "/sessions/s-1/turns"} {
		t.Run(path, func(t *testing.T) {
			raw, err := http.Post(ts.URL+path, "application/json", strings.NewReader(`{"reason": "tpk`))
			require.NoError(t, err)
			defer raw.Body.Close()
			assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
		})
	}

	got, err := http.Get(ts.URL + "/sessions/s-1")
	require.NoError(t, err)
	defer got.Body.Close()
	var state domain.SessionState
	decode(t, got, &state)
	assert.Equal(t, domain.StatusStaging, state.Status)
	assert.Nil(t, state.EndedAt)

	turns, err := http.Get(ts.URL + "/sessions/s-1/turns")
	require.NoError(t, err)
	defer turns.Body.Close()
	var recs []json.RawMessage
	decode(t, turns, &recs)
	assert.Empty(t, recs)
}

func TestServer_Stream(t *testing.T) {
	ts := newTestServer(t, true)

	resp := post(t, ts.URL+"/sessions", map[string]any{"id": "s-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sessions/s-1/stream", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	reader := bufio.NewReader(stream.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: connected\n", line)

	// The subscription is registered before the ping is written.
	resp = post(t, ts.URL+"/sessions/s-1/events/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			break
		}
	}
	assert.Contains(t, line, `"type":"transition"`)
	assert.Contains(t, line, `"staging"`)
}

func TestStreamManager_Unsubscribe(t *testing.T) {
	sm := adapter.NewStreamManager(nil)
	_, cancel := sm.Subscribe("s-1")
	assert.Equal(t, 1, sm.Subscribers("s-1"))
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s-1"))
}
