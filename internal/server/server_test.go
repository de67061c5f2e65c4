package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslh/cadscript-mcp/internal/metrics"
	"github.com/dslh/cadscript-mcp/internal/registry"
	"github.com/dslh/cadscript-mcp/internal/render"
	"github.com/dslh/cadscript-mcp/internal/script"
	"github.com/dslh/cadscript-mcp/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg, err := registry.Default()
	require.NoError(t, err)
	a, err := script.New(reg, render.New(render.WithExportDir("/exports")))
	require.NoError(t, err)

	m := metrics.NewMetrics()
	s := New(service.New(a, service.WithMetrics(m)), WithMetrics(m))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestRoot(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["message"], "running")
}

func TestUnknownPathIs404(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListTools(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/tools")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Tools []ToolInfo `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Tools, 11)

	extrude := body.Tools[3]
	assert.Equal(t, "Extrude", extrude.Name)
	require.Len(t, extrude.Parameters, 3)
	assert.Equal(t, "height", extrude.Parameters[0].Name)
	assert.True(t, extrude.Parameters[0].Required)
	assert.Equal(t, registry.UnitCentimeter, extrude.Parameters[0].Unit)
	assert.Equal(t, []string{"new", "join", "cut", "intersect"}, extrude.Parameters[2].Values)
	assert.Equal(t, "new", extrude.Parameters[2].Default)
	require.NotNil(t, extrude.InputSchema)
	assert.Equal(t, []string{"height"}, extrude.InputSchema.Required)
}

func TestListToolsKeepsZeroDefaults(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/tools")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Tools []struct {
			Name       string                   `json:"name"`
			Parameters []map[string]interface{} `json:"parameters"`
		} `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	params := make(map[string]map[string]interface{})
	for _, tool := range body.Tools {
		for _, p := range tool.Parameters {
			params[tool.Name+"."+p["name"].(string)] = p
		}
	}

	originX, ok := params["DrawRectangle.origin_x"]["default"]
	assert.True(t, ok, "zero default is listed")
	assert.Equal(t, float64(0), originX)

	keepTools, ok := params["Combine.keep_tools"]["default"]
	assert.True(t, ok, "false default is listed")
	assert.Equal(t, false, keepTools)

	width, ok := params["DrawRectangle.width"]["default"]
	assert.True(t, ok, "required parameters list a null default")
	assert.Nil(t, width)
}

func TestCallTools(t *testing.T) {
	ts := newTestServer(t)

	resp, body := post(t, ts, "/call_tools", `{"tool_calls": [
		{"tool_name": "CreateSketch", "parameters": {"plane": "xy"}},
		{"tool_name": "DrawRectangle", "parameters": {"width": 10, "depth": 10}},
		{"tool_name": "Extrude", "parameters": {"height": 5}}
	]}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Success", body["message"])
	out := body["script"].(string)
	assert.Contains(t, out, "rectangle = sketch.sketchCurves.sketchLines.addTwoPointRectangle(")
	assert.Contains(t, out, "extrudeProfile = profiles.item(0)")
}

func TestCallTool(t *testing.T) {
	ts := newTestServer(t)

	resp, body := post(t, ts, "/call_tool", `{"tool_name": "Combine", "parameters": {"target_body_index": 0, "tool_body_index": 1}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["script"], "combineInput.operation = adsk.fusion.FeatureOperations.JoinFeatureOperation")
}

func TestRequestErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name      string
		path      string
		body      string
		kind      string
		callIndex float64
		tool      string
	}{
		{
			name: "missing context",
			path: "/call_tools",
			body: `{"tool_calls": [{"tool_name": "Extrude", "parameters": {"height": 5}}]}`,
			kind: "MissingContext", callIndex: 0, tool: "Extrude",
		},
		{
			name: "unknown parameter",
			path: "/call_tool",
			body: `{"tool_name": "Fillet", "parameters": {"radius": 0.5, "unknownParam": 1}}`,
			kind: "UnknownParameter", callIndex: 0, tool: "Fillet",
		},
		{
			name: "unknown tool second",
			path: "/call_tools",
			body: `{"tool_calls": [{"tool_name": "CreateSketch"}, {"tool_name": "Sweep"}]}`,
			kind: "UnknownTool", callIndex: 1, tool: "Sweep",
		},
		{
			name: "numeric string",
			path: "/call_tool",
			body: `{"tool_name": "DrawCircle", "parameters": {"radius": "5"}}`,
			kind: "TypeMismatch", callIndex: 0, tool: "DrawCircle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, ts, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			errBody, ok := body["error"].(map[string]interface{})
			require.True(t, ok, "error object missing: %v", body)
			assert.Equal(t, tt.kind, errBody["kind"])
			assert.Equal(t, tt.callIndex, errBody["callIndex"])
			assert.Equal(t, tt.tool, errBody["tool"])
			assert.NotEmpty(t, errBody["message"])
		})
	}
}

func TestLargeIntegersSurviveDecoding(t *testing.T) {
	ts := newTestServer(t)

	resp, body := post(t, ts, "/call_tool", `{"tool_name": "Shell", "parameters": {"thickness": 0.1, "body_index": 9007199254740993}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body["script"], "shellTarget = component.bRepBodies.item(9007199254740993)")
}

func TestMalformedJSON(t *testing.T) {
	ts := newTestServer(t)

	resp, body := post(t, ts, "/call_tools", `{"tool_calls": [`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MalformedRequest", body["error"].(map[string]interface{})["kind"])
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/call_tools")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "trace-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "trace-42", resp.Header.Get("X-Request-Id"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	post(t, ts, "/call_tool", `{"tool_name": "CreateSketch"}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `cadscript_requests_total{status="ok",transport="http"} 1`)
	assert.Contains(t, string(data), `cadscript_tool_calls_total{tool="CreateSketch"} 1`)
}
