package mcp

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundsight/fundsight/domain/query"
	"github.com/fundsight/fundsight/internal/config"
	"github.com/fundsight/fundsight/internal/log"
)

// fakeAnswerer implements Answerer with a canned response.
type fakeAnswerer struct {
	lastQuestion string
	lastFundID   *int64
}

func (f *fakeAnswerer) Process(_ context.Context, question string, fundID *int64) (query.Response, error) {
	f.lastQuestion = question
	f.lastFundID = fundID
	return query.NewResponse(
		"The DPI is 0.5.",
		query.IntentCalculation,
		[]query.Source{{Content: "Capital call schedule", Score: 0.9}},
		map[string]float64{"DPI": 0.5},
	), nil
}

// fakeMetrics implements MetricsLookup with canned metrics.
type fakeMetrics struct {
	lastFundID int64
}

func (f *fakeMetrics) CalculateAll(_ context.Context, fundID int64) (map[string]float64, error) {
	f.lastFundID = fundID
	return map[string]float64{"DPI": 0.5, "TVPI": 0.5, "IRR": -0.2}, nil
}

// sendMessage marshals a JSON-RPC request, sends it through HandleMessage,
// and returns the JSONRPCResponse.
func sendMessage(t *testing.T, srv *Server, method string, id int, params map[string]any) mcp.JSONRPCResponse {
	t.Helper()

	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		msg["params"] = params
	}

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	result := srv.MCPServer().HandleMessage(context.Background(), raw)

	resp, ok := result.(mcp.JSONRPCResponse)
	require.Truef(t, ok, "expected JSONRPCResponse, got %T: %+v", result, result)
	return resp
}

// resultJSON re-marshals the Result field through JSON into dst.
func resultJSON(t *testing.T, resp mcp.JSONRPCResponse, dst any) {
	t.Helper()
	b, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, dst))
}

func testServer() (*Server, *fakeAnswerer, *fakeMetrics) {
	answerer := &fakeAnswerer{}
	metrics := &fakeMetrics{}
	logger := log.NewLoggerWithWriter(io.Discard, config.LogFormatJSON, "error")
	return NewServer(answerer, metrics, "1.0.0", logger), answerer, metrics
}

func TestListTools(t *testing.T) {
	srv, _, _ := testServer()

	resp := sendMessage(t, srv, "tools/list", 1, nil)

	var result struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	resultJSON(t, resp, &result)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"ask", "fund_metrics"}, names)
}

func TestAskTool(t *testing.T) {
	srv, answerer, _ := testServer()

	resp := sendMessage(t, srv, "tools/call", 2, map[string]any{
		"name": "ask",
		"arguments": map[string]any{
			"query":   "What is the current DPI?",
			"fund_id": 7,
		},
	})

	var result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	resultJSON(t, resp, &result)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)

	var answer struct {
		Answer  string             `json:"answer"`
		Intent  string             `json:"intent"`
		Metrics map[string]float64 `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &answer))
	assert.Equal(t, "The DPI is 0.5.", answer.Answer)
	assert.Equal(t, "calculation", answer.Intent)
	assert.Equal(t, 0.5, answer.Metrics["DPI"])

	assert.Equal(t, "What is the current DPI?", answerer.lastQuestion)
	require.NotNil(t, answerer.lastFundID)
	assert.Equal(t, int64(7), *answerer.lastFundID)
}

func TestAskToolWithoutFund(t *testing.T) {
	srv, answerer, _ := testServer()

	resp := sendMessage(t, srv, "tools/call", 3, map[string]any{
		"name":      "ask",
		"arguments": map[string]any{"query": "What does IRR mean?"},
	})

	var result struct {
		IsError bool `json:"isError"`
	}
	resultJSON(t, resp, &result)
	require.False(t, result.IsError)
	assert.Nil(t, answerer.lastFundID)
}

func TestFundMetricsTool(t *testing.T) {
	srv, _, metrics := testServer()

	resp := sendMessage(t, srv, "tools/call", 4, map[string]any{
		"name":      "fund_metrics",
		"arguments": map[string]any{"fund_id": 3},
	})

	var result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	resultJSON(t, resp, &result)
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)

	var values map[string]float64
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &values))
	assert.Equal(t, 0.5, values["DPI"])
	assert.Equal(t, int64(3), metrics.lastFundID)
}

func TestFundMetricsToolRequiresFund(t *testing.T) {
	srv, _, _ := testServer()

	resp := sendMessage(t, srv, "tools/call", 5, map[string]any{
		"name":      "fund_metrics",
		"arguments": map[string]any{},
	})

	var result struct {
		IsError bool `json:"isError"`
	}
	resultJSON(t, resp, &result)
	assert.True(t, result.IsError)
}
