package mcp

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/copilotwatch/internal/config"
)

const testSegmentCSV = `month,segment,active_users_fte,total_seats_fte,active_users_nonfte,total_seats_nonfte,billing_adoption_fte
2025-06,Wealth,40,100,5,10,35.0
2025-07,Wealth,60,100,6,10,45.0
2025-06,Retail,10,50,0,0,
`

const testMetricsYAML = `metrics:
  fte_adoption:
    name: FTE adoption
    definition: Active FTE users divided by assigned FTE seats.
    owner: analytics-platform
    min_aggregation_size: 10
    freshness_days: 7
`

// newTestServer creates a Server whose segment and metrics datasets exist
// on disk. The usage and premium paths point at missing files so tests can
// exercise lazy load failures.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	segmentCSV := filepath.Join(dir, "segment_adoption.csv")
	if err := os.WriteFile(segmentCSV, []byte(testSegmentCSV), 0o644); err != nil {
		t.Fatalf("write segment fixture: %v", err)
	}
	metricsFile := filepath.Join(dir, "metrics.yaml")
	if err := os.WriteFile(metricsFile, []byte(testMetricsYAML), 0o644); err != nil {
		t.Fatalf("write metrics fixture: %v", err)
	}

	cfg := &config.Config{MetricsFile: metricsFile}
	cfg.Datasets.UsageCSV = filepath.Join(dir, "missing_usage.csv")
	cfg.Datasets.InteractionsCSV = filepath.Join(dir, "missing_interactions.csv")
	cfg.Datasets.SegmentAdoptionCSV = segmentCSV
	cfg.Datasets.PremiumRequestsCSV = filepath.Join(dir, "missing_premium.csv")
	return NewServer(cfg)
}

// runServer starts s.Run in a goroutine piped through pw/pr and returns
// a function that writes a request line and reads the response line.
// The returned cleanup func cancels the context.
func runServer(t *testing.T, s *Server) (
	sendLine func(line string) string,
	cleanup func(),
) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	// Pipe: test writes to pw, server reads from pr.
	pr, pw := io.Pipe()
	// Pipe: server writes to sw, test reads from sr.
	sr, sw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, pr, sw)
	}()

	sendLine = func(line string) string {
		_, err := io.WriteString(pw, line+"\n")
		if err != nil {
			t.Fatalf("sendLine write: %v", err)
		}

		// Read one response line.
		buf := make([]byte, 1<<16)
		var out strings.Builder
		for {
			n, err := sr.Read(buf)
			if n > 0 {
				out.Write(buf[:n])
				s := out.String()
				if idx := strings.IndexByte(s, '\n'); idx >= 0 {
					return s[:idx]
				}
			}
			if err != nil {
				t.Fatalf("sendLine read: %v", err)
			}
		}
	}

	cleanup = func() {
		cancel()
		_ = pw.Close()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Run did not return after cancel+close")
		}
	}

	return sendLine, cleanup
}

// callResult is the parsed shape of a tools/call response.
type callResult struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
}

func callTool(t *testing.T, sendLine func(string) string, name, args string) (string, bool) {
	t.Helper()

	req := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"` + name + `","arguments":` + args + `}}`
	resp := sendLine(req)

	var parsed callResult
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp)
	}
	if len(parsed.Result.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d; response: %s", len(parsed.Result.Content), resp)
	}
	return parsed.Result.Content[0].Text, parsed.Result.IsError
}

func TestRun_Initialize(t *testing.T) {
	s := newTestServer(t)
	sendLine, cleanup := runServer(t, s)
	defer cleanup()

	resp := sendLine(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`)

	var parsed struct {
		Result struct {
			ProtocolVersion string `json:"protocolVersion"`
			ServerInfo      struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp)
	}
	if parsed.Result.ProtocolVersion == "" {
		t.Errorf("expected non-empty protocolVersion; response: %s", resp)
	}
	if parsed.Result.ServerInfo.Name != "copilotwatch" {
		t.Errorf("expected serverInfo.name == 'copilotwatch', got %q; response: %s",
			parsed.Result.ServerInfo.Name, resp)
	}
}

func TestRun_ToolsList(t *testing.T) {
	s := newTestServer(t)
	sendLine, cleanup := runServer(t, s)
	defer cleanup()

	resp := sendLine(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)

	var parsed struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp)
	}
	if len(parsed.Result.Tools) < 18 {
		t.Errorf("expected >= 18 tools in list, got %d; response: %s",
			len(parsed.Result.Tools), resp)
	}
	names := make(map[string]bool)
	for _, tool := range parsed.Result.Tools {
		if tool.Name == "" {
			t.Errorf("tool has empty name; response: %s", resp)
		}
		names[tool.Name] = true
	}
	for _, want := range []string{
		"copilot_usage_summary",
		"segment_adoption_summary",
		"premium_request_summary",
		"describe_metrics",
	} {
		if !names[want] {
			t.Errorf("tools/list missing %q; response: %s", want, resp)
		}
	}
}

func TestRun_ToolsCall_SegmentSummary(t *testing.T) {
	s := newTestServer(t)
	sendLine, cleanup := runServer(t, s)
	defer cleanup()

	text, isError := callTool(t, sendLine, "segment_adoption_summary", `{"segment":"Wealth"}`)
	if isError {
		t.Fatalf("expected success, got error: %s", text)
	}
	if !strings.Contains(text, "Segment adoption summary for Wealth during all available months:") {
		t.Errorf("unexpected summary text: %s", text)
	}
}

func TestRun_ToolsCall_SegmentList(t *testing.T) {
	s := newTestServer(t)
	sendLine, cleanup := runServer(t, s)
	defer cleanup()

	text, isError := callTool(t, sendLine, "segment_adoption_segments", `{}`)
	if isError {
		t.Fatalf("expected success, got error: %s", text)
	}
	want := "Available segments:\n- Retail\n- Wealth"
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestRun_ToolsCall_DescribeMetrics(t *testing.T) {
	s := newTestServer(t)
	sendLine, cleanup := runServer(t, s)
	defer cleanup()

	text, isError := callTool(t, sendLine, "describe_metrics", `{"metric_ids":["fte_adoption"]}`)
	if isError {
		t.Fatalf("expected success, got error: %s", text)
	}
	if !strings.Contains(text, "Metric catalogue:") || !strings.Contains(text, "FTE adoption") {
		t.Errorf("unexpected catalogue text: %s", text)
	}
}

func TestRun_ToolsCall_MissingDataset(t *testing.T) {
	s := newTestServer(t)
	sendLine, cleanup := runServer(t, s)
	defer cleanup()

	text, isError := callTool(t, sendLine, "copilot_usage_summary", `{}`)
	if !isError {
		t.Fatalf("expected isError for missing dataset, got: %s", text)
	}
	if !strings.Contains(text, "Set COPILOT_USAGE_CSV.") {
		t.Errorf("expected remediation hint in error, got: %s", text)
	}
}

func TestRun_ToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	sendLine, cleanup := runServer(t, s)
	defer cleanup()

	text, isError := callTool(t, sendLine, "no_such_tool", `{}`)
	if !isError {
		t.Fatalf("expected isError for unknown tool, got: %s", text)
	}
	if !strings.Contains(text, "unknown tool: no_such_tool") {
		t.Errorf("unexpected error text: %s", text)
	}
}

func TestRun_ToolsCall_InvalidRange(t *testing.T) {
	s := newTestServer(t)
	sendLine, cleanup := runServer(t, s)
	defer cleanup()

	text, isError := callTool(t, sendLine, "segment_adoption_summary", `{"start_month":"2025-08","end_month":"2025-06"}`)
	if !isError {
		t.Fatalf("expected isError for inverted range, got: %s", text)
	}
}

func TestRun_UnknownMethod(t *testing.T) {
	s := newTestServer(t)
	sendLine, cleanup := runServer(t, s)
	defer cleanup()

	resp := sendLine(`{"jsonrpc":"2.0","id":3,"method":"nonexistent/method"}`)

	var parsed struct {
		Error *struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		t.Fatalf("unmarshal response: %v\nresponse: %s", err, resp)
	}
	if parsed.Error == nil {
		t.Fatalf("expected error in response; response: %s", resp)
	}
	if parsed.Error.Code != -32601 {
		t.Errorf("expected error code -32601, got %d; response: %s", parsed.Error.Code, resp)
	}
}

func TestRun_Notification(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pr, pw := io.Pipe()
	sr, sw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, pr, sw)
	}()

	notification := `{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n"
	if _, err := io.WriteString(pw, notification); err != nil {
		t.Fatalf("write notification: %v", err)
	}

	readDone := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 1024)
		n, _ := sr.Read(buf)
		readDone <- buf[:n]
	}()

	select {
	case data := <-readDone:
		t.Errorf("expected no response for notification, but got: %s", data)
	case <-time.After(100 * time.Millisecond):
		// Correct: no response was written within the deadline.
	}

	cancel()
	_ = pw.Close()
	_ = sr.Close()
}

func TestRun_ContextCancel(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	pr, pw := io.Pipe()
	_, sw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, pr, sw)
	}()

	cancel()
	_ = pw.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected Run to return nil on context cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run did not return after context cancel")
	}
}

func TestRun_EOFClean(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pr, pw := io.Pipe()
	_, sw := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, pr, sw)
	}()

	_ = pw.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected Run to return nil on EOF, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run did not return after EOF")
	}
}

func TestWarm_SurfacesMissingDatasets(t *testing.T) {
	s := newTestServer(t)
	if err := s.Warm(context.Background()); err == nil {
		t.Error("expected Warm to report the missing usage dataset")
	}
	// Warm failures must not poison datasets that did load.
	if _, err := s.segments.Get(); err != nil {
		t.Errorf("segment engine should load despite Warm error: %v", err)
	}
}
