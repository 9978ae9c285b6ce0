package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hclink/hclink-go/pkg/atlog"
)

var baseTime = time.Date(2026, 3, 14, 9, 30, 0, 250000000, time.UTC)

func createTestLogFile(t *testing.T, events []atlog.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.atlog")

	logger, err := atlog.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func sampleEvents() []atlog.Event {
	return []atlog.Event{
		{
			Timestamp: baseTime,
			RunID:     "0f1e2d3c-aaaa-bbbb-cccc-000000000001",
			Category:  atlog.CategoryState,
			StateChange: &atlog.StateChangeEvent{
				NewState: "SlavePhase",
				Reason:   "/dev/ttyUSB0",
			},
		},
		{
			Timestamp: baseTime.Add(10 * time.Millisecond),
			RunID:     "0f1e2d3c-aaaa-bbbb-cccc-000000000001",
			Port:      "/dev/ttyUSB0",
			Role:      "master",
			Direction: atlog.DirectionOut,
			Category:  atlog.CategoryCommand,
			Exchange:  &atlog.ExchangeEvent{Step: "pair", Text: "AT+PAIR=98D3,31,FB2211,20", Attempt: 1},
		},
		{
			Timestamp: baseTime.Add(1200 * time.Millisecond),
			RunID:     "0f1e2d3c-aaaa-bbbb-cccc-000000000001",
			Port:      "/dev/ttyUSB0",
			Role:      "master",
			Direction: atlog.DirectionIn,
			Category:  atlog.CategoryResponse,
			Exchange: &atlog.ExchangeEvent{
				Step:    "pair",
				Text:    "ERROR:(16)",
				Attempt: 1,
				Outcome: "error",
				Code:    "16",
				Elapsed: 1190 * time.Millisecond,
			},
		},
		{
			Timestamp: baseTime.Add(2 * time.Second),
			RunID:     "0f1e2d3c-aaaa-bbbb-cccc-000000000001",
			Category:  atlog.CategoryError,
			Error:     &atlog.ErrorEventData{Message: "bind failed", Context: "pairing"},
		},
		{
			Timestamp: baseTime.Add(3 * time.Second),
			RunID:     "99999999-aaaa-bbbb-cccc-000000000002",
			Port:      "/dev/ttyUSB1",
			Direction: atlog.DirectionIn,
			Category:  atlog.CategoryTimeout,
			Exchange:  &atlog.ExchangeEvent{Step: "probe", Text: "<timeout>", Attempt: 2, Outcome: "timeout"},
		},
	}
}

func TestFormatExchangeEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[2])
	output := buf.String()

	for _, want := range []string{
		"2026-03-14T09:30:01.450000Z",
		"[run:0f1e2d3c]",
		"/dev/ttyUSB0",
		"IN",
		"RESPONSE",
		"(master)",
		"Step: pair (attempt 1)",
		`"ERROR:(16)"`,
		"Outcome: error (code 16)",
		"Elapsed: 1190.000ms",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[0])
	output := buf.String()

	if !strings.Contains(output, "-> SlavePhase") {
		t.Errorf("expected new state, got:\n%s", output)
	}
	if !strings.Contains(output, "Reason: /dev/ttyUSB0") {
		t.Errorf("expected reason, got:\n%s", output)
	}
	if strings.Contains(output, " IN ") {
		t.Errorf("state events carry no direction, got:\n%s", output)
	}
}

func TestRunViewFilters(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	out := atlog.DirectionOut
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Direction: &out}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if got := strings.Count(buf.String(), "[run:"); got != 1 {
		t.Errorf("expected 1 event, got %d:\n%s", got, buf.String())
	}

	buf.Reset()
	if err := RunView(path, ViewFilter{RunID: "99999999"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if !strings.Contains(buf.String(), "TIMEOUT") || strings.Count(buf.String(), "[run:") != 1 {
		t.Errorf("expected only the timeout event, got:\n%s", buf.String())
	}

	buf.Reset()
	if err := RunView(path, ViewFilter{Port: "/dev/ttyUSB0"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if got := strings.Count(buf.String(), "[run:"); got != 2 {
		t.Errorf("expected 2 events, got %d", got)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	err := RunView(filepath.Join(t.TempDir(), "missing.atlog"), ViewFilter{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseFlags(t *testing.T) {
	if d, err := ParseDirectionFlag("OUT"); err != nil || d != atlog.DirectionOut {
		t.Errorf("ParseDirectionFlag(OUT) = %v, %v", d, err)
	}
	if _, err := ParseDirectionFlag("sideways"); err == nil {
		t.Error("expected error for invalid direction")
	}
	for _, s := range []string{"command", "response", "timeout", "state", "Error"} {
		if _, err := ParseCategoryFlag(s); err != nil {
			t.Errorf("ParseCategoryFlag(%q): %v", s, err)
		}
	}
	if _, err := ParseCategoryFlag("message"); err == nil {
		t.Error("expected error for invalid category")
	}
}

func TestExportToJSONL(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	outPath := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}

	var decoded atlog.Event
	if err := json.Unmarshal([]byte(lines[2]), &decoded); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if decoded.Exchange == nil || decoded.Exchange.Code != "16" {
		t.Errorf("expected exchange with code 16, got %+v", decoded.Exchange)
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	outPath := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("expected header + 5 rows, got %d", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][10] != "code" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	resp := rows[3]
	if resp[2] != "/dev/ttyUSB0" || resp[6] != "pair" || resp[9] != "error" || resp[10] != "16" || resp[11] != "1190" {
		t.Errorf("unexpected response row: %v", resp)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRunFilterWritesMatchingEvents(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())
	outPath := filepath.Join(t.TempDir(), "filtered.atlog")

	n, err := RunFilter(path, FilterOptions{
		Output:   outPath,
		Port:     "/dev/ttyUSB0",
		Category: "response",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 event, got %d", n)
	}

	reader, err := atlog.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open filtered file: %v", err)
	}
	defer reader.Close()
	e, err := reader.Next()
	if err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if e.Exchange == nil || e.Exchange.Text != "ERROR:(16)" {
		t.Errorf("unexpected event: %+v", e)
	}
}

func TestRunFilterTimeRange(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	n, err := RunFilter(path, FilterOptions{
		Output:    filepath.Join(t.TempDir(), "filtered.atlog"),
		TimeStart: "2026-03-14T09:30:02Z",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 events, got %d", n)
	}

	_, err = RunFilter(path, FilterOptions{Output: filepath.Join(t.TempDir(), "x"), TimeEnd: "yesterday"})
	if err == nil {
		t.Error("expected error for invalid time")
	}
}

func TestStats(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	stats, err := collectStats(path)
	if err != nil {
		t.Fatalf("collectStats failed: %v", err)
	}
	if stats.TotalEvents != 5 {
		t.Errorf("TotalEvents = %d, want 5", stats.TotalEvents)
	}
	if len(stats.Runs) != 2 {
		t.Errorf("Runs = %d, want 2", len(stats.Runs))
	}
	if stats.ErrorCodes["16"] != 1 {
		t.Errorf("ErrorCodes[16] = %d, want 1", stats.ErrorCodes["16"])
	}
	if stats.Outcomes["timeout"] != 1 {
		t.Errorf("Outcomes[timeout] = %d, want 1", stats.Outcomes["timeout"])
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	run := stats.Runs["0f1e2d3c-aaaa-bbbb-cccc-000000000001"]
	if run == nil || run.Commands != 1 || run.FinalState != "SlavePhase" {
		t.Errorf("unexpected run stats: %+v", run)
	}

	var buf bytes.Buffer
	if err := RunStatsCommand(path, &buf); err != nil {
		t.Fatalf("RunStatsCommand failed: %v", err)
	}
	for _, want := range []string{"Total Events: 5", "ERROR:(16) 1", "Runs: 2", "Final state: SlavePhase", "Errors: 1"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in output, got:\n%s", want, buf.String())
		}
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)
	var buf bytes.Buffer
	if err := RunStatsCommand(path, &buf); err != nil {
		t.Fatalf("RunStatsCommand failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
