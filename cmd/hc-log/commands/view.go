// Package commands implements the hc-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hclink/hclink-go/pkg/atlog"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	RunID     string
	Port      string
	Direction *atlog.Direction
	Category  *atlog.Category
}

func (f ViewFilter) matches(e atlog.Event) bool {
	if f.RunID != "" && !strings.HasPrefix(e.RunID, f.RunID) {
		return false
	}
	if f.Port != "" && e.Port != f.Port {
		return false
	}
	if f.Direction != nil && e.Direction != *f.Direction {
		return false
	}
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	return true
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event atlog.Event) {
	// Header line: timestamp [run:id] port DIRECTION CATEGORY role
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	header := fmt.Sprintf("%s [run:%s]", ts, shortenRunID(event.RunID))
	if event.Port != "" {
		header += " " + event.Port
	}
	switch event.Category {
	case atlog.CategoryCommand, atlog.CategoryResponse, atlog.CategoryTimeout:
		header += fmt.Sprintf(" %-3s", event.Direction.String())
	}
	header += " " + event.Category.String()
	if event.Role != "" {
		header += " (" + event.Role + ")"
	}
	fmt.Fprintln(w, header)

	switch {
	case event.Exchange != nil:
		formatExchangeDetails(w, event.Exchange)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenRunID returns the first 8 characters of the run ID.
func shortenRunID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatExchangeDetails(w io.Writer, ex *atlog.ExchangeEvent) {
	if ex.Step != "" {
		fmt.Fprintf(w, "  Step: %s (attempt %d)\n", ex.Step, ex.Attempt)
	}
	for _, line := range strings.Split(ex.Text, "\n") {
		fmt.Fprintf(w, "  %q\n", line)
	}
	if ex.Outcome != "" {
		fmt.Fprintf(w, "  Outcome: %s", ex.Outcome)
		if ex.Code != "" {
			fmt.Fprintf(w, " (code %s)", ex.Code)
		}
		fmt.Fprintln(w)
	}
	if ex.Elapsed > 0 {
		fmt.Fprintf(w, "  Elapsed: %s\n", formatDuration(ex.Elapsed))
	}
}

func formatStateChangeDetails(w io.Writer, sc *atlog.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *atlog.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (atlog.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return atlog.DirectionIn, nil
	case "out":
		return atlog.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (atlog.Category, error) {
	switch strings.ToLower(s) {
	case "command":
		return atlog.CategoryCommand, nil
	case "response":
		return atlog.CategoryResponse, nil
	case "timeout":
		return atlog.CategoryTimeout, nil
	case "state":
		return atlog.CategoryState, nil
	case "error":
		return atlog.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be command, response, timeout, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := atlog.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if !filter.matches(event) {
			continue
		}
		formatEvent(output, event)
	}

	return nil
}
