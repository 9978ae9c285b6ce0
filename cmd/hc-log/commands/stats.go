package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/hclink/hclink-go/pkg/atlog"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByCategory  map[atlog.Category]int
	EventsByDirection map[atlog.Direction]int
	Outcomes          map[string]int
	ErrorCodes        map[string]int
	Runs              map[string]*RunStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// RunStats holds statistics for one detection, setup or pairing run.
type RunStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Commands  int
	Ports     map[string]bool
	// FinalState is the last phase recorded for the run.
	FinalState string
}

// RunStatsCommand analyzes the capture file and prints statistics.
func RunStatsCommand(path string, w io.Writer) error {
	stats, err := collectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func collectStats(path string) (*Stats, error) {
	reader, err := atlog.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory:  make(map[atlog.Category]int),
		EventsByDirection: make(map[atlog.Direction]int),
		Outcomes:          make(map[string]int),
		ErrorCodes:        make(map[string]int),
		Runs:              make(map[string]*RunStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++
		if event.Exchange != nil {
			stats.EventsByDirection[event.Direction]++
		}

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		run, ok := stats.Runs[event.RunID]
		if !ok {
			run = &RunStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
				Ports:     make(map[string]bool),
			}
			stats.Runs[event.RunID] = run
		}
		run.Events++
		if event.Timestamp.After(run.LastSeen) {
			run.LastSeen = event.Timestamp
		}
		if event.Port != "" {
			run.Ports[event.Port] = true
		}

		switch {
		case event.Exchange != nil && event.Category == atlog.CategoryCommand:
			run.Commands++
		case event.Exchange != nil:
			if event.Exchange.Outcome != "" {
				stats.Outcomes[event.Exchange.Outcome]++
			}
			if event.Exchange.Code != "" {
				stats.ErrorCodes[event.Exchange.Code]++
			}
		case event.StateChange != nil:
			run.FinalState = event.StateChange.NewState
		case event.Error != nil:
			stats.Errors++
		}
	}

	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== AT Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []atlog.Category{atlog.CategoryCommand, atlog.CategoryResponse, atlog.CategoryTimeout, atlog.CategoryState, atlog.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Exchanges by Direction:")
	for _, dir := range []atlog.Direction{atlog.DirectionIn, atlog.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Outcomes) > 0 {
		fmt.Fprintln(w, "Outcomes:")
		for _, o := range []string{"ok", "error", "timeout"} {
			if count := stats.Outcomes[o]; count > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", o+":", count)
			}
		}
		fmt.Fprintln(w)
	}

	if len(stats.ErrorCodes) > 0 {
		codes := make([]string, 0, len(stats.ErrorCodes))
		for c := range stats.ErrorCodes {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		fmt.Fprintln(w, "Error Codes:")
		for _, c := range codes {
			fmt.Fprintf(w, "  ERROR:(%s) %d\n", c, stats.ErrorCodes[c])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Runs: %d\n", len(stats.Runs))
	if len(stats.Runs) > 0 {
		type runInfo struct {
			id    string
			stats *RunStats
		}
		runs := make([]runInfo, 0, len(stats.Runs))
		for id, rs := range stats.Runs {
			runs = append(runs, runInfo{id, rs})
		}
		sort.Slice(runs, func(i, j int) bool {
			return runs[i].stats.FirstSeen.Before(runs[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, r := range runs {
			duration := r.stats.LastSeen.Sub(r.stats.FirstSeen).Round(time.Millisecond)
			ports := make([]string, 0, len(r.stats.Ports))
			for p := range r.stats.Ports {
				ports = append(ports, p)
			}
			sort.Strings(ports)
			fmt.Fprintf(w, "  [%s] %d events, %d commands, duration %s\n", shortenRunID(r.id), r.stats.Events, r.stats.Commands, duration)
			if len(ports) > 0 {
				fmt.Fprintf(w, "           Ports: %v\n", ports)
			}
			if r.stats.FinalState != "" {
				fmt.Fprintf(w, "           Final state: %s\n", r.stats.FinalState)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
