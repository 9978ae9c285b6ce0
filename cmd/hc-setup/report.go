package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hclink/hclink-go/pkg/at"
	"github.com/hclink/hclink-go/pkg/configurator"
	"github.com/hclink/hclink-go/pkg/pairing"
)

func printReport(w io.Writer, profile string, r configurator.Report) {
	fmt.Fprintf(w, "Profile: %s\n", profile)
	fmt.Fprintln(w, "Transcript:")
	for _, res := range r.Transcript {
		printResult(w, "  ", res)
	}
	fmt.Fprintf(w, "Facts: %s\n", r.Facts)
	printWarnings(w, r.Warnings)
}

func printResult(w io.Writer, indent string, res at.Result) {
	reply := strings.ReplaceAll(res.Raw, "\n", " | ")
	fmt.Fprintf(w, "%s%-6s %-32s -> %-7s %s", indent, res.Command.ID, res.Sent, res.Outcome, reply)
	if res.Attempts > 1 {
		fmt.Fprintf(w, " (%d attempts)", res.Attempts)
	}
	fmt.Fprintln(w)
}

func printWarnings(w io.Writer, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintln(w, "Warnings:")
	for _, msg := range warnings {
		fmt.Fprintf(w, "  - %s\n", msg)
	}
}

func printSession(w io.Writer, s *pairing.Session) {
	fmt.Fprintf(w, "Session %s (mode %s)\n", s.ID, s.Mode)

	if s.Preview != nil {
		fmt.Fprintln(w, "Slave commands:")
		for _, line := range s.Preview.Slave {
			fmt.Fprintf(w, "  %s\n", line)
		}
		fmt.Fprintln(w, "Master commands:")
		for _, line := range s.Preview.Master {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	var phase pairing.Phase = 255
	for _, e := range s.Transcript {
		if e.Phase != phase {
			phase = e.Phase
			fmt.Fprintf(w, "%s (%s on %s):\n", phase, e.Role, e.Port)
		}
		printResult(w, "  ", e.Result)
	}

	if s.Address != nil {
		fmt.Fprintf(w, "Slave address: %s (from %s)\n", s.Address, s.AddressSource)
	}
	if s.Preview == nil {
		fmt.Fprintf(w, "Bind: %s  Pair: %s  Link: %s\n", stepLabel(s.Bind), stepLabel(s.Pair), stepLabel(s.Link))
	}
	printWarnings(w, s.Warnings)
	if s.Err != nil {
		fmt.Fprintf(w, "Error: %v\n", s.Err)
	}
	if !s.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Status: %s (%s)\n", s.Status, s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	} else {
		fmt.Fprintf(w, "Status: %s\n", s.Status)
	}
}

func stepLabel(r pairing.StepResult) string {
	switch {
	case r.Skipped:
		return "skipped"
	case !r.Attempted:
		return "-"
	case r.OK:
		return "ok"
	default:
		return "failed"
	}
}
