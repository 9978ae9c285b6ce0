package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hclink/hclink-go/pkg/atlog"
)

// RunExport exports the capture file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := atlog.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *atlog.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *atlog.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "run_id", "port", "role", "direction", "category", "step", "attempt", "text", "outcome", "code", "elapsed_ms"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		var step, attempt, text, outcome, code, elapsed string
		switch {
		case event.Exchange != nil:
			ex := event.Exchange
			step = ex.Step
			attempt = strconv.Itoa(ex.Attempt)
			text = ex.Text
			outcome = ex.Outcome
			code = ex.Code
			if ex.Elapsed > 0 {
				elapsed = strconv.FormatInt(ex.Elapsed.Milliseconds(), 10)
			}
		case event.StateChange != nil:
			text = event.StateChange.NewState
			outcome = event.StateChange.Reason
		case event.Error != nil:
			text = event.Error.Message
			step = event.Error.Context
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.RunID,
			event.Port,
			event.Role,
			event.Direction.String(),
			event.Category.String(),
			step,
			attempt,
			text,
			outcome,
			code,
			elapsed,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
