package atlog

import (
	"context"
	"log/slog"
)

// SlogAdapter writes capture events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event as one "at" record.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("direction", event.Direction.String()),
		slog.String("category", event.Category.String()),
	}
	if event.RunID != "" {
		attrs = append(attrs, slog.String("run_id", event.RunID))
	}
	if event.Port != "" {
		attrs = append(attrs, slog.String("port", event.Port))
	}
	if event.Role != "" {
		attrs = append(attrs, slog.String("role", event.Role))
	}

	switch {
	case event.Exchange != nil:
		attrs = append(attrs,
			slog.String("text", event.Exchange.Text),
			slog.Int("attempt", event.Exchange.Attempt),
		)
		if event.Exchange.Step != "" {
			attrs = append(attrs, slog.String("step", event.Exchange.Step))
		}
		if event.Exchange.Outcome != "" {
			attrs = append(attrs, slog.String("outcome", event.Exchange.Outcome))
		}
		if event.Exchange.Code != "" {
			attrs = append(attrs, slog.String("code", event.Exchange.Code))
		}
		if event.Exchange.Elapsed > 0 {
			attrs = append(attrs, slog.Duration("elapsed", event.Exchange.Elapsed))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "at", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
