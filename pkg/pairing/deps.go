package pairing

import (
	"context"
	"log/slog"

	"github.com/hclink/hclink-go/pkg/at"
	"github.com/hclink/hclink-go/pkg/atlog"
	"github.com/hclink/hclink-go/pkg/detect"
	"github.com/hclink/hclink-go/pkg/paircache"
	"github.com/hclink/hclink-go/pkg/serial"
)

// ProfileDetector finds the AT profile of the module on a port.
type ProfileDetector interface {
	Detect(ctx context.Context, port string) (detect.Detection, error)
}

// SwapRequest is handed to a Swapper when the slave must be replaced by
// the master on the shared port.
type SwapRequest struct {
	SessionID string
	Port      string
	Address   at.Address
}

// Swapper waits for the physical module swap. AwaitSwap blocks until the
// user signals completion or ctx is done, and returns the port the master
// is now on (empty means the same port).
type Swapper interface {
	AwaitSwap(ctx context.Context, req SwapRequest) (string, error)
}

// Selector picks the slave from inquiry results. Returning ErrNoSelection
// (or any error) leaves the address unresolved.
type Selector interface {
	Select(ctx context.Context, found []at.Address) (at.Address, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, found []at.Address) (at.Address, error)

// Select calls f.
func (f SelectorFunc) Select(ctx context.Context, found []at.Address) (at.Address, error) {
	return f(ctx, found)
}

// Scanner lists devices a master on port can see. The results are the
// exchanges the scan sent, kept for the session transcript.
type Scanner interface {
	Scan(ctx context.Context, port string) ([]at.Address, []at.Result, error)
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	// Dialer opens ports. Required.
	Dialer serial.Dialer

	// Detector defaults to a detect.Detector on Dialer using the run's
	// retry delay and port wait.
	Detector ProfileDetector

	// Cache stores addresses across the swap. Nil disables caching.
	Cache paircache.Store

	// Swapper is required in mode one.
	Swapper Swapper

	// Selector enables inquiry in mode two; Scanner defaults to an
	// InquiryScanner on Dialer.
	Selector Selector
	Scanner  Scanner

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Capture receives AT exchanges and phase changes.
	Capture atlog.Logger
}
