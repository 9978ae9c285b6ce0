package pairing

import "context"

// Gate is a channel-backed Swapper. The run announces each swap on
// Requests; whoever performs the swap calls Resume.
type Gate struct {
	requests chan SwapRequest
	resume   chan string
}

// NewGate creates a Gate.
func NewGate() *Gate {
	return &Gate{
		requests: make(chan SwapRequest, 1),
		resume:   make(chan string, 1),
	}
}

// Requests delivers pending swap requests.
func (g *Gate) Requests() <-chan SwapRequest {
	return g.requests
}

// Resume releases the waiting run. port is where the master now sits;
// empty keeps the request's port. Only a Resume sent after the request
// was published counts: earlier ones are discarded by AwaitSwap, and a
// second Resume before the run consumed the first is ignored.
func (g *Gate) Resume(port string) {
	select {
	case g.resume <- port:
	default:
	}
}

// AwaitSwap publishes req and waits for Resume or ctx.
func (g *Gate) AwaitSwap(ctx context.Context, req SwapRequest) (string, error) {
	// A resume left over from before this request would release the run
	// while the slave is still attached.
	select {
	case <-g.resume:
	default:
	}

	select {
	case g.requests <- req:
	default:
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case port := <-g.resume:
		if port == "" {
			port = req.Port
		}
		return port, nil
	}
}

// SwapFunc adapts a function to Swapper.
type SwapFunc func(ctx context.Context, req SwapRequest) (string, error)

// AwaitSwap calls f.
func (f SwapFunc) AwaitSwap(ctx context.Context, req SwapRequest) (string, error) {
	return f(ctx, req)
}

var (
	_ Swapper = (*Gate)(nil)
	_ Swapper = SwapFunc(nil)
)
