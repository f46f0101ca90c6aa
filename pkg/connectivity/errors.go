package connectivity

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
	"github.com/OpenTraceLab/OpenTraceConn/pkg/geom"
)

var (
	// ErrBusy is returned by Build when another build is in flight.
	// The in-flight build produces an equally current result.
	ErrBusy = errors.New("connectivity: build already in progress")

	// ErrCancelled is returned by Build when its Progress asked to stop.
	// The previous state is left intact.
	ErrCancelled = errors.New("connectivity: build cancelled")

	// ErrIncompletePairing marks a cluster left out of a ratsnest pass
	// because it had no usable anchor.
	ErrIncompletePairing = errors.New("connectivity: cluster has no anchors")

	// ErrStaleReference marks an item whose board handle went invalid
	// outside the normal Remove path.
	ErrStaleReference = errors.New("connectivity: stale item reference")
)

// Diagnostic is a non-fatal condition found while recomputing a net.
// Err wraps geom.ErrMalformed, ErrIncompletePairing or ErrStaleReference.
type Diagnostic struct {
	Net    int
	Handle board.Handle
	Err    error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("net %d item %s: %v", d.Net, d.Handle, d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// diagnosticKind names the taxonomy entry of d for logs and metrics
func diagnosticKind(d Diagnostic) string {
	switch {
	case errors.Is(d.Err, geom.ErrMalformed):
		return "malformed"
	case errors.Is(d.Err, ErrIncompletePairing):
		return "incomplete_pairing"
	case errors.Is(d.Err, ErrStaleReference):
		return "stale_reference"
	default:
		return "other"
	}
}
