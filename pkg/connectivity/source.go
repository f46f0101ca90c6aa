package connectivity

import (
	"github.com/OpenTraceLab/OpenTraceConn/pkg/board"
)

// Source enumerates the connectable items a Build indexes.
// *board.Board implements it.
type Source interface {
	Items() []board.Item
}

// Liveness reports whether a handle still refers to a live board item.
// *board.Board implements it.
type Liveness interface {
	Valid(h board.Handle) bool
}

// Progress receives Build progress and may ask the build to stop. The
// request is honored after clustering, before the ratsnest is built.
type Progress interface {
	Report(stage string, done, total int)
	Cancelled() bool
}

// ItemList is a Source over a fixed set of items. Footprints in the list
// contribute their pads.
type ItemList []board.Item

// Items returns the list with footprints expanded
func (l ItemList) Items() []board.Item {
	out := make([]board.Item, 0, len(l))
	for _, it := range l {
		if fp, ok := it.(*board.Footprint); ok {
			for _, p := range fp.Pads {
				out = append(out, p)
			}
			continue
		}
		out = append(out, it)
	}
	return out
}

type nopProgress struct{}

func (nopProgress) Report(string, int, int) {}
func (nopProgress) Cancelled() bool         { return false }
