// Package connectivity maintains which copper items of a board are
// electrically connected and which connections are still missing.
//
// A Store wraps every connectable board item in an Item carrying its
// anchors, cached shapes and cluster membership. Edits go through Add,
// Remove and Update, which only mark the affected nets dirty.
// RecalculateRatsnest reclusters the dirty nets in parallel and rebuilds
// their ratsnest: the minimum spanning set of edges joining the clusters
// of each net.
//
// Basic usage:
//
//	store, err := connectivity.New(connectivity.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	if err := store.Build(ctx, brd, nil); err != nil {
//		return err
//	}
//	brd.Insert(track)
//	store.Add(track)
//	store.RecalculateRatsnest()
//	fmt.Println(store.GetUnconnectedCount())
//
// Mutations and RecalculateRatsnest are expected from a single editing
// goroutine. Queries may run from any goroutine and see the state of the
// last completed recompute.
package connectivity
