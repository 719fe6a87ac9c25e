// Package explorer serves a read-only REST view of the dev node plus
// server-sent event streams of produced blocks and executed transactions.
package explorer

import (
	"net/http"

	"github.com/Siasom1/orderly-counter/events"
	"github.com/Siasom1/orderly-counter/state"
)

type ExplorerAPI struct {
	State  *state.State
	Events *events.EventBus
}

func NewExplorerAPI(st *state.State, bus *events.EventBus) *ExplorerAPI {
	return &ExplorerAPI{
		State:  st,
		Events: bus,
	}
}

// Handler routes every endpoint under /explorer/.
func (api *ExplorerAPI) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /explorer/head", api.handleHead)
	mux.HandleFunc("GET /explorer/lock", api.handleLock)
	mux.HandleFunc("GET /explorer/tx/{hash}", api.handleTransaction)
	mux.HandleFunc("GET /explorer/address/{address}", api.handleAddress)

	// Live streams (SSE)
	mux.HandleFunc("GET /explorer/stream/blocks", api.handleStreamBlocks)
	mux.HandleFunc("GET /explorer/stream/txs", api.handleStreamTxs)
	return mux
}
