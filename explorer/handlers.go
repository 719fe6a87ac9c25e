package explorer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Siasom1/orderly-counter/state"
)

// Utility response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ------------------------------------------------------------
// 1. /explorer/head
// ------------------------------------------------------------
func (api *ExplorerAPI) handleHead(w http.ResponseWriter, r *http.Request) {
	head, err := api.State.Head()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, head)
}

// ------------------------------------------------------------
// 2. /explorer/lock
// ------------------------------------------------------------
func (api *ExplorerAPI) handleLock(w http.ResponseWriter, r *http.Request) {
	info, err := api.State.Lock()
	if errors.Is(err, state.ErrNotFound) {
		writeError(w, http.StatusNotFound, "lock not installed")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ------------------------------------------------------------
// 3. /explorer/tx/{hash}
// ------------------------------------------------------------
func (api *ExplorerAPI) handleTransaction(w http.ResponseWriter, r *http.Request) {
	b, err := hexutil.Decode(r.PathValue("hash"))
	if err != nil || len(b) != common.HashLength {
		writeError(w, http.StatusBadRequest, "invalid tx hash")
		return
	}

	rec, err := api.State.GetTx(common.BytesToHash(b))
	if errors.Is(err, state.ErrNotFound) {
		writeError(w, http.StatusNotFound, "tx not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ------------------------------------------------------------
// 4. /explorer/address/{address}
// ------------------------------------------------------------
func (api *ExplorerAPI) handleAddress(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("address")
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}
	addr := common.HexToAddress(raw)

	nonce, err := api.State.GetNonce(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address": addr,
		"nonce":   nonce,
	})
}

// ------------------------------------------------------------
// 5. /explorer/stream/blocks  (SSE)
// ------------------------------------------------------------
func (api *ExplorerAPI) handleStreamBlocks(w http.ResponseWriter, r *http.Request) {
	ch := api.Events.SubscribeBlocks()
	defer api.Events.UnsubscribeBlocks(ch)

	stream(w, r, func() (interface{}, bool) {
		select {
		case block := <-ch:
			return block, true
		case <-r.Context().Done():
			return nil, false
		}
	})
}

// ------------------------------------------------------------
// 6. /explorer/stream/txs  (SSE)
// ------------------------------------------------------------
func (api *ExplorerAPI) handleStreamTxs(w http.ResponseWriter, r *http.Request) {
	ch := api.Events.SubscribeTxs()
	defer api.Events.UnsubscribeTxs(ch)

	stream(w, r, func() (interface{}, bool) {
		select {
		case tx := <-ch:
			return tx, true
		case <-r.Context().Done():
			return nil, false
		}
	})
}

// stream writes every value next yields as one SSE data frame until next
// reports false.
func stream(w http.ResponseWriter, r *http.Request, next func() (interface{}, bool)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		v, ok := next()
		if !ok {
			return
		}
		data, err := json.Marshal(v)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}
