package explorer

import (
	"bufio"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Siasom1/orderly-counter/events"
	"github.com/Siasom1/orderly-counter/state"
)

var (
	contract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	owner    = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
)

func newTestAPI(t *testing.T) (*ExplorerAPI, *httptest.Server) {
	t.Helper()
	st, err := state.NewMemoryState()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	api := NewExplorerAPI(st, events.NewEventBus())
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)
	return api, ts
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestHeadAndLock(t *testing.T) {
	api, ts := newTestAPI(t)

	var lockErr map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/explorer/lock", &lockErr))
	assert.Equal(t, "lock not installed", lockErr["error"])

	require.NoError(t, api.State.SetHead(state.Head{Number: 4, Time: 1_700_000_000}))
	_, err := api.State.InstallLock(contract, owner, 1_700_000_100)
	require.NoError(t, err)

	var head state.Head
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/explorer/head", &head))
	assert.Equal(t, uint64(4), head.Number)

	var info state.LockInfo
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/explorer/lock", &info))
	assert.Equal(t, contract, info.Address)
	assert.Equal(t, owner, info.Owner)
	assert.Equal(t, "0", info.Counter.String())
}

func TestTransactionAndAddress(t *testing.T) {
	api, ts := newTestAPI(t)
	_, err := api.State.InstallLock(contract, owner, 0)
	require.NoError(t, err)

	rec := &state.TxRecord{
		Hash:     common.HexToHash("0xabcdef"),
		From:     owner,
		To:       &contract,
		Nonce:    0,
		Gas:      21_000,
		GasPrice: big.NewInt(2_000_000_000),
		Status:   1,
		Logs:     []state.LogRecord{},
	}
	require.NoError(t, api.State.CommitTx(rec, state.Effect{IncCounter: true}))

	var got state.TxRecord
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/explorer/tx/"+rec.Hash.Hex(), &got))
	assert.Equal(t, rec.Hash, got.Hash)
	assert.Equal(t, owner, got.From)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/explorer/tx/"+common.HexToHash("0x01").Hex(), nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/explorer/tx/0x1234", nil))

	var acct struct {
		Address common.Address `json:"address"`
		Nonce   uint64         `json:"nonce"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/explorer/address/"+owner.Hex(), &acct))
	assert.Equal(t, uint64(1), acct.Nonce)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/explorer/address/nope", nil))
}

func TestStreamBlocks(t *testing.T) {
	api, ts := newTestAPI(t)

	resp, err := http.Get(ts.URL + "/explorer/stream/blocks")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	api.Events.PublishBlock(events.BlockEvent{Number: 7, Time: 1_700_000_014, BaseFee: "1000000000"})

	lines := make(chan string, 1)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if strings.HasPrefix(sc.Text(), "data: ") {
				lines <- strings.TrimPrefix(sc.Text(), "data: ")
				return
			}
		}
	}()

	select {
	case line := <-lines:
		var ev events.BlockEvent
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		assert.Equal(t, uint64(7), ev.Number)
	case <-time.After(2 * time.Second):
		t.Fatal("no block frame")
	}
}
