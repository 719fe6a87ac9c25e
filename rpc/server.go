package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Siasom1/orderly-counter/events"
	"github.com/Siasom1/orderly-counter/log"
	"github.com/Siasom1/orderly-counter/metrics"
	"github.com/Siasom1/orderly-counter/params"
	"github.com/Siasom1/orderly-counter/state"
)

const maxRequestBytes = 5 * 1024 * 1024

type Server struct {
	chain   *params.ChainConfig
	state   *state.State
	bus     *events.EventBus
	logger  *log.Logger
	metrics *metrics.RPC
	gather  prometheus.Gatherer
	signer  gethtypes.Signer

	mounts map[string]http.Handler

	http *http.Server
	ln   net.Listener
}

// NewServer builds the JSON-RPC server. A nil registry gets a private one.
func NewServer(st *state.State, bus *events.EventBus, chain *params.ChainConfig, logger *log.Logger, reg *prometheus.Registry) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Server{
		chain:   chain,
		state:   st,
		bus:     bus,
		logger:  logger,
		metrics: metrics.NewRPC(reg),
		gather:  reg,
		signer:  gethtypes.LatestSignerForChainID(chainIDBig(chain.ChainID)),
	}
}

//
// ------------------------------------------------------------
// HTTP
// ------------------------------------------------------------
//

// Mount serves h under pattern next to the JSON-RPC endpoint. Call before Start.
func (s *Server) Mount(pattern string, h http.Handler) {
	if s.mounts == nil {
		s.mounts = make(map[string]http.Handler)
	}
	s.mounts[pattern] = h
}

// Handler returns the mux serving JSON-RPC on "/", events on "/ws" and
// prometheus on "/metrics".
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.HandleJSONRPC)
	if s.bus != nil {
		mux.HandleFunc("/ws", WSHandler(s.bus, s.logger))
	}
	mux.Handle("/metrics", metrics.Handler(s.gather))
	for pattern, h := range s.mounts {
		mux.Handle(pattern, h)
	}
	return mux
}

// Start listens on addr and serves in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rpc listen %s: %w", addr, err)
	}
	s.ln = ln
	// Shutdown never waits on hijacked or streaming connections; cancelling
	// the base context ends /ws and the explorer streams.
	baseCtx, cancel := context.WithCancel(context.Background())
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	s.http.RegisterOnShutdown(cancel)

	s.logger.Info("RPC listening", "addr", ln.Addr().String())
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("RPC server error", "err", err)
		}
	}()
	return nil
}

// Addr is the bound address once started.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// URL is the http endpoint once started.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Stop shuts the listener down and ends open event streams.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

//
// ------------------------------------------------------------
// JSON-RPC HANDLER
// ------------------------------------------------------------
//

func (s *Server) HandleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeJSON(w, errorResponse(nil, &RPCError{Code: codeParseError, Message: err.Error()}))
		return
	}
	body = bytes.TrimSpace(body)

	if len(body) > 0 && body[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(body, &batch); err != nil {
			writeJSON(w, errorResponse(nil, &RPCError{Code: codeParseError, Message: "parse error"}))
			return
		}
		if len(batch) == 0 {
			writeJSON(w, errorResponse(nil, &RPCError{Code: codeInvalidRequest, Message: "empty batch"}))
			return
		}
		out := make([]RPCResponse, 0, len(batch))
		for _, msg := range batch {
			out = append(out, s.handleMessage(msg))
		}
		writeJSON(w, out)
		return
	}

	writeJSON(w, s.handleMessage(body))
}

func (s *Server) handleMessage(msg json.RawMessage) RPCResponse {
	var req RPCRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return errorResponse(nil, &RPCError{Code: codeParseError, Message: "parse error"})
	}
	if req.Method == "" {
		return errorResponse(req.ID, &RPCError{Code: codeInvalidRequest, Message: "missing method"})
	}

	started := time.Now()
	result, rerr := s.dispatch(req)

	// client-chosen names must not mint new series
	label := req.Method
	if rerr != nil && rerr.Code == codeMethodNotFound {
		label = "unknown"
	}
	s.metrics.Observe(label, rerr == nil, started)

	if rerr != nil {
		s.logger.Debug("rpc call failed", "method", req.Method, "code", rerr.Code, "err", rerr.Message)
		return errorResponse(req.ID, rerr)
	}
	return RPCResponse{JSONRPC: "2.0", Result: result, ID: normalizeID(req.ID)}
}

func errorResponse(id json.RawMessage, err *RPCError) RPCResponse {
	return RPCResponse{JSONRPC: "2.0", Error: err, ID: normalizeID(id)}
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
