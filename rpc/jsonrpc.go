package rpc

import (
	"encoding/json"
	"fmt"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeExecReverted   = 3
)

type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func errMethodNotFound(method string) *RPCError {
	return &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("the method %s does not exist/is not available", method)}
}

func errInvalidParams(format string, args ...interface{}) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf(format, args...)}
}

func errServer(format string, args ...interface{}) *RPCError {
	return &RPCError{Code: codeServerError, Message: fmt.Sprintf(format, args...)}
}

// MarshalJSON drops the result member when an error is set.
func (r RPCResponse) MarshalJSON() ([]byte, error) {
	type plain RPCResponse
	if r.Error != nil {
		return json.Marshal(struct {
			JSONRPC string          `json:"jsonrpc"`
			Error   *RPCError       `json:"error"`
			ID      json.RawMessage `json:"id"`
		}{r.JSONRPC, r.Error, r.ID})
	}
	return json.Marshal(plain(r))
}

// parseParams decodes positional params into the given pointers. Missing
// trailing params leave their targets untouched.
func parseParams(raw json.RawMessage, targets ...interface{}) *RPCError {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return errInvalidParams("non-array params")
	}
	if len(list) > len(targets) {
		return errInvalidParams("too many arguments, want at most %d", len(targets))
	}
	for i, item := range list {
		if err := json.Unmarshal(item, targets[i]); err != nil {
			return errInvalidParams("invalid argument %d: %v", i, err)
		}
	}
	return nil
}
