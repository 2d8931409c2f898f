package tooladapter

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"umlsd/internal/outcome"
)

// JSON-RPC 2.0 over line-delimited stdio, the transport conversational
// agents speak to local tool servers.

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type toolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Serve reads requests from in and writes responses to out until EOF or
// context cancellation. Notifications (requests without an id) get no
// response, per the JSON-RPC spec.
func (a *Adapter) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req rpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			_ = encoder.Encode(rpcResponse{
				JSONRPC: "2.0",
				Error:   &rpcError{Code: codeParseError, Message: err.Error()},
			})
			continue
		}
		if len(req.ID) == 0 || string(req.ID) == "null" {
			continue // notification
		}

		resp := a.dispatch(ctx, &req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (a *Adapter) dispatch(ctx context.Context, req *rpcRequest) rpcResponse {
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "umlsd", "version": "1.0.0"},
		}
	case "tools/list":
		tools := a.List()
		infos := make([]toolInfo, 0, len(tools))
		for _, t := range tools {
			infos = append(infos, toolInfo{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
		}
		resp.Result = map[string]any{"tools": infos}
	case "tools/call":
		var params callParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &rpcError{Code: codeInvalidParams, Message: err.Error()}
			return resp
		}
		text, err := a.Call(ctx, params.Name, params.Arguments)
		if err != nil {
			// Engine outcomes surface as tool errors in the content
			// stream, not protocol errors, so the agent can read them.
			resp.Result = callResult{
				Content: []textContent{{Type: "text", Text: fmt.Sprintf("Error: %v", errDetail(err))}},
				IsError: true,
			}
			return resp
		}
		resp.Result = callResult{Content: []textContent{{Type: "text", Text: text}}}
	case "ping":
		resp.Result = map[string]any{}
	default:
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: "unknown method " + req.Method}
	}
	return resp
}

// errDetail strips the internal operation trail, leaving the message the
// agent should see.
func errDetail(err error) string {
	var oe *outcome.Error
	if errors.As(err, &oe) && oe.Err != nil {
		return oe.Err.Error()
	}
	return err.Error()
}
