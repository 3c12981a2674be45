// Package parser decodes hook requests into typed tool calls.
package parser

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/adrianpk/guardrail/internal/policy"
)

// Request is the hook payload. Two shapes are accepted: the agent's native
// {"tool_name", "tool_input"} and the plain {"tool", "arguments"}. When both
// are present the native fields win.
type Request struct {
	HookType  string
	Tool      string
	Arguments map[string]any
}

// Decode reads one JSON request and returns its tool call.
func Decode(r io.Reader) (policy.ToolCall, error) {
	req, err := DecodeRequest(r)
	if err != nil {
		return nil, err
	}
	return FromArguments(req.Tool, req.Arguments), nil
}

// DecodeRequest reads one JSON request. Fields with unexpected types are
// treated as absent.
func DecodeRequest(r io.Reader) (Request, error) {
	var raw map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Request{}, fmt.Errorf("cannot decode input: %w", err)
	}
	if raw == nil {
		return Request{}, fmt.Errorf("cannot decode input: request is not an object")
	}

	req := Request{
		HookType:  firstString(raw, "hook_event_name", "hook_type"),
		Tool:      firstString(raw, "tool_name", "tool"),
		Arguments: firstMap(raw, "tool_input", "arguments"),
	}
	return req, nil
}

// FromArguments builds the call for a tool from its argument map. Missing or
// non-string fields are empty.
func FromArguments(tool string, args map[string]any) policy.ToolCall {
	return policy.NewToolCall(tool, stringArg(args, "file_path"), stringArg(args, "command"))
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok {
			return s
		}
	}
	return ""
}

func firstMap(raw map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if m, ok := raw[k].(map[string]any); ok {
			return m
		}
	}
	return nil
}
