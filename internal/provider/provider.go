// Package provider adapts language model backends to the tool-calling
// loop used for generation.
package provider

import (
	"context"
	"fmt"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// StopReason says why a model turn ended.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopToolCalls StopReason = "tool_calls"
	StopLength    StopReason = "length"
)

type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type Request struct {
	System   string
	Messages []Message
	Tools    []ToolSpec
}

type Response struct {
	Text      string
	ToolCalls []ToolCall
	Stop      StopReason
}

// Model is one chat backend.
type Model interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
}

const (
	KindAuto   = "auto"
	KindStub   = "stub"
	KindOpenAI = "openai"
)

type Options struct {
	Kind    string
	APIKey  string
	BaseURL string
	Model   string
}

// New picks a backend once. With KindAuto a missing API key selects the
// stub so the loop still works offline.
func New(opts Options) (Model, error) {
	switch opts.Kind {
	case KindAuto, "":
		if opts.APIKey == "" {
			return NewStub(), nil
		}
		return NewOpenAI(opts)
	case KindStub:
		return NewStub(), nil
	case KindOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("provider %q requires an API key", KindOpenAI)
		}
		return NewOpenAI(opts)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", opts.Kind)
	}
}
