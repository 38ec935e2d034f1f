package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m, err := New(Options{Kind: KindAuto})
	require.NoError(t, err)
	assert.Equal(t, KindStub, m.Name())

	m, err = New(Options{Kind: KindAuto, APIKey: "sk-test", Model: "gpt-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai:gpt-test", m.Name())

	_, err = New(Options{Kind: KindOpenAI})
	assert.Error(t, err)

	_, err = New(Options{Kind: "bard"})
	assert.Error(t, err)
}

func TestStub(t *testing.T) {
	s := NewStub()
	ctx := context.Background()

	resp, err := s.Generate(ctx, Request{Messages: []Message{{Role: RoleUser, Content: "make a button"}}})
	require.NoError(t, err)
	assert.Equal(t, StopToolCalls, resp.Stop)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "str_replace_editor", resp.ToolCalls[0].Name)

	var args map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.ToolCalls[0].Arguments), &args))
	assert.Equal(t, "create", args["command"])
	assert.Equal(t, "/App.jsx", args["path"])

	resp, err = s.Generate(ctx, Request{Messages: []Message{
		{Role: RoleUser, Content: "make a button"},
		{Role: RoleAssistant, ToolCalls: resp.ToolCalls},
		{Role: RoleTool, ToolCallID: resp.ToolCalls[0].ID, Content: "File created: /App.jsx"},
	}})
	require.NoError(t, err)
	assert.Equal(t, StopEnd, resp.Stop)
	assert.Empty(t, resp.ToolCalls)
}

func TestOpenAIGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-test",
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "str_replace_editor", "arguments": "{\"command\":\"view\",\"path\":\"/\"}"}
					}]
				},
				"finish_reason": "tool_calls"
			}]
		}`)
	}))
	defer srv.Close()

	m, err := NewOpenAI(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Model: "gpt-test"})
	require.NoError(t, err)

	resp, err := m.Generate(context.Background(), Request{
		System:   "be brief",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
		Tools:    []ToolSpec{{Name: "str_replace_editor", Parameters: map[string]any{"type": "object"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, StopToolCalls, resp.Stop)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.JSONEq(t, `{"command":"view","path":"/"}`, resp.ToolCalls[0].Arguments)

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
	assert.Equal(t, "gpt-test", body["model"])
	assert.Contains(t, body, "tools")
}

func TestOpenAIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	m, err := NewOpenAI(Options{APIKey: "sk-bad", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.Error(t, err)
}
