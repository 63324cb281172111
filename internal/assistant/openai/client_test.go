package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropchain/internal/assistant/models"
)

type capturedRequest struct {
	Model      string `json:"model"`
	MaxTokens  int    `json:"max_tokens"`
	ToolChoice any    `json:"tool_choice"`
	Tools      []struct {
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	} `json:"tools"`
	Messages []struct {
		Role       string `json:"role"`
		Content    string `json:"content"`
		ToolCallID string `json:"tool_call_id"`
	} `json:"messages"`
}

func TestCompleteWithTools(t *testing.T) {
	var got capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "search_batch", "arguments": "{\"batchId\":\"CROP-2024-001\"}"}
					}]
				}
			}]
		}`))
	}))
	defer srv.Close()

	client := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Model: "gpt-4o-mini", MaxTokens: 500, Temperature: 0.7})
	msg, err := client.Complete(context.Background(), []models.Message{
		{Role: models.RoleSystem, Content: "system"},
		{Role: models.RoleUser, Content: "where is CROP-2024-001?"},
	}, true)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.Equal(t, "auto", got.ToolChoice)
	require.Len(t, got.Tools, 3)
	assert.Equal(t, "search_batch", got.Tools[0].Function.Name)

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, models.ToolCall{ID: "call_1", Name: "search_batch", Arguments: `{"batchId":"CROP-2024-001"}`}, msg.ToolCalls[0])
}

func TestCompleteWithoutToolsSendsToolResult(t *testing.T) {
	var got capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"It is at the mandi."}}]}`))
	}))
	defer srv.Close()

	client := New(Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o-mini"})
	msg, err := client.Complete(context.Background(), []models.Message{
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: "call_1", Name: "search_batch", Arguments: "{}"}}},
		{Role: models.RoleTool, ToolCallID: "call_1", Name: "search_batch", Content: `{"success":true}`},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "It is at the mandi.", msg.Content)
	assert.Empty(t, got.Tools)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "tool", got.Messages[1].Role)
	assert.Equal(t, "call_1", got.Messages[1].ToolCallID)
}

func TestCompleteSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := New(Config{APIKey: "bad", BaseURL: srv.URL, Model: "gpt-4o-mini"})
	_, err := client.Complete(context.Background(), []models.Message{{Role: models.RoleUser, Content: "hi"}}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key")
}
