package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func gatewayStub(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer key, got %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatCompletion_Success(t *testing.T) {
	srv := gatewayStub(t, http.StatusOK, `{
		"choices": [{"message": {"content": "Peso: 75,5 kg"}}],
		"usage": {"prompt_tokens": 120, "completion_tokens": 30}
	}`)

	c := NewClient(srv.URL, "test-key")
	out, err := c.ChatCompletion(context.Background(), "test-model",
		[]Message{VisionMessage("transcribe", "https://example.com/img.jpg")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Content != "Peso: 75,5 kg" {
		t.Errorf("unexpected content: %q", out.Content)
	}
	if out.TotalTokens() != 150 {
		t.Errorf("expected 150 tokens, got %d", out.TotalTokens())
	}
}

func TestChatCompletion_NonOKStatus(t *testing.T) {
	srv := gatewayStub(t, http.StatusBadGateway, `{"error": "upstream down"}`)

	c := NewClient(srv.URL, "test-key")
	if _, err := c.ChatCompletion(context.Background(), "m", []Message{TextMessage("user", "hi")}); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestChatCompletion_EmptyContent(t *testing.T) {
	srv := gatewayStub(t, http.StatusOK, `{"choices": [{"message": {"content": ""}}]}`)

	c := NewClient(srv.URL, "test-key")
	_, err := c.ChatCompletion(context.Background(), "m", []Message{TextMessage("user", "hi")})
	if err != ErrEmptyContent {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
}

func TestChatCompletion_NoChoices(t *testing.T) {
	srv := gatewayStub(t, http.StatusOK, `{"choices": []}`)

	c := NewClient(srv.URL, "test-key")
	if _, err := c.ChatCompletion(context.Background(), "m", []Message{TextMessage("user", "hi")}); err != ErrEmptyContent {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
}

func TestVisionMessage_Shape(t *testing.T) {
	m := VisionMessage("read this", "https://example.com/a.png")
	b, _ := json.Marshal(m)
	var decoded map[string]interface{}
	json.Unmarshal(b, &decoded)
	parts := decoded["content"].([]interface{})
	if len(parts) != 2 {
		t.Fatalf("expected 2 content parts, got %d", len(parts))
	}
}
