package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type chatRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatCompletion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17},
	})
	return string(b)
}

func newTestOpenAIGenerator(t *testing.T, handler http.HandlerFunc) *openaiGenerator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g, err := newOpenAIGenerator(ProviderOpenAI, ProviderConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1/",
	}, Params{MaxTokens: 500, Temperature: 0.7})
	if err != nil {
		t.Fatalf("newOpenAIGenerator() error = %v", err)
	}
	return g
}

func TestNewOpenAIGenerator_EmptyKey(t *testing.T) {
	t.Parallel()
	g, err := newOpenAIGenerator(ProviderGroq, ProviderConfig{}, Params{})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if g != nil {
		t.Error("expected nil generator for empty API key")
	}
}

func TestNewOpenAIGenerator_Defaults(t *testing.T) {
	t.Parallel()
	for _, p := range []Provider{ProviderOpenAI, ProviderGroq, ProviderCerebras} {
		g, err := newOpenAIGenerator(p, ProviderConfig{APIKey: "key"}, Params{})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", p, err)
		}
		if g.Model() != DefaultModels[p] {
			t.Errorf("%s: Model() = %q, want %q", p, g.Model(), DefaultModels[p])
		}
		if g.Provider() != p {
			t.Errorf("Provider() = %q, want %q", g.Provider(), p)
		}
		if err := g.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}
}

func TestNewOpenAIGenerator_UnsupportedProvider(t *testing.T) {
	t.Parallel()
	if _, err := newOpenAIGenerator(ProviderGemini, ProviderConfig{APIKey: "key"}, Params{}); err == nil {
		t.Error("expected error for non-OpenAI-compatible provider without base URL")
	}
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	t.Parallel()
	var got chatRequest
	g := newTestOpenAIGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletion("  GED is a high school equivalency test.  ")))
	})

	text, err := g.Generate(context.Background(), "You are a counselor.", "What is GED?")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "GED is a high school equivalency test." {
		t.Errorf("Generate() = %q", text)
	}

	if got.Model != "gpt-4o-mini" || got.MaxTokens != 500 || got.Temperature != 0.7 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != "system" || got.Messages[0].Content != "You are a counselor." {
		t.Errorf("system message = %+v", got.Messages[0])
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "What is GED?" {
		t.Errorf("user message = %+v", got.Messages[1])
	}
}

func TestOpenAIGenerator_EmptyContent(t *testing.T) {
	t.Parallel()
	g := newTestOpenAIGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletion("   ")))
	})

	_, err := g.Generate(context.Background(), "role", "question")
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
}

func TestOpenAIGenerator_RateLimited(t *testing.T) {
	t.Parallel()
	g := newTestOpenAIGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After-Ms", "250")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded","param":null}}`))
	})

	_, err := g.Generate(context.Background(), "role", "question")
	var llmErr *LLMError
	if !errors.As(err, &llmErr) {
		t.Fatalf("error = %v, want *LLMError", err)
	}
	if llmErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", llmErr.StatusCode)
	}
	if llmErr.RetryAfter != 250*time.Millisecond {
		t.Errorf("RetryAfter = %v, want 250ms", llmErr.RetryAfter)
	}
	if llmErr.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q", llmErr.Provider)
	}
	if ClassifyError(err) != ActionRetry {
		t.Errorf("ClassifyError = %v, want retry", ClassifyError(err))
	}
}

func TestOpenAIGenerator_Unauthorized(t *testing.T) {
	t.Parallel()
	calls := 0
	g := newTestOpenAIGenerator(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key","param":null}}`))
	})

	_, err := g.Generate(context.Background(), "role", "question")
	if ClassifyError(err) != ActionFail {
		t.Errorf("ClassifyError = %v, want fail", ClassifyError(err))
	}
	if calls != 1 {
		t.Errorf("server calls = %d, want 1 (SDK retries disabled)", calls)
	}
}
