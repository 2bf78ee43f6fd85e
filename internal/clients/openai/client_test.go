package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/looplearn/looplearn-backend/internal/logger"
)

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(t *testing.T, fn roundTripFunc) *client {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return &client{
		log:         log,
		baseURL:     "http://openai.test",
		apiKey:      "test-key",
		model:       "gpt-test",
		embedModel:  "text-embedding-3-small",
		httpClient:  &http.Client{Transport: fn},
		maxRetries:  2,
		backoffBase: time.Millisecond,
	}
}

func jsonResponse(t *testing.T, status int, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

func TestRetrySucceedsAfterTwoFailures(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		attempts++
		if attempts <= 2 {
			return jsonResponse(t, http.StatusInternalServerError, map[string]any{"error": "boom"}), nil
		}
		return jsonResponse(t, http.StatusOK, map[string]any{
			"data": []map[string]any{{"embedding": []float64{1, 0}, "index": 0}},
		}), nil
	})

	vecs, err := c.Embed(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts: want=3 got=%d", attempts)
	}
	if len(vecs) != 1 || len(vecs[0]) != 2 {
		t.Fatalf("unexpected vectors: %+v", vecs)
	}
}

func TestRetryExhaustionSurfacesServiceError(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		attempts++
		return jsonResponse(t, http.StatusServiceUnavailable, map[string]any{"error": "down"}), nil
	})

	_, err := c.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatal("want error after exhaustion, got nil")
	}
	if attempts != 3 {
		t.Fatalf("attempts: want=3 got=%d", attempts)
	}
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("want ServiceError, got %T: %v", err, err)
	}
	if svcErr.Service != "openai" || svcErr.Operation != "embed" {
		t.Fatalf("error context: got service=%q operation=%q", svcErr.Service, svcErr.Operation)
	}
}

func TestNonRetryableFailsFast(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		attempts++
		return jsonResponse(t, http.StatusBadRequest, map[string]any{"error": "bad request"}), nil
	})

	_, err := c.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatal("want error, got nil")
	}
	if attempts != 1 {
		t.Fatalf("attempts: want=1 got=%d", attempts)
	}
}

func TestCancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		attempts++
		cancel()
		return jsonResponse(t, http.StatusInternalServerError, map[string]any{"error": "boom"}), nil
	})

	start := time.Now()
	_, err := c.Embed(ctx, []string{"hello"})
	if err == nil {
		t.Fatal("want error after cancellation, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts: want=1 got=%d", attempts)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("cancelled request waited out a backoff: %s", elapsed)
	}
}

func TestEmbedEmptyInputSkipsNetwork(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected for empty input")
		return nil, nil
	})
	vecs, err := c.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 0 {
		t.Fatalf("want empty result, got %d", len(vecs))
	}
}

func TestModerateMapsCategories(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1/moderations" {
			t.Fatalf("path: want=/v1/moderations got=%s", r.URL.Path)
		}
		return jsonResponse(t, http.StatusOK, map[string]any{
			"results": []map[string]any{{
				"flagged":         true,
				"categories":      map[string]bool{"hate": true, "violence": false},
				"category_scores": map[string]float64{"hate": 0.91, "violence": 0.02},
			}},
		}), nil
	})

	res, err := c.Moderate(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	if !res.Flagged {
		t.Fatal("want flagged=true")
	}
	if len(res.Categories) != 1 || res.Categories[0] != "hate" {
		t.Fatalf("categories: got=%v", res.Categories)
	}
}

func TestGenerateJSONParsesOutputText(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(t, http.StatusOK, map[string]any{
			"output": []map[string]any{{
				"type": "message",
				"role": "assistant",
				"content": []map[string]any{{
					"type": "output_text",
					"text": `{"topics":["go","testing"]}`,
				}},
			}},
		}), nil
	})

	obj, err := c.GenerateJSON(context.Background(), "sys", "user", "analysis", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	topics, ok := obj["topics"].([]any)
	if !ok || len(topics) != 2 {
		t.Fatalf("topics: got=%v", obj["topics"])
	}
}

func TestGenerateJSONRequiresSchema(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	if _, err := c.GenerateJSON(context.Background(), "s", "u", "", nil); err == nil {
		t.Fatal("want error for missing schema name")
	}
	if _, err := c.GenerateJSON(context.Background(), "s", "u", "name", nil); err == nil {
		t.Fatal("want error for missing schema")
	}
}
