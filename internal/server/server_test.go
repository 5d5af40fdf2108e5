package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"clearbuybot/internal/app"
	"clearbuybot/internal/ratelimit"
	"clearbuybot/pkg/ai"
	"clearbuybot/pkg/store"
)

type stubEngine struct {
	answer string
	err    error
}

func (s *stubEngine) Answer(context.Context, string, []ai.Message) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func newTestServer(t *testing.T, engine ai.AnswerEngine) (*httptest.Server, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	core, err := app.New(app.Config{Store: mem, Engine: engine})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := httptest.NewServer(New(Config{App: core}).Router())
	t.Cleanup(srv.Close)
	return srv, mem
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func deleteJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, url, bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("build delete: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete %s: %v", url, err)
	}
	return resp
}

type envelopeBody struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelopeBody {
	t.Helper()
	defer resp.Body.Close()
	var env envelopeBody
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestAskEndpoint(t *testing.T) {
	srv, mem := newTestServer(t, &stubEngine{answer: "**Product ID: 9** **Product ID: 10** hi"})

	resp := postJSON(t, srv.URL+"/chatbots/ask", `{"user_question":"earbuds?","user_id":"u-1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if !env.Status || env.Message != "Success" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	var data struct {
		UserQuestion string   `json:"user_question"`
		Response     string   `json:"response"`
		ProductIDs   []string `json:"product_ids"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Response != "hi" || len(data.ProductIDs) != 2 || data.ProductIDs[0] != "9" {
		t.Fatalf("unexpected ask payload: %+v", data)
	}
	if ok, _ := mem.HasTurns("u-1"); !ok {
		t.Fatal("ask should persist the turn")
	}
}

func TestAskEndpointValidation(t *testing.T) {
	srv, _ := newTestServer(t, &stubEngine{answer: "x"})

	resp := postJSON(t, srv.URL+"/chatbots/ask", `{"user_question":"","user_id":"u-1"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty question: expected 400, got %d", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/chatbots/ask", `not json`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json: expected 400, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/chatbots/ask", nil)
	getResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("wrong method: expected 405, got %d", getResp.StatusCode)
	}
}

func TestAskEndpointUpstreamFailure(t *testing.T) {
	srv, _ := newTestServer(t, &stubEngine{err: context.DeadlineExceeded})

	resp := postJSON(t, srv.URL+"/chatbots/ask", `{"user_question":"q","user_id":"u-1"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Status || env.Message != "Internal Server Error, please check the logs." {
		t.Fatalf("internal errors must not leak: %+v", env)
	}
}

func TestChatHistoryEndpoint(t *testing.T) {
	srv, mem := newTestServer(t, &stubEngine{answer: "x"})

	resp := postJSON(t, srv.URL+"/chatbots/chat-history", `{"user_id":"ghost"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("no history: expected 404, got %d", resp.StatusCode)
	}

	_, _ = mem.AppendTurn("u-1", "q1", "a1", []string{"5"})
	_, _ = mem.AppendTurn("u-1", "q2", "a2", nil)

	resp = postJSON(t, srv.URL+"/chatbots/chat-history", `{"user_id":"u-1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	var entries []struct {
		Question   string   `json:"question"`
		Answer     string   `json:"answer"`
		ProductIDs []string `json:"product_ids"`
		Timestamp  string   `json:"timestamp"`
	}
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		t.Fatalf("decode entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Question != "q1" || entries[1].Question != "q2" {
		t.Fatalf("history should read chronologically: %+v", entries)
	}
	if entries[0].Timestamp == "" {
		t.Fatal("expected RFC3339 timestamps")
	}
	if _, err := time.Parse(time.RFC3339, entries[0].Timestamp); err != nil {
		t.Fatalf("timestamp not RFC3339: %v", err)
	}
}

func TestClearChatEndpoint(t *testing.T) {
	srv, mem := newTestServer(t, &stubEngine{answer: "x"})

	resp := deleteJSON(t, srv.URL+"/chatbots/clear-chat", `{"user_id":"ghost"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown user: expected 404, got %d", resp.StatusCode)
	}

	_, _ = mem.AppendTurn("u-1", "q", "a", nil)
	resp = deleteJSON(t, srv.URL+"/chatbots/clear-chat", `{"user_id":"u-1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if !env.Status || env.Message != "Success" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if ok, _ := mem.HasTurns("u-1"); ok {
		t.Fatal("expected history gone after clear")
	}
}

func TestAskEndpointRateLimited(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ask", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	mem := store.NewMemoryStore()
	core, err := app.New(app.Config{Store: mem, Engine: &stubEngine{answer: "x"}})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := httptest.NewServer(New(Config{App: core, AskLimiter: limiter}).Router())
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/chatbots/ask", `{"user_question":"q","user_id":"u-1"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", resp.StatusCode)
	}
	resp = postJSON(t, srv.URL+"/chatbots/ask", `{"user_question":"q","user_id":"u-1"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &stubEngine{answer: "x"})
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatal("expected request id header from middleware")
	}
}
