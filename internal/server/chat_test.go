package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// ---------------------------------------------------------------------------
// Fake chatter for chat handler tests
// ---------------------------------------------------------------------------

// fakeChatter implements the chatter interface for tests.
type fakeChatter struct {
	// reply is returned for every Chat call.
	reply string
	// err is returned as the error value.
	err error
	// gotSession records the session ID of the last Chat call.
	gotSession string
	// gotMessage records the user message of the last Chat call.
	gotMessage string
}

func (f *fakeChatter) Chat(_ context.Context, sessionID, userMessage string) (string, error) {
	f.gotSession = sessionID
	f.gotMessage = userMessage
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// newChatTestServer builds a *Server wired with the given chatter fake and a
// fresh metrics registry.
func newChatTestServer(c chatter) *Server {
	return &Server{
		chatter: c,
		cfg:     &Config{Port: 8080},
		log:     slog.Default(),
		metrics: newServerMetrics(prometheus.NewRegistry()),
	}
}

// ---------------------------------------------------------------------------
// POST /api/chat — validation error paths (no agent needed)
// ---------------------------------------------------------------------------

func TestHandleChat_MissingMessage(t *testing.T) {
	t.Parallel()

	s := newChatTestServer(&fakeChatter{})
	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"session_id":"abc"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleChat_InvalidJSON(t *testing.T) {
	t.Parallel()

	s := newChatTestServer(&fakeChatter{})
	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`not-json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// POST /api/chat — happy path and error propagation
// ---------------------------------------------------------------------------

func TestHandleChat_Success(t *testing.T) {
	t.Parallel()

	c := &fakeChatter{reply: "Here are the tours in Hue."}
	s := newChatTestServer(c)

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"session_id":"sess-1","message":"tours in Hue"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SessionID != "sess-1" {
		t.Errorf("session_id: got %q, want %q", resp.SessionID, "sess-1")
	}
	if resp.Reply != c.reply {
		t.Errorf("reply: got %q, want %q", resp.Reply, c.reply)
	}
	if c.gotSession != "sess-1" {
		t.Errorf("chatter session: got %q, want %q", c.gotSession, "sess-1")
	}
	if c.gotMessage != "tours in Hue" {
		t.Errorf("chatter message: got %q, want %q", c.gotMessage, "tours in Hue")
	}
}

// TestHandleChat_GeneratedSession verifies that an empty session_id is
// replaced with a generated one and echoed back, so the client can continue
// the conversation.
func TestHandleChat_GeneratedSession(t *testing.T) {
	t.Parallel()

	c := &fakeChatter{reply: "hello"}
	s := newChatTestServer(c)

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	var resp chatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("expected a generated session_id, got empty")
	}
	if c.gotSession != resp.SessionID {
		t.Errorf("chatter session %q does not match echoed session %q", c.gotSession, resp.SessionID)
	}
}

func TestHandleChat_AgentError(t *testing.T) {
	t.Parallel()

	c := &fakeChatter{err: fmt.Errorf("model unavailable")}
	s := newChatTestServer(c)

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"tours in Hue"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	s.handleChat(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "model unavailable") {
		t.Error("internal error detail must not leak to the client")
	}
}
