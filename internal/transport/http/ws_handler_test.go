package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quizduel/internal/app"
	"quizduel/internal/domain"
	"quizduel/internal/infra/memory"
	"quizduel/internal/infra/scoring"
)

func TestWebSocketAnswerFlow(t *testing.T) {
	conn, cleanup := dialTestServer(t, "/ws?name=Alice")
	defer cleanup()

	state := readState(t, conn, func(s domain.Snapshot) bool { return s.State == domain.StateIdle })
	local, ok := state.Participant(state.LocalID)
	if !ok || local.DisplayName != "Alice" {
		t.Fatalf("expected local participant named Alice, got %+v", state.Participants)
	}

	send(t, conn, "begin", nil)
	active := readState(t, conn, func(s domain.Snapshot) bool { return s.State == domain.StateActive })
	if len(active.Questions) != 5 || !active.Countdown.Active {
		t.Fatalf("expected 5 questions and a running countdown, got %+v", active)
	}

	send(t, conn, "answer", map[string]any{"answer": "Sum all values and divide by the count"})
	msg := readUntil(t, conn, "answerResult")
	var res app.SubmitResult
	if err := json.Unmarshal(msg, &res); err != nil {
		t.Fatalf("decode answer result: %v", err)
	}
	if res.Status != app.SubmitAccepted || res.QuestionID != 1 {
		t.Fatalf("unexpected answer result %+v", res)
	}
}

func TestWebSocketRejectsInvalidCommands(t *testing.T) {
	conn, cleanup := dialTestServer(t, "/ws")
	defer cleanup()

	send(t, conn, "answer", map[string]any{"answer": "too early"})
	msg := readUntil(t, conn, "error")
	var payload errorPayload
	if err := json.Unmarshal(msg, &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Message == "" {
		t.Fatalf("expected error message")
	}

	send(t, conn, "dance", nil)
	readUntil(t, conn, "error")
}

func TestWebSocketSettingsFlow(t *testing.T) {
	conn, cleanup := dialTestServer(t, "/ws")
	defer cleanup()

	send(t, conn, "openSettings", nil)
	readState(t, conn, func(s domain.Snapshot) bool { return s.State == domain.StateConfiguring })

	send(t, conn, "updateSettings", domain.Settings{QuestionTimeLimit: 45, NumberOfPlayers: 3, QuestionCount: 5})
	updated := readState(t, conn, func(s domain.Snapshot) bool { return s.Settings.QuestionTimeLimit == 45 })
	if len(updated.Participants) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(updated.Participants))
	}

	send(t, conn, "closeSettings", nil)
	readState(t, conn, func(s domain.Snapshot) bool { return s.State == domain.StateIdle })
}

func TestWebSocketRequiresMatchForOpponents(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws?opponents=p2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebSocketRejectsOpponentsNamingOnlyTheCaller(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws?matchId=lobby&userId=alice&opponents=alice,,%20")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebSocketNormalizesOpponents(t *testing.T) {
	conn, cleanup := dialTestServer(t, "/ws?matchId=lobby&userId=alice&name=Alice&opponents=%20bob%20,alice,,bob")
	defer cleanup()

	state := readState(t, conn, func(s domain.Snapshot) bool { return s.State == domain.StateIdle })
	if len(state.Participants) != 2 {
		t.Fatalf("expected alice and bob, got %+v", state.Participants)
	}
	local, _ := state.Participant("alice")
	remote, ok := state.Participant("bob")
	if local.DisplayName != "Alice" || !ok {
		t.Fatalf("unexpected participants %+v", state.Participants)
	}
	if remote.DisplayName != "Balbes" {
		t.Fatalf("unexpected opponent name %q", remote.DisplayName)
	}
}

func newTestServer() *httptest.Server {
	bank := memory.NewStaticQuestionBank(sampleQuestions())
	factory := func(s Session) *app.Engine {
		return app.NewEngine(app.EngineConfig{
			Generator: bank,
			Scorer:    scoring.NewHeuristicScorer(),
			Progress:  memory.NewSimulatedOpponent(bank),
			Topics:    app.FixedTopics{"mean", "median", "mode", "variance", "probability"},
			LocalID:   s.UserID,
			RemoteIDs: s.Opponents,
			MatchID:   s.MatchID,
		})
	}
	wsHandler := NewWSHandler(factory, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	return httptest.NewServer(mux)
}

func dialTestServer(t *testing.T, path string) (*websocket.Conn, func()) {
	t.Helper()
	server := newTestServer()
	u := "ws" + server.URL[len("http"):] + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips messages until one of the given type arrives and returns its payload.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = conn.SetReadDeadline(deadline)
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return msg.Payload
		}
	}
}

func readState(t *testing.T, conn *websocket.Conn, match func(domain.Snapshot) bool) domain.Snapshot {
	t.Helper()
	for {
		raw := readUntil(t, conn, "state")
		var snap domain.Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		if match(snap) {
			return snap
		}
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{Prompt: "How is the arithmetic mean calculated?", ReferenceAnswer: "Sum all values and divide by the count", Topic: "mean"},
		{Prompt: "What is the median?", ReferenceAnswer: "The middle value", Topic: "median"},
		{Prompt: "What is the mode?", ReferenceAnswer: "The most frequent value", Topic: "mode"},
		{Prompt: "What does variance measure?", ReferenceAnswer: "Spread around the mean", Topic: "variance"},
		{Prompt: "Define conditional probability.", ReferenceAnswer: "P(A|B)", Topic: "probability"},
	}
}
