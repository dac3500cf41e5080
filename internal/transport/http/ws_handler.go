package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"quizduel/internal/app"
	"quizduel/internal/domain"
)

// Session identifies who is connecting and to which match.
type Session struct {
	MatchID   string
	UserID    string
	Name      string
	Opponents []string
}

// EngineFactory builds a fresh engine for one connection.
type EngineFactory func(session Session) *app.Engine

type WSHandler struct {
	newEngine EngineFactory
	publisher app.ProgressPublisher
	upgrader  websocket.Upgrader
}

// NewWSHandler wires websocket connections to match engines. publisher may be nil;
// when set, each engine's local progress is relayed to it.
func NewWSHandler(newEngine EngineFactory, publisher app.ProgressPublisher) *WSHandler {
	return &WSHandler{
		newEngine: newEngine,
		publisher: publisher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type namePayload struct {
	Name string `json:"name"`
}

type reviewPayload struct {
	On bool `json:"on"`
}

type flagPayload struct {
	Index int `json:"index"`
}

type flagResult struct {
	Index   int  `json:"index"`
	Flagged bool `json:"flagged"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one engine per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	session := Session{
		MatchID: q.Get("matchId"),
		UserID:  q.Get("userId"),
		Name:    q.Get("name"),
	}
	if raw := q.Get("opponents"); raw != "" {
		if session.MatchID == "" || session.UserID == "" {
			http.Error(w, "opponents require matchId and userId", http.StatusBadRequest)
			return
		}
		session.Opponents = app.NormalizeRemoteIDs(session.UserID, strings.Split(raw, ","))
		if len(session.Opponents) == 0 {
			http.Error(w, "opponents must name at least one other participant", http.StatusBadRequest)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancelCtx := context.WithCancel(r.Context())
	defer cancelCtx()

	engine := h.newEngine(session)
	engine.SetPlayerName(session.Name)
	updates, cancel := engine.Subscribe()
	defer cancel()

	if h.publisher != nil {
		go app.RunProgressRelay(ctx, engine, h.publisher)
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	var inflight sync.WaitGroup

	emit := func(typ string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
		case <-closeSignals:
		}
	}
	emitErr := func(err error) {
		emit("error", errorPayload{Message: err.Error()})
	}

	// single writer goroutine; gorilla connections do not support concurrent writes.
	// After a write error it keeps draining so emitters never block.
	go func() {
		defer close(writerDone)
		broken := false
		for msg := range send {
			if broken {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("ws write error")
				broken = true
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				emit("state", snap)
			case <-closeSignals:
				return
			}
		}
	}()

	// long-running commands must not block the read loop
	async := func(fn func()) {
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			fn()
		}()
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "begin":
			async(func() {
				if err := engine.Begin(ctx); err != nil {
					emitErr(err)
				}
			})
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emitErr(errInvalidPayload)
				continue
			}
			async(func() {
				res, err := engine.Submit(ctx, payload.Answer)
				if err != nil {
					emitErr(err)
					return
				}
				emit("answerResult", res)
			})
		case "skip":
			res, err := engine.Skip()
			if err != nil {
				emitErr(err)
				continue
			}
			emit("answerResult", res)
		case "reset":
			engine.Reset()
		case "openSettings":
			if err := engine.OpenSettings(); err != nil {
				emitErr(err)
			}
		case "closeSettings":
			if err := engine.CloseSettings(); err != nil {
				emitErr(err)
			}
		case "updateSettings":
			var settings domain.Settings
			if err := json.Unmarshal(inbound.Payload, &settings); err != nil {
				emitErr(errInvalidPayload)
				continue
			}
			if err := engine.UpdateSettings(settings); err != nil {
				emitErr(err)
			}
		case "setName":
			var payload namePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emitErr(errInvalidPayload)
				continue
			}
			engine.SetPlayerName(payload.Name)
		case "review":
			var payload reviewPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emitErr(errInvalidPayload)
				continue
			}
			if !payload.On {
				engine.ExitReview()
			} else if err := engine.EnterReview(); err != nil {
				emitErr(err)
			}
		case "toggleFlag":
			var payload flagPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emitErr(errInvalidPayload)
				continue
			}
			flagged, err := engine.ToggleReviewFlag(payload.Index)
			if err != nil {
				emitErr(err)
				continue
			}
			emit("flag", flagResult{Index: payload.Index, Flagged: flagged})
		default:
			emitErr(errUnsupported)
		}
	}

	cancelCtx()
	engine.Close()
	close(closeSignals)
	inflight.Wait()
	<-updatesDone
	close(send)
	<-writerDone
}
