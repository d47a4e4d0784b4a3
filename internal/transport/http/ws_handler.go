package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"timed-quiz-service/internal/api"
	"timed-quiz-service/internal/app"
)

// WSHandler carries start/status/answer for one quiz over a WebSocket. Every inbound
// message gets exactly one reply; the server pushes nothing unprompted.
type WSHandler struct {
	sessions *app.SessionController
	upgrader websocket.Upgrader
}

func NewWSHandler(sessions *app.SessionController) *WSHandler {
	return &WSHandler{
		sessions: sessions,
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

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizId")
	who, ok := IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResp(api.CodeUnauthorized, "missing identity"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})

	// single writer; gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				conn.Close()
				for range send {
				}
				return
			}
		}
	}()

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case api.MsgStart:
			res, err := h.sessions.StartSession(ctx, quizID, who)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage{Type: api.MsgStarted, Payload: toStart(res)}
		case api.MsgStatus:
			status, err := h.sessions.Status(ctx, quizID, who.UserID)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage{Type: api.MsgStatus, Payload: toStatus(status)}
		case api.MsgAnswer:
			var req api.SubmitRequest
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &req); err != nil {
					send <- outboundMessage{Type: api.MsgError, Payload: api.APIError{Code: api.CodeValidation, Message: "invalid answer payload"}}
					continue
				}
			}
			res, err := h.sessions.SubmitForQuiz(ctx, quizID, who.UserID, app.Submission{
				QuestionIndex:  req.QuestionIndex,
				SelectedOption: req.SelectedOption,
			})
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage{Type: api.MsgAnswerResult, Payload: toSubmit(res)}
		default:
			send <- outboundMessage{Type: api.MsgError, Payload: api.APIError{Code: api.CodeValidation, Message: "unsupported message type"}}
		}
	}

	close(send)
	<-writerDone
}

func errorMessage(err error) outboundMessage {
	_, body := classify(err)
	return outboundMessage{Type: api.MsgError, Payload: body.Error}
}
