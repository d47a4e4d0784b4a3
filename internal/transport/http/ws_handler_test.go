package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"timed-quiz-service/internal/api"
)

func TestWebSocketTimedFlow(t *testing.T) {
	server, auth, _ := newTestServer(t)

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/quizzes/timed-1?token=" + tokenFor(t, auth, "u1")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send(t, conn, api.MsgStart, nil)
	var started api.StartResponse
	readNext(t, conn, api.MsgStarted, &started)
	if started.CurrentQuestion == nil || started.CurrentQuestion.ID != "q1" || started.TotalQuestions != 2 {
		t.Fatalf("unexpected started payload: %+v", started)
	}

	send(t, conn, api.MsgAnswer, api.SubmitRequest{SelectedOption: intPtr(0), QuestionIndex: intPtr(0)})
	var result api.SubmitResponse
	readNext(t, conn, api.MsgAnswerResult, &result)
	if !result.IsCorrect || result.TotalScore != 5 || result.NextQuestion == nil || result.NextQuestion.ID != "q2" {
		t.Fatalf("unexpected answer result: %+v", result)
	}

	// replaying the same index loses
	send(t, conn, api.MsgAnswer, api.SubmitRequest{SelectedOption: intPtr(0), QuestionIndex: intPtr(0)})
	var apiErr api.APIError
	readNext(t, conn, api.MsgError, &apiErr)
	if apiErr.Code != api.CodeStaleSubmission {
		t.Fatalf("expected stale submission, got %+v", apiErr)
	}

	send(t, conn, api.MsgStatus, nil)
	var status api.StatusResponse
	readNext(t, conn, api.MsgStatus, &status)
	if status.QuestionNumber != 2 || status.CurrentQuestion == nil || status.CurrentQuestion.ID != "q2" {
		t.Fatalf("unexpected status: %+v", status)
	}

	send(t, conn, "bogus", nil)
	readNext(t, conn, api.MsgError, &apiErr)
	if apiErr.Code != api.CodeValidation {
		t.Fatalf("expected validation error, got %+v", apiErr)
	}
}

func TestWebSocketRequiresToken(t *testing.T) {
	server, _, _ := newTestServer(t)
	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/quizzes/timed-1"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail without token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload interface{}) {
	t.Helper()
	msg := map[string]interface{}{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(t *testing.T, conn *websocket.Conn, expect string, out interface{}) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%s)", expect, msg.Type, msg.Payload)
	}
	if out != nil {
		if err := json.Unmarshal(msg.Payload, out); err != nil {
			t.Fatalf("decode %s payload: %v", expect, err)
		}
	}
}
