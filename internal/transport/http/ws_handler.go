package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"sportsquiz-service/internal/app"
	"sportsquiz-service/internal/domain"
	"sportsquiz-service/internal/logger"
)

// WSHandler is the interactive take-quiz flow: the client connects, receives
// the answer-stripped questions, submits its answers, and gets the graded
// attempt back. Grading goes through the exact same path as the REST route.
type WSHandler struct {
	service  *app.QuizService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log *logger.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log.With("component", "ws"),
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

type submitPayload struct {
	Answers       []domain.SubmittedAnswer `json:"answers"`
	QuizStartTime int64                    `json:"quizStartTime"`
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS upgrades the connection and runs the take-quiz conversation. All
// writes happen from this single goroutine; there is no concurrent broadcast
// here, so no writer pump is needed.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}
	requester := domain.Requester{UserID: userID}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	quiz, err := h.service.GetQuiz(r.Context(), quizID, requester)
	if err != nil {
		h.writeError(conn, err)
		return
	}
	// Always strip answers for the taking view, even for the quiz owner.
	_ = conn.WriteJSON(outboundMessage{Type: "questions", Payload: app.StripAnswers(quiz)})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "submit":
			var payload submitPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.writeError(conn, domain.E(domain.KindInvalidArgument, "invalid submit payload"))
				continue
			}
			result, err := h.service.GradeSubmission(r.Context(), app.GradeSubmissionRequest{
				QuizID:        quizID,
				UserAnswers:   payload.Answers,
				QuizStartTime: payload.QuizStartTime,
			}, requester)
			if err != nil {
				h.writeError(conn, err)
				continue
			}
			_ = conn.WriteJSON(outboundMessage{Type: "result", Payload: result})
		default:
			h.writeError(conn, domain.E(domain.KindInvalidArgument, "unsupported message type"))
		}
	}
}

func (h *WSHandler) writeError(conn *websocket.Conn, err error) {
	kind := domain.KindOf(err)
	message := "internal error"
	var de *domain.Error
	if errors.As(err, &de) {
		message = de.Message
	}
	_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Code: string(kind), Message: message}})
}
