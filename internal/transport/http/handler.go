package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"sportsquiz-service/internal/app"
	"sportsquiz-service/internal/domain"
	"sportsquiz-service/internal/logger"
)

// Handler exposes the quiz use cases over JSON. Caller identity arrives in
// the X-User-ID / X-Admin headers; verifying them is the job of whatever sits
// in front of this service.
type Handler struct {
	service *app.QuizService
	log     *logger.Logger
}

func NewHandler(service *app.QuizService, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log.With("component", "http")}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.HandleFunc("/v1/quizzes", h.generateQuiz).Methods(http.MethodPost)
	r.HandleFunc("/v1/quizzes/{id}", h.getQuiz).Methods(http.MethodGet)
	r.HandleFunc("/v1/quizzes/{id}/attempts", h.gradeSubmission).Methods(http.MethodPost)
	r.HandleFunc("/v1/quizzes/{id}/visibility", h.setVisibility).Methods(http.MethodPatch)
	r.HandleFunc("/v1/quizzes/{id}/status", h.setStatus).Methods(http.MethodPatch)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func (h *Handler) generateQuiz(w http.ResponseWriter, r *http.Request) {
	var req app.GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.E(domain.KindInvalidArgument, "invalid request body"))
		return
	}

	quiz, err := h.service.GenerateQuiz(r.Context(), req, requesterFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), mux.Vars(r)["id"], requesterFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) gradeSubmission(w http.ResponseWriter, r *http.Request) {
	var req app.GradeSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.E(domain.KindInvalidArgument, "invalid request body"))
		return
	}
	req.QuizID = mux.Vars(r)["id"]

	result, err := h.service.GradeSubmission(r.Context(), req, requesterFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) setVisibility(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Visibility domain.Visibility `json:"visibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, domain.E(domain.KindInvalidArgument, "invalid request body"))
		return
	}

	quiz, err := h.service.SetQuizVisibility(r.Context(), mux.Vars(r)["id"], body.Visibility, requesterFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status domain.QuizStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, domain.E(domain.KindInvalidArgument, "invalid request body"))
		return
	}

	quiz, err := h.service.SetQuizStatus(r.Context(), mux.Vars(r)["id"], body.Status, requesterFrom(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quiz)
}

func requesterFrom(r *http.Request) domain.Requester {
	return domain.Requester{
		UserID: r.Header.Get("X-User-ID"),
		Admin:  r.Header.Get("X-Admin") == "true",
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// writeError maps error kinds to statuses. Only the kind and the safe message
// leave the process; causes were already logged where they happened.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case domain.KindInvalidArgument:
		status = http.StatusBadRequest
	case domain.KindUnauthenticated:
		status = http.StatusUnauthorized
	case domain.KindPermissionDenied:
		status = http.StatusForbidden
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindGenerationFailed, domain.KindInvalidModelOutput:
		status = http.StatusBadGateway
	}

	message := "internal error"
	var de *domain.Error
	if errors.As(err, &de) {
		message = de.Message
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "kind", string(kind), "err", err)
	}

	h.writeJSON(w, status, errorEnvelope{Error: errorBody{Code: string(kind), Message: message}})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("write response", "err", err)
	}
}
