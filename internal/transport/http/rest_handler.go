package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timed-quiz-service/internal/api"
	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

// RESTHandler exposes the timed session operations and untimed grading over JSON.
type RESTHandler struct {
	sessions *app.SessionController
	grader   *app.QuizService
}

func NewRESTHandler(sessions *app.SessionController, grader *app.QuizService) *RESTHandler {
	return &RESTHandler{sessions: sessions, grader: grader}
}

func (h *RESTHandler) StartTimed(w http.ResponseWriter, r *http.Request) {
	who, _ := IdentityFromContext(r.Context())
	res, err := h.sessions.StartSession(r.Context(), chi.URLParam(r, "quizId"), who)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStart(res))
}

func (h *RESTHandler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	who, _ := IdentityFromContext(r.Context())
	status, err := h.sessions.Status(r.Context(), chi.URLParam(r, "quizId"), who.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatus(status))
}

func (h *RESTHandler) SubmitTimedAnswer(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(api.CodeValidation, "invalid request body"))
		return
	}
	who, _ := IdentityFromContext(r.Context())
	res, err := h.sessions.SubmitForQuiz(r.Context(), chi.URLParam(r, "quizId"), who.UserID, app.Submission{
		QuestionIndex:  req.QuestionIndex,
		SelectedOption: req.SelectedOption,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubmit(res))
}

func (h *RESTHandler) SubmitUntimed(w http.ResponseWriter, r *http.Request) {
	var req api.GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp(api.CodeValidation, "invalid request body"))
		return
	}
	answers := make([]app.GradedAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, app.GradedAnswer{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption})
	}
	res, err := h.grader.GradeAttempt(r.Context(), chi.URLParam(r, "quizId"), answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGrade(res))
}

// classify maps domain errors onto an HTTP status and error code.
func classify(err error) (int, api.ErrorResponse) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound, errorResp(api.CodeNotFound, "quiz not found")
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, errorResp(api.CodeNotFound, "no timed session for this quiz")
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound, errorResp(api.CodeNotFound, "question not found")
	case errors.Is(err, domain.ErrQuizNotAvailable):
		return http.StatusForbidden, errorResp(api.CodeQuizNotAvailable, "quiz is not available")
	case errors.Is(err, domain.ErrStaleSubmission):
		return http.StatusConflict, errorResp(api.CodeStaleSubmission, "question already answered")
	case errors.Is(err, domain.ErrSessionCompleted):
		return http.StatusConflict, errorResp(api.CodeSessionCompleted, "quiz already completed")
	case errors.Is(err, domain.ErrInvalidOption):
		return http.StatusBadRequest, errorResp(api.CodeInvalidOption, "selected option out of range")
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResp(api.CodeForbidden, "session belongs to another participant")
	default:
		log.Printf("request failed: %v", err)
		return http.StatusInternalServerError, errorResp(api.CodeInternal, "internal error")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string) api.ErrorResponse {
	return api.ErrorResponse{Error: api.APIError{Code: code, Message: message}}
}
