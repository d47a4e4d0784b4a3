// Package api holds the JSON wire types shared by the HTTP/WebSocket server and the Go client.
package api

import "time"

// Question is a question as shown to participants; the correct answer is never sent.
type Question struct {
	ID        string   `json:"id"`
	Prompt    string   `json:"prompt"`
	Options   []string `json:"options"`
	Points    int      `json:"points"`
	TimeLimit int      `json:"timeLimit"`
}

type Answer struct {
	QuestionIndex    int       `json:"questionIndex"`
	QuestionID       string    `json:"questionId"`
	SelectedOption   *int      `json:"selectedOption"`
	IsCorrect        bool      `json:"isCorrect"`
	PointsEarned     int       `json:"pointsEarned"`
	TimeTakenSeconds int       `json:"timeTakenSeconds"`
	TimedOut         bool      `json:"timedOut"`
	AnsweredAt       time.Time `json:"answeredAt"`
}

type Session struct {
	ID                   string     `json:"id"`
	QuizID               string     `json:"quizId"`
	TeamID               string     `json:"teamId,omitempty"`
	StartedAt            time.Time  `json:"startedAt"`
	CompletedAt          *time.Time `json:"completedAt"`
	TotalScore           int        `json:"totalScore"`
	QuestionsAnswered    int        `json:"questionsAnswered"`
	QuestionsTimedOut    int        `json:"questionsTimedOut"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	TotalQuestions       int        `json:"totalQuestions"`
	IsCompleted          bool       `json:"isCompleted"`
	Answers              []Answer   `json:"answers"`
}

type StatusResponse struct {
	HasStarted       bool      `json:"hasStarted"`
	IsCompleted      bool      `json:"isCompleted"`
	CanStart         bool      `json:"canStart"`
	Session          *Session  `json:"session"`
	CurrentQuestion  *Question `json:"currentQuestion,omitempty"`
	QuestionNumber   int       `json:"questionNumber"`
	RemainingSeconds int       `json:"remainingSeconds"`
}

// StartResponse answers start-timed. When AlreadyStarted is set, Status carries the
// existing session and CurrentQuestion is empty.
type StartResponse struct {
	SessionID       string          `json:"sessionId"`
	CurrentQuestion *Question       `json:"currentQuestion,omitempty"`
	QuestionNumber  int             `json:"questionNumber"`
	TotalQuestions  int             `json:"totalQuestions"`
	TimeLimit       int             `json:"timeLimit"`
	StartedAt       time.Time       `json:"startedAt"`
	AlreadyStarted  bool            `json:"alreadyStarted"`
	Status          *StatusResponse `json:"status,omitempty"`
}

// SubmitRequest carries a selection for the current question. Omitting SelectedOption
// is a timeout. QuestionIndex is the index the client was shown.
type SubmitRequest struct {
	SelectedOption *int `json:"selectedOption"`
	QuestionIndex  *int `json:"questionIndex,omitempty"`
}

type SubmitResponse struct {
	IsCorrect       bool      `json:"isCorrect"`
	PointsEarned    int       `json:"pointsEarned"`
	TotalScore      int       `json:"totalScore"`
	TimedOut        bool      `json:"timedOut"`
	NextQuestion    *Question `json:"nextQuestion,omitempty"`
	QuestionNumber  int       `json:"questionNumber"`
	TotalQuestions  int       `json:"totalQuestions"`
	TimeLimit       int       `json:"timeLimit"`
	IsQuizCompleted bool      `json:"isQuizCompleted"`
}

type GradeAnswer struct {
	QuestionID     string `json:"questionId"`
	SelectedOption *int   `json:"selectedOption"`
}

type GradeRequest struct {
	Answers []GradeAnswer `json:"answers"`
}

type GradedQuestion struct {
	QuestionID     string `json:"questionId"`
	SelectedOption *int   `json:"selectedOption"`
	IsCorrect      bool   `json:"isCorrect"`
	PointsEarned   int    `json:"pointsEarned"`
}

type GradeResponse struct {
	QuizID       string           `json:"quizId"`
	Results      []GradedQuestion `json:"results"`
	CorrectCount int              `json:"correctCount"`
	TotalScore   int              `json:"totalScore"`
	MaxScore     int              `json:"maxScore"`
}

// Error codes returned in ErrorResponse.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeQuizNotAvailable = "QUIZ_NOT_AVAILABLE"
	CodeStaleSubmission  = "STALE_SUBMISSION"
	CodeSessionCompleted = "SESSION_COMPLETED"
	CodeInvalidOption    = "INVALID_OPTION"
	CodeForbidden        = "FORBIDDEN"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeValidation       = "VALIDATION_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WebSocket message types.
const (
	MsgStart        = "start"
	MsgStatus       = "status"
	MsgAnswer       = "answer"
	MsgStarted      = "started"
	MsgAnswerResult = "answerResult"
	MsgError        = "error"
)
