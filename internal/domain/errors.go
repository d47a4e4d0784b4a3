package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no timed session exists for the lookup key.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidOption indicates a selected option index is outside the question's options.
	ErrInvalidOption = errors.New("selected option out of range")
	// ErrQuizNotAvailable is returned when a quiz is inactive, not timed, or outside its window.
	ErrQuizNotAvailable = errors.New("quiz not available")
	// ErrNoQuestions is returned when a quiz has an empty question pool.
	ErrNoQuestions = errors.New("quiz has no questions")
	// ErrStaleSubmission means the targeted question index is no longer the current one.
	ErrStaleSubmission = errors.New("stale submission: question already answered")
	// ErrSessionCompleted is returned for submissions against a finished session.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrForbidden is returned when a participant addresses a session they do not own.
	ErrForbidden = errors.New("session belongs to another participant")
)
