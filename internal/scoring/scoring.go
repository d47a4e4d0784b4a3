// Package scoring grades a single question. Timed sessions and untimed attempts
// share the same Engine so both paths award points identically.
package scoring

import "timed-quiz-service/internal/domain"

// Result is the outcome of grading one question.
type Result struct {
	IsCorrect    bool
	PointsEarned int
}

// Engine grades a selected option (nil when the question timed out).
type Engine interface {
	Score(q domain.Question, selected *domain.OptionIndex, timeTakenSeconds int) Result
}

// FixedPoints awards the question's points for a correct option and nothing otherwise.
// Time taken is recorded by callers but does not change the award.
type FixedPoints struct{}

func (FixedPoints) Score(q domain.Question, selected *domain.OptionIndex, _ int) Result {
	if selected == nil || int(*selected) != q.CorrectAnswer {
		return Result{}
	}
	points := q.Points
	if points < 0 {
		points = 0
	}
	return Result{IsCorrect: true, PointsEarned: points}
}
