package app

import (
	"context"
	"time"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/scoring"
)

// QuizService grades untimed quizzes in a single call, using the same scoring
// engine as timed sessions.
type QuizService struct {
	quizzes QuizRepository
	engine  scoring.Engine
	now     func() time.Time
}

func NewQuizService(quizzes QuizRepository, engine scoring.Engine) *QuizService {
	if engine == nil {
		engine = scoring.FixedPoints{}
	}
	return &QuizService{quizzes: quizzes, engine: engine, now: time.Now}
}

// GradedAnswer is one answer of an untimed attempt. A nil SelectedOption is unanswered.
type GradedAnswer struct {
	QuestionID     string
	SelectedOption *int
}

// GradedQuestion is the per-question outcome of an untimed attempt.
type GradedQuestion struct {
	QuestionID     string
	SelectedOption *domain.OptionIndex
	IsCorrect      bool
	PointsEarned   int
}

// AttemptResult summarizes an untimed attempt.
type AttemptResult struct {
	QuizID       string
	Results      []GradedQuestion
	CorrectCount int
	TotalScore   int
	MaxScore     int
}

// GradeAttempt scores every question of an untimed quiz. Questions absent from
// answers count as unanswered. Timed quizzes must go through SessionController.
func (s *QuizService) GradeAttempt(ctx context.Context, quizID string, answers []GradedAnswer) (AttemptResult, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return AttemptResult{}, err
	}
	if quiz.Timed || !quiz.AvailableAt(s.now()) {
		return AttemptResult{}, domain.ErrQuizNotAvailable
	}

	selections := make(map[string]*domain.OptionIndex, len(answers))
	for _, a := range answers {
		question, ok := quiz.Question(a.QuestionID)
		if !ok {
			return AttemptResult{}, domain.ErrQuestionNotFound
		}
		selected, err := domain.ParseOption(a.SelectedOption, question)
		if err != nil {
			return AttemptResult{}, err
		}
		selections[a.QuestionID] = selected
	}

	result := AttemptResult{QuizID: quiz.ID, Results: make([]GradedQuestion, 0, len(quiz.Questions))}
	for _, question := range quiz.Questions {
		selected := selections[question.ID]
		graded := s.engine.Score(question, selected, 0)
		result.Results = append(result.Results, GradedQuestion{
			QuestionID:     question.ID,
			SelectedOption: selected,
			IsCorrect:      graded.IsCorrect,
			PointsEarned:   graded.PointsEarned,
		})
		if graded.IsCorrect {
			result.CorrectCount++
		}
		result.TotalScore += graded.PointsEarned
		if question.Points > 0 {
			result.MaxScore += question.Points
		}
	}
	return result, nil
}
