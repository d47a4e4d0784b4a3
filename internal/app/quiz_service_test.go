package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
	"timed-quiz-service/internal/scoring"
)

func TestGradeAttemptScoresEveryQuestion(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	result, err := service.GradeAttempt(ctx, "practice", []app.GradedAnswer{
		{QuestionID: "p1", SelectedOption: intPtr(1)}, // correct
		{QuestionID: "p2", SelectedOption: intPtr(0)}, // wrong
	})
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected every question graded, got %d", len(result.Results))
	}
	if result.CorrectCount != 1 || result.TotalScore != 5 || result.MaxScore != 20 {
		t.Fatalf("unexpected totals: %+v", result)
	}
	if unanswered := result.Results[2]; unanswered.SelectedOption != nil || unanswered.IsCorrect {
		t.Fatalf("expected p3 graded as unanswered, got %+v", unanswered)
	}
}

func TestGradeAttemptRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	cases := []struct {
		name    string
		quizID  string
		answers []app.GradedAnswer
		want    error
	}{
		{name: "timed quiz", quizID: "timed", want: domain.ErrQuizNotAvailable},
		{name: "unknown quiz", quizID: "missing", want: domain.ErrQuizNotFound},
		{name: "unknown question", quizID: "practice", answers: []app.GradedAnswer{{QuestionID: "zz", SelectedOption: intPtr(0)}}, want: domain.ErrQuestionNotFound},
		{name: "option out of range", quizID: "practice", answers: []app.GradedAnswer{{QuestionID: "p1", SelectedOption: intPtr(7)}}, want: domain.ErrInvalidOption},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := service.GradeAttempt(ctx, tc.quizID, tc.answers); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func newTestService() *app.QuizService {
	quizzes := map[string]domain.Quiz{
		"practice": {
			ID:     "practice",
			Title:  "Practice round",
			Status: domain.QuizActive,
			Questions: []domain.Question{
				{ID: "p1", Options: []string{"a", "b"}, CorrectAnswer: 1, Points: 5},
				{ID: "p2", Options: []string{"a", "b"}, CorrectAnswer: 1, Points: 5},
				{ID: "p3", Options: []string{"a", "b", "c"}, CorrectAnswer: 2, Points: 10},
			},
		},
		"timed": {
			ID:        "timed",
			Status:    domain.QuizActive,
			Timed:     true,
			Questions: []domain.Question{{ID: "t1", Options: []string{"a"}, Points: 1, TimeLimitSeconds: 10}},
		},
	}
	repo := memory.NewQuizRepository(memory.NewStaticQuizLoader(quizzes), time.Minute)
	return app.NewQuizService(repo, scoring.FixedPoints{})
}
