package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"timed-quiz-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if got := loader.calls.Load(); got != 1 {
		t.Fatalf("expected cache hit, loader calls %d", got)
	}

	repo.Invalidate("quiz-1")
	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz after invalidate: %v", err)
	}
	if got := loader.calls.Load(); got != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", got)
	}
}

func TestQuizRepositoryExpires(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{"quiz-1": sampleQuiz()})}
	repo := NewQuizRepository(loader, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if got := loader.calls.Load(); got != 2 {
		t.Fatalf("expected expired entry to reload, loader calls %d", got)
	}
}

func TestQuizRepositoryUnknownQuiz(t *testing.T) {
	repo := NewQuizRepository(NewStaticQuizLoader(nil), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "nope"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestLoadQuizFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quizzes.yaml")
	doc := `quizzes:
  - id: quiz-1
    title: Arithmetic
    status: active
    timed: true
    orderMode: RANDOM
    questionsPerParticipant: 1
    startTime: 2026-01-01T00:00:00Z
    questions:
      - id: q1
        prompt: What is 2 + 2?
        options: ["3", "4"]
        correctAnswer: 1
        points: 10
        timeLimit: 30
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader, err := LoadQuizFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	quiz, err := loader.LoadQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if !quiz.Timed || quiz.OrderMode != domain.OrderRandom || quiz.Status != domain.QuizActive {
		t.Fatalf("unexpected quiz header: %+v", quiz)
	}
	if len(quiz.Questions) != 1 || quiz.Questions[0].TimeLimitSeconds != 30 || quiz.Questions[0].CorrectAnswer != 1 {
		t.Fatalf("unexpected questions: %+v", quiz.Questions)
	}
	if quiz.StartTime.IsZero() {
		t.Fatalf("expected start time parsed")
	}
	if all := loader.All(); len(all) != 1 || all[0].ID != "quiz-1" {
		t.Fatalf("unexpected catalog listing: %+v", all)
	}
}

type countingLoader struct {
	QuizLoader
	calls atomic.Int32
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls.Add(1)
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:     "quiz-1",
		Status: domain.QuizActive,
		Timed:  true,
		Questions: []domain.Question{
			{
				ID:               "q1",
				Prompt:           "What is 2 + 2?",
				Options:          []string{"3", "4"},
				CorrectAnswer:    1,
				Points:           1,
				TimeLimitSeconds: 30,
			},
		},
	}
}
