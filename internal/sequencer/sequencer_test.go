package sequencer

import (
	"fmt"
	"reflect"
	"testing"

	"timed-quiz-service/internal/domain"
)

func TestSequentialKeepsAuthoredOrder(t *testing.T) {
	quiz := poolQuiz(5, domain.OrderSequential, 3)

	ids, err := Sequence(quiz, 42)
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	if want := []string{"q1", "q2", "q3"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
}

func TestCapClampsToPool(t *testing.T) {
	for _, limit := range []int{0, -1, 50} {
		ids, err := Sequence(poolQuiz(4, domain.OrderSequential, limit), 1)
		if err != nil {
			t.Fatalf("sequence: %v", err)
		}
		if len(ids) != 4 {
			t.Fatalf("cap %d: expected whole pool, got %v", limit, ids)
		}
	}
}

func TestRandomHasNoDuplicatesAndIsStable(t *testing.T) {
	quiz := poolQuiz(10, domain.OrderRandom, 5)

	first, err := Sequence(quiz, SeedFor("session-a"))
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	if len(first) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(first))
	}
	seen := make(map[string]bool)
	for _, id := range first {
		if seen[id] {
			t.Fatalf("duplicate question %s in %v", id, first)
		}
		if _, ok := quiz.Question(id); !ok {
			t.Fatalf("question %s not in pool", id)
		}
		seen[id] = true
	}

	again, _ := Sequence(quiz, SeedFor("session-a"))
	if !reflect.DeepEqual(first, again) {
		t.Fatalf("same seed produced different sequences: %v vs %v", first, again)
	}
}

func TestRandomDiffersAcrossSessions(t *testing.T) {
	quiz := poolQuiz(10, domain.OrderRandom, 5)
	base, _ := Sequence(quiz, SeedFor("session-0"))
	for i := 1; i < 20; i++ {
		other, _ := Sequence(quiz, SeedFor(fmt.Sprintf("session-%d", i)))
		if !reflect.DeepEqual(base, other) {
			return
		}
	}
	t.Fatalf("expected at least one session to receive a different order")
}

func TestEmptyPool(t *testing.T) {
	if _, err := Sequence(domain.Quiz{ID: "empty"}, 1); err != domain.ErrNoQuestions {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func poolQuiz(n int, mode domain.OrderMode, perParticipant int) domain.Quiz {
	quiz := domain.Quiz{ID: "quiz-1", OrderMode: mode, QuestionsPerParticipant: perParticipant}
	for i := 1; i <= n; i++ {
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:               fmt.Sprintf("q%d", i),
			Options:          []string{"a", "b"},
			TimeLimitSeconds: 30,
		})
	}
	return quiz
}
