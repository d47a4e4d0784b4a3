package scoring

import (
	"testing"

	"timed-quiz-service/internal/domain"
)

func TestFixedPointsScore(t *testing.T) {
	q := domain.Question{
		ID:            "q1",
		Options:       []string{"3", "4", "5"},
		CorrectAnswer: 1,
		Points:        10,
	}
	opt := func(i int) *domain.OptionIndex {
		v := domain.OptionIndex(i)
		return &v
	}

	cases := []struct {
		name      string
		selected  *domain.OptionIndex
		timeTaken int
		want      Result
	}{
		{name: "correct", selected: opt(1), timeTaken: 10, want: Result{IsCorrect: true, PointsEarned: 10}},
		{name: "correct but slow", selected: opt(1), timeTaken: 29, want: Result{IsCorrect: true, PointsEarned: 10}},
		{name: "incorrect", selected: opt(2), timeTaken: 3, want: Result{}},
		{name: "timed out", selected: nil, timeTaken: 30, want: Result{}},
	}

	engine := FixedPoints{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := engine.Score(q, tc.selected, tc.timeTaken)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestFixedPointsNeverNegative(t *testing.T) {
	q := domain.Question{Options: []string{"a", "b"}, CorrectAnswer: 0, Points: -5}
	sel := domain.OptionIndex(0)
	if got := (FixedPoints{}).Score(q, &sel, 1); got.PointsEarned != 0 || !got.IsCorrect {
		t.Fatalf("expected correct with zero points, got %+v", got)
	}
}
