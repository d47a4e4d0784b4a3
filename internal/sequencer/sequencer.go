// Package sequencer fixes the ordered subset of questions a participant receives.
package sequencer

import (
	"hash/fnv"
	"math/rand"

	"timed-quiz-service/internal/domain"
)

// Sequence returns the question IDs for one session. The result depends only on
// the quiz and seed, so it can be derived once at session creation and stored.
func Sequence(quiz domain.Quiz, seed int64) ([]string, error) {
	pool := quiz.Questions
	if len(pool) == 0 {
		return nil, domain.ErrNoQuestions
	}

	n := quiz.QuestionsPerParticipant
	if n <= 0 || n > len(pool) {
		n = len(pool)
	}

	ids := make([]string, 0, n)
	switch quiz.OrderMode {
	case domain.OrderRandom:
		rnd := rand.New(rand.NewSource(seed))
		for _, i := range rnd.Perm(len(pool))[:n] {
			ids = append(ids, pool[i].ID)
		}
	default:
		for _, q := range pool[:n] {
			ids = append(ids, q.ID)
		}
	}
	return ids, nil
}

// SeedFor derives a stable permutation seed from a session ID.
func SeedFor(sessionID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(sessionID))
	return int64(h.Sum64())
}
