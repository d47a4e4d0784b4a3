package app

import (
	"context"
	"errors"
	"log"
	"time"

	"timed-quiz-service/internal/domain"
)

// Reaper force-completes sessions whose participant stopped responding. A session is
// abandoned once its current question has been open longer than the question's
// limit plus AbandonAfter; every remaining question is then recorded as a timeout.
type Reaper struct {
	controller   *SessionController
	abandonAfter time.Duration
	interval     time.Duration
}

func NewReaper(controller *SessionController, abandonAfter, interval time.Duration) *Reaper {
	return &Reaper{controller: controller, abandonAfter: abandonAfter, interval: interval}
}

// Run sweeps every interval until ctx is canceled.
func (r *Reaper) Run(ctx context.Context) error {
	if r.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				log.Printf("reaper sweep failed: %v", err)
			}
		}
	}
}

// Sweep expires abandoned sessions once and returns how many were completed.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	c := r.controller
	sessions, err := c.sessions.ListInProgress(ctx)
	if err != nil {
		return 0, err
	}

	now := c.now()
	expired := 0
	for _, session := range sessions {
		quiz, err := c.quizzes.GetQuiz(ctx, session.QuizID)
		if err != nil {
			log.Printf("reaper: load quiz %s for session %s: %v", session.QuizID, session.ID, err)
			continue
		}
		qid, ok := session.CurrentQuestionID()
		if !ok {
			continue
		}
		question, ok := quiz.Question(qid)
		if !ok {
			continue
		}
		if now.Sub(session.QuestionStartedAt) <= question.TimeLimit()+r.abandonAfter {
			continue
		}

		applied, err := c.ExpireSession(ctx, session.ID)
		if err != nil && !errors.Is(err, domain.ErrStaleSubmission) {
			log.Printf("reaper: expire session %s: %v", session.ID, err)
			continue
		}
		if applied > 0 {
			expired++
		}
	}
	if expired > 0 {
		log.Printf("reaper expired %d abandoned sessions", expired)
	}
	return expired, nil
}
