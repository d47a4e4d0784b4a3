package redis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"timed-quiz-service/internal/domain"
)

func TestSessionStoreCreateIfAbsent(t *testing.T) {
	mr, client := startMiniredis(t)
	store := NewSessionStore(client)
	ctx := context.Background()
	now := time.Now().UTC()

	first, created, err := store.CreateIfAbsent(ctx, domain.NewSession("s1", "quiz-1", "u1", "t1", []string{"q1", "q2"}, now))
	if err != nil || !created {
		t.Fatalf("expected creation, created=%v err=%v", created, err)
	}
	if !mr.Exists("timed:session:s1") || !mr.Exists("timed:session:owner:quiz-1:u1") {
		t.Fatalf("expected session and owner keys to be set")
	}

	second, created, err := store.CreateIfAbsent(ctx, domain.NewSession("s2", "quiz-1", "u1", "t1", []string{"q2", "q1"}, now))
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if created || second.ID != first.ID || second.QuestionIDs[0] != "q1" {
		t.Fatalf("expected original session back, got %+v (created=%v)", second, created)
	}
	if mr.Exists("timed:session:s2") {
		t.Fatalf("losing create must not write a session document")
	}

	found, err := store.FindByUserQuiz(ctx, "u1", "quiz-1")
	if err != nil || found.ID != "s1" {
		t.Fatalf("find by user/quiz: %+v, %v", found, err)
	}
	if _, err := store.FindByUserQuiz(ctx, "u2", "quiz-1"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionStoreConcurrentCreateAgrees(t *testing.T) {
	_, client := startMiniredis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	var wg sync.WaitGroup
	var createdCount atomic.Int32
	ids := make([]string, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, created, err := store.CreateIfAbsent(ctx, domain.NewSession(fmt.Sprintf("s%d", i), "quiz-1", "u1", "", []string{"q1"}, time.Now()))
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			if created {
				createdCount.Add(1)
			}
			ids[i] = s.ID
		}(i)
	}
	wg.Wait()

	if createdCount.Load() != 1 {
		t.Fatalf("expected exactly one creator, got %d", createdCount.Load())
	}
	for _, id := range ids {
		if id != ids[0] {
			t.Fatalf("callers observed different sessions: %v", ids)
		}
	}
}

func TestSessionStoreAppendCompareAndAdvance(t *testing.T) {
	mr, client := startMiniredis(t)
	store := NewSessionStore(client)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, _, err := store.CreateIfAbsent(ctx, domain.NewSession("s1", "quiz-1", "u1", "", []string{"q1", "q2"}, now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := store.AppendAnswerAndAdvance(ctx, "s1", 0, domain.Answer{ID: "a1", IsCorrect: true, PointsEarned: 4}, now)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if updated.CurrentQuestionIndex != 1 || updated.TotalScore != 4 || len(updated.Answers) != 1 {
		t.Fatalf("unexpected session: %+v", updated)
	}

	if _, err := store.AppendAnswerAndAdvance(ctx, "s1", 0, domain.Answer{ID: "dup", PointsEarned: 4}, now); err != domain.ErrStaleSubmission {
		t.Fatalf("expected stale submission, got %v", err)
	}

	if _, err := store.AppendAnswerAndAdvance(ctx, "s1", 1, domain.Answer{ID: "a2", TimedOut: true}, now); err != nil {
		t.Fatalf("append last: %v", err)
	}
	stored, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.IsCompleted || stored.CompletedAt == nil || stored.TotalScore != 4 || stored.QuestionsTimedOut != 1 {
		t.Fatalf("unexpected completed session: %+v", stored)
	}
	if ok, _ := mr.SIsMember(activeSessionsKey, "s1"); ok {
		t.Fatalf("completed session should leave the active set")
	}

	if _, err := store.AppendAnswerAndAdvance(ctx, "missing", 0, domain.Answer{}, now); err != domain.ErrSessionNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionStoreConcurrentAppendsApplyOnce(t *testing.T) {
	_, client := startMiniredis(t)
	store := NewSessionStore(client)
	ctx := context.Background()
	now := time.Now().UTC()
	if _, _, err := store.CreateIfAbsent(ctx, domain.NewSession("s1", "quiz-1", "u1", "", []string{"q1", "q2", "q3"}, now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	var wins, stale atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.AppendAnswerAndAdvance(ctx, "s1", 0, domain.Answer{ID: fmt.Sprintf("a%d", i), PointsEarned: 1}, now)
			switch err {
			case nil:
				wins.Add(1)
			case domain.ErrStaleSubmission:
				stale.Add(1)
			default:
				t.Errorf("append: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 || stale.Load() != 7 {
		t.Fatalf("expected one win and seven stale, got wins=%d stale=%d", wins.Load(), stale.Load())
	}
	stored, _ := store.Get(ctx, "s1")
	if stored.CurrentQuestionIndex != 1 || stored.TotalScore != 1 || len(stored.Answers) != 1 {
		t.Fatalf("expected a single applied answer, got %+v", stored)
	}
}

func TestSessionStoreListInProgress(t *testing.T) {
	_, client := startMiniredis(t)
	store := NewSessionStore(client)
	ctx := context.Background()
	now := time.Now().UTC()

	_, _, _ = store.CreateIfAbsent(ctx, domain.NewSession("s1", "quiz-1", "u1", "", []string{"q1"}, now))
	_, _, _ = store.CreateIfAbsent(ctx, domain.NewSession("s2", "quiz-1", "u2", "", []string{"q1"}, now))
	if _, err := store.AppendAnswerAndAdvance(ctx, "s1", 0, domain.Answer{ID: "a1", TimedOut: true}, now); err != nil {
		t.Fatalf("append: %v", err)
	}

	sessions, err := store.ListInProgress(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "s2" {
		t.Fatalf("expected only s2, got %+v", sessions)
	}
}

func startMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}
