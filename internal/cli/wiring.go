package cli

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
	pgstore "timed-quiz-service/internal/infra/postgres"
	redisstore "timed-quiz-service/internal/infra/redis"
	"timed-quiz-service/internal/scoring"
)

// services is the assembled application. Postgres, when configured, owns both the
// catalog and the sessions; Redis caches quizzes and holds the per-session lease.
type services struct {
	controller *app.SessionController
	grader     *app.QuizService
	reaper     *app.Reaper
	closers    []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	svc := &services{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.closers = append(svc.closers, func() { _ = redisClient.Close() })
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			svc.Close()
			return nil, err
		}
		svc.closers = append(svc.closers, pool.Close)
	}

	var loader memory.QuizLoader
	switch {
	case pool != nil:
		loader = pgstore.NewQuizLoader(pool)
	case cfg.Quiz.SeedFile != "":
		seeded, err := memory.LoadQuizFile(cfg.Quiz.SeedFile)
		if err != nil {
			svc.Close()
			return nil, err
		}
		loader = seeded
	default:
		loader = memory.NewStaticQuizLoader(sampleQuizzes())
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.SessionStore
	switch {
	case pool != nil:
		store = pgstore.NewSessionStore(pool)
		log.Printf("sessions stored in postgres")
	case redisClient != nil:
		store = redisstore.NewSessionStore(redisClient)
		log.Printf("sessions stored in redis at %s", cfg.Redis.Addr)
	default:
		store = memory.NewSessionStore()
		log.Printf("sessions stored in memory")
	}

	opts := []app.ControllerOption{
		app.WithAnswerGrace(config.TTLDuration(cfg.Session.AnswerGrace, 2*time.Second)),
	}
	if redisClient != nil {
		opts = append(opts, app.WithLocker(redisstore.NewLocker(redisClient, config.TTLDuration(cfg.Session.LockTTL, 5*time.Second))))
	}

	svc.controller = app.NewSessionController(store, quizRepo, opts...)
	svc.grader = app.NewQuizService(quizRepo, scoring.FixedPoints{})
	svc.reaper = app.NewReaper(
		svc.controller,
		config.TTLDuration(cfg.Session.AbandonAfter, 10*time.Minute),
		config.TTLDuration(cfg.Session.ReapInterval, time.Minute),
	)
	return svc, nil
}

// sampleQuizzes backs a config with neither Postgres nor a seed file.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:                      "quiz-1",
			Title:                   "Warm-up",
			Status:                  domain.QuizActive,
			Timed:                   true,
			OrderMode:               domain.OrderSequential,
			QuestionsPerParticipant: 2,
			Questions: []domain.Question{
				{ID: "q1", Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: 1, Points: 10, TimeLimitSeconds: 30},
				{ID: "q2", Prompt: "Which planet is largest?", Options: []string{"Mars", "Jupiter", "Venus"}, CorrectAnswer: 1, Points: 10, TimeLimitSeconds: 20},
			},
		},
	}
}
