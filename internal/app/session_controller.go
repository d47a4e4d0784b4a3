package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/scoring"
	"timed-quiz-service/internal/sequencer"
)

// SessionStore abstracts where timed sessions live (in-memory, Redis, Postgres).
// Implementations must make CreateIfAbsent and AppendAnswerAndAdvance atomic.
type SessionStore interface {
	// CreateIfAbsent stores session unless one exists for its (UserID, QuizID).
	// It returns the stored session and whether this call created it.
	CreateIfAbsent(ctx context.Context, session domain.Session) (domain.Session, bool, error)
	// AppendAnswerAndAdvance applies answer via domain.Session.Apply only if the stored
	// index still equals expectedIndex, returning domain.ErrStaleSubmission otherwise.
	AppendAnswerAndAdvance(ctx context.Context, sessionID string, expectedIndex int, answer domain.Answer, now time.Time) (domain.Session, error)
	Get(ctx context.Context, sessionID string) (domain.Session, error)
	FindByUserQuiz(ctx context.Context, userID, quizID string) (domain.Session, error)
	ListInProgress(ctx context.Context) ([]domain.Session, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Locker serializes work per key. The returned unlock must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Identity is the authenticated participant.
type Identity struct {
	UserID string
	TeamID string
}

// Submission is an answer addressed to a session's current question.
// A nil SelectedOption is a timeout. QuestionIndex, when set, is the index the
// caller believes is current; a mismatch is rejected as stale.
type Submission struct {
	QuestionIndex  *int
	SelectedOption *int
}

// StartResult is returned by StartSession. When AlreadyStarted is set only Status is meaningful.
type StartResult struct {
	Session        domain.Session
	Question       domain.Question
	QuestionNumber int
	TotalQuestions int
	TimeLimit      int
	StartedAt      time.Time
	AlreadyStarted bool
	Status         Status
}

// Status is a read-only snapshot of a participant's timed session for a quiz.
type Status struct {
	HasStarted       bool
	IsCompleted      bool
	CanStart         bool
	Session          *domain.Session
	CurrentQuestion  *domain.Question
	QuestionNumber   int
	RemainingSeconds int
}

// SubmitResult describes the applied answer and what comes next.
type SubmitResult struct {
	IsCorrect       bool
	PointsEarned    int
	TotalScore      int
	TimedOut        bool
	NextQuestion    *domain.Question
	QuestionNumber  int
	TotalQuestions  int
	TimeLimit       int
	IsQuizCompleted bool
	Session         domain.Session
}

// SessionController is the single entry point for timed session mutations.
type SessionController struct {
	sessions    SessionStore
	quizzes     QuizRepository
	engine      scoring.Engine
	locker      Locker
	now         func() time.Time
	newID       func() string
	answerGrace time.Duration
}

// ControllerOption customizes a SessionController.
type ControllerOption func(*SessionController)

// WithClock replaces time.Now, mainly for deterministic tests.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *SessionController) { c.now = now }
}

// WithLocker replaces the in-process per-session lock.
func WithLocker(l Locker) ControllerOption {
	return func(c *SessionController) { c.locker = l }
}

// WithEngine replaces the scoring engine.
func WithEngine(e scoring.Engine) ControllerOption {
	return func(c *SessionController) { c.engine = e }
}

// WithAnswerGrace sets how long past a question's limit a real answer is still accepted.
func WithAnswerGrace(d time.Duration) ControllerOption {
	return func(c *SessionController) { c.answerGrace = d }
}

// WithIDGenerator replaces uuid generation for session and answer IDs.
func WithIDGenerator(gen func() string) ControllerOption {
	return func(c *SessionController) { c.newID = gen }
}

func NewSessionController(store SessionStore, quizzes QuizRepository, opts ...ControllerOption) *SessionController {
	c := &SessionController{
		sessions:    store,
		quizzes:     quizzes,
		engine:      scoring.FixedPoints{},
		locker:      NewLocalLocker(),
		now:         time.Now,
		newID:       uuid.NewString,
		answerGrace: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartSession creates the participant's one session for a timed quiz, or reports the
// existing one with AlreadyStarted set.
func (c *SessionController) StartSession(ctx context.Context, quizID string, who Identity) (StartResult, error) {
	quiz, err := c.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return StartResult{}, err
	}

	existing, err := c.sessions.FindByUserQuiz(ctx, who.UserID, quizID)
	if err == nil {
		return c.alreadyStarted(quiz, existing)
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return StartResult{}, err
	}

	now := c.now()
	if !quiz.Timed || !quiz.AvailableAt(now) {
		return StartResult{}, domain.ErrQuizNotAvailable
	}

	id := c.newID()
	sequence, err := sequencer.Sequence(quiz, sequencer.SeedFor(id))
	if err != nil {
		if errors.Is(err, domain.ErrNoQuestions) {
			return StartResult{}, domain.ErrQuizNotAvailable
		}
		return StartResult{}, err
	}

	session, created, err := c.sessions.CreateIfAbsent(ctx, domain.NewSession(id, quizID, who.UserID, who.TeamID, sequence, now))
	if err != nil {
		return StartResult{}, err
	}
	if !created {
		return c.alreadyStarted(quiz, session)
	}

	first, ok := quiz.Question(session.QuestionIDs[0])
	if !ok {
		return StartResult{}, domain.ErrQuestionNotFound
	}
	return StartResult{
		Session:        session,
		Question:       first,
		QuestionNumber: 1,
		TotalQuestions: session.TotalQuestions,
		TimeLimit:      first.TimeLimitSeconds,
		StartedAt:      session.StartedAt,
	}, nil
}

func (c *SessionController) alreadyStarted(quiz domain.Quiz, session domain.Session) (StartResult, error) {
	status, err := c.statusOf(quiz, session)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{
		Session:        session,
		TotalQuestions: session.TotalQuestions,
		StartedAt:      session.StartedAt,
		AlreadyStarted: true,
		Status:         status,
	}, nil
}

// Status returns the participant's session snapshot for quizID.
func (c *SessionController) Status(ctx context.Context, quizID, userID string) (Status, error) {
	quiz, err := c.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return Status{}, err
	}
	session, err := c.sessions.FindByUserQuiz(ctx, userID, quizID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return Status{CanStart: quiz.Timed && quiz.AvailableAt(c.now())}, nil
	}
	if err != nil {
		return Status{}, err
	}
	return c.statusOf(quiz, session)
}

func (c *SessionController) statusOf(quiz domain.Quiz, session domain.Session) (Status, error) {
	snapshot := session.Clone()
	status := Status{
		HasStarted:  true,
		IsCompleted: snapshot.IsCompleted,
		Session:     &snapshot,
	}
	if snapshot.IsCompleted {
		status.QuestionNumber = snapshot.TotalQuestions
		return status, nil
	}

	qid, _ := snapshot.CurrentQuestionID()
	question, ok := quiz.Question(qid)
	if !ok {
		return Status{}, domain.ErrQuestionNotFound
	}
	status.CurrentQuestion = &question
	status.QuestionNumber = snapshot.CurrentQuestionIndex + 1
	status.RemainingSeconds = snapshot.Remaining(question.TimeLimit(), c.now())
	return status, nil
}

// SubmitForQuiz resolves the participant's session for quizID and submits to it.
func (c *SessionController) SubmitForQuiz(ctx context.Context, quizID, userID string, sub Submission) (SubmitResult, error) {
	session, err := c.sessions.FindByUserQuiz(ctx, userID, quizID)
	if err != nil {
		return SubmitResult{}, err
	}
	return c.SubmitAnswer(ctx, session.ID, userID, sub)
}

// SubmitAnswer applies an answer (or a timeout) to the session's current question.
// Calls for the same session are serialized; the loser of a race gets ErrStaleSubmission.
func (c *SessionController) SubmitAnswer(ctx context.Context, sessionID, userID string, sub Submission) (SubmitResult, error) {
	unlock, err := c.locker.Lock(ctx, sessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	defer unlock()

	session, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	if session.UserID != userID {
		return SubmitResult{}, domain.ErrForbidden
	}
	if session.IsCompleted {
		if sub.QuestionIndex != nil {
			return SubmitResult{}, domain.ErrStaleSubmission
		}
		return SubmitResult{}, domain.ErrSessionCompleted
	}
	if sub.QuestionIndex != nil && *sub.QuestionIndex != session.CurrentQuestionIndex {
		return SubmitResult{}, domain.ErrStaleSubmission
	}

	quiz, err := c.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return SubmitResult{}, err
	}
	return c.applyLocked(ctx, quiz, session, sub.SelectedOption, false)
}

// applyLocked scores and persists one answer for the session's current index.
// The caller holds the session lock.
func (c *SessionController) applyLocked(ctx context.Context, quiz domain.Quiz, session domain.Session, raw *int, forceTimeout bool) (SubmitResult, error) {
	qid, ok := session.CurrentQuestionID()
	if !ok {
		return SubmitResult{}, domain.ErrSessionCompleted
	}
	question, ok := quiz.Question(qid)
	if !ok {
		return SubmitResult{}, domain.ErrQuestionNotFound
	}

	selected, err := domain.ParseOption(raw, question)
	if err != nil {
		return SubmitResult{}, err
	}

	now := c.now()
	elapsed := now.Sub(session.QuestionStartedAt)
	limit := question.TimeLimit()
	if forceTimeout || (limit > 0 && elapsed > limit+c.answerGrace) {
		selected = nil
	}
	taken := int(elapsed / time.Second)
	if taken < 0 {
		taken = 0
	}
	if forceTimeout || (limit > 0 && taken > question.TimeLimitSeconds) {
		taken = question.TimeLimitSeconds
	}

	graded := c.engine.Score(question, selected, taken)
	answer := domain.Answer{
		ID:               c.newID(),
		SelectedOption:   selected,
		IsCorrect:        graded.IsCorrect,
		PointsEarned:     graded.PointsEarned,
		TimeTakenSeconds: taken,
		TimedOut:         selected == nil,
		AnsweredAt:       now,
	}

	updated, err := c.sessions.AppendAnswerAndAdvance(ctx, session.ID, session.CurrentQuestionIndex, answer, now)
	if err != nil {
		return SubmitResult{}, err
	}

	result := SubmitResult{
		IsCorrect:       graded.IsCorrect,
		PointsEarned:    graded.PointsEarned,
		TotalScore:      updated.TotalScore,
		TimedOut:        answer.TimedOut,
		QuestionNumber:  updated.TotalQuestions,
		TotalQuestions:  updated.TotalQuestions,
		IsQuizCompleted: updated.IsCompleted,
		Session:         updated,
	}
	if updated.IsCompleted {
		return result, nil
	}

	nextID, _ := updated.CurrentQuestionID()
	next, ok := quiz.Question(nextID)
	if !ok {
		return SubmitResult{}, domain.ErrQuestionNotFound
	}
	result.NextQuestion = &next
	result.QuestionNumber = updated.CurrentQuestionIndex + 1
	result.TimeLimit = next.TimeLimitSeconds
	return result, nil
}

// ExpireSession times out every remaining question of an in-progress session.
// It returns the number of timeouts applied.
func (c *SessionController) ExpireSession(ctx context.Context, sessionID string) (int, error) {
	unlock, err := c.locker.Lock(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	session, err := c.sessions.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	quiz, err := c.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return 0, err
	}

	applied := 0
	for !session.IsCompleted {
		result, err := c.applyLocked(ctx, quiz, session, nil, true)
		if err != nil {
			return applied, err
		}
		applied++
		session = result.Session
	}
	return applied, nil
}
