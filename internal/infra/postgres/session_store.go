package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"timed-quiz-service/internal/domain"
)

// SessionStore persists timed sessions in timed_sessions / timed_answers.
// UNIQUE(user_id, quiz_id) backs create-if-absent; row locks plus an index-guarded
// UPDATE back append-and-advance.
type SessionStore struct {
	pool *pgxpool.Pool
}

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

const sessionColumns = `id, quiz_id, user_id, team_id, question_ids, started_at, question_started_at,
	completed_at, total_score, questions_answered, questions_timed_out, current_question_index,
	total_questions, is_completed`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func (s *SessionStore) CreateIfAbsent(ctx context.Context, session domain.Session) (domain.Session, bool, error) {
	tag, err := s.pool.Exec(ctx, `INSERT INTO timed_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id, quiz_id) DO NOTHING`,
		session.ID, session.QuizID, session.UserID, session.TeamID, session.QuestionIDs,
		session.StartedAt, session.QuestionStartedAt, session.CompletedAt, session.TotalScore,
		session.QuestionsAnswered, session.QuestionsTimedOut, session.CurrentQuestionIndex,
		session.TotalQuestions, session.IsCompleted,
	)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("create session: %w", err)
	}

	stored, err := s.FindByUserQuiz(ctx, session.UserID, session.QuizID)
	if err != nil {
		return domain.Session{}, false, err
	}
	return stored, tag.RowsAffected() == 1, nil
}

func (s *SessionStore) AppendAnswerAndAdvance(ctx context.Context, sessionID string, expectedIndex int, answer domain.Answer, now time.Time) (domain.Session, error) {
	var updated domain.Session
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		session, err := loadSession(ctx, tx, `SELECT `+sessionColumns+` FROM timed_sessions WHERE id=$1 FOR UPDATE`, sessionID)
		if err != nil {
			return err
		}
		if err := session.Apply(expectedIndex, answer, now); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `UPDATE timed_sessions SET
				total_score=$3, questions_answered=$4, questions_timed_out=$5,
				current_question_index=$6, question_started_at=$7, completed_at=$8, is_completed=$9
			WHERE id=$1 AND current_question_index=$2`,
			sessionID, expectedIndex, session.TotalScore, session.QuestionsAnswered,
			session.QuestionsTimedOut, session.CurrentQuestionIndex, session.QuestionStartedAt,
			session.CompletedAt, session.IsCompleted,
		)
		if err != nil {
			return fmt.Errorf("advance session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrStaleSubmission
		}

		a := session.Answers[len(session.Answers)-1]
		var selected *int32
		if a.SelectedOption != nil {
			v := int32(*a.SelectedOption)
			selected = &v
		}
		if _, err := tx.Exec(ctx, `INSERT INTO timed_answers
				(id, session_id, question_index, question_id, selected_option, is_correct,
				 points_earned, time_taken_seconds, timed_out, answered_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			a.ID, a.SessionID, a.QuestionIndex, a.QuestionID, selected, a.IsCorrect,
			a.PointsEarned, a.TimeTakenSeconds, a.TimedOut, a.AnsweredAt,
		); err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
		updated = session
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return updated, nil
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	return loadSession(ctx, s.pool, `SELECT `+sessionColumns+` FROM timed_sessions WHERE id=$1`, sessionID)
}

func (s *SessionStore) FindByUserQuiz(ctx context.Context, userID, quizID string) (domain.Session, error) {
	return loadSession(ctx, s.pool, `SELECT `+sessionColumns+` FROM timed_sessions WHERE user_id=$1 AND quiz_id=$2`, userID, quizID)
}

func (s *SessionStore) ListInProgress(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+sessionColumns+` FROM timed_sessions WHERE NOT is_completed ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		sessions = append(sessions, session)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	for i := range sessions {
		answers, err := loadAnswers(ctx, s.pool, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Answers = answers
	}
	return sessions, nil
}

// loadSession reads one session row and its answers through q (pool or tx).
func loadSession(ctx context.Context, q querier, sql string, args ...interface{}) (domain.Session, error) {
	session, err := scanSession(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return domain.Session{}, err
	}
	answers, err := loadAnswers(ctx, q, session.ID)
	if err != nil {
		return domain.Session{}, err
	}
	session.Answers = answers
	return session, nil
}

func scanSession(row pgx.Row) (domain.Session, error) {
	var s domain.Session
	err := row.Scan(
		&s.ID, &s.QuizID, &s.UserID, &s.TeamID, &s.QuestionIDs, &s.StartedAt, &s.QuestionStartedAt,
		&s.CompletedAt, &s.TotalScore, &s.QuestionsAnswered, &s.QuestionsTimedOut,
		&s.CurrentQuestionIndex, &s.TotalQuestions, &s.IsCompleted,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("scan session: %w", err)
	}
	return s, nil
}

func loadAnswers(ctx context.Context, q querier, sessionID string) ([]domain.Answer, error) {
	rows, err := q.Query(ctx, `SELECT id, session_id, question_index, question_id, selected_option,
			is_correct, points_earned, time_taken_seconds, timed_out, answered_at
		FROM timed_answers WHERE session_id=$1 ORDER BY question_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()

	answers := []domain.Answer{}
	for rows.Next() {
		var (
			a        domain.Answer
			selected *int32
		)
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionIndex, &a.QuestionID, &selected,
			&a.IsCorrect, &a.PointsEarned, &a.TimeTakenSeconds, &a.TimedOut, &a.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if selected != nil {
			opt := domain.OptionIndex(*selected)
			a.SelectedOption = &opt
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
