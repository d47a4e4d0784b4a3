package domain

import "time"

// QuizStatus is the publication state of a quiz.
type QuizStatus string

const (
	QuizActive   QuizStatus = "active"
	QuizInactive QuizStatus = "inactive"
)

// OrderMode selects how a participant's question sequence is derived from the pool.
type OrderMode string

const (
	OrderSequential OrderMode = "SEQUENTIAL"
	OrderRandom     OrderMode = "RANDOM"
)

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID               string   `json:"id" yaml:"id"`
	Prompt           string   `json:"prompt" yaml:"prompt"`
	Options          []string `json:"options" yaml:"options"`
	CorrectAnswer    int      `json:"correctAnswer" yaml:"correctAnswer"`
	Points           int      `json:"points" yaml:"points"`
	TimeLimitSeconds int      `json:"timeLimit" yaml:"timeLimit"`
}

// TimeLimit returns the question budget as a duration.
func (q Question) TimeLimit() time.Duration {
	return time.Duration(q.TimeLimitSeconds) * time.Second
}

// Quiz is a collection of questions plus its scheduling window.
type Quiz struct {
	ID                      string     `json:"id" yaml:"id"`
	Title                   string     `json:"title" yaml:"title"`
	Status                  QuizStatus `json:"status" yaml:"status"`
	StartTime               time.Time  `json:"startTime" yaml:"startTime"`
	EndTime                 time.Time  `json:"endTime" yaml:"endTime"`
	Timed                   bool       `json:"timed" yaml:"timed"`
	OrderMode               OrderMode  `json:"orderMode" yaml:"orderMode"`
	QuestionsPerParticipant int        `json:"questionsPerParticipant" yaml:"questionsPerParticipant"`
	Questions               []Question `json:"questions" yaml:"questions"`
}

// AvailableAt reports whether participants may start the quiz at now.
// A zero StartTime or EndTime leaves that side of the window open.
func (q Quiz) AvailableAt(now time.Time) bool {
	if q.Status != QuizActive {
		return false
	}
	if !q.StartTime.IsZero() && now.Before(q.StartTime) {
		return false
	}
	if !q.EndTime.IsZero() && now.After(q.EndTime) {
		return false
	}
	return true
}

// Question looks up a question of the pool by ID.
func (q Quiz) Question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// OptionIndex is a selected option that has been checked against a question's option count.
type OptionIndex int

// ParseOption validates a raw option index. A nil raw value is a timeout and yields nil.
func ParseOption(raw *int, q Question) (*OptionIndex, error) {
	if raw == nil {
		return nil, nil
	}
	if *raw < 0 || *raw >= len(q.Options) {
		return nil, ErrInvalidOption
	}
	idx := OptionIndex(*raw)
	return &idx, nil
}

// Answer is the record of one question of a session, answered or timed out.
type Answer struct {
	ID               string       `json:"id"`
	SessionID        string       `json:"sessionId"`
	QuestionIndex    int          `json:"questionIndex"`
	QuestionID       string       `json:"questionId"`
	SelectedOption   *OptionIndex `json:"selectedOption,omitempty"`
	IsCorrect        bool         `json:"isCorrect"`
	PointsEarned     int          `json:"pointsEarned"`
	TimeTakenSeconds int          `json:"timeTakenSeconds"`
	TimedOut         bool         `json:"timedOut"`
	AnsweredAt       time.Time    `json:"answeredAt"`
}

// Session is the authoritative record of one participant's single attempt at a timed quiz.
type Session struct {
	ID                   string     `json:"id"`
	QuizID               string     `json:"quizId"`
	UserID               string     `json:"userId"`
	TeamID               string     `json:"teamId,omitempty"`
	QuestionIDs          []string   `json:"questionIds"`
	StartedAt            time.Time  `json:"startedAt"`
	QuestionStartedAt    time.Time  `json:"questionStartedAt"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
	TotalScore           int        `json:"totalScore"`
	QuestionsAnswered    int        `json:"questionsAnswered"`
	QuestionsTimedOut    int        `json:"questionsTimedOut"`
	CurrentQuestionIndex int        `json:"currentQuestionIndex"`
	TotalQuestions       int        `json:"totalQuestions"`
	IsCompleted          bool       `json:"isCompleted"`
	Answers              []Answer   `json:"answers"`
}

// NewSession builds a fresh session positioned on the first question of sequence.
func NewSession(id, quizID, userID, teamID string, sequence []string, now time.Time) Session {
	ids := make([]string, len(sequence))
	copy(ids, sequence)
	return Session{
		ID:                id,
		QuizID:            quizID,
		UserID:            userID,
		TeamID:            teamID,
		QuestionIDs:       ids,
		StartedAt:         now,
		QuestionStartedAt: now,
		TotalQuestions:    len(ids),
		IsCompleted:       len(ids) == 0,
		Answers:           []Answer{},
	}
}

// CurrentQuestionID returns the ID of the question awaiting an answer.
func (s Session) CurrentQuestionID() (string, bool) {
	if s.IsCompleted || s.CurrentQuestionIndex >= len(s.QuestionIDs) {
		return "", false
	}
	return s.QuestionIDs[s.CurrentQuestionIndex], true
}

// Apply records answer for expectedIndex and advances the session.
// It leaves the session untouched and returns ErrStaleSubmission when expectedIndex
// is not the current index or the session is already completed.
func (s *Session) Apply(expectedIndex int, answer Answer, now time.Time) error {
	if s.IsCompleted || expectedIndex != s.CurrentQuestionIndex || expectedIndex >= s.TotalQuestions {
		return ErrStaleSubmission
	}

	answer.SessionID = s.ID
	answer.QuestionIndex = expectedIndex
	answer.QuestionID = s.QuestionIDs[expectedIndex]
	if answer.PointsEarned < 0 {
		answer.PointsEarned = 0
	}
	s.Answers = append(s.Answers, answer)

	if answer.TimedOut {
		s.QuestionsTimedOut++
	} else {
		s.QuestionsAnswered++
	}
	s.TotalScore += answer.PointsEarned
	s.CurrentQuestionIndex++
	s.QuestionStartedAt = now

	if s.CurrentQuestionIndex == s.TotalQuestions {
		completedAt := now
		s.CompletedAt = &completedAt
		s.IsCompleted = true
	}
	return nil
}

// Remaining is the authoritative time left on the current question, rounded up to seconds.
func (s Session) Remaining(limit time.Duration, now time.Time) int {
	left := limit - now.Sub(s.QuestionStartedAt)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// Clone returns a deep copy so callers never alias stored state.
func (s Session) Clone() Session {
	out := s
	out.QuestionIDs = append([]string(nil), s.QuestionIDs...)
	out.Answers = make([]Answer, len(s.Answers))
	for i, a := range s.Answers {
		if a.SelectedOption != nil {
			opt := *a.SelectedOption
			a.SelectedOption = &opt
		}
		out.Answers[i] = a
	}
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		out.CompletedAt = &at
	}
	return out
}
