package http

import (
	"timed-quiz-service/internal/api"
	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

func toQuestion(q domain.Question) *api.Question {
	return &api.Question{
		ID:        q.ID,
		Prompt:    q.Prompt,
		Options:   append([]string(nil), q.Options...),
		Points:    q.Points,
		TimeLimit: q.TimeLimitSeconds,
	}
}

func optionValue(o *domain.OptionIndex) *int {
	if o == nil {
		return nil
	}
	v := int(*o)
	return &v
}

func toSession(s domain.Session) *api.Session {
	out := &api.Session{
		ID:                   s.ID,
		QuizID:               s.QuizID,
		TeamID:               s.TeamID,
		StartedAt:            s.StartedAt,
		CompletedAt:          s.CompletedAt,
		TotalScore:           s.TotalScore,
		QuestionsAnswered:    s.QuestionsAnswered,
		QuestionsTimedOut:    s.QuestionsTimedOut,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		TotalQuestions:       s.TotalQuestions,
		IsCompleted:          s.IsCompleted,
		Answers:              make([]api.Answer, 0, len(s.Answers)),
	}
	for _, a := range s.Answers {
		out.Answers = append(out.Answers, api.Answer{
			QuestionIndex:    a.QuestionIndex,
			QuestionID:       a.QuestionID,
			SelectedOption:   optionValue(a.SelectedOption),
			IsCorrect:        a.IsCorrect,
			PointsEarned:     a.PointsEarned,
			TimeTakenSeconds: a.TimeTakenSeconds,
			TimedOut:         a.TimedOut,
			AnsweredAt:       a.AnsweredAt,
		})
	}
	return out
}

func toStatus(st app.Status) api.StatusResponse {
	out := api.StatusResponse{
		HasStarted:       st.HasStarted,
		IsCompleted:      st.IsCompleted,
		CanStart:         st.CanStart,
		QuestionNumber:   st.QuestionNumber,
		RemainingSeconds: st.RemainingSeconds,
	}
	if st.Session != nil {
		out.Session = toSession(*st.Session)
	}
	if st.CurrentQuestion != nil {
		out.CurrentQuestion = toQuestion(*st.CurrentQuestion)
	}
	return out
}

func toStart(res app.StartResult) api.StartResponse {
	out := api.StartResponse{
		SessionID:      res.Session.ID,
		TotalQuestions: res.TotalQuestions,
		StartedAt:      res.StartedAt,
		AlreadyStarted: res.AlreadyStarted,
	}
	if res.AlreadyStarted {
		status := toStatus(res.Status)
		out.Status = &status
		out.QuestionNumber = status.QuestionNumber
		return out
	}
	out.CurrentQuestion = toQuestion(res.Question)
	out.QuestionNumber = res.QuestionNumber
	out.TimeLimit = res.TimeLimit
	return out
}

func toSubmit(res app.SubmitResult) api.SubmitResponse {
	out := api.SubmitResponse{
		IsCorrect:       res.IsCorrect,
		PointsEarned:    res.PointsEarned,
		TotalScore:      res.TotalScore,
		TimedOut:        res.TimedOut,
		QuestionNumber:  res.QuestionNumber,
		TotalQuestions:  res.TotalQuestions,
		TimeLimit:       res.TimeLimit,
		IsQuizCompleted: res.IsQuizCompleted,
	}
	if res.NextQuestion != nil {
		out.NextQuestion = toQuestion(*res.NextQuestion)
	}
	return out
}

func toGrade(res app.AttemptResult) api.GradeResponse {
	out := api.GradeResponse{
		QuizID:       res.QuizID,
		Results:      make([]api.GradedQuestion, 0, len(res.Results)),
		CorrectCount: res.CorrectCount,
		TotalScore:   res.TotalScore,
		MaxScore:     res.MaxScore,
	}
	for _, r := range res.Results {
		out.Results = append(out.Results, api.GradedQuestion{
			QuestionID:     r.QuestionID,
			SelectedOption: optionValue(r.SelectedOption),
			IsCorrect:      r.IsCorrect,
			PointsEarned:   r.PointsEarned,
		})
	}
	return out
}
