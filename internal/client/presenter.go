package client

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"timed-quiz-service/internal/api"
	"timed-quiz-service/internal/domain"
)

// State is the presenter's position in Idle -> Running -> Submitting -> Idle | Finished.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateSubmitting
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSubmitting:
		return "submitting"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// Ticker delivers the one-second countdown ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// View renders presenter events.
type View interface {
	ShowQuestion(q api.Question, number, total, remaining int)
	Tick(remaining int)
	ShowResult(res api.SubmitResponse)
	Finished(totalScore int)
	Error(err error)
}

// Presenter runs the local countdown for one timed quiz. The countdown is display only;
// on any disagreement the presenter resyncs from the server's session status.
type Presenter struct {
	client    API
	quizID    string
	view      View
	newTicker func() Ticker

	state      atomic.Int32
	selections chan int

	question  api.Question
	index     int
	total     int
	remaining int
	score     int
}

type PresenterOption func(*Presenter)

// WithTicker replaces the one-second wall clock ticker.
func WithTicker(newTicker func() Ticker) PresenterOption {
	return func(p *Presenter) { p.newTicker = newTicker }
}

func NewPresenter(client API, quizID string, view View, opts ...PresenterOption) *Presenter {
	p := &Presenter{
		client:     client,
		quizID:     quizID,
		view:       view,
		newTicker:  func() Ticker { return realTicker{t: time.NewTicker(time.Second)} },
		selections: make(chan int, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Presenter) State() State { return State(p.state.Load()) }

func (p *Presenter) setState(s State) { p.state.Store(int32(s)) }

// Select submits option for the current question. It is ignored unless the countdown is running.
func (p *Presenter) Select(option int) bool {
	if p.State() != StateRunning {
		return false
	}
	select {
	case p.selections <- option:
		return true
	default:
		return false
	}
}

// Run starts (or resumes) the session and drives it until it finishes, ctx is
// canceled, or the server cannot be reached for a resync.
func (p *Presenter) Run(ctx context.Context) error {
	started, err := p.client.Start(ctx, p.quizID)
	if err != nil {
		p.view.Error(err)
		return err
	}
	if started.AlreadyStarted {
		if started.Status != nil {
			p.resume(*started.Status)
		} else if err := p.resync(ctx); err != nil {
			return err
		}
	} else {
		if started.CurrentQuestion == nil {
			return errors.New("start response without a question")
		}
		p.show(*started.CurrentQuestion, started.QuestionNumber-1, started.TotalQuestions, started.TimeLimit)
	}

	for {
		if p.State() == StateFinished {
			return nil
		}
		selected, err := p.countdown(ctx)
		if err != nil {
			p.setState(StateIdle)
			return err
		}
		if err := p.submit(ctx, selected); err != nil {
			return err
		}
	}
}

// countdown runs the question timer until a selection arrives or it reaches zero.
// A nil selection is a timeout.
func (p *Presenter) countdown(ctx context.Context) (*int, error) {
	p.drainSelections()
	p.setState(StateRunning)
	if p.remaining <= 0 {
		return nil, nil
	}

	ticker := p.newTicker()
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case option := <-p.selections:
			return &option, nil
		case <-ticker.C():
			p.remaining--
			p.view.Tick(p.remaining)
			if p.remaining <= 0 {
				return nil, nil
			}
		}
	}
}

// submit sends exactly one request for the shown question index and applies the reply.
func (p *Presenter) submit(ctx context.Context, selected *int) error {
	p.setState(StateSubmitting)
	index := p.index
	res, err := p.client.Submit(ctx, p.quizID, api.SubmitRequest{SelectedOption: selected, QuestionIndex: &index})
	if err != nil {
		if ctx.Err() != nil {
			p.setState(StateIdle)
			return ctx.Err()
		}
		p.view.Error(err)
		if errors.Is(err, domain.ErrInvalidOption) {
			// the countdown picks up where it froze
			return nil
		}
		return p.resync(ctx)
	}

	p.view.ShowResult(res)
	p.score = res.TotalScore
	if res.IsQuizCompleted || res.NextQuestion == nil {
		p.finish()
		return nil
	}
	p.setState(StateIdle)
	p.show(*res.NextQuestion, res.QuestionNumber-1, res.TotalQuestions, res.TimeLimit)
	return nil
}

// resync replaces local state with the server's snapshot.
func (p *Presenter) resync(ctx context.Context) error {
	p.setState(StateIdle)
	status, err := p.client.Status(ctx, p.quizID)
	if err != nil {
		p.view.Error(err)
		return err
	}
	if !status.HasStarted {
		return errors.New("server has no session to resume")
	}
	p.resume(status)
	return nil
}

// resume adopts a status snapshot and reports whether the session is over.
func (p *Presenter) resume(status api.StatusResponse) bool {
	if status.Session != nil {
		p.score = status.Session.TotalScore
	}
	if status.IsCompleted || status.CurrentQuestion == nil {
		p.finish()
		return true
	}
	total := 0
	if status.Session != nil {
		total = status.Session.TotalQuestions
	}
	p.show(*status.CurrentQuestion, status.QuestionNumber-1, total, status.RemainingSeconds)
	return false
}

func (p *Presenter) show(q api.Question, index, total, remaining int) {
	p.question = q
	p.index = index
	p.total = total
	p.remaining = remaining
	p.view.ShowQuestion(q, index+1, total, remaining)
}

func (p *Presenter) finish() {
	p.setState(StateFinished)
	p.view.Finished(p.score)
}

func (p *Presenter) drainSelections() {
	for {
		select {
		case <-p.selections:
		default:
			return
		}
	}
}
