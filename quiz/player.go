package quiz

import (
	"errors"
	"fmt"
)

type State int

const (
	StateIdle State = iota
	StatePresenting
	StateSubmitted
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePresenting:
		return "presenting"
	case StateSubmitted:
		return "submitted"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrNotPresenting    = errors.New("quiz is not accepting answers")
	ErrNoSuchQuestion   = errors.New("question index out of range")
	ErrNoSuchOption     = errors.New("option index out of range")
	ErrCouldNotLoadQuiz = errors.New("could not load quiz")
)

// Player holds one attempt at a quiz: the questions on screen and the
// selections made so far. It is owned by a single caller and is not safe
// for concurrent use.
type Player struct {
	state     State
	questions []Question
	answers   AnswerSet
}

func NewPlayer() *Player {
	return &Player{state: StateIdle}
}

// Load starts a fresh attempt. An empty question list means the lesson
// content could not be normalized and moves the player to StateError.
func (p *Player) Load(questions []Question) error {
	if len(questions) == 0 {
		p.state = StateError
		p.questions = nil
		p.answers = nil
		return ErrCouldNotLoadQuiz
	}
	p.questions = questions
	p.answers = make(AnswerSet, len(questions))
	p.state = StatePresenting
	return nil
}

// Restart begins a new attempt on the same questions with no selections.
func (p *Player) Restart() error {
	return p.Load(p.questions)
}

func (p *Player) State() State { return p.state }

func (p *Player) Questions() []Question { return p.questions }

// Select records option for question, replacing any earlier selection.
func (p *Player) Select(question, option int) error {
	if p.state != StatePresenting {
		return fmt.Errorf("%w: state is %s", ErrNotPresenting, p.state)
	}
	if question < 0 || question >= len(p.questions) {
		return fmt.Errorf("%w: %d", ErrNoSuchQuestion, question)
	}
	if option < 0 || option >= len(p.questions[question].Options) {
		return fmt.Errorf("%w: question %d option %d", ErrNoSuchOption, question, option)
	}
	p.answers[question] = Selected(option)
	return nil
}

// Clear drops the selection for question.
func (p *Player) Clear(question int) error {
	if p.state != StatePresenting {
		return fmt.Errorf("%w: state is %s", ErrNotPresenting, p.state)
	}
	if question < 0 || question >= len(p.questions) {
		return fmt.Errorf("%w: %d", ErrNoSuchQuestion, question)
	}
	p.answers[question] = nil
	return nil
}

// Submit freezes the answer set and grades it. Unselected questions are
// submitted as unanswered.
func (p *Player) Submit() (Report, error) {
	if p.state != StatePresenting {
		return Report{}, fmt.Errorf("%w: state is %s", ErrNotPresenting, p.state)
	}
	frozen := make(AnswerSet, len(p.answers))
	copy(frozen, p.answers)
	p.state = StateSubmitted
	return Grade(p.questions, frozen)
}
