package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// State represents a state in the state machine.
type State interface {
	Name() string
}

// Event represents an event that can trigger a state transition.
type Event interface {
	Name() string
}

// Action executes side effects during a transition. Returning an error
// aborts the transition.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Guard evaluates whether a transition is allowed.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Transition defines a state change triggered by an event.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard
	Actions []Action
}

// StringState provides a string-based State implementation.
type StringState string

func (s StringState) Name() string { return string(s) }

// StringEvent provides a string-based Event implementation.
type StringEvent string

func (e StringEvent) Name() string { return string(e) }

// StateMachine is a thread-safe in-memory finite state machine. Transition
// lookup is by [fromState][event]; multiple transitions for the same pair are
// tried in registration order and the first whose guards pass wins.
type StateMachine struct {
	initialState State
	currentState State
	transitions  map[string]map[string][]Transition
	mu           sync.RWMutex
}

// Option configures a state machine during construction.
type Option func(*StateMachine) error

// New creates a state machine with the given initial state and transitions.
func New(initialState State, opts ...Option) (*StateMachine, error) {
	if initialState == nil {
		return nil, fmt.Errorf("statemachine: initial state cannot be nil")
	}

	sm := &StateMachine{
		initialState: initialState,
		currentState: initialState,
		transitions:  make(map[string]map[string][]Transition),
	}
	for _, opt := range opts {
		if err := opt(sm); err != nil {
			return nil, err
		}
	}
	return sm, nil
}

// MustNew creates a state machine, panicking on misconfiguration.
func MustNew(initialState State, opts ...Option) *StateMachine {
	sm, err := New(initialState, opts...)
	if err != nil {
		panic(fmt.Sprintf("statemachine: %v", err))
	}
	return sm
}

// WithTransition adds a transition. Nil guards and actions are skipped.
func WithTransition(from, to State, event Event, guards []Guard, actions []Action) Option {
	return func(sm *StateMachine) error {
		return sm.AddTransition(from, to, event, guards, actions)
	}
}

func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

func (sm *StateMachine) AddTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.transitions[from.Name()]; !ok {
		sm.transitions[from.Name()] = make(map[string][]Transition)
	}
	sm.transitions[from.Name()][event.Name()] = append(sm.transitions[from.Name()][event.Name()], Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
	return nil
}

// Fire attempts the transition for event from the current state. Actions run
// before the state changes; an action error leaves the machine in place.
func (sm *StateMachine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	transitions := sm.transitions[sm.currentState.Name()][event.Name()]
	if len(transitions) == 0 {
		return NewErrNoTransitionAvailable(sm.currentState.Name(), event.Name())
	}

	var match *Transition
	for i, t := range transitions {
		if guardsPass(ctx, t.Guards, sm.currentState, event, data) {
			match = &transitions[i]
			break
		}
	}
	if match == nil {
		return NewErrTransitionRejected(sm.currentState.Name(), event.Name())
	}

	for _, action := range match.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, sm.currentState, match.To, event, data); err != nil {
			return fmt.Errorf("statemachine: action failed: %w", err)
		}
	}

	sm.currentState = match.To
	return nil
}

// CanFire reports whether Fire would succeed for event, without running
// actions or changing state.
func (sm *StateMachine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil {
		return false
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, t := range sm.transitions[sm.currentState.Name()][event.Name()] {
		if guardsPass(ctx, t.Guards, sm.currentState, event, data) {
			return true
		}
	}
	return false
}

// Reset returns the machine to its initial state.
func (sm *StateMachine) Reset() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.currentState = sm.initialState
}

func guardsPass(ctx context.Context, guards []Guard, from State, event Event, data any) bool {
	for _, guard := range guards {
		if guard != nil && !guard(ctx, from, event, data) {
			return false
		}
	}
	return true
}
