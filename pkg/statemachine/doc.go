// Package statemachine implements a small thread-safe finite state machine
// with guarded transitions and pre-transition actions.
//
// It drives multi-step authentication flows where each step must be proven
// in order, such as the admin login sequence of password check followed by a
// second factor. Guards veto transitions at decision time; actions run side
// effects and can abort the transition by returning an error.
package statemachine
