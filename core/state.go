package core

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Env is the part of a daemon's state that is safe to read from any
// goroutine: the cancelable context, the dispatch channel itself (never
// read from outside the main loop, only sent to), and immutable
// identity/config. Mutating anything reachable only through State must
// happen inside a dispatch closure.
type Env struct {
	Context context.Context
	Cancel  context.CancelCauseFunc

	DispatchChannel chan func(*State) error

	Role       string // "static", "isis", or "broker"
	Log        *slog.Logger
	ConfigPath string
}

// State is the single-goroutine-owned state of one daemon process: its
// registered modules, lifecycle flags, and the Collaborators view the
// Installation Controller evaluates against. Every field below must only
// be touched from inside a dispatch closure or before MainLoop starts.
type State struct {
	*Env

	Modules map[string]Module

	Started  atomic.Bool
	Stopping atomic.Bool

	Collab *ResourceSet
}

// Dispatch submits fn to run on the main loop thread. Safe to call from
// any goroutine; this is the only sanctioned mutation path onto State.
func (s *State) Dispatch(fn func(*State) error) {
	select {
	case s.DispatchChannel <- fn:
	case <-s.Context.Done():
	}
}
