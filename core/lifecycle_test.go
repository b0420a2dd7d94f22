package core

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type noopModule struct {
	initialized bool
	cleaned     bool
}

func (m *noopModule) Init(s *State) error    { m.initialized = true; return nil }
func (m *noopModule) Cleanup(s *State) error { m.cleaned = true; return nil }

func TestStartInitializesModulesAndRunStops(t *testing.T) {
	mod := &noopModule{}
	s, err := Start("static", "", "", slog.LevelError, []Module{mod})
	require.NoError(t, err)
	require.True(t, mod.initialized)

	done := make(chan error, 1)
	go func() { done <- Run(s) }()

	applied := make(chan struct{})
	s.Dispatch(func(st *State) error {
		close(applied)
		return nil
	})

	select {
	case <-applied:
	case <-time.After(time.Second):
		t.Fatal("dispatched closure never ran")
	}

	s.Cancel(context.Canceled)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("main loop never stopped")
	}
	require.True(t, mod.cleaned)
	require.True(t, s.Stopping.Load())
}
