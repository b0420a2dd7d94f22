package core

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"reflect"
	"runtime"
	"syscall"
	"time"

	"github.com/arcrtr/srv6d/perf"
	"github.com/arcrtr/srv6d/state"
	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
)

// Start brings up one daemon process's event loop: logging, the
// dispatch channel, signal handling, and every supplied module's Init,
// in the order given. It does not block; call Run to drive the loop.
func Start(role, configPath, logPath string, logLevel slog.Level, modules []Module) (*State, error) {
	ctx, cancel := context.WithCancelCause(context.Background())

	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        logLevel,
			AddSource:    false,
			CustomPrefix: role,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}),
	}

	if logPath != "" {
		if err := os.MkdirAll(path.Dir(logPath), 0700); err != nil {
			cancel(err)
			return nil, err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0700)
		if err != nil {
			cancel(err)
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	}

	logger := slog.New(slogmulti.Fanout(handlers...))

	s := &State{
		Modules: make(map[string]Module),
		Collab:  NewResourceSet(),
		Env: &Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: make(chan func(*State) error, 128),
			Role:            role,
			Log:             logger,
			ConfigPath:      configPath,
		},
	}

	s.Log.Info("init modules")
	for _, m := range modules {
		s.Modules[reflect.TypeOf(m).String()] = m
		if err := m.Init(s); err != nil {
			return nil, err
		}
	}
	s.Log.Info("init modules complete")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sig:
			s.Cancel(errors.New("received shutdown signal"))
		case <-ctx.Done():
		}
	}()

	return s, nil
}

// Run drives the main loop until the context is canceled, then tears
// down every module.
func Run(s *State) error {
	return MainLoop(s, s.DispatchChannel)
}

// MainLoop is the single-threaded cooperative event loop: it drains
// dispatch closures in submission order and nothing else mutates State.
func MainLoop(s *State, dispatch <-chan func(*State) error) error {
	s.Log.Debug("started main loop")
	s.Started.Store(true)
	for {
		select {
		case fn := <-dispatch:
			if fn == nil {
				goto endLoop
			}
			start := time.Now()
			err := fn(s)
			if err != nil {
				s.Log.Error("error occurred during dispatch", "error", err)
				s.Cancel(err)
			}
			elapsed := time.Since(start)
			perf.DispatchLatency.Add(float64(elapsed.Microseconds()))
			if elapsed > state.DispatchWarnThreshold {
				s.Log.Warn("dispatch took a long time",
					"fun", runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name(),
					"elapsed", elapsed, "queued", len(dispatch))
			}
		case <-s.Context.Done():
			goto endLoop
		}
	}
endLoop:
	s.Log.Info("stopped main loop", "reason", context.Cause(s.Context).Error())
	Stop(s)
	return nil
}

// Stop cancels the context, closes the dispatch channel, and runs every
// module's Cleanup. Safe to call more than once.
func Stop(s *State) {
	if s.Stopping.Swap(true) {
		return
	}
	s.Cancel(context.Canceled)
	if s.DispatchChannel != nil {
		close(s.DispatchChannel)
		s.DispatchChannel = nil
	}
	s.Log.Info("cleaning up modules")
	for name, m := range s.Modules {
		if err := m.Cleanup(s); err != nil {
			s.Log.Error("error occurred during Stop", "module", name, "error", err)
		}
	}
	s.Log.Info("stopped")
}
