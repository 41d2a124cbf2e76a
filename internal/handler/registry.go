package handler

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/l1jgo/followctl/internal/selection"
)

// Thread is the event-execution thread a command runs on.
type Thread interface {
	Selection() *selection.Context
	EventID() int32 // the event that owns the thread, 0 for none
	WaitForRoute(key string)
}

// HandlerFunc is the callback signature for command handlers.
type HandlerFunc func(th Thread, args Args) error

// CommandObserver is told about every dispatched command.
type CommandObserver interface {
	ObserveCommand(code string, err error)
}

// Registry maps command codes to handlers.
type Registry struct {
	handlers map[string]HandlerFunc
	observer CommandObserver
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
		log:      log,
	}
}

// Register maps a command code to a handler. Re-registering replaces it.
func (reg *Registry) Register(code string, fn HandlerFunc) {
	reg.handlers[code] = fn
}

func (reg *Registry) SetObserver(o CommandObserver) { reg.observer = o }

// Codes lists the registered command codes, sorted.
func (reg *Registry) Codes() []string {
	out := make([]string, 0, len(reg.handlers))
	for code := range reg.handlers {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Has reports whether a handler exists for code.
func (reg *Registry) Has(code string) bool {
	_, ok := reg.handlers[code]
	return ok
}

// Dispatch runs the handler for code. Unknown codes are ignored.
func (reg *Registry) Dispatch(th Thread, code string, args Args) error {
	fn, ok := reg.handlers[code]
	if !ok {
		reg.log.Debug("unknown command", zap.String("code", code))
		return nil
	}
	reg.log.Debug("command",
		zap.String("code", code),
		zap.Int32("event", th.EventID()),
		zap.Int("selected", th.Selection().Selected()),
	)
	err := reg.safeCall(fn, th, args, code)
	if reg.observer != nil {
		reg.observer.ObserveCommand(code, err)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", code, err)
	}
	return nil
}

// safeCall executes a handler with panic recovery so one bad command does
// not take the game loop down.
func (reg *Registry) safeCall(fn HandlerFunc, th Thread, args Args, code string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.String("code", code),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return fn(th, args)
}
