package system

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/followctl/internal/core/system"
	"github.com/l1jgo/followctl/internal/data"
	"github.com/l1jgo/followctl/internal/handler"
	"github.com/l1jgo/followctl/internal/selection"
)

// maxCallDepth bounds nested call_common_event frames.
const maxCallDepth = 100

var ErrCallDepth = errors.New("common event call depth exceeded")

// RouteQuery reports whether a character still runs a move route.
type RouteQuery interface {
	Active(key string) bool
}

// ThreadGauge receives the live thread count once per tick.
type ThreadGauge interface {
	SetThreads(n int)
}

type frame struct {
	commands []data.EventCommand
	pc       int
	ctx      *selection.Context
}

// Thread is one event-execution thread. Frames form a call stack; the top
// frame runs, the ones below wait for it.
type Thread struct {
	eventID   int32
	frames    []*frame
	waitTicks int
	waitRoute string
}

func (th *Thread) Selection() *selection.Context { return th.top().ctx }
func (th *Thread) EventID() int32                { return th.eventID }
func (th *Thread) WaitForRoute(key string)       { th.waitRoute = key }

func (th *Thread) top() *frame { return th.frames[len(th.frames)-1] }

// Done reports whether every frame ran to completion.
func (th *Thread) Done() bool { return len(th.frames) == 0 }

// InterpreterSystem runs scenario threads cooperatively, one command per
// thread per tick. Phase 0 (Interpret).
type InterpreterSystem struct {
	scenario *data.Scenario
	registry *handler.Registry
	resolver *selection.Resolver
	routes   RouteQuery
	gauge    ThreadGauge
	log      *zap.Logger

	pending []data.ThreadSpec
	threads []*Thread
	tick    int
	err     error
}

func NewInterpreterSystem(
	scenario *data.Scenario,
	registry *handler.Registry,
	resolver *selection.Resolver,
	routes RouteQuery,
	log *zap.Logger,
) *InterpreterSystem {
	s := &InterpreterSystem{
		scenario: scenario,
		registry: registry,
		resolver: resolver,
		routes:   routes,
		log:      log,
	}
	s.pending = append(s.pending, scenario.Threads...)
	return s
}

func (s *InterpreterSystem) SetGauge(g ThreadGauge) { s.gauge = g }

func (s *InterpreterSystem) Phase() coresys.Phase { return coresys.PhaseInterpret }

// Err returns the error that stopped the run, if any.
func (s *InterpreterSystem) Err() error { return s.err }

// Done reports whether all threads have started and finished, or the run failed.
func (s *InterpreterSystem) Done() bool {
	return s.err != nil || (len(s.pending) == 0 && len(s.threads) == 0)
}

// Threads returns the running threads.
func (s *InterpreterSystem) Threads() []*Thread { return s.threads }

// Start begins a thread for an event with the given commands.
func (s *InterpreterSystem) Start(eventID int32, commands []data.EventCommand) *Thread {
	th := &Thread{
		eventID: eventID,
		frames:  []*frame{{commands: commands, ctx: s.resolver.NewContext()}},
	}
	s.threads = append(s.threads, th)
	s.log.Debug("thread started", zap.Int32("event", eventID), zap.Int("commands", len(commands)))
	return th
}

func (s *InterpreterSystem) Update(_ time.Duration) {
	if s.err != nil {
		return
	}
	s.startDue()

	for _, th := range s.threads {
		if err := s.step(th); err != nil {
			s.err = fmt.Errorf("event %d: %w", th.eventID, err)
			s.log.Error("scenario aborted", zap.Int32("event", th.eventID), zap.Error(err))
			return
		}
	}

	live := s.threads[:0]
	for _, th := range s.threads {
		if !th.Done() {
			live = append(live, th)
		}
	}
	s.threads = live
	if s.gauge != nil {
		s.gauge.SetThreads(len(s.threads))
	}
	s.tick++
}

func (s *InterpreterSystem) startDue() {
	rest := s.pending[:0]
	for _, spec := range s.pending {
		if spec.StartTick <= s.tick {
			s.Start(spec.EventID, spec.Commands)
		} else {
			rest = append(rest, spec)
		}
	}
	s.pending = rest
}

// step advances a thread by at most one command.
func (s *InterpreterSystem) step(th *Thread) error {
	if th.waitTicks > 0 {
		th.waitTicks--
		return nil
	}
	if th.waitRoute != "" {
		if s.routes != nil && s.routes.Active(th.waitRoute) {
			return nil
		}
		th.waitRoute = ""
	}

	for !th.Done() && th.top().pc >= len(th.top().commands) {
		s.popFrame(th)
	}
	if th.Done() {
		return nil
	}

	f := th.top()
	cmd := f.commands[f.pc]
	f.pc++

	var err error
	switch cmd.Code {
	case "wait":
		err = s.wait(th, handler.Args(cmd.Args))
	case "call_common_event":
		err = s.callCommonEvent(th, handler.Args(cmd.Args))
	default:
		err = s.registry.Dispatch(th, cmd.Code, handler.Args(cmd.Args))
	}
	if err != nil {
		return err
	}

	for !th.Done() && th.top().pc >= len(th.top().commands) && th.waitTicks == 0 && th.waitRoute == "" {
		s.popFrame(th)
	}
	return nil
}

func (s *InterpreterSystem) popFrame(th *Thread) {
	f := th.top()
	th.frames = th.frames[:len(th.frames)-1]
	if f.ctx.IsRoot() {
		f.ctx.Close()
		s.log.Debug("thread finished", zap.Int32("event", th.eventID))
	}
}

func (s *InterpreterSystem) wait(th *Thread, args handler.Args) error {
	n, err := args.IntOr("frames", 1)
	if err != nil {
		return fmt.Errorf("wait: %w", err)
	}
	if n > 1 {
		th.waitTicks = n - 1
	}
	return nil
}

// callCommonEvent pushes a child frame. The child shares the caller's
// selection through a spawned context.
func (s *InterpreterSystem) callCommonEvent(th *Thread, args handler.Args) error {
	id, err := args.Int("id")
	if err != nil {
		return fmt.Errorf("call_common_event: %w", err)
	}
	ce := s.scenario.CommonEvent(int32(id))
	if ce == nil {
		s.log.Warn("common event not found", zap.Int("id", id))
		return nil
	}
	if len(th.frames) >= maxCallDepth {
		return fmt.Errorf("call_common_event %d: %w", id, ErrCallDepth)
	}
	th.frames = append(th.frames, &frame{commands: ce.Commands, ctx: th.top().ctx.Spawn()})
	return nil
}
