package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mkrogh/shopfloor/components"
	"github.com/mkrogh/shopfloor/config"
	"github.com/mkrogh/shopfloor/steering"
	"github.com/mkrogh/shopfloor/vmath"
	"github.com/mkrogh/shopfloor/world"
)

// State is the scheduler's lifecycle state. Transitions happen only on the
// scheduler goroutine.
type State int32

const (
	Paused State = iota
	Running
	Stepping
	Terminating
)

func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Running:
		return "running"
	case Stepping:
		return "stepping"
	case Terminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// EventKind classifies per-agent tick events.
type EventKind int

const (
	// EventArrived fires when an agent reaches its destination and its
	// navigation is cleared.
	EventArrived EventKind = iota
	// EventFaulted fires when an agent's force computation panicked and
	// the decay fallback was applied instead.
	EventFaulted
)

// Event is one per-agent occurrence during a committed tick.
type Event struct {
	Tick    uint64
	AgentID uint64
	Kind    EventKind
}

// Frame is one committed tick published to subscribers. The snapshot and
// the copied slices are immutable once published.
type Frame struct {
	Snap    *world.Snapshot
	Forces  []steering.Forces
	Intents []world.Intent
	Events  []Event
	State   State
	Perf    map[string]time.Duration
}

// Recorder receives every committed tick. Implementations must not retain
// the intents or forces slices past the call; the snapshot is safe to keep.
type Recorder interface {
	RecordTick(snap *world.Snapshot, intents []world.Intent, forces []steering.Forces)
	Flush() error
}

// steerer is the per-agent force computation the scheduler drives. The
// production implementation is steering.Composite.
type steerer interface {
	QueryRadius(maxSpeed, radius float64) float64
	Steer(ctx *steering.Context) steering.Forces
}

// perfLogEvery is how many ticks pass between timing log lines.
const perfLogEvery = 600

type commandKind int

const (
	cmdPause commandKind = iota
	cmdResume
	cmdStep
	cmdSetRate
	cmdSetStatus
	cmdSetNavigation
	cmdShutdown
)

type command struct {
	kind   commandKind
	rateHz int
	id     uint64
	status components.Status
	dest   vmath.Vec2
	path   []vmath.Vec2
	reply  chan error
}

// Scheduler drives the simulation at a fixed tick rate. Each tick is
// snapshot, parallel force computation, single-threaded commit, publish.
// All external mutation funnels through the command channel so the world
// only ever changes between ticks.
type Scheduler struct {
	env  *world.Environment
	comp steerer
	log  *slog.Logger

	recorder Recorder

	interval     time.Duration
	barrier      time.Duration
	arriveRadius float64

	state State
	pool  *workerPool
	perf  *PerfStats

	snap    *world.Snapshot
	intents []world.Intent
	forces  []steering.Forces

	cmds   chan command
	events chan Event
	done   chan struct{}

	subMu sync.Mutex
	subs  []chan *Frame
}

// NewScheduler wires a scheduler to the environment it will drive. The
// scheduler starts Paused; call Resume or Step to advance it.
func NewScheduler(env *world.Environment, cfg *config.Config, rec Recorder, log *slog.Logger) *Scheduler {
	s := &Scheduler{
		env:          env,
		comp:         steering.NewComposite(&cfg.Steering, cfg.Derived.LookAheadTicks),
		log:          log,
		recorder:     rec,
		interval:     cfg.Derived.TickInterval,
		barrier:      cfg.Derived.BarrierTimeout,
		arriveRadius: cfg.Agent.ArriveRadius,
		state:        Paused,
		perf:         NewPerfStats(cfg.Telemetry.PerfWindow),
		cmds:         make(chan command, 16),
		events:       make(chan Event, 256),
		done:         make(chan struct{}),
	}
	s.pool = newWorkerPool(s.computeChunk)
	return s
}

// Events exposes arrival and fault events for the coordination layer.
func (s *Scheduler) Events() <-chan Event { return s.events }

// Subscribe registers a frame channel. Publication never blocks: if the
// subscriber lags, the pending frame is replaced by the newer one.
func (s *Scheduler) Subscribe() <-chan *Frame {
	ch := make(chan *Frame, 1)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

// Pause stops ticking. Queued control commands still apply.
func (s *Scheduler) Pause() { s.post(command{kind: cmdPause}) }

// Resume restarts fixed-rate ticking.
func (s *Scheduler) Resume() { s.post(command{kind: cmdResume}) }

// Step advances exactly one tick while paused and returns once it has
// committed.
func (s *Scheduler) Step() error {
	return s.post(command{kind: cmdStep})
}

// SetRate changes the tick rate without restarting the scheduler.
func (s *Scheduler) SetRate(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("tick rate must be positive, got %d", hz)
	}
	return s.post(command{kind: cmdSetRate, rateHz: hz})
}

// SetStatus toggles an agent between Alive and Blocked at the next tick
// boundary.
func (s *Scheduler) SetStatus(id uint64, status components.Status) error {
	return s.post(command{kind: cmdSetStatus, id: id, status: status})
}

// SetNavigation replaces an agent's destination and path at the next tick
// boundary.
func (s *Scheduler) SetNavigation(id uint64, dest vmath.Vec2, path []vmath.Vec2) error {
	return s.post(command{kind: cmdSetNavigation, id: id, dest: dest, path: append([]vmath.Vec2(nil), path...)})
}

// Shutdown asks the scheduler to flush and exit. Run returns after the
// final flush.
func (s *Scheduler) Shutdown() { s.post(command{kind: cmdShutdown}) }

// ErrTerminated reports a command posted to a scheduler that has already
// exited.
var ErrTerminated = errors.New("scheduler terminated")

func (s *Scheduler) post(cmd command) error {
	cmd.reply = make(chan error, 1)
	select {
	case s.cmds <- cmd:
	case <-s.done:
		return ErrTerminated
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-s.done:
		// The command may still have been handled right before exit.
		select {
		case err := <-cmd.reply:
			return err
		default:
			return ErrTerminated
		}
	}
}

// Run is the scheduler goroutine. It owns all state transitions and is the
// only caller of Commit. It returns when terminated by command, context
// cancellation, or an unrecoverable tick error.
func (s *Scheduler) Run(ctx context.Context) error {
	defer close(s.done)
	s.pool.start()
	defer s.pool.stop()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started",
		slog.Duration("interval", s.interval),
		slog.Int("workers", s.pool.numWorkers))

	for {
		select {
		case <-ctx.Done():
			s.state = Terminating
			return s.finish(ctx.Err())

		case cmd := <-s.cmds:
			s.handle(cmd, ticker)
			if s.state == Terminating {
				return s.finish(nil)
			}

		case <-ticker.C:
			if s.state != Running {
				continue
			}
			if err := s.tick(); err != nil {
				s.state = Terminating
				return s.finish(err)
			}
		}
	}
}

func (s *Scheduler) handle(cmd command, ticker *time.Ticker) {
	var err error
	switch cmd.kind {
	case cmdPause:
		s.state = Paused
	case cmdResume:
		s.state = Running
	case cmdStep:
		if s.state == Running {
			err = fmt.Errorf("step: scheduler is running, pause first")
			break
		}
		s.state = Stepping
		err = s.tick()
		if err != nil {
			s.state = Terminating
		} else {
			s.state = Paused
		}
	case cmdSetRate:
		s.interval = time.Second / time.Duration(cmd.rateHz)
		ticker.Reset(s.interval)
		s.log.Info("tick rate changed", slog.Int("rate_hz", cmd.rateHz))
	case cmdSetStatus:
		err = s.env.SetStatus(cmd.id, cmd.status)
	case cmdSetNavigation:
		err = s.env.SetNavigation(cmd.id, cmd.dest, cmd.path)
	case cmdShutdown:
		s.state = Terminating
	}
	cmd.reply <- err
}

// finish flushes telemetry and drains the result. Called exactly once, on
// the scheduler goroutine, for every way Run can exit.
func (s *Scheduler) finish(err error) error {
	if s.recorder != nil {
		if ferr := s.recorder.Flush(); ferr != nil {
			s.log.Error("telemetry flush failed", slog.Any("error", ferr))
			if err == nil {
				err = ferr
			}
		}
	}
	if err != nil {
		s.log.Error("scheduler stopped", slog.Any("error", err))
	} else {
		s.log.Info("scheduler stopped", slog.Uint64("tick", s.env.Tick()))
	}
	return err
}

// tick runs one full simulation step: snapshot, compute, commit, publish.
func (s *Scheduler) tick() error {
	start := time.Now()
	s.snap = s.env.Snapshot()
	s.perf.Record("snapshot", time.Since(start))

	n := len(s.snap.Agents)
	if cap(s.intents) < n {
		s.intents = make([]world.Intent, n)
		s.forces = make([]steering.Forces, n)
	}
	s.intents = s.intents[:n]
	s.forces = s.forces[:n]

	computeStart := time.Now()
	if n > 0 {
		if n < parallelThreshold {
			s.computeChunk(0, n, &s.pool.scratches[0])
		} else if err := s.pool.dispatch(n, s.barrier); err != nil {
			return fmt.Errorf("tick %d: %w", s.snap.Tick, err)
		}
	}
	s.perf.Record("compute", time.Since(computeStart))

	commitStart := time.Now()
	if err := s.env.Commit(s.snap, s.intents); err != nil {
		return fmt.Errorf("tick %d: %w", s.snap.Tick, err)
	}
	s.perf.Record("commit", time.Since(commitStart))

	publishStart := time.Now()
	if s.recorder != nil {
		s.recorder.RecordTick(s.snap, s.intents, s.forces)
	}
	s.publish(s.collectEvents())
	s.perf.Record("publish", time.Since(publishStart))

	if s.snap.Tick > 0 && s.snap.Tick%perfLogEvery == 0 {
		attrs := []any{
			slog.Uint64("tick", s.snap.Tick),
			slog.Int("agents", n),
			slog.Duration("total", s.perf.Total()),
		}
		for _, phase := range s.perf.SortedNames() {
			attrs = append(attrs, slog.Duration(phase, s.perf.Avg(phase)))
		}
		s.log.Info("tick timing", attrs...)
	}

	return nil
}

// computeChunk processes a range of snapshot indices for one worker.
func (s *Scheduler) computeChunk(start, end int, scratch *workerScratch) {
	for i := start; i < end; i++ {
		s.computeAgent(i, scratch)
	}
}

// computeAgent fills the intent and force slots for one agent. A panic in
// the steering math is contained to this agent: it keeps its position and
// coasts at half velocity while every other agent ticks normally.
func (s *Scheduler) computeAgent(i int, scratch *workerScratch) {
	a := &s.snap.Agents[i]
	intent := &s.intents[i]
	forces := &s.forces[i]
	*forces = steering.Forces{}

	// Blocked agents hold position. They stay in the snapshot so moving
	// agents steer around them.
	if a.Status == components.Blocked {
		*intent = world.Intent{Pos: a.Pos}
		return
	}

	defer func() {
		if r := recover(); r != nil {
			*forces = steering.Forces{}
			*intent = world.Intent{Pos: a.Pos, Vel: a.Vel.Scale(0.5), Faulted: true}
		}
	}()

	radius := s.comp.QueryRadius(a.MaxSpeed, a.Radius)
	ctx := steering.NewContext(s.snap, i, radius, scratch.Neighbors)
	scratch.Neighbors = ctx.Neighbors

	f := s.comp.Steer(ctx)
	*forces = f

	pos, vel, acc := integrate(a, f.Total)

	arrived := false
	if !a.Destination.IsZero() && len(ctx.Path) <= 1 && pos.Dist(a.Destination) < s.arriveRadius {
		arrived = true
		vel = vmath.Zero
		acc = vmath.Zero
	}

	*intent = world.Intent{
		Pos:     pos,
		Vel:     vel,
		Acc:     acc,
		Popped:  ctx.Popped,
		Arrived: arrived,
	}
}

// collectEvents scans committed intents for arrivals and faults. The event
// channel is best-effort: a full channel drops the event rather than stall
// the tick.
func (s *Scheduler) collectEvents() []Event {
	var events []Event
	for i := range s.intents {
		intent := &s.intents[i]
		if !intent.Arrived && !intent.Faulted {
			continue
		}
		kind := EventArrived
		if intent.Faulted {
			kind = EventFaulted
			s.log.Warn("agent computation faulted",
				slog.Uint64("agent", s.snap.Agents[i].ID),
				slog.Uint64("tick", s.snap.Tick))
		}
		ev := Event{Tick: s.snap.Tick, AgentID: s.snap.Agents[i].ID, Kind: kind}
		events = append(events, ev)
		select {
		case s.events <- ev:
		default:
			s.log.Warn("event channel full, dropping event",
				slog.Uint64("agent", ev.AgentID))
		}
	}
	return events
}

func (s *Scheduler) publish(events []Event) {
	frame := &Frame{
		Snap:    s.snap,
		Forces:  append([]steering.Forces(nil), s.forces...),
		Intents: append([]world.Intent(nil), s.intents...),
		Events:  events,
		State:   s.state,
		Perf:    s.perf.Snapshot(),
	}

	s.subMu.Lock()
	subs := s.subs
	s.subMu.Unlock()

	for _, ch := range subs {
		sendLatest(ch, frame)
	}
}

// sendLatest delivers the frame without blocking by evicting a stale
// pending frame if the subscriber has not drained its channel.
func sendLatest(ch chan *Frame, f *Frame) {
	for {
		select {
		case ch <- f:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
