package coord

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/mkrogh/shopfloor/config"
	"github.com/mkrogh/shopfloor/route"
	"github.com/mkrogh/shopfloor/sim"
	"github.com/mkrogh/shopfloor/vmath"
)

// Dispatcher routes orders from producers to transports. It is the only
// goroutine that sees the whole task picture: pending orders, which
// transports are idle, and their last committed positions. Assignment is
// nearest idle transport to the pickup point, lowest agent ID on ties.
type Dispatcher struct {
	nav    Navigator
	events <-chan sim.Event
	frames <-chan *sim.Frame
	grid   *route.NavGrid
	log    *slog.Logger

	mailboxSize int
	mailbox     chan dispMsg

	transports map[uint64]*TransportUnit
	producers  []*ProducerUnit

	idle      map[uint64]bool
	positions map[uint64]vmath.Vec2
	pending   []*Order

	completed   atomic.Uint64
	completions chan Order

	wg sync.WaitGroup
}

// NewDispatcher wires the dispatcher to the scheduler's event and frame
// streams. grid may be nil; transports then navigate point-to-point.
// Register units with AddTransport and AddProducer before Run.
func NewDispatcher(nav Navigator, events <-chan sim.Event, frames <-chan *sim.Frame, grid *route.NavGrid, cfg *config.CoordinationConfig, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		nav:         nav,
		events:      events,
		frames:      frames,
		grid:        grid,
		log:         log,
		mailboxSize: cfg.MailboxSize,
		mailbox:     make(chan dispMsg, cfg.MailboxSize),
		transports:  make(map[uint64]*TransportUnit),
		idle:        make(map[uint64]bool),
		positions:   make(map[uint64]vmath.Vec2),
		completions: make(chan Order, cfg.MailboxSize),
	}
}

// AddTransport registers the agent as a transport unit. It starts idle.
func (d *Dispatcher) AddTransport(id uint64) {
	var planner *route.Planner
	if d.grid != nil {
		planner = route.NewPlanner(d.grid)
	}
	d.transports[id] = newTransportUnit(id, d.nav, planner, d.mailbox, d.mailboxSize, d.log)
	d.idle[id] = true
}

// AddProducer registers a producer station emitting an order every period
// ticks.
func (d *Dispatcher) AddProducer(station Station, period int) {
	d.producers = append(d.producers, newProducerUnit(station, period, d.mailbox, d.mailboxSize, d.log))
}

// Completions exposes delivered orders, best-effort.
func (d *Dispatcher) Completions() <-chan Order { return d.completions }

// Completed returns the number of delivered orders so far.
func (d *Dispatcher) Completed() uint64 { return d.completed.Load() }

// Run starts every unit goroutine and processes messages until the context
// is cancelled. Mailbox sends from the dispatcher are non-blocking so two
// full mailboxes can never deadlock against each other; a dropped tick or
// assignment is retried on the next frame.
func (d *Dispatcher) Run(ctx context.Context) {
	for _, t := range d.transports {
		t := t
		d.wg.Add(1)
		go func() { defer d.wg.Done(); t.run(ctx) }()
	}
	for _, p := range d.producers {
		p := p
		d.wg.Add(1)
		go func() { defer d.wg.Done(); p.run(ctx) }()
	}
	defer d.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("dispatcher stopped",
				slog.Uint64("completed", d.completed.Load()),
				slog.Int("pending", len(d.pending)))
			return

		case ev := <-d.events:
			if ev.Kind != sim.EventArrived {
				continue
			}
			t, ok := d.transports[ev.AgentID]
			if !ok {
				continue
			}
			select {
			case t.mailbox <- unitMsg{kind: msgArrived}:
			default:
				d.log.Warn("transport mailbox full, dropping arrival",
					slog.Uint64("transport", ev.AgentID))
			}

		case fr := <-d.frames:
			for i := range fr.Snap.Agents {
				a := &fr.Snap.Agents[i]
				d.positions[a.ID] = a.Pos
			}
			for _, p := range d.producers {
				select {
				case p.mailbox <- fr.Snap.Tick:
				default:
				}
			}
			d.assign()

		case m := <-d.mailbox:
			switch m.kind {
			case dispOrder:
				d.pending = append(d.pending, m.order)
				d.assign()
			case dispCompleted:
				d.completed.Add(1)
				select {
				case d.completions <- *m.order:
				default:
				}
			case dispAvailable:
				d.idle[m.unit] = true
				d.assign()
			}
		}
	}
}

// assign matches pending orders to idle transports, oldest order first.
func (d *Dispatcher) assign() {
	for len(d.pending) > 0 {
		order := d.pending[0]
		id, ok := d.nearestIdle(order.Pickup)
		if !ok {
			return
		}
		t := d.transports[id]
		select {
		case t.mailbox <- unitMsg{kind: msgAssign, order: order, pos: d.positions[id]}:
			d.idle[id] = false
			d.pending = d.pending[1:]
		default:
			// Mailbox full; leave the order queued and retry later.
			return
		}
	}
}

func (d *Dispatcher) nearestIdle(pickup vmath.Vec2) (uint64, bool) {
	ids := make([]uint64, 0, len(d.idle))
	for id, free := range d.idle {
		if free {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, false
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	best := ids[0]
	bestDist := d.positions[best].DistSq(pickup)
	for _, id := range ids[1:] {
		if dist := d.positions[id].DistSq(pickup); dist < bestDist {
			best, bestDist = id, dist
		}
	}
	return best, true
}
