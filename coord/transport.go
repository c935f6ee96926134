package coord

import (
	"context"
	"log/slog"

	"github.com/mkrogh/shopfloor/route"
	"github.com/mkrogh/shopfloor/vmath"
)

type transportPhase int

const (
	phaseIdle transportPhase = iota
	phaseToPickup
	phaseToDropoff
)

// TransportUnit owns the task state of one transport agent. It reacts to
// assignments and arrival notifications from its mailbox and submits
// navigation updates for its own agent only. Each unit has a private route
// planner because planner scratch state is not goroutine-safe.
type TransportUnit struct {
	id      uint64
	nav     Navigator
	planner *route.Planner
	mailbox chan unitMsg
	out     chan<- dispMsg
	log     *slog.Logger
}

func newTransportUnit(id uint64, nav Navigator, planner *route.Planner, out chan<- dispMsg, mailboxSize int, log *slog.Logger) *TransportUnit {
	return &TransportUnit{
		id:      id,
		nav:     nav,
		planner: planner,
		mailbox: make(chan unitMsg, mailboxSize),
		out:     out,
		log:     log.With(slog.Uint64("transport", id)),
	}
}

// run drains the mailbox until the context is cancelled. Task state lives
// entirely on this goroutine.
func (t *TransportUnit) run(ctx context.Context) {
	var current *Order
	phase := phaseIdle

	for {
		select {
		case <-ctx.Done():
			return

		case m := <-t.mailbox:
			switch m.kind {
			case msgAssign:
				current = m.order
				phase = phaseToPickup
				t.log.Info("order assigned", logAttrs(current)...)
				t.goTo(m.pos, m.order.Pickup)

			case msgArrived:
				switch phase {
				case phaseToPickup:
					phase = phaseToDropoff
					t.log.Info("picked up", logAttrs(current)...)
					t.goTo(current.Pickup, current.Dropoff)

				case phaseToDropoff:
					t.log.Info("delivered", logAttrs(current)...)
					t.send(ctx, dispMsg{kind: dispCompleted, unit: t.id, order: current})
					current = nil
					phase = phaseIdle
					t.send(ctx, dispMsg{kind: dispAvailable, unit: t.id})

				case phaseIdle:
					// Arrival without an order, e.g. from a blueprint
					// path. Report availability so work can be assigned.
					t.send(ctx, dispMsg{kind: dispAvailable, unit: t.id})
				}
			}
		}
	}
}

// goTo plans a route and submits it. Falls back to a direct leg when no
// planner is configured or no route exists; the steering layer still
// avoids dynamic obstacles on the way.
func (t *TransportUnit) goTo(from, dest vmath.Vec2) {
	path := []vmath.Vec2{dest}
	if t.planner != nil {
		if planned := t.planner.FindPath(from, dest); len(planned) > 0 {
			path = planned
			dest = planned[len(planned)-1]
		}
	}
	if err := t.nav.SetNavigation(t.id, dest, path); err != nil {
		t.log.Error("navigation update failed", slog.Any("error", err))
	}
}

func (t *TransportUnit) send(ctx context.Context, m dispMsg) {
	select {
	case t.out <- m:
	case <-ctx.Done():
	}
}
