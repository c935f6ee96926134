// Package coord is the task layer above the simulation: producer stations
// emit transport orders, a dispatcher assigns them to the nearest idle
// transport, and each unit runs as its own goroutine with a private mailbox.
// Units decide what an agent should do; they never touch another agent's
// state. All navigation writes go through the scheduler's command channel,
// which applies them at a tick boundary.
package coord

import (
	"log/slog"

	"github.com/mkrogh/shopfloor/vmath"
)

// Navigator is the write path into the simulation. Implemented by the
// scheduler.
type Navigator interface {
	SetNavigation(id uint64, dest vmath.Vec2, path []vmath.Vec2) error
}

// Station is a fixed production point on the floor. Orders originate at
// Pos and are delivered to Dropoff.
type Station struct {
	Name    string
	Pos     vmath.Vec2
	Dropoff vmath.Vec2
}

// Order is one unit of transport work.
type Order struct {
	ID      uint64
	Station string
	Pickup  vmath.Vec2
	Dropoff vmath.Vec2
	Created uint64 // tick the order was emitted
}

type unitMsgKind int

const (
	msgAssign unitMsgKind = iota
	msgArrived
)

// unitMsg is what a transport unit receives in its mailbox.
type unitMsg struct {
	kind  unitMsgKind
	order *Order
	pos   vmath.Vec2 // transport's last committed position, set on assign
}

type dispMsgKind int

const (
	dispOrder dispMsgKind = iota
	dispCompleted
	dispAvailable
)

// dispMsg is what the dispatcher receives from its units.
type dispMsg struct {
	kind  dispMsgKind
	unit  uint64
	order *Order
}

func logAttrs(o *Order) []any {
	return []any{
		slog.Uint64("order", o.ID),
		slog.String("station", o.Station),
	}
}
