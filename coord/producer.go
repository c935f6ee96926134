package coord

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// orderSeq numbers orders across all producers.
var orderSeq atomic.Uint64

// ProducerUnit emits a transport order from its station every period ticks.
// It stands in for an external production system; the dispatcher feeds it
// committed tick numbers through its mailbox.
type ProducerUnit struct {
	station Station
	period  uint64
	mailbox chan uint64
	out     chan<- dispMsg
	log     *slog.Logger
}

func newProducerUnit(station Station, period int, out chan<- dispMsg, mailboxSize int, log *slog.Logger) *ProducerUnit {
	return &ProducerUnit{
		station: station,
		period:  uint64(period),
		mailbox: make(chan uint64, mailboxSize),
		out:     out,
		log:     log.With(slog.String("station", station.Name)),
	}
}

func (p *ProducerUnit) run(ctx context.Context) {
	// Ticks arrive best-effort; emission is due-based rather than modular
	// so dropped ticks delay an order instead of skipping it.
	var nextDue uint64 = p.period

	for {
		select {
		case <-ctx.Done():
			return

		case tick := <-p.mailbox:
			if tick < nextDue {
				continue
			}
			nextDue = tick + p.period

			order := &Order{
				ID:      orderSeq.Add(1),
				Station: p.station.Name,
				Pickup:  p.station.Pos,
				Dropoff: p.station.Dropoff,
				Created: tick,
			}
			p.log.Info("order emitted", logAttrs(order)...)

			select {
			case p.out <- dispMsg{kind: dispOrder, order: order}:
			case <-ctx.Done():
				return
			}
		}
	}
}
