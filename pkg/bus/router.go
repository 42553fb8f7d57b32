package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantarch/tradesim/pkg/common"
)

type EventId uint8

const (
	TickEvent EventId = iota
	OrderEvent
	OrderAcceptedEvent
	OrderRejectedEvent
	OrderFilledEvent
	PositionOpenedEvent
	PositionUpdatedEvent
	PositionClosedEvent
	TradeEvent
	BalanceEvent
	EquityEvent
)

type event struct {
	id   EventId
	data interface{}
}

// Router dispatches posted events to the registered handlers on a single
// goroutine, so handler execution order is the posting order. Backtests rely
// on this for determinism.
type Router struct {
	events chan event

	TickHandler            TickEventHandler
	OrderHandler           OrderEventHandler
	OrderAcceptedHandler   OrderAcceptedEventHandler
	OrderRejectedHandler   OrderRejectedEventHandler
	OrderFilledHandler     OrderFilledEventHandler
	PositionOpenedHandler  PositionOpenedEventHandler
	PositionUpdatedHandler PositionUpdatedEventHandler
	PositionClosedHandler  PositionClosedEventHandler
	TradeHandler           TradeEventHandler
	BalanceHandler         BalanceEventHandler
	EquityHandler          EquityEventHandler

	runTime       time.Duration
	postCount     uint64
	droppedEvents uint64
	dispatchCount uint64
	dispatchFails uint64
}

func NewRouter(eventCapacity int) *Router {
	return &Router{
		events: make(chan event, eventCapacity),
	}
}

func (r *Router) Post(id EventId, data interface{}) error {
	select {
	case r.events <- event{id, data}:
		r.postCount++
		return nil
	default:
		r.droppedEvents++
		return errors.New("event capacity reached")
	}
}

// Exec drains and dispatches events until the context is cancelled.
func (r *Router) Exec(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	go func() {
		r.resetStatistics()
		start := time.Now()
		defer func() {
			r.runTime += time.Since(start)
		}()

		for {
			select {
			case <-ctx.Done():
				done <- ctx.Err()
				return
			case ev := <-r.events:
				r.dispatchCount++
				if err := r.dispatch(ctx, ev); err != nil {
					r.dispatchFails++
					slog.Warn("dispatch failed", "error", err, "event", ev)
				}
			}
		}
	}()

	return done
}

// ExecLoop drains pending events and calls doOnceCb whenever the queue is
// empty. The callback usually feeds the next tick; returning an error (ErrEof
// from a data source) ends the loop.
func (r *Router) ExecLoop(ctx context.Context, doOnceCb func() error) <-chan error {
	done := make(chan error, 1)

	go func() {
		r.resetStatistics()
		start := time.Now()
		defer func() {
			r.runTime += time.Since(start)
		}()

		for {
			select {
			case <-ctx.Done():
				done <- ctx.Err()
				return
			case ev := <-r.events:
				r.dispatchCount++
				if err := r.dispatch(ctx, ev); err != nil {
					r.dispatchFails++
					slog.Warn("dispatch failed", "error", err, "event", ev)
				}
			default:
				if err := doOnceCb(); err != nil {
					done <- err
					return
				}
			}
		}
	}()

	return done
}

func (r *Router) Statistics() Statistics {
	return Statistics{
		RunTime:       r.runTime,
		PostCount:     r.postCount,
		DroppedEvents: r.droppedEvents,
		DispatchCount: r.dispatchCount,
		DispatchFails: r.dispatchFails,
		Throughput:    float64(r.postCount) / r.runTime.Seconds(),
	}
}

func (r *Router) PrintStatistics() {
	r.Statistics().Print()
}

func (r *Router) resetStatistics() {
	r.runTime = 0
	r.postCount = 0
	r.droppedEvents = 0
	r.dispatchCount = 0
	r.dispatchFails = 0
}

func (r *Router) dispatch(ctx context.Context, ev event) error {
	switch ev.id {
	case TickEvent:
		tick, ok := ev.data.(common.Tick)
		if !ok {
			return errors.New("invalid type assertion for tick event")
		}
		if r.TickHandler != nil {
			r.TickHandler(ctx, tick)
		}
	case OrderEvent:
		order, ok := ev.data.(common.Order)
		if !ok {
			return errors.New("invalid type assertion for order event")
		}
		if r.OrderHandler != nil {
			r.OrderHandler(ctx, order)
		}
	case OrderAcceptedEvent:
		accepted, ok := ev.data.(common.OrderAccepted)
		if !ok {
			return errors.New("invalid type assertion for order accepted event")
		}
		if r.OrderAcceptedHandler != nil {
			r.OrderAcceptedHandler(ctx, accepted)
		}
	case OrderRejectedEvent:
		rejected, ok := ev.data.(common.OrderRejected)
		if !ok {
			return errors.New("invalid type assertion for order rejected event")
		}
		if r.OrderRejectedHandler != nil {
			r.OrderRejectedHandler(ctx, rejected)
		}
	case OrderFilledEvent:
		filled, ok := ev.data.(common.OrderFilled)
		if !ok {
			return errors.New("invalid type assertion for order filled event")
		}
		if r.OrderFilledHandler != nil {
			r.OrderFilledHandler(ctx, filled)
		}
	case PositionOpenedEvent:
		pos, ok := ev.data.(common.Position)
		if !ok {
			return errors.New("invalid type assertion for position opened event")
		}
		if r.PositionOpenedHandler != nil {
			r.PositionOpenedHandler(ctx, pos)
		}
	case PositionUpdatedEvent:
		pos, ok := ev.data.(common.Position)
		if !ok {
			return errors.New("invalid type assertion for position updated event")
		}
		if r.PositionUpdatedHandler != nil {
			r.PositionUpdatedHandler(ctx, pos)
		}
	case PositionClosedEvent:
		pos, ok := ev.data.(common.Position)
		if !ok {
			return errors.New("invalid type assertion for position closed event")
		}
		if r.PositionClosedHandler != nil {
			r.PositionClosedHandler(ctx, pos)
		}
	case TradeEvent:
		trade, ok := ev.data.(common.TradeRecord)
		if !ok {
			return errors.New("invalid type assertion for trade event")
		}
		if r.TradeHandler != nil {
			r.TradeHandler(ctx, trade)
		}
	case BalanceEvent:
		balance, ok := ev.data.(common.Balance)
		if !ok {
			return errors.New("invalid type assertion for balance event")
		}
		if r.BalanceHandler != nil {
			r.BalanceHandler(ctx, balance)
		}
	case EquityEvent:
		equity, ok := ev.data.(common.Equity)
		if !ok {
			return errors.New("invalid type assertion for equity event")
		}
		if r.EquityHandler != nil {
			r.EquityHandler(ctx, equity)
		}
	default:
		return fmt.Errorf("unsupported event id: %v", ev.id)
	}
	return nil
}
