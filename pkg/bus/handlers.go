package bus

import (
	"context"

	"github.com/quantarch/tradesim/pkg/common"
)

type EventHandler[T any] = func(context.Context, T)

type TickEventHandler EventHandler[common.Tick]
type OrderEventHandler EventHandler[common.Order]
type OrderAcceptedEventHandler EventHandler[common.OrderAccepted]
type OrderRejectedEventHandler EventHandler[common.OrderRejected]
type OrderFilledEventHandler EventHandler[common.OrderFilled]
type PositionOpenedEventHandler EventHandler[common.Position]
type PositionUpdatedEventHandler EventHandler[common.Position]
type PositionClosedEventHandler EventHandler[common.Position]
type TradeEventHandler EventHandler[common.TradeRecord]
type BalanceEventHandler EventHandler[common.Balance]
type EquityEventHandler EventHandler[common.Equity]

// MergeHandlers fans one event out to several handlers in declaration order.
func MergeHandlers[T any](handlers ...EventHandler[T]) EventHandler[T] {
	return func(ctx context.Context, event T) {
		for _, handler := range handlers {
			handler(ctx, event)
		}
	}
}
