package sandbox

import (
	"fmt"
	"time"

	"github.com/quantarch/tradesim/pkg/broker"
	"github.com/quantarch/tradesim/pkg/bus"
	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/fees"
	"github.com/quantarch/tradesim/pkg/latency"
	"github.com/quantarch/tradesim/pkg/utility"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

type postFunc func(id bus.EventId, data interface{})

// Engine owns the pending-order queue. Accepted orders wait out their drawn
// latency and resolve against the first tick at or after their due tick.
// Protective stop-loss and take-profit triggers do not pass through the
// queue; they fire on the tick that crosses the level.
type Engine struct {
	caps     broker.Capabilities
	schedule fees.Schedule
	model    *latency.Model
	slippage SlippageHandler
	ttl      int64

	portfolio *Portfolio
	post      postFunc

	pending []*common.PendingOrder
	stats   common.ExecutionStats

	simulationTime time.Time
}

func newEngine(caps broker.Capabilities, schedule fees.Schedule, model *latency.Model, slippage SlippageHandler, ttl int64, portfolio *Portfolio, post postFunc) *Engine {
	return &Engine{
		caps:      caps,
		schedule:  schedule,
		model:     model,
		slippage:  slippage,
		ttl:       ttl,
		portfolio: portfolio,
		post:      post,
	}
}

// Submit validates the order and, if it passes, enqueues it with freshly
// drawn latency. Validation happens in a fixed sequence and a rejection here
// leaves the engine untouched; no latency is drawn for rejected orders.
func (e *Engine) Submit(order common.Order, submitTick int64) common.OrderResult {
	e.stats.OrdersSent++

	spec, err := e.caps.Symbol(order.Symbol)
	if err != nil {
		return e.rejectSubmit(order, common.RejectionSymbolNotFound, fmt.Sprintf("symbol %q not found", order.Symbol))
	}

	if order.Action == common.OrderActionOpen {
		if !spec.TradeAllowed {
			return e.rejectSubmit(order, common.RejectionSymbolNotTradeable, fmt.Sprintf("trading disabled for %s", spec.Name))
		}
		if !e.caps.SupportsOrderKind(order.Kind) {
			return e.rejectSubmit(order, common.RejectionUnsupportedOrderType, fmt.Sprintf("broker does not support %s orders", order.Kind))
		}
		if err := spec.CheckLots(order.Lots); err != nil {
			return e.rejectSubmit(order, common.RejectionInvalidLotSize, err.Error())
		}
	}

	if order.Action == common.OrderActionClose && !order.Lots.IsZero() {
		if order.Lots.IsNeg() || !order.Lots.Mod(spec.VolumeStep).IsZero() {
			return e.rejectSubmit(order, common.RejectionInvalidLotSize, fmt.Sprintf("close volume %s not aligned to step %s", order.Lots, spec.VolumeStep))
		}
	}

	apiDelay, execDelay := e.model.Draw()
	pending := &common.PendingOrder{
		OrderId:    utility.CreateOrderID(),
		Order:      order,
		SubmitTick: submitTick,
		ApiDelay:   apiDelay,
		ExecDelay:  execDelay,
		DueTick:    submitTick + apiDelay + execDelay,
		Status:     common.PendingStatusPending,
		SubmitTime: e.simulationTime,
	}
	e.pending = append(e.pending, pending)

	e.postEvent(bus.OrderAcceptedEvent, common.OrderAccepted{
		OriginalOrder: order,
		OrderId:       pending.OrderId,
		DueTick:       pending.DueTick,
		Source:        componentName,
		ExecutionId:   utility.GetExecutionID(),
		TraceID:       utility.CreateTraceID(),
		TimeStamp:     e.simulationTime,
	})

	return common.OrderResult{OrderId: pending.OrderId}
}

// Cancel removes a still-pending order from the queue.
func (e *Engine) Cancel(orderId utility.OrderID) error {
	for _, pending := range e.pending {
		if pending.OrderId != orderId {
			continue
		}
		pending.Status = common.PendingStatusCancelled
		e.stats.OrdersCancelled++
		e.prune()
		return nil
	}
	return fmt.Errorf("order %s is not pending", orderId)
}

// ModifyLimit rewrites the limit price of a resting limit or stop-limit
// order. The queue slot, latency draw and due tick stay untouched.
func (e *Engine) ModifyLimit(orderId utility.OrderID, price fixed.Point) error {
	for _, pending := range e.pending {
		if pending.OrderId != orderId {
			continue
		}
		if pending.Order.Action != common.OrderActionOpen {
			return fmt.Errorf("order %s is not an open order", orderId)
		}
		if pending.Order.Kind != common.OrderKindLimit && pending.Order.Kind != common.OrderKindStopLimit {
			return fmt.Errorf("order %s has no limit price", orderId)
		}
		pending.Order.Price = price
		return nil
	}
	return fmt.Errorf("order %s is not pending", orderId)
}

// Advance resolves every queued order of the tick's symbol whose due tick
// has been reached. Orders are visited in submission order.
func (e *Engine) Advance(tickIdx int64, tick common.Tick) {
	e.simulationTime = tick.TimeStamp

	resolved := false
	for _, pending := range e.pending {
		if pending.Order.Symbol != tick.Symbol || tickIdx < pending.DueTick {
			continue
		}

		if e.ttl > 0 && tickIdx-pending.SubmitTick > e.ttl {
			pending.Status = common.PendingStatusTimedOut
			e.stats.OrdersTimedOut++
			resolved = true
			continue
		}

		switch pending.Order.Action {
		case common.OrderActionOpen:
			resolved = e.resolveOpen(pending, tickIdx, tick) || resolved
		case common.OrderActionClose:
			e.resolveClose(pending, tickIdx, tick)
			resolved = true
		case common.OrderActionModify:
			e.resolveModify(pending)
			resolved = true
		}
	}

	if resolved {
		e.prune()
	}
}

// SweepProtective closes positions whose stop-loss or take-profit level the
// tick has crossed. These fills are immediate and skip the latency queue.
func (e *Engine) SweepProtective(tickIdx int64, tick common.Tick) {
	for _, position := range e.portfolio.OpenPositions() {
		if position.Symbol != tick.Symbol {
			continue
		}

		marketPrice := tick.Bid
		if position.Side == common.PositionSideShort {
			marketPrice = tick.Ask
		}

		reason := common.CloseReasonNone
		switch position.Side {
		case common.PositionSideLong:
			if !position.StopLoss.IsZero() && marketPrice.Lte(position.StopLoss) {
				reason = common.CloseReasonStopLoss
			} else if !position.TakeProfit.IsZero() && marketPrice.Gte(position.TakeProfit) {
				reason = common.CloseReasonTakeProfit
			}
		case common.PositionSideShort:
			if !position.StopLoss.IsZero() && marketPrice.Gte(position.StopLoss) {
				reason = common.CloseReasonStopLoss
			} else if !position.TakeProfit.IsZero() && marketPrice.Lte(position.TakeProfit) {
				reason = common.CloseReasonTakeProfit
			}
		}

		if reason != common.CloseReasonNone {
			e.closeAtPrice(position.Id, fixed.Zero, marketPrice, reason, tickIdx)
		}
	}
}

// CheckStopOut liquidates open positions oldest first while the margin level
// sits below the stop-out threshold.
func (e *Engine) CheckStopOut(tickIdx int64, level fixed.Point, lastTicks map[string]common.Tick) {
	if level.IsZero() || level.IsNeg() {
		return
	}

	for {
		marginLevel := e.portfolio.MarginLevel()
		if marginLevel.IsZero() || marginLevel.Gte(level) {
			return
		}
		oldest, ok := e.portfolio.OldestOpen()
		if !ok {
			return
		}
		tick, ok := lastTicks[oldest.Symbol]
		if !ok {
			return
		}

		marketPrice := tick.Bid
		if oldest.Side == common.PositionSideShort {
			marketPrice = tick.Ask
		}
		e.closeAtPrice(oldest.Id, fixed.Zero, marketPrice, common.CloseReasonStopOut, tickIdx)
	}
}

// ForceClose ends the scenario: still-pending orders become force-closed and
// every open position is closed at its last seen price.
func (e *Engine) ForceClose(tickIdx int64, lastTicks map[string]common.Tick) {
	for _, pending := range e.pending {
		pending.Status = common.PendingStatusForceClosed
		e.stats.OrdersForceClosed++
	}
	e.pending = nil

	for _, position := range e.portfolio.OpenPositions() {
		tick, ok := lastTicks[position.Symbol]
		if !ok {
			continue
		}
		marketPrice := tick.Bid
		if position.Side == common.PositionSideShort {
			marketPrice = tick.Ask
		}
		e.closeAtPrice(position.Id, fixed.Zero, marketPrice, common.CloseReasonScenarioEnd, tickIdx)
	}
}

func (e *Engine) PendingOrders() []common.PendingOrder {
	out := make([]common.PendingOrder, 0, len(e.pending))
	for _, pending := range e.pending {
		out = append(out, *pending)
	}
	return out
}

func (e *Engine) HasPendingOrders() bool {
	return len(e.pending) > 0
}

// IsPendingClose reports whether a close for the position is already queued.
func (e *Engine) IsPendingClose(id common.PositionId) bool {
	for _, pending := range e.pending {
		if pending.Order.Action == common.OrderActionClose && pending.Order.PositionId == id {
			return true
		}
	}
	return false
}

func (e *Engine) Stats() common.ExecutionStats {
	return e.stats
}

func (e *Engine) resolveOpen(pending *common.PendingOrder, tickIdx int64, tick common.Tick) bool {
	fillPrice, triggered := e.openFillPrice(pending, tick)
	if !triggered {
		return false
	}

	spec, err := e.caps.Symbol(pending.Order.Symbol)
	if err != nil {
		e.rejectPending(pending, common.RejectionSymbolNotFound, err.Error())
		return true
	}

	required := e.portfolio.RequiredMargin(spec, pending.Order.Lots, fillPrice)
	if e.portfolio.FreeMargin().Lt(required) {
		e.rejectPending(pending, common.RejectionInsufficientMargin,
			fmt.Sprintf("required margin %s exceeds free margin %s", required, e.portfolio.FreeMargin()))
		return true
	}

	entryFees := []common.Fee{fees.SpreadFee(spec, tick, pending.Order.Lots)}
	if !e.schedule.CommissionPerLot.IsZero() {
		entryFees = append(entryFees, e.schedule.CommissionFee(pending.Order.Lots))
	}
	if !e.schedule.MakerTakerRate(pending.Order.Kind).IsZero() {
		entryFees = append(entryFees, e.schedule.MakerTakerFee(pending.Order.Kind, spec, fillPrice, pending.Order.Lots))
	}

	position := e.portfolio.Open(pending.Order, spec, fillPrice, entryFees, tickIdx)
	pending.Status = common.PendingStatusFilled
	e.stats.OrdersExecuted++

	e.postEvent(bus.OrderFilledEvent, common.OrderFilled{
		OriginalOrder: pending.Order,
		OrderId:       pending.OrderId,
		PositionId:    position.Id,
		FillPrice:     fillPrice,
		FillLots:      pending.Order.Lots,
		FillTick:      tickIdx,
		Source:        componentName,
		ExecutionId:   utility.GetExecutionID(),
		TraceID:       utility.CreateTraceID(),
		TimeStamp:     e.simulationTime,
	})
	e.postEvent(bus.PositionOpenedEvent, *position)
	return true
}

func (e *Engine) resolveClose(pending *common.PendingOrder, tickIdx int64, tick common.Tick) {
	position, err := e.portfolio.Position(pending.Order.PositionId)
	if err != nil {
		e.rejectPending(pending, common.RejectionBrokerError, err.Error())
		return
	}

	marketPrice := tick.Bid
	if position.Side == common.PositionSideShort {
		marketPrice = tick.Ask
	}
	marketPrice = e.applySlippage(marketPrice, position.Side == common.PositionSideShort, pending.Order, tick)

	record, err := e.closeAtPrice(position.Id, pending.Order.Lots, marketPrice, common.CloseReasonManual, tickIdx)
	if err != nil {
		e.rejectPending(pending, common.RejectionBrokerError, err.Error())
		return
	}

	pending.Status = common.PendingStatusFilled
	e.stats.OrdersExecuted++

	e.postEvent(bus.OrderFilledEvent, common.OrderFilled{
		OriginalOrder: pending.Order,
		OrderId:       pending.OrderId,
		PositionId:    position.Id,
		FillPrice:     marketPrice,
		FillLots:      record.Lots,
		FillTick:      tickIdx,
		Source:        componentName,
		ExecutionId:   utility.GetExecutionID(),
		TraceID:       utility.CreateTraceID(),
		TimeStamp:     e.simulationTime,
	})
}

func (e *Engine) resolveModify(pending *common.PendingOrder) {
	err := e.portfolio.Modify(pending.Order.PositionId, pending.Order.StopLoss, pending.Order.TakeProfit)
	if err != nil {
		e.rejectPending(pending, common.RejectionBrokerError, err.Error())
		return
	}

	pending.Status = common.PendingStatusFilled
	e.stats.OrdersExecuted++

	if position, err := e.portfolio.Position(pending.Order.PositionId); err == nil {
		e.postEvent(bus.PositionUpdatedEvent, position)
	}
}

// openFillPrice applies the trigger rule for the order kind and returns the
// execution price when the order fires on this tick.
func (e *Engine) openFillPrice(pending *common.PendingOrder, tick common.Tick) (fixed.Point, bool) {
	order := pending.Order
	buy := order.Side == common.OrderSideBuy

	marketPrice := tick.Bid
	if buy {
		marketPrice = tick.Ask
	}

	switch order.Kind {
	case common.OrderKindMarket:
		return e.applySlippage(marketPrice, buy, order, tick), true

	case common.OrderKindLimit:
		if buy && marketPrice.Lte(order.Price) {
			return marketPrice, true
		}
		if !buy && marketPrice.Gte(order.Price) {
			return marketPrice, true
		}
		return fixed.Zero, false

	case common.OrderKindStop:
		if buy && marketPrice.Gte(order.StopPrice) {
			return e.applySlippage(marketPrice, buy, order, tick), true
		}
		if !buy && marketPrice.Lte(order.StopPrice) {
			return e.applySlippage(marketPrice, buy, order, tick), true
		}
		return fixed.Zero, false

	case common.OrderKindStopLimit:
		if !pending.Armed {
			crossed := (buy && marketPrice.Gte(order.StopPrice)) ||
				(!buy && marketPrice.Lte(order.StopPrice))
			if !crossed {
				return fixed.Zero, false
			}
			pending.Armed = true
		}
		if buy && marketPrice.Lte(order.Price) {
			return marketPrice, true
		}
		if !buy && marketPrice.Gte(order.Price) {
			return marketPrice, true
		}
		return fixed.Zero, false
	}

	return fixed.Zero, false
}

// applySlippage moves the price against the taker by the configured offset.
func (e *Engine) applySlippage(price fixed.Point, buy bool, order common.Order, tick common.Tick) fixed.Point {
	if e.slippage == nil {
		return price
	}
	offset := e.slippage(order, tick)
	if buy {
		return price.Add(offset)
	}
	return price.Sub(offset)
}

func (e *Engine) closeAtPrice(id common.PositionId, lots, price fixed.Point, reason common.CloseReason, tickIdx int64) (common.TradeRecord, error) {
	var exitFees []common.Fee
	if !e.schedule.CommissionPerLot.IsZero() {
		closedLots := lots
		if closedLots.IsZero() {
			if position, err := e.portfolio.Position(id); err == nil {
				closedLots = position.Lots
			}
		}
		exitFees = append(exitFees, e.schedule.CommissionFee(closedLots))
	}

	var record common.TradeRecord
	var err error
	if lots.IsZero() {
		record, err = e.portfolio.Close(id, price, exitFees, reason, tickIdx)
	} else {
		record, err = e.portfolio.PartialClose(id, lots, price, exitFees, reason, tickIdx)
	}
	if err != nil {
		return common.TradeRecord{}, err
	}

	if record.CloseType == common.CloseTypeFull {
		e.postEvent(bus.PositionClosedEvent, e.closedView(record))
	} else if position, perr := e.portfolio.Position(id); perr == nil {
		e.postEvent(bus.PositionUpdatedEvent, position)
	}
	e.postEvent(bus.TradeEvent, record)
	e.postEvent(bus.BalanceEvent, common.Balance{
		Source:      componentName,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   e.simulationTime,
		Value:       e.portfolio.Balance(),
	})
	return record, nil
}

// closedView rebuilds a terminal position snapshot from the trade record for
// the position-closed event.
func (e *Engine) closedView(record common.TradeRecord) common.Position {
	return common.Position{
		Id:           record.PositionId,
		Status:       common.PositionStatusClosed,
		Side:         record.Side,
		OriginalLots: record.Lots,
		EntryPrice:   record.EntryPrice,
		EntryTime:    record.EntryTime,
		EntryTick:    record.EntryTick,
		EntryKind:    record.EntryKind,
		Fees:         record.Fees,
		CurrentPrice: record.ExitPrice,
		GrossProfit:  record.GrossProfit,
		NetProfit:    record.NetProfit,
		CloseReason:  record.CloseReason,
		Source:       componentName,
		Symbol:       record.Symbol,
		ExecutionID:  utility.GetExecutionID(),
		TraceID:      utility.CreateTraceID(),
		TimeStamp:    e.simulationTime,
	}
}

func (e *Engine) rejectSubmit(order common.Order, reason common.RejectionReason, message string) common.OrderResult {
	e.stats.OrdersRejected++
	e.postEvent(bus.OrderRejectedEvent, common.OrderRejected{
		OriginalOrder: order,
		Reason:        reason,
		Message:       message,
		Source:        componentName,
		ExecutionId:   utility.GetExecutionID(),
		TraceID:       utility.CreateTraceID(),
		TimeStamp:     e.simulationTime,
	})
	return common.OrderResult{Rejected: true, Reason: reason, Message: message}
}

func (e *Engine) rejectPending(pending *common.PendingOrder, reason common.RejectionReason, message string) {
	pending.Status = common.PendingStatusRejected
	pending.Reason = reason
	e.stats.OrdersRejected++
	e.postEvent(bus.OrderRejectedEvent, common.OrderRejected{
		OriginalOrder: pending.Order,
		OrderId:       pending.OrderId,
		Reason:        reason,
		Message:       message,
		Source:        componentName,
		ExecutionId:   utility.GetExecutionID(),
		TraceID:       utility.CreateTraceID(),
		TimeStamp:     e.simulationTime,
	})
}

func (e *Engine) prune() {
	kept := e.pending[:0]
	for _, pending := range e.pending {
		if !pending.Status.Terminal() {
			kept = append(kept, pending)
		}
	}
	e.pending = kept
}

func (e *Engine) postEvent(id bus.EventId, data interface{}) {
	if e.post != nil {
		e.post(id, data)
	}
}
