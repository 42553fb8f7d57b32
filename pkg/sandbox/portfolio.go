package sandbox

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/quantarch/tradesim/pkg/broker"
	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/fees"
	"github.com/quantarch/tradesim/pkg/utility"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

// Portfolio is the ledger of positions and account state for one scenario.
// All mutations happen on the simulator's tick loop, so no locking is
// involved; sharing a Portfolio between scenarios breaks reproducibility.
type Portfolio struct {
	caps     broker.Capabilities
	schedule fees.Schedule
	rates    RateProvider

	balance fixed.Point
	equity  fixed.Point

	positionIdCounter common.PositionId
	open              []*common.Position
	records           []common.TradeRecord

	swapNights map[common.PositionId]int64

	maxEquity   fixed.Point
	maxDrawdown fixed.Point

	simulationTime time.Time
}

func NewPortfolio(caps broker.Capabilities, schedule fees.Schedule, startBalance fixed.Point) *Portfolio {
	return &Portfolio{
		caps:       caps,
		schedule:   schedule,
		balance:    startBalance,
		equity:     startBalance,
		maxEquity:  startBalance,
		swapNights: make(map[common.PositionId]int64),
	}
}

// RequiredMargin is the account-currency margin locked by a fill of the
// given size at the given price.
func (p *Portfolio) RequiredMargin(spec broker.SymbolSpec, lots, price fixed.Point) fixed.Point {
	return lots.Mul(spec.ContractSize).Mul(price).Div(p.caps.Leverage())
}

// Open books a new position from a filled open order. Margin sufficiency has
// already been checked by the execution engine.
func (p *Portfolio) Open(order common.Order, spec broker.SymbolSpec, fillPrice fixed.Point, entryFees []common.Fee, fillTick int64) *common.Position {
	side := common.PositionSideLong
	if order.Side == common.OrderSideSell {
		side = common.PositionSideShort
	}

	p.positionIdCounter++
	position := &common.Position{
		Id:           p.positionIdCounter,
		Status:       common.PositionStatusOpen,
		Side:         side,
		Lots:         order.Lots,
		OriginalLots: order.Lots,
		EntryPrice:   fillPrice,
		EntryTime:    p.simulationTime,
		EntryTick:    fillTick,
		EntryKind:    order.Kind,
		StopLoss:     order.StopLoss,
		TakeProfit:   order.TakeProfit,
		Fees:         entryFees,
		CurrentPrice: fillPrice,
		Margin:       p.RequiredMargin(spec, order.Lots, fillPrice),

		Source:        componentName,
		Symbol:        spec.Name,
		ExecutionID:   utility.GetExecutionID(),
		TraceID:       utility.CreateTraceID(),
		OrderTraceIDs: []utility.TraceID{order.TraceID},
		TimeStamp:     p.simulationTime,
	}

	p.recalcProfit(position, fillPrice)
	p.open = append(p.open, position)
	return position
}

// Close fully closes a position and returns the terminal trade record.
// Closing an unknown id is a typed business failure, not a panic.
func (p *Portfolio) Close(id common.PositionId, exitPrice fixed.Point, exitFees []common.Fee, reason common.CloseReason, closeTick int64) (common.TradeRecord, error) {
	position, err := p.position(id)
	if err != nil {
		return common.TradeRecord{}, err
	}
	return p.closeLots(position, position.Lots, exitPrice, exitFees, reason, closeTick, common.CloseTypeFull)
}

// PartialClose closes part of a position. The remainder keeps its id and a
// pro-rated share of the accumulated fees; closing everything degenerates to
// a full close.
func (p *Portfolio) PartialClose(id common.PositionId, lots, exitPrice fixed.Point, exitFees []common.Fee, reason common.CloseReason, closeTick int64) (common.TradeRecord, error) {
	position, err := p.position(id)
	if err != nil {
		return common.TradeRecord{}, err
	}
	if lots.Lte(fixed.Zero) || lots.Gt(position.Lots) {
		return common.TradeRecord{}, fmt.Errorf("cannot close %s lots of position %d holding %s", lots, id, position.Lots)
	}
	closeType := common.CloseTypePartial
	if lots.Eq(position.Lots) {
		closeType = common.CloseTypeFull
	}
	return p.closeLots(position, lots, exitPrice, exitFees, reason, closeTick, closeType)
}

// Modify replaces the protective levels of an open position.
func (p *Portfolio) Modify(id common.PositionId, stopLoss, takeProfit fixed.Point) error {
	position, err := p.position(id)
	if err != nil {
		return err
	}
	position.StopLoss = stopLoss
	position.TakeProfit = takeProfit
	return nil
}

// UpdateOnTick revalues every position of the tick's symbol, accrues swap
// nights, and refreshes equity and the drawdown high-water mark.
func (p *Portfolio) UpdateOnTick(tick common.Tick) []common.Position {
	p.simulationTime = tick.TimeStamp

	var updated []common.Position
	for _, position := range p.open {
		if position.Symbol != tick.Symbol {
			continue
		}

		p.accrueSwap(position)

		closePrice := tick.Bid
		if position.Side == common.PositionSideShort {
			closePrice = tick.Ask
		}
		p.recalcProfit(position, closePrice)
		position.TimeStamp = p.simulationTime
		updated = append(updated, *position)
	}

	p.recalcEquity()
	return updated
}

// OldestOpen returns the open position with the earliest entry, the one a
// FIFO stop-out liquidates first.
func (p *Portfolio) OldestOpen() (common.Position, bool) {
	if len(p.open) == 0 {
		return common.Position{}, false
	}
	return *p.open[0], true
}

func (p *Portfolio) Position(id common.PositionId) (common.Position, error) {
	position, err := p.position(id)
	if err != nil {
		return common.Position{}, err
	}
	return *position, nil
}

func (p *Portfolio) OpenPositions() []common.Position {
	out := make([]common.Position, 0, len(p.open))
	for _, position := range p.open {
		out = append(out, *position)
	}
	return out
}

func (p *Portfolio) Records() []common.TradeRecord {
	out := make([]common.TradeRecord, len(p.records))
	copy(out, p.records)
	return out
}

func (p *Portfolio) MarginUsed() fixed.Point {
	total := fixed.Zero
	for _, position := range p.open {
		total = total.Add(position.Margin)
	}
	return total
}

func (p *Portfolio) FreeMargin() fixed.Point {
	return p.equity.Sub(p.MarginUsed())
}

func (p *Portfolio) Balance() fixed.Point { return p.balance }
func (p *Portfolio) Equity() fixed.Point  { return p.equity }

// MarginLevel is equity over used margin in percent, zero when flat.
func (p *Portfolio) MarginLevel() fixed.Point {
	marginUsed := p.MarginUsed()
	if marginUsed.IsZero() {
		return fixed.Zero
	}
	return p.equity.Div(marginUsed).Mul(fixed.Hundred)
}

func (p *Portfolio) AccountInfo() common.AccountSnapshot {
	return common.AccountSnapshot{
		Balance:     p.balance,
		Equity:      p.equity,
		MarginUsed:  p.MarginUsed(),
		FreeMargin:  p.FreeMargin(),
		MarginLevel: p.MarginLevel(),
		TimeStamp:   p.simulationTime,
	}
}

func (p *Portfolio) position(id common.PositionId) (*common.Position, error) {
	for _, position := range p.open {
		if position.Id == id {
			return position, nil
		}
	}
	return nil, fmt.Errorf("position %d not found", id)
}

func (p *Portfolio) closeLots(position *common.Position, lots, exitPrice fixed.Point, exitFees []common.Fee, reason common.CloseReason, closeTick int64, closeType common.CloseType) (common.TradeRecord, error) {
	spec, err := p.caps.Symbol(position.Symbol)
	if err != nil {
		return common.TradeRecord{}, err
	}

	fraction := lots.Div(position.Lots)
	full := closeType == common.CloseTypeFull

	// Split the accumulated fee history between the closed slice and the
	// remainder; decimal subtraction keeps the split exact. Deferred fees
	// (swap) settle with the portion being closed.
	closedFees := make([]common.Fee, 0, len(position.Fees)+len(exitFees))
	remainderFees := make([]common.Fee, 0, len(position.Fees))
	for _, fee := range position.Fees {
		if full {
			fee.Status = common.FeeStatusApplied
			closedFees = append(closedFees, fee)
			continue
		}
		closedAmount := fee.Amount.Mul(fraction)
		closedFees = append(closedFees, common.Fee{Type: fee.Type, Amount: closedAmount, Status: common.FeeStatusApplied})
		remainderFees = append(remainderFees, common.Fee{Type: fee.Type, Amount: fee.Amount.Sub(closedAmount), Status: fee.Status})
	}
	closedFees = append(closedFees, exitFees...)

	gross := p.grossProfit(position, spec, exitPrice, lots)
	net := gross.Sub(common.SumFees(closedFees))

	record := common.TradeRecord{
		PositionId:   position.Id,
		Side:         position.Side,
		Lots:         lots,
		EntryPrice:   position.EntryPrice,
		ExitPrice:    exitPrice,
		EntryTime:    position.EntryTime,
		ExitTime:     p.simulationTime,
		EntryTick:    position.EntryTick,
		ExitTick:     closeTick,
		Digits:       spec.Digits,
		TickValue:    spec.TickValue(),
		ContractSize: spec.ContractSize,
		Fees:         closedFees,
		GrossProfit:  gross,
		NetProfit:    net,
		CloseType:    closeType,
		CloseReason:  reason,
		EntryKind:    position.EntryKind,
		Currency:     p.caps.Currency(),

		Source:      componentName,
		Symbol:      position.Symbol,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   p.simulationTime,
	}

	p.balance = p.balance.Add(net)
	p.records = append(p.records, record)

	if full {
		position.Status = common.PositionStatusClosed
		position.CloseReason = reason
		position.Lots = fixed.Zero
		position.Fees = nil
		delete(p.swapNights, position.Id)
		p.remove(position.Id)
	} else {
		position.Status = common.PositionStatusPartiallyClosed
		position.Lots = position.Lots.Sub(lots)
		position.Fees = remainderFees
		position.Margin = p.RequiredMargin(spec, position.Lots, position.EntryPrice)
		p.recalcProfit(position, exitPrice)
	}

	p.recalcEquity()
	return record, nil
}

func (p *Portfolio) remove(id common.PositionId) {
	kept := make([]*common.Position, 0, len(p.open))
	for _, position := range p.open {
		if position.Id != id {
			kept = append(kept, position)
		}
	}
	p.open = kept
}

func (p *Portfolio) grossProfit(position *common.Position, spec broker.SymbolSpec, closePrice, lots fixed.Point) fixed.Point {
	priceDiff := closePrice.Sub(position.EntryPrice).Mul(position.Side.Sign())
	return priceDiff.Mul(spec.ContractSize).Mul(lots).Mul(p.exchangeRate(spec))
}

func (p *Portfolio) recalcProfit(position *common.Position, closePrice fixed.Point) {
	spec, err := p.caps.Symbol(position.Symbol)
	if err != nil {
		// Positions cannot exist without a descriptor entry.
		panic(err)
	}
	position.CurrentPrice = closePrice
	position.GrossProfit = p.grossProfit(position, spec, closePrice, position.Lots)
	position.NetProfit = position.GrossProfit.Sub(position.TotalFees())
}

func (p *Portfolio) recalcEquity() {
	equity := p.balance
	for _, position := range p.open {
		equity = equity.Add(position.NetProfit)
	}
	p.equity = equity

	if p.equity.Gt(p.maxEquity) {
		p.maxEquity = p.equity
	} else if p.maxEquity.IsPos() {
		drawdown := p.maxEquity.Sub(p.equity).Div(p.maxEquity)
		if drawdown.Gt(p.maxDrawdown) {
			p.maxDrawdown = drawdown
		}
	}
}

func (p *Portfolio) accrueSwap(position *common.Position) {
	nights := int64(p.simulationTime.Sub(position.EntryTime).Hours()) / 24
	applied := p.swapNights[position.Id]
	if nights <= applied {
		return
	}

	fee := p.schedule.SwapFee(position.Side, position.Lots, nights-applied)
	if !fee.Amount.IsZero() {
		position.Fees = append(position.Fees, fee)
	}
	p.swapNights[position.Id] = nights
}

func (p *Portfolio) exchangeRate(spec broker.SymbolSpec) fixed.Point {
	if spec.QuoteCurrency == "" || spec.QuoteCurrency == p.caps.Currency() {
		return fixed.One
	}
	if p.rates == nil {
		slog.Warn("no rate provider for quote currency, assuming parity",
			"quote", spec.QuoteCurrency, "account", p.caps.Currency())
		return fixed.One
	}
	rate, err := p.rates.ExchangeRate(spec.QuoteCurrency, p.caps.Currency(), p.simulationTime)
	if err != nil {
		slog.Warn("exchange rate lookup failed, assuming parity", "error", err)
		return fixed.One
	}
	return rate
}
