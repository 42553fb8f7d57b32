package gateway

import (
	"fmt"
	"time"

	"github.com/quantarch/tradesim/pkg/broker"
	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/utility"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

// OrderBroker is the execution surface a gateway fronts. The sandbox
// simulator satisfies it; a live adapter would too.
type OrderBroker interface {
	Submit(order common.Order) common.OrderResult
	CancelOrder(orderId utility.OrderID) error
	ModifyLimitOrder(orderId utility.OrderID, price fixed.Point) error
	OpenPositions() []common.Position
	Position(id common.PositionId) (common.Position, error)
	PendingOrders() []common.PendingOrder
	HasPendingOrders() bool
	IsPendingClose(id common.PositionId) bool
	AccountInfo() common.AccountSnapshot
}

// Gateway is the strategy-facing trading surface. It verifies up front that
// the broker supports every order kind the strategy declares, so an
// unsupported kind fails at construction instead of mid-scenario, and only
// the declared kinds pass through afterwards. An empty declaration exposes
// every kind the broker supports.
type Gateway struct {
	caps     broker.Capabilities
	broker   OrderBroker
	source   string
	declared map[common.OrderKind]struct{}
}

func New(caps broker.Capabilities, orderBroker OrderBroker, source string, requiredKinds ...common.OrderKind) (*Gateway, error) {
	var declared map[common.OrderKind]struct{}
	if len(requiredKinds) > 0 {
		declared = make(map[common.OrderKind]struct{}, len(requiredKinds))
	}
	for _, kind := range requiredKinds {
		if !caps.SupportsOrderKind(kind) {
			return nil, fmt.Errorf("broker %s does not support %s orders", caps.Company(), kind)
		}
		declared[kind] = struct{}{}
	}
	return &Gateway{
		caps:     caps,
		broker:   orderBroker,
		source:   source,
		declared: declared,
	}, nil
}

// SendOrder stamps identity fields onto the order and submits it. Open orders
// of a kind outside the declared set are rejected here without reaching the
// broker; the result reports validation outcome only, fills arrive later as
// events.
func (g *Gateway) SendOrder(order common.Order) common.OrderResult {
	if order.Action == common.OrderActionOpen && !g.exposes(order.Kind) {
		return common.OrderResult{
			Rejected: true,
			Reason:   common.RejectionUnsupportedOrderType,
			Message:  fmt.Sprintf("%s orders are not in the declared capability set", order.Kind),
		}
	}

	order.Source = g.source
	order.ExecutionId = utility.GetExecutionID()
	order.TraceID = utility.CreateTraceID()
	if order.TimeStamp.IsZero() {
		order.TimeStamp = time.Now()
	}
	return g.broker.Submit(order)
}

func (g *Gateway) exposes(kind common.OrderKind) bool {
	if g.declared == nil {
		return true
	}
	_, ok := g.declared[kind]
	return ok
}

// OpenMarket submits a market order to open a position.
func (g *Gateway) OpenMarket(symbol string, side common.OrderSide, lots, stopLoss, takeProfit fixed.Point) common.OrderResult {
	return g.SendOrder(common.Order{
		Action:     common.OrderActionOpen,
		Kind:       common.OrderKindMarket,
		Side:       side,
		Lots:       lots,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Symbol:     symbol,
	})
}

// OpenLimit submits a limit order to open a position at price or better.
func (g *Gateway) OpenLimit(symbol string, side common.OrderSide, lots, price, stopLoss, takeProfit fixed.Point) common.OrderResult {
	return g.SendOrder(common.Order{
		Action:     common.OrderActionOpen,
		Kind:       common.OrderKindLimit,
		Side:       side,
		Lots:       lots,
		Price:      price,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Symbol:     symbol,
	})
}

// ClosePosition requests a full close of an open position.
func (g *Gateway) ClosePosition(id common.PositionId) (common.OrderResult, error) {
	position, err := g.broker.Position(id)
	if err != nil {
		return common.OrderResult{}, err
	}
	return g.SendOrder(common.Order{
		Action:     common.OrderActionClose,
		Kind:       common.OrderKindMarket,
		PositionId: id,
		Symbol:     position.Symbol,
	}), nil
}

// PartialClosePosition closes lots out of an open position, leaving the rest
// running under the same id.
func (g *Gateway) PartialClosePosition(id common.PositionId, lots fixed.Point) (common.OrderResult, error) {
	position, err := g.broker.Position(id)
	if err != nil {
		return common.OrderResult{}, err
	}
	return g.SendOrder(common.Order{
		Action:     common.OrderActionClose,
		Kind:       common.OrderKindMarket,
		Lots:       lots,
		PositionId: id,
		Symbol:     position.Symbol,
	}), nil
}

// ModifyPosition replaces the protective levels on an open position.
func (g *Gateway) ModifyPosition(id common.PositionId, stopLoss, takeProfit fixed.Point) (common.OrderResult, error) {
	position, err := g.broker.Position(id)
	if err != nil {
		return common.OrderResult{}, err
	}
	return g.SendOrder(common.Order{
		Action:     common.OrderActionModify,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		PositionId: id,
		Symbol:     position.Symbol,
	}), nil
}

// ModifyLimitOrder moves the limit price of a resting order without
// re-queueing it.
func (g *Gateway) ModifyLimitOrder(orderId utility.OrderID, price fixed.Point) error {
	return g.broker.ModifyLimitOrder(orderId, price)
}

// CancelOrder withdraws a pending order.
func (g *Gateway) CancelOrder(orderId utility.OrderID) error {
	return g.broker.CancelOrder(orderId)
}

func (g *Gateway) OpenPositions() []common.Position {
	return g.broker.OpenPositions()
}

func (g *Gateway) Position(id common.PositionId) (common.Position, error) {
	return g.broker.Position(id)
}

func (g *Gateway) PendingOrders() []common.PendingOrder {
	return g.broker.PendingOrders()
}

func (g *Gateway) HasPendingOrders() bool {
	return g.broker.HasPendingOrders()
}

func (g *Gateway) IsPendingClose(id common.PositionId) bool {
	return g.broker.IsPendingClose(id)
}

func (g *Gateway) AccountInfo() common.AccountSnapshot {
	return g.broker.AccountInfo()
}

func (g *Gateway) Symbol(name string) (broker.SymbolSpec, error) {
	return g.caps.Symbol(name)
}
