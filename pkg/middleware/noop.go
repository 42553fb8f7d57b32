package middleware

import (
	"context"

	"github.com/quantarch/tradesim/pkg/common"
)

var (
	NoopTickHdl      = func(context.Context, common.Tick) {}
	NoopEquityHdl    = func(context.Context, common.Equity) {}
	NoopBalanceHdl   = func(context.Context, common.Balance) {}
	NoopPosOpnHdl    = func(context.Context, common.Position) {}
	NoopPosUpdHdl    = func(context.Context, common.Position) {}
	NoopPosClsHdl    = func(context.Context, common.Position) {}
	NoopOrderHdl     = func(context.Context, common.Order) {}
	NoopOrderAccHdl  = func(context.Context, common.OrderAccepted) {}
	NoopOrderRjctHdl = func(context.Context, common.OrderRejected) {}
	NoopOrderFillHdl = func(context.Context, common.OrderFilled) {}
	NoopTradeHdl     = func(context.Context, common.TradeRecord) {}
)
