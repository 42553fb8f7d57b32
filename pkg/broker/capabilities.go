package broker

import (
	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

// Capabilities is the read-only broker contract the engine trades against.
// Resolved once at scenario setup and never re-dispatched per call.
type Capabilities interface {
	Company() string
	Currency() string
	Leverage() fixed.Point
	HedgingAllowed() bool
	StopOutLevel() fixed.Point
	SupportsOrderKind(kind common.OrderKind) bool
	Symbol(name string) (SymbolSpec, error)
	Symbols() []SymbolSpec
}

var _ Capabilities = (*Descriptor)(nil)
