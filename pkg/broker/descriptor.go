package broker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

var (
	ErrMalformedDescriptor = errors.New("malformed broker descriptor")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrInvalidLotSize      = errors.New("invalid lot size")
)

// SymbolSpec describes one tradeable instrument. Loaded once, read-only
// afterwards.
type SymbolSpec struct {
	Name          string
	QuoteCurrency string
	Digits        int
	TickSize      fixed.Point
	ContractSize  fixed.Point
	VolumeMin     fixed.Point
	VolumeMax     fixed.Point
	VolumeStep    fixed.Point
	SpreadCurrent fixed.Point
	TradeAllowed  bool
}

// TickValue is the account-currency value of a one-tick move for one lot.
func (s SymbolSpec) TickValue() fixed.Point {
	return s.ContractSize.Mul(s.TickSize)
}

// CheckLots validates a requested volume against the symbol bounds and step.
func (s SymbolSpec) CheckLots(lots fixed.Point) error {
	if lots.Lte(fixed.Zero) || lots.Lt(s.VolumeMin) {
		return fmt.Errorf("%w: %s below minimum %s", ErrInvalidLotSize, lots, s.VolumeMin)
	}
	if lots.Gt(s.VolumeMax) {
		return fmt.Errorf("%w: %s above maximum %s", ErrInvalidLotSize, lots, s.VolumeMax)
	}
	if !lots.Mod(s.VolumeStep).IsZero() {
		return fmt.Errorf("%w: %s not aligned to step %s", ErrInvalidLotSize, lots, s.VolumeStep)
	}
	return nil
}

// Descriptor is the loaded broker capability set. It is the single source of
// truth for symbol metadata, leverage and supported order kinds, and is
// never mutated after Parse.
type Descriptor struct {
	company        string
	currency       string
	leverage       fixed.Point
	hedgingAllowed bool
	stopOutLevel   fixed.Point
	orderKinds     map[common.OrderKind]struct{}
	symbols        map[string]SymbolSpec
}

type rawDescriptor struct {
	BrokerInfo struct {
		Company        string   `json:"company"`
		Leverage       float64  `json:"leverage"`
		HedgingAllowed bool     `json:"hedging_allowed"`
		OrderKinds     []string `json:"order_kinds"`
	} `json:"broker_info"`
	AccountInfo struct {
		Currency     string  `json:"currency"`
		StopOutLevel float64 `json:"stop_out_level"`
	} `json:"account_info"`
	Symbols map[string]rawSymbol `json:"symbols"`
}

type rawSymbol struct {
	QuoteCurrency string  `json:"quote_currency"`
	VolumeMin     float64 `json:"volume_min"`
	VolumeMax     float64 `json:"volume_max"`
	VolumeStep    float64 `json:"volume_step"`
	TickSize      float64 `json:"tick_size"`
	Digits        int     `json:"digits"`
	ContractSize  float64 `json:"contract_size"`
	TradeAllowed  bool    `json:"trade_allowed"`
	SpreadCurrent float64 `json:"spread_current"`
}

var orderKindNames = map[string]common.OrderKind{
	"market":     common.OrderKindMarket,
	"limit":      common.OrderKindLimit,
	"stop":       common.OrderKindStop,
	"stop_limit": common.OrderKindStopLimit,
}

// Parse builds a Descriptor from JSON. Malformed input is a configuration
// error and fatal for scenario setup.
func Parse(data []byte) (*Descriptor, error) {
	var raw rawDescriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDescriptor, err)
	}

	if raw.BrokerInfo.Leverage <= 0 {
		return nil, fmt.Errorf("%w: leverage must be positive", ErrMalformedDescriptor)
	}
	if len(raw.Symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols", ErrMalformedDescriptor)
	}
	if raw.AccountInfo.Currency == "" {
		return nil, fmt.Errorf("%w: missing account currency", ErrMalformedDescriptor)
	}

	d := &Descriptor{
		company:        raw.BrokerInfo.Company,
		currency:       strings.ToUpper(raw.AccountInfo.Currency),
		leverage:       fixed.FromFloat64(raw.BrokerInfo.Leverage),
		hedgingAllowed: raw.BrokerInfo.HedgingAllowed,
		stopOutLevel:   fixed.FromFloat64(raw.AccountInfo.StopOutLevel),
		orderKinds:     make(map[common.OrderKind]struct{}),
		symbols:        make(map[string]SymbolSpec),
	}

	// A descriptor without an explicit order-kind list supports everything.
	if len(raw.BrokerInfo.OrderKinds) == 0 {
		for _, kind := range orderKindNames {
			d.orderKinds[kind] = struct{}{}
		}
	}
	for _, name := range raw.BrokerInfo.OrderKinds {
		kind, ok := orderKindNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown order kind %q", ErrMalformedDescriptor, name)
		}
		d.orderKinds[kind] = struct{}{}
	}

	for name, raw := range raw.Symbols {
		if raw.VolumeStep <= 0 || raw.VolumeMin <= 0 || raw.VolumeMax < raw.VolumeMin {
			return nil, fmt.Errorf("%w: symbol %s has invalid volume bounds", ErrMalformedDescriptor, name)
		}
		if raw.ContractSize <= 0 || raw.TickSize <= 0 {
			return nil, fmt.Errorf("%w: symbol %s has invalid contract parameters", ErrMalformedDescriptor, name)
		}

		d.symbols[strings.ToUpper(name)] = SymbolSpec{
			Name:          strings.ToUpper(name),
			QuoteCurrency: strings.ToUpper(raw.QuoteCurrency),
			Digits:        raw.Digits,
			TickSize:      fixed.FromFloat64(raw.TickSize),
			ContractSize:  fixed.FromFloat64(raw.ContractSize),
			VolumeMin:     fixed.FromFloat64(raw.VolumeMin),
			VolumeMax:     fixed.FromFloat64(raw.VolumeMax),
			VolumeStep:    fixed.FromFloat64(raw.VolumeStep),
			SpreadCurrent: fixed.FromFloat64(raw.SpreadCurrent),
			TradeAllowed:  raw.TradeAllowed,
		}
	}

	return d, nil
}

// Load reads and parses a descriptor file.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read broker descriptor %q: %w", path, err)
	}
	return Parse(data)
}

func (d *Descriptor) Company() string           { return d.company }
func (d *Descriptor) Currency() string          { return d.currency }
func (d *Descriptor) Leverage() fixed.Point     { return d.leverage }
func (d *Descriptor) HedgingAllowed() bool      { return d.hedgingAllowed }
func (d *Descriptor) StopOutLevel() fixed.Point { return d.stopOutLevel }

func (d *Descriptor) SupportsOrderKind(kind common.OrderKind) bool {
	_, ok := d.orderKinds[kind]
	return ok
}

func (d *Descriptor) Symbol(name string) (SymbolSpec, error) {
	spec, ok := d.symbols[strings.ToUpper(name)]
	if !ok {
		return SymbolSpec{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	return spec, nil
}

func (d *Descriptor) Symbols() []SymbolSpec {
	out := make([]SymbolSpec, 0, len(d.symbols))
	for _, spec := range d.symbols {
		out = append(out, spec)
	}
	return out
}
