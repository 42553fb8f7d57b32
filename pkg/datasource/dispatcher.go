package datasource

import (
	"errors"

	"github.com/quantarch/tradesim/pkg/bus"
	"github.com/quantarch/tradesim/pkg/common"
)

// ErrEof signals the end of a tick stream. The scenario runner treats it as
// a clean stop, not a failure.
var ErrEof = errors.New("EOF")

type TickDataSource interface {
	GetNext() (common.Tick, error)
}

// CreateTickDispatcher adapts a tick source to the router's ExecLoop
// callback: each idle cycle pulls one tick and posts it.
func CreateTickDispatcher(r *bus.Router, ds TickDataSource) func() error {
	return func() error {
		var tick common.Tick
		var err error

		if tick, err = ds.GetNext(); err != nil {
			return err
		}
		if err = r.Post(bus.TickEvent, tick); err != nil {
			return err
		}
		return nil
	}
}
