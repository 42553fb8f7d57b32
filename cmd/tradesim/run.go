package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quantarch/tradesim/examples/strategy"
	"github.com/quantarch/tradesim/internal/dbg"
	"github.com/quantarch/tradesim/internal/scenario"
	"github.com/quantarch/tradesim/pkg/broker"
	"github.com/quantarch/tradesim/pkg/bus"
	"github.com/quantarch/tradesim/pkg/common"
	"github.com/quantarch/tradesim/pkg/datasource"
	"github.com/quantarch/tradesim/pkg/gateway"
	"github.com/quantarch/tradesim/pkg/middleware"
	"github.com/quantarch/tradesim/pkg/sandbox"
	"github.com/quantarch/tradesim/pkg/tools/metrics"
	"github.com/quantarch/tradesim/pkg/utility/fixed"
)

const defaultBreakoutWindow = 20

func newRunCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a scenario defined by a yaml config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScenario(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the scenario yaml")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runScenario(parent context.Context, configPath string) error {
	dbg.InstallSlogDefault()
	logger := dbg.NewLogger(true)
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := scenario.Load(configPath)
	if err != nil {
		return err
	}
	caps, err := broker.Load(cfg.Broker)
	if err != nil {
		return err
	}
	monitorFlags, err := cfg.MonitorFlags()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	source, closeSource, err := scenario.BuildTickSource(ctx, cfg.Source)
	if err != nil {
		return err
	}
	defer closeSource()

	router := bus.NewRouter(cfg.RouterCapacity)
	simulator, err := sandbox.NewSimulator(router, caps, fixed.FromFloat64(cfg.StartBalance), cfg.SimulatorOptions()...)
	if err != nil {
		return err
	}
	gw, err := gateway.New(caps, simulator, "cmd.tradesim", common.OrderKindMarket)
	if err != nil {
		return err
	}

	window := cfg.Strategy.Window
	if window <= 0 {
		window = defaultBreakoutWindow
	}
	breakout := strategy.NewBreakout(gw,
		cfg.Strategy.Symbol,
		fixed.FromFloat64(cfg.Strategy.Lots),
		window,
		fixed.FromFloat64(cfg.Strategy.StopLossPoints),
		fixed.FromFloat64(cfg.Strategy.TakeProfitPoints))

	audit := metrics.NewAudit()
	telemetry := middleware.NewTelemetry(logger)
	monitor := middleware.NewMonitor(monitorFlags)
	performance := middleware.NewPerformance(logger)

	router.TickHandler = middleware.Chain(telemetry.WithTick, performance.WithTick, monitor.WithTick)(
		bus.MergeHandlers(simulator.OnTick, breakout.OnTick))
	router.OrderHandler = middleware.Chain(telemetry.WithOrder, performance.WithOrder, monitor.WithOrder)(simulator.OnOrder)
	router.OrderAcceptedHandler = monitor.WithOrderAccepted(middleware.NoopOrderAccHdl)
	router.OrderRejectedHandler = monitor.WithOrderRejected(middleware.NoopOrderRjctHdl)
	router.OrderFilledHandler = monitor.WithOrderFilled(middleware.NoopOrderFillHdl)
	router.PositionOpenedHandler = middleware.Chain(telemetry.WithPositionOpened, monitor.WithPositionOpened)(middleware.NoopPosOpnHdl)
	router.PositionUpdatedHandler = middleware.Chain(telemetry.WithPositionUpdated, monitor.WithPositionUpdated)(middleware.NoopPosUpdHdl)
	router.PositionClosedHandler = middleware.Chain(telemetry.WithPositionClosed, monitor.WithPositionClosed)(middleware.NoopPosClsHdl)
	router.TradeHandler = middleware.Chain(telemetry.WithTrade, monitor.WithTrade)(audit.OnTrade)
	router.EquityHandler = middleware.Chain(telemetry.WithEquity, monitor.WithEquity)(audit.OnEquity)
	router.BalanceHandler = middleware.Chain(telemetry.WithBalance, monitor.WithBalance)(middleware.NoopBalanceHdl)

	defer router.PrintStatistics()
	defer telemetry.PrintStatistics()
	defer performance.PrintStatistics(telemetry)

	done := router.ExecLoop(ctx, datasource.CreateTickDispatcher(router, source))

	if err := <-done; err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, datasource.ErrEof) {
			return fmt.Errorf("scenario aborted: %w", err)
		}
	}

	simulator.Finish()

	audit.GenerateReport().Print()
	simulator.Statistics().Print()
	simulator.CostBreakdown().Print()
	simulator.ExecutionStats().Print()
	return nil
}
