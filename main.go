package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"warehouse-fleet/config"
	"warehouse-fleet/handlers"
	"warehouse-fleet/services"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Warehouse robot fleet simulator",
	Long: `fleet simulates mobile robots retrieving items in a grid warehouse.

Robots plan lane-aware A* routes, pick items from shelves and deliver them
to the dock. Requests are assigned to the least loaded robot.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = services.NewLogger(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP/WebSocket server with the real-time simulator",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(layoutCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadWarehouse - 레이아웃 파일 또는 기본 창고
func loadWarehouse(sim config.SimulationConfig) (*services.Warehouse, error) {
	if sim.Layout != "" {
		return services.LoadLayout(sim.Layout)
	}
	file := services.DefaultLayoutFile()
	file.Fleet.Count = sim.Robots
	file.Fleet.Speed = sim.RobotSpeed
	return file.Build()
}

func serve(ctx context.Context) error {
	warehouse, err := loadWarehouse(cfg.Simulation)
	if err != nil {
		return err
	}

	// 이벤트 저장소
	db, err := services.OpenDatabase(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("❌ DB 초기화 실패: %w", err)
	}
	defer services.CloseDatabase(db)

	recorder := services.NewRecorder(db, cfg.Database.FlushSize, cfg.Database.FlushInterval, logger)
	recorder.Start()
	defer recorder.Close() // 종료 시 남은 로그 저장

	metrics := services.NewMetrics("fleet")
	fleet, err := services.NewFleetCoordinator(warehouse.Fleet, warehouse.Grid, warehouse.Inventory,
		services.WithLogger(logger),
		services.WithMetrics(metrics))
	if err != nil {
		return err
	}

	hub := handlers.NewHub(logger)
	simulator := services.NewSimulator(fleet, cfg.Simulation.TickInterval, cfg.Simulation.DeltaTime, hub.Broadcast, logger)
	simulator.SetRecorder(recorder, cfg.Simulation.SnapshotEvery)

	app := handlers.NewApp(&handlers.Server{
		Fleet:     fleet,
		Simulator: simulator,
		Recorder:  recorder,
		Warehouse: warehouse,
		Hub:       hub,
		Metrics:   metrics,
		Logger:    logger,
		AccessLog: verbose,
	}, cfg.Server)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		addr := cfg.Server.Addr()
		logger.Info("🚀 서버 시작", zap.String("addr", "http://"+addr))
		logger.Info("📡 WebSocket", zap.String("url", "ws://"+addr+"/websocket/web"))
		logger.Info("💾 로그 API", zap.String("url", "http://"+addr+"/api/logs/*"))
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		simulator.Stop()
		return app.ShutdownWithTimeout(5 * time.Second)
	})

	if cfg.Simulation.AutoStart {
		simulator.Start()
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("🛑 server stopped", zap.Float64("clock", fleet.Clock()))
	return nil
}
