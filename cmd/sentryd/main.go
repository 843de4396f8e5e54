package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"

	"sentry-link/internal/codec"
	"sentry-link/internal/config"
	"sentry-link/internal/dispatcher"
	"sentry-link/internal/grpcclient"
	"sentry-link/internal/health"
	"sentry-link/internal/link"
	"sentry-link/internal/mirror"
	"sentry-link/internal/observability"
	"sentry-link/internal/pipeline"
	"sentry-link/internal/radio"
	"sentry-link/internal/radio/ble"
	"sentry-link/internal/radio/stub"
	"sentry-link/internal/sensor"
	"sentry-link/internal/server"
	"sentry-link/internal/store"
	"sentry-link/internal/utilities"
)

// restartExitCode le indica al supervisor que RESET_DEVICE pidió reiniciar.
const restartExitCode = 3

func main() {
	probe := flag.Bool("probe", false, "consulta el health gRPC local y sale (0 = cliente conectado)")
	flag.Parse()

	cfg := config.Load()
	logger := observability.NewLogger(cfg.LogLevel)

	if *probe {
		os.Exit(runProbe(cfg))
	}

	logger.Info("Starting sentryd...", "device", cfg.DeviceName, "transport", cfg.Transport)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, logger)
	stop()
	os.Exit(code)
}

func run(parent context.Context, cfg config.Config, logger *slog.Logger) int {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	strategy, err := link.ParseFrameStrategy(cfg.FrameStrategy)
	if err != nil {
		logger.Error("invalid config", "error", err)
		return 1
	}

	// Store de configuración: Redis si está configurado
	var cfgStore interface {
		dispatcher.ConfigStore
		All(context.Context) (map[dispatcher.ConfigKey]string, error)
	} = store.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb, err := store.InitRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Error("Redis init failed", "error", err)
			return 1
		}
		defer rdb.Close()
		cfgStore = store.NewRedisConfigStore(rdb, cfg.DeviceName)
		logger.Info("redis connected", "addr", cfg.RedisAddr)
	}
	if saved, err := cfgStore.All(ctx); err == nil && len(saved) > 0 {
		keys := make([]string, 0, len(saved))
		for k := range saved {
			keys = append(keys, string(k))
		}
		logger.Info("stored config loaded", "keys", keys)
	}

	// Taps: journal y espejo NATS
	var taps []link.Tap
	if cfg.JournalDir != "" {
		taps = append(taps, utilities.NewJournal(cfg.JournalDir, logger))
	}
	if cfg.NATSURL != "" {
		nc, err := mirror.Connect(cfg.NATSURL, cfg.DeviceName, logger)
		if err != nil {
			logger.Error("NATS connect failed", "error", err)
			return 1
		}
		defer nc.Drain()
		taps = append(taps, mirror.NewNATSTap(nc, cfg.DeviceName, logger))
	}

	transport, sim := newTransport(cfg, logger)

	healthSrv := health.NewServer(logger)
	sess := link.NewSession()
	tx := link.NewTransmitter(transport, sess, strategy, logger, taps...)
	lnk := link.New(sess, tx, codec.UptimeClock(), logger, healthSrv)

	motion := sensor.NewSimMotion(uint64(time.Now().UnixNano()))
	reader := sensor.NewReader(motion, cfg.TiltThreshold)
	position := sensor.NewSimPosition(14.5995, 120.9842, 12, 5, uint64(time.Now().UnixNano()))
	battery := sensor.NewSimBattery(100, 600)

	var restart atomic.Bool
	proc := dispatcher.NewProcessor(sess, lnk, logger,
		dispatcher.WithConfigStore(cfgStore),
		dispatcher.WithCalibrator(reader),
		dispatcher.WithRestarter(dispatcher.RestartFunc(func() {
			logger.Warn("restarting on command")
			restart.Store(true)
			cancel()
		})),
	)
	mgr := link.NewManager(sess, transport, proc, logger)

	if err := transport.Start(ctx, lnk); err != nil {
		logger.Error("transport start failed", "error", err)
		return 1
	}
	if sim != nil {
		go simulateCentral(ctx, sim, logger)
	}

	go func() {
		if err := observability.StartMetricsServer(ctx, cfg.MetricsPort); err != nil {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		if err := healthSrv.ListenAndServe(ctx, cfg.GRPCPort); err != nil {
			logger.Error("gRPC health failed", "error", err)
		}
	}()

	runner := pipeline.NewRunner(lnk, mgr, reader, position,
		func() (bool, int) { return cfg.WifiConnected, battery.Level() },
		pipeline.Intervals{
			Cycle:  cfg.CycleInterval,
			Sensor: cfg.SensorInterval,
			GPS:    cfg.GPSInterval,
			Status: cfg.StatusInterval,
		}, logger)
	_ = runner.Run(ctx)

	if restart.Load() {
		return restartExitCode
	}
	logger.Info("sentryd stopped")
	return 0
}

func newTransport(cfg config.Config, logger *slog.Logger) (radio.Transport, *stub.Driver) {
	switch cfg.Transport {
	case "ble":
		return ble.New(cfg.DeviceName, logger), nil
	case "tcp":
		return server.New(":"+cfg.TCPPort, cfg.TCPMTU, logger), nil
	default:
		if cfg.Transport != "sim" {
			logger.Warn("unknown transport, using sim", "transport", cfg.Transport)
		}
		drv := stub.New()
		return drv, drv
	}
}

// simulateCentral conecta un cliente ficticio que pide estado cada 10 s y
// se reconecta cada minuto.
func simulateCentral(ctx context.Context, drv *stub.Driver, logger *slog.Logger) {
	lg := logger.With("component", "sim-central")
	poll := time.NewTicker(10 * time.Second)
	defer poll.Stop()
	cycle := time.NewTicker(time.Minute)
	defer cycle.Stop()

	drv.Connect(0)
	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			drv.InjectWrite([]byte(`{"command":1}`))
			lg.Debug("frames sent so far", "count", len(drv.GetTxLog()))
			drv.ClearTxLog()
		case <-cycle.C:
			drv.Disconnect()
			time.Sleep(time.Second)
			drv.Connect(0)
		}
	}
}

func runProbe(cfg config.Config) int {
	c, err := grpcclient.NewHealthClient("localhost:" + cfg.GRPCPort)
	if err != nil {
		fmt.Fprintln(os.Stderr, "probe:", err)
		return 2
	}
	defer c.Close()
	res, err := c.Check(context.Background(), health.Service)
	if err != nil {
		fmt.Fprintln(os.Stderr, "probe:", err)
		return 2
	}
	fmt.Println(protojson.Format(res))
	if res.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return 1
	}
	return 0
}
