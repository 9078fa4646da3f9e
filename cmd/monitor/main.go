// Package main is the entry point for the heat pump monitor. It loads
// configuration, wires the sensor pipeline to the transport, and runs the
// cooperative scheduler as a foreground process until signalled.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/alerts"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/buffer"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/command"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/config"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/diag"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/publisher"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/scheduler"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/sensors"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/sms"
	"github.com/last-brain-cell/smart-heat-pump-mvp/internal/transport"
)

var (
	// version is set at build time via -ldflags.
	version = "dev"

	configPath  = flag.String("config", "monitor.yaml", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Show version and exit")
	simulate    = flag.Bool("simulate", false, "Use simulated sensor data")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("heat-pump-monitor %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *simulate {
		cfg.Sensors.Simulate = true
	}

	logRing := diag.NewLogRing(cfg.Diag.LogRingSize)
	logger := initLogger(cfg, logRing)
	defer logger.Sync()

	logger.Info("Starting heat pump monitor",
		zap.String("version", version),
		zap.String("device", cfg.Device.ID))

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down",
			zap.String("signal", sig.String()))
		cancel()
	}()

	runMonitor(ctx, cfg, logger, logRing)
	logger.Info("Monitor stopped")
}

// runMonitor initializes all components and drives the scheduler loop.
// It blocks until the context is cancelled.
func runMonitor(ctx context.Context, cfg *config.Config, logger *zap.Logger, logRing *diag.LogRing) {
	buf, err := buffer.New(cfg.Buffer.Capacity, logger)
	if err != nil {
		logger.Fatal("Failed to initialize buffer", zap.Error(err))
	}

	var source sensors.Source
	if cfg.Sensors.Simulate {
		logger.Info("Using simulated sensors")
		source = sensors.NewSimulator()
	} else {
		adc, err := sensors.NewSysfsADC(cfg.Sensors.ADCPath)
		if err != nil {
			logger.Fatal("Failed to open ADC", zap.Error(err))
		}
		source = sensors.NewReader(adc, cfg.Sensors, logger)
	}

	var smsCh sms.Channel = sms.Disabled{Logger: logger}
	if cfg.SMS.Enabled {
		smsCh = sms.NewTwilioChannel(cfg.SMS, logger)
	}

	notifier := sms.NewAlertNotifier(smsCh, cfg.SMS.AdminNumber, cfg.Device.ID)
	evaluator := alerts.NewEvaluator(cfg.Thresholds, cfg.Timers.AlertCooldown.Duration, notifier, logger)

	topics := transport.NewTopics(cfg.Device.Namespace, cfg.Device.ID)
	primaryLink := transport.NewNetLink("primary", cfg.Transport.Primary.Addr(),
		cfg.Transport.Primary.ConnectTimeout.Duration, logger)
	secondaryLink := transport.NewNetLink("secondary", cfg.Transport.Secondary.Addr(),
		cfg.Transport.Secondary.ConnectTimeout.Duration, logger)

	factory := func(p transport.Path) transport.Session {
		endpoint := cfg.Transport.Primary
		if p == transport.PathSecondary {
			endpoint = cfg.Transport.Secondary
		}
		return transport.NewMQTTSession(endpoint, topics, cfg.Device.ID, logger)
	}
	mgr := transport.NewManager(primaryLink, secondaryLink,
		cfg.Transport.Primary.RetryInterval.Duration,
		cfg.Transport.Secondary.RetryInterval.Duration,
		factory, logger)
	defer mgr.Close()

	pub := publisher.New(buf, mgr, topics, cfg.Device.ID, version, logger)

	restart := func() {
		logger.Warn("Restart requested, exiting for supervisor relaunch")
		_ = logger.Sync()
		os.Exit(0)
	}
	cmdHandler := command.NewHandler(smsCh, source, buf, evaluator,
		cfg.SMS.AdminNumber, restart, logger)

	if cfg.Diag.Enabled {
		diagSrv := diag.NewServer(logRing, cfg.Diag.Listen, logger)
		diagSrv.Start()
		defer diagSrv.Stop()
	}

	watchdog := scheduler.NewWatchdog(cfg.Timers.Watchdog.Duration, nil, logger)
	sched := scheduler.New(watchdog, 250*time.Millisecond, logger)

	// Slow bringup attempts must not starve the watchdog.
	mgr.OnBeforeBlocking(watchdog.Feed)
	pub.OnBeforeBlocking(watchdog.Feed)

	sched.Register(scheduler.Task{
		Name:     "sensors",
		Interval: cfg.Timers.SensorRead.Duration,
		Run: func(_ context.Context, _ time.Time) {
			snap := source.Snapshot()
			evaluator.CheckAll(&snap)
			buf.Insert(snap)
		},
	})
	sched.Register(scheduler.Task{
		Name:     "publish",
		Interval: cfg.Timers.Publish.Duration,
		Run:      pub.Cycle,
	})
	sched.Register(scheduler.Task{
		Name:     "commands",
		Interval: cfg.Timers.CommandPoll.Duration,
		Run: func(_ context.Context, _ time.Time) {
			cmdHandler.Poll()
		},
	})
	sched.Register(scheduler.Task{
		Name:     "heartbeat",
		Interval: cfg.Timers.Heartbeat.Duration,
		Run: func(_ context.Context, _ time.Time) {
			logger.Info("Heartbeat",
				zap.Int("buffered", buf.Len()),
				zap.Bool("overflowed", buf.Overflowed()),
				zap.Stringer("path", mgr.Active()),
				zap.String("alerts", evaluator.ActiveSummary()))
		},
	})

	logger.Info("Monitor running",
		zap.Duration("sensor_interval", cfg.Timers.SensorRead.Duration),
		zap.Duration("publish_interval", cfg.Timers.Publish.Duration))
	sched.Start(ctx)
}

// initLogger creates a zap logger that writes human-readable output to the
// console and the diagnostic log ring, plus structured JSON to a rotated
// file when one is configured.
func initLogger(cfg *config.Config, ring *diag.LogRing) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout), ring),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	if cfg.Logging.File != "" {
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.Logging.File,
				MaxSize:    cfg.Logging.MaxSizeMB,
				MaxBackups: cfg.Logging.MaxBackups,
			}),
			level,
		)
		cores = append(cores, fileCore)
	}

	return zap.New(zapcore.NewTee(cores...))
}
