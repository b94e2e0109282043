// Command walletgate launches the wallet adapter runtime.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/coachpo/walletgate/internal/adapters"
	"github.com/coachpo/walletgate/internal/bus/eventbus"
	"github.com/coachpo/walletgate/internal/config"
	"github.com/coachpo/walletgate/internal/observability"
	"github.com/coachpo/walletgate/internal/telemetry"
	"github.com/coachpo/walletgate/internal/wallet"
	"github.com/coachpo/walletgate/lib/async"
)

const (
	defaultConfigPath  = "config/app.yaml"
	loggerPrefix       = "walletgate "
	shutdownTimeout    = 15 * time.Second
	telemetryShutdown  = 5 * time.Second
	disconnectTimeout  = 10 * time.Second
	detectPoolShutdown = 5 * time.Second
)

func main() {
	cfgPath := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	logger := log.New(os.Stdout, loggerPrefix, log.LstdFlags|log.Lmicroseconds)
	observability.SetLogger(observability.NewStdLogger(logger))

	appCfg, loadedFromFile, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if !loadedFromFile {
		logger.Print("configuration file not found, using defaults")
	}
	logger.Printf("configuration initialised: env=%s, wallets=%d", appCfg.Environment, len(appCfg.Wallets))

	telemetryProvider, err := initTelemetry(ctx, logger, appCfg)
	if err != nil {
		logger.Fatalf("initialize telemetry: %v", err)
	}

	bus := eventbus.NewMemoryBus(eventbus.MemoryConfig{
		BufferSize:    appCfg.Eventbus.BufferSize,
		FanoutWorkers: appCfg.Eventbus.FanoutWorkers,
	})

	detectPool, err := buildDetectionPool(appCfg.Detection)
	if err != nil {
		logger.Fatalf("initialise detection pool: %v", err)
	}

	registry := wallet.NewRegistry()
	adapters.RegisterAll(registry)

	manager := wallet.NewManager(registry, bus, detectPool, observability.Log())
	if len(appCfg.Wallets) > 0 {
		if err := manager.Start(ctx, appCfg.Wallets); err != nil {
			logger.Fatalf("start wallets: %v", err)
		}
		logger.Printf("wallet adapters started: %d", len(manager.Adapters()))
	} else {
		logger.Print("no wallets configured; skipping adapter bootstrap")
	}

	var lifecycle conc.WaitGroup
	startEventLog(ctx, &lifecycle, logger, bus)

	logger.Print("walletgate started; awaiting shutdown signal")
	<-ctx.Done()
	logger.Print("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	shutdownStart := time.Now()

	disconnectCtx, disconnectCancel := context.WithTimeout(shutdownCtx, disconnectTimeout)
	if err := manager.DisconnectAll(disconnectCtx); err != nil {
		logger.Printf("disconnect wallets: %v", err)
	}
	disconnectCancel()

	poolCtx, poolCancel := context.WithTimeout(shutdownCtx, detectPoolShutdown)
	if err := detectPool.Shutdown(poolCtx); err != nil {
		logger.Printf("detection pool shutdown: %v", err)
	}
	poolCancel()

	bus.Close()
	lifecycle.Wait()

	telemetryCtx, telemetryCancel := context.WithTimeout(shutdownCtx, telemetryShutdown)
	if err := telemetryProvider.Shutdown(telemetryCtx); err != nil {
		logger.Printf("telemetry shutdown: %v", err)
	}
	telemetryCancel()

	logger.Printf("shutdown completed in %v", time.Since(shutdownStart))
}

func parseFlags() string {
	cfgPath := flag.String("config", defaultConfigPath, fmt.Sprintf("Path to application configuration file (default: %s)", defaultConfigPath))
	flag.Parse()
	return *cfgPath
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func initTelemetry(ctx context.Context, logger *log.Logger, appCfg config.AppConfig) (*telemetry.Provider, error) {
	telemetryCfg := telemetry.DefaultConfig()
	telemetryCfg.Enabled = appCfg.Telemetry.Enabled
	if appCfg.Telemetry.OTLPEndpoint != "" {
		telemetryCfg.OTLPEndpoint = appCfg.Telemetry.OTLPEndpoint
	}
	telemetryCfg.OTLPInsecure = appCfg.Telemetry.OTLPInsecure
	telemetryCfg.Environment = appCfg.Environment

	provider, err := telemetry.NewProvider(ctx, telemetryCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry provider: %w", err)
	}
	if telemetryCfg.Enabled {
		logger.Printf("telemetry initialized: endpoint=%s", telemetryCfg.OTLPEndpoint)
	} else {
		logger.Print("telemetry disabled")
	}
	return provider, nil
}

func buildDetectionPool(cfg config.DetectionConfig) (*async.Pool, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	queue := cfg.Queue
	if queue <= 0 {
		queue = 8
	}
	return async.NewPool(workers, queue)
}

// startEventLog mirrors every lifecycle event into the process log.
func startEventLog(ctx context.Context, lifecycle *conc.WaitGroup, logger *log.Logger, bus eventbus.Bus) {
	for _, typ := range []eventbus.EventType{
		eventbus.EventConnect,
		eventbus.EventDisconnect,
		eventbus.EventError,
		eventbus.EventReadyStateChange,
	} {
		typ := typ
		_, ch, err := bus.Subscribe(ctx, typ)
		if err != nil {
			logger.Printf("subscribe %s events: %v", typ, err)
			continue
		}
		lifecycle.Go(func() {
			for evt := range ch {
				switch evt.Type {
				case eventbus.EventError:
					logger.Printf("event=%s wallet=%s code=%s message=%q", evt.Type, evt.Wallet, evt.Code, evt.Message)
				case eventbus.EventReadyStateChange:
					logger.Printf("event=%s wallet=%s state=%s", evt.Type, evt.Wallet, evt.State)
				default:
					logger.Printf("event=%s wallet=%s address=%s", evt.Type, evt.Wallet, evt.Address)
				}
			}
		})
	}
}
