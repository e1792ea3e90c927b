// Command json22-echo serves the JSON22 echo routes used for interop checks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kbukum/gokit-json22/internal/echoserver"
	"github.com/kbukum/gokit-json22/logger"
	"github.com/kbukum/gokit-json22/observability"
	"github.com/kbukum/gokit-json22/version"
)

const serviceName = "json22-echo"

func main() {
	configPath := flag.String("config", "", "path to config.yml (searched for when empty)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("invalid configuration", logger.ErrorFields("load_config", err))
		os.Exit(1)
	}

	log := logger.New(&cfg.Logging, cfg.Name)
	logger.SetGlobalLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("json22-echo stopped with error", logger.ErrorFields("run", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *AppConfig, log *logger.Logger) error {
	if cfg.Tracing.Enabled {
		tp, err := observability.InitTracer(ctx, cfg.Tracing.TracerConfig)
		if err != nil {
			return err
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}
	if cfg.Metrics.Enabled {
		mp, err := observability.InitMeter(ctx, cfg.Metrics.MeterConfig)
		if err != nil {
			return err
		}
		defer func() { _ = mp.Shutdown(context.Background()) }()
	}

	log.Info("starting json22-echo", logger.Fields("version", cfg.Version, "addr", cfg.Server.Addr))

	srv, err := echoserver.New(cfg.Server, echoserver.WithLogger(log))
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return srv.Stop(context.Background())
}
