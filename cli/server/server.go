package server

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/plasmacash/plasma-go/pkg/config"
	"github.com/plasmacash/plasma-go/pkg/core"
	"github.com/plasmacash/plasma-go/pkg/core/storage"
	"github.com/plasmacash/plasma-go/pkg/services/metrics"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewCommands returns the 'node' command.
func NewCommands() []cli.Command {
	var cfgFlags = []cli.Flag{
		cli.StringFlag{Name: "config-path", Usage: "path to the node configuration file"},
		cli.BoolFlag{Name: "debug, d", Usage: "enable debug logging"},
	}
	return []cli.Command{
		{
			Name:   "node",
			Usage:  "start the root authority node",
			Action: startServer,
			Flags:  cfgFlags,
		},
	}
}

func getConfigFromContext(ctx *cli.Context) (config.Config, error) {
	cfgPath := ctx.String("config-path")
	if cfgPath == "" {
		return config.Config{}, cli.NewExitError("missing --config-path flag", 1)
	}
	return config.Load(cfgPath)
}

// handleLoggingParams sets up logging. It returns a logger and a closer
// to call on shutdown.
func handleLoggingParams(ctx *cli.Context) (*zap.Logger, func() error, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if ctx.Bool("debug") {
		level.SetLevel(zap.DebugLevel)
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	cc.Level = level

	log, err := cc.Build()
	if err != nil {
		return nil, nil, err
	}
	return log, log.Sync, nil
}

func initPlasmaWithMetrics(cfg config.Config, log *zap.Logger) (*core.Plasma, *metrics.Service, error) {
	st, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		return nil, nil, fmt.Errorf("could not initialize storage: %w", err)
	}
	p, err := core.NewPlasma(st, cfg.ProtocolConfiguration, log)
	if err != nil {
		closeErr := st.Close()
		if closeErr != nil {
			log.Warn("failed to close the store", zap.Error(closeErr))
		}
		return nil, nil, fmt.Errorf("could not initialize ledger: %w", err)
	}
	prometheus := metrics.NewPrometheusService(cfg.ApplicationConfiguration.Prometheus, log)
	go prometheus.Start()
	return p, prometheus, nil
}

func startServer(ctx *cli.Context) error {
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log, logCloser, err := handleLoggingParams(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = logCloser() }()

	p, prometheus, err := initPlasmaWithMetrics(cfg, log)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", zap.String("signal", sig.String()))

	prometheus.ShutDown()
	if err := p.Close(); err != nil {
		return cli.NewExitError(fmt.Errorf("error on shutdown: %w", err), 1)
	}
	return nil
}
