package main

import (
	"fmt"
	"net"
	"path/filepath"

	"github.com/lightningnetwork/lnd/signal"
	"github.com/urfave/cli"

	"github.com/somanetwork/govmon/config"
	"github.com/somanetwork/govmon/log"
	"github.com/somanetwork/govmon/service"
	"github.com/somanetwork/govmon/util"
)

var startCommand = cli.Command{
	Name:  "start",
	Usage: "Start the govmond daemon.",
	Description: "Loads the registry from the db (or the genesis on the first start), " +
		"starts one monitor per configured node and serves the gov and monitor JSON-RPC APIs.",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  homeFlag,
			Usage: "The path to the govmond home directory",
			Value: config.DefaultGovmondDir,
		},
		cli.StringFlag{
			Name:  rpcListenerFlag,
			Usage: "The address that the RPC server listens to",
		},
	},
	Action: start,
}

func start(ctx *cli.Context) error {
	homePath, err := filepath.Abs(ctx.String(homeFlag))
	if err != nil {
		return err
	}
	homePath = util.CleanAndExpandPath(homePath)

	cfg, err := config.LoadConfig(homePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if rpcListener := ctx.String(rpcListenerFlag); rpcListener != "" {
		_, err := net.ResolveTCPAddr("tcp", rpcListener)
		if err != nil {
			return fmt.Errorf("invalid RPC listener address %s, %w", rpcListener, err)
		}
		cfg.RPCListener = rpcListener
	}

	logger, err := log.NewRootLoggerWithFile(config.LogFile(homePath), cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize the logger: %w", err)
	}

	dbBackend, err := cfg.DatabaseConfig.GetDbBackend()
	if err != nil {
		return fmt.Errorf("failed to create db backend: %w", err)
	}

	app, err := service.NewGovmonAppFromConfig(cfg, dbBackend, logger)
	if err != nil {
		_ = dbBackend.Close()
		return fmt.Errorf("failed to create the govmond app: %w", err)
	}

	// Hook interceptor for os signals.
	shutdownInterceptor, err := signal.Intercept()
	if err != nil {
		_ = dbBackend.Close()
		return err
	}

	server := service.NewGovmonServer(cfg, logger, app, dbBackend, shutdownInterceptor)
	return server.RunUntilShutdown()
}
