package main

import (
	"fmt"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli"

	"github.com/somanetwork/govmon/config"
	"github.com/somanetwork/govmon/registry"
	"github.com/somanetwork/govmon/util"
)

var initCommand = cli.Command{
	Name:  "init",
	Usage: "Initialize a govmond home directory with a default config and an empty genesis.",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  homeFlag,
			Usage: "The path to the govmond home directory",
			Value: config.DefaultGovmondDir,
		},
		cli.BoolFlag{
			Name:  forceFlag,
			Usage: "Override existing configuration",
		},
		cli.StringFlag{
			Name:     operatorFlag,
			Usage:    "The account allowed to manage the roster and the stake",
			Required: true,
		},
		cli.StringFlag{
			Name:     deployerFlag,
			Usage:    "The account allowed to rotate the committee and distribute fees",
			Required: true,
		},
		cli.StringFlag{
			Name:     epochTriggerFlag,
			Usage:    "The account allowed to select the committee of the next epoch",
			Required: true,
		},
		cli.Uint64Flag{
			Name:  committeeSizeFlag,
			Usage: "The maximum committee size",
			Value: 21,
		},
		cli.Uint64Flag{
			Name:  minGasPriceFlag,
			Usage: "The minimum gas price",
		},
		cli.Uint64Flag{
			Name:  bondingPeriodFlag,
			Usage: "The bonding period, in blocks",
		},
	},
	Action: initHome,
}

func initHome(ctx *cli.Context) error {
	homePath, err := filepath.Abs(ctx.String(homeFlag))
	if err != nil {
		return err
	}
	homePath = util.CleanAndExpandPath(homePath)

	if util.FileExists(homePath) && !ctx.Bool(forceFlag) {
		return fmt.Errorf("home path %s already exists", homePath)
	}

	operator, err := parseAddress(ctx.String(operatorFlag))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", operatorFlag, err)
	}
	deployer, err := parseAddress(ctx.String(deployerFlag))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", deployerFlag, err)
	}
	epochTrigger, err := parseAddress(ctx.String(epochTriggerFlag))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", epochTriggerFlag, err)
	}

	if err := util.MakeDirectory(homePath); err != nil {
		return err
	}
	// Create log directory
	if err := util.MakeDirectory(config.LogDir(homePath)); err != nil {
		return err
	}

	defaultConfig := config.DefaultConfigWithHome(homePath)
	if err := config.WriteConfigFile(homePath, &defaultConfig); err != nil {
		return fmt.Errorf("failed to write the config file: %w", err)
	}

	g := &registry.Genesis{
		Operator:      operator,
		Deployer:      deployer,
		EpochTrigger:  epochTrigger,
		MinGasPrice:   ctx.Uint64(minGasPriceFlag),
		BondPeriod:    ctx.Uint64(bondingPeriodFlag),
		CommitteeSize: ctx.Uint64(committeeSizeFlag),
		Version:       registry.DefaultVersion,
	}
	if _, err := g.State(); err != nil {
		return err
	}

	return registry.WriteGenesis(defaultConfig.GenesisFile, g)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%q is not a hex address", s)
	}
	return common.HexToAddress(s), nil
}
