package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli"

	"github.com/somanetwork/govmon/callabi"
	dc "github.com/somanetwork/govmon/service/client"
)

var queryCommands = []cli.Command{
	{
		Name:      "query",
		ShortName: "q",
		Usage:     "Commands which require the govmond daemon to be running.",
		Category:  "Daemon commands",
		Subcommands: []cli.Command{
			validatorsCmd,
			whitelistCmd,
			committeeCmd,
			stateCmd,
			forksCmd,
			observationsCmd,
			runningCmd,
			callCmd,
			sendCmd,
		},
	},
}

var daemonAddressCliFlag = cli.StringFlag{
	Name:  daemonAddressFlag,
	Usage: "Full address of the govmond JSON-RPC endpoint",
	Value: defaultDaemonAddress,
}

var callerCliFlag = cli.StringFlag{
	Name:     callerFlag,
	Usage:    "The account the call is made from",
	Required: true,
}

var dataCliFlag = cli.StringFlag{
	Name:     dataFlag,
	Usage:    "The ABI encoded call data in hex",
	Required: true,
}

// withClient runs fn against the daemon and prints its result.
func withClient(fn func(context.Context, *dc.GovmonRPCClient) (interface{}, error)) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := dc.NewGovmonRPCClient(context.Background(), ctx.String(daemonAddressFlag))
		if err != nil {
			return err
		}
		defer c.Close()

		res, err := fn(context.Background(), c)
		if err != nil {
			return err
		}

		printRespJSON(res)

		return nil
	}
}

var validatorsCmd = cli.Command{
	Name:  "validators",
	Usage: "List the validators in registration order.",
	Flags: []cli.Flag{daemonAddressCliFlag},
	Action: withClient(func(ctx context.Context, c *dc.GovmonRPCClient) (interface{}, error) {
		return c.GetValidators(ctx)
	}),
}

var whitelistCmd = cli.Command{
	Name:  "whitelist",
	Usage: "List the whitelisted entry points.",
	Flags: []cli.Flag{daemonAddressCliFlag},
	Action: withClient(func(ctx context.Context, c *dc.GovmonRPCClient) (interface{}, error) {
		return c.GetWhitelist(ctx)
	}),
}

var committeeCmd = cli.Command{
	Name:  "committee",
	Usage: "Show the committee selected for the current epoch.",
	Flags: []cli.Flag{daemonAddressCliFlag},
	Action: withClient(func(ctx context.Context, c *dc.GovmonRPCClient) (interface{}, error) {
		return c.GetCommittee(ctx)
	}),
}

var stateCmd = cli.Command{
	Name:  "state",
	Usage: "Show every registered member.",
	Flags: []cli.Flag{daemonAddressCliFlag},
	Action: withClient(func(ctx context.Context, c *dc.GovmonRPCClient) (interface{}, error) {
		return c.RetrieveState(ctx)
	}),
}

var forksCmd = cli.Command{
	Name:  "forks",
	Usage: "Show the forks detected by the monitors.",
	Flags: []cli.Flag{daemonAddressCliFlag},
	Action: withClient(func(ctx context.Context, c *dc.GovmonRPCClient) (interface{}, error) {
		return c.Forks(ctx)
	}),
}

var runningCmd = cli.Command{
	Name:  "monitors",
	Usage: "List the node monitors that are running.",
	Flags: []cli.Flag{daemonAddressCliFlag},
	Action: withClient(func(ctx context.Context, c *dc.GovmonRPCClient) (interface{}, error) {
		return c.RunningMonitors(ctx)
	}),
}

var observationsCmd = cli.Command{
	Name:  "observations",
	Usage: "Show the headers reported at a height.",
	Flags: []cli.Flag{
		daemonAddressCliFlag,
		cli.Uint64Flag{
			Name:     heightFlag,
			Usage:    "The block height",
			Required: true,
		},
	},
	Action: func(ctx *cli.Context) error {
		height := ctx.Uint64(heightFlag)
		return withClient(func(ctx context.Context, c *dc.GovmonRPCClient) (interface{}, error) {
			return c.Observations(ctx, height)
		})(ctx)
	},
}

var callCmd = cli.Command{
	Name:  "call",
	Usage: "Run a read method of the registry and decode its outputs.",
	Flags: []cli.Flag{daemonAddressCliFlag, dataCliFlag},
	Action: func(ctx *cli.Context) error {
		input, err := hexutil.Decode(ctx.String(dataFlag))
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", dataFlag, err)
		}
		return withClient(func(ctx context.Context, c *dc.GovmonRPCClient) (interface{}, error) {
			out, err := c.Call(ctx, common.Address{}, input)
			if err != nil {
				return nil, err
			}
			return decodeOutputs(input, out)
		})(ctx)
	},
}

var sendCmd = cli.Command{
	Name:  "send",
	Usage: "Run a mutating method of the registry and print the receipt.",
	Flags: []cli.Flag{daemonAddressCliFlag, callerCliFlag, dataCliFlag},
	Action: func(ctx *cli.Context) error {
		caller, err := parseAddress(ctx.String(callerFlag))
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", callerFlag, err)
		}
		input, err := hexutil.Decode(ctx.String(dataFlag))
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", dataFlag, err)
		}
		return withClient(func(ctx context.Context, c *dc.GovmonRPCClient) (interface{}, error) {
			return c.SendTransaction(ctx, caller, input)
		})(ctx)
	},
}

func decodeOutputs(input, out []byte) (interface{}, error) {
	if len(input) < 4 {
		return hexutil.Bytes(out), nil
	}
	method, err := callabi.MethodByID(input[:4])
	if err != nil {
		return hexutil.Bytes(out), nil
	}
	values, err := method.Outputs.Unpack(out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode the outputs of %s: %w", method.Name, err)
	}
	return values, nil
}
