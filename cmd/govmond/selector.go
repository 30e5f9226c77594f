package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli"

	"github.com/somanetwork/govmon/callabi"
)

var selectorCommand = cli.Command{
	Name:      "selector",
	Usage:     "Print the 4-byte selector of a method signature.",
	ArgsUsage: `"validators(uint256)"`,
	Action:    printSelector,
}

func printSelector(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected one method signature, got %d arguments", ctx.NArg())
	}

	sel := callabi.Selector(ctx.Args().First())
	fmt.Println(hexutil.Encode(sel[:]))

	return nil
}
