package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/somanetwork/govmon/config"
)

const (
	homeFlag          = "home"
	forceFlag         = "force"
	operatorFlag      = "operator"
	deployerFlag      = "deployer"
	epochTriggerFlag  = "epoch-trigger"
	rpcListenerFlag   = "rpc-listener"
	daemonAddressFlag = "daemon-address"
	callerFlag        = "caller"
	dataFlag          = "data"
	heightFlag        = "height"
	committeeSizeFlag = "committee-size"
	minGasPriceFlag   = "min-gas-price"
	bondingPeriodFlag = "bonding-period"
)

var defaultDaemonAddress = "http://127.0.0.1:" + strconv.Itoa(config.DefaultRPCPort)

func printRespJSON(resp interface{}) {
	jsonBytes, err := json.MarshalIndent(resp, "", "    ")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}

	fmt.Printf("%s\n", jsonBytes)
}
