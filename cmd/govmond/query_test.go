package main

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/somanetwork/govmon/callabi"
)

func TestDecodeOutputs(t *testing.T) {
	input, err := callabi.Pack("getStake", common.HexToAddress("0x01"))
	require.NoError(t, err)
	out, err := callabi.ABI().Methods["getStake"].Outputs.Pack(big.NewInt(42))
	require.NoError(t, err)

	values, err := decodeOutputs(input, out)
	require.NoError(t, err)
	require.Equal(t, []interface{}{big.NewInt(42)}, values)

	// unknown selectors fall back to the raw bytes
	raw, err := decodeOutputs([]byte{0xde, 0xad, 0xbe, 0xef}, out)
	require.NoError(t, err)
	require.Equal(t, hexutil.Bytes(out), raw)

	_, err = decodeOutputs(input, out[:16])
	require.Error(t, err)
}

func TestParseAddress(t *testing.T) {
	addr, err := parseAddress("0x00000000000000000000000000000000000000aa")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0xaa"), addr)

	_, err = parseAddress("not-an-address")
	require.Error(t, err)
}
