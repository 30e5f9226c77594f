package callabi

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// RegistryABI describes the methods of the governance registry. Amounts
// travel as uint256 and must fit in 64 bits.
const RegistryABI = `[
	{"constant":true,"inputs":[],"name":"getValidators","outputs":[{"name":"","type":"address[]"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"index","type":"uint256"}],"name":"validators","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"getStakeholders","outputs":[{"name":"","type":"address[]"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"getWhitelist","outputs":[{"name":"","type":"string[]"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"getStake","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"getStakeSupply","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"getMaxCommitteeSize","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"getCommittee","outputs":[{"name":"accounts","type":"address[]"},{"name":"stakes","type":"uint256[]"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"checkMember","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"retrieveState","outputs":[{"name":"accounts","type":"address[]"},{"name":"usertypes","type":"uint8[]"},{"name":"stakes","type":"uint256[]"},{"name":"enodes","type":"string[]"},{"name":"commissionrates","type":"uint256[]"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"getMinimumGasPrice","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"getBondingPeriod","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"getVersion","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"getOperator","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"getDeployer","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"getHeldBalance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"getExternalBalance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"dumpEconomicsData","outputs":[{"name":"accounts","type":"address[]"},{"name":"usertypes","type":"uint8[]"},{"name":"stakes","type":"uint256[]"},{"name":"commissionrates","type":"uint256[]"},{"name":"mingasprice","type":"uint256"},{"name":"stakesupply","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"account","type":"address"},{"name":"stake","type":"uint256"},{"name":"enode","type":"string"}],"name":"addValidator","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"account","type":"address"},{"name":"enode","type":"string"}],"name":"addParticipant","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"account","type":"address"},{"name":"enode","type":"string"},{"name":"stake","type":"uint256"}],"name":"addStakeholder","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"account","type":"address"}],"name":"removeUser","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"enode","type":"string"}],"name":"addWhitelistEntry","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"enode","type":"string"}],"name":"removeWhitelistEntry","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"account","type":"address"},{"name":"amount","type":"uint256"}],"name":"mintStake","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"account","type":"address"},{"name":"amount","type":"uint256"}],"name":"redeemStake","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"recipient","type":"address"},{"name":"amount","type":"uint256"}],"name":"send","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"rate","type":"uint256"}],"name":"setCommissionRate","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"size","type":"uint256"}],"name":"setCommitteeSize","outputs":[],"type":"function"},
	{"constant":false,"inputs":[],"name":"setCommittee","outputs":[{"name":"accounts","type":"address[]"},{"name":"stakes","type":"uint256[]"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"price","type":"uint256"}],"name":"setMinimumGasPrice","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"amount","type":"uint256"}],"name":"deposit","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"amount","type":"uint256"}],"name":"finalize","outputs":[{"name":"stakeholders","type":"address[]"},{"name":"rewardfractions","type":"uint256[]"}],"type":"function"}
]`

var registryABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(RegistryABI))
	if err != nil {
		panic(fmt.Errorf("failed to parse the registry ABI: %w", err))
	}
	return parsed
}

// Selector returns the 4-byte method id of a canonical signature such as
// "validators(uint256)".
func Selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}

// ABI returns the parsed registry ABI.
func ABI() abi.ABI {
	return registryABI
}

// MethodByID looks a method up by its 4-byte selector.
func MethodByID(sel []byte) (*abi.Method, error) {
	return registryABI.MethodById(sel)
}

// Pack encodes a call of method with args.
func Pack(method string, args ...interface{}) ([]byte, error) {
	return registryABI.Pack(method, args...)
}

// UnpackOutputs decodes the return data of method.
func UnpackOutputs(method string, output []byte) ([]interface{}, error) {
	return registryABI.Unpack(method, output)
}
