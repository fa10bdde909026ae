// Package erc20 packs and unpacks the ERC-20 calls used by the wallet backend.
package erc20

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const ABIJSON = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

var parsedABI = mustParse(ABIJSON)

func mustParse(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

func ABI() abi.ABI {
	return parsedABI
}

func PackBalanceOf(owner common.Address) ([]byte, error) {
	return parsedABI.Pack("balanceOf", owner)
}

func PackAllowance(owner, spender common.Address) ([]byte, error) {
	return parsedABI.Pack("allowance", owner, spender)
}

func PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return parsedABI.Pack("transfer", to, amount)
}

func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return parsedABI.Pack("approve", spender, amount)
}

// UnpackUint256 decodes the single uint256 returned by balanceOf or allowance.
func UnpackUint256(method string, out []byte) (*big.Int, error) {
	values, err := parsedABI.Unpack(method, out)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s: expected 1 output, got %d", method, len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output type %T", method, values[0])
	}
	return v, nil
}
