// Package evm implements chain.Client over EVM JSON-RPC endpoints.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ara-foundation/act-indexer/internal/infra/chain"
	"github.com/ara-foundation/act-indexer/internal/infra/rpc"
)

const erc20ABI = `[
	{"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

// tasks returns (deposited, startTime, endTime, rewardPool, payload) for an
// act's task slot.
const actV1ABI = `[
	{"name":"tasks","type":"function","stateMutability":"view","inputs":[{"name":"projectId","type":"uint256"},{"name":"taskId","type":"uint256"}],"outputs":[{"name":"deposited","type":"uint256"},{"name":"startTime","type":"uint256"},{"name":"endTime","type":"uint256"},{"name":"rewardPool","type":"uint256"},{"name":"payload","type":"string"}]}
]`

// Client reads contract state from one EVM network via eth_call.
type Client struct {
	provider     *rpc.HTTPProvider
	actAddress   common.Address
	nativeSymbol string

	erc20 abi.ABI
	actV1 abi.ABI
}

// NewClient creates an EVM chain client. actAddress is the network's act
// contract, nativeSymbol is returned for the zero token address.
func NewClient(provider *rpc.HTTPProvider, actAddress, nativeSymbol string) (*Client, error) {
	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	actV1, err := abi.JSON(strings.NewReader(actV1ABI))
	if err != nil {
		return nil, fmt.Errorf("parse act abi: %w", err)
	}
	return &Client{
		provider:     provider,
		actAddress:   common.HexToAddress(actAddress),
		nativeSymbol: nativeSymbol,
		erc20:        erc20,
		actV1:        actV1,
	}, nil
}

// SymbolOf returns the symbol of an ERC-20 token, or the native currency
// symbol for the zero address.
func (c *Client) SymbolOf(ctx context.Context, tokenAddr string) (string, error) {
	addr := common.HexToAddress(tokenAddr)
	if addr == (common.Address{}) {
		return c.nativeSymbol, nil
	}

	data, err := c.erc20.Pack("symbol")
	if err != nil {
		return "", fmt.Errorf("pack symbol call: %w", err)
	}

	raw, err := c.ethCall(ctx, addr, data)
	if err != nil {
		return "", fmt.Errorf("symbol of %s: %w", tokenAddr, err)
	}

	out, err := c.erc20.Unpack("symbol", raw)
	if err != nil {
		return "", fmt.Errorf("unpack symbol of %s: %w", tokenAddr, err)
	}
	symbol, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("symbol of %s: unexpected return type", tokenAddr)
	}
	return symbol, nil
}

// TaskTime returns the start and end time of a task from the act contract.
func (c *Client) TaskTime(ctx context.Context, projectID, taskID int64) (*chain.TaskTime, error) {
	data, err := c.actV1.Pack("tasks", big.NewInt(projectID), big.NewInt(taskID))
	if err != nil {
		return nil, fmt.Errorf("pack tasks call: %w", err)
	}

	raw, err := c.ethCall(ctx, c.actAddress, data)
	if err != nil {
		return nil, fmt.Errorf("task %d/%d: %w", projectID, taskID, err)
	}

	out, err := c.actV1.Unpack("tasks", raw)
	if err != nil {
		return nil, fmt.Errorf("unpack task %d/%d: %w", projectID, taskID, err)
	}
	if len(out) < 3 {
		return nil, fmt.Errorf("task %d/%d: short return", projectID, taskID)
	}

	start, ok := out[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("task %d/%d: unexpected startTime type", projectID, taskID)
	}
	end, ok := out[2].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("task %d/%d: unexpected endTime type", projectID, taskID)
	}

	return &chain.TaskTime{
		StartTime: start.Int64(),
		EndTime:   end.Int64(),
	}, nil
}

func (c *Client) ethCall(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	params := []any{
		map[string]string{
			"to":   to.Hex(),
			"data": hexutil.Encode(data),
		},
		"latest",
	}

	var result hexutil.Bytes
	if err := c.provider.Call(ctx, "eth_call", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}
