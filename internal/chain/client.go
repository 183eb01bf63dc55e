// Package chain implements the contract read-side collaborators (condition
// state, ERC-20 metadata, express payouts) on top of go-ethereum.
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client wraps an ethclient connection and applies a per-call timeout.
type Client struct {
	eth     *ethclient.Client
	timeout time.Duration
}

// Dial connects to the RPC endpoint and verifies it answers.
func Dial(ctx context.Context, rpcURL string, timeout time.Duration) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}
	if _, err := eth.ChainID(ctx); err != nil {
		eth.Close()
		return nil, fmt.Errorf("chain: chain id: %w", err)
	}
	return &Client{eth: eth, timeout: timeout}, nil
}

// Close shuts down the underlying connection.
func (c *Client) Close() {
	c.eth.Close()
}

// call performs one eth_call against a contract with the client timeout
// applied on top of the caller's context.
func (c *Client) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}
