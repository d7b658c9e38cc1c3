package ethclient

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"github.com/mapprotocol/checkin/internal/constant"
)

// Client embeds the go-ethereum client and adds the startup checks the bot needs.
type Client struct {
	*ethclient.Client
}

// Dial connects a client to the given URL.
func Dial(rawurl string) (*Client, error) {
	return DialContext(context.Background(), rawurl)
}

func DialContext(ctx context.Context, rawurl string) (*Client, error) {
	c, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", rawurl)
	}
	return NewClient(c), nil
}

// NewClient creates a client that uses the given RPC client.
func NewClient(c *rpc.Client) *Client {
	return &Client{Client: ethclient.NewClient(c)}
}

type chainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// EnsureChainId fails when the endpoint serves a different chain than expected.
// A failed query wraps constant.ErrRpcUnreachable.
func EnsureChainId(ctx context.Context, c chainReader, want int64) error {
	id, err := c.ChainID(ctx)
	if err != nil {
		return errors.Wrapf(constant.ErrRpcUnreachable, "query chain id: %v", err)
	}
	if id.Int64() != want {
		return errors.Errorf("rpc chain id is %s, expected %d", id, want)
	}
	return nil
}

// EnsureHasBytecode asserts if contract code exists at the specified address
func EnsureHasBytecode(ctx context.Context, c chainReader, addr common.Address) error {
	code, err := c.CodeAt(ctx, addr, nil)
	if err != nil {
		return errors.Wrapf(constant.ErrRpcUnreachable, "query contract code: %v", err)
	}
	if len(code) == 0 {
		return errors.Errorf("no bytecode found at %s", addr.Hex())
	}
	return nil
}
