package chain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/mapprotocol/checkin/internal/constant"
)

const (
	DefaultGasMultiplier   = 1
	DefaultLimitMultiplier = 1.2
)

// Config encapsulates all necessary parameters for sending the check-in tx
type Config struct {
	Id              int64          // ChainID
	Contract        common.Address // check-in contract
	GasMultiplier   float64
	LimitMultiplier float64
	QueryInterval   time.Duration // time between pending/receipt polls
}

func (c *Config) chainId() *big.Int {
	return big.NewInt(c.Id)
}

func (c *Config) normalize() error {
	if c.Id <= 0 {
		return errors.Errorf("invalid chain id %d", c.Id)
	}
	if c.Contract == constant.ZeroAddress {
		return errors.New("must provide check-in contract address")
	}
	if c.GasMultiplier < 1 {
		c.GasMultiplier = DefaultGasMultiplier
	}
	if c.LimitMultiplier < 1 {
		c.LimitMultiplier = DefaultLimitMultiplier
	}
	if c.QueryInterval <= 0 {
		c.QueryInterval = constant.TxRetryInterval
	}
	return nil
}
