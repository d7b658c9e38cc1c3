package constant

import (
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	TxRetryInterval = time.Second * 3 // TxRetryInterval Time between polling a pending tx
	TxPendingLimit  = 60              // TxPendingLimit Maximum number of pending polls before giving up
	TxNotFoundLimit = 40              // TxNotFoundLimit Maximum number of receipt polls before giving up
	TxNonceRetries  = 3               // TxNonceRetries Maximum sends when the node reports nonce too low
	HttpTimeOut     = 10 * time.Second
	Agent           = "checkin-go"
)

const (
	CheckinWindow     = 24 * time.Hour
	SafetyWait        = time.Minute
	CountdownInterval = 5 * time.Second
	AttemptTimeout    = 10 * time.Minute
)

const (
	MonadTestnetChainId = 10143
	DefaultApiUrl       = "https://api.apr.io"
	DefaultApiRate      = 2
)

const (
	MinGasLimit = 30000
	MaxGasLimit = 500000
)

var (
	CheckinContract = common.HexToAddress("0x703e753E9a2aCa1194DED65833EAec17dcFeAc1b")
	ZeroAddress     = common.HexToAddress("0x0000000000000000000000000000000000000000")
)

var (
	ErrMissingPrivateKey = errors.New("PRIVATE_KEY is not set")
	ErrMissingRpc        = errors.New("MONAD_RPC_URL is not set")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNonceTooLow       = errors.New("nonce too low")
	ErrRpcUnreachable    = errors.New("rpc endpoint unreachable")
	ErrTxPendingTooLong  = errors.New("the tx pending state is too long")
)

// BenignError holds substrings of contract errors meaning the wallet already checked in for the current window.
var BenignError = map[string]struct{}{
	"already": {},
	"revert":  {},
}

func IsBenign(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for e := range BenignError {
		if strings.Contains(msg, e) {
			return true
		}
	}
	return false
}
