package chain

import (
	"context"
	"math/big"
	"strings"

	"github.com/ChainSafe/chainbridge-utils/crypto/secp256k1"
	"github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/mapprotocol/checkin/internal/constant"
	"github.com/mapprotocol/checkin/pkg/abi"
)

// Client is the part of the go-ethereum client the writer uses.
type Client interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type Writer struct {
	cfg  Config
	conn Client
	kp   *secp256k1.Keypair
	abi  *abi.Abi
	log  log15.Logger
}

// NewWriter creates and returns Writer
func NewWriter(conn Client, kp *secp256k1.Keypair, cfg *Config, log log15.Logger) (*Writer, error) {
	c := *cfg
	if err := c.normalize(); err != nil {
		return nil, err
	}
	a, err := abi.New(abi.CheckIn)
	if err != nil {
		return nil, err
	}
	return &Writer{
		cfg:  c,
		conn: conn,
		kp:   kp,
		abi:  a,
		log:  log,
	}, nil
}

// CheckIn sends checkIn() to the contract and waits for one confirmation.
func (w *Writer) CheckIn(ctx context.Context) (common.Hash, error) {
	input, err := w.abi.PackInput(abi.MethodOfCheckIn)
	if err != nil {
		return common.Hash{}, err
	}

	w.log.Info("Sending checkIn() transaction", "contract", w.cfg.Contract)
	var tx *types.Transaction
	for i := 0; ; i++ {
		tx, err = w.sendTx(ctx, &w.cfg.Contract, nil, input)
		if err == nil {
			break
		}
		if !errors.Is(err, constant.ErrNonceTooLow) || i+1 >= constant.TxNonceRetries {
			return common.Hash{}, err
		}
		w.log.Warn("Nonce too low, will retry", "err", err)
		if err = sleep(ctx, w.cfg.QueryInterval); err != nil {
			return common.Hash{}, err
		}
	}

	w.log.Info("Waiting for confirmation", "tx", tx.Hash())
	if err = w.txStatus(ctx, tx.Hash()); err != nil {
		return tx.Hash(), err
	}
	return tx.Hash(), nil
}

// sendTx send tx to an address with value and input data
func (w *Writer) sendTx(ctx context.Context, toAddress *common.Address, value *big.Int, input []byte) (*types.Transaction, error) {
	from := w.kp.CommonAddress()
	nonce, err := w.conn.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, errors.Wrap(err, "get nonce")
	}

	td, err := w.txData(ctx, nonce, toAddress, value, input)
	if err != nil {
		return nil, err
	}

	tx := types.NewTx(td)
	signedTx, err := types.SignTx(tx, types.NewLondonSigner(w.cfg.chainId()), w.kp.PrivateKey())
	if err != nil {
		w.log.Error("SignTx failed", "error", err)
		return nil, errors.Wrap(err, "sign tx")
	}

	err = w.conn.SendTransaction(ctx, signedTx)
	if err != nil {
		w.log.Error("SendTransaction failed", "error", err, "nonce", nonce)
		if strings.Contains(strings.ToLower(err.Error()), constant.ErrNonceTooLow.Error()) {
			return nil, errors.Wrap(constant.ErrNonceTooLow, err.Error())
		}
		return nil, err
	}
	return signedTx, nil
}

// txData prices the tx as EIP-1559 when the latest header carries a base fee, legacy otherwise.
func (w *Writer) txData(ctx context.Context, nonce uint64, to *common.Address, value *big.Int, input []byte) (types.TxData, error) {
	head, err := w.conn.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "get latest header")
	}

	msg := ethereum.CallMsg{
		From:  w.kp.CommonAddress(),
		To:    to,
		Value: value,
		Data:  input,
	}
	gasLimit, err := w.conn.EstimateGas(ctx, msg)
	if err != nil {
		// keep the node's message, it carries the revert reason
		w.log.Error("EstimateGas failed", "error", err)
		return nil, err
	}
	gasLimit = w.adjustGasLimit(gasLimit)

	if head.BaseFee == nil {
		gasPrice, err := w.conn.SuggestGasPrice(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "suggest gas price")
		}
		gasPrice = multiply(gasPrice, w.cfg.GasMultiplier)
		w.log.Debug("SendTx legacy", "gasPrice", gasPrice, "gasLimit", gasLimit, "nonce", nonce)
		return &types.LegacyTx{
			Nonce:    nonce,
			Value:    value,
			To:       to,
			Gas:      gasLimit,
			GasPrice: gasPrice,
			Data:     input,
		}, nil
	}

	gasTipCap, err := w.conn.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "suggest gas tip cap")
	}
	gasTipCap = multiply(gasTipCap, w.cfg.GasMultiplier)
	gasFeeCap := new(big.Int).Add(gasTipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	w.log.Debug("SendTx london", "gasTipCap", gasTipCap, "gasFeeCap", gasFeeCap, "gasLimit", gasLimit, "nonce", nonce)
	return &types.DynamicFeeTx{
		ChainID:   w.cfg.chainId(),
		Nonce:     nonce,
		Value:     value,
		To:        to,
		Gas:       gasLimit,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Data:      input,
	}, nil
}

func (w *Writer) adjustGasLimit(gasLimit uint64) uint64 {
	if w.cfg.LimitMultiplier > 1 {
		gasLimit = uint64(float64(gasLimit) * w.cfg.LimitMultiplier)
	}
	if gasLimit < constant.MinGasLimit {
		gasLimit = constant.MinGasLimit
	}
	if gasLimit > constant.MaxGasLimit {
		gasLimit = constant.MaxGasLimit
	}
	return gasLimit
}

func multiply(v *big.Int, m float64) *big.Int {
	if m <= 1 || v == nil {
		return v
	}
	f := new(big.Float).Mul(new(big.Float).SetInt(v), big.NewFloat(m))
	ret, _ := f.Int(nil)
	return ret
}
