package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ChainSafe/chainbridge-utils/crypto/secp256k1"
	"github.com/ChainSafe/log15"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapprotocol/checkin/internal/constant"
)

type fakeClient struct {
	mu sync.Mutex

	baseFee     *big.Int
	estimate    uint64
	estimateErr error
	sendErr     error
	nonceTooLow int // SendTransaction reports nonce too low this many times
	nonceCalls  int
	pendingFor  int // TransactionByHash reports pending this many times
	notFoundFor int // TransactionReceipt reports NotFound this many times
	status      uint64

	sent []*types.Transaction
}

func (f *fakeClient) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nonceCalls++
	return 7, nil
}

func (f *fakeClient) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: f.baseFee}, nil
}

func (f *fakeClient) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(50_000_000_000), nil
}

func (f *fakeClient) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (f *fakeClient) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return f.estimate, f.estimateErr
}

func (f *fakeClient) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	if f.nonceTooLow > 0 {
		f.nonceTooLow--
		return errors.New("Nonce too low: next nonce 8, tx nonce 7")
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeClient) TransactionByHash(context.Context, common.Hash) (*types.Transaction, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pendingFor > 0 {
		f.pendingFor--
		return nil, true, nil
	}
	return f.sent[len(f.sent)-1], false, nil
}

func (f *fakeClient) TransactionReceipt(_ context.Context, h common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notFoundFor > 0 {
		f.notFoundFor--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{TxHash: h, Status: f.status, BlockNumber: big.NewInt(101)}, nil
}

func newTestWriter(t *testing.T, conn Client) (*Writer, *secp256k1.Keypair) {
	t.Helper()
	kp, err := secp256k1.GenerateKeypair()
	require.NoError(t, err)
	w, err := NewWriter(conn, kp, &Config{
		Id:            constant.MonadTestnetChainId,
		Contract:      constant.CheckinContract,
		QueryInterval: time.Millisecond,
	}, log15.Root())
	require.NoError(t, err)
	return w, kp
}

func TestWriter_CheckInLegacy(t *testing.T) {
	conn := &fakeClient{estimate: 50000, status: types.ReceiptStatusSuccessful, pendingFor: 2, notFoundFor: 2}
	w, kp := newTestWriter(t, conn)

	hash, err := w.CheckIn(context.Background())
	require.NoError(t, err)
	require.Len(t, conn.sent, 1)

	tx := conn.sent[0]
	assert.Equal(t, tx.Hash(), hash)
	assert.Equal(t, uint8(types.LegacyTxType), tx.Type())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(60000), tx.Gas())
	assert.Equal(t, constant.CheckinContract, *tx.To())
	assert.Equal(t, crypto.Keccak256([]byte("checkIn()"))[:4], tx.Data())

	from, err := types.Sender(types.NewLondonSigner(big.NewInt(constant.MonadTestnetChainId)), tx)
	require.NoError(t, err)
	assert.Equal(t, kp.CommonAddress(), from)
}

func TestWriter_CheckInDynamicFee(t *testing.T) {
	conn := &fakeClient{baseFee: big.NewInt(1_000_000_000), estimate: 10000, status: types.ReceiptStatusSuccessful}
	w, _ := newTestWriter(t, conn)

	_, err := w.CheckIn(context.Background())
	require.NoError(t, err)
	require.Len(t, conn.sent, 1)

	tx := conn.sent[0]
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, big.NewInt(2_000_000_000), tx.GasTipCap())
	assert.Equal(t, big.NewInt(4_000_000_000), tx.GasFeeCap())
	assert.Equal(t, uint64(constant.MinGasLimit), tx.Gas())
	assert.Equal(t, big.NewInt(constant.MonadTestnetChainId), tx.ChainId())
}

func TestWriter_EstimateReverted(t *testing.T) {
	conn := &fakeClient{estimateErr: errors.New("execution reverted: Already checked in today")}
	w, _ := newTestWriter(t, conn)

	_, err := w.CheckIn(context.Background())
	require.Error(t, err)
	assert.True(t, constant.IsBenign(err))
	assert.Empty(t, conn.sent)
}

func TestWriter_ReceiptFailed(t *testing.T) {
	conn := &fakeClient{estimate: 50000, status: types.ReceiptStatusFailed}
	w, _ := newTestWriter(t, conn)

	hash, err := w.CheckIn(context.Background())
	require.Error(t, err)
	assert.NotEqual(t, common.Hash{}, hash)
	assert.True(t, constant.IsBenign(err))
}

func TestWriter_SendFailed(t *testing.T) {
	conn := &fakeClient{estimate: 50000, sendErr: errors.New("insufficient funds for gas * price + value")}
	w, _ := newTestWriter(t, conn)

	_, err := w.CheckIn(context.Background())
	require.Error(t, err)
	assert.False(t, constant.IsBenign(err))
}

func TestWriter_NonceTooLowRetried(t *testing.T) {
	conn := &fakeClient{estimate: 50000, status: types.ReceiptStatusSuccessful, nonceTooLow: 1}
	w, _ := newTestWriter(t, conn)

	_, err := w.CheckIn(context.Background())
	require.NoError(t, err)
	assert.Len(t, conn.sent, 1)
	assert.Equal(t, 2, conn.nonceCalls)
}

func TestWriter_NonceTooLowExhausted(t *testing.T) {
	conn := &fakeClient{estimate: 50000, nonceTooLow: 1 << 30}
	w, _ := newTestWriter(t, conn)

	_, err := w.CheckIn(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, constant.ErrNonceTooLow)
	assert.False(t, constant.IsBenign(err))
	assert.Equal(t, constant.TxNonceRetries, conn.nonceCalls)
	assert.Empty(t, conn.sent)
}

func TestWriter_PendingCancelled(t *testing.T) {
	conn := &fakeClient{estimate: 50000, pendingFor: 1 << 30}
	w, _ := newTestWriter(t, conn)
	w.cfg.QueryInterval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := w.CheckIn(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewWriter_InvalidConfig(t *testing.T) {
	kp, err := secp256k1.GenerateKeypair()
	require.NoError(t, err)

	_, err = NewWriter(&fakeClient{}, kp, &Config{Id: 0, Contract: constant.CheckinContract}, log15.Root())
	assert.Error(t, err)

	_, err = NewWriter(&fakeClient{}, kp, &Config{Id: 1, Contract: constant.ZeroAddress}, log15.Root())
	assert.Error(t, err)
}

func TestMultiply(t *testing.T) {
	assert.Equal(t, big.NewInt(100), multiply(big.NewInt(100), 1))
	assert.Equal(t, big.NewInt(150), multiply(big.NewInt(100), 1.5))
	assert.Nil(t, multiply(nil, 2))
}
