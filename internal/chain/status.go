package chain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/mapprotocol/checkin/internal/constant"
)

// txStatus waits until txHash is mined and its receipt reports success.
func (w *Writer) txStatus(ctx context.Context, txHash common.Hash) error {
	var count int64
	for {
		_, pending, err := w.conn.TransactionByHash(ctx, txHash) // Query whether it is on the chain
		if err == nil && !pending {
			break
		}
		count++
		if count >= constant.TxPendingLimit {
			if err != nil {
				return errors.Wrap(err, "tx not found")
			}
			return constant.ErrTxPendingTooLong
		}
		if pending {
			w.log.Info("Tx is Pending, please wait...", "tx", txHash)
		} else {
			w.log.Warn("Tx Found failed, please wait...", "tx", txHash, "err", err)
		}
		if err := sleep(ctx, w.cfg.QueryInterval); err != nil {
			return err
		}
	}

	count = 0
	for {
		receipt, err := w.conn.TransactionReceipt(ctx, txHash) // Query receipt after chaining
		if err != nil {
			if !errors.Is(err, ethereum.NotFound) {
				return errors.Wrap(err, "get receipt")
			}
			count++
			if count >= constant.TxNotFoundLimit {
				return errors.Wrap(err, "receipt")
			}
			w.log.Info("Tx is temporary not found, please wait...", "tx", txHash)
			if err := sleep(ctx, w.cfg.QueryInterval); err != nil {
				return err
			}
			continue
		}

		if receipt.Status == types.ReceiptStatusSuccessful {
			w.log.Info("Tx receipt status is success", "tx", txHash, "block", receipt.BlockNumber)
			return nil
		}
		return errors.Errorf("tx %s reverted, receipt status %d", txHash, receipt.Status)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
