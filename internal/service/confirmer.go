package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"eth-offline-signer/internal/chain"
	"eth-offline-signer/pkg/logger"
	"eth-offline-signer/pkg/monitor"
	"eth-offline-signer/pkg/wallet/types"
)

const DefaultPollInterval = time.Second

// Confirmer 轮询回执直到交易上链。
// 状态只有 Pending 和 Included 两种，Included 是终态。
type Confirmer struct {
	client   chain.Client
	interval time.Duration
}

func NewConfirmer(client chain.Client, interval time.Duration) *Confirmer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Confirmer{client: client, interval: interval}
}

// Confirm 阻塞直到拿到回执。
// 没有内置超时，也没有退避：节点一直不出块时会一直等待，调用方需要通过 ctx 设置截止时间。
// 任何一次 RPC 失败都会立即返回 *ConfirmError，不重试。
func (c *Confirmer) Confirm(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	log := logger.Log.With(zap.String("tx_hash", hash.Hex()))
	start := time.Now()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &ConfirmError{Hash: hash, Err: canceled(err)}
		}

		receipt, err := c.client.TransactionReceipt(ctx, hash)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, &ConfirmError{Hash: hash, Err: canceled(ctxErr)}
			}
			monitor.ObservePoll("error")
			log.Error("查询回执失败", zap.Int("attempt", attempt), zap.Error(err))
			return nil, &ConfirmError{Hash: hash, Err: err}

		case receipt != nil:
			monitor.ObservePoll("included")
			monitor.ObserveConfirmed(time.Since(start))
			log.Info("✅ 交易已上链",
				zap.Uint64("block", receipt.BlockNumber),
				zap.Stringer("status", receipt.Status),
				zap.Int("attempt", attempt),
			)
			return receipt, nil
		}

		monitor.ObservePoll("pending")
		log.Debug("交易尚未上链", zap.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			return nil, &ConfirmError{Hash: hash, Err: canceled(ctx.Err())}
		case <-ticker.C:
		}
	}
}
