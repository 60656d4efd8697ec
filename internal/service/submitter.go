package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"eth-offline-signer/internal/chain"
	"eth-offline-signer/pkg/envelope"
	"eth-offline-signer/pkg/logger"
	"eth-offline-signer/pkg/monitor"
)

// Submitter 把已签名的信封广播到节点。只发一次请求，不重试。
type Submitter struct {
	client chain.Client
}

func NewSubmitter(client chain.Client) *Submitter {
	return &Submitter{client: client}
}

// Submit 广播信封并返回交易哈希。
// 哈希在本地由信封字节计算，失败时同样返回，调用方可以据此继续查询回执。
// 注意: 节点可能已经接收了交易，即使这里返回错误 (例如连接在响应前断开)。
func (s *Submitter) Submit(ctx context.Context, env envelope.Encoded) (common.Hash, error) {
	hash := env.Hash()
	txType := env.Type().String()
	log := logger.Log.With(zap.String("tx_hash", hash.Hex()), zap.String("type", txType))

	// 1. 已取消的 context 不发请求
	if err := ctx.Err(); err != nil {
		monitor.ObserveSubmit(txType, "canceled")
		return hash, &SubmitError{Hash: hash, Err: canceled(err)}
	}

	// 2. eth_sendRawTransaction
	log.Info("广播交易")
	echo, err := s.client.SendRawTransaction(ctx, env.Bytes())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Warn("广播被取消，节点端结果未知", zap.Error(ctxErr))
			monitor.ObserveSubmit(txType, "canceled")
			return hash, &SubmitError{Hash: hash, Err: canceled(ctxErr)}
		}
		log.Error("节点拒绝交易", zap.Error(err))
		monitor.ObserveSubmit(txType, "rejected")
		return hash, &SubmitError{Hash: hash, Err: err}
	}

	// 3. 以本地哈希为准
	if echo != hash {
		log.Warn("节点返回的哈希与本地计算不一致", zap.String("node_hash", echo.Hex()))
	}
	monitor.ObserveSubmit(txType, "accepted")
	log.Info("✅ 广播成功")
	return hash, nil
}
