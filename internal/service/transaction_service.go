package service

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"eth-offline-signer/pkg/envelope"
	"eth-offline-signer/pkg/monitor"
	"eth-offline-signer/pkg/wallet/types"
)

// TransactionService 中继服务的业务逻辑。只处理已签名的信封，不接触私钥。
type TransactionService struct {
	submitter      *Submitter
	confirmer      *Confirmer
	confirmTimeout time.Duration
}

func NewTransactionService(submitter *Submitter, confirmer *Confirmer, confirmTimeout time.Duration) *TransactionService {
	return &TransactionService{
		submitter:      submitter,
		confirmer:      confirmer,
		confirmTimeout: confirmTimeout,
	}
}

// BroadcastResult 广播结果，字段全部来自解码后的信封
type BroadcastResult struct {
	TxHash  common.Hash    `json:"tx_hash"`
	Type    types.TxType   `json:"type"`
	From    common.Address `json:"from"`
	To      common.Address `json:"to"`
	Nonce   uint64         `json:"nonce"`
	ChainID uint64         `json:"chain_id"`
}

// Broadcast 按声称的类型重新校验信封，再广播。校验失败不会发出任何请求。
func (s *TransactionService) Broadcast(ctx context.Context, txType types.TxType, raw []byte) (*BroadcastResult, error) {
	verified, err := envelope.Check(txType, raw)
	if err != nil {
		var decodeErr *envelope.DecodeError
		if errors.As(err, &decodeErr) {
			monitor.ObserveEnvelopeReject(decodeErr.Kind.Error())
		}
		return nil, err
	}

	hash, err := s.submitter.Submit(ctx, verified.Envelope)
	if err != nil {
		return nil, err
	}
	return &BroadcastResult{
		TxHash:  hash,
		Type:    txType,
		From:    verified.From,
		To:      verified.To,
		Nonce:   verified.Nonce,
		ChainID: verified.ChainID,
	}, nil
}

// WaitReceipt 等待回执，最长等待 confirmTimeout (为 0 时只受 ctx 约束)
func (s *TransactionService) WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if s.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.confirmTimeout)
		defer cancel()
	}
	return s.confirmer.Confirm(ctx, hash)
}
