package handler

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eth-offline-signer/internal/handler/request"
	"eth-offline-signer/internal/handler/response"
	"eth-offline-signer/internal/service"
	"eth-offline-signer/pkg/errno"
	"eth-offline-signer/pkg/logger"
	"eth-offline-signer/pkg/validator"
	"eth-offline-signer/pkg/wallet/types"
)

// TransactionService handler 依赖的业务接口
type TransactionService interface {
	Broadcast(ctx context.Context, txType types.TxType, raw []byte) (*service.BroadcastResult, error)
	WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

type TransactionHandler struct {
	svc TransactionService
}

func NewTransactionHandler(svc TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

// Broadcast 广播已签名交易
// POST /api/v1/transactions {"type": "eip1559", "signed_hex": "0x02f8..."}
func (h *TransactionHandler) Broadcast(c *gin.Context) {
	var req request.BroadcastRequest

	// 1. Bind & Validate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}

	txType, err := types.ParseTxType(req.Type)
	if err != nil {
		response.Error(c, errno.ErrInvalidArgument.WithMessage(err.Error()))
		return
	}

	// 2. 重新校验并广播
	res, err := h.svc.Broadcast(c.Request.Context(), txType, common.FromHex(req.SignedHex))
	if err != nil {
		logger.Warn("广播请求失败", zap.String("type", req.Type), zap.Error(err))
		response.Error(c, service.ToErrno(err))
		return
	}

	response.Success(c, res)
}

// Receipt 等待并返回交易回执
// GET /api/v1/transactions/:hash/receipt
func (h *TransactionHandler) Receipt(c *gin.Context) {
	var req request.ReceiptRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, errno.ErrBind.WithMessage(validator.GetErrorMsg(err)))
		return
	}

	receipt, err := h.svc.WaitReceipt(c.Request.Context(), common.HexToHash(req.Hash))
	if err != nil {
		response.Error(c, service.ToErrno(err))
		return
	}
	response.Success(c, receipt)
}
