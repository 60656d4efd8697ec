package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"eth-offline-signer/pkg/wallet/types"
)

// Client 是提交和确认所依赖的 RPC 能力，只有两个操作
type Client interface {
	// SendRawTransaction 广播已编码的信封，返回节点给出的交易哈希
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	// TransactionReceipt 查询回执。交易未上链时返回 (nil, nil)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// EthClient 基于以太坊 JSON-RPC 的 Client 实现
type EthClient struct {
	rpc *rpc.Client
}

var _ Client = (*EthClient)(nil)

// Dial 连接 RPC 节点 (http/https/ws/wss/ipc)
func Dial(ctx context.Context, url string) (*EthClient, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("连接 RPC 节点失败: %w", err)
	}
	return NewEthClient(c), nil
}

func NewEthClient(c *rpc.Client) *EthClient {
	return &EthClient{rpc: c}
}

func (c *EthClient) Close() {
	c.rpc.Close()
}

func (c *EthClient) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Bytes(raw)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (c *EthClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var r *rpcReceipt
	if err := c.rpc.CallContext(ctx, &r, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	return r.toReceipt(), nil
}

// rpcReceipt eth_getTransactionReceipt 的 JSON 结构。
// go-ethereum 的 types.Receipt 不解析 from/to，这里自己定义。
type rpcReceipt struct {
	Type              hexutil.Uint64  `json:"type"`
	Status            hexutil.Uint64  `json:"status"`
	TransactionHash   common.Hash     `json:"transactionHash"`
	TransactionIndex  hexutil.Uint64  `json:"transactionIndex"`
	BlockHash         common.Hash     `json:"blockHash"`
	BlockNumber       hexutil.Uint64  `json:"blockNumber"`
	From              common.Address  `json:"from"`
	To                *common.Address `json:"to"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	CumulativeGasUsed hexutil.Uint64  `json:"cumulativeGasUsed"`
	EffectiveGasPrice *hexutil.Big    `json:"effectiveGasPrice"`
	ContractAddress   *common.Address `json:"contractAddress"`
}

func (r *rpcReceipt) toReceipt() *types.Receipt {
	out := &types.Receipt{
		Type:              types.TxType(r.Type),
		Status:            types.ReceiptStatus(r.Status),
		TransactionHash:   r.TransactionHash,
		TransactionIndex:  uint64(r.TransactionIndex),
		BlockHash:         r.BlockHash,
		BlockNumber:       uint64(r.BlockNumber),
		From:              r.From,
		To:                r.To,
		GasUsed:           uint64(r.GasUsed),
		CumulativeGasUsed: uint64(r.CumulativeGasUsed),
		ContractAddress:   r.ContractAddress,
	}
	if r.EffectiveGasPrice != nil {
		out.EffectiveGasPrice = new(big.Int).Set(r.EffectiveGasPrice.ToInt())
	}
	return out
}
