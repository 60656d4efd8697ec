// Package chaintest 提供一个进程内的以太坊 JSON-RPC 节点桩，
// 只实现 eth_sendRawTransaction 和 eth_getTransactionReceipt。
package chaintest

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"

	"eth-offline-signer/internal/chain"
)

// Node 内存中的节点状态
type Node struct {
	chainID *big.Int
	signer  gethtypes.Signer

	// PendingPolls 回执在出块前返回 null 的次数
	PendingPolls int
	// RejectWith 非空时拒绝所有广播，错误信息原样返回
	RejectWith string
	// ReceiptErr 非空时所有回执查询都失败
	ReceiptErr error

	mu     sync.Mutex
	txs    map[common.Hash]*entry
	order  []common.Hash
	nonces map[common.Address]uint64
	height uint64
}

type entry struct {
	tx      *gethtypes.Transaction
	from    common.Address
	polls   int
	receipt *receiptJSON
}

func NewNode(chainID uint64) *Node {
	id := new(big.Int).SetUint64(chainID)
	return &Node{
		chainID: id,
		signer:  gethtypes.LatestSignerForChainID(id),
		txs:     make(map[common.Hash]*entry),
		nonces:  make(map[common.Address]uint64),
	}
}

// Server 注册 eth 命名空间的 rpc.Server
func (n *Node) Server() (*rpc.Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &ethAPI{node: n}); err != nil {
		return nil, err
	}
	return srv, nil
}

// Start 启动进程内节点并返回已连接的客户端，测试结束时自动关闭
func (n *Node) Start(t testing.TB) *chain.EthClient {
	t.Helper()
	srv, err := n.Server()
	if err != nil {
		t.Fatalf("启动节点失败: %v", err)
	}
	client := chain.NewEthClient(rpc.DialInProc(srv))
	t.Cleanup(func() {
		client.Close()
		srv.Stop()
	})
	return client
}

// Sent 按到达顺序返回节点接受的原始交易
func (n *Node) Sent() [][]byte {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([][]byte, 0, len(n.order))
	for _, h := range n.order {
		raw, _ := n.txs[h].tx.MarshalBinary()
		out = append(out, raw)
	}
	return out
}

func (n *Node) submit(raw []byte) (common.Hash, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.RejectWith != "" {
		return common.Hash{}, errors.New(n.RejectWith)
	}

	tx := new(gethtypes.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, fmt.Errorf("rlp: %v", err)
	}
	if tx.ChainId().Cmp(n.chainID) != 0 {
		return common.Hash{}, fmt.Errorf("invalid chain id: have %d want %d", tx.ChainId(), n.chainID)
	}
	from, err := gethtypes.Sender(n.signer, tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid sender: %v", err)
	}
	if _, ok := n.txs[tx.Hash()]; ok {
		return common.Hash{}, errors.New("already known")
	}
	if next := n.nonces[from]; tx.Nonce() < next {
		return common.Hash{}, fmt.Errorf("nonce too low: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), next)
	}

	n.nonces[from] = tx.Nonce() + 1
	n.txs[tx.Hash()] = &entry{tx: tx, from: from}
	n.order = append(n.order, tx.Hash())
	return tx.Hash(), nil
}

func (n *Node) receipt(hash common.Hash) (*receiptJSON, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ReceiptErr != nil {
		return nil, n.ReceiptErr
	}
	e, ok := n.txs[hash]
	if !ok {
		return nil, nil
	}
	if e.receipt == nil {
		e.polls++
		if e.polls <= n.PendingPolls {
			return nil, nil
		}
		e.receipt = n.mine(e)
	}
	return e.receipt, nil
}

func (n *Node) mine(e *entry) *receiptJSON {
	n.height++
	gasUsed := hexutil.Uint64(e.tx.Gas())
	return &receiptJSON{
		Type:              hexutil.Uint64(e.tx.Type()),
		Status:            hexutil.Uint64(gethtypes.ReceiptStatusSuccessful),
		TransactionHash:   e.tx.Hash(),
		BlockHash:         common.BigToHash(new(big.Int).SetUint64(n.height)),
		BlockNumber:       hexutil.Uint64(n.height),
		From:              e.from,
		To:                e.tx.To(),
		GasUsed:           gasUsed,
		CumulativeGasUsed: gasUsed,
		EffectiveGasPrice: (*hexutil.Big)(e.tx.GasFeeCap()),
	}
}

type receiptJSON struct {
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

// ethAPI 暴露给 rpc.Server 的方法，方法名映射为 eth_xxx
type ethAPI struct {
	node *Node
}

func (api *ethAPI) SendRawTransaction(input hexutil.Bytes) (common.Hash, error) {
	return api.node.submit(input)
}

func (api *ethAPI) GetTransactionReceipt(hash common.Hash) (*receiptJSON, error) {
	return api.node.receipt(hash)
}

func (api *ethAPI) ChainId() *hexutil.Big {
	return (*hexutil.Big)(api.node.chainID)
}
