package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ReceiptStatus 交易执行结果
type ReceiptStatus uint64

const (
	ReceiptStatusFailed     ReceiptStatus = 0
	ReceiptStatusSuccessful ReceiptStatus = 1
)

func (s ReceiptStatus) String() string {
	switch s {
	case ReceiptStatusSuccessful:
		return "success"
	case ReceiptStatusFailed:
		return "failure"
	default:
		return fmt.Sprintf("unknown(%d)", uint64(s))
	}
}

func (s ReceiptStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ReceiptStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "success":
		*s = ReceiptStatusSuccessful
	case "failure":
		*s = ReceiptStatusFailed
	default:
		return fmt.Errorf("unknown receipt status %q", text)
	}
	return nil
}

// Receipt 节点返回的交易回执 (只保留本工具关心的字段)
type Receipt struct {
	Type              TxType          `json:"type"`
	Status            ReceiptStatus   `json:"status"`
	TransactionHash   common.Hash     `json:"transactionHash"`
	TransactionIndex  uint64          `json:"transactionIndex"`
	BlockHash         common.Hash     `json:"blockHash"`
	BlockNumber       uint64          `json:"blockNumber"`
	From              common.Address  `json:"from"`
	To                *common.Address `json:"to"`
	GasUsed           uint64          `json:"gasUsed"`
	CumulativeGasUsed uint64          `json:"cumulativeGasUsed"`
	EffectiveGasPrice *big.Int        `json:"effectiveGasPrice,omitempty"`
	ContractAddress   *common.Address `json:"contractAddress,omitempty"`
}

// Succeeded 交易是否执行成功
func (r *Receipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccessful
}
