package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TxType 是 EIP-2718 的类型判别字节。Legacy 交易没有判别字节，这里用 0x00 表示。
type TxType uint8

const (
	LegacyTxType     TxType = 0x00
	DynamicFeeTxType TxType = 0x02 // EIP-1559
)

// MaxFeeBits 手续费字段 (gasPrice / maxFeePerGas / maxPriorityFeePerGas) 的最大位宽
const MaxFeeBits = 128

func (t TxType) String() string {
	switch t {
	case LegacyTxType:
		return "legacy"
	case DynamicFeeTxType:
		return "eip1559"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(t))
	}
}

func (t TxType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TxType) UnmarshalText(text []byte) error {
	parsed, err := ParseTxType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTxType 解析命令行 / API 中的交易类型名称 (不区分大小写)
func ParseTxType(s string) (TxType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eip1559", "eip-1559", "type2", "2":
		return DynamicFeeTxType, nil
	case "legacy", "type0", "0":
		return LegacyTxType, nil
	default:
		return 0, fmt.Errorf("unknown transaction type %q (want eip1559 or legacy)", s)
	}
}

// CommonPayload 所有交易类型共有的字段。
// 调用方 (CLI) 负责校验，这里不做范围或 checksum 检查。
type CommonPayload struct {
	ChainID  uint64         // EIP-155 链 ID
	Nonce    uint64         // 发送方账户的交易序号
	GasLimit uint64         // 允许消耗的最大 gas
	To       common.Address // 收款地址
	Value    *uint256.Int   // 转账金额 (Wei)
}

// Variant 是交易类型专属参数的封闭联合类型。
// 只有本包中的 Eip1559Payload 和 LegacyPayload 实现它。
type Variant interface {
	TxType() TxType
	isVariant()
}

// Eip1559Payload EIP-1559 (Type-2) 交易的费用参数，单位 Wei
type Eip1559Payload struct {
	MaxFeePerGas         *uint256.Int
	MaxPriorityFeePerGas *uint256.Int
}

func (Eip1559Payload) TxType() TxType { return DynamicFeeTxType }
func (Eip1559Payload) isVariant()     {}

// LegacyPayload Legacy 交易的 gas 价格，单位 Wei
type LegacyPayload struct {
	GasPrice *uint256.Int
}

func (LegacyPayload) TxType() TxType { return LegacyTxType }
func (LegacyPayload) isVariant()     {}

// UnsignedTransaction 待签名交易。类型参数 P 即交易类型标签，
// 只存在于 Builder 和 Signer 之间。
type UnsignedTransaction[P Variant] struct {
	Common  CommonPayload
	Variant P
}

// TxType 返回交易类型判别字节
func (tx UnsignedTransaction[P]) TxType() TxType {
	return tx.Variant.TxType()
}

// Signature secp256k1 签名。RecoveryID 只能是 0 或 1。
type Signature struct {
	R          *uint256.Int
	S          *uint256.Int
	RecoveryID byte
}

// SignedTransaction 已签名交易，与未签名交易拥有相同的类型标签
type SignedTransaction[P Variant] struct {
	UnsignedTransaction[P]
	Signature Signature
}

// V 返回信封中实际编码的 v 值。
// Legacy: recoveryId + chainId*2 + 35 (EIP-155)；EIP-1559: recoveryId 本身 (yParity)。
func (tx SignedTransaction[P]) V() *uint256.Int {
	v := uint256.NewInt(uint64(tx.Signature.RecoveryID))
	if tx.TxType() != LegacyTxType {
		return v
	}
	chainID := uint256.NewInt(tx.Common.ChainID)
	v.Add(v, chainID.Lsh(chainID, 1))
	return v.AddUint64(v, 35)
}

// FitsFee 判断数值是否能放进 128 位手续费字段
func FitsFee(x *uint256.Int) bool {
	return x == nil || x.BitLen() <= MaxFeeBits
}
