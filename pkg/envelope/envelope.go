package envelope

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"eth-offline-signer/pkg/crypto_util"
	"eth-offline-signer/pkg/wallet/types"
)

// Envelope 编码后的交易字节。类型参数 P 只是编译期标签，
// 从外部 (hex 文本、HTTP 请求) 得到的信封必须先 Decode 才能信任。
type Envelope[P types.Variant] struct {
	raw []byte
}

// Encoded 不带类型参数的信封视图，提交器只关心字节和哈希
type Encoded interface {
	Bytes() []byte
	Hash() common.Hash
	Type() types.TxType
}

// FromBytes 包装一段未经校验的字节
func FromBytes[P types.Variant](b []byte) Envelope[P] {
	return Envelope[P]{raw: common.CopyBytes(b)}
}

// FromHex 解析 hex 文本，允许 0x 前缀，大小写不敏感。
// 返回的信封同样未经校验。
func FromHex[P types.Variant](s string) (Envelope[P], error) {
	b, err := decodeHex(s)
	if err != nil {
		return Envelope[P]{}, err
	}
	return Envelope[P]{raw: b}, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, newDecodeError(ErrInvalidHex, "", err)
	}
	return b, nil
}

// Bytes 返回信封字节的副本
func (e Envelope[P]) Bytes() []byte {
	return common.CopyBytes(e.raw)
}

// Hex 小写 hex，不带 0x 前缀
func (e Envelope[P]) Hex() string {
	return hex.EncodeToString(e.raw)
}

// Hash 交易哈希 = keccak256(完整信封字节)，不依赖节点返回值
func (e Envelope[P]) Hash() common.Hash {
	return crypto_util.Keccak256Hash(e.raw)
}

// Type 信封声称的交易类型 (来自类型参数，不是字节本身)
func (e Envelope[P]) Type() types.TxType {
	var p P
	return p.TxType()
}

func (e Envelope[P]) Len() int {
	return len(e.raw)
}

func (e Envelope[P]) Decode() (types.SignedTransaction[P], error) {
	return Decode[P](e.raw)
}

// Sender 从签名恢复发送方地址
func Sender[P types.Variant](tx types.SignedTransaction[P]) (common.Address, error) {
	if tx.Signature.R == nil || tx.Signature.S == nil {
		return common.Address{}, newDecodeError(ErrInvalidSignature, "", fmt.Errorf("missing r or s"))
	}
	hash := SigningHash(tx.UnsignedTransaction)

	sig := make([]byte, crypto.SignatureLength)
	r, s := tx.Signature.R.Bytes32(), tx.Signature.S.Bytes32()
	copy(sig[:32], r[:])
	copy(sig[32:64], s[:])
	sig[crypto.RecoveryIDOffset] = tx.Signature.RecoveryID

	pub, err := crypto.SigToPub(hash[:], sig)
	if err != nil {
		return common.Address{}, newDecodeError(ErrInvalidSignature, "", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verified 经过运行时校验的信封：字节已按声称的类型完整解码，发送方已恢复
type Verified struct {
	Envelope Encoded
	From     common.Address
	To       common.Address
	ChainID  uint64
	Nonce    uint64
}

// Check 在运行时重新校验一段跨越进程边界的信封字节。
// t 是调用方声称的类型，必须与字节的首字节一致。
func Check(t types.TxType, data []byte) (*Verified, error) {
	switch t {
	case types.DynamicFeeTxType:
		return verify[types.Eip1559Payload](data)
	case types.LegacyTxType:
		return verify[types.LegacyPayload](data)
	default:
		return nil, newDecodeError(ErrUnsupported, "", fmt.Errorf("transaction type %s", t))
	}
}

// CheckHex 同 Check，输入为 hex 文本
func CheckHex(t types.TxType, s string) (*Verified, error) {
	raw, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	return Check(t, raw)
}

func verify[P types.Variant](data []byte) (*Verified, error) {
	env := FromBytes[P](data)
	tx, err := env.Decode()
	if err != nil {
		return nil, err
	}
	from, err := Sender(tx)
	if err != nil {
		return nil, err
	}
	return &Verified{
		Envelope: env,
		From:     from,
		To:       tx.Common.To,
		ChainID:  tx.Common.ChainID,
		Nonce:    tx.Common.Nonce,
	}, nil
}
