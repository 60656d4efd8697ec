package envelope

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"eth-offline-signer/pkg/wallet/types"
)

// Decode 严格解析二进制信封，P 是调用方期望的交易类型。
//
// 首字节必须与 P 的判别规则一致：EIP-1559 为 0x02，Legacy 为 RLP 列表前缀 (>= 0xc0)。
// 字段数量错误、非规范整数、截断或多余的尾部字节都会返回 *DecodeError。
func Decode[P types.Variant](data []byte) (types.SignedTransaction[P], error) {
	var (
		want P
		out  types.SignedTransaction[P]
	)
	if err := checkLeading(data, want.TxType()); err != nil {
		return out, err
	}

	switch want.TxType() {
	case types.DynamicFeeTxType:
		tx, err := decodeDynamicFee(data[1:])
		if err != nil {
			return out, err
		}
		return any(tx).(types.SignedTransaction[P]), nil
	case types.LegacyTxType:
		tx, err := decodeLegacy(data)
		if err != nil {
			return out, err
		}
		return any(tx).(types.SignedTransaction[P]), nil
	default:
		panic("envelope: unreachable variant")
	}
}

// checkLeading 根据首字节的数值范围区分 typed 信封 (0x00-0x7f) 和 legacy 列表 (0xc0-0xff)
func checkLeading(data []byte, want types.TxType) error {
	if len(data) == 0 {
		return newDecodeError(ErrTruncated, "", errors.New("empty input"))
	}

	b := data[0]
	switch {
	case b >= 0xc0:
		if want != types.LegacyTxType {
			return newDecodeError(ErrVariantMismatch, "", fmt.Errorf("want %s, got legacy list", want))
		}
	case b <= 0x7f:
		if want == types.LegacyTxType || types.TxType(b) != want {
			return newDecodeError(ErrVariantMismatch, "", fmt.Errorf("want %s, got typed envelope 0x%02x", want, b))
		}
	default:
		return newDecodeError(ErrMalformed, "", fmt.Errorf("leading byte 0x%02x is neither a type byte nor a list prefix", b))
	}
	return nil
}

func decodeDynamicFee(body []byte) (types.SignedTransaction[types.Eip1559Payload], error) {
	var tx types.SignedTransaction[types.Eip1559Payload]
	if err := checkFieldList(body, dynamicFeeFieldCount); err != nil {
		return tx, err
	}

	r := newFieldReader(body)
	tx.Common.ChainID = r.uint64("chainId")
	tx.Common.Nonce = r.uint64("nonce")
	tx.Variant.MaxPriorityFeePerGas = r.fee("maxPriorityFeePerGas")
	tx.Variant.MaxFeePerGas = r.fee("maxFeePerGas")
	tx.Common.GasLimit = r.uint64("gasLimit")
	tx.Common.To = r.address("to")
	tx.Common.Value = r.uint256("value")
	r.emptyBytes("data")
	r.emptyList("accessList")
	yParity := r.uint64("yParity")
	tx.Signature.R = r.uint256("r")
	tx.Signature.S = r.uint256("s")
	if err := r.finish(); err != nil {
		return tx, err
	}

	if yParity > 1 {
		return tx, newDecodeError(ErrInvalidSignature, "yParity", fmt.Errorf("got %d, want 0 or 1", yParity))
	}
	tx.Signature.RecoveryID = byte(yParity)
	if err := checkSignature(tx.Signature); err != nil {
		return tx, err
	}
	return tx, nil
}

func decodeLegacy(body []byte) (types.SignedTransaction[types.LegacyPayload], error) {
	var tx types.SignedTransaction[types.LegacyPayload]
	if err := checkFieldList(body, legacyFieldCount); err != nil {
		return tx, err
	}

	r := newFieldReader(body)
	tx.Common.Nonce = r.uint64("nonce")
	tx.Variant.GasPrice = r.fee("gasPrice")
	tx.Common.GasLimit = r.uint64("gasLimit")
	tx.Common.To = r.address("to")
	tx.Common.Value = r.uint256("value")
	r.emptyBytes("data")
	v := r.uint256("v")
	tx.Signature.R = r.uint256("r")
	tx.Signature.S = r.uint256("s")
	if err := r.finish(); err != nil {
		return tx, err
	}

	chainID, recoveryID, err := deriveChainID(v)
	if err != nil {
		return tx, err
	}
	tx.Common.ChainID = chainID
	tx.Signature.RecoveryID = recoveryID
	if err := checkSignature(tx.Signature); err != nil {
		return tx, err
	}
	return tx, nil
}

// deriveChainID 从 EIP-155 的 v 反推 chainId 和 recoveryId: v = recoveryId + chainId*2 + 35
func deriveChainID(v *uint256.Int) (uint64, byte, error) {
	if v.LtUint64(35) {
		if v.Eq(uint256.NewInt(27)) || v.Eq(uint256.NewInt(28)) {
			return 0, 0, newDecodeError(ErrUnsupported, "v", errors.New("legacy transaction without EIP-155 replay protection"))
		}
		return 0, 0, newDecodeError(ErrInvalidSignature, "v", fmt.Errorf("invalid v %s", v.Dec()))
	}

	x := new(uint256.Int).SubUint64(v, 35)
	recoveryID := byte(x.Uint64() & 1)
	chainID := x.Rsh(x, 1)
	if !chainID.IsUint64() {
		return 0, 0, newDecodeError(ErrFieldOverflow, "v", errors.New("derived chain id exceeds 64 bits"))
	}
	return chainID.Uint64(), recoveryID, nil
}

// checkSignature 要求 s 落在曲线阶的低半区 (EIP-2)，高 s 的可延展签名直接拒绝
func checkSignature(sig types.Signature) error {
	if !crypto.ValidateSignatureValues(sig.RecoveryID, sig.R.ToBig(), sig.S.ToBig(), true) {
		return newDecodeError(ErrInvalidSignature, "r/s", errors.New("r or s out of range, or s not in the lower half order"))
	}
	return nil
}

// checkFieldList 检查信封主体恰好是一个 RLP 列表，且包含 n 个元素
func checkFieldList(body []byte, n int) error {
	content, rest, err := rlp.SplitList(body)
	if err != nil {
		return classify("", err)
	}
	if len(rest) > 0 {
		return newDecodeError(ErrTrailingBytes, "", fmt.Errorf("%d extra bytes", len(rest)))
	}
	count, err := rlp.CountValues(content)
	if err != nil {
		return classify("", err)
	}
	if count != n {
		return newDecodeError(ErrFieldCount, "", fmt.Errorf("got %d, want %d", count, n))
	}
	return nil
}

// fieldReader 依次读取列表中的字段。第一个错误会被记住，之后的读取全部跳过。
type fieldReader struct {
	s   *rlp.Stream
	err *DecodeError
}

func newFieldReader(body []byte) *fieldReader {
	r := &fieldReader{s: rlp.NewStream(bytes.NewReader(body), uint64(len(body)))}
	if _, err := r.s.List(); err != nil {
		r.err = classify("", err)
	}
	return r
}

func (r *fieldReader) uint64(field string) uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.s.Uint64()
	if err != nil {
		r.err = classify(field, err)
	}
	return v
}

func (r *fieldReader) uint256(field string) *uint256.Int {
	z := new(uint256.Int)
	if r.err != nil {
		return z
	}
	if err := r.s.ReadUint256(z); err != nil {
		r.err = classify(field, err)
	}
	return z
}

func (r *fieldReader) fee(field string) *uint256.Int {
	z := r.uint256(field)
	if r.err == nil && !types.FitsFee(z) {
		r.err = newDecodeError(ErrFieldOverflow, field, fmt.Errorf("%d bits, max %d", z.BitLen(), types.MaxFeeBits))
	}
	return z
}

func (r *fieldReader) address(field string) common.Address {
	if r.err != nil {
		return common.Address{}
	}
	b, err := r.s.Bytes()
	if err != nil {
		r.err = classify(field, err)
		return common.Address{}
	}
	switch len(b) {
	case common.AddressLength:
		return common.BytesToAddress(b)
	case 0:
		r.err = newDecodeError(ErrUnsupported, field, errors.New("contract creation"))
	default:
		r.err = newDecodeError(ErrMalformed, field, fmt.Errorf("got %d bytes, want %d", len(b), common.AddressLength))
	}
	return common.Address{}
}

func (r *fieldReader) emptyBytes(field string) {
	if r.err != nil {
		return
	}
	b, err := r.s.Bytes()
	if err != nil {
		r.err = classify(field, err)
		return
	}
	if len(b) > 0 {
		r.err = newDecodeError(ErrUnsupported, field, fmt.Errorf("%d bytes of calldata", len(b)))
	}
}

func (r *fieldReader) emptyList(field string) {
	if r.err != nil {
		return
	}
	size, err := r.s.List()
	if err != nil {
		r.err = classify(field, err)
		return
	}
	if size != 0 {
		r.err = newDecodeError(ErrUnsupported, field, errors.New("non-empty access list"))
		return
	}
	if err := r.s.ListEnd(); err != nil {
		r.err = classify(field, err)
	}
}

func (r *fieldReader) finish() error {
	if r.err == nil {
		if err := r.s.ListEnd(); err != nil {
			r.err = classify("", err)
		}
	}
	if r.err != nil {
		return r.err
	}
	return nil
}
