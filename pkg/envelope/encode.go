package envelope

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"eth-offline-signer/pkg/crypto_util"
	"eth-offline-signer/pkg/wallet/types"
)

const (
	dynamicFeeFieldCount = 12 // [chainId, nonce, tip, feeCap, gas, to, value, data, accessList, yParity, r, s]
	legacyFieldCount     = 9  // [nonce, gasPrice, gas, to, value, data, v, r, s]
)

// SigningPayload 返回签名前的规范编码。
//   - EIP-1559: 0x02 || rlp([chainId, nonce, tip, feeCap, gas, to, value, data, accessList])
//   - Legacy (EIP-155): rlp([nonce, gasPrice, gas, to, value, data, chainId, 0, 0])
func SigningPayload[P types.Variant](tx types.UnsignedTransaction[P]) []byte {
	w := rlp.NewEncoderBuffer(nil)
	idx := w.List()
	switch v := any(tx.Variant).(type) {
	case types.Eip1559Payload:
		writeDynamicFeeBody(w, tx.Common, v)
		w.ListEnd(idx)
		return finish(w, byte(types.DynamicFeeTxType))
	case types.LegacyPayload:
		writeLegacyBody(w, tx.Common, v)
		w.WriteUint64(tx.Common.ChainID)
		w.WriteUint64(0)
		w.WriteUint64(0)
		w.ListEnd(idx)
		return finish(w)
	default:
		panic("envelope: unreachable variant")
	}
}

// SigningHash 签名哈希 = keccak256(SigningPayload)
func SigningHash[P types.Variant](tx types.UnsignedTransaction[P]) common.Hash {
	return crypto_util.Keccak256Hash(SigningPayload(tx))
}

// Encode 把已签名交易编码成规范的二进制信封。
//   - EIP-1559: 0x02 || rlp([... , accessList, yParity, r, s])
//   - Legacy: rlp([nonce, gasPrice, gas, to, value, data, v, r, s])，没有类型字节
func Encode[P types.Variant](tx types.SignedTransaction[P]) Envelope[P] {
	w := rlp.NewEncoderBuffer(nil)
	idx := w.List()
	switch v := any(tx.Variant).(type) {
	case types.Eip1559Payload:
		writeDynamicFeeBody(w, tx.Common, v)
		w.WriteUint64(uint64(tx.Signature.RecoveryID))
		w.WriteUint256(orZero(tx.Signature.R))
		w.WriteUint256(orZero(tx.Signature.S))
		w.ListEnd(idx)
		return Envelope[P]{raw: finish(w, byte(types.DynamicFeeTxType))}
	case types.LegacyPayload:
		writeLegacyBody(w, tx.Common, v)
		w.WriteUint256(tx.V())
		w.WriteUint256(orZero(tx.Signature.R))
		w.WriteUint256(orZero(tx.Signature.S))
		w.ListEnd(idx)
		return Envelope[P]{raw: finish(w)}
	default:
		panic("envelope: unreachable variant")
	}
}

func writeDynamicFeeBody(w rlp.EncoderBuffer, c types.CommonPayload, v types.Eip1559Payload) {
	w.WriteUint64(c.ChainID)
	w.WriteUint64(c.Nonce)
	w.WriteUint256(orZero(v.MaxPriorityFeePerGas))
	w.WriteUint256(orZero(v.MaxFeePerGas))
	w.WriteUint64(c.GasLimit)
	w.WriteBytes(c.To.Bytes())
	w.WriteUint256(orZero(c.Value))
	w.WriteBytes(nil)   // data
	w.ListEnd(w.List()) // accessList
}

func writeLegacyBody(w rlp.EncoderBuffer, c types.CommonPayload, v types.LegacyPayload) {
	w.WriteUint64(c.Nonce)
	w.WriteUint256(orZero(v.GasPrice))
	w.WriteUint64(c.GasLimit)
	w.WriteBytes(c.To.Bytes())
	w.WriteUint256(orZero(c.Value))
	w.WriteBytes(nil) // data
}

func finish(w rlp.EncoderBuffer, prefix ...byte) []byte {
	out := w.AppendToBytes(prefix)
	_ = w.Flush()
	return out
}

func orZero(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return x
}
