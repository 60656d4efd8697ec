package signer

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"eth-offline-signer/pkg/envelope"
	"eth-offline-signer/pkg/wallet/types"
)

// ErrFeeOverflow 手续费超过 128 位，编码出的信封会被解码端拒绝
var ErrFeeOverflow = errors.New("fee exceeds 128 bits")

// SignError 签名失败。签名是纯计算，失败即致命，不重试。
type SignError struct {
	Err error
}

func (e *SignError) Error() string {
	return "sign transaction: " + e.Err.Error()
}

func (e *SignError) Unwrap() error {
	return e.Err
}

// Sign 对未签名交易做确定性 (RFC 6979) secp256k1 签名。
// 本包不持有任何网络句柄，签名过程不会访问网络。
func Sign[P types.Variant](unsigned types.UnsignedTransaction[P], key *PrivateKey) (types.SignedTransaction[P], error) {
	if key.wiped() {
		return types.SignedTransaction[P]{}, &SignError{Err: ErrKeyWiped}
	}

	// 1. 规范化输入 (nil 数值视为 0)，保证 decode(encode(tx)) == tx
	unsigned = types.Build(unsigned.Common, unsigned.Variant)
	if err := checkFees(unsigned.Variant); err != nil {
		return types.SignedTransaction[P]{}, &SignError{Err: err}
	}

	// 2. 计算签名哈希
	hash := envelope.SigningHash(unsigned)

	// 3. 签名，得到 [R || S || V]，V 为 0/1
	sig, err := crypto.Sign(hash[:], key.key)
	if err != nil {
		return types.SignedTransaction[P]{}, &SignError{Err: err}
	}

	return types.SignedTransaction[P]{
		UnsignedTransaction: unsigned,
		Signature: types.Signature{
			R:          new(uint256.Int).SetBytes32(sig[:32]),
			S:          new(uint256.Int).SetBytes32(sig[32:64]),
			RecoveryID: sig[crypto.RecoveryIDOffset],
		},
	}, nil
}

// checkFees 手续费字段必须能放进 128 位，否则签出的交易自身无法解码
func checkFees[P types.Variant](variant P) error {
	var names []string
	var fees []*uint256.Int
	switch v := any(variant).(type) {
	case types.Eip1559Payload:
		names = []string{"maxFeePerGas", "maxPriorityFeePerGas"}
		fees = []*uint256.Int{v.MaxFeePerGas, v.MaxPriorityFeePerGas}
	case types.LegacyPayload:
		names = []string{"gasPrice"}
		fees = []*uint256.Int{v.GasPrice}
	}
	for i, fee := range fees {
		if !types.FitsFee(fee) {
			return fmt.Errorf("%w: %s has %d bits", ErrFeeOverflow, names[i], fee.BitLen())
		}
	}
	return nil
}

// SignAndEncode 签名并编码，CLI 的常用路径
func SignAndEncode[P types.Variant](unsigned types.UnsignedTransaction[P], key *PrivateKey) (envelope.Envelope[P], error) {
	signed, err := Sign(unsigned, key)
	if err != nil {
		return envelope.Envelope[P]{}, err
	}
	return envelope.Encode(signed), nil
}
