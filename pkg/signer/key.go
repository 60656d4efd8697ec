package signer

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"eth-offline-signer/pkg/crypto_util"
)

var (
	ErrInvalidKey = errors.New("invalid private key")
	ErrKeyWiped   = errors.New("private key has been wiped")
)

// PrivateKey 有作用域的私钥持有者。
// 使用完毕后必须调用 Wipe，或者直接使用 WithPrivateKey。
type PrivateKey struct {
	key *ecdsa.PrivateKey
}

// ParsePrivateKey 解析 64 位 hex 私钥 (可带 0x 前缀)。
// 无论成功与否，传入的缓冲区都会被清零。
func ParsePrivateKey(hexKey []byte) (*PrivateKey, error) {
	defer crypto_util.Zero(hexKey)

	s := bytes.TrimSpace(hexKey)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) != 2*32 {
		return nil, fmt.Errorf("%w: want 32 bytes of hex, got %d characters", ErrInvalidKey, len(s))
	}

	raw := make([]byte, 32)
	defer crypto_util.Zero(raw)
	if _, err := hex.Decode(raw, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &PrivateKey{key: key}, nil
}

// WithPrivateKey 解析私钥，执行 fn，返回前总是清除私钥
func WithPrivateKey(hexKey []byte, fn func(*PrivateKey) error) error {
	key, err := ParsePrivateKey(hexKey)
	if err != nil {
		return err
	}
	defer key.Wipe()
	return fn(key)
}

// Address 私钥对应的以太坊地址
func (k *PrivateKey) Address() (common.Address, error) {
	if k == nil || k.key == nil {
		return common.Address{}, ErrKeyWiped
	}
	return crypto.PubkeyToAddress(k.key.PublicKey), nil
}

// Wipe 清零私钥标量，之后该对象不可再用于签名
func (k *PrivateKey) Wipe() {
	if k == nil || k.key == nil {
		return
	}
	words := k.key.D.Bits()
	for i := range words {
		words[i] = 0
	}
	k.key.D.SetInt64(0)
	k.key = nil
}

func (k *PrivateKey) wiped() bool {
	return k == nil || k.key == nil
}
