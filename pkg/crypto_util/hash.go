package crypto_util

import (
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Keccak256Hash 计算输入拼接后的 Keccak256 哈希值。
// 这是以太坊使用的哈希算法 (不是 NIST SHA3-256)。
func Keccak256Hash(data ...[]byte) common.Hash {
	var h common.Hash
	hasher := sha3.NewLegacyKeccak256()
	for _, b := range data {
		hasher.Write(b)
	}
	hasher.Sum(h[:0])
	return h
}

// Zero 把敏感数据所在的内存清零
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
