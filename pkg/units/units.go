package units

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"eth-offline-signer/pkg/wallet/types"
)

const (
	EtherDecimals = 18
	GweiDecimals  = 9
)

var (
	ErrNegative  = errors.New("金额不能为负数")
	ErrPrecision = errors.New("精度超过 1 wei")
	ErrOverflow  = errors.New("数值超出范围")
)

// ParseEther 把十进制 ether 金额 (如 "0.001") 转换为 wei
func ParseEther(s string) (*uint256.Int, error) {
	return parseScaled(s, EtherDecimals, 256)
}

// ParseFee 解析手续费字段，单位 wei。带 gwei 后缀时按 gwei 换算 (如 "1.5gwei")。
// 结果不超过 128 位。
func ParseFee(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if v, ok := strings.CutSuffix(strings.ToLower(s), "gwei"); ok {
		return parseScaled(strings.TrimSpace(v), GweiDecimals, types.MaxFeeBits)
	}
	return parseScaled(strings.TrimSuffix(strings.ToLower(s), "wei"), 0, types.MaxFeeBits)
}

func parseScaled(s string, decimals int32, bits int) (*uint256.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("无法解析金额 %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrNegative, s)
	}

	wei := d.Shift(decimals)
	if !wei.IsInteger() {
		return nil, fmt.Errorf("%w: %s", ErrPrecision, s)
	}

	v, overflow := uint256.FromBig(wei.BigInt())
	if overflow || v.BitLen() > bits {
		return nil, fmt.Errorf("%w: %s 超过 %d 位", ErrOverflow, s, bits)
	}
	return v, nil
}

// FormatEther 把 wei 格式化为 ether，去掉多余的零
func FormatEther(wei *uint256.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei.ToBig(), -EtherDecimals).String()
}
