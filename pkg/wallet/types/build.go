package types

import "github.com/holiman/uint256"

// Build 把公共字段和类型专属字段组合成未签名交易。
// 纯函数，没有失败路径：类型系统保证每种 Variant 都能组合出合法交易。
// 所有 256 位数值都会被复制，nil 视为 0，调用方之后修改入参不会影响结果。
func Build[P Variant](common CommonPayload, variant P) UnsignedTransaction[P] {
	common.Value = copyOrZero(common.Value)
	return UnsignedTransaction[P]{
		Common:  common,
		Variant: normalize(variant),
	}
}

func normalize[P Variant](variant P) P {
	switch v := any(variant).(type) {
	case Eip1559Payload:
		v.MaxFeePerGas = copyOrZero(v.MaxFeePerGas)
		v.MaxPriorityFeePerGas = copyOrZero(v.MaxPriorityFeePerGas)
		return any(v).(P)
	case LegacyPayload:
		v.GasPrice = copyOrZero(v.GasPrice)
		return any(v).(P)
	default:
		panic("types: unreachable variant")
	}
}

func copyOrZero(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(x)
}
