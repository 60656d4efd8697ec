package types

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCopiesAndNormalizes(t *testing.T) {
	value := uint256.NewInt(100)
	fee := uint256.NewInt(7)

	tx := Build(CommonPayload{ChainID: 1, To: common.HexToAddress("0x01"), Value: value}, Eip1559Payload{MaxFeePerGas: fee})

	// 修改入参不影响已构建的交易
	value.SetUint64(1)
	fee.SetUint64(1)
	assert.Equal(t, uint64(100), tx.Common.Value.Uint64())
	assert.Equal(t, uint64(7), tx.Variant.MaxFeePerGas.Uint64())

	// nil 视为 0
	require.NotNil(t, tx.Variant.MaxPriorityFeePerGas)
	assert.True(t, tx.Variant.MaxPriorityFeePerGas.IsZero())
	assert.Equal(t, DynamicFeeTxType, tx.TxType())

	legacy := Build(CommonPayload{}, LegacyPayload{})
	require.NotNil(t, legacy.Common.Value)
	require.NotNil(t, legacy.Variant.GasPrice)
	assert.Equal(t, LegacyTxType, legacy.TxType())
}

func TestSignedTransactionV(t *testing.T) {
	legacy := SignedTransaction[LegacyPayload]{
		UnsignedTransaction: Build(CommonPayload{ChainID: 31337}, LegacyPayload{}),
		Signature:           Signature{RecoveryID: 1},
	}
	assert.Equal(t, uint64(31337*2+35+1), legacy.V().Uint64())

	dyn := SignedTransaction[Eip1559Payload]{
		UnsignedTransaction: Build(CommonPayload{ChainID: 31337}, Eip1559Payload{}),
		Signature:           Signature{RecoveryID: 1},
	}
	assert.Equal(t, uint64(1), dyn.V().Uint64())

	// chainId 接近 2^64 时 v 超过 64 位，不能溢出
	legacy.Common.ChainID = 1<<64 - 1
	want := new(uint256.Int).Lsh(uint256.NewInt(1<<64-1), 1)
	want.AddUint64(want, 36)
	assert.Equal(t, want, legacy.V())
}

func TestParseTxType(t *testing.T) {
	for in, want := range map[string]TxType{
		"eip1559":  DynamicFeeTxType,
		"EIP-1559": DynamicFeeTxType,
		" legacy ": LegacyTxType,
		"type0":    LegacyTxType,
	} {
		got, err := ParseTxType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTxType("eip2930")
	assert.Error(t, err)
	assert.Equal(t, "unknown(0x01)", TxType(1).String())
}

func TestTxTypeJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Type TxType `json:"type"`
	}{DynamicFeeTxType})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"eip1559"}`, string(b))

	var out struct {
		Type TxType `json:"type"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"type":"legacy"}`), &out))
	assert.Equal(t, LegacyTxType, out.Type)
}

func TestFitsFee(t *testing.T) {
	limit := new(uint256.Int).Lsh(uint256.NewInt(1), MaxFeeBits)
	assert.False(t, FitsFee(limit))
	assert.True(t, FitsFee(limit.SubUint64(limit, 1)))
	assert.True(t, FitsFee(nil))
}

func TestReceiptStatusJSON(t *testing.T) {
	r := Receipt{Status: ReceiptStatusSuccessful}
	b, err := json.Marshal(r)
	require.NoError(t, err)

	var back Receipt
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Succeeded())

	var s ReceiptStatus
	assert.Error(t, s.UnmarshalText([]byte("pending")))
}
