package envelope_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eth-offline-signer/pkg/envelope"
	"eth-offline-signer/pkg/signer"
	"eth-offline-signer/pkg/wallet/types"
)

const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	testSender    = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testRecipient = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func signWith[P types.Variant](t *testing.T, c types.CommonPayload, v P) types.SignedTransaction[P] {
	t.Helper()
	key, err := signer.ParsePrivateKey([]byte(testKeyHex))
	require.NoError(t, err)
	defer key.Wipe()

	signed, err := signer.Sign(types.Build(c, v), key)
	require.NoError(t, err)
	return signed
}

func basePayload() types.CommonPayload {
	return types.CommonPayload{
		ChainID:  31337,
		Nonce:    0,
		GasLimit: 21000,
		To:       testRecipient,
		Value:    uint256.NewInt(1_000_000_000_000_000),
	}
}

func dynamicFeeTx(t *testing.T) types.SignedTransaction[types.Eip1559Payload] {
	return signWith(t, basePayload(), types.Eip1559Payload{
		MaxFeePerGas:         uint256.NewInt(20_000_000_000),
		MaxPriorityFeePerGas: uint256.NewInt(1_000_000_000),
	})
}

func legacyTx(t *testing.T) types.SignedTransaction[types.LegacyPayload] {
	c := basePayload()
	c.Nonce = 1
	return signWith(t, c, types.LegacyPayload{GasPrice: uint256.NewInt(20_000_000_000)})
}

func TestRoundTrip(t *testing.T) {
	maxFee := new(uint256.Int).Lsh(uint256.NewInt(1), types.MaxFeeBits)
	maxFee.SubUint64(maxFee, 1)
	maxValue := new(uint256.Int).SetAllOne()

	commons := []types.CommonPayload{
		basePayload(),
		{ChainID: 1, Nonce: 1<<64 - 1, GasLimit: 30_000_000, To: testRecipient, Value: maxValue},
		{ChainID: 1<<64 - 1, Nonce: 42, GasLimit: 1, To: common.Address{}, Value: new(uint256.Int)},
	}

	for i, c := range commons {
		dyn := signWith(t, c, types.Eip1559Payload{MaxFeePerGas: maxFee, MaxPriorityFeePerGas: uint256.NewInt(uint64(i))})
		gotDyn, err := envelope.Decode[types.Eip1559Payload](envelope.Encode(dyn).Bytes())
		require.NoError(t, err, "eip1559 #%d", i)
		assert.Equal(t, dyn, gotDyn, "eip1559 #%d", i)

		leg := signWith(t, c, types.LegacyPayload{GasPrice: maxFee})
		gotLeg, err := envelope.Decode[types.LegacyPayload](envelope.Encode(leg).Bytes())
		require.NoError(t, err, "legacy #%d", i)
		assert.Equal(t, leg, gotLeg, "legacy #%d", i)
	}
}

// go-ethereum 的解码器和发送方恢复必须接受我们的编码
func TestEncodeAcceptedByGeth(t *testing.T) {
	for name, env := range map[string]envelope.Encoded{
		"eip1559": envelope.Encode(dynamicFeeTx(t)),
		"legacy":  envelope.Encode(legacyTx(t)),
	} {
		t.Run(name, func(t *testing.T) {
			var gtx gethtypes.Transaction
			require.NoError(t, gtx.UnmarshalBinary(env.Bytes()))
			assert.Equal(t, uint8(env.Type()), gtx.Type())
			assert.Equal(t, gtx.Hash(), env.Hash())

			from, err := gethtypes.Sender(gethtypes.LatestSignerForChainID(gtx.ChainId()), &gtx)
			require.NoError(t, err)
			assert.Equal(t, testSender, from)
		})
	}
}

func TestSender(t *testing.T) {
	from, err := envelope.Sender(dynamicFeeTx(t))
	require.NoError(t, err)
	assert.Equal(t, testSender, from)

	from, err = envelope.Sender(legacyTx(t))
	require.NoError(t, err)
	assert.Equal(t, testSender, from)
}

func TestDecodeVariantMismatch(t *testing.T) {
	dyn := envelope.Encode(dynamicFeeTx(t)).Bytes()
	leg := envelope.Encode(legacyTx(t)).Bytes()

	_, err := envelope.Decode[types.LegacyPayload](dyn)
	assert.ErrorIs(t, err, envelope.ErrVariantMismatch)

	_, err = envelope.Decode[types.Eip1559Payload](leg)
	assert.ErrorIs(t, err, envelope.ErrVariantMismatch)

	// EIP-2930 (0x01) 不是 EIP-1559
	accessListTx := append([]byte{0x01}, dyn[1:]...)
	_, err = envelope.Decode[types.Eip1559Payload](accessListTx)
	assert.ErrorIs(t, err, envelope.ErrVariantMismatch)
}

func TestDecodeTruncatedAndTrailing(t *testing.T) {
	for name, raw := range map[string][]byte{
		"eip1559": envelope.Encode(dynamicFeeTx(t)).Bytes(),
		"legacy":  envelope.Encode(legacyTx(t)).Bytes(),
	} {
		t.Run(name, func(t *testing.T) {
			decode := decoderFor(name)

			for _, cut := range []int{1, 2, 10, len(raw) - 2} {
				assert.ErrorIs(t, decode(raw[:len(raw)-cut]), envelope.ErrTruncated, "cut %d", cut)
			}
			assert.ErrorIs(t, decode(append(bytes.Clone(raw), 0x00)), envelope.ErrTrailingBytes)
			assert.ErrorIs(t, decode(append(bytes.Clone(raw), raw...)), envelope.ErrTrailingBytes)
		})
	}

	_, err := envelope.Decode[types.LegacyPayload](nil)
	assert.ErrorIs(t, err, envelope.ErrTruncated)
	_, err = envelope.Decode[types.Eip1559Payload]([]byte{0x02})
	assert.ErrorIs(t, err, envelope.ErrTruncated)
	_, err = envelope.Decode[types.LegacyPayload]([]byte{0x85, 1, 2, 3, 4, 5})
	assert.ErrorIs(t, err, envelope.ErrMalformed)
}

func decoderFor(name string) func([]byte) error {
	if name == "legacy" {
		return func(b []byte) error {
			_, err := envelope.Decode[types.LegacyPayload](b)
			return err
		}
	}
	return func(b []byte) error {
		_, err := envelope.Decode[types.Eip1559Payload](b)
		return err
	}
}

// rewriteField 替换信封中第 idx 个字段的原始 RLP 编码，重新组装列表
func rewriteField(t *testing.T, raw []byte, idx int, field []byte) []byte {
	t.Helper()
	var prefix []byte
	if raw[0] < 0xc0 {
		prefix, raw = raw[:1], raw[1:]
	}
	content, _, err := rlp.SplitList(raw)
	require.NoError(t, err)

	var fields []rlp.RawValue
	for len(content) > 0 {
		_, _, rest, err := rlp.Split(content)
		require.NoError(t, err)
		fields = append(fields, rlp.RawValue(content[:len(content)-len(rest)]))
		content = rest
	}
	if field == nil {
		fields = fields[:idx]
	} else {
		fields[idx] = field
	}

	out, err := rlp.EncodeToBytes(fields)
	require.NoError(t, err)
	return append(bytes.Clone(prefix), out...)
}

// highS 把签名换成等价的高 s 形式: s' = N - s，recoveryId 取反
func highS[P types.Variant](tx types.SignedTransaction[P]) types.SignedTransaction[P] {
	n := uint256.MustFromBig(crypto.S256().Params().N)
	tx.Signature.S = new(uint256.Int).Sub(n, tx.Signature.S)
	tx.Signature.RecoveryID ^= 1
	return tx
}

func TestDecodeFieldErrors(t *testing.T) {
	dyn := envelope.Encode(dynamicFeeTx(t)).Bytes()
	leg := envelope.Encode(legacyTx(t)).Bytes()
	wide := append([]byte{0x91}, bytes.Repeat([]byte{0xff}, 17)...) // 136 位

	tests := []struct {
		name   string
		legacy bool
		data   []byte
		kind   error
		field  string
	}{
		{"前导零整数", true, rewriteField(t, leg, 0, []byte{0x82, 0x00, 0x01}), envelope.ErrNonCanonical, "nonce"},
		{"单字节非规范编码", false, rewriteField(t, dyn, 1, []byte{0x81, 0x05}), envelope.ErrNonCanonical, ""},
		{"字段缺失", true, rewriteField(t, leg, 8, nil), envelope.ErrFieldCount, ""},
		{"字段缺失 eip1559", false, rewriteField(t, dyn, 11, nil), envelope.ErrFieldCount, ""},
		{"gasPrice 超过 128 位", true, rewriteField(t, leg, 1, wide), envelope.ErrFieldOverflow, "gasPrice"},
		{"maxFeePerGas 超过 128 位", false, rewriteField(t, dyn, 3, wide), envelope.ErrFieldOverflow, "maxFeePerGas"},
		{"合约创建", true, rewriteField(t, leg, 3, []byte{0x80}), envelope.ErrUnsupported, "to"},
		{"地址长度错误", false, rewriteField(t, dyn, 5, append([]byte{0x93}, make([]byte, 19)...)), envelope.ErrMalformed, "to"},
		{"携带 calldata", true, rewriteField(t, leg, 5, []byte{0x82, 0xab, 0xcd}), envelope.ErrUnsupported, "data"},
		{"非空 accessList", false, rewriteField(t, dyn, 8, []byte{0xc1, 0xc0}), envelope.ErrUnsupported, "accessList"},
		{"accessList 不是列表", false, rewriteField(t, dyn, 8, []byte{0x80}), envelope.ErrMalformed, "accessList"},
		{"未保护的 legacy v=27", true, rewriteField(t, leg, 6, []byte{0x1b}), envelope.ErrUnsupported, "v"},
		{"非法 v", true, rewriteField(t, leg, 6, []byte{0x05}), envelope.ErrInvalidSignature, "v"},
		{"yParity=2", false, rewriteField(t, dyn, 9, []byte{0x02}), envelope.ErrInvalidSignature, "yParity"},
		{"r=0", false, rewriteField(t, dyn, 10, []byte{0x80}), envelope.ErrInvalidSignature, "r/s"},
		{"s=0", true, rewriteField(t, leg, 8, []byte{0x80}), envelope.ErrInvalidSignature, "r/s"},
		{"高 s legacy", true, envelope.Encode(highS(legacyTx(t))).Bytes(), envelope.ErrInvalidSignature, "r/s"},
		{"高 s eip1559", false, envelope.Encode(highS(dynamicFeeTx(t))).Bytes(), envelope.ErrInvalidSignature, "r/s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := "eip1559"
			if tt.legacy {
				name = "legacy"
			}
			err := decoderFor(name)(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var decodeErr *envelope.DecodeError
			require.True(t, errors.As(err, &decodeErr))
			assert.Equal(t, tt.field, decodeErr.Field)
		})
	}
}

func TestHexBoundary(t *testing.T) {
	env := envelope.Encode(dynamicFeeTx(t))
	h := env.Hex()
	assert.Equal(t, strings.ToLower(h), h)
	assert.False(t, strings.HasPrefix(h, "0x"))

	for _, in := range []string{h, "0x" + h, "0X" + strings.ToUpper(h), "  0x" + h + "\n"} {
		parsed, err := envelope.FromHex[types.Eip1559Payload](in)
		require.NoError(t, err)
		assert.Equal(t, env.Bytes(), parsed.Bytes())

		tx, err := parsed.Decode()
		require.NoError(t, err)
		assert.Equal(t, uint64(31337), tx.Common.ChainID)
	}

	_, err := envelope.FromHex[types.Eip1559Payload]("0xzz")
	assert.ErrorIs(t, err, envelope.ErrInvalidHex)
	_, err = envelope.FromHex[types.Eip1559Payload](h[:len(h)-1])
	assert.ErrorIs(t, err, envelope.ErrInvalidHex)
}

func TestEnvelopeBytesIsCopy(t *testing.T) {
	env := envelope.Encode(legacyTx(t))
	b := env.Bytes()
	b[0] = 0x00
	assert.NotEqual(t, b[0], env.Bytes()[0])
}

func TestCheck(t *testing.T) {
	dyn := envelope.Encode(dynamicFeeTx(t))
	leg := envelope.Encode(legacyTx(t))

	v, err := envelope.Check(types.DynamicFeeTxType, dyn.Bytes())
	require.NoError(t, err)
	assert.Equal(t, testSender, v.From)
	assert.Equal(t, testRecipient, v.To)
	assert.Equal(t, dyn.Hash(), v.Envelope.Hash())
	assert.Equal(t, types.DynamicFeeTxType, v.Envelope.Type())

	v, err = envelope.Check(types.LegacyTxType, leg.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint64(31337), v.ChainID)
	assert.Equal(t, uint64(1), v.Nonce)

	_, err = envelope.Check(types.LegacyTxType, dyn.Bytes())
	assert.ErrorIs(t, err, envelope.ErrVariantMismatch)

	_, err = envelope.Check(types.TxType(0x01), dyn.Bytes())
	assert.ErrorIs(t, err, envelope.ErrUnsupported)
}

func TestCheckHex(t *testing.T) {
	leg := envelope.Encode(legacyTx(t))

	v, err := envelope.CheckHex(types.LegacyTxType, " 0X"+strings.ToUpper(leg.Hex())+"\n")
	require.NoError(t, err)
	assert.Equal(t, leg.Hash(), v.Envelope.Hash())

	_, err = envelope.CheckHex(types.LegacyTxType, "0xzz")
	assert.ErrorIs(t, err, envelope.ErrInvalidHex)
}

func TestCheckRejectsHighS(t *testing.T) {
	honest := legacyTx(t)
	raw := envelope.Encode(highS(honest)).Bytes()

	// go-ethereum 同样拒绝
	var gtx gethtypes.Transaction
	require.NoError(t, gtx.UnmarshalBinary(raw))
	_, err := gethtypes.Sender(gethtypes.LatestSignerForChainID(gtx.ChainId()), &gtx)
	require.Error(t, err)

	v, err := envelope.Check(types.LegacyTxType, raw)
	assert.Nil(t, v)
	assert.ErrorIs(t, err, envelope.ErrInvalidSignature)
}
