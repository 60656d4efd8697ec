package chain_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eth-offline-signer/internal/chain/chaintest"
	"eth-offline-signer/pkg/envelope"
	"eth-offline-signer/pkg/signer"
	"eth-offline-signer/pkg/wallet/types"
)

const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	testSender    = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	testRecipient = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func signed(t *testing.T, nonce uint64, legacy bool) envelope.Encoded {
	t.Helper()
	key, err := signer.ParsePrivateKey([]byte(testKeyHex))
	require.NoError(t, err)
	defer key.Wipe()

	c := types.CommonPayload{ChainID: 31337, Nonce: nonce, GasLimit: 21000, To: testRecipient, Value: uint256.NewInt(1000)}
	if legacy {
		env, err := signer.SignAndEncode(types.Build(c, types.LegacyPayload{GasPrice: uint256.NewInt(20_000_000_000)}), key)
		require.NoError(t, err)
		return env
	}
	env, err := signer.SignAndEncode(types.Build(c, types.Eip1559Payload{
		MaxFeePerGas:         uint256.NewInt(20_000_000_000),
		MaxPriorityFeePerGas: uint256.NewInt(1_000_000_000),
	}), key)
	require.NoError(t, err)
	return env
}

// 两种交易类型都通过 eth_sendRawTransaction 原样提交
func TestSendRawTransactionBothVariants(t *testing.T) {
	node := chaintest.NewNode(31337)
	client := node.Start(t)
	ctx := context.Background()

	for i, legacy := range []bool{false, true} {
		env := signed(t, uint64(i), legacy)
		hash, err := client.SendRawTransaction(ctx, env.Bytes())
		require.NoError(t, err)
		assert.Equal(t, env.Hash(), hash)
	}

	sent := node.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, byte(0x02), sent[0][0])
	assert.GreaterOrEqual(t, sent[1][0], byte(0xc0))
}

func TestSendRawTransactionRejected(t *testing.T) {
	node := chaintest.NewNode(31337)
	node.RejectWith = "insufficient funds for gas * price + value"
	client := node.Start(t)

	_, err := client.SendRawTransaction(context.Background(), signed(t, 0, false).Bytes())
	require.Error(t, err)
	assert.Equal(t, "insufficient funds for gas * price + value", err.Error())
}

func TestTransactionReceipt(t *testing.T) {
	node := chaintest.NewNode(31337)
	node.PendingPolls = 1
	client := node.Start(t)
	ctx := context.Background()

	// 未知交易
	r, err := client.TransactionReceipt(ctx, common.HexToHash("0x01"))
	require.NoError(t, err)
	assert.Nil(t, r)

	env := signed(t, 0, true)
	hash, err := client.SendRawTransaction(ctx, env.Bytes())
	require.NoError(t, err)

	// 第一次查询仍在 pending
	r, err = client.TransactionReceipt(ctx, hash)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = client.TransactionReceipt(ctx, hash)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.True(t, r.Succeeded())
	assert.Equal(t, hash, r.TransactionHash)
	assert.Equal(t, testSender, r.From)
	require.NotNil(t, r.To)
	assert.Equal(t, testRecipient, *r.To)
	assert.Equal(t, uint64(1), r.BlockNumber)
	assert.Equal(t, uint64(21000), r.GasUsed)
	assert.Equal(t, types.LegacyTxType, r.Type)
	assert.Equal(t, int64(20_000_000_000), r.EffectiveGasPrice.Int64())
}

func TestTransactionReceiptError(t *testing.T) {
	node := chaintest.NewNode(31337)
	node.ReceiptErr = assert.AnError
	client := node.Start(t)

	_, err := client.TransactionReceipt(context.Background(), common.HexToHash("0x01"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), assert.AnError.Error())
}
