package service

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/mock"
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

// mockClient chain.Client 的 testify mock
type mockClient struct {
	mock.Mock
}

func (m *mockClient) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(common.Hash), args.Error(1)
}

func (m *mockClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, hash)
	r, _ := args.Get(0).(*types.Receipt)
	return r, args.Error(1)
}

func signEip1559(t *testing.T, nonce uint64) envelope.Envelope[types.Eip1559Payload] {
	t.Helper()
	var env envelope.Envelope[types.Eip1559Payload]
	err := signer.WithPrivateKey([]byte(testKeyHex), func(key *signer.PrivateKey) error {
		var err error
		env, err = signer.SignAndEncode(types.Build(
			types.CommonPayload{ChainID: 31337, Nonce: nonce, GasLimit: 21000, To: testRecipient, Value: uint256.NewInt(1_000_000_000_000_000)},
			types.Eip1559Payload{MaxFeePerGas: uint256.NewInt(20_000_000_000), MaxPriorityFeePerGas: uint256.NewInt(1_000_000_000)},
		), key)
		return err
	})
	require.NoError(t, err)
	return env
}

func signLegacy(t *testing.T, nonce uint64) envelope.Envelope[types.LegacyPayload] {
	t.Helper()
	var env envelope.Envelope[types.LegacyPayload]
	err := signer.WithPrivateKey([]byte(testKeyHex), func(key *signer.PrivateKey) error {
		var err error
		env, err = signer.SignAndEncode(types.Build(
			types.CommonPayload{ChainID: 31337, Nonce: nonce, GasLimit: 21000, To: testRecipient, Value: uint256.NewInt(1_000_000_000_000_000)},
			types.LegacyPayload{GasPrice: uint256.NewInt(20_000_000_000)},
		), key)
		return err
	})
	require.NoError(t, err)
	return env
}
