package cmd

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"eth-offline-signer/pkg/errno"
	"eth-offline-signer/pkg/signer"
	"eth-offline-signer/pkg/units"
	"eth-offline-signer/pkg/wallet/types"
)

func newSignCmd() *cobra.Command {
	signCmd := &cobra.Command{
		Use:   "sign",
		Short: "离线签名交易 (Offline)",
		Long: `构造并签名一笔 ETH 转账，输出已签名交易的 hex (小写，不带 0x)。

私钥从环境变量 PRIVATE_KEY (或 .env) 读取；未设置时在终端中无回显输入。
该命令不会访问网络。`,
	}

	signCmd.PersistentFlags().Uint64("chain-id", 0, "Chain ID (1=Mainnet, 11155111=Sepolia, 31337=Anvil)")
	signCmd.PersistentFlags().Uint64("nonce", 0, "发送方账户的 Nonce")
	signCmd.PersistentFlags().Uint64("gas-limit", 21000, "Gas Limit")
	signCmd.PersistentFlags().String("to", "", "接收方地址")
	signCmd.PersistentFlags().String("eth", "", "转账金额，单位 ether (例如 0.001)")
	_ = signCmd.MarkPersistentFlagRequired("chain-id")
	_ = signCmd.MarkPersistentFlagRequired("nonce")
	_ = signCmd.MarkPersistentFlagRequired("to")
	_ = signCmd.MarkPersistentFlagRequired("eth")

	eip1559Cmd := &cobra.Command{
		Use:   "eip1559",
		Short: "签名 EIP-1559 (Type-2) 交易",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := commonPayload(cmd)
			if err != nil {
				return err
			}
			maxFee, err := feeFlag(cmd, "max-fee-per-gas")
			if err != nil {
				return err
			}
			tip, err := feeFlag(cmd, "max-priority-fee-per-gas")
			if err != nil {
				return err
			}
			return signAndPrint(cmd, types.Build(base, types.Eip1559Payload{
				MaxFeePerGas:         maxFee,
				MaxPriorityFeePerGas: tip,
			}))
		},
	}
	eip1559Cmd.Flags().String("max-fee-per-gas", "", "每单位 gas 愿意支付的最高费用 (wei，或带 gwei 后缀)")
	eip1559Cmd.Flags().String("max-priority-fee-per-gas", "", "给出块者的小费上限 (wei，或带 gwei 后缀)")
	_ = eip1559Cmd.MarkFlagRequired("max-fee-per-gas")
	_ = eip1559Cmd.MarkFlagRequired("max-priority-fee-per-gas")

	legacyCmd := &cobra.Command{
		Use:   "legacy",
		Short: "签名 Legacy (EIP-155) 交易",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := commonPayload(cmd)
			if err != nil {
				return err
			}
			gasPrice, err := feeFlag(cmd, "gas-price")
			if err != nil {
				return err
			}
			return signAndPrint(cmd, types.Build(base, types.LegacyPayload{GasPrice: gasPrice}))
		},
	}
	legacyCmd.Flags().String("gas-price", "", "Gas 价格 (wei，或带 gwei 后缀)")
	_ = legacyCmd.MarkFlagRequired("gas-price")

	signCmd.AddCommand(eip1559Cmd, legacyCmd)
	return signCmd
}

// commonPayload 读取并校验公共参数
func commonPayload(cmd *cobra.Command) (types.CommonPayload, error) {
	flags := cmd.Flags()
	chainID, _ := flags.GetUint64("chain-id")
	nonce, _ := flags.GetUint64("nonce")
	gasLimit, _ := flags.GetUint64("gas-limit")
	to, _ := flags.GetString("to")
	eth, _ := flags.GetString("eth")

	if chainID == 0 {
		return types.CommonPayload{}, errno.ErrInvalidArgument.WithMessage("--chain-id 不能为 0")
	}
	toAddr, err := parseAddress(to)
	if err != nil {
		return types.CommonPayload{}, err
	}
	value, err := units.ParseEther(eth)
	if err != nil {
		return types.CommonPayload{}, errno.ErrInvalidArgument.WithCause(fmt.Errorf("--eth: %w", err))
	}

	return types.CommonPayload{
		ChainID:  chainID,
		Nonce:    nonce,
		GasLimit: gasLimit,
		To:       toAddr,
		Value:    value,
	}, nil
}

// parseAddress 接受 0x 开头的 20 字节地址。大小写混合时必须是正确的 EIP-55 校验和。
func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errno.ErrInvalidArgument.WithMessage(fmt.Sprintf("--to 不是合法地址: %q", s))
	}
	addr := common.HexToAddress(s)
	body := s[len(s)-40:]
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex()[2:] != body {
		return common.Address{}, errno.ErrInvalidArgument.WithMessage(fmt.Sprintf("--to 地址校验和错误: %q", s))
	}
	return addr, nil
}

func feeFlag(cmd *cobra.Command, name string) (*uint256.Int, error) {
	s, _ := cmd.Flags().GetString(name)
	v, err := units.ParseFee(s)
	if err != nil {
		return nil, errno.ErrInvalidArgument.WithCause(fmt.Errorf("--%s: %w", name, err))
	}
	return v, nil
}

func signAndPrint[P types.Variant](cmd *cobra.Command, unsigned types.UnsignedTransaction[P]) error {
	hexKey, err := readPrivateKey(cmd)
	if err != nil {
		return err
	}

	return signer.WithPrivateKey(hexKey, func(key *signer.PrivateKey) error {
		env, err := signer.SignAndEncode(unsigned, key)
		if err != nil {
			return err
		}
		from, _ := key.Address()

		// 摘要写到 stderr，stdout 只输出 hex，方便管道使用
		stderr := cmd.ErrOrStderr()
		fmt.Fprintln(stderr, "================ 已签名交易 ================")
		fmt.Fprintf(stderr, "Type:    %s\n", unsigned.TxType())
		fmt.Fprintf(stderr, "ChainID: %d\n", unsigned.Common.ChainID)
		fmt.Fprintf(stderr, "From:    %s\n", from.Hex())
		fmt.Fprintf(stderr, "To:      %s\n", unsigned.Common.To.Hex())
		fmt.Fprintf(stderr, "Value:   %s ETH\n", units.FormatEther(unsigned.Common.Value))
		fmt.Fprintf(stderr, "Nonce:   %d\n", unsigned.Common.Nonce)
		fmt.Fprintf(stderr, "TxHash:  %s\n", env.Hash().Hex())
		fmt.Fprintln(stderr, "============================================")

		fmt.Fprintln(cmd.OutOrStdout(), env.Hex())
		return nil
	})
}
