package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"eth-offline-signer/internal/service"
	"eth-offline-signer/pkg/envelope"
	"eth-offline-signer/pkg/errno"
	"eth-offline-signer/pkg/wallet/types"
)

func newSubmitCmd() *cobra.Command {
	submitCmd := &cobra.Command{
		Use:       "submit <eip1559|legacy>",
		Short:     "广播已签名的交易 (Online)",
		Long:      `校验已签名交易的 hex 与声明的类型一致，然后通过 eth_sendRawTransaction 广播，输出交易哈希。`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"eip1559", "legacy"},
		RunE: func(cmd *cobra.Command, args []string) error {
			txType, err := types.ParseTxType(args[0])
			if err != nil {
				return errno.ErrInvalidArgument.WithCause(err)
			}
			signedHex, _ := cmd.Flags().GetString("signed-hex")
			url, err := rpcURL(cmd)
			if err != nil {
				return err
			}

			// 1. 重新校验跨越边界的字节
			verified, err := envelope.CheckHex(txType, signedHex)
			if err != nil {
				return err
			}

			// 2. 连接节点并广播
			client, closeFn, err := dialRPC(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer closeFn()

			hash, err := service.NewSubmitter(client).Submit(cmd.Context(), verified.Envelope)
			if err != nil {
				if hash != (common.Hash{}) {
					fmt.Fprintf(cmd.ErrOrStderr(), "TxHash: %s (节点端结果未知时可用 confirm 查询)\n", hash.Hex())
				}
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "✅ 广播成功! From: %s Nonce: %d\n", verified.From.Hex(), verified.Nonce)
			fmt.Fprintln(cmd.OutOrStdout(), hash.Hex())
			return nil
		},
	}

	submitCmd.Flags().String("signed-hex", "", "sign 命令输出的已签名交易 hex")
	_ = submitCmd.MarkFlagRequired("signed-hex")
	addRPCFlag(submitCmd)
	return submitCmd
}
