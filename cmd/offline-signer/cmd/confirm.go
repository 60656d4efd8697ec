package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"eth-offline-signer/internal/service"
	"eth-offline-signer/pkg/errno"
)

func newConfirmCmd() *cobra.Command {
	confirmCmd := &cobra.Command{
		Use:   "confirm",
		Short: "等待交易上链并输出回执 (Online)",
		Long: `按固定间隔轮询 eth_getTransactionReceipt，直到拿到回执。
默认没有超时，可以用 --timeout 设置最长等待时间。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hashHex, _ := cmd.Flags().GetString("tx-hash")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			raw, err := hexutil.Decode(hashHex)
			if err != nil || len(raw) != common.HashLength {
				return errno.ErrInvalidArgument.WithMessage(fmt.Sprintf("--tx-hash 必须是 0x 开头的 32 字节 hex: %q", hashHex))
			}
			if err := viper.BindPFlag("rpc.poll_interval", cmd.Flags().Lookup("interval")); err != nil {
				return err
			}
			url, err := rpcURL(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			client, closeFn, err := dialRPC(ctx, url)
			if err != nil {
				return err
			}
			defer closeFn()

			confirmer := service.NewConfirmer(client, viper.GetDuration("rpc.poll_interval"))
			receipt, err := confirmer.Confirm(ctx, common.BytesToHash(raw))
			if err != nil {
				return err
			}

			if !receipt.Succeeded() {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  交易已上链但执行失败 (block %d)\n", receipt.BlockNumber)
			}
			out, err := json.MarshalIndent(receipt, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	confirmCmd.Flags().String("tx-hash", "", "交易哈希")
	confirmCmd.Flags().Duration("timeout", 0, "最长等待时间，0 表示一直等待")
	confirmCmd.Flags().Duration("interval", time.Second, "轮询间隔 (默认取配置 rpc.poll_interval)")
	_ = confirmCmd.MarkFlagRequired("tx-hash")
	addRPCFlag(confirmCmd)
	return confirmCmd
}
