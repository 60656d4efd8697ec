package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"eth-offline-signer/internal/service"
	"eth-offline-signer/pkg/config"
	"eth-offline-signer/pkg/errno"
	"eth-offline-signer/pkg/logger"
)

// NewRootCmd 构建完整的命令树
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "offline-signer",
		Short: "以太坊离线签名工具",
		Long: `离线构造并签名以太坊交易 (EIP-1559 / Legacy EIP-155)，
之后在联网环境中广播已签名的交易并等待上链。

私钥只在 sign 命令中使用，submit 和 confirm 只接触已签名的交易字节。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("app.log_level", cmd.Root().PersistentFlags().Lookup("log-level")); err != nil {
				return err
			}
			if err := config.Init(); err != nil {
				return err
			}
			return logger.Init(config.Global.App.Env, config.Global.App.LogLevel)
		},
	}

	rootCmd.PersistentFlags().String("log-level", "", "日志级别 (debug/info/warn/error)，默认取配置")

	rootCmd.AddCommand(
		newSignCmd(),
		newSubmitCmd(),
		newConfirmCmd(),
		newMarkdownHelpCmd(rootCmd),
	)
	return rootCmd
}

// Execute 执行命令。失败时打印完整的错误链和错误码，并以非零状态退出。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		code, msg := errno.Decode(service.ToErrno(err))
		fmt.Fprintf(os.Stderr, "❌ [%d] %s\n", code, msg)
		stop()
		os.Exit(1)
	}
}
