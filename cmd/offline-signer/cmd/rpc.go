package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"eth-offline-signer/internal/chain"
	"eth-offline-signer/pkg/config"
	"eth-offline-signer/pkg/errno"
)

// dialRPC 连接节点，测试中会被替换为进程内节点
var dialRPC = func(ctx context.Context, url string) (chain.Client, func(), error) {
	if timeout := config.Global.RPC.DialTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	c, err := chain.Dial(ctx, url)
	if err != nil {
		return nil, nil, errno.ErrRPCUnavailable.WithCause(err)
	}
	return c, c.Close, nil
}

func addRPCFlag(cmd *cobra.Command) {
	cmd.Flags().String("rpc-url", "", "RPC 节点地址 (默认取环境变量 RPC_URL)")
}

// rpcURL flag > RPC_URL > config.yaml
func rpcURL(cmd *cobra.Command) (string, error) {
	if err := viper.BindPFlag("rpc.url", cmd.Flags().Lookup("rpc-url")); err != nil {
		return "", err
	}
	url := viper.GetString("rpc.url")
	if url == "" {
		return "", errno.ErrInvalidArgument.WithMessage("需要 --rpc-url 或环境变量 RPC_URL")
	}
	return url, nil
}
