package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const privateKeyEnv = "PRIVATE_KEY"

// readPrivateKey 优先读取环境变量 PRIVATE_KEY (读取后立即从进程环境中删除)，
// 否则在终端中无回显输入
func readPrivateKey(cmd *cobra.Command) ([]byte, error) {
	if v, ok := os.LookupEnv(privateKeyEnv); ok && v != "" {
		_ = os.Unsetenv(privateKeyEnv)
		return []byte(v), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("未设置 PRIVATE_KEY，且标准输入不是终端，无法输入私钥")
	}

	fmt.Fprint(cmd.ErrOrStderr(), "请输入私钥 (hex): ")
	key, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("读取私钥失败: %w", err)
	}
	return key, nil
}
