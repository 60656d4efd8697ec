package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func newMarkdownHelpCmd(root *cobra.Command) *cobra.Command {
	docsCmd := &cobra.Command{
		Use:   "markdown-help",
		Short: "生成 Markdown 格式的命令文档",
		Long:  `不带 --dir 时把所有命令的文档依次输出到 stdout；带 --dir 时每个命令生成一个文件。`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root.DisableAutoGenTag = true
			dir, _ := cmd.Flags().GetString("dir")
			if dir != "" {
				if err := doc.GenMarkdownTree(root, dir); err != nil {
					return fmt.Errorf("生成文档失败: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "✅ 文档已生成到 %s\n", dir)
				return nil
			}
			return genMarkdown(root, cmd.OutOrStdout())
		},
	}
	docsCmd.Flags().String("dir", "", "输出目录")
	return docsCmd
}

func genMarkdown(c *cobra.Command, w io.Writer) error {
	if err := doc.GenMarkdown(c, w); err != nil {
		return err
	}
	for _, child := range c.Commands() {
		if !child.IsAvailableCommand() || child.IsAdditionalHelpTopicCommand() {
			continue
		}
		if err := genMarkdown(child, w); err != nil {
			return err
		}
	}
	return nil
}
