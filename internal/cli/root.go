package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// 全局参数
	jsonOutput bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:     "planctl",
	Version: "dev",
	Short:   "选课组合规划命令行工具",
	Long: `planctl 在本地对课程目录文件做组合生成与冲突检查，
并提供目录导入与调试 Token 签发等运维命令。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// SetVersion 由 main 注入构建版本
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "以 JSON 输出")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "服务配置文件路径（import / token 使用）")

	rootCmd.AddGroup(&cobra.Group{ID: "planning", Title: "本地规划:"})
	rootCmd.AddGroup(&cobra.Group{ID: "ops", Title: "运维:"})

	combosCmd.GroupID = "planning"
	conflictsCmd.GroupID = "planning"
	rootCmd.AddCommand(combosCmd)
	rootCmd.AddCommand(conflictsCmd)

	importCmd.GroupID = "ops"
	tokenCmd.GroupID = "ops"
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(tokenCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "打印版本号",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

// Execute 执行根命令
func Execute() error {
	return rootCmd.Execute()
}
