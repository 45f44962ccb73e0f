package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"grade-planner/backend/config"
	"grade-planner/backend/pkg/jwt"
)

var (
	tokenUser string
	tokenRole string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "签发本地调试用 Access Token",
	Long: `使用服务配置中的 auth.jwt_secret 签发 Access Token。
生产环境的 Token 由门户认证服务签发，此命令仅用于本地联调。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return runToken(cmd.OutOrStdout(), &cfg.Auth, tokenUser, tokenRole, tokenTTL)
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "用户 ID")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "student", "角色")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "有效期")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(w io.Writer, auth *config.AuthConfig, userID, role string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl 必须大于 0")
	}
	token, err := jwt.NewManager(auth).GenerateAccessToken(userID, role, ttl)
	if err != nil {
		return fmt.Errorf("签发 Token 失败: %w", err)
	}
	if jsonOutput {
		return outputJSON(w, map[string]string{
			"token":      token,
			"expires_at": time.Now().Add(ttl).UTC().Format(time.RFC3339),
		})
	}
	fmt.Fprintln(w, token)
	return nil
}
