package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: config-test-secret-0123
planner:
  combination_cap: 50
  generation_timeout: 2s
  term_start: "2025-09-01"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Planner.CombinationCap != 50 {
		t.Errorf("期望 combination_cap=50，实际 %d", cfg.Planner.CombinationCap)
	}
	if cfg.Planner.GenerationTimeout != 2*time.Second {
		t.Errorf("期望 generation_timeout=2s，实际 %v", cfg.Planner.GenerationTimeout)
	}
	if cfg.Planner.SessionTTL != 24*time.Hour {
		t.Errorf("期望默认 session_ttl=24h，实际 %v", cfg.Planner.SessionTTL)
	}
	if len(cfg.Planner.Palette) != len(DefaultPalette) {
		t.Errorf("期望默认调色板 %d 色，实际 %d", len(DefaultPalette), len(cfg.Planner.Palette))
	}
	if cfg.Server.Port != 8080 || cfg.Database.Name != "grade_planner" {
		t.Errorf("默认值不符: port=%d db=%s", cfg.Server.Port, cfg.Database.Name)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")
	t.Setenv("PLANNER_AUTH_JWT_SECRET", "env-secret-0123456789")
	t.Setenv("PLANNER_SERVER_PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.JWTSecret != "env-secret-0123456789" {
		t.Errorf("环境变量未覆盖 jwt_secret: %q", cfg.Auth.JWTSecret)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("环境变量未覆盖 port: %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("期望 log.level=debug，实际 %s", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8080},
			Auth:    AuthConfig{JWTSecret: "0123456789abcdef"},
			Planner: PlannerConfig{CombinationCap: 100, Palette: DefaultPalette},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"合法", func(*Config) {}, ""},
		{"缺少密钥", func(c *Config) { c.Auth.JWTSecret = "" }, "jwt_secret 不能为空"},
		{"密钥过短", func(c *Config) { c.Auth.JWTSecret = "short" }, "不能少于 16"},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"上限为 0", func(c *Config) { c.Planner.CombinationCap = 0 }, "combination_cap"},
		{"调色板为空", func(c *Config) { c.Planner.Palette = nil }, "palette"},
		{"学期起始日期格式", func(c *Config) { c.Planner.TermStart = "2025/09/01" }, "term_start"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("期望通过，实际 %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("期望错误包含 %q，实际 %v", tt.wantErr, err)
			}
		})
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable", Timezone: "UTC"}
	want := "host=db port=5432 user=u password=p dbname=n sslmode=disable TimeZone=UTC"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
