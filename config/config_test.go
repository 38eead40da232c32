package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeErrorMessage(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	dbErr := errors.New("Error 1045: Access denied for user 'budget'@'localhost'")
	fallback := "导入失败"

	cases := []struct {
		name string
		mode string // "" 表示 GlobalConfig 为 nil
		err  error
		want string
	}{
		{"nil错误返回兜底文案", "release", nil, fallback},
		{"release模式隐藏数据库错误", "release", dbErr, fallback},
		{"debug模式返回原始错误", "debug", dbErr, dbErr.Error()},
		{"配置未初始化按开发环境处理", "", dbErr, dbErr.Error()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.mode == "" {
				GlobalConfig = nil
			} else {
				GlobalConfig = &Config{Server: ServerConfig{Mode: tc.mode}}
			}
			assert.Equal(t, tc.want, SafeErrorMessage(tc.err, fallback))
		})
	}
}

// 没有外部 config.yaml 时走嵌入的默认配置
func TestLoadConfig_EmbeddedDefaults(t *testing.T) {
	defer func() { GlobalConfig = nil }()

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "budget", cfg.Database.DBName)
	assert.Equal(t, 24, cfg.JWT.ExpireHours)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.False(t, cfg.Email.Enabled)
	assert.Same(t, cfg, GlobalConfig)
}
