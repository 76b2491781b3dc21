package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// DefaultConfigPath 当前目录下的 config/config.yaml
func DefaultConfigPath() (string, error) {
	return filepath.Abs(filepath.Join("config", "config.yaml"))
}

// WriteFile 以 YAML 写出完整配置
func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("cfg 不能为空")
	}
	if path == "" {
		return fmt.Errorf("path 不能为空")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	payload := map[string]any{
		"app": map[string]any{
			"name":      cfg.App.Name,
			"version":   cfg.App.Version,
			"log_level": cfg.App.LogLevel,
			"log_path":  cfg.App.LogPath,
		},
		"storage": map[string]any{
			"db_path": cfg.Storage.DBPath,
		},
		"source": map[string]any{
			"dir":         cfg.Source.Dir,
			"page_size":   cfg.Source.PageSize,
			"watch":       cfg.Source.Watch,
			"debounce_ms": cfg.Source.DebounceMs,
		},
		"sync": map[string]any{
			"interval_sec":       cfg.Sync.IntervalSec,
			"max_retries":        cfg.Sync.MaxRetries,
			"initial_backoff_ms": cfg.Sync.InitialBackoffMs,
			"max_backoff_ms":     cfg.Sync.MaxBackoffMs,
		},
		"http": map[string]any{
			"enabled":     cfg.HTTP.Enabled,
			"listen_addr": cfg.HTTP.ListenAddr,
		},
	}

	b, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
