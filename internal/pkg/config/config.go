package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/yuqie6/QuestIndexer/internal/repository/dbretry"
)

// EnvPrefix 环境变量前缀，例如 QUEST_SYNC_INTERVAL_SEC
const EnvPrefix = "QUEST"

// Config 应用配置
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Storage StorageConfig `mapstructure:"storage"`
	Source  SourceConfig  `mapstructure:"source"`
	Sync    SyncConfig    `mapstructure:"sync"`
	HTTP    HTTPConfig    `mapstructure:"http"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// SourceConfig 事件源配置
type SourceConfig struct {
	Dir        string `mapstructure:"dir"`
	PageSize   int    `mapstructure:"page_size"`
	Watch      bool   `mapstructure:"watch"`
	DebounceMs int    `mapstructure:"debounce_ms"`
}

// SyncConfig 同步配置
type SyncConfig struct {
	IntervalSec      int `mapstructure:"interval_sec"`
	MaxRetries       int `mapstructure:"max_retries"`
	InitialBackoffMs int `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `mapstructure:"max_backoff_ms"`
}

// HTTPConfig 读模型 API 配置
type HTTPConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// Interval 同步周期
func (c SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSec) * time.Second
}

// RetryPolicy 暂时性存储错误的重试参数
func (c SyncConfig) RetryPolicy() dbretry.Policy {
	return dbretry.Policy{
		MaxRetries:      uint64(c.MaxRetries),
		InitialInterval: time.Duration(c.InitialBackoffMs) * time.Millisecond,
		MaxInterval:     time.Duration(c.MaxBackoffMs) * time.Millisecond,
	}
}

// Debounce 目录监听防抖时间
func (c SourceConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Load 加载配置：默认值 < 配置文件 < .env / 环境变量
func Load(configPath string) (*Config, error) {
	// .env 只补充未设置的环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("读取 .env 失败", "error", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	baseDir := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		slog.Warn("配置文件未找到，使用默认配置")
	} else {
		baseDir = filepath.Dir(v.ConfigFileUsed())
		slog.Info("加载配置文件", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 相对路径以配置文件所在目录为基准
	cfg.Storage.DBPath = resolvePath(baseDir, cfg.Storage.DBPath)
	cfg.Source.Dir = resolvePath(baseDir, cfg.Source.Dir)
	cfg.App.LogPath = resolvePath(baseDir, cfg.App.LogPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 默认配置（不读文件与环境变量）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "quest-indexer")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_path", "")

	v.SetDefault("storage.db_path", "./data/quest.db")

	v.SetDefault("source.dir", "./events")
	v.SetDefault("source.page_size", 500)
	v.SetDefault("source.watch", true)
	v.SetDefault("source.debounce_ms", 500)

	v.SetDefault("sync.interval_sec", 10)
	v.SetDefault("sync.max_retries", 5)
	v.SetDefault("sync.initial_backoff_ms", 200)
	v.SetDefault("sync.max_backoff_ms", 5000)

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.listen_addr", "127.0.0.1:8787")
}

// Validate 校验取值范围
func (c *Config) Validate() error {
	var errs []error
	if c.Storage.DBPath == "" {
		errs = append(errs, fmt.Errorf("storage.db_path 不能为空"))
	}
	if c.Source.Dir == "" {
		errs = append(errs, fmt.Errorf("source.dir 不能为空"))
	}
	if c.Source.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("source.page_size 必须大于 0"))
	}
	if c.Sync.IntervalSec <= 0 {
		errs = append(errs, fmt.Errorf("sync.interval_sec 必须大于 0"))
	}
	if c.Sync.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("sync.max_retries 不能为负数"))
	}
	if c.Sync.MaxBackoffMs < c.Sync.InitialBackoffMs {
		errs = append(errs, fmt.Errorf("sync.max_backoff_ms 不能小于 initial_backoff_ms"))
	}
	if c.HTTP.Enabled && c.HTTP.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("http.listen_addr 不能为空"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}
	return nil
}

// resolvePath 相对路径拼接到 baseDir；baseDir 为空时保持相对当前目录
func resolvePath(baseDir, path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}
