package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Sync.Interval() != 10*time.Second {
		t.Fatalf("interval=%v", cfg.Sync.Interval())
	}
	p := cfg.Sync.RetryPolicy()
	if p.MaxRetries != 5 || p.InitialInterval != 200*time.Millisecond || p.MaxInterval != 5*time.Second {
		t.Fatalf("unexpected retry policy: %+v", p)
	}
}

func TestWriteFileThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config", "config.yaml")

	cfg := Default()
	cfg.Source.PageSize = 42
	cfg.HTTP.ListenAddr = "127.0.0.1:9999"
	if err := WriteFile(path, cfg); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Source.PageSize != 42 || got.HTTP.ListenAddr != "127.0.0.1:9999" {
		t.Fatalf("unexpected config: %+v", got)
	}
	// 相对路径以配置文件目录为基准
	want := filepath.Join(filepath.Dir(path), "data", "quest.db")
	if got.Storage.DBPath != want {
		t.Fatalf("db_path=%s, want %s", got.Storage.DBPath, want)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("sync:\n  interval_sec: 30\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUEST_SYNC_INTERVAL_SEC", "3")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Sync.IntervalSec != 3 {
		t.Fatalf("interval_sec=%d, want 3", got.Sync.IntervalSec)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("source:\n  page_size: 0\nsync:\n  max_backoff_ms: 1\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "quest.log")
	closer, err := SetupLogger(LoggerOptions{Level: "debug", Path: path, Component: "test"})
	if err != nil {
		t.Fatalf("SetupLogger error: %v", err)
	}
	defer closer.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if ParseLevel("nope").String() != "INFO" {
		t.Fatalf("unknown level should fall back to info")
	}
}
