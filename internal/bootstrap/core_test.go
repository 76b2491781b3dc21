package bootstrap

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuqie6/QuestIndexer/internal/event"
	"github.com/yuqie6/QuestIndexer/internal/pkg/config"
	"github.com/yuqie6/QuestIndexer/internal/projection"
	"github.com/yuqie6/QuestIndexer/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(dir, "data", "quest.db")
	cfg.Source.Dir = filepath.Join(dir, "events")
	cfg.Source.DebounceMs = 20
	cfg.HTTP.ListenAddr = "127.0.0.1:0"
	cfg.Sync.IntervalSec = 3600
	require.NoError(t, os.MkdirAll(cfg.Source.Dir, 0o755))
	return cfg
}

func profileCreated(block uint64, user uint64, name string) event.Event {
	return testutil.NewEvent(projection.ContractUserProfile, "ProfileCreated", block, 0, 0).
		With("user", "address", testutil.Addr(user)).
		With("username", "string", name).Build()
}

func writeLog(t *testing.T, dir, name string, events ...event.Event) {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, event.EncodeNDJSON(&sb, events))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(sb.String()), 0o644))
}

func TestCoreSyncsFileLog(t *testing.T) {
	cfg := testConfig(t)
	writeLog(t, cfg.Source.Dir, "0001.ndjson", profileCreated(1, 1, "alice"), profileCreated(2, 2, "bob"))

	core, err := NewCoreFromConfig(cfg)
	require.NoError(t, err)
	defer core.Close()

	ctx := context.Background()
	res, err := core.Syncer.SyncOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)

	stats, err := core.Repos.Query.GetStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalUsers)

	cp, err := core.Repos.Checkpoint.Load(ctx, "projection")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.EqualValues(t, 2, cp.BlockNumber)

	// 再同步一次没有新事件
	res, err = core.Syncer.SyncOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Applied)
}

func TestRuntimeServesAndFollowsDirectory(t *testing.T) {
	cfg := testConfig(t)
	writeLog(t, cfg.Source.Dir, "0001.ndjson", profileCreated(1, 1, "alice"))

	core, err := NewCoreFromConfig(cfg)
	require.NoError(t, err)
	defer core.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rt, err := StartRuntime(ctx, core)
	require.NoError(t, err)
	defer rt.Stop()

	require.NotEmpty(t, rt.HTTP.BaseURL())
	userURL := rt.HTTP.BaseURL() + "/api/users/" + testutil.Addr(2)

	writeLog(t, cfg.Source.Dir, "0002.ndjson", profileCreated(2, 2, "bob"))

	assert.Eventually(t, func() bool {
		resp, err := http.Get(userURL)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && strings.Contains(string(body), "bob")
	}, 5*time.Second, 50*time.Millisecond)
}
