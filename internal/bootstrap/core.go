package bootstrap

import (
	"io"
	"os"
	"path/filepath"

	"github.com/yuqie6/QuestIndexer/internal/eventbus"
	"github.com/yuqie6/QuestIndexer/internal/pkg/config"
	"github.com/yuqie6/QuestIndexer/internal/projection"
	"github.com/yuqie6/QuestIndexer/internal/repository"
	"github.com/yuqie6/QuestIndexer/internal/service"
	"github.com/yuqie6/QuestIndexer/internal/source"
)

// Core 持有各子命令共享的核心依赖
type Core struct {
	Cfg       *config.Config
	DB        *repository.Database
	Hub       *eventbus.Hub
	LogCloser io.Closer

	Repos struct {
		Query      *repository.QueryRepository
		Checkpoint *repository.CheckpointRepository
	}

	Source    *source.FileLog
	Projector *projection.Projector
	Syncer    *service.Syncer
}

// NewCore 加载配置、初始化日志并构建核心依赖（不启动后台任务）
func NewCore(cfgPath string) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logCloser, err := config.SetupLogger(config.LoggerOptions{
		Level:     cfg.App.LogLevel,
		Path:      cfg.App.LogPath,
		Component: filepath.Base(os.Args[0]),
	})
	if err != nil {
		return nil, err
	}

	c, err := NewCoreFromConfig(cfg)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	c.LogCloser = logCloser
	return c, nil
}

// NewCoreFromConfig 按已加载的配置构建依赖，不改动全局日志
func NewCoreFromConfig(cfg *config.Config) (*Core, error) {
	db, err := repository.NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	c := &Core{Cfg: cfg, DB: db, Hub: eventbus.NewHub()}

	c.Repos.Query = repository.NewQueryRepository(db.DB)
	c.Repos.Checkpoint = repository.NewCheckpointRepository(db.DB)

	c.Source = source.NewFileLog(cfg.Source.Dir)
	c.Projector = projection.NewProjector(db.DB, projection.DefaultRegistry(), repository.DefaultCheckpoint)
	c.Syncer = service.NewSyncer(c.Source, c.Projector, c.Hub, &service.SyncerConfig{
		PageSize: cfg.Source.PageSize,
		Retry:    cfg.Sync.RetryPolicy(),
	})

	return c, nil
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	var dbErr error
	if c.DB != nil {
		dbErr = c.DB.Close()
	}
	if c.LogCloser != nil {
		_ = c.LogCloser.Close()
	}
	return dbErr
}
