package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yuqie6/QuestIndexer/internal/bootstrap"
	"github.com/yuqie6/QuestIndexer/internal/event"
	"github.com/yuqie6/QuestIndexer/internal/pkg/buildinfo"
	"github.com/yuqie6/QuestIndexer/internal/pkg/config"
	"github.com/yuqie6/QuestIndexer/internal/repository"
	"github.com/yuqie6/QuestIndexer/internal/service"
)

var (
	cfgFile string
	core    *bootstrap.Core
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "quest-indexer",
		Short:   "QuestIndexer - 任务平台合约事件投影器",
		Long:    `QuestIndexer 按账本顺序消费链上合约事件，维护用户、任务、提交与平台统计的可查询读模型。`,
		Version: buildinfo.Version + " (" + buildinfo.Commit + ")",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			core, err = bootstrap.NewCore(cfgFile)
			if err != nil {
				slog.Error("初始化失败", "error", err)
				os.Exit(1)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if core != nil {
				_ = core.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(replayCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(droppedCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runCmd 常驻运行
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "监听事件目录并持续同步，同时提供 HTTP 查询",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := bootstrap.StartRuntime(ctx, core)
			if err != nil {
				slog.Error("启动失败", "error", err)
				os.Exit(1)
			}
			slog.Info("QuestIndexer 已启动", "version", buildinfo.Version)

			<-ctx.Done()
			slog.Info("收到退出信号，正在停止")
			rt.Stop()
		},
	}
}

// syncCmd 同步一次
func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "从检查点同步到事件源末尾后退出",
		Run: func(cmd *cobra.Command, args []string) {
			if core.DB.SafeMode {
				fmt.Println("❌ 数据库处于安全模式，拒绝写入")
				os.Exit(1)
			}
			res, err := core.Syncer.SyncOnce(cmd.Context())
			printResult(res)
			if err != nil {
				reportSyncError(err)
				os.Exit(1)
			}
		},
	}
}

// replayCmd 清空投影后重放
func replayCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "清空全部投影并从头重放事件",
		Run: func(cmd *cobra.Command, args []string) {
			if !yes {
				fmt.Println("⚠️  replay 会清空全部投影数据，确认请加 --yes")
				os.Exit(1)
			}
			if core.DB.SafeMode {
				fmt.Println("❌ 数据库处于安全模式，拒绝写入")
				os.Exit(1)
			}
			res, err := core.Syncer.Replay(cmd.Context(), core.DB)
			printResult(res)
			if err != nil {
				reportSyncError(err)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "确认清空")
	return cmd
}

func printResult(res service.SyncResult) {
	fmt.Printf("📥 同步 %s\n", res.RunID)
	fmt.Printf("  • 已投影: %d\n", res.Applied)
	fmt.Printf("  • 已丢弃: %d\n", res.Dropped)
	fmt.Printf("  • 重复投递: %d\n", res.Duplicates)
}

func reportSyncError(err error) {
	if errors.Is(err, service.ErrHalted) {
		fmt.Printf("🛑 同步已停止: %v\n", err)
		fmt.Println("   修复数据后使用 'quest-indexer replay --yes' 重建投影")
		return
	}
	fmt.Printf("❌ 同步失败: %v\n", err)
}

// statsCmd 平台统计与检查点
func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "查看平台统计与同步进度",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()

			stats, err := core.Repos.Query.GetStats(ctx)
			if err != nil {
				fmt.Printf("❌ 查询统计失败: %v\n", err)
				os.Exit(1)
			}
			cp, err := core.Repos.Checkpoint.Load(ctx, repository.DefaultCheckpoint)
			if err != nil {
				fmt.Printf("❌ 查询检查点失败: %v\n", err)
				os.Exit(1)
			}

			fmt.Println("📊 平台统计")
			fmt.Println("═══════════════════════════════════════")
			fmt.Printf("  • 用户: %d\n", stats.TotalUsers)
			fmt.Printf("  • 任务: %d\n", stats.TotalQuests)
			fmt.Printf("  • 提交: %d\n", stats.TotalSubmissions)
			fmt.Printf("  • 已发放奖励: %s\n", stats.TotalRewardsDistributed.String())
			fmt.Printf("  • 托管锁定: %s\n", stats.TotalValueLocked.String())
			fmt.Printf("  • 手续费: %d (接收方 %s)\n", stats.FeePercentage, stats.FeeRecipient)

			fmt.Printf("\n📍 检查点\n")
			if cp == nil {
				fmt.Println("  • 尚未同步")
			} else {
				fmt.Printf("  • 位置: %d/%d/%d\n", cp.BlockNumber, cp.TxIndex, cp.LogIndex)
				fmt.Printf("  • 已投影 %d 条，已丢弃 %d 条\n", cp.Applied, cp.Dropped)
			}
			fmt.Printf("  • schema_version=%d safe_mode=%v\n", core.DB.SchemaVersion, core.DB.SafeMode)
			fmt.Println("═══════════════════════════════════════")
		},
	}
}

// droppedCmd 被丢弃的事件
func droppedCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "dropped",
		Short: "列出被丢弃的事件及原因",
		Run: func(cmd *cobra.Command, args []string) {
			list, err := core.Repos.Query.ListDropped(cmd.Context(), repository.Page{Limit: limit})
			if err != nil {
				fmt.Printf("❌ 查询失败: %v\n", err)
				os.Exit(1)
			}
			if len(list) == 0 {
				fmt.Println("✅ 没有被丢弃的事件")
				return
			}
			for _, d := range list {
				fmt.Printf("  • %d/%d/%d %s.%s: %s\n", d.BlockNumber, d.TxIndex, d.LogIndex, d.Contract, d.Kind, d.Reason)
			}
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "最多显示条数")
	return cmd
}

// validateCmd 离线校验事件文件，不访问数据库
func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "validate <file.ndjson>...",
		Short:             "校验事件文件格式",
		Args:              cobra.MinimumNArgs(1),
		PersistentPreRun:  func(cmd *cobra.Command, args []string) {},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			failed := false
			for _, path := range args {
				n, err := validateFile(path)
				if err != nil {
					fmt.Printf("❌ %s: %v\n", path, err)
					failed = true
					continue
				}
				fmt.Printf("✅ %s: %d 条事件\n", path, n)
			}
			if failed {
				os.Exit(1)
			}
		},
	}
}

func validateFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	events, err := event.DecodeNDJSON(f)
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

// configCmd 配置管理
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "config",
		Short:             "配置管理",
		PersistentPreRun:  func(cmd *cobra.Command, args []string) {},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "写出默认配置文件",
		Run: func(cmd *cobra.Command, args []string) {
			path := cfgFile
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					fmt.Printf("❌ %v\n", err)
					os.Exit(1)
				}
			}
			if _, err := os.Stat(path); err == nil && !force {
				fmt.Printf("⚠️  %s 已存在，覆盖请加 --force\n", path)
				os.Exit(1)
			}
			if err := config.WriteFile(path, config.Default()); err != nil {
				fmt.Printf("❌ %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("✅ 已写入 %s\n", path)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "覆盖已有文件")

	cmd.AddCommand(initCmd)
	return cmd
}
