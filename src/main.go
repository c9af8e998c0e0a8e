package main

import (
	"AgroStats/src/config"
	"AgroStats/src/datapush"
	"AgroStats/src/datasource"
	"AgroStats/src/datasource/file"
	"AgroStats/src/processor"
	"AgroStats/src/storage"
	"AgroStats/src/utils"
	"AgroStats/src/webui"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app 一次命令运行需要的全部依赖
type app struct {
	cfg      *config.Config
	logger   *storage.Logger
	pipeline *processor.Pipeline
	registry *prometheus.Registry
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agrostats",
		Short:         "Indian agriculture dataset statistics",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.String("config-dir", "./config", "配置文件目录")
	flags.String("config", "config.json", "主配置文件名(.json/.yaml)")
	flags.String("data-config", "dataconfig.json", "列名映射配置文件名")
	flags.String("log-level", "", "覆盖配置中的日志级别(debug|info|warning|error)")

	root.AddCommand(newReportCmd(), newServeCmd())
	return root
}

func newApp(cmd *cobra.Command) (*app, error) {
	dir, _ := cmd.Flags().GetString("config-dir")
	cfgFile, _ := cmd.Flags().GetString("config")
	dataFile, _ := cmd.Flags().GetString("data-config")
	level, _ := cmd.Flags().GetString("log-level")

	cfg, dcfg, err := config.Load(dir, cfgFile, dataFile)
	if err != nil {
		return nil, err
	}

	// 初始化日志系统，同时输出到stderr
	logger, err := storage.NewLogger(cfg.LogName, storage.ParseLevel(cfg.LogLevel), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if level != "" {
		logger.SetLevel(storage.ParseLevel(level))
	}

	src, err := datasource.New(cfg)
	if err != nil {
		logger.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics := processor.NewMetrics(registry)

	return &app{
		cfg:      cfg,
		logger:   logger,
		pipeline: processor.NewPipeline(src, dcfg, logger, metrics),
		registry: registry,
	}, nil
}

func newReportCmd() *cobra.Command {
	var (
		xlsxPath string
		export   bool
		push     bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "加载数据集并输出统计表",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.logger.Close()

			ctx := cmd.Context()
			report, err := a.pipeline.Run(ctx)
			if err != nil {
				a.logger.Error("数据处理失败", "err", err)
				return err
			}

			if err := datapush.RenderReport(cmd.OutOrStdout(), report); err != nil {
				return err
			}

			if export || xlsxPath != "" {
				if xlsxPath == "" {
					xlsxPath = a.cfg.ExportPath()
				}
				if err := exportReport(xlsxPath, report); err != nil {
					return err
				}
				a.logger.Info("结果已导出", "path", xlsxPath)
			}

			if push {
				if a.cfg.Push.Webhook == "" {
					return errors.New("未配置 push.webhook")
				}
				if err := datapush.NewPusher(a.cfg.Push.Webhook, a.cfg.Push.Retry).Push(ctx, report); err != nil {
					return err
				}
				a.logger.Info("结果已推送", "webhook", a.cfg.Push.Webhook)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "导出xlsx到指定路径")
	cmd.Flags().BoolVar(&export, "export", false, "导出xlsx到配置中的 export.dir/export.file")
	cmd.Flags().BoolVar(&push, "push", false, "推送结果到配置的webhook")
	return cmd
}

func exportReport(path string, report *processor.Report) error {
	return utils.SaveToExcel(path,
		utils.Sheet{Name: "Yearly Max Min", Frame: report.YearlyFrame()},
		utils.Sheet{Name: "Average Yield Area", Frame: report.AveragesFrame()},
	)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动Web界面并定时刷新数据",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.logger.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			return a.serve(ctx)
		},
	}
}

// refresher 串行执行刷新，定时任务、文件变化和SIGHUP可能同时触发
type refresher struct {
	a     *app
	store *processor.ReportWrapper
	mu    sync.Mutex
}

func (r *refresher) refresh(ctx context.Context, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := r.a
	a.logger.Info("开始刷新数据", "reason", reason)
	report, err := a.pipeline.Run(ctx)
	if err != nil {
		// 保留上一次成功的结果
		a.logger.Error("刷新数据失败", "err", err)
		return
	}
	r.store.SetReport(report)

	if a.cfg.Push.Webhook != "" {
		if err := datapush.NewPusher(a.cfg.Push.Webhook, a.cfg.Push.Retry).Push(ctx, report); err != nil {
			a.logger.Warning("推送结果失败", "err", err)
		}
	}
	if a.cfg.Export.Dir != "" {
		if err := exportReport(a.cfg.ExportPath(), report); err != nil {
			a.logger.Warning("导出结果失败", "err", err)
		}
	}
	if err := a.logger.CheckRotate(a.cfg); err != nil {
		a.logger.Warning(err.Error())
	}
}

func (a *app) serve(ctx context.Context) error {
	store := &processor.ReportWrapper{}
	r := &refresher{a: a, store: store}
	refresh := func(reason string) { r.refresh(ctx, reason) }

	refresh("startup")

	// 设置定时任务
	if interval := time.Duration(a.cfg.Refresh.Interval); interval > 0 {
		c := cron.New()
		cronSpec := fmt.Sprintf("@every %s", interval)
		if err := c.AddFunc(cronSpec, func() { refresh("schedule") }); err != nil {
			return fmt.Errorf("创建定时任务失败: %w", err)
		}
		c.Start()
		defer c.Stop()
		a.logger.Info("定时刷新已启动", "interval", interval.String())
	}

	// 监听本地数据集变化
	if a.cfg.Refresh.Watch && a.cfg.Source.Path != "" {
		monitor, err := file.NewFileMonitor(a.cfg.Source.Path)
		if err != nil {
			return fmt.Errorf("创建文件监控失败: %w", err)
		}
		defer monitor.Close()
		go func() {
			if err := monitor.Watch(ctx, func(string) { refresh("file changed") }); err != nil {
				a.logger.Error("文件监控出错", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           webui.NewHandler(store, a.logger, a.registry),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("Web界面已启动", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	return a.waitForShutdown(ctx, srv, serveErr, func() { refresh("SIGHUP") })
}

// waitForShutdown SIGHUP 重新打开日志并刷新数据，SIGINT/SIGTERM 退出
func (a *app) waitForShutdown(ctx context.Context, srv *http.Server, serveErr <-chan error, onHup func()) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case err := <-serveErr:
			return fmt.Errorf("Web服务异常退出: %w", err)
		case <-ctx.Done():
			return shutdown(srv)
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				if err := a.logger.Reopen(); err != nil {
					fmt.Fprintf(os.Stderr, "reopen log failed: %v\n", err)
				}
				a.logger.Info("收到SIGHUP，已重新打开日志")
				onHup()
				continue
			}
			a.logger.Info("收到退出信号，正在关闭...", "signal", sig.String())
			return shutdown(srv)
		}
	}
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
