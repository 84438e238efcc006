package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"tiku/internal/bank"
	"tiku/internal/browser"
	"tiku/internal/config"
	"tiku/internal/extract"
	"tiku/internal/session"
	"tiku/internal/store"
	"tiku/internal/web"
)

var (
	configPath string
	bankPath   string
	startURL   string
	servePort  int
	verbose    bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "./tiku.json", "配置文件路径")
	flags.StringVar(&bankPath, "bank", "", "题库文件路径（.xlsx 或 .db）")
	flags.BoolVarP(&verbose, "verbose", "v", false, "输出调试日志和逐题明细")

	rootCmd.Flags().StringVar(&startURL, "url", "", "浏览器起始页面")
	rootCmd.Flags().IntVar(&servePort, "serve", 0, "在该端口提供只读的进度页面（0 表示不启动）")
}

var rootCmd = &cobra.Command{
	Use:   "tiku",
	Short: "tiku 从雨课堂【查看试卷】页面抓取题目和答案，累积成去重的题库。",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initSlog(verbose)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runInteractive(cmd.Context(), cfg)
	},
	SilenceUsage: true,
}

// Execute 执行命令行，Ctrl+C 会取消上下文
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

// loadConfig 读取配置文件并应用命令行覆盖
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.GetConfig()
	cfg.FilePath = configPath
	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	if cmd.Flags().Changed("bank") {
		cfg.BankPath = bankPath
	}
	if f := cmd.Flags().Lookup("url"); f != nil && f.Changed {
		cfg.URL = startURL
	}
	if f := cmd.Flags().Lookup("serve"); f != nil && f.Changed {
		cfg.ServePort = servePort
	}

	if err := cfg.Err(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}
	slog.Debug("配置已加载", "file", cfg.GetAbsPath(cfg.FilePath), "bank", cfg.BankPath)
	return cfg, nil
}

// openBank 打开题库文件并把历史记录读入内存
func openBank(ctx context.Context, path string) (store.Store, *bank.Bank, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}

	b := bank.New()
	if n := b.Load(store.LoadOrEmpty(ctx, s)); n > 0 {
		fmt.Printf("📚 已加载旧题库，包含 %d 道题目。\n", n)
	} else {
		fmt.Println("🆕 未找到旧题库，将新建。")
	}
	return s, b, nil
}

// runInteractive 启动浏览器，由操作员逐页确认抓取
func runInteractive(ctx context.Context, cfg *config.Config) error {
	s, b, err := openBank(ctx, cfg.BankPath)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Println("🚀 正在启动浏览器...")
	executor := browser.NewBrowserExecutor(cfg)
	if err := executor.Start(); err != nil {
		return err
	}
	defer executor.Stop()

	var callback session.EventCallback
	if cfg.ServePort > 0 {
		server := web.NewServer(b)
		server.Start(cfg.ServePort)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
		callback = server.Publish
	}

	fmt.Println("========================================")
	fmt.Println("👉 请在浏览器中登录，并打开【查看试卷】页面")
	fmt.Println("👉 每翻到一页答案，回到这里按回车抓取")
	fmt.Println("========================================")

	sess := session.New(session.Options{
		Bank:      b,
		Extractor: extract.NewExtractor(b, s),
		Provider:  executor,
		Prompter:  session.NewConsolePrompter(os.Stdin, os.Stdout),
		Out:       os.Stdout,
		Callback:  callback,
		Verbose:   verbose,
	})
	return sess.Run(ctx)
}
