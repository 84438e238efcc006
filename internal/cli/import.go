package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tiku/internal/config"
	"tiku/internal/extract"
	"tiku/internal/session"
	"tiku/internal/snapshot"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

// fileQueue 每轮抓取依次读取一个保存的网页
type fileQueue struct {
	paths     []string
	selectors config.Selectors
	next      int
}

func (q *fileQueue) ListBlocks(ctx context.Context) ([]extract.BlockHandle, error) {
	if q.next >= len(q.paths) {
		return nil, extract.ErrNoBlocks
	}
	p := snapshot.FileProvider{Path: q.paths[q.next], Selectors: q.selectors}
	q.next++
	return p.ListBlocks(ctx)
}

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "从保存的【查看试卷】网页文件导入题目，每个文件算一轮抓取。",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runImport(cmd.Context(), cfg, args)
	},
}

func runImport(ctx context.Context, cfg *config.Config, paths []string) error {
	s, b, err := openBank(ctx, cfg.BankPath)
	if err != nil {
		return err
	}
	defer s.Close()

	sess := session.New(session.Options{
		Bank:      b,
		Extractor: extract.NewExtractor(b, s),
		Provider:  &fileQueue{paths: paths, selectors: cfg.GetSelectors()},
		Out:       os.Stdout,
		Verbose:   verbose,
	})
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		fmt.Printf("📄 %s\n", path)
		sess.RunOnce(ctx)
	}
	return sess.Finish(ctx)
}
