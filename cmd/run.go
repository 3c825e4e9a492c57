package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/ryoka/teragrab-bot/admission"
	"github.com/ryoka/teragrab-bot/bot"
	"github.com/ryoka/teragrab-bot/common"
	"github.com/ryoka/teragrab-bot/common/cache"
	"github.com/ryoka/teragrab-bot/common/utils/fsutil"
	"github.com/ryoka/teragrab-bot/config"
	"github.com/ryoka/teragrab-bot/core"
	"github.com/ryoka/teragrab-bot/database"
	"github.com/ryoka/teragrab-bot/resolver"
	"github.com/ryoka/teragrab-bot/retriever"
	"github.com/spf13/cobra"
)

func Run(cmd *cobra.Command, _ []string) {
	if err := config.Init(); err != nil {
		fmt.Println("Failed to load config:", err)
		os.Exit(1)
	}
	logger := common.NewLogger()
	ctx := log.WithContext(cmd.Context(), logger)

	cache.Init()
	database.Init(ctx)

	ctrl := admission.NewController()
	orch := core.New(resolver.New(), retriever.New(), ctrl, bot.NewUploader(), bot.NewTracker())
	bot.Wire(orch, ctrl)
	if err := bot.Init(ctx); err != nil {
		logger.Fatalf("Failed to start bot: %s", err)
	}

	go func() {
		if err := orch.Run(ctx); err != nil {
			logger.Errorf("Task processing stopped: %s", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	cleanDownloadDir(logger)
	logger.Info("Bye")
}

// cleanDownloadDir empties the download directory on shutdown. Refuses to
// touch anything that resolves to the filesystem root or the working
// directory itself.
func cleanDownloadDir(logger *log.Logger) {
	dir := config.C().Download.Dir
	if dir == "" {
		return
	}
	if slices.Contains([]string{"/", ".", "\\", ".."}, filepath.Clean(dir)) {
		logger.Errorf("Refusing to clean unsafe download dir %q", dir)
		return
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		logger.Errorf("Failed to resolve download dir: %s", err)
		return
	}
	logger.Infof("Cleaning download dir %s", abs)
	if err := fsutil.RemoveAllInDir(abs); err != nil && !os.IsNotExist(err) {
		logger.Errorf("Failed to clean download dir: %s", err)
	}
}
