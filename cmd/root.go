package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ryoka/teragrab-bot/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "teragrab-bot",
	Short: "Telegram bot that downloads Terabox videos",
	Run:   Run,
}

func init() {
	config.RegisterFlags(rootCmd)
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
