package cmd

import (
	"fmt"
	"runtime"

	"github.com/ryoka/teragrab-bot/common"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Print the version number of teragrab-bot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("teragrab-bot version: %s %s/%s\nBuildTime: %s, Commit: %s\n",
			common.Version, runtime.GOOS, runtime.GOARCH, common.BuildTime, common.GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
