package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringP("config", "c", "", "config file path")
	flags.IntP("workers", "w", 0, "number of download workers")

	flags.String("telegram-token", "", "telegram bot token")
	flags.Int("telegram-app-id", 0, "telegram app id")
	flags.String("telegram-app-hash", "", "telegram app hash")
	flags.Bool("telegram-proxy-enable", false, "enable telegram proxy")
	flags.String("telegram-proxy-url", "", "telegram proxy URL")

	flags.String("api-base-url", "", "link resolution API base URL")
	flags.String("api-key", "", "link resolution API key")

	flags.String("download-dir", "", "download directory")
	flags.Int("download-timeout", 0, "retrieval timeout in seconds")

	flags.String("db-path", "", "database path")
	flags.String("log-level", "", "log level")

	bindFlags(cmd)
}

func bindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	viper.BindPFlag("config", flags.Lookup("config"))
	viper.BindPFlag("workers", flags.Lookup("workers"))

	viper.BindPFlag("telegram.token", flags.Lookup("telegram-token"))
	viper.BindPFlag("telegram.app_id", flags.Lookup("telegram-app-id"))
	viper.BindPFlag("telegram.app_hash", flags.Lookup("telegram-app-hash"))
	viper.BindPFlag("telegram.proxy.enable", flags.Lookup("telegram-proxy-enable"))
	viper.BindPFlag("telegram.proxy.url", flags.Lookup("telegram-proxy-url"))

	viper.BindPFlag("api.base_url", flags.Lookup("api-base-url"))
	viper.BindPFlag("api.key", flags.Lookup("api-key"))

	viper.BindPFlag("download.dir", flags.Lookup("download-dir"))
	viper.BindPFlag("download.timeout", flags.Lookup("download-timeout"))

	viper.BindPFlag("db.path", flags.Lookup("db-path"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
}
