package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestInitWithExplicitConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "custom.toml")
	content := "workers = 7\n\n[telegram]\ntoken = \"123:abc\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	viper.Set("config", path)
	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if C().Workers != 7 {
		t.Errorf("Workers = %d, want 7 from %s", C().Workers, path)
	}
	if C().Telegram.Token != "123:abc" {
		t.Errorf("Telegram.Token = %q, want value from the explicit config file", C().Telegram.Token)
	}
	if C().Quota.FreeDaily != 5 {
		t.Errorf("Quota.FreeDaily = %d, want default 5", C().Quota.FreeDaily)
	}
}
