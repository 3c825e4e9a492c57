package common

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/ryoka/teragrab-bot/config"
)

// NewLogger builds the root logger from config. It is injected into every
// context at startup; components retrieve it with log.FromContext.
func NewLogger() *log.Logger {
	level, err := log.ParseLevel(config.C().Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	var w io.Writer = os.Stderr
	if fp := config.C().Log.File; fp != "" {
		if err := os.MkdirAll(filepath.Dir(fp), 0755); err == nil {
			if f, err := os.OpenFile(fp, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
				w = io.MultiWriter(os.Stderr, f)
			}
		}
	}
	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	return logger
}
