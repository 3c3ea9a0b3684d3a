package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"keel/internal/driver"
	"keel/internal/layout"
)

var cliLogger = zap.NewNop()

// buildLogger returns a console logger on stderr for level, or a no-op
// logger for "off".
func buildLogger(level string) (*zap.Logger, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" || level == "off" {
		return zap.NewNop(), nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q (expected off|error|warn|info|debug)", level)
	}
	cfg := zap.NewDevelopmentConfig()
	if lvl > zapcore.DebugLevel {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func setupLogging(cmd *cobra.Command) error {
	level, err := cmd.Root().PersistentFlags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to get log-level flag: %w", err)
	}
	l, err := buildLogger(level)
	if err != nil {
		return err
	}
	cliLogger = l
	layout.SetLogger(l.Named("layout"))
	driver.SetLogger(l.Named("driver"))
	return nil
}

func syncLogger() {
	// stderr sync fails on some terminals; nothing to do about it
	_ = cliLogger.Sync()
}
