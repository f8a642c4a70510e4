package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/germanamz/nbask/pkg/askdir"
	"github.com/germanamz/nbask/pkg/engine"
	"github.com/germanamz/nbask/pkg/secrets"
	"github.com/joho/godotenv"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// newLogger returns a text logger on w, at debug level when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveConfigPath returns the config file to use: the explicit flag, else
// the directory's config.yaml if it exists, else "" for built-in defaults.
func resolveConfigPath(explicit string, d askdir.Dir) string {
	if explicit != "" {
		return explicit
	}

	if _, err := os.Stat(d.ConfigPath()); err == nil {
		return d.ConfigPath()
	}

	return ""
}

// loadConfig resolves and loads the configuration for d.
func loadConfig(explicit string, d askdir.Dir) (engine.Config, error) {
	var cfg engine.Config

	if path := resolveConfigPath(explicit, d); path != "" {
		loaded, err := engine.LoadConfig(path)
		if err != nil {
			return engine.Config{}, err
		}
		cfg = loaded
	}

	cfg.AskDir = d.Root()

	return cfg, nil
}

// setup loads the .env file and configuration named by flags and builds an
// engine logging to stderr.
func setup(flags commonFlags) (*engine.Engine, askdir.Dir, *slog.Logger, error) {
	if err := loadDotEnv(flags.envFile); err != nil {
		return nil, askdir.Dir{}, nil, err
	}

	log := newLogger(os.Stderr, flags.verbose)
	d := askdir.New(flags.askDir)

	cfg, err := loadConfig(flags.configPath, d)
	if err != nil {
		return nil, askdir.Dir{}, nil, err
	}

	eng, err := engine.New(cfg, engine.WithLogger(log))
	if err != nil {
		return nil, askdir.Dir{}, nil, err
	}

	return eng, d, log, nil
}

// secretStore opens the dotenv credential file: the configured secrets_file,
// else local/secrets.env under d.
func secretStore(cfg engine.Config, d askdir.Dir) (*secrets.DotEnv, error) {
	path := cfg.SecretsFile
	if path == "" {
		path = d.SecretsPath()
	}
	return secrets.NewDotEnv(path)
}

// terminalWidth returns the column count of f when it is a terminal, else
// fallback.
func terminalWidth(f *os.File, fallback int) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 { //nolint:gosec // fd fits in int
		return w
	}
	return fallback
}

// fitCell shortens s to at most width terminal columns, appending "..." when
// cut. Newlines become spaces so the result stays on one line.
func fitCell(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, width, "...")
}

// padCell right-pads s to width terminal columns.
func padCell(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// fmtTokens formats a token count for display, using k/M suffixes.
func fmtTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// fmtDuration formats a duration for display.
func fmtDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	min := int(d.Minutes())
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", min, sec)
}
