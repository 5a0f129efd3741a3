package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/orenro/wp-download/internal/config"
	"github.com/orenro/wp-download/internal/logging"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitGeneralError   = 1
	ExitInvalidArgs    = 2
	ExitIOError        = 3
	ExitTemplateError  = 4
	ExitParseError     = 5
	ExitValueError     = 6
	ExitConfigNotFound = 7
)

// defaultConfig is the configuration file used when --config is not given.
const defaultConfig = "~/.wpdownloadrc"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\n[wp-download] Received interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	a := &app{}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		if a.logger != nil {
			a.logger.Error("wp-download failed", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	if a.logger != nil {
		a.logger.Sync()
	}
	return exitCode(err)
}

// app holds the state shared by all commands.
type app struct {
	configPath string
	verbose    bool
	logger     *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "wp-download",
		Short: "Mirror Wikipedia database dumps to a local directory",
		Long: `wp-download fetches the latest Wikipedia database dumps for the languages
and file types enabled in its configuration file, and mirrors them below a
local directory as <language>/<YYYYMMDD>/<file>.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.logger = logging.New(logging.Options{Verbose: a.verbose})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return argErrorf("unknown command %q", args[0])
			}
			cmd.Help()
			return argErrorf("no command given")
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &exitError{code: ExitInvalidArgs, err: err}
	})

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfig, "wp-download configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newDownloadCmd(a),
		newURLsCmd(a),
		newPublishCmd(a),
	)
	return root
}

// loadCatalog loads the configuration file named by --config.
func (a *app) loadCatalog() (*config.Configuration, error) {
	path, err := expandHome(a.configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &exitError{code: ExitConfigNotFound, err: fmt.Errorf("configuration file not found: %w", err)}
	}
	if err != nil {
		return nil, err
	}
	a.logger.Debug("loaded configuration", zap.String("path", path))
	return cfg, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// exitError carries the exit code for an error that does not imply one by
// its type.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func argErrorf(format string, args ...any) error {
	return &exitError{code: ExitInvalidArgs, err: fmt.Errorf(format, args...)}
}

// exactArgs is cobra.ExactArgs reporting an argument error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &exitError{code: ExitInvalidArgs, err: err}
		}
		return nil
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	switch {
	case errors.Is(err, config.ErrTemplate), errors.Is(err, config.ErrTemplateMissing):
		return ExitTemplateError
	case errors.Is(err, config.ErrParse):
		return ExitParseError
	case errors.Is(err, config.ErrValue), errors.Is(err, config.ErrOption):
		return ExitValueError
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return ExitIOError
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return ExitIOError
	}
	return ExitGeneralError
}
