package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/corpuslex/corpuslex/internal/chunker"
	"github.com/corpuslex/corpuslex/internal/config"
	"github.com/corpuslex/corpuslex/internal/corpus"
	"github.com/corpuslex/corpuslex/internal/index"
	"github.com/spf13/pflag"
)

// Process exit codes. Automated callers branch on these.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitRefNotFound     = 3
	ExitConfigError     = 7
	ExitFTS5Unavailable = 8
)

// ToolVersion is the version recorded in manifests.
const ToolVersion = "0.1.0"

// RunParams contains dependencies for the run functions.
type RunParams struct {
	LoadSettings  func(*pflag.FlagSet, string) (*config.Settings, error)
	ValidSettings func(*config.Settings) error
	FetchCorpus   func(context.Context, *config.Settings, *slog.Logger) (*corpus.Manifest, error)
	BuildIndex    func(*config.Settings, *corpus.Manifest, *slog.Logger) (*index.Result, error)
	Out           io.Writer // Human-readable one-line statuses
}

// DefaultRunParams returns production dependencies.
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:  config.LoadSettings,
		ValidSettings: config.ValidateSettings,
		FetchCorpus:   fetchCorpus,
		BuildIndex:    buildIndex,
		Out:           os.Stdout,
	}
}

// RunFetch fetches a corpus snapshot and writes its manifest.
func RunFetch(ctx context.Context, params RunParams, flags *pflag.FlagSet, configFile string) error {
	settings, logger, err := setup(params, flags, configFile)
	if err != nil {
		return err
	}

	manifest, err := params.FetchCorpus(ctx, settings, logger)
	if err != nil {
		logger.Error("fetch failed", "error", err)
		return err
	}

	fmt.Fprintf(params.Out, "[OK] corpus fetched: %s @ %s (%s)\n",
		manifest.RootRef, shortCommit(manifest.ResolvedCommit), manifest.LocalPath)
	return nil
}

// RunIndex fetches (or reuses) a corpus snapshot and builds a lexical index.
func RunIndex(ctx context.Context, params RunParams, flags *pflag.FlagSet, configFile string) error {
	settings, logger, err := setup(params, flags, configFile)
	if err != nil {
		return err
	}

	manifest, err := params.FetchCorpus(ctx, settings, logger)
	if err != nil {
		logger.Error("fetch failed", "error", err)
		return err
	}

	result, err := params.BuildIndex(settings, manifest, logger)
	if err != nil {
		reason := ""
		if result != nil {
			reason = result.Reason
		}
		logger.Error("index build failed", "reason", reason, "error", err)
		return err
	}

	fmt.Fprintf(params.Out, "[%s] index built: %s (%d chunks, %d files)\n",
		strStatus(result.Status), result.IndexID, result.ChunkCount, result.FileCount)
	return nil
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, corpus.ErrRefNotFound):
		return ExitRefNotFound
	case errors.Is(err, config.ErrConfigFile):
		return ExitConfigError
	case errors.Is(err, index.ErrFTS5Unavailable):
		return ExitFTS5Unavailable
	default:
		return ExitFailure
	}
}

// setup loads and validates settings, then installs the default logger.
func setup(params RunParams, flags *pflag.FlagSet, configFile string) (*config.Settings, *slog.Logger, error) {
	settings, err := params.LoadSettings(flags, configFile)
	if err != nil {
		return nil, nil, err
	}
	if err := params.ValidSettings(settings); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Log to stderr so stdout stays a clean status line
	logger := config.NewLogger(os.Stderr, settings.LogLevel)
	slog.SetDefault(logger)
	config.LogWithLogger(settings, logger)

	return settings, logger, nil
}

func fetchCorpus(ctx context.Context, settings *config.Settings, logger *slog.Logger) (*corpus.Manifest, error) {
	fetcher := corpus.NewFetcher(corpus.NewGitClient(), settings.CacheDir, ToolVersion, logger)
	return fetcher.Fetch(ctx, settings.RepoURL, settings.RootRef, settings.ForceRefresh)
}

func buildIndex(settings *config.Settings, manifest *corpus.Manifest, logger *slog.Logger) (*index.Result, error) {
	builder := index.NewBuilder(settings.OutputDir, ToolVersion, logger)
	return builder.Build(manifest, chunker.New(settings.WindowLines, settings.OverlapLines, logger))
}

func shortCommit(commit string) string {
	if len(commit) > 12 {
		return commit[:12]
	}
	return commit
}

func strStatus(status string) string {
	if status == index.StatusSuccess {
		return "OK"
	}
	return status
}
