package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterCommonFlags registers flags shared by all subcommands.
func RegisterCommonFlags(flags *pflag.FlagSet) {
	flags.StringP("root-ref", "r", "", "Branch, tag, or commit to fetch")
	flags.StringP("repo-url", "u", "", "Repository URL or local path")
	flags.String("cache-dir", "", "Cache directory for corpora")
	flags.String("log-level", "", "Log level: debug, info, warn, or error")
}

// RegisterFetchFlags registers fetch-only flags.
func RegisterFetchFlags(flags *pflag.FlagSet) {
	flags.Bool("force-refresh", false, "Ignore the cache and fetch fresh")
}

// RegisterIndexFlags registers index-only flags.
func RegisterIndexFlags(flags *pflag.FlagSet) {
	flags.StringP("output-dir", "o", "", "Directory for chunk and index artifacts")
	flags.Int("window-lines", 0, "Lines per chunk window")
	flags.Int("overlap-lines", -1, "Lines of overlap between windows")
	flags.StringP("config", "c", "", "Path to a config file")
}

// NewRootCommand builds the corpuslex command tree.
func NewRootCommand(version, programName string, params RunParams) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Deterministic source corpus chunking and lexical indexing",
		Long:          "corpuslex fetches a versioned source corpus, splits it into overlapping line-windowed chunks with deterministic identifiers, and builds an SQLite FTS5 lexical index with full provenance.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a corpus revision and write its manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunFetch(cmd.Context(), params, cmd.Flags(), "")
		},
	}
	RegisterCommonFlags(fetchCmd.Flags())
	RegisterFetchFlags(fetchCmd.Flags())

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Chunk a fetched corpus and build a lexical FTS5 index",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			return RunIndex(cmd.Context(), params, cmd.Flags(), configFile)
		},
	}
	RegisterCommonFlags(indexCmd.Flags())
	RegisterIndexFlags(indexCmd.Flags())

	rootCmd.AddCommand(fetchCmd, indexCmd)
	return rootCmd
}
