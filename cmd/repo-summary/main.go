package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kevinmichaelchen/repo-summary/internal/config"
	"github.com/kevinmichaelchen/repo-summary/internal/embedding"
	"github.com/kevinmichaelchen/repo-summary/internal/github"
	"github.com/kevinmichaelchen/repo-summary/internal/llm"
	"github.com/kevinmichaelchen/repo-summary/internal/logging"
	"github.com/kevinmichaelchen/repo-summary/internal/pipeline"
	"github.com/kevinmichaelchen/repo-summary/internal/render"
	"github.com/kevinmichaelchen/repo-summary/internal/server"
	"github.com/kevinmichaelchen/repo-summary/internal/surrealdb"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "repo-summary",
		Short:         "Summarize GitHub repositories with an LLM",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(serveCmd(), summarizeCmd(), schemaCmd(), historyCmd(), searchCmd(), statsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, render.Error(err))
		os.Exit(1)
	}
}

func setup() *config.Config {
	cfg := config.Load()
	logging.Configure(cfg.Logging)
	if cfg.LLMAPIKey == "" {
		log.Warn().Msg("LLM_API_KEY is not set; model calls will fail")
	}
	return cfg
}

// newPipeline wires the gateway, model client and, when configured, the
// summary archive. The returned func releases the archive connection.
func newPipeline(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, func()) {
	gh := github.NewClient(cfg.GitHubAPIURL, cfg.GitHubToken)
	model := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.FileSelectionModel, cfg.LLMModel)

	var rec pipeline.Recorder
	cleanup := func() {}
	if cfg.ArchiveEnabled() {
		db, err := surrealdb.NewClient(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("summary archive unavailable, continuing without it")
		} else {
			archive := &pipeline.Archive{Store: db}
			if cfg.EmbeddingModel != "" {
				archive.Embedder = embedding.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
			}
			rec = archive
			cleanup = func() { _ = db.Close(context.Background()) }
		}
	}
	return pipeline.New(cfg, gh, model, rec), cleanup
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP summarization service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup()
			if addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, cleanup := newPipeline(ctx, cfg)
			defer cleanup()

			return server.New(p).ListenAndServe(ctx, cfg.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides ADDR)")
	return cmd
}

func summarizeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summarize [github-url]",
		Short: "Summarize one repository and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := setup()

			p, cleanup := newPipeline(ctx, cfg)
			defer cleanup()

			report, err := p.Run(ctx, args[0])
			if err != nil {
				return describe(err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report.Summary)
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Markdown(render.ReportMarkdown(report)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw JSON summary")
	return cmd
}

// describe prefixes typed failures the way the HTTP service reports them.
func describe(err error) error {
	var ghErr *github.Error
	var llmErr *llm.Error
	switch {
	case errors.As(err, &ghErr):
		return fmt.Errorf("GitHub (%d): %s", ghErr.StatusCode, ghErr.Message)
	case errors.As(err, &llmErr):
		return fmt.Errorf("Failed to generate summary: %s", llmErr.Message)
	}
	return err
}

func openArchive(ctx context.Context, cfg *config.Config) (*surrealdb.Client, error) {
	if !cfg.ArchiveEnabled() {
		return nil, errors.New("SURREAL_URL is not set; the summary archive is disabled")
	}
	return surrealdb.NewClient(ctx, cfg)
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Initialize/update the SurrealDB summary archive schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := setup()

			db, err := openArchive(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(ctx) }()

			if err := db.InitSchema(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema initialized")
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently summarized repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := setup()

			db, err := openArchive(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(ctx) }()

			rows, err := db.Recent(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Markdown(render.HistoryMarkdown(rows)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of summaries to list")
	return cmd
}

func searchCmd() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Semantic similarity search across archived summaries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := setup()
			query := args[0]

			if cfg.EmbeddingModel == "" {
				return errors.New("EMBEDDING_MODEL is not set; search needs embeddings")
			}
			db, err := openArchive(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(ctx) }()

			embClient := embedding.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel)
			vec, err := embClient.EmbedSingle(ctx, query)
			if err != nil {
				return fmt.Errorf("embedding query: %w", err)
			}

			results, err := db.VectorSearch(ctx, vec, k)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Markdown(render.SearchMarkdown(query, results)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 10, "Number of results")
	return cmd
}

func statsCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show archive counts and technology breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := setup()

			db, err := openArchive(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close(ctx) }()

			stats, err := db.GetStats(ctx)
			if err != nil {
				return err
			}
			techs, err := db.GetTechnologyBreakdown(ctx)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), render.StatsText(stats, techs, top))
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 20, "Number of technologies to show")
	return cmd
}
