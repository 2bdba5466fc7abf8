// Package ingestcmder provides the ingest command that builds the vector
// index from the PDF corpus.
package ingestcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/medibot/cmd/medibot/components"
	"github.com/papercomputeco/medibot/pkg/cliui"
	"github.com/papercomputeco/medibot/pkg/config"
	"github.com/papercomputeco/medibot/pkg/document"
	"github.com/papercomputeco/medibot/pkg/ingest"
	"github.com/papercomputeco/medibot/pkg/logger"
	"github.com/papercomputeco/medibot/pkg/textsplit"
)

type ingestCommander struct {
	cfg       *config.Config
	configDir string

	skipInvalid bool
	watch       bool
	dryRun      bool
	quiet       bool
	debug       bool

	// flag targets, resolved through viper into cfg
	dataDir      string
	chunkSize    uint
	chunkOverlap uint
	workers      uint
	batchSize    uint
	vectorProv   string
	vectorTarget string
	index        string
	embedProv    string
	embedTarget  string
	embedModel   string
	embedDims    uint
	eventsProv   string
	eventsBroker string

	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

var ingestFlags = []string{
	config.FlagDataDir,
	config.FlagChunkSize,
	config.FlagChunkOverlap,
	config.FlagWorkers,
	config.FlagBatchSize,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagIndex,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
}

const ingestLongDesc string = `Build the vector index from the PDF corpus.

Every *.pdf directly inside the data directory is loaded page by page, split
into overlapping chunks, embedded, and upserted into the configured vector
store. Chunk IDs are derived from their source and content, so running ingest
again overwrites rather than duplicates.

The default vector store is Pinecone, which requires PINECONE_API_KEY in the
environment or a .env file.

Examples:
  medibot ingest
  medibot ingest --data ./books --skip-invalid
  medibot ingest --vector-store-provider sqlite --dry-run
  medibot ingest --watch`

const ingestShortDesc string = "Index the PDF corpus into the vector store"

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, cmder.configDir, err = components.ResolveConfig(cmd, ingestFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()
			opts := []logger.Option{
				logger.WithDebug(cmder.debug),
				logger.WithPretty(true),
				logger.WithWriter(cmd.ErrOrStderr()),
			}
			if cmder.quiet && !cmder.debug {
				opts = append(opts, logger.WithLevel(slog.LevelWarn))
			}
			cmder.logger = logger.New(opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx)
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagDataDir, &cmder.dataDir)
	config.AddUintFlag(cmd, config.Registry, config.FlagChunkSize, &cmder.chunkSize)
	config.AddUintFlag(cmd, config.Registry, config.FlagChunkOverlap, &cmder.chunkOverlap)
	config.AddUintFlag(cmd, config.Registry, config.FlagWorkers, &cmder.workers)
	config.AddUintFlag(cmd, config.Registry, config.FlagBatchSize, &cmder.batchSize)
	config.AddStringFlag(cmd, config.Registry, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, config.Registry, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, config.Registry, config.FlagIndex, &cmder.index)
	config.AddStringFlag(cmd, config.Registry, config.FlagEmbeddingProv, &cmder.embedProv)
	config.AddStringFlag(cmd, config.Registry, config.FlagEmbeddingTgt, &cmder.embedTarget)
	config.AddStringFlag(cmd, config.Registry, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, config.Registry, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventsProvider, &cmder.eventsProv)
	config.AddStringFlag(cmd, config.Registry, config.FlagEventsBrokers, &cmder.eventsBroker)

	cmd.Flags().BoolVar(&cmder.skipInvalid, "skip-invalid", false, "Log and skip PDFs that cannot be parsed instead of failing")
	cmd.Flags().BoolVar(&cmder.watch, "watch", false, "Keep running and re-ingest PDFs as they are added or changed")
	cmd.Flags().BoolVar(&cmder.dryRun, "dry-run", false, "Load and split only; report counts without embedding or writing")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Only log warnings and errors")

	return cmd
}

func (c *ingestCommander) run(ctx context.Context) error {
	pipeline, closeAll, err := c.newPipeline(ctx)
	if err != nil {
		return err
	}
	defer closeAll()

	var res *ingest.Result
	err = cliui.Step(c.errOut, fmt.Sprintf("Indexing %s", c.cfg.Ingest.DataDir), func() error {
		var runErr error
		res, runErr = pipeline.Run(ctx)
		return runErr
	})
	if err != nil {
		return err
	}

	c.report(res)

	if !c.watch {
		return nil
	}

	err = pipeline.Watch(ctx, c.cfg.Ingest.DataDir, ingest.DefaultDebounce, func(res *ingest.Result, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "  %s %v\n", cliui.FailMark, err)
			return
		}
		c.report(res)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *ingestCommander) report(res *ingest.Result) {
	if res.DryRun {
		fmt.Fprintf(c.out, "  %s %d files, %d pages, %d chunks %s\n",
			cliui.SuccessMark,
			res.Files, res.Pages, res.Chunks,
			cliui.DimStyle.Render("(dry run, nothing written)"),
		)
		return
	}

	fmt.Fprintf(c.out, "Index '%s' has been created and populated with %d document chunks.\n", res.Index, res.Chunks)
}

// newPipeline builds the ingestion pipeline and a func closing everything it
// opened. A dry run opens no vector store, embedder, or publisher.
func (c *ingestCommander) newPipeline(ctx context.Context) (*ingest.Pipeline, func(), error) {
	splitter, err := textsplit.New(
		textsplit.WithChunkSize(int(c.cfg.Ingest.ChunkSize)),
		textsplit.WithChunkOverlap(int(c.cfg.Ingest.ChunkOverlap)),
	)
	if err != nil {
		return nil, nil, err
	}

	pc := &ingest.Config{
		Loader: document.NewLoader(c.cfg.Ingest.DataDir,
			document.WithSkipInvalid(c.skipInvalid),
			document.WithLogger(c.logger),
		),
		Splitter:  splitter,
		Index:     components.IndexMeta(c.cfg),
		Workers:   c.cfg.Ingest.Workers,
		BatchSize: c.cfg.Ingest.BatchSize,
		DryRun:    c.dryRun,
		Logger:    c.logger,
	}

	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				c.logger.Warn("close failed", logger.Err(err))
			}
		}
	}

	if !c.dryRun {
		driver, err := components.NewVectorDriver(ctx, c.cfg, c.configDir, c.logger)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, driver.Close)
		pc.Driver = driver

		embedder, err := components.NewEmbedder(c.cfg)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, embedder.Close)
		pc.Embedder = embedder

		publisher, err := components.NewPublisher(c.cfg)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, publisher.Close)
		pc.Publisher = publisher
	}

	pipeline, err := ingest.New(pc)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return pipeline, closeAll, nil
}
