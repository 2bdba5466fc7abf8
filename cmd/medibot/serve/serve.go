// Package servecmder provides the serve command that runs the query service.
package servecmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/medibot/api"
	mcpapi "github.com/papercomputeco/medibot/api/mcp"
	"github.com/papercomputeco/medibot/cmd/medibot/components"
	"github.com/papercomputeco/medibot/pkg/config"
	"github.com/papercomputeco/medibot/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type serveCommander struct {
	cfg       *config.Config
	configDir string

	debug   bool
	logJSON bool
	logFile string
	logSink *os.File
	stderr  io.Writer
	noMCP   bool

	// flag targets, resolved through viper into cfg
	listen       string
	topK         uint
	reqTimeout   string
	vectorProv   string
	vectorTarget string
	index        string
	embedProv    string
	embedTarget  string
	embedModel   string
	embedDims    uint
	llmTarget    string
	llmModel     string
	maxTokens    uint
	temperature  float64

	logger *slog.Logger
}

var serveFlags = []string{
	config.FlagListen,
	config.FlagTopK,
	config.FlagRequestTimeout,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagIndex,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagLLMTarget,
	config.FlagLLMModel,
	config.FlagMaxTokens,
	config.FlagTemperature,
}

const serveLongDesc string = `Run the medibot query service.

Serves the chat page at "/" and answers the form field "msg" posted to "/get"
by retrieving the two closest chunks from the index and asking the language
model to answer from them. Also serves:
  GET  /ping         health check
  GET  /v1/search    retrieval only, JSON
  POST /v1/ask       question and answer with sources, JSON
  /mcp               MCP tools "ask" and "search", unless --no-mcp

The model is loaded once at startup.

Examples:
  medibot serve
  medibot serve --listen :9000 --llm-model llama3.2
  medibot serve --vector-store-provider sqlite --log-json`

const serveShortDesc string = "Run the medibot query service"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, cmder.configDir, err = components.ResolveConfig(cmd, serveFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.stderr = cmd.ErrOrStderr()
			cmder.logger, err = cmder.newLogger()
			if err != nil {
				return err
			}
			if cmder.logSink != nil {
				defer cmder.logSink.Close()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx)
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagListen, &cmder.listen)
	config.AddUintFlag(cmd, config.Registry, config.FlagTopK, &cmder.topK)
	config.AddStringFlag(cmd, config.Registry, config.FlagRequestTimeout, &cmder.reqTimeout)
	config.AddStringFlag(cmd, config.Registry, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, config.Registry, config.FlagVectorStoreTgt, &cmder.vectorTarget)
	config.AddStringFlag(cmd, config.Registry, config.FlagIndex, &cmder.index)
	config.AddStringFlag(cmd, config.Registry, config.FlagEmbeddingProv, &cmder.embedProv)
	config.AddStringFlag(cmd, config.Registry, config.FlagEmbeddingTgt, &cmder.embedTarget)
	config.AddStringFlag(cmd, config.Registry, config.FlagEmbeddingModel, &cmder.embedModel)
	config.AddUintFlag(cmd, config.Registry, config.FlagEmbeddingDims, &cmder.embedDims)
	config.AddStringFlag(cmd, config.Registry, config.FlagLLMTarget, &cmder.llmTarget)
	config.AddStringFlag(cmd, config.Registry, config.FlagLLMModel, &cmder.llmModel)
	config.AddUintFlag(cmd, config.Registry, config.FlagMaxTokens, &cmder.maxTokens)
	config.AddFloatFlag(cmd, config.Registry, config.FlagTemperature, &cmder.temperature)

	cmd.Flags().BoolVar(&cmder.logJSON, "log-json", false, "Write JSON logs instead of pretty terminal output")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Disable the MCP endpoint at /mcp")

	return cmd
}

// newLogger builds the terminal logger and, with --log-file, a JSON file sink.
// File records carry their source location in debug mode.
func (c *serveCommander) newLogger() (*slog.Logger, error) {
	if c.stderr == nil {
		c.stderr = os.Stderr
	}
	if c.logFile == "" {
		return logger.New(
			logger.WithDebug(c.debug),
			logger.WithJSON(c.logJSON),
			logger.WithPretty(!c.logJSON),
			logger.WithWriter(c.stderr),
		), nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	c.logSink = f

	// Both sinks are JSON, so one handler writes to both.
	if c.logJSON {
		return logger.New(
			logger.WithDebug(c.debug),
			logger.WithJSON(true),
			logger.WithSource(c.debug),
			logger.WithWriters(c.stderr, f),
		), nil
	}

	term := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(c.stderr),
	)
	file := logger.New(
		logger.WithDebug(c.debug),
		logger.WithJSON(true),
		logger.WithSource(c.debug),
		logger.WithWriter(f),
	)
	return logger.Multi(term, file), nil
}

func (c *serveCommander) run(ctx context.Context) error {
	timeout, err := config.Duration(c.cfg.Server.RequestTimeout, api.DefaultRequestTimeout)
	if err != nil {
		return err
	}

	qa, err := components.NewQA(ctx, c.cfg, c.configDir, c.logger)
	if err != nil {
		return err
	}
	defer qa.Close()

	c.logger.Info("loading model",
		"model", c.cfg.LLM.Model,
		"target", c.cfg.LLM.Target,
	)
	if err := qa.Load(ctx); err != nil {
		return fmt.Errorf("loading model %s: %w", c.cfg.LLM.Model, err)
	}

	var mcpHandler http.Handler
	if !c.noMCP {
		mcpServer, err := mcpapi.NewServer(mcpapi.Config{
			QA:     qa,
			Logger: c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
		mcpHandler = mcpServer.Handler()
	}

	server, err := api.NewServer(api.Config{
		ListenAddr:     c.cfg.Server.Listen,
		RequestTimeout: timeout,
		MCPHandler:     mcpHandler,
	}, qa, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("received signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
