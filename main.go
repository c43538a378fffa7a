package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paper-scout/scout/internal/bootstrap"
	"github.com/paper-scout/scout/internal/config"
	"github.com/paper-scout/scout/internal/console"
	"github.com/paper-scout/scout/internal/handler"
	"github.com/paper-scout/scout/internal/logger"
	"github.com/paper-scout/scout/internal/logic"
)

const defaultChatLogFile = "scout.log"

type rootOptions struct {
	configPath string
	logLevel   string
	logFile    string
}

// load reads the configuration and rebuilds the logger. fallbackLog is used
// when neither the flags nor the config name a log file.
func (o *rootOptions) load(fallbackLog string) (config.Config, error) {
	c, err := config.Load(o.configPath)
	if err != nil {
		return c, err
	}
	if o.logLevel != "" {
		c.Log.Level = o.logLevel
	}
	if o.logFile != "" {
		c.Log.File = o.logFile
	}
	if c.Log.File == "" {
		c.Log.File = fallbackLog
	}
	if err := logger.Init(c.Log.Level, c.Log.File); err != nil {
		return c, err
	}

	logger.Info("loaded config",
		zap.String("path", o.configPath),
		zap.String("provider", c.LLM.Provider),
		zap.String("model", c.LLM.Model),
		zap.String("paperSearchURL", c.Tools.PaperSearch.URL),
		zap.String("pdfSummarizeURL", c.Tools.PdfSummarize.URL),
	)
	return c, nil
}

// main is the entry point of the paper scout agent and its tool servers
func main() {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "scout",
		Short:         "Scientific Paper Scout - chat with a model that can search arXiv and summarize PDFs",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(opts)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.ResolveConfigPath(), "path to the YAML config file (env "+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "log file, '-' for stderr; overrides config")

	rootCmd.AddCommand(newServeCmd(opts))

	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runChat(opts *rootOptions) error {
	c, err := opts.load(defaultChatLogFile)
	if err != nil {
		return err
	}

	svcCtx, err := bootstrap.NewChatContext(c)
	if err != nil {
		return err
	}
	defer svcCtx.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Metrics.Addr != "" {
		go func() {
			if err := handler.Serve(ctx, c.Metrics.Addr, handler.NewRouter(svcCtx)); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	con := console.New(os.Stdin, os.Stdout, console.IsTerminal(os.Stdout))
	chat := logic.NewChatLogic(svcCtx.LLM, svcCtx.ToolExecutor, con, logic.ChatOptions{
		SystemPrompt:  c.LLM.SystemPrompt,
		IdleTimeout:   c.LLM.IdleTimeout,
		MaxToolRounds: c.Agent.MaxToolRounds,
		TokenCounter:  svcCtx.TokenCounter,
		Metrics:       svcCtx.MetricsService,
	})

	logger.Info("chat started",
		zap.String("provider", c.LLM.Provider),
		zap.String("model", c.LLM.Model),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- con.Run(ctx, chat)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case <-ctx.Done():
		fmt.Fprintln(os.Stdout, "\n"+console.Goodbye)
		return nil
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a tool server",
	}
	serveCmd.PersistentFlags().StringVar(&addr, "addr", "", "listen address; overrides config")

	serveCmd.AddCommand(&cobra.Command{
		Use:   "paper-search",
		Short: "Serve POST " + handler.PaperSearchPath + " backed by the arXiv API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.load("")
			if err != nil {
				return err
			}
			svcCtx := bootstrap.NewPaperSearchContext(c)
			router := handler.NewRouter(svcCtx)
			handler.RegisterPaperSearchHandlers(router, svcCtx)
			return serve(withDefault(addr, c.Server.PaperSearch.Addr), router)
		},
	})

	serveCmd.AddCommand(&cobra.Command{
		Use:   "pdf-summarize",
		Short: "Serve POST " + handler.PdfSummarizePath + " backed by the configured model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.load("")
			if err != nil {
				return err
			}
			svcCtx, err := bootstrap.NewPdfSummarizeContext(c)
			if err != nil {
				return err
			}
			router := handler.NewRouter(svcCtx)
			handler.RegisterPdfSummarizeHandlers(router, svcCtx)
			return serve(withDefault(addr, c.Server.PdfSummarize.Addr), router)
		},
	})

	return serveCmd
}

func serve(addr string, router *gin.Engine) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return handler.Serve(ctx, addr, router)
}

func withDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
