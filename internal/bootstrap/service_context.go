package bootstrap

import (
	"fmt"

	"github.com/paper-scout/scout/internal/client"
	"github.com/paper-scout/scout/internal/config"
	"github.com/paper-scout/scout/internal/functions"
	"github.com/paper-scout/scout/internal/llm"
	"github.com/paper-scout/scout/internal/service"
	"github.com/paper-scout/scout/internal/utils"
)

// ServiceContext holds all service dependencies of one process
type ServiceContext struct {
	Config config.Config

	// Clients
	LLM   llm.Provider
	Arxiv client.ArxivInterface
	PDF   client.PDFInterface

	// Services
	MetricsService *service.MetricsService
	RecordService  service.ToolRecordInterface

	// Utilities
	TokenCounter *utils.TokenCounter

	ToolExecutor *functions.ToolExecutor
}

// NewChatContext wires the interactive agent: model provider, tool catalogue and executor
func NewChatContext(c config.Config) (*ServiceContext, error) {
	provider, err := llm.NewProvider(c.LLM)
	if err != nil {
		return nil, err
	}

	toolManager, err := functions.NewToolManager(c.Tools)
	if err != nil {
		return nil, fmt.Errorf("failed to load tool catalogue: %w", err)
	}

	metricsService := service.NewMetricsService()
	toolExecutor := functions.NewToolExecutor(toolManager, metricsService)

	svc := &ServiceContext{
		Config:         c,
		LLM:            provider,
		MetricsService: metricsService,
		TokenCounter:   utils.NewTokenCounterOrEstimate(),
		ToolExecutor:   toolExecutor,
	}

	if c.Log.ToolRecords != "" {
		recordService := service.NewToolRecordService(c.Log.ToolRecords)
		if err := recordService.Start(); err != nil {
			return nil, fmt.Errorf("failed to start tool record service: %w", err)
		}
		toolExecutor.SetRecordService(recordService)
		svc.RecordService = recordService
	}

	return svc, nil
}

// NewPaperSearchContext wires the paper_search server
func NewPaperSearchContext(c config.Config) *ServiceContext {
	return &ServiceContext{
		Config:         c,
		Arxiv:          client.NewArxivClient(c.Server.PaperSearch),
		MetricsService: service.NewMetricsService(),
	}
}

// NewPdfSummarizeContext wires the pdf_summarize server, which needs a model provider of its own
func NewPdfSummarizeContext(c config.Config) (*ServiceContext, error) {
	provider, err := llm.NewProvider(c.LLM)
	if err != nil {
		return nil, err
	}

	return &ServiceContext{
		Config:         c,
		LLM:            provider,
		PDF:            client.NewPDFClient(c.Server.PdfSummarize),
		MetricsService: service.NewMetricsService(),
		TokenCounter:   utils.NewTokenCounterOrEstimate(),
	}, nil
}

// Stop gracefully stops all services
func (svc *ServiceContext) Stop() {
	if svc.RecordService != nil {
		svc.RecordService.Stop()
	}
}
