package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/paper-scout/scout/internal/bootstrap"
)

const (
	PaperSearchPath  = "/paper_search"
	PdfSummarizePath = "/pdf_summarize"
)

// NewRouter creates an engine with the routes every tool server exposes
func NewRouter(serverCtx *bootstrap.ServiceContext) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestMiddleware(serverCtx.MetricsService))
	router.GET("/healthz", HealthHandler())
	router.GET("/metrics", MetricsHandler(serverCtx))
	return router
}

func RegisterPaperSearchHandlers(router *gin.Engine, serverCtx *bootstrap.ServiceContext) {
	router.POST(PaperSearchPath, PaperSearchHandler(serverCtx))
}

func RegisterPdfSummarizeHandlers(router *gin.Engine, serverCtx *bootstrap.ServiceContext) {
	router.POST(PdfSummarizePath, PdfSummarizeHandler(serverCtx))
}
