package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/paper-scout/scout/internal/bootstrap"
	"github.com/paper-scout/scout/internal/client"
	"github.com/paper-scout/scout/internal/llm"
	"github.com/paper-scout/scout/internal/logger"
	"github.com/paper-scout/scout/internal/types"
)

const summarizePrompt = "Please summarize the following scientific paper text:\n\n"

// PdfSummarizeHandler downloads a PDF, extracts its text and asks the model for a summary
func PdfSummarizeHandler(svcCtx *bootstrap.ServiceContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.PdfSummarizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			sendErrorResponse(c, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
			return
		}
		if u, err := url.ParseRequestURI(req.PdfURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			sendErrorResponse(c, http.StatusBadRequest, fmt.Sprintf("Invalid pdf_url: %q", req.PdfURL))
			return
		}

		ctx := c.Request.Context()
		data, err := svcCtx.PDF.Download(ctx, req.PdfURL)
		if err != nil {
			_ = c.Error(err)
			switch {
			case errors.Is(err, client.ErrNotPDF):
				sendErrorResponse(c, http.StatusBadRequest, "Provided URL does not point to a PDF.")
			case errors.Is(err, client.ErrPDFTooLarge):
				sendErrorResponse(c, http.StatusRequestEntityTooLarge, detailOf(err))
			default:
				sendErrorResponse(c, http.StatusBadGateway, detailOf(err))
			}
			return
		}

		text, err := svcCtx.PDF.ExtractText(data)
		if err != nil {
			_ = c.Error(err)
			if errors.Is(err, client.ErrPDFEmptyText) {
				sendErrorResponse(c, http.StatusUnprocessableEntity, "No readable text found in the PDF.")
				return
			}
			sendErrorResponse(c, http.StatusUnprocessableEntity, detailOf(err))
			return
		}

		maxTokens := svcCtx.Config.Server.PdfSummarize.MaxInputTokens
		truncated := svcCtx.TokenCounter.Truncate(text, maxTokens)
		logger.Info("summarizing PDF",
			zap.String("pdfUrl", req.PdfURL),
			zap.Int("textBytes", len(text)),
			zap.Int("inputBytes", len(truncated)),
			zap.Int("maxInputTokens", maxTokens),
		)

		summary, err := llm.Collect(ctx, svcCtx.LLM, llm.Request{
			Messages: []types.Message{
				{Role: types.RoleSystem, Content: types.SummarizeSystemPrompt},
				{Role: types.RoleUser, Content: summarizePrompt + truncated},
			},
		})
		if err != nil {
			_ = c.Error(err)
			sendErrorResponse(c, http.StatusBadGateway, fmt.Sprintf("Failed to summarize PDF content with LLM: %v", err))
			return
		}
		if strings.TrimSpace(summary) == "" {
			sendErrorResponse(c, http.StatusBadGateway, "LLM failed to generate a summary.")
			return
		}

		c.JSON(http.StatusOK, types.PdfSummarizeResponse{
			Status:  types.ToolStatusSuccess,
			Summary: summary,
		})
	}
}
