package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/paper-scout/scout/internal/bootstrap"
	"github.com/paper-scout/scout/internal/client"
	"github.com/paper-scout/scout/internal/logger"
	"github.com/paper-scout/scout/internal/types"
)

const (
	defaultMaxResults = 5
	maxResultsLimit   = 100
)

// PaperSearchHandler searches arXiv for the newest papers matching a query
func PaperSearchHandler(svcCtx *bootstrap.ServiceContext) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.PaperSearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			sendErrorResponse(c, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
			return
		}

		maxResults := defaultMaxResults
		if req.MaxResults != nil {
			maxResults = *req.MaxResults
		}
		if maxResults < 1 || maxResults > maxResultsLimit {
			sendErrorResponse(c, http.StatusBadRequest,
				fmt.Sprintf("max_results must be between 1 and %d", maxResultsLimit))
			return
		}

		papers, err := svcCtx.Arxiv.Search(c.Request.Context(), req.Query, maxResults)
		if err != nil {
			_ = c.Error(err)
			logger.Warn("arXiv search failed", zap.String("query", req.Query), zap.Error(err))
			if errors.Is(err, client.ErrArxivResponse) {
				sendErrorResponse(c, http.StatusBadGateway, "Failed to parse arXiv API response (invalid XML).")
				return
			}
			sendErrorResponse(c, http.StatusBadGateway, detailOf(err))
			return
		}

		c.JSON(http.StatusOK, types.PaperSearchResponse{
			Status: types.ToolStatusSuccess,
			Papers: papers,
		})
	}
}
