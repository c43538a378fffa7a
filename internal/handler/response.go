package handler

import (
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/paper-scout/scout/internal/types"
)

// sendErrorResponse aborts with the tool server error body
func sendErrorResponse(c *gin.Context, statusCode int, detail string) {
	c.AbortWithStatusJSON(statusCode, types.ErrorResponse{
		Status: types.ToolStatusError,
		Detail: detail,
	})
}

// detailOf renders err as a sentence-cased detail message
func detailOf(err error) string {
	msg := err.Error()
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
