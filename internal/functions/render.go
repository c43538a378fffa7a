package functions

import (
	"fmt"
	"strings"

	"github.com/paper-scout/scout/internal/types"
)

const notAvailable = "N/A"

type renderFunc func(result *types.ToolResponse) string

var renderers = map[string]renderFunc{
	PaperSearchToolName:  renderPapers,
	PdfSummarizeToolName: renderSummary,
}

// render turns a successful tool response into the text handed back to the model
func render(toolName string, result *types.ToolResponse, raw []byte) string {
	if fn, ok := renderers[toolName]; ok {
		return fn(result)
	}
	return string(raw)
}

func renderPapers(result *types.ToolResponse) string {
	if len(result.Papers) == 0 {
		return "No papers found for your query."
	}
	blocks := make([]string, 0, len(result.Papers))
	for _, p := range result.Papers {
		authors := notAvailable
		if len(p.Authors) > 0 {
			authors = strings.Join(p.Authors, ", ")
		}
		blocks = append(blocks, fmt.Sprintf("Title: %s\nAuthors: %s\nPublished: %s\nPDF URL: %s",
			orNA(p.Title), authors, orNA(p.Published), orNA(p.PdfURL)))
	}
	return fmt.Sprintf("Found %d papers:\n%s", len(result.Papers), strings.Join(blocks, "\n\n"))
}

func renderSummary(result *types.ToolResponse) string {
	return "Summary: " + result.Summary
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
