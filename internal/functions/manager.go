package functions

import (
	_ "embed"
	"fmt"

	"github.com/paper-scout/scout/internal/config"
	"github.com/paper-scout/scout/internal/logger"
	"github.com/paper-scout/scout/internal/types"
	"go.uber.org/zap"
)

const (
	PaperSearchToolName  = "paper_search"
	PdfSummarizeToolName = "pdf_summarize"
)

//go:embed tools.yaml
var catalogue []byte

// ToolManager is the registry of callable tools. It is immutable once built.
type ToolManager struct {
	tools map[string]*Tool
	order []string
}

// NewToolManager loads the embedded catalogue and binds each tool to its server
func NewToolManager(c config.ToolConfig) (*ToolManager, error) {
	return newToolManager(catalogue, map[string]config.ToolEndpointConfig{
		PaperSearchToolName:  c.PaperSearch,
		PdfSummarizeToolName: c.PdfSummarize,
	})
}

func newToolManager(doc []byte, endpoints map[string]config.ToolEndpointConfig) (*ToolManager, error) {
	type Tools struct {
		Tools []*Tool `yaml:"tools"`
	}
	toolList, err := config.LoadYAMLBytes[Tools](doc)
	if err != nil {
		return nil, fmt.Errorf("failed to load tool catalogue: %w", err)
	}

	tm := &ToolManager{tools: make(map[string]*Tool)}
	for _, tool := range toolList.Tools {
		if _, dup := tm.tools[tool.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q in catalogue", tool.Name)
		}
		ep, ok := endpoints[tool.Name]
		if !ok || ep.URL == "" {
			return nil, fmt.Errorf("no endpoint configured for tool %q", tool.Name)
		}
		tool.Endpoint = ep.URL
		if ep.Timeout > 0 {
			tool.Timeout = ep.Timeout
		}
		if tool.Method == "" {
			tool.Method = "POST"
		}
		tm.tools[tool.Name] = tool
		tm.order = append(tm.order, tool.Name)
		logger.Info("Loaded tool",
			zap.String("name", tool.Name),
			zap.String("url", tool.URL()),
			zap.Duration("timeout", tool.Timeout),
		)
	}
	return tm, nil
}

// GetTool gets a tool
func (m *ToolManager) GetTool(name string) (*Tool, bool) {
	tool, exists := m.tools[name]
	return tool, exists
}

// GetAllTools gets all tools in catalogue order
func (m *ToolManager) GetAllTools() []*Tool {
	tools := make([]*Tool, 0, len(m.order))
	for _, name := range m.order {
		tools = append(tools, m.tools[name])
	}
	return tools
}

// Definitions returns the function schemas advertised to the model
func (m *ToolManager) Definitions() []types.Function {
	defs := make([]types.Function, 0, len(m.order))
	for _, tool := range m.GetAllTools() {
		defs = append(defs, tool.ToFunctionDefinition())
	}
	return defs
}
