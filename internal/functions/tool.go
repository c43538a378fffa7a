package functions

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/paper-scout/scout/internal/types"
)

type Parameter struct {
	Name        string     `yaml:"name" json:"name"`
	Type        string     `yaml:"type" json:"type"`
	Description string     `yaml:"description" json:"description"`
	Required    bool       `yaml:"required" json:"required"`
	Default     any        `yaml:"default" json:"default"`
	Items       *Parameter `yaml:"items" json:"items"` // for array type
	Enum        []string   `yaml:"enum" json:"enum"`
}

type Tool struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description" json:"description"`
	Path        string        `yaml:"path" json:"path"`
	Method      string        `yaml:"method" json:"method"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	Parameters  []Parameter   `yaml:"parameters" json:"parameters"`

	// Endpoint is the server base URL, resolved from config.
	Endpoint string `yaml:"-" json:"endpoint"`
}

// URL returns the full dispatch address
func (t *Tool) URL() string {
	return strings.TrimRight(t.Endpoint, "/") + t.Path
}

func (t *Tool) ToFunctionDefinition() types.Function {
	props := make(map[string]types.PropertyDetails)
	var required []string

	for _, param := range t.Parameters {
		prop := types.PropertyDetails{
			Type:        param.Type,
			Description: param.Description,
			Default:     param.Default,
			Enum:        param.Enum,
		}

		if param.Type == "array" && param.Items != nil {
			prop.Items = &types.Items{Type: param.Items.Type}
		}

		props[param.Name] = prop

		if param.Required {
			required = append(required, param.Name)
		}
	}

	return types.Function{
		Type: "function",
		Function: types.FunctionDefinition{
			Name:        t.Name,
			Description: t.Description,
			Parameters: types.FunctionParameters{
				Type:       "object",
				Properties: props,
				Required:   required,
			},
		},
	}
}

// Normalize checks args against the parameter list and returns the request
// body: declared keys only, defaults filled in. Values keep their decoded
// JSON types so the body re-encodes to the same document.
func (t *Tool) Normalize(args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(t.Parameters))
	for _, param := range t.Parameters {
		val, ok := args[param.Name]
		if !ok || val == nil {
			if param.Required {
				return nil, fmt.Errorf("missing required parameter %q", param.Name)
			}
			if param.Default != nil {
				out[param.Name] = jsonValue(param.Default)
			}
			continue
		}
		if err := param.check(val); err != nil {
			return nil, err
		}
		out[param.Name] = val
	}
	return out, nil
}

func (p *Parameter) check(val any) error {
	if !matchesType(p.Type, val) {
		return fmt.Errorf("parameter %q must be of type %s, got %s", p.Name, p.Type, describe(val))
	}
	if len(p.Enum) > 0 {
		s, _ := val.(string)
		if !slices.Contains(p.Enum, s) {
			return fmt.Errorf("parameter %q must be one of %s", p.Name, strings.Join(p.Enum, ", "))
		}
	}
	if p.Type == "array" && p.Items != nil {
		for i, item := range val.([]any) {
			if !matchesType(p.Items.Type, item) {
				return fmt.Errorf("parameter %q item %d must be of type %s", p.Name, i, p.Items.Type)
			}
		}
	}
	return nil
}

func matchesType(typ string, val any) bool {
	switch typ {
	case "string":
		_, ok := val.(string)
		return ok
	case "integer":
		f, ok := val.(float64)
		return ok && f == math.Trunc(f) && !math.IsInf(f, 0)
	case "number":
		_, ok := val.(float64)
		return ok
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "array":
		_, ok := val.([]any)
		return ok
	case "object":
		_, ok := val.(map[string]any)
		return ok
	}
	return true
}

func describe(val any) string {
	switch val.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", val)
}

// jsonValue converts YAML-decoded defaults to the types encoding/json produces.
func jsonValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return v
}
